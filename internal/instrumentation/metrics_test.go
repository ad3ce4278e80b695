package instrumentation

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/metric/noop"
)

func TestNewMetrics_NoopMeter(t *testing.T) {
	m, err := NewMetrics(noop.NewMeterProvider().Meter("test"), true)
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	if !m.detailedLabels {
		t.Error("expected detailed labels to be stored")
	}

	ctx := context.Background()

	// Should not panic
	m.RecordToolError(ctx, "tasks_summary", ErrorKindPartial)
	m.RecordListFailure(ctx, OperationSummary, ErrorKindUpstream)
}

func TestMetrics_RecordHTTPRequest(t *testing.T) {
	ctx, provider := newTestProvider(t)

	metrics := provider.Metrics()
	if metrics == nil {
		t.Fatal("expected metrics to be non-nil")
	}

	// Should not panic
	metrics.IncrementInFlight(ctx)
	metrics.RecordHTTPRequest(ctx, "GET", "/mcp", 200, 100*time.Millisecond)
	metrics.RecordHTTPRequest(ctx, "POST", "/mcp", 429, 50*time.Millisecond)
	metrics.DecrementInFlight(ctx)
}

func TestMetrics_RecordGoogleAPIOperation(t *testing.T) {
	ctx, provider := newTestProvider(t)

	metrics := provider.Metrics()

	// Should not panic
	metrics.RecordGoogleAPIOperation(ctx, ServiceTasks, OperationList, StatusSuccess, 200*time.Millisecond)
	metrics.RecordGoogleAPIOperation(ctx, ServiceTasks, OperationMove, StatusError, 500*time.Millisecond)
}

func TestMetrics_RecordOAuth(t *testing.T) {
	ctx, provider := newTestProvider(t)

	metrics := provider.Metrics()

	// Should not panic
	metrics.RecordOAuthAuth(ctx, OAuthResultSuccess)
	metrics.RecordOAuthAuth(ctx, OAuthResultFailure)
	metrics.RecordOAuthTokenRefresh(ctx, OAuthResultSuccess)
	metrics.RecordOAuthTokenRefresh(ctx, OAuthResultExpired)
}

func TestMetrics_RecordToolInvocation(t *testing.T) {
	ctx, provider := newTestProvider(t)

	metrics := provider.Metrics()

	// Should not panic
	metrics.RecordToolInvocation(ctx, "tasks_list_tasks", StatusSuccess, 100*time.Millisecond)
	metrics.RecordToolInvocation(ctx, "tasks_create_task", StatusError, 200*time.Millisecond)
	metrics.RecordToolError(ctx, "tasks_create_task", ErrorKindValidation)
	metrics.RecordToolError(ctx, "tasks_create_task", "unexpected")
}

func TestMetrics_NoOp_WhenDisabled(t *testing.T) {
	ctx := context.Background()

	provider, err := NewProvider(ctx, Config{
		ServiceName:    "test-service",
		ServiceVersion: "1.0.0",
		Enabled:        false,
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}

	metrics := provider.Metrics()
	if metrics == nil {
		t.Fatal("expected metrics to be non-nil even when disabled")
	}

	// All these should not panic even with nil underlying metrics
	metrics.RecordHTTPRequest(ctx, "GET", "/mcp", 200, 100*time.Millisecond)
	metrics.IncrementInFlight(ctx)
	metrics.DecrementInFlight(ctx)
	metrics.RecordGoogleAPIOperation(ctx, ServiceTasks, OperationList, StatusSuccess, 200*time.Millisecond)
	metrics.RecordOAuthAuth(ctx, OAuthResultSuccess)
	metrics.RecordOAuthTokenRefresh(ctx, OAuthResultSuccess)
	metrics.RecordToolInvocation(ctx, "test_tool", StatusSuccess, 100*time.Millisecond)
	metrics.RecordToolError(ctx, "test_tool", ErrorKindAuth)
	metrics.RecordListFailure(ctx, OperationSearch, ErrorKindUpstream)
}

func TestMetrics_NilReceiver(t *testing.T) {
	var metrics *Metrics
	ctx := context.Background()

	// Should not panic
	metrics.RecordToolInvocation(ctx, "test_tool", StatusError, time.Millisecond)
	metrics.RecordListFailure(ctx, OperationSummary, ErrorKindAuth)
	metrics.RecordGoogleAPIOperation(ctx, ServiceTasks, OperationGet, StatusError, time.Millisecond)
}
