package instrumentation

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// scrape fetches the Prometheus exposition served by the provider.
func scrape(t *testing.T, p *Provider) string {
	t.Helper()

	handler := p.PrometheusHandler()
	if handler == nil {
		t.Fatal("expected a Prometheus handler")
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("scrape returned %d: %s", rec.Code, rec.Body.String())
	}
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("failed to read scrape: %v", err)
	}
	return string(body)
}

func TestNewProvider_DisabledIsNoop(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{
		ServiceName:    "gtasks-mcp",
		ServiceVersion: "test",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if provider.Enabled() {
		t.Error("expected provider to be disabled")
	}
	if provider.PrometheusHandler() != nil {
		t.Error("expected no Prometheus handler while disabled")
	}

	// Recording through a disabled provider must not panic.
	ctx := context.Background()
	m := provider.Metrics()
	m.RecordToolInvocation(ctx, "tasks_summary", StatusSuccess, time.Millisecond)
	m.RecordListFailure(ctx, OperationSummary, "upstream")
	m.RecordGoogleAPIOperation(ctx, ServiceTasks, OperationList, StatusSuccess, time.Millisecond)

	if provider.Tracer("gtasks-mcp") == nil {
		t.Error("expected a no-op tracer")
	}
	if err := provider.Shutdown(ctx); err != nil {
		t.Errorf("expected no error on shutdown, got %v", err)
	}
}

func TestProvider_PrometheusExposesTaskMetrics(t *testing.T) {
	ctx, provider := newTestProvider(t)
	m := provider.Metrics()

	m.RecordToolInvocation(ctx, "tasks_search", StatusSuccess, 40*time.Millisecond)
	m.RecordToolError(ctx, "tasks_get_task", "not_found")
	m.RecordListFailure(ctx, OperationSearch, "upstream")
	m.RecordGoogleAPIOperation(ctx, ServiceTasks, OperationList, StatusSuccess, 25*time.Millisecond)

	body := scrape(t, provider)

	for _, want := range []string{
		"mcp_tool_invocations",
		`tool="tasks_search"`,
		"mcp_tool_errors",
		`tool="tasks_get_task"`,
		"aggregate_list_failures",
		`operation="search"`,
		"google_api_operations",
		`service="tasks"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected scrape to contain %q", want)
		}
	}
}

func TestProvider_ListFailureErrorKindNeedsDetailedLabels(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := NewProvider(ctx, Config{
		ServiceName:     "gtasks-mcp",
		ServiceVersion:  "test",
		Enabled:         true,
		MetricsExporter: ExporterPrometheus,
		TracingExporter: "none",
		DetailedLabels:  true,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer func() { _ = provider.Shutdown(ctx) }()

	provider.Metrics().RecordListFailure(ctx, OperationSummary, "auth")

	body := scrape(t, provider)
	if !strings.Contains(body, `operation="summary"`) {
		t.Error("expected the summary list failure in the scrape")
	}
	if !strings.Contains(body, `error_kind="auth"`) {
		t.Error("expected error_kind label with detailed labels enabled")
	}
}

func TestNewProvider_StdoutHasNoPrometheusHandler(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := NewProvider(ctx, Config{
		ServiceName:     "gtasks-mcp",
		ServiceVersion:  "test",
		Enabled:         true,
		MetricsExporter: ExporterStdout,
		TracingExporter: ExporterStdout,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer func() { _ = provider.Shutdown(ctx) }()

	if provider.PrometheusHandler() != nil {
		t.Error("expected PrometheusHandler to be nil for stdout exporter")
	}
}

func TestNewProvider_RejectsBadExporters(t *testing.T) {
	tests := []struct {
		name    string
		metrics string
		tracing string
	}{
		{name: "unknown metrics exporter", metrics: "statsd", tracing: "none"},
		{name: "unknown tracing exporter", metrics: ExporterPrometheus, tracing: "zipkin"},
		{name: "otlp metrics without endpoint", metrics: ExporterOTLP, tracing: "none"},
		{name: "otlp tracing without endpoint", metrics: ExporterPrometheus, tracing: ExporterOTLP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			_, err := NewProvider(ctx, Config{
				ServiceName:     "gtasks-mcp",
				ServiceVersion:  "test",
				Enabled:         true,
				MetricsExporter: tt.metrics,
				TracingExporter: tt.tracing,
			})
			if err == nil {
				t.Error("expected an error")
			}
		})
	}
}
