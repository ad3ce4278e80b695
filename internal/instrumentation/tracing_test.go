package instrumentation

import (
	"context"
	"errors"
	"testing"
	"time"
)

// newTestProvider starts a provider with the Prometheus exporter and no
// tracing exporter, and shuts it down when the test ends.
func newTestProvider(t *testing.T) (context.Context, *Provider) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	provider, err := NewProvider(ctx, Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: "prometheus",
		TracingExporter: "none",
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	t.Cleanup(func() { _ = provider.Shutdown(ctx) })

	return ctx, provider
}

func TestSpanAttributeBuilder(t *testing.T) {
	builder := NewSpanAttributeBuilder().
		WithTool("tasks_list_tasks").
		WithService(ServiceTasks).
		WithOperation(OperationList).
		WithList("list-1").
		WithTask("task-9").
		WithInvocationID("01HPZ7Q3YH").
		WithResource("task", "task-9").
		WithReadOnly(true)

	attrs := builder.Build()

	if len(attrs) != 9 {
		t.Errorf("expected 9 attributes, got %d", len(attrs))
	}

	attrMap := make(map[string]interface{})
	for _, attr := range attrs {
		attrMap[string(attr.Key)] = attr.Value.AsInterface()
	}

	if attrMap[SpanAttrTool] != "tasks_list_tasks" {
		t.Errorf("expected tool 'tasks_list_tasks', got %v", attrMap[SpanAttrTool])
	}
	if attrMap[SpanAttrService] != ServiceTasks {
		t.Errorf("expected service %q, got %v", ServiceTasks, attrMap[SpanAttrService])
	}
	if attrMap[SpanAttrListID] != "list-1" {
		t.Errorf("expected list id 'list-1', got %v", attrMap[SpanAttrListID])
	}
	if attrMap[SpanAttrTaskID] != "task-9" {
		t.Errorf("expected task id 'task-9', got %v", attrMap[SpanAttrTaskID])
	}
	if attrMap[SpanAttrInvocationID] != "01HPZ7Q3YH" {
		t.Errorf("expected invocation id, got %v", attrMap[SpanAttrInvocationID])
	}
	if attrMap[SpanAttrReadOnly] != true {
		t.Errorf("expected read_only true, got %v", attrMap[SpanAttrReadOnly])
	}
}

func TestSpanAttributeBuilder_EmptyValues(t *testing.T) {
	// Empty identifiers should not be added
	builder := NewSpanAttributeBuilder().
		WithTool("test_tool").
		WithList("").
		WithTask("").
		WithInvocationID("").
		WithResource("", "")

	attrs := builder.Build()

	if len(attrs) != 1 {
		t.Errorf("expected 1 attribute (only tool), got %d", len(attrs))
	}
}

func TestStartSpans(t *testing.T) {
	ctx, _ := newTestProvider(t)

	spanCtx, span := StartSpan(ctx, "test-span")
	if spanCtx == nil || span == nil {
		t.Fatal("expected context and span to be non-nil")
	}
	span.End()

	spanCtx, span = StartToolSpan(ctx, "tasks_summary")
	if spanCtx == nil || span == nil {
		t.Fatal("expected context and span to be non-nil")
	}
	span.End()

	spanCtx, span = StartGoogleAPISpan(ctx, ServiceTasks, OperationList)
	if spanCtx == nil || span == nil {
		t.Fatal("expected context and span to be non-nil")
	}
	span.End()
}

func TestSetSpanError(t *testing.T) {
	ctx, _ := newTestProvider(t)

	_, span := StartSpan(ctx, "test-span")

	// Should not panic
	SetSpanError(span, errors.New("test error"))
	SetSpanError(span, nil)
	SetSpanErrorKind(span, errors.New("list missing"), ErrorKindNotFound)
	SetSpanErrorKind(span, nil, ErrorKindNotFound)
	span.End()
}

func TestSetSpanSuccessAndEvent(t *testing.T) {
	ctx, _ := newTestProvider(t)

	_, span := StartSpan(ctx, "test-span")

	// Should not panic
	AddSpanEvent(span, "list_failed")
	SetSpanSuccess(span)
	span.End()
}

func TestSpanIDs_NoSpan(t *testing.T) {
	ctx := context.Background()
	if id := GetTraceID(ctx); id != "" {
		t.Errorf("expected empty trace ID for context without span, got %q", id)
	}
	if id := GetSpanID(ctx); id != "" {
		t.Errorf("expected empty span ID for context without span, got %q", id)
	}
	if s := SpanContextString(ctx); s != "" {
		t.Errorf("expected empty context string for context without span, got %q", s)
	}
}
