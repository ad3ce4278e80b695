package common

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/oklog/ulid/v2"

	"github.com/teemow/gtasks-mcp/internal/apperr"
	"github.com/teemow/gtasks-mcp/internal/instrumentation"
	"github.com/teemow/gtasks-mcp/internal/logging"
	"github.com/teemow/gtasks-mcp/internal/server"
)

// ToolHandler is the mcp-go tool handler signature.
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

type invocationKey struct{}

// InvocationID returns the id of the tool call running in ctx.
func InvocationID(ctx context.Context) string {
	id, _ := ctx.Value(invocationKey{}).(string)
	return id
}

// InstrumentedToolHandler wraps a tool handler with metrics and audit logging.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(toolName string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return InstrumentedToolHandlerWithService(toolName, "", "", sc, handler)
}

// InstrumentedToolHandlerWithService is like InstrumentedToolHandler but also
// records the backing service and operation type.
//
// Every call gets a ULID invocation id and a tool span. Failures are
// classified with apperr.Kind, counted per tool and kind, and written to
// the audit log together with the task list and task the call targeted.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandlerWithService("my_tool", "tasks", "list", sc, handler))
func InstrumentedToolHandlerWithService(
	toolName string,
	serviceName string,
	operation string,
	sc *server.ServerContext,
	handler ToolHandler,
) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		metrics := sc.Metrics()
		auditLogger := sc.AuditLogger()

		id := ulid.Make().String()
		listID, taskID := TargetFromArgs(request.GetArguments())

		ctx = context.WithValue(ctx, invocationKey{}, id)
		ctx, span := instrumentation.StartToolSpan(ctx, toolName,
			instrumentation.NewSpanAttributeBuilder().
				WithService(serviceName).
				WithOperation(operation).
				WithInvocationID(id).
				WithList(listID).
				WithTask(taskID).
				WithReadOnly(sc.Config().ReadOnly).
				Build()...)
		defer span.End()

		ctx, out := withOutcome(ctx)

		start := time.Now()
		invocation := instrumentation.NewToolInvocation(toolName).
			WithInvocationID(id).
			WithSpanContext(ctx).
			WithTarget(listID, taskID)
		if serviceName != "" {
			invocation.WithService(serviceName, operation)
		}

		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		switch {
		case err != nil || (result != nil && result.IsError):
			status = instrumentation.StatusError
			cause := err
			if cause == nil {
				cause = out.err
			}
			if cause == nil {
				cause = errors.New("tool returned an error result")
			}
			kind := apperr.Kind(cause)
			invocation.CompleteWithError(cause, kind)
			instrumentation.SetSpanErrorKind(span, cause, kind)
			metrics.RecordToolError(ctx, toolName, kind)
			sc.Logger().Debug("tool call failed",
				logging.Tool(toolName),
				logging.InvocationID(id),
				logging.Err(cause))
		default:
			invocation.CompleteSuccess()
			instrumentation.SetSpanSuccess(span)
		}

		metrics.RecordToolInvocation(ctx, toolName, status, duration)

		if auditLogger != nil {
			auditLogger.LogToolInvocation(invocation)
		}

		return result, err
	}
}
