package common

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/gtasks-mcp/internal/apperr"
)

type outcomeKey struct{}

// outcome carries the Go error behind an error result back to the
// instrumentation wrapper, which only sees the rendered text otherwise.
type outcome struct {
	err error
}

func withOutcome(ctx context.Context) (context.Context, *outcome) {
	o := &outcome{}
	return context.WithValue(ctx, outcomeKey{}, o), o
}

// ErrorResult renders err for the agent and records it for metrics and
// the audit log.
func ErrorResult(ctx context.Context, err error) *mcp.CallToolResult {
	if o, ok := ctx.Value(outcomeKey{}).(*outcome); ok {
		o.err = err
	}
	return mcp.NewToolResultError(apperr.UserMessage(err))
}
