package tasks_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/gtasks-mcp/internal/apperr"
	"github.com/teemow/gtasks-mcp/internal/render"
	"github.com/teemow/gtasks-mcp/internal/server"
	"github.com/teemow/gtasks-mcp/internal/tools/common"
	"github.com/teemow/gtasks-mcp/internal/validation"
)

// tool pairs a definition with its handler and the labels used for
// metrics. Mutating tools are skipped in read-only mode.
type tool struct {
	def       mcp.Tool
	handler   common.ToolHandler
	service   string
	operation string
	mutating  bool
}

// handlers carries the dependencies shared by every tool handler.
type handlers struct {
	sc *server.ServerContext
}

// RegisterTasksTools registers all Tasks-related tools with the MCP server
func RegisterTasksTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if s == nil || sc == nil {
		return fmt.Errorf("mcp server and server context are required")
	}

	h := &handlers{sc: sc}
	readOnly := sc.Config().ReadOnly

	selected := h.tools(readOnly)
	for _, t := range selected {
		s.AddTool(t.def, common.InstrumentedToolHandlerWithService(t.def.Name, t.service, t.operation, sc, t.handler))
	}

	sc.Logger().Info("registered tasks tools", "count", len(selected), "read_only", readOnly)
	return nil
}

// tools returns every tool, without the mutating ones in read-only mode.
func (h *handlers) tools(readOnly bool) []tool {
	var all []tool
	all = append(all, h.taskListTools()...)
	all = append(all, h.taskTools()...)
	all = append(all, h.workflowTools()...)

	if !readOnly {
		return all
	}
	out := all[:0]
	for _, t := range all {
		if !t.mutating {
			out = append(out, t)
		}
	}
	return out
}

// bind decodes the call arguments into req, cleans free-text fields,
// applies defaults and validates the result.
func bind(request mcp.CallToolRequest, req interface{ defaults(*handlers) }, h *handlers) error {
	if err := request.BindArguments(req); err != nil {
		return apperr.Validation("", "", "malformed arguments: "+err.Error(), "Check the argument types against the tool schema.")
	}
	if s, ok := req.(interface{ sanitize() }); ok {
		s.sanitize()
	}
	req.defaults(h)
	return validation.Struct(req)
}

// listID resolves an optional task list id to the configured default.
func (h *handlers) listID(id string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return h.sc.Config().DefaultListID
}

func (h *handlers) renderer(mode string) (render.Renderer, error) {
	return h.sc.Renderer(mode)
}

func withFormat(desc string) mcp.ToolOption {
	return mcp.WithString("response_format",
		mcp.Description(desc),
		mcp.Enum(render.Modes()...),
	)
}

func withListID(desc string) mcp.ToolOption {
	return mcp.WithString("tasklist_id",
		mcp.Description(desc+" Defaults to the configured default list (@default)."),
	)
}

func errorResult(ctx context.Context, err error) (*mcp.CallToolResult, error) {
	return common.ErrorResult(ctx, err), nil
}

func textResult(text string) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(text), nil
}
