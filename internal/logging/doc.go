// Package logging provides structured logging utilities for gtasks-mcp.
//
// All logging goes through log/slog. New builds the process logger, which
// always writes to stderr unless told otherwise: in stdio mode stdout
// carries the MCP protocol.
//
// Create a logger with standard attributes:
//
//	logger := logging.WithTool(slog.Default(), "tasks_summary")
//	logger.Warn("list skipped",
//	    logging.ListID(id),
//	    logging.Err(err))
//
// Tokens are never logged directly; use SanitizeToken.
package logging
