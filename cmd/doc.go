// Package cmd implements the command-line interface for gtasks-mcp.
//
// This package provides the following commands:
//   - serve: Start the MCP server over stdio or streamable HTTP
//   - auth login: Authorize access to Google Tasks and store the token
//   - auth status: Show whether a token is stored and still usable
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
//
// The serve command is the default command when no subcommand is specified.
package cmd
