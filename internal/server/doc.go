// Package server provides the MCP server context, the streamable HTTP
// transport and the operational endpoints of gtasks-mcp.
//
// # Key Components
//
// ServerContext owns the configuration, logger and metrics shared by every
// tool. It builds the Google Tasks client lazily from the stored OAuth
// token, so the server starts even before `gtasks-mcp auth login` has been
// run and picks the token up on the next call once it exists.
//
// HTTPServer mounts the MCP server at /mcp using the streamable HTTP
// transport. Requests pass through per-IP rate limiting, optional CORS and
// HTTP metrics. SessionIDManager issues the Mcp-Session-Id values.
//
// MetricsServer exposes Prometheus metrics on a separate port, next to
// the health endpoints provided by HealthChecker:
//   - /healthz: liveness
//   - /readyz: readiness, which also requires a stored OAuth token
//   - /healthz/detailed: uptime and token state
package server
