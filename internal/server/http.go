package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/cors"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/teemow/gtasks-mcp/internal/instrumentation"
)

// MCPEndpoint is where the streamable HTTP transport is mounted.
const MCPEndpoint = "/mcp"

// HTTPServerConfig configures the streamable HTTP transport.
type HTTPServerConfig struct {
	Addr string

	// RateLimit is a limiter rate such as "20-S", applied per client IP.
	// Empty disables limiting.
	RateLimit string

	// CORSOrigins enables CORS for the listed origins when non-empty.
	CORSOrigins []string

	Metrics  *instrumentation.Metrics
	Health   *HealthChecker
	Sessions *SessionIDManager
	Logger   *slog.Logger
}

// HTTPServer exposes an MCP server over streamable HTTP together with the
// health endpoints.
type HTTPServer struct {
	addr     string
	handler  http.Handler
	sessions *SessionIDManager
	logger   *slog.Logger

	mu         sync.Mutex
	listener   net.Listener
	httpServer *http.Server
}

// NewHTTPServer builds the handler chain around mcpServer.
func NewHTTPServer(mcpServer *mcpserver.MCPServer, config HTTPServerConfig) (*HTTPServer, error) {
	if mcpServer == nil {
		return nil, fmt.Errorf("mcp server is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sessions := config.Sessions
	if sessions == nil {
		sessions = NewSessionIDManagerWithLogger(DefaultSessionTimeout, logger)
	}

	streamable := mcpserver.NewStreamableHTTPServer(mcpServer,
		mcpserver.WithEndpointPath(MCPEndpoint),
		mcpserver.WithSessionIdManager(sessions),
	)

	mux := http.NewServeMux()
	mux.Handle(MCPEndpoint, streamable)
	if config.Health != nil {
		config.Health.RegisterHealthEndpoints(mux)
	}

	var handler http.Handler = mux
	if config.RateLimit != "" {
		limit, err := RateLimitMiddleware(config.RateLimit)
		if err != nil {
			return nil, err
		}
		handler = limit(handler)
	}
	if len(config.CORSOrigins) > 0 {
		handler = CORSMiddleware(config.CORSOrigins)(handler)
	}
	handler = MetricsMiddleware(config.Metrics)(handler)

	return &HTTPServer{
		addr:     config.Addr,
		handler:  handler,
		sessions: sessions,
		logger:   logger,
	}, nil
}

// Handler returns the full middleware chain.
func (s *HTTPServer) Handler() http.Handler { return s.handler }

// Listen binds the configured address.
func (s *HTTPServer) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return nil
	}
	l, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = l
	return nil
}

// Start serves until Shutdown. It returns http.ErrServerClosed after a
// graceful shutdown.
func (s *HTTPServer) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}

	s.mu.Lock()
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	srv, l := s.httpServer, s.listener
	s.mu.Unlock()

	s.logger.Info("starting MCP HTTP server", "addr", l.Addr().String(), "endpoint", MCPEndpoint)
	return srv.Serve(l)
}

// Shutdown drains in-flight requests and stops session cleanup.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	defer s.sessions.Stop()

	s.mu.Lock()
	srv, l := s.httpServer, s.listener
	s.mu.Unlock()

	if srv != nil {
		s.logger.Info("shutting down MCP HTTP server")
		return srv.Shutdown(ctx)
	}
	if l != nil {
		return l.Close()
	}
	return nil
}

// Addr returns the bound address once listening, the configured one before.
func (s *HTTPServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// RateLimitMiddleware limits requests per client IP using an in-memory
// store.
func RateLimitMiddleware(rate string) (func(http.Handler) http.Handler, error) {
	r, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", rate, err)
	}
	instance := limiter.New(memory.NewStore(), r)
	mw := stdlibmw.NewMiddleware(instance, stdlibmw.WithKeyGetter(clientIP))
	return mw.Handler, nil
}

// clientIP keys on the TCP peer. Forwarding headers are ignored since the
// server is meant to sit on loopback.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// CORSMiddleware allows browser clients from origins.
func CORSMiddleware(origins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Accept", "Mcp-Session-Id", "Mcp-Protocol-Version", "Last-Event-ID"},
		ExposedHeaders: []string{"Mcp-Session-Id"},
		MaxAge:         300,
	})
	return c.Handler
}

// MetricsMiddleware records request counts, durations and in-flight
// requests. A nil recorder makes it a pass-through.
func MetricsMiddleware(m *instrumentation.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			m.IncrementInFlight(ctx)
			defer m.DecrementInFlight(ctx)

			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			m.RecordHTTPRequest(ctx, r.Method, routeLabel(r), rec.status, time.Since(start))
		})
	}
}

// routeLabel keeps the path label bounded to the routes the server knows.
func routeLabel(r *http.Request) string {
	switch r.URL.Path {
	case MCPEndpoint, "/healthz", "/readyz", "/healthz/detailed":
		return r.URL.Path
	default:
		return "other"
	}
}

// statusRecorder captures the response status. It forwards Flush so
// streamed responses keep working.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }
