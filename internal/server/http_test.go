package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"
)

func newTestMCPServer() *mcpserver.MCPServer {
	return mcpserver.NewMCPServer("gtasks-mcp-test", "0.0.0", mcpserver.WithToolCapabilities(true))
}

func TestNewHTTPServer_Validation(t *testing.T) {
	if _, err := NewHTTPServer(nil, HTTPServerConfig{}); err == nil {
		t.Error("NewHTTPServer(nil) expected error")
	}
	if _, err := NewHTTPServer(newTestMCPServer(), HTTPServerConfig{RateLimit: "lots"}); err == nil {
		t.Error("NewHTTPServer() expected error for malformed rate")
	}
}

func TestHTTPServer_Initialize(t *testing.T) {
	s, err := NewHTTPServer(newTestMCPServer(), HTTPServerConfig{Addr: "127.0.0.1:0"})
	if err != nil {
		t.Fatalf("NewHTTPServer() error = %v", err)
	}
	defer s.sessions.Stop()

	body := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"1"}}}`
	req := httptest.NewRequest(http.MethodPost, MCPEndpoint, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	id := rec.Header().Get("Mcp-Session-Id")
	if id == "" {
		t.Fatal("missing Mcp-Session-Id header")
	}
	if terminated, err := s.sessions.Validate(id); err != nil || terminated {
		t.Errorf("session %q not tracked: %v %v", id, terminated, err)
	}
}

func TestHTTPServer_HealthMounted(t *testing.T) {
	s, err := NewHTTPServer(newTestMCPServer(), HTTPServerConfig{Health: NewHealthChecker(nil)})
	if err != nil {
		t.Fatalf("NewHTTPServer() error = %v", err)
	}
	defer s.sessions.Stop()

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /healthz status = %d", rec.Code)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limit, err := RateLimitMiddleware("2-M")
	if err != nil {
		t.Fatalf("RateLimitMiddleware() error = %v", err)
	}
	h := limit(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 200 429]", codes)
	}

	// another client has its own budget
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("second client status = %d", rec.Code)
	}
}

func TestCORSMiddleware(t *testing.T) {
	h := CORSMiddleware([]string{"https://app.example.com"})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, MCPEndpoint, nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("Allow-Origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, MCPEndpoint, nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Allow-Origin for unknown origin = %q, want empty", got)
	}
}

func TestMetricsMiddleware_RecordsStatus(t *testing.T) {
	provider := createTestProvider(t)
	h := MetricsMiddleware(provider.Metrics())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/unknown", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d", rec.Code)
	}

	// nil metrics is a pass-through
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	if MetricsMiddleware(nil)(next) == nil {
		t.Error("MetricsMiddleware(nil) returned nil handler")
	}
}

func TestRouteLabel(t *testing.T) {
	tests := map[string]string{
		"/mcp":           "/mcp",
		"/readyz":        "/readyz",
		"/mcp/../secret": "other",
		"/favicon.ico":   "other",
	}
	for path, want := range tests {
		req := httptest.NewRequest(http.MethodGet, "http://x"+path, nil)
		if got := routeLabel(req); got != want {
			t.Errorf("routeLabel(%q) = %q, want %q", path, got, want)
		}
	}
}
