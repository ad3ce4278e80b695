package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/teemow/gtasks-mcp/internal/apperr"
	"github.com/teemow/gtasks-mcp/internal/config"
	"github.com/teemow/gtasks-mcp/internal/render"
	"github.com/teemow/gtasks-mcp/internal/tasks/taskstest"
)

// stubAuth is an AuthProvider with a fixed token, or none.
type stubAuth struct {
	token *oauth2.Token
	calls int
}

func (s *stubAuth) Load(context.Context) (*oauth2.Token, error) {
	if s.token == nil {
		return nil, errors.New("no token")
	}
	return s.token, nil
}

func (s *stubAuth) Refresh(ctx context.Context) (*oauth2.Token, error) { return s.Load(ctx) }

func (s *stubAuth) Save(t *oauth2.Token) error {
	s.token = t
	return nil
}

func (s *stubAuth) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	s.calls++
	tok, err := s.Load(ctx)
	if err != nil {
		return nil, &apperr.AuthError{Err: err}
	}
	return oauth2.StaticTokenSource(tok), nil
}

func TestServerContext_InjectedStore(t *testing.T) {
	store := taskstest.NewFakeStore()
	sc, err := NewServerContext(context.Background(), nil, WithStore(store))
	if err != nil {
		t.Fatalf("NewServerContext() error = %v", err)
	}
	defer sc.Shutdown()

	got, err := sc.Store()
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if got != store {
		t.Error("Store() did not return the injected store")
	}

	agg1, err := sc.Aggregator()
	if err != nil {
		t.Fatalf("Aggregator() error = %v", err)
	}
	agg2, _ := sc.Aggregator()
	if agg1 != agg2 {
		t.Error("Aggregator() should be cached")
	}
}

func TestServerContext_StoreErrorNotCached(t *testing.T) {
	auth := &stubAuth{}
	sc, err := NewServerContext(context.Background(), nil, WithAuthProvider(auth))
	if err != nil {
		t.Fatalf("NewServerContext() error = %v", err)
	}
	defer sc.Shutdown()

	if _, err := sc.Store(); !errors.Is(err, apperr.ErrAuth) {
		t.Fatalf("Store() error = %v, want auth error", err)
	}

	auth.token = &oauth2.Token{AccessToken: "a", Expiry: time.Now().Add(time.Hour)}
	if _, err := sc.Store(); err != nil {
		t.Fatalf("Store() after login error = %v", err)
	}
	if _, err := sc.Store(); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if auth.calls != 2 {
		t.Errorf("TokenSource calls = %d, want 2", auth.calls)
	}
}

func TestServerContext_NowUsesConfiguredZone(t *testing.T) {
	cfg := config.Default()
	cfg.TimeZone = "America/New_York"
	fixed := time.Date(2024, 2, 15, 3, 0, 0, 0, time.UTC)

	sc, err := NewServerContext(context.Background(), &cfg, WithClock(func() time.Time { return fixed }))
	if err != nil {
		t.Fatalf("NewServerContext() error = %v", err)
	}
	defer sc.Shutdown()

	now := sc.Now()
	if now.Location().String() != "America/New_York" {
		t.Errorf("Now() location = %s", now.Location())
	}
	if now.Day() != 14 {
		t.Errorf("Now() day = %d, want 14", now.Day())
	}
}

func TestServerContext_InvalidTimeZone(t *testing.T) {
	cfg := config.Default()
	cfg.TimeZone = "Mars/Olympus"
	if _, err := NewServerContext(context.Background(), &cfg); err == nil {
		t.Error("NewServerContext() expected error for unknown zone")
	}
}

func TestServerContext_Renderer(t *testing.T) {
	sc, err := NewServerContext(context.Background(), nil)
	if err != nil {
		t.Fatalf("NewServerContext() error = %v", err)
	}
	defer sc.Shutdown()

	if _, err := sc.Renderer(string(render.Markdown)); err != nil {
		t.Errorf("Renderer(markdown) error = %v", err)
	}
	if _, err := sc.Renderer("xml"); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Renderer(xml) error = %v, want validation error", err)
	}
}

func TestServerContext_Shutdown(t *testing.T) {
	sc, err := NewServerContext(context.Background(), nil)
	if err != nil {
		t.Fatalf("NewServerContext() error = %v", err)
	}

	if sc.IsShutdown() {
		t.Error("IsShutdown() = true before Shutdown")
	}
	if err := sc.Shutdown(); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
	if err := sc.Shutdown(); err != nil {
		t.Errorf("second Shutdown() error = %v", err)
	}
	if !sc.IsShutdown() {
		t.Error("IsShutdown() = false after Shutdown")
	}
	if sc.Context().Err() == nil {
		t.Error("Context() should be cancelled after Shutdown")
	}
}
