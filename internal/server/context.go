package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/teemow/gtasks-mcp/internal/aggregate"
	"github.com/teemow/gtasks-mcp/internal/apperr"
	"github.com/teemow/gtasks-mcp/internal/config"
	"github.com/teemow/gtasks-mcp/internal/google"
	"github.com/teemow/gtasks-mcp/internal/instrumentation"
	"github.com/teemow/gtasks-mcp/internal/logging"
	"github.com/teemow/gtasks-mcp/internal/render"
	"github.com/teemow/gtasks-mcp/internal/tasks"
)

// ServerContext holds the context for the MCP server
type ServerContext struct {
	ctx     context.Context
	cancel  context.CancelFunc
	cfg     *config.Config
	loc     *time.Location
	clock   func() time.Time
	logger  *slog.Logger
	metrics *instrumentation.Metrics
	audit   *instrumentation.AuditLogger
	auth    google.AuthProvider

	mu         sync.RWMutex
	store      tasks.Store
	aggregator *aggregate.Aggregator
	shutdown   bool
}

// Option configures a ServerContext.
type Option func(*ServerContext)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(sc *ServerContext) {
		if l != nil {
			sc.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(sc *ServerContext) { sc.metrics = m }
}

// WithAuditLogger sets the audit logger for tool invocations.
func WithAuditLogger(a *instrumentation.AuditLogger) Option {
	return func(sc *ServerContext) { sc.audit = a }
}

// WithAuthProvider sets the provider used to build the task store.
func WithAuthProvider(p google.AuthProvider) Option {
	return func(sc *ServerContext) { sc.auth = p }
}

// WithStore uses store instead of building a Google Tasks client.
func WithStore(store tasks.Store) Option {
	return func(sc *ServerContext) { sc.store = store }
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(sc *ServerContext) {
		if now != nil {
			sc.clock = now
		}
	}
}

// NewServerContext creates a new server context. The task store is built
// on first use so the server can start before the user has logged in.
func NewServerContext(ctx context.Context, cfg *config.Config, opts ...Option) (*ServerContext, error) {
	if cfg == nil {
		d := config.Default()
		cfg = &d
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	sc := &ServerContext{
		ctx:    shutdownCtx,
		cancel: cancel,
		cfg:    cfg,
		loc:    loc,
		clock:  time.Now,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(sc)
	}
	return sc, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Config returns the configuration.
func (sc *ServerContext) Config() *config.Config { return sc.cfg }

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger { return sc.logger }

// Metrics returns the metrics recorder, nil when disabled.
func (sc *ServerContext) Metrics() *instrumentation.Metrics { return sc.metrics }

// AuditLogger returns the audit logger, nil when disabled.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger { return sc.audit }

// Now returns the current time in the configured time zone.
func (sc *ServerContext) Now() time.Time {
	return sc.clock().In(sc.loc)
}

// Renderer returns the renderer for mode with the configured limits.
func (sc *ServerContext) Renderer(mode string) (render.Renderer, error) {
	return render.For(mode, render.WithCharLimit(sc.cfg.Limits.CharacterLimit))
}

// Store returns the task store, building the Google Tasks client on first
// use. Failures are not cached, so logging in later fixes them without a
// restart.
func (sc *ServerContext) Store() (tasks.Store, error) {
	sc.mu.RLock()
	store := sc.store
	sc.mu.RUnlock()
	if store != nil {
		return store, nil
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.store != nil {
		return sc.store, nil
	}
	if sc.auth == nil {
		return nil, &apperr.AuthError{Err: google.ErrNoCredentials}
	}

	ts, err := sc.auth.TokenSource(sc.ctx)
	if err != nil {
		return nil, err
	}
	client, err := tasks.NewClient(sc.ctx, ts,
		tasks.WithAPITimeout(sc.cfg.APITimeout),
		tasks.WithMetrics(sc.metrics),
	)
	if err != nil {
		return nil, err
	}
	sc.logger.Info("created Google Tasks client")
	sc.store = client
	return client, nil
}

// Aggregator returns the multi-list aggregator over Store.
func (sc *ServerContext) Aggregator() (*aggregate.Aggregator, error) {
	store, err := sc.Store()
	if err != nil {
		return nil, err
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.aggregator == nil {
		limits := sc.cfg.Limits
		sc.aggregator = aggregate.New(store,
			aggregate.WithLogger(logging.NewSlogAdapter(sc.logger)),
			aggregate.WithMetrics(sc.metrics),
			aggregate.WithConcurrency(limits.Concurrency),
			aggregate.WithTasksPerList(limits.TasksPerList),
			aggregate.WithMaxLists(limits.MaxLists),
		)
	}
	return sc.aggregator, nil
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}

// AuthProvider returns the configured auth provider, nil when the store
// was injected directly.
func (sc *ServerContext) AuthProvider() google.AuthProvider { return sc.auth }
