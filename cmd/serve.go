package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/gtasks-mcp/internal/config"
	"github.com/teemow/gtasks-mcp/internal/google"
	"github.com/teemow/gtasks-mcp/internal/instrumentation"
	"github.com/teemow/gtasks-mcp/internal/logging"
	"github.com/teemow/gtasks-mcp/internal/resources"
	"github.com/teemow/gtasks-mcp/internal/server"
	"github.com/teemow/gtasks-mcp/internal/tools/tasks_tools"
)

// serveFlags holds the serve flags. Only flags set on the command line
// override the config file and environment.
type serveFlags struct {
	transport      string
	httpAddr       string
	rateLimit      string
	corsOrigins    string
	readOnly       bool
	debug          bool
	logFormat      string
	timeZone       string
	defaultList    string
	metricsEnabled bool
	metricsAddr    string
}

func newServeCmd() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server to provide Google Tasks
tools for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - http: Streamable HTTP transport at /mcp (alias: streamable-http)

Read-only Mode:
  With --read-only only the list, get, search and summary tools are
  registered.

Authorization:
  Run "gtasks-mcp auth login" once before serving. Without a stored token
  the server still starts and every tool explains how to authorize.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			if err := flags.apply(cmd, cfg); err != nil {
				return err
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().StringVar(&flags.transport, "transport", config.TransportStdio, "Transport type: stdio or http")
	cmd.Flags().StringVar(&flags.httpAddr, "http-addr", "127.0.0.1:8080", "HTTP server address (for http transport)")
	cmd.Flags().StringVar(&flags.rateLimit, "rate-limit", "20-S", "Per-IP request rate for the http transport, e.g. 20-S or 1000-H. Empty disables limiting.")
	cmd.Flags().StringVar(&flags.corsOrigins, "cors-origins", "", "Comma-separated origins allowed to call the http transport from a browser")
	cmd.Flags().BoolVar(&flags.readOnly, "read-only", false, "Register only tools that do not modify tasks")
	cmd.Flags().BoolVar(&flags.debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&flags.logFormat, "log-format", "text", "Log format: text or json")
	cmd.Flags().StringVar(&flags.timeZone, "time-zone", "Local", "IANA time zone used to resolve relative dates such as \"tomorrow\"")
	cmd.Flags().StringVar(&flags.defaultList, "default-list", "@default", "Task list used when a tool call names none")
	cmd.Flags().BoolVar(&flags.metricsEnabled, "metrics-enabled", false, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", ":9090", "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

// apply copies explicitly set flags into cfg and revalidates it.
func (f *serveFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed

	if changed("transport") {
		cfg.Transport.Mode = normalizeTransport(f.transport)
	}
	if changed("http-addr") {
		cfg.Transport.HTTPAddr = f.httpAddr
	}
	if changed("rate-limit") {
		cfg.Transport.RateLimit = f.rateLimit
	}
	if changed("cors-origins") {
		cfg.Transport.CORSOrigins = parseCommaSeparatedList(f.corsOrigins)
	}
	if changed("read-only") {
		cfg.ReadOnly = f.readOnly
	}
	if changed("debug") && f.debug {
		cfg.Log.Level = "debug"
	}
	if changed("log-format") {
		cfg.Log.Format = f.logFormat
	}
	if changed("time-zone") {
		cfg.TimeZone = f.timeZone
	}
	if changed("default-list") {
		cfg.DefaultListID = f.defaultList
	}
	if changed("metrics-enabled") {
		cfg.Metrics.Enabled = f.metricsEnabled
	}
	if changed("metrics-addr") {
		cfg.Metrics.Addr = f.metricsAddr
	}

	return cfg.Validate()
}

// normalizeTransport accepts the streamable-http spelling used by MCP hosts.
func normalizeTransport(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	if t == "streamable-http" {
		return config.TransportHTTP
	}
	return t
}

func runServe(cfg *config.Config) error {
	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Warn("error during instrumentation shutdown", logging.Err(err))
		}
	}()

	var metrics *instrumentation.Metrics
	if provider.Enabled() {
		metrics = provider.Metrics()
	}

	opts := []server.Option{
		server.WithLogger(logger),
		server.WithMetrics(metrics),
		server.WithAuditLogger(instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging)),
	}
	auth, err := newAuthProvider(cfg, logger, metrics)
	if err != nil {
		// Tools report the missing credentials until they are configured.
		logger.Warn("Google OAuth client is not configured", logging.Err(err))
	} else {
		opts = append(opts, server.WithAuthProvider(auth))
		if _, err := auth.Load(shutdownCtx); err != nil {
			logger.Warn("no Google Tasks token stored yet; run `gtasks-mcp auth login`", "token_file", auth.TokenPath())
		}
	}

	serverContext, err := server.NewServerContext(shutdownCtx, cfg, opts...)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("error during server context shutdown", logging.Err(err))
		}
	}()

	health := server.NewHealthChecker(serverContext)
	health.SetReady(false)

	if cfg.Metrics.Enabled && provider.Enabled() {
		metricsServer, err := startMetricsServer(cfg.Metrics.Addr, provider, health, logger)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Warn("error during metrics server shutdown", logging.Err(err))
			}
		}()
	}

	mcpSrv := mcpserver.NewMCPServer(config.AppName, version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false), // Subscribe and listChanged
	)

	if cfg.ReadOnly {
		logger.Info("starting server in READ-ONLY mode")
	}
	if err := tasks_tools.RegisterTasksTools(mcpSrv, serverContext); err != nil {
		return fmt.Errorf("failed to register Tasks tools: %w", err)
	}
	if err := resources.RegisterTaskResources(mcpSrv, serverContext); err != nil {
		return fmt.Errorf("failed to register resources: %w", err)
	}
	health.SetReady(true)

	switch cfg.Transport.Mode {
	case config.TransportStdio:
		return runStdioServer(mcpSrv)
	case config.TransportHTTP:
		return runHTTPServer(shutdownCtx, mcpSrv, cfg, metrics, health, logger)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, http)", cfg.Transport.Mode)
	}
}

// newAuthProvider builds the file-backed token store from the OAuth client
// configuration.
func newAuthProvider(cfg *config.Config, logger *slog.Logger, metrics *instrumentation.Metrics) (*google.FileAuthProvider, error) {
	credentials, err := cfg.CredentialsPath()
	if err != nil {
		return nil, err
	}
	tokenPath, err := cfg.TokenPath()
	if err != nil {
		return nil, err
	}
	conf, err := google.OAuthConfig(credentials, cfg.Auth.ClientID, cfg.Auth.ClientSecret, cfg.Auth.RedirectURL)
	if err != nil {
		return nil, err
	}
	return google.NewFileAuthProvider(conf, tokenPath,
		google.WithLogger(logger),
		google.WithMetrics(metrics),
	), nil
}

func startMetricsServer(addr string, provider *instrumentation.Provider, health *server.HealthChecker, logger *slog.Logger) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    addr,
		InstrumentationProvider: provider,
		Health:                  health,
		Logger:                  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}
	// Bind before serving so a busy port fails the command.
	if err := metricsServer.Listen(); err != nil {
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	}

	go func() {
		if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", logging.Err(err))
		}
	}()
	logger.Info("metrics server started", "addr", metricsServer.Addr())
	return metricsServer, nil
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, cfg *config.Config, metrics *instrumentation.Metrics, health *server.HealthChecker, logger *slog.Logger) error {
	httpServer, err := server.NewHTTPServer(mcpSrv, server.HTTPServerConfig{
		Addr:        cfg.Transport.HTTPAddr,
		RateLimit:   cfg.Transport.RateLimit,
		CORSOrigins: cfg.Transport.CORSOrigins,
		Metrics:     metrics,
		Health:      health,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}
	if err := httpServer.Listen(); err != nil {
		return err
	}

	logger.Info("streamable HTTP server ready",
		"addr", httpServer.Addr(),
		"endpoint", server.MCPEndpoint,
		"rate_limit", cfg.Transport.RateLimit,
		"cors_origins", cfg.Transport.CORSOrigins,
	)

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}

// parseCommaSeparatedList parses a comma-separated string into a slice,
// trimming whitespace from each element and filtering out empty strings.
// Returns nil if the input is empty or contains only whitespace/commas.
func parseCommaSeparatedList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
