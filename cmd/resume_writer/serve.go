package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-writer/internal/config"
	"github.com/jonathan/resume-writer/internal/observability"
	"github.com/jonathan/resume-writer/internal/server"
	"github.com/jonathan/resume-writer/internal/server/ratelimit"
)

var servePort string

// tracingFlushTimeout bounds the span flush after the server stops.
const tracingFlushTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the section generation endpoints, the admin token-usage endpoint and /health.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (overrides PORT, default 8000)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != "" {
		cfg.Port = servePort
	}

	logger, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}

	shutdownTracing, err := observability.SetupTracing(cfg.TracingExporter)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}

	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return fmt.Errorf("failed to create JWT config: %w", err)
	}

	delay, err := cfg.StreamDelayDuration()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	p, err := newPipeline(ctx, cfg, logger, true)
	if err != nil {
		return err
	}

	admin := config.NewAdminConfig()
	if !admin.Enabled() {
		logger.Warn("ADMIN_PASSWORD is not set; /admin/token-usage will reject every request")
	}

	srv, err := server.New(server.Options{
		Addr:        cfg.Addr(),
		FrontendURL: cfg.FrontendURL,
		StreamDelay: delay,
		Dispatcher:  p.dispatcher,
		Counter:     p.counter,
		Reporter:    p.reporter(),
		JWT:         server.NewJWTService(jwtConfig),
		Admin:       admin,
		RateLimiter: ratelimit.NewLimiter(ratelimit.LoadConfig()),
		Logger:      logger,
		OnShutdown: []func(){
			p.Close,
			flushOnShutdown(shutdownTracing, tracingFlushTimeout),
		},
	})
	if err != nil {
		p.Close()
		return fmt.Errorf("failed to create server: %w", err)
	}

	logger.Info("configured completion provider", "provider", cfg.LLMProvider, "model", cfg.LLMModel)
	return srv.Start(ctx)
}

// flushOnShutdown runs shutdown under its own deadline. The command context is already done by the
// time shutdown hooks run.
func flushOnShutdown(shutdown func(context.Context) error, timeout time.Duration) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		_ = shutdown(ctx)
	}
}
