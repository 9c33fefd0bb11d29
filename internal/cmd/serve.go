package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/projectflow/internal/auth"
	"github.com/felixgeelhaar/projectflow/internal/errors"
	"github.com/felixgeelhaar/projectflow/internal/health"
	"github.com/felixgeelhaar/projectflow/internal/metrics"
	"github.com/felixgeelhaar/projectflow/internal/project"
	"github.com/felixgeelhaar/projectflow/internal/server"
	"github.com/felixgeelhaar/projectflow/internal/store"
	"github.com/felixgeelhaar/projectflow/internal/version"
)

func newServeCmd() *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the projectflow HTTP API with Kubernetes-style health endpoints.

Endpoints:
  /api/...        - Auth, project and task API (see /api/openapi.yaml)
  /health/live    - Liveness probe (process alive and responsive)
  /health/ready   - Readiness probe (store reachable, not shutting down)
  /health/startup - Startup probe (finished initialization)
  /healthz        - Backward-compatible readiness endpoint
  /metrics        - Prometheus metrics

The server drains connections on SIGTERM or SIGINT before exiting.`,
		Example: `  projectflow serve
  projectflow serve --address :9090
  projectflow serve --config projectflow.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cc.Close()

			if address != "" {
				cc.Config.Server.Address = address
			}
			if err := cc.Config.Validate(); err != nil {
				return err
			}
			return runServe(cmd.Context(), cc)
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "listen address (overrides server.address)")
	return cmd
}

func runServe(ctx context.Context, cc *CommandContext) error {
	cfg := cc.Config
	logger := cc.Logger
	info := version.GetInfo()

	for _, w := range cfg.Warnings() {
		logger.Warn("insecure configuration", "warning", w)
	}

	st, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return errors.NewStoreUnavailableError(cfg.Database.Driver, err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn("store close failed", "error", err)
		}
	}()

	reg, m := metrics.NewRegistry()
	tokens := auth.NewTokenManager([]byte(cfg.Auth.JWTKey), cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	authSvc, err := auth.NewService(st, tokens, cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}

	pm := health.NewProbeManager(info.Version)
	pm.AddChecker(health.NewPingChecker("store", st))

	srv, err := server.New(server.Config{
		Address:          cfg.Server.Address,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
		ReadTimeout:      cfg.Server.ReadTimeout,
		WriteTimeout:     cfg.Server.WriteTimeout,
		IdleTimeout:      cfg.Server.IdleTimeout,
		CORSOrigins:      cfg.Server.CORSOrigins,
		ValidateRequests: cfg.Server.ValidateRequests,
	}, server.Deps{
		Auth:     authSvc,
		Projects: project.NewService(st, m),
		Probes:   pm,
		Metrics:  m,
		Registry: reg,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	logger.Info("starting projectflow",
		"version", info.Version,
		"address", cfg.Server.Address,
		"store", cfg.Database.Driver,
		"telemetry", cfg.Telemetry.Enabled,
	)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		logger.Info("initiating graceful shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout+5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}

		logger.Info("server stopped gracefully")
		return nil
	}
}
