// Command authsession-server serves login, logout, refresh and introspect
// over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/spf13/pflag"
	"github.com/teamer-dev/authsession"
	"github.com/teamer-dev/authsession/api"
	"github.com/teamer-dev/authsession/internal/logging"
	"github.com/teamer-dev/authsession/metrics/export/prometheus"
	"github.com/teamer-dev/authsession/revocation"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "authsession-server:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := pflag.StringP("config", "c", os.Getenv(authsession.EnvConfigPath), "path to the YAML configuration file")
	pflag.Parse()

	cfg, err := authsession.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	srvCfg, err := loadServerConfig(*configPath)
	if err != nil {
		return err
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Pretty)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	be, err := openBackends(ctx, cfg, srvCfg, logger)
	if err != nil {
		return err
	}
	defer be.Close(context.Background())

	builder := authsession.New().
		WithConfig(cfg).
		WithRevocationStore(be.store).
		WithPrincipalStore(be.principals).
		WithLogger(logger)
	if be.redis != nil {
		builder = builder.WithRedis(be.redis)
	}
	if cfg.Audit.Enabled {
		builder = builder.WithAuditSink(authsession.NewLogSink(logger))
	}

	engine, err := builder.Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	report := engine.SecurityReport()
	logger.Info().
		Str("algorithm", report.SigningAlgorithm).
		Str("revocation_store", report.RevocationStore).
		Bool("atomic_revocation", report.AtomicRevocation).
		Bool("rate_limiting", report.RateLimitingActive).
		Dur("valid", report.ValidDuration).
		Dur("refreshable", report.RefreshableDuration).
		Msg("engine ready")
	if !report.AtomicRevocation {
		logger.Warn().Msg("revocation store has no conditional write; run a single instance")
	}

	if be.pruner != nil && cfg.Revocation.SweepSchedule != "" {
		sweeper, err := revocation.NewSweeper(be.pruner, cfg.Revocation.SweepSchedule, logger)
		if err != nil {
			return err
		}
		sweeper.Start()
		defer sweeper.Stop()
	}

	router := mux.NewRouter()
	api.NewHandler(engine, logger).Register(router)
	if cfg.Metrics.Enabled {
		router.Handle("/metrics", prometheus.New(engine).Handler()).Methods(http.MethodGet)
	}

	server := &http.Server{
		Addr:    srvCfg.HTTP.Addr,
		Handler: withCORS(router, srvCfg.HTTP.AllowedOrigins),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), srvCfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	return nil
}

func withCORS(h http.Handler, origins []string) http.Handler {
	if len(origins) == 0 {
		return h
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(h)
}

