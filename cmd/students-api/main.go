// main is the entry point of the Students API application.
//
// STARTUP SEQUENCE:
//  1. Load configuration (YAML file and/or environment)
//  2. Initialise the logger
//  3. Open the configured record store (memory, sqlite or postgres)
//  4. Optionally seed the demo students
//  5. Register all HTTP routes and start the server
//  6. Block until an OS signal (Ctrl+C / kill) arrives
//  7. Gracefully shut down: finish in-flight requests, then exit
//
// RUNNING THE SERVER:
//
//	go run ./cmd/students-api --config=config/local.yaml
//
// or (with the environment variable):
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/students-api
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aanand-mishra/students-api/internal/config"
	"github.com/aanand-mishra/students-api/internal/engine"
	"github.com/aanand-mishra/students-api/internal/http/handlers/student"
	"github.com/aanand-mishra/students-api/internal/http/middleware"
	"github.com/aanand-mishra/students-api/internal/logger"
	"github.com/aanand-mishra/students-api/internal/storage"
	"github.com/aanand-mishra/students-api/internal/storage/gormstore"
	"github.com/aanand-mishra/students-api/internal/storage/memory"
	"github.com/aanand-mishra/students-api/internal/storage/sqlite"
	"github.com/aanand-mishra/students-api/internal/utils/response"
)

const version = "1.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:          "students-api",
		Short:        "HTTP service for creating, querying and editing student records",
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.MustLoad(configPath)
			return run(cmd.Context(), cfg, logger.New(cfg.Env))
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to the configuration YAML file (or set CONFIG_PATH)")

	return cmd
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	log.Info().Str("version", version).Str("backend", cfg.Storage.Backend).Msg("starting students-api")

	store, err := openStorage(cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialise storage")
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close storage")
		}
	}()

	eng := engine.New(store, engine.RulesFromConfig(cfg.Students))
	log.Info().
		Int("min_age", cfg.Students.MinAge).
		Int("max_age", cfg.Students.MaxAge).
		Bool("class_year_nullable", cfg.Students.ClassYearNullable).
		Msg("storage initialised")

	// ── Seed the demo roster into an empty store ──────────────────────
	if cfg.Students.Seed {
		if err := seedDemo(ctx, eng, log); err != nil {
			log.Error().Err(err).Msg("failed to seed demo students")
			return err
		}
	}

	server := &http.Server{
		Addr:         cfg.HTTPServer.Addr,
		Handler:      newRouter(eng, newMetrics(), log),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("address", cfg.HTTPServer.Addr).Msg("server started")
		// ErrServerClosed is the normal result of Shutdown.
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("server encountered an error")
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received, stopping server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shutdown server gracefully")
		return err
	}

	log.Info().Msg("server stopped gracefully")
	return nil
}

// seedDemo inserts the demo students unless the store already has
// records. A sqlite file seeded on an earlier boot is left as it is.
func seedDemo(ctx context.Context, eng *engine.Engine, log zerolog.Logger) error {
	seeded, inserted, err := eng.SeedIfEmpty(ctx, engine.DemoStudents())
	if err != nil {
		return err
	}
	if !inserted {
		log.Info().Msg("store already has students, skipping seed")
		return nil
	}
	log.Info().Int("count", len(seeded)).Msg("demo students seeded")
	return nil
}

// newMetrics builds the HTTP metrics and adds the Go runtime and process
// collectors to the same registry, so /metrics serves all of them.
func newMetrics() *middleware.Metrics {
	metrics := middleware.NewMetrics()
	metrics.Registry().MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return metrics
}

// openStorage picks the record store named by cfg.Storage.Backend.
func openStorage(cfg *config.Config, log zerolog.Logger) (storage.Storage, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory, "":
		return memory.New(), nil
	case config.BackendSQLite:
		return sqlite.New(cfg, log)
	case config.BackendPostgres:
		return gormstore.OpenPostgres(cfg.Storage.DSN, log)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// newRouter mounts the student routes plus the operational endpoints and
// wraps everything in logging and metrics.
func newRouter(eng *engine.Engine, metrics *middleware.Metrics, log zerolog.Logger) http.Handler {
	router := http.NewServeMux()

	student.Register(router, eng)

	router.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		response.WriteJSON(w, http.StatusOK, map[string]string{
			"message": "hello, see GET /students to browse the roster",
		})
	})
	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		response.WriteJSON(w, http.StatusOK, map[string]string{"status": response.StatusOK})
	})
	router.Handle("GET /metrics", metrics.Handler())

	mws := append(middleware.Logging(log), metrics.Middleware)
	return middleware.Chain(router, mws...)
}
