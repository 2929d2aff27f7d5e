package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mamacare/engine/internal/cron"
	"github.com/mamacare/engine/internal/engine"
	syncpkg "github.com/mamacare/engine/internal/sync"
	"github.com/mamacare/engine/pkg/config"
	"github.com/mamacare/engine/pkg/firestore"
	"github.com/mamacare/engine/pkg/logger"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "syncd"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "syncd",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)

	var store syncpkg.DocumentStore
	if cfg.Firestore.Enabled() {
		fsStore, err := firestore.NewStore(ctx, cfg.Firestore, cfg.Sync.UsersCollection)
		if err != nil {
			logg.Error(ctx, "failed to dial firestore", err)
			os.Exit(1)
		}
		defer func() {
			if err := fsStore.Close(); err != nil {
				logg.Error(ctx, "error closing firestore", err)
			}
		}()
		store = fsStore
	} else {
		logg.Warn(ctx, "no firestore project configured; running local-only")
	}

	registry := prometheus.NewRegistry()
	eng, err := engine.Open(ctx, cfg, logg, engine.Options{Store: store, Metrics: registry})
	if err != nil {
		logg.Error(ctx, "failed to open engine", err)
		os.Exit(1)
	}
	defer func() {
		if err := eng.Close(); err != nil {
			logg.Error(ctx, "error closing engine", err)
		}
	}()

	maintenance, err := buildService(logg, eng, cfg)
	if err != nil {
		logg.Error(ctx, "failed to build maintenance scheduler", err)
		os.Exit(1)
	}
	go func() {
		if err := maintenance.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "maintenance scheduler stopped unexpectedly", err)
		}
	}()

	if store != nil {
		syncService, err := buildSyncService(logg, eng, cfg)
		if err != nil {
			logg.Error(ctx, "failed to build sync scheduler", err)
			os.Exit(1)
		}
		go func() {
			if err := syncService.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logg.Error(ctx, "sync scheduler stopped unexpectedly", err)
			}
		}()
	}

	if cfg.Status.Enabled {
		server := statusServer(cfg, logg, eng, registry)
		go func() {
			logg.Info(logg.WithField(ctx, "addr", cfg.Status.Addr), "status listener starting")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logg.Error(ctx, "status listener stopped unexpectedly", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logg.Error(ctx, "error shutting down status listener", err)
			}
		}()
	}

	logg.Info(ctx, "syncd running")
	<-ctx.Done()
	logg.Info(ctx, "syncd shutting down gracefully")
}

func buildService(logg *logger.Logger, eng *engine.Engine, cfg *config.Config) (*cron.Service, error) {
	job, err := eng.MaintenanceJob()
	if err != nil {
		return nil, err
	}
	return cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(job),
		Lock:     cron.NewMutexLock(),
		Metrics:  eng.JobMetrics(),
		Interval: cfg.Maintenance.Interval,
	})
}

func buildSyncService(logg *logger.Logger, eng *engine.Engine, cfg *config.Config) (*cron.Service, error) {
	job, err := eng.SyncJob()
	if err != nil {
		return nil, err
	}
	return cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(job),
		Lock:     cron.NewMutexLock(),
		Metrics:  eng.JobMetrics(),
		Interval: cfg.Sync.Interval,
	})
}

func statusServer(cfg *config.Config, logg *logger.Logger, eng *engine.Engine, registry *prometheus.Registry) *http.Server {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := eng.Client().Ping(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	router.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		version, err := eng.Schema().Version(ctx)
		if err != nil {
			http.Error(w, "could not read schema version", http.StatusInternalServerError)
			return
		}
		tier, err := eng.Search().ActiveTier(ctx)
		if err != nil {
			http.Error(w, "could not read search tier", http.StatusInternalServerError)
			return
		}
		lastSynced, err := eng.Prefs().GetLastSynced(ctx, cfg.Sync.UsersCollection)
		if err != nil {
			http.Error(w, "could not read sync watermark", http.StatusInternalServerError)
			return
		}

		body := map[string]any{
			"schema_version": version,
			"search_tier":    tier,
			"database_path":  eng.Client().Path(),
			"remote_enabled": eng.Reconciler() != nil,
		}
		if !lastSynced.IsZero() {
			body["last_synced_at"] = lastSynced.UTC().Format(time.RFC3339)
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(body); err != nil {
			logg.Error(ctx, "encoding status response", err)
		}
	})

	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return &http.Server{
		Addr:              cfg.Status.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
