// Package engine wires the persistence and sync stack into one facade: the
// database client, schema management, search, the entity repositories and
// the remote reconciler. The host process opens one Engine per database file.
package engine

import (
	"context"

	"github.com/mamacare/engine/internal/appointments"
	"github.com/mamacare/engine/internal/content"
	"github.com/mamacare/engine/internal/cron"
	"github.com/mamacare/engine/internal/devices"
	"github.com/mamacare/engine/internal/hospitals"
	"github.com/mamacare/engine/internal/notes"
	"github.com/mamacare/engine/internal/notifications"
	"github.com/mamacare/engine/internal/predictions"
	"github.com/mamacare/engine/internal/prefs"
	"github.com/mamacare/engine/internal/pregnancy"
	"github.com/mamacare/engine/internal/schema"
	"github.com/mamacare/engine/internal/search"
	syncpkg "github.com/mamacare/engine/internal/sync"
	"github.com/mamacare/engine/internal/users"
	"github.com/mamacare/engine/internal/videos"
	"github.com/mamacare/engine/pkg/config"
	"github.com/mamacare/engine/pkg/db"
	"github.com/mamacare/engine/pkg/logger"
	"github.com/mamacare/engine/pkg/metrics"
	"github.com/mamacare/engine/pkg/security"
	"github.com/prometheus/client_golang/prometheus"
)

// Engine is the assembled local persistence and sync stack.
type Engine struct {
	cfg  *config.Config
	logg *logger.Logger

	client *db.Client
	schema *schema.Manager
	search *search.Service

	users         *users.Repository
	devices       *devices.Repository
	pregnancy     *pregnancy.Repository
	hospitals     *hospitals.Repository
	predictions   *predictions.Repository
	notes         *notes.Repository
	videos        *videos.Repository
	appointments  *appointments.Repository
	notifications *notifications.Repository
	content       *content.Repository
	prefs         *prefs.Repository

	reconciler *syncpkg.Reconciler

	jobMetrics  *metrics.JobMetrics
	syncMetrics *metrics.SyncMetrics
	registry    *prometheus.Registry
}

// Options tune engine assembly beyond config.
type Options struct {
	// Store is the remote document store; nil leaves the engine in
	// local-only mode with no reconciler.
	Store syncpkg.DocumentStore
	// Metrics is the prometheus registry to register on; nil disables
	// metric collection.
	Metrics *prometheus.Registry
}

// Open builds the full stack: database handle, schema (created or migrated
// to the current version), search installation and every repository.
// Failures here are fatal for the host and carry the FATAL_INIT code where
// the database itself is the cause.
func Open(ctx context.Context, cfg *config.Config, logg *logger.Logger, opts Options) (*Engine, error) {
	client, err := db.Open(ctx, cfg.DB, logg)
	if err != nil {
		return nil, err
	}

	searchService := search.NewService(client, logg)
	schemaManager, err := schema.NewManager(schema.ManagerParams{
		Client: client,
		Logger: logg,
		Search: searchService,
	})
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	if err := schemaManager.Ensure(ctx); err != nil {
		if closeErr := client.Close(); closeErr != nil {
			logg.Error(ctx, "closing database after failed init", closeErr)
		}
		return nil, err
	}

	eng := &Engine{
		cfg:      cfg,
		logg:     logg,
		client:   client,
		schema:   schemaManager,
		search:   searchService,
		registry: opts.Metrics,
	}
	if opts.Metrics != nil {
		eng.jobMetrics = metrics.NewJobMetrics(opts.Metrics)
		eng.syncMetrics = metrics.NewSyncMetrics(opts.Metrics)
	}

	hasher := security.NewArgonHasher(cfg.Password)
	eng.users = users.NewRepository(users.RepositoryParams{
		Client:     client,
		Hasher:     hasher,
		Logger:     logg,
		SessionTTL: cfg.Password.SessionDuration,
		ResetTTL:   cfg.Password.ResetTokenExpiry,
	})
	eng.devices = devices.NewRepository(client)
	eng.pregnancy = pregnancy.NewRepository(client)
	eng.hospitals = hospitals.NewRepository(client)
	eng.predictions = predictions.NewRepository(client)
	eng.notes = notes.NewRepository(client)
	eng.videos = videos.NewRepository(videos.RepositoryParams{
		Client:           client,
		Search:           searchService,
		Logger:           logg,
		RebuildThreshold: cfg.Policy.RebuildThreshold,
		WatchWindow:      cfg.Policy.RecentWatchWindow,
	})
	eng.appointments = appointments.NewRepository(client)
	eng.notifications = notifications.NewRepository(client)
	eng.content = content.NewRepository(client)
	eng.prefs = prefs.NewRepository(client)

	if opts.Store != nil {
		eng.reconciler = syncpkg.NewReconciler(syncpkg.ReconcilerParams{
			Client:     client,
			Users:      eng.users,
			Prefs:      eng.prefs,
			Store:      opts.Store,
			Logger:     logg,
			Metrics:    eng.syncMetrics,
			Collection: cfg.Sync.UsersCollection,
		})
	}

	return eng, nil
}

// Close releases the database handle.
func (e *Engine) Close() error {
	return e.client.Close()
}

// Export writes a consistent snapshot of the database to dest.
func (e *Engine) Export(ctx context.Context, dest string) error {
	return e.client.Export(ctx, dest)
}

// MaintenanceJob builds the daily sweep job over this engine's repositories.
func (e *Engine) MaintenanceJob() (cron.Job, error) {
	return cron.NewMaintenanceJob(cron.MaintenanceJobParams{
		Logger:        e.logg,
		Client:        e.client,
		Sessions:      e.users,
		Notifications: e.notifications,
		RetentionDays: e.cfg.Maintenance.NotificationRetentionDays,
	})
}

// SyncJob builds the reconciliation job, or nil when no remote store is
// configured.
func (e *Engine) SyncJob() (cron.Job, error) {
	if e.reconciler == nil {
		return nil, nil
	}
	return cron.NewSyncJob(cron.SyncJobParams{
		Logger:     e.logg,
		Reconciler: e.reconciler,
	})
}

// JobMetrics returns the scheduler metrics, possibly nil.
func (e *Engine) JobMetrics() *metrics.JobMetrics { return e.jobMetrics }

// Client exposes the raw database client for tooling.
func (e *Engine) Client() *db.Client { return e.client }

// Schema exposes the schema manager for tooling.
func (e *Engine) Schema() *schema.Manager { return e.schema }

// Search exposes the installed search service.
func (e *Engine) Search() *search.Service { return e.search }

// Users returns the users repository.
func (e *Engine) Users() *users.Repository { return e.users }

// Devices returns the push token repository.
func (e *Engine) Devices() *devices.Repository { return e.devices }

// Pregnancy returns the pregnancy detail repository.
func (e *Engine) Pregnancy() *pregnancy.Repository { return e.pregnancy }

// Hospitals returns the favorite hospitals repository.
func (e *Engine) Hospitals() *hospitals.Repository { return e.hospitals }

// Predictions returns the prediction history repository.
func (e *Engine) Predictions() *predictions.Repository { return e.predictions }

// Notes returns the calendar notes repository.
func (e *Engine) Notes() *notes.Repository { return e.notes }

// Videos returns the video catalog repository.
func (e *Engine) Videos() *videos.Repository { return e.videos }

// Appointments returns the appointments repository.
func (e *Engine) Appointments() *appointments.Repository { return e.appointments }

// Notifications returns the notifications repository.
func (e *Engine) Notifications() *notifications.Repository { return e.notifications }

// Content returns the content catalog repository.
func (e *Engine) Content() *content.Repository { return e.content }

// Prefs returns the preferences repository.
func (e *Engine) Prefs() *prefs.Repository { return e.prefs }

// Reconciler returns the sync reconciler, or nil in local-only mode.
func (e *Engine) Reconciler() *syncpkg.Reconciler { return e.reconciler }
