// Package prefs stores process-wide key/value settings and the per-collection
// sync watermark.
package prefs

import (
	"context"
	"time"

	"github.com/mamacare/engine/internal/repo"
	"github.com/mamacare/engine/internal/schema"
	"github.com/mamacare/engine/pkg/db"
	"github.com/mamacare/engine/pkg/db/models"
	apperrors "github.com/mamacare/engine/pkg/errors"
)

// Repository exposes preference and sync watermark persistence.
type Repository struct {
	repo.Base

	now func() time.Time
}

// NewRepository constructs a prefs repo.
func NewRepository(client *db.Client) *Repository {
	return &Repository{Base: repo.NewBase(client), now: time.Now}
}

// Get returns the value for key, or fallback when the key is absent.
func (r *Repository) Get(ctx context.Context, key, fallback string) (string, error) {
	var pref models.Preference
	err := r.DB(ctx).First(&pref, "key = ?", key).Error
	if err != nil {
		translated := db.Translate(err, schema.TablePreferences)
		if apperrors.IsNotFound(translated) {
			return fallback, nil
		}
		return "", translated
	}
	return pref.Value, nil
}

// Set upserts one key/value pair.
func (r *Repository) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return apperrors.New(apperrors.CodeValidation, "preference key is required")
	}
	err := r.DB(ctx).Exec(`INSERT INTO preferences (key, value, updated_at)
VALUES (?, ?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, r.now().UTC()).Error
	return db.Translate(err, schema.TablePreferences)
}

// Delete removes a key; absent keys are not an error.
func (r *Repository) Delete(ctx context.Context, key string) error {
	err := r.DB(ctx).Delete(&models.Preference{}, "key = ?", key).Error
	return db.Translate(err, schema.TablePreferences)
}

// GetLastSynced returns the sync watermark for a remote collection; the zero
// time means the collection has never synced.
func (r *Repository) GetLastSynced(ctx context.Context, collection string) (time.Time, error) {
	var meta models.SyncMeta
	err := r.DB(ctx).First(&meta, "collection = ?", collection).Error
	if err != nil {
		translated := db.Translate(err, schema.TableSyncMeta)
		if apperrors.IsNotFound(translated) {
			return time.Time{}, nil
		}
		return time.Time{}, translated
	}
	return meta.LastSyncedAt, nil
}

// SetLastSynced upserts the sync watermark for a remote collection.
func (r *Repository) SetLastSynced(ctx context.Context, collection string, at time.Time) error {
	if collection == "" {
		return apperrors.New(apperrors.CodeValidation, "collection name is required")
	}
	err := r.DB(ctx).Exec(`INSERT INTO sync_meta (collection, last_synced_at)
VALUES (?, ?)
ON CONFLICT (collection) DO UPDATE SET last_synced_at = excluded.last_synced_at`,
		collection, at.UTC()).Error
	return db.Translate(err, schema.TableSyncMeta)
}
