// Package videos manages the shared video catalog, per-user watch state and
// the ranked recommendation query. Full-text queries delegate to the search
// subsystem, whose index is trigger-maintained from the videos table.
package videos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mamacare/engine/internal/repo"
	"github.com/mamacare/engine/internal/schema"
	"github.com/mamacare/engine/internal/search"
	"github.com/mamacare/engine/pkg/db"
	"github.com/mamacare/engine/pkg/db/models"
	apperrors "github.com/mamacare/engine/pkg/errors"
	"github.com/mamacare/engine/pkg/logger"
	"github.com/mamacare/engine/pkg/validate"
	"gorm.io/gorm"
)

// UpsertVideoDTO carries caller input for a catalog entry. The URL is the
// natural unique key: re-upserting the same URL updates in place.
type UpsertVideoDTO struct {
	ID              string     `json:"id"`
	Title           string     `json:"title" validate:"required"`
	URL             string     `json:"url" validate:"required,url"`
	Description     string     `json:"description"`
	Category        string     `json:"category"`
	Recommended     bool       `json:"recommended"`
	DurationSeconds int        `json:"duration_seconds" validate:"min=0"`
	PublishedAt     *time.Time `json:"published_at"`
}

// WatchStateDTO carries per-user playback state.
type WatchStateDTO struct {
	UserID          string `json:"user_id" validate:"required"`
	VideoID         string `json:"video_id" validate:"required"`
	PositionSeconds int    `json:"position_seconds" validate:"min=0"`
	Completed       bool   `json:"completed"`
}

// Repository exposes video catalog and preference persistence.
type Repository struct {
	repo.Base
	search *search.Service
	logg   *logger.Logger

	rebuildThreshold int
	watchWindow      time.Duration

	now func() time.Time
}

// RepositoryParams configure the videos repository.
type RepositoryParams struct {
	Client *db.Client
	Search *search.Service
	Logger *logger.Logger

	// RebuildThreshold is the bulk-upsert row count past which the search
	// index is rebuilt wholesale instead of relying on per-row triggers.
	RebuildThreshold int
	// WatchWindow is the recency window for the recommendation exclusion
	// policy (favorited or watched within the window).
	WatchWindow time.Duration
}

// NewRepository constructs a videos repo.
func NewRepository(params RepositoryParams) *Repository {
	threshold := params.RebuildThreshold
	if threshold <= 0 {
		threshold = 50
	}
	window := params.WatchWindow
	if window <= 0 {
		window = 30 * 24 * time.Hour
	}
	return &Repository{
		Base:             repo.NewBase(params.Client),
		search:           params.Search,
		logg:             params.Logger,
		rebuildThreshold: threshold,
		watchWindow:      window,
		now:              time.Now,
	}
}

// Upsert writes one catalog entry keyed by URL.
func (r *Repository) Upsert(ctx context.Context, dto UpsertVideoDTO) (*models.Video, error) {
	if err := validate.Struct(dto); err != nil {
		return nil, err
	}
	if err := r.upsertOne(ctx, dto); err != nil {
		return nil, err
	}
	return r.GetByURL(ctx, dto.URL)
}

// BulkUpsert writes many catalog entries in one transaction. Past the rebuild
// threshold the search index is reconstructed afterwards; a rebuild failure
// is logged and swallowed because stale search results beat a failed import.
func (r *Repository) BulkUpsert(ctx context.Context, dtos []UpsertVideoDTO) error {
	for _, dto := range dtos {
		if err := validate.Struct(dto); err != nil {
			return err
		}
	}
	err := r.Client().WithTx(ctx, func(ctx context.Context, tx *gorm.DB) error {
		for _, dto := range dtos {
			if err := r.upsertOne(ctx, dto); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if len(dtos) >= r.rebuildThreshold {
		if rebuildErr := r.search.Rebuild(ctx); rebuildErr != nil {
			r.logg.Error(ctx, "search index rebuild failed; results may be stale", rebuildErr)
		}
	}
	return nil
}

func (r *Repository) upsertOne(ctx context.Context, dto UpsertVideoDTO) error {
	id := dto.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := r.now().UTC()
	err := r.DB(ctx).Exec(`INSERT INTO videos
  (id, title, url, description, category, recommended, duration_seconds, published_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (url) DO UPDATE SET
  title = excluded.title,
  description = excluded.description,
  category = excluded.category,
  recommended = excluded.recommended,
  duration_seconds = excluded.duration_seconds,
  published_at = excluded.published_at,
  updated_at = excluded.updated_at`,
		id, dto.Title, dto.URL, dto.Description, dto.Category, dto.Recommended,
		dto.DurationSeconds, dto.PublishedAt, now, now).Error
	return db.Translate(err, schema.TableVideos)
}

// GetByID loads a catalog entry.
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Video, error) {
	var video models.Video
	if err := r.DB(ctx).First(&video, "id = ?", id).Error; err != nil {
		return nil, db.Translate(err, schema.TableVideos)
	}
	return &video, nil
}

// GetByURL loads a catalog entry by its unique URL.
func (r *Repository) GetByURL(ctx context.Context, url string) (*models.Video, error) {
	var video models.Video
	if err := r.DB(ctx).First(&video, "url = ?", url).Error; err != nil {
		return nil, db.Translate(err, schema.TableVideos)
	}
	return &video, nil
}

// ListByCategory returns catalog entries for one category, newest first.
func (r *Repository) ListByCategory(ctx context.Context, category string, limit int) ([]models.Video, error) {
	query := r.DB(ctx).Where("category = ?", category).Order("published_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var out []models.Video
	if err := query.Find(&out).Error; err != nil {
		return nil, db.Translate(err, schema.TableVideos)
	}
	return out, nil
}

// Delete removes a catalog entry; triggers clear its search rows and foreign
// keys cascade the per-user preferences.
func (r *Repository) Delete(ctx context.Context, id string) error {
	err := r.DB(ctx).Delete(&models.Video{}, "id = ?", id).Error
	return db.Translate(err, schema.TableVideos)
}

// Search delegates to the search subsystem.
func (r *Repository) Search(ctx context.Context, term string) ([]models.Video, error) {
	return r.search.Search(ctx, term)
}

// SetWatchState upserts the (user, video) playback record and stamps
// last_watched_at.
func (r *Repository) SetWatchState(ctx context.Context, dto WatchStateDTO) error {
	if err := validate.Struct(dto); err != nil {
		return err
	}
	err := r.DB(ctx).Exec(`INSERT INTO user_video_preferences
  (user_id, video_id, position_seconds, completed, last_watched_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (user_id, video_id) DO UPDATE SET
  position_seconds = excluded.position_seconds,
  completed = excluded.completed,
  last_watched_at = excluded.last_watched_at`,
		dto.UserID, dto.VideoID, dto.PositionSeconds, dto.Completed, r.now().UTC()).Error
	return db.Translate(err, schema.TableUserVideoPreferences)
}

// SetLiked flips the liked flag, creating the preference row when absent.
func (r *Repository) SetLiked(ctx context.Context, userID, videoID string, liked bool) error {
	if userID == "" || videoID == "" {
		return apperrors.New(apperrors.CodeValidation, "user id and video id are required")
	}
	err := r.DB(ctx).Exec(`INSERT INTO user_video_preferences (user_id, video_id, liked)
VALUES (?, ?, ?)
ON CONFLICT (user_id, video_id) DO UPDATE SET liked = excluded.liked`,
		userID, videoID, liked).Error
	return db.Translate(err, schema.TableUserVideoPreferences)
}

// GetPreference loads the (user, video) state if present.
func (r *Repository) GetPreference(ctx context.Context, userID, videoID string) (*models.UserVideoPreference, error) {
	var pref models.UserVideoPreference
	err := r.DB(ctx).First(&pref, "user_id = ? AND video_id = ?", userID, videoID).Error
	if err != nil {
		return nil, db.Translate(err, schema.TableUserVideoPreferences)
	}
	return &pref, nil
}
