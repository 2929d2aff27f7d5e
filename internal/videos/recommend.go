package videos

import (
	"context"

	"github.com/mamacare/engine/internal/schema"
	"github.com/mamacare/engine/pkg/db"
	"github.com/mamacare/engine/pkg/db/models"
)

// preferredCategories rank second in the recommendation order, after
// editorially flagged entries and before the recency fallback.
var preferredCategories = []string{"Pregnancy", "Nutrition", "Mental Health"}

// GetRecommended returns up to limit videos ranked in three tiers: entries
// flagged recommended, then entries in the preferred categories, then the
// newest remaining entries. When a user id is given, videos the user liked
// or watched within the recency window are excluded, and a video never
// appears twice across tiers.
func (r *Repository) GetRecommended(ctx context.Context, userID *string, limit int) ([]models.Video, error) {
	if limit <= 0 {
		limit = 10
	}

	excluded := map[string]bool{}
	if userID != nil && *userID != "" {
		cutoff := r.now().UTC().Add(-r.watchWindow)
		var ids []string
		err := r.DB(ctx).
			Table(schema.TableUserVideoPreferences).
			Where("user_id = ? AND (liked = ? OR last_watched_at > ?)", *userID, true, cutoff).
			Pluck("video_id", &ids).Error
		if err != nil {
			return nil, db.Translate(err, schema.TableUserVideoPreferences)
		}
		for _, id := range ids {
			excluded[id] = true
		}
	}

	out := make([]models.Video, 0, limit)
	seen := map[string]bool{}

	appendTier := func(tier []models.Video) {
		for _, video := range tier {
			if len(out) >= limit {
				return
			}
			if seen[video.ID] || excluded[video.ID] {
				continue
			}
			seen[video.ID] = true
			out = append(out, video)
		}
	}

	var flagged []models.Video
	err := r.DB(ctx).
		Where("recommended = ?", true).
		Order("published_at DESC").
		Limit(limit + len(excluded)).
		Find(&flagged).Error
	if err != nil {
		return nil, db.Translate(err, schema.TableVideos)
	}
	appendTier(flagged)

	if len(out) < limit {
		var categorized []models.Video
		err = r.DB(ctx).
			Where("category IN ?", preferredCategories).
			Order("published_at DESC").
			Limit(limit + len(seen) + len(excluded)).
			Find(&categorized).Error
		if err != nil {
			return nil, db.Translate(err, schema.TableVideos)
		}
		appendTier(categorized)
	}

	if len(out) < limit {
		var recent []models.Video
		err = r.DB(ctx).
			Order("published_at DESC").
			Limit(limit + len(seen) + len(excluded)).
			Find(&recent).Error
		if err != nil {
			return nil, db.Translate(err, schema.TableVideos)
		}
		appendTier(recent)
	}

	return out, nil
}
