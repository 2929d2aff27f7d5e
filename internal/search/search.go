// Package search maintains the full-text index over the video catalog with a
// three-tier capability fallback: FTS5 external content, FTS4, then a plain
// shadow table scanned with LIKE. The winning tier is probed once at schema
// creation and persisted so queries dispatch on it without re-probing.
package search

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mamacare/engine/internal/schema"
	"github.com/mamacare/engine/pkg/db"
	"github.com/mamacare/engine/pkg/db/models"
	"github.com/mamacare/engine/pkg/enums"
	"github.com/mamacare/engine/pkg/logger"
	"gorm.io/gorm"
)

// Service installs, queries and rebuilds the video search index.
type Service struct {
	client *db.Client
	logg   *logger.Logger

	mu   sync.Mutex
	tier enums.SearchTier
}

// NewService builds a search service. The active tier is read lazily from the
// preferences table on first query.
func NewService(client *db.Client, logg *logger.Logger) *Service {
	return &Service{client: client, logg: logg}
}

// Install probes the tiers in order and creates the first one the engine
// supports, including its maintenance triggers because a failed probe may
// leave nothing behind. Runs inside the schema transaction. Idempotent: if a
// tier was already installed and recorded, it is kept.
func (s *Service) Install(ctx context.Context, tx *gorm.DB) (enums.SearchTier, error) {
	if tier, ok := s.recordedTier(tx); ok {
		s.setTier(tier)
		return tier, nil
	}

	for _, tier := range []enums.SearchTier{enums.SearchTierFTS5, enums.SearchTierFTS4, enums.SearchTierShadow} {
		if err := installTier(tx, tier); err != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"tier":  string(tier),
				"cause": err.Error(),
			}), "search tier unavailable; trying next")
			dropArtifacts(tx)
			continue
		}
		if err := recordTier(tx, tier); err != nil {
			return "", fmt.Errorf("recording search tier: %w", err)
		}
		s.setTier(tier)
		return tier, nil
	}
	return "", fmt.Errorf("no search tier could be installed")
}

// Search returns videos whose title, description or category contains every
// whitespace-separated term as a word prefix. Empty input yields an empty
// slice, not an error.
func (s *Service) Search(ctx context.Context, term string) ([]models.Video, error) {
	tokens := tokenize(term)
	if len(tokens) == 0 {
		return []models.Video{}, nil
	}

	tier, err := s.activeTier(ctx)
	if err != nil {
		return nil, err
	}

	var videos []models.Video
	switch tier {
	case enums.SearchTierFTS5:
		match := matchExpr(tokens)
		err = s.client.DB(ctx).
			Raw(`SELECT v.* FROM videos v JOIN video_search s ON s.rowid = v.rowid WHERE video_search MATCH ? ORDER BY s.rank`, match).
			Scan(&videos).Error
	case enums.SearchTierFTS4:
		match := fts4MatchExpr(tokens)
		err = s.client.DB(ctx).
			Raw(`SELECT v.* FROM videos v JOIN video_search s ON s.video_id = v.id WHERE video_search MATCH ?`, match).
			Scan(&videos).Error
	default:
		query, args := shadowQuery(tokens)
		err = s.client.DB(ctx).Raw(query, args...).Scan(&videos).Error
	}
	if err != nil {
		return nil, fmt.Errorf("searching videos: %w", err)
	}
	if videos == nil {
		videos = []models.Video{}
	}
	return videos, nil
}

// Rebuild reconstructs the index from the videos table. Callers treat a
// failure as a degraded state (stale results), not data loss, so errors here
// are logged by the caller rather than aborting a bulk write.
func (s *Service) Rebuild(ctx context.Context) error {
	tier, err := s.activeTier(ctx)
	if err != nil {
		return err
	}

	return s.client.WithTx(ctx, func(ctx context.Context, tx *gorm.DB) error {
		switch tier {
		case enums.SearchTierFTS5:
			return tx.Exec(`INSERT INTO video_search(video_search) VALUES ('rebuild')`).Error
		case enums.SearchTierFTS4:
			if err := tx.Exec(`DELETE FROM video_search`).Error; err != nil {
				return err
			}
			return tx.Exec(`INSERT INTO video_search (video_id, title, description, category)
SELECT id, title, COALESCE(description, ''), COALESCE(category, '') FROM videos`).Error
		default:
			if err := tx.Exec(`DELETE FROM video_search`).Error; err != nil {
				return err
			}
			return tx.Exec(`INSERT INTO video_search (video_id, content)
SELECT id, lower(title || ' ' || COALESCE(description, '') || ' ' || COALESCE(category, '')) FROM videos`).Error
		}
	})
}

// ActiveTier exposes the persisted tier for diagnostics.
func (s *Service) ActiveTier(ctx context.Context) (enums.SearchTier, error) {
	return s.activeTier(ctx)
}

func (s *Service) activeTier(ctx context.Context) (enums.SearchTier, error) {
	s.mu.Lock()
	cached := s.tier
	s.mu.Unlock()
	if cached != "" {
		return cached, nil
	}

	if tier, ok := s.recordedTier(s.client.DB(ctx)); ok {
		s.setTier(tier)
		return tier, nil
	}
	return "", fmt.Errorf("search tier not recorded; schema not initialized")
}

func (s *Service) recordedTier(tx *gorm.DB) (enums.SearchTier, bool) {
	var value string
	err := tx.Raw(`SELECT value FROM preferences WHERE key = ?`, schema.PrefKeySearchTier).Scan(&value).Error
	if err != nil || value == "" {
		return "", false
	}
	tier, err := enums.ParseSearchTier(value)
	if err != nil {
		return "", false
	}
	return tier, true
}

func (s *Service) setTier(tier enums.SearchTier) {
	s.mu.Lock()
	s.tier = tier
	s.mu.Unlock()
}

func recordTier(tx *gorm.DB, tier enums.SearchTier) error {
	return tx.Exec(`INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		schema.PrefKeySearchTier, string(tier)).Error
}

func installTier(tx *gorm.DB, tier enums.SearchTier) error {
	var statements []string
	switch tier {
	case enums.SearchTierFTS5:
		statements = fts5Statements
	case enums.SearchTierFTS4:
		statements = fts4Statements
	default:
		statements = shadowStatements
	}
	for _, stmt := range statements {
		if err := tx.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// dropArtifacts clears whatever a failed probe left behind so the next tier
// starts clean.
func dropArtifacts(tx *gorm.DB) {
	for _, stmt := range []string{
		`DROP TRIGGER IF EXISTS videos_search_ai`,
		`DROP TRIGGER IF EXISTS videos_search_au`,
		`DROP TRIGGER IF EXISTS videos_search_ad`,
		`DROP TABLE IF EXISTS video_search`,
	} {
		_ = tx.Exec(stmt).Error
	}
}

func tokenize(term string) []string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(term)))
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		cleaned := strings.Map(func(r rune) rune {
			if r == '"' || r == '\'' || r == '*' {
				return -1
			}
			return r
		}, field)
		if cleaned != "" {
			tokens = append(tokens, cleaned)
		}
	}
	return tokens
}

// matchExpr builds an implicit-AND prefix expression for FTS5: `"a"* "b"*`.
func matchExpr(tokens []string) string {
	parts := make([]string, 0, len(tokens))
	for _, token := range tokens {
		parts = append(parts, `"`+token+`"*`)
	}
	return strings.Join(parts, " ")
}

// fts4MatchExpr builds the older unquoted form `a* b*`; tokenize already
// stripped the characters FTS4 would misparse.
func fts4MatchExpr(tokens []string) string {
	parts := make([]string, 0, len(tokens))
	for _, token := range tokens {
		parts = append(parts, token+"*")
	}
	return strings.Join(parts, " ")
}

// shadowQuery matches each token as a word prefix inside the concatenated
// lowercase content column. Arrival order, no ranking.
func shadowQuery(tokens []string) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`SELECT v.* FROM videos v JOIN video_search s ON s.video_id = v.id WHERE 1=1`)
	args := make([]any, 0, len(tokens)*2)
	for _, token := range tokens {
		sb.WriteString(` AND (s.content LIKE ? ESCAPE '\' OR s.content LIKE ? ESCAPE '\')`)
		args = append(args, escapeLike(token)+"%", "% "+escapeLike(token)+"%")
	}
	sb.WriteString(` ORDER BY s.id`)
	return sb.String(), args
}

func escapeLike(token string) string {
	replacer := strings.NewReplacer("%", `\%`, "_", `\_`)
	return replacer.Replace(token)
}

var fts5Statements = []string{
	`CREATE VIRTUAL TABLE video_search USING fts5(
  title, description, category,
  content='videos', content_rowid='rowid',
  prefix='2 3 4'
)`,
	`CREATE TRIGGER videos_search_ai AFTER INSERT ON videos BEGIN
  INSERT INTO video_search(rowid, title, description, category)
  VALUES (new.rowid, new.title, COALESCE(new.description, ''), COALESCE(new.category, ''));
END`,
	`CREATE TRIGGER videos_search_ad AFTER DELETE ON videos BEGIN
  INSERT INTO video_search(video_search, rowid, title, description, category)
  VALUES ('delete', old.rowid, old.title, COALESCE(old.description, ''), COALESCE(old.category, ''));
END`,
	`CREATE TRIGGER videos_search_au AFTER UPDATE ON videos BEGIN
  INSERT INTO video_search(video_search, rowid, title, description, category)
  VALUES ('delete', old.rowid, old.title, COALESCE(old.description, ''), COALESCE(old.category, ''));
  INSERT INTO video_search(rowid, title, description, category)
  VALUES (new.rowid, new.title, COALESCE(new.description, ''), COALESCE(new.category, ''));
END`,
}

var fts4Statements = []string{
	`CREATE VIRTUAL TABLE video_search USING fts4(video_id, title, description, category)`,
	`CREATE TRIGGER videos_search_ai AFTER INSERT ON videos BEGIN
  INSERT INTO video_search(video_id, title, description, category)
  VALUES (new.id, new.title, COALESCE(new.description, ''), COALESCE(new.category, ''));
END`,
	`CREATE TRIGGER videos_search_ad AFTER DELETE ON videos BEGIN
  DELETE FROM video_search WHERE video_id = old.id;
END`,
	`CREATE TRIGGER videos_search_au AFTER UPDATE ON videos BEGIN
  DELETE FROM video_search WHERE video_id = old.id;
  INSERT INTO video_search(video_id, title, description, category)
  VALUES (new.id, new.title, COALESCE(new.description, ''), COALESCE(new.category, ''));
END`,
}

var shadowStatements = []string{
	`CREATE TABLE video_search (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  video_id TEXT NOT NULL UNIQUE,
  content TEXT NOT NULL
)`,
	`CREATE INDEX idx_video_search_content ON video_search (content)`,
	`CREATE TRIGGER videos_search_ai AFTER INSERT ON videos BEGIN
  INSERT OR REPLACE INTO video_search(video_id, content)
  VALUES (new.id, lower(new.title || ' ' || COALESCE(new.description, '') || ' ' || COALESCE(new.category, '')));
END`,
	`CREATE TRIGGER videos_search_ad AFTER DELETE ON videos BEGIN
  DELETE FROM video_search WHERE video_id = old.id;
END`,
	`CREATE TRIGGER videos_search_au AFTER UPDATE ON videos BEGIN
  INSERT OR REPLACE INTO video_search(video_id, content)
  VALUES (new.id, lower(new.title || ' ' || COALESCE(new.description, '') || ' ' || COALESCE(new.category, '')));
END`,
}
