package videos

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/mamacare/engine/internal/enginetest"
	"github.com/mamacare/engine/pkg/db"
)

func newTestRepo(t *testing.T) (*Repository, *db.Client) {
	t.Helper()
	client, searchService := enginetest.OpenDB(t)
	repo := NewRepository(RepositoryParams{
		Client:           client,
		Search:           searchService,
		Logger:           enginetest.Logger(),
		RebuildThreshold: 50,
		WatchWindow:      30 * 24 * time.Hour,
	})
	return repo, client
}

func seedUser(t *testing.T, client *db.Client, id string) {
	t.Helper()
	err := client.DB(context.Background()).Exec(`INSERT INTO users (id, email, name, created_at, updated_at)
VALUES (?, ?, 'Test', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`, id, id+"@example.com").Error
	if err != nil {
		t.Fatalf("seeding user: %v", err)
	}
}

func TestUpsertByURL(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	first, err := repo.Upsert(ctx, UpsertVideoDTO{Title: "Original", URL: "https://example.com/v"})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	second, err := repo.Upsert(ctx, UpsertVideoDTO{Title: "Updated", URL: "https://example.com/v", Category: "Nutrition"})
	if err != nil {
		t.Fatalf("second Upsert: %v", err)
	}

	// Same URL keeps the same row and id.
	if second.ID != first.ID {
		t.Fatalf("expected stable id, got %s then %s", first.ID, second.ID)
	}
	if second.Title != "Updated" || second.Category != "Nutrition" {
		t.Fatalf("expected updated fields, got %+v", second)
	}
}

func TestUpsertValidatesURL(t *testing.T) {
	repo, _ := newTestRepo(t)
	if _, err := repo.Upsert(context.Background(), UpsertVideoDTO{Title: "No URL", URL: "not a url"}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestWatchStateAndLike(t *testing.T) {
	repo, client := newTestRepo(t)
	ctx := context.Background()
	seedUser(t, client, "u1")

	video, err := repo.Upsert(ctx, UpsertVideoDTO{Title: "V", URL: "https://example.com/v"})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if err := repo.SetWatchState(ctx, WatchStateDTO{UserID: "u1", VideoID: video.ID, PositionSeconds: 42}); err != nil {
		t.Fatalf("SetWatchState: %v", err)
	}
	if err := repo.SetLiked(ctx, "u1", video.ID, true); err != nil {
		t.Fatalf("SetLiked: %v", err)
	}
	// Updating the position must not clear the like.
	if err := repo.SetWatchState(ctx, WatchStateDTO{UserID: "u1", VideoID: video.ID, PositionSeconds: 90, Completed: true}); err != nil {
		t.Fatalf("SetWatchState: %v", err)
	}

	pref, err := repo.GetPreference(ctx, "u1", video.ID)
	if err != nil {
		t.Fatalf("GetPreference: %v", err)
	}
	if pref.PositionSeconds != 90 || !pref.Completed || !pref.Liked {
		t.Fatalf("unexpected preference %+v", pref)
	}
	if pref.LastWatchedAt == nil {
		t.Fatal("expected last_watched_at stamped")
	}
}

func seedCatalog(t *testing.T, repo *Repository) map[string]string {
	t.Helper()
	ctx := context.Background()
	ids := map[string]string{}
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	entries := []struct {
		key         string
		category    string
		recommended bool
		age         time.Duration
	}{
		{"flagged-new", "Exercise", true, 0},
		{"flagged-old", "Exercise", true, 24 * time.Hour},
		{"pregnancy", "Pregnancy", false, 0},
		{"nutrition", "Nutrition", false, time.Hour},
		{"other", "Baby Care", false, 0},
	}
	for _, entry := range entries {
		published := base.Add(-entry.age)
		video, err := repo.Upsert(ctx, UpsertVideoDTO{
			Title:       entry.key,
			URL:         fmt.Sprintf("https://example.com/%s", entry.key),
			Category:    entry.category,
			Recommended: entry.recommended,
			PublishedAt: &published,
		})
		if err != nil {
			t.Fatalf("seeding %s: %v", entry.key, err)
		}
		ids[entry.key] = video.ID
	}
	return ids
}

func TestGetRecommendedTierOrder(t *testing.T) {
	repo, _ := newTestRepo(t)
	ids := seedCatalog(t, repo)

	results, err := repo.GetRecommended(context.Background(), nil, 10)
	if err != nil {
		t.Fatalf("GetRecommended: %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("expected all 5 videos, got %d", len(results))
	}

	// Flagged entries first (newest leading), then preferred categories,
	// then the recency fallback.
	if results[0].ID != ids["flagged-new"] || results[1].ID != ids["flagged-old"] {
		t.Fatalf("expected flagged tier first, got %v then %v", results[0].Title, results[1].Title)
	}
	if results[2].ID != ids["pregnancy"] || results[3].ID != ids["nutrition"] {
		t.Fatalf("expected category tier next, got %v then %v", results[2].Title, results[3].Title)
	}
	if results[4].ID != ids["other"] {
		t.Fatalf("expected recency fallback last, got %v", results[4].Title)
	}
}

func TestGetRecommendedHonorsLimitAndDedupes(t *testing.T) {
	repo, _ := newTestRepo(t)
	seedCatalog(t, repo)

	results, err := repo.GetRecommended(context.Background(), nil, 3)
	if err != nil {
		t.Fatalf("GetRecommended: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected limit of 3, got %d", len(results))
	}
	seen := map[string]bool{}
	for _, video := range results {
		if seen[video.ID] {
			t.Fatalf("duplicate video %s in results", video.ID)
		}
		seen[video.ID] = true
	}
}

func TestGetRecommendedExcludesLikedAndRecentlyWatched(t *testing.T) {
	repo, client := newTestRepo(t)
	ctx := context.Background()
	seedUser(t, client, "u1")
	ids := seedCatalog(t, repo)

	now := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	// Liked: always excluded.
	if err := repo.SetLiked(ctx, "u1", ids["flagged-new"], true); err != nil {
		t.Fatalf("SetLiked: %v", err)
	}
	// Watched inside the window: excluded.
	if err := repo.SetWatchState(ctx, WatchStateDTO{UserID: "u1", VideoID: ids["pregnancy"], PositionSeconds: 10}); err != nil {
		t.Fatalf("SetWatchState: %v", err)
	}
	// Watched long ago: still eligible.
	err := client.DB(ctx).Exec(`INSERT INTO user_video_preferences (user_id, video_id, last_watched_at)
VALUES ('u1', ?, ?)`, ids["nutrition"], now.Add(-60*24*time.Hour)).Error
	if err != nil {
		t.Fatalf("seeding stale watch: %v", err)
	}

	userID := "u1"
	results, err := repo.GetRecommended(ctx, &userID, 10)
	if err != nil {
		t.Fatalf("GetRecommended: %v", err)
	}

	got := map[string]bool{}
	for _, video := range results {
		got[video.ID] = true
	}
	if got[ids["flagged-new"]] {
		t.Fatal("liked video should be excluded")
	}
	if got[ids["pregnancy"]] {
		t.Fatal("recently watched video should be excluded")
	}
	if !got[ids["nutrition"]] {
		t.Fatal("stale watch should remain eligible")
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 eligible videos, got %d", len(results))
	}
}

func TestSearchDelegation(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	if _, err := repo.Upsert(ctx, UpsertVideoDTO{Title: "Stretching Safely", URL: "https://example.com/s"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	results, err := repo.Search(ctx, "stretch")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 search hit, got %d", len(results))
	}
}
