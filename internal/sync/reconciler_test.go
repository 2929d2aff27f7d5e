package sync

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/mamacare/engine/internal/enginetest"
	"github.com/mamacare/engine/internal/prefs"
	"github.com/mamacare/engine/internal/users"
	"github.com/mamacare/engine/pkg/config"
	"github.com/mamacare/engine/pkg/db"
	"github.com/mamacare/engine/pkg/enums"
	apperrors "github.com/mamacare/engine/pkg/errors"
	"github.com/mamacare/engine/pkg/security"
)

// fakeStore is an in-memory DocumentStore with injectable failures.
type fakeStore struct {
	docs    map[string]Document
	clock   time.Time
	setErr  map[string]error
	listErr error
}

func newFakeStore(clock time.Time) *fakeStore {
	return &fakeStore{docs: map[string]Document{}, clock: clock, setErr: map[string]error{}}
}

func (s *fakeStore) Get(_ context.Context, id string) (*Document, error) {
	doc, ok := s.docs[id]
	if !ok {
		return nil, apperrors.New(apperrors.CodeNotFound, "document not found")
	}
	return &doc, nil
}

func (s *fakeStore) Set(_ context.Context, id string, data map[string]any) error {
	if err := s.setErr[id]; err != nil {
		return err
	}
	doc, ok := s.docs[id]
	if !ok {
		doc = Document{ID: id, Data: map[string]any{}}
	}
	for key, value := range data {
		doc.Data[key] = value
	}
	doc.UpdatedAt = s.clock
	s.docs[id] = doc
	return nil
}

func (s *fakeStore) UpdatedSince(_ context.Context, since time.Time) ([]Document, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []Document
	for _, doc := range s.docs {
		if doc.UpdatedAt.After(since) {
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out, nil
}

type fixture struct {
	client     *db.Client
	users      *users.Repository
	prefs      *prefs.Repository
	store      *fakeStore
	reconciler *Reconciler
	now        time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client, _ := enginetest.OpenDB(t)
	logg := enginetest.Logger()

	hasher := security.NewArgonHasher(config.PasswordConfig{
		ArgonMemoryKiB:   8 * 1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLength:  16,
		ArgonKeyLength:   32,
	})
	userRepo := users.NewRepository(users.RepositoryParams{
		Client: client,
		Hasher: hasher,
		Logger: logg,
	})
	prefRepo := prefs.NewRepository(client)

	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	store := newFakeStore(now)

	reconciler := NewReconciler(ReconcilerParams{
		Client: client,
		Users:  userRepo,
		Prefs:  prefRepo,
		Store:  store,
		Logger: logg,
	})
	reconciler.now = func() time.Time { return now }

	return &fixture{
		client:     client,
		users:      userRepo,
		prefs:      prefRepo,
		store:      store,
		reconciler: reconciler,
		now:        now,
	}
}

func (f *fixture) createUser(t *testing.T, email string) {
	t.Helper()
	_, err := f.users.Create(context.Background(), users.CreateUserDTO{
		Email:    email,
		Name:     "Local User",
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}
}

func TestPushUnlinkedUserCreatesDocumentAndKeepsFlag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createUser(t, "amina@example.com")

	result, err := f.reconciler.RunCycle(ctx)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if result.Pushed != 1 || result.PushErrors != 0 {
		t.Fatalf("unexpected result %+v", result)
	}

	local, err := f.users.GetByEmail(ctx, "amina@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	// Without a linked remote identity the document is keyed by the local
	// id and the row stays flagged until the identity link arrives.
	if local.SyncStatus != enums.SyncStatusNeedsPush {
		t.Fatalf("expected needs_push, got %s", local.SyncStatus)
	}
	doc, ok := f.store.docs[local.ID]
	if !ok {
		t.Fatalf("expected document under local id %s", local.ID)
	}
	if doc.Data["email"] != "amina@example.com" || doc.Data["name"] != "Local User" {
		t.Fatalf("unexpected document %+v", doc.Data)
	}
	if _, leaked := doc.Data["password_hash"]; leaked {
		t.Fatal("credential hash must never be pushed")
	}
}

func TestPushLinkedUserMarksSynced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createUser(t, "amina@example.com")

	local, err := f.users.GetByEmail(ctx, "amina@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if err := f.users.LinkRemoteIdentity(ctx, local.ID, "remote-1"); err != nil {
		t.Fatalf("LinkRemoteIdentity: %v", err)
	}
	// Linking marks the row synced; a profile edit flags it again.
	name := "Amina Edited"
	if _, err := f.users.UpdateProfile(ctx, local.ID, users.UpdateProfileDTO{Name: &name}); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}

	result, err := f.reconciler.RunCycle(ctx)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if result.Pushed != 1 {
		t.Fatalf("expected 1 pushed, got %+v", result)
	}

	local, err = f.users.GetByID(ctx, local.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if local.SyncStatus != enums.SyncStatusSynced {
		t.Fatalf("expected synced, got %s", local.SyncStatus)
	}
	if local.LastSyncedAt == nil {
		t.Fatal("expected last_synced_at stamped")
	}
	if _, ok := f.store.docs["remote-1"]; !ok {
		t.Fatal("expected document under the remote id")
	}
}

func TestPushRowFailureFlagsAndContinues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createUser(t, "fails@example.com")
	f.createUser(t, "works@example.com")

	failing, err := f.users.GetByEmail(ctx, "fails@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	f.store.setErr[failing.ID] = fmt.Errorf("remote unavailable")

	result, err := f.reconciler.RunCycle(ctx)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if result.Pushed != 1 || result.PushErrors != 1 {
		t.Fatalf("unexpected result %+v", result)
	}

	failing, err = f.users.GetByID(ctx, failing.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if failing.SyncStatus != enums.SyncStatusError {
		t.Fatalf("expected error status, got %s", failing.SyncStatus)
	}

	working, err := f.users.GetByEmail(ctx, "works@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if _, ok := f.store.docs[working.ID]; !ok {
		t.Fatal("sibling row should still have been pushed")
	}
}

func TestPullUpdatesByRemoteID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createUser(t, "amina@example.com")

	local, err := f.users.GetByEmail(ctx, "amina@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if err := f.users.LinkRemoteIdentity(ctx, local.ID, "remote-1"); err != nil {
		t.Fatalf("LinkRemoteIdentity: %v", err)
	}
	originalHash := mustHash(t, f, local.ID)

	f.store.docs["remote-1"] = Document{
		ID: "remote-1",
		Data: map[string]any{
			"email":    "amina@example.com",
			"name":     "Amina Updated",
			"verified": true,
		},
		UpdatedAt: f.now.Add(-time.Minute),
	}

	result, err := f.reconciler.RunCycle(ctx)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if result.Pulled != 1 {
		t.Fatalf("expected 1 pulled, got %+v", result)
	}

	local, err = f.users.GetByID(ctx, local.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if local.Name != "Amina Updated" || !local.Verified {
		t.Fatalf("remote fields not applied: %+v", local)
	}
	if local.SyncStatus != enums.SyncStatusSynced {
		t.Fatalf("expected synced, got %s", local.SyncStatus)
	}
	if mustHash(t, f, local.ID) != originalHash {
		t.Fatal("pull must preserve the local credential hash")
	}
}

func TestPullLinksByEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createUser(t, "amina@example.com")

	f.store.docs["remote-9"] = Document{
		ID:        "remote-9",
		Data:      map[string]any{"email": "amina@example.com", "name": "Amina Remote"},
		UpdatedAt: f.now.Add(-time.Minute),
	}

	if _, err := f.reconciler.RunCycle(ctx); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	local, err := f.users.GetByEmail(ctx, "amina@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if local.RemoteID == nil || *local.RemoteID != "remote-9" {
		t.Fatalf("expected identity link to remote-9, got %v", local.RemoteID)
	}
}

func TestPullInsertsUnknownDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.store.docs["remote-2"] = Document{
		ID: "remote-2",
		Data: map[string]any{
			"email":       "new@example.com",
			"name":        "Remote Only",
			"role":        "doctor",
			"permissions": []any{"profile:read", "appointment:write"},
		},
		UpdatedAt: f.now.Add(-time.Minute),
	}

	result, err := f.reconciler.RunCycle(ctx)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if result.Pulled != 1 {
		t.Fatalf("expected 1 pulled, got %+v", result)
	}

	local, err := f.users.GetByRemoteID(ctx, "remote-2")
	if err != nil {
		t.Fatalf("GetByRemoteID: %v", err)
	}
	if local.Name != "Remote Only" || local.Role != enums.RoleDoctor {
		t.Fatalf("unexpected inserted row %+v", local)
	}
	if len(local.Permissions) != 2 {
		t.Fatalf("expected permissions applied, got %v", local.Permissions)
	}

	// A remote-only account can never pass a password check locally.
	ok, err := f.users.VerifyPassword(ctx, local.ID, "anything")
	if err == nil && ok {
		t.Fatal("remote-only account must fail password verification")
	}
}

func TestPullDefaultsPermissionsFromDocumentRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Role present, permissions absent: the inserted row must carry the
	// doctor defaults, not the patient ones.
	f.store.docs["remote-5"] = Document{
		ID:        "remote-5",
		Data:      map[string]any{"email": "doc@example.com", "name": "Remote Doctor", "role": "doctor"},
		UpdatedAt: f.now.Add(-time.Minute),
	}

	if _, err := f.reconciler.RunCycle(ctx); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	local, err := f.users.GetByRemoteID(ctx, "remote-5")
	if err != nil {
		t.Fatalf("GetByRemoteID: %v", err)
	}
	if local.Role != enums.RoleDoctor {
		t.Fatalf("expected doctor role, got %s", local.Role)
	}
	want := enums.DefaultPermissions(enums.RoleDoctor)
	if len(local.Permissions) != len(want) {
		t.Fatalf("expected %v, got %v", want, local.Permissions)
	}
	for i, perm := range want {
		if local.Permissions[i] != perm {
			t.Fatalf("expected %v, got %v", want, local.Permissions)
		}
	}
}

func TestWatermarkAdvancesToMaxRemote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ahead := f.now.Add(2 * time.Hour)
	f.store.docs["remote-3"] = Document{
		ID:        "remote-3",
		Data:      map[string]any{"email": "ahead@example.com", "name": "Clock Ahead"},
		UpdatedAt: ahead,
	}

	result, err := f.reconciler.RunCycle(ctx)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if !result.Watermark.Equal(ahead) {
		t.Fatalf("expected watermark %v, got %v", ahead, result.Watermark)
	}

	stored, err := f.prefs.GetLastSynced(ctx, DefaultCollection)
	if err != nil {
		t.Fatalf("GetLastSynced: %v", err)
	}
	if !stored.Equal(ahead) {
		t.Fatalf("expected stored watermark %v, got %v", ahead, stored)
	}

	// The next cycle sees nothing new and must not move the watermark
	// backwards, or the third cycle would re-pull the same document.
	result, err = f.reconciler.RunCycle(ctx)
	if err != nil {
		t.Fatalf("second RunCycle: %v", err)
	}
	if result.Pulled != 0 {
		t.Fatalf("expected no re-pull, got %+v", result)
	}
	stored, err = f.prefs.GetLastSynced(ctx, DefaultCollection)
	if err != nil {
		t.Fatalf("GetLastSynced: %v", err)
	}
	if !stored.Equal(ahead) {
		t.Fatalf("watermark regressed to %v", stored)
	}
}

func TestStoreFailureRollsBackCycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createUser(t, "amina@example.com")
	f.store.listErr = fmt.Errorf("remote unavailable")

	_, err := f.reconciler.RunCycle(ctx)
	if !apperrors.HasCode(err, apperrors.CodeSync) {
		t.Fatalf("expected sync error, got %v", err)
	}

	// The watermark stays at zero and the push inside the rolled-back
	// transaction left no local trace.
	stored, err := f.prefs.GetLastSynced(ctx, DefaultCollection)
	if err != nil {
		t.Fatalf("GetLastSynced: %v", err)
	}
	if !stored.IsZero() {
		t.Fatalf("expected zero watermark, got %v", stored)
	}
	local, err := f.users.GetByEmail(ctx, "amina@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if local.SyncStatus != enums.SyncStatusNeedsPush {
		t.Fatalf("expected needs_push after rollback, got %s", local.SyncStatus)
	}
}

func TestPullSkipsUnmappableDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// No email means the document can neither match nor create a valid row.
	f.store.docs["remote-bad"] = Document{
		ID:        "remote-bad",
		Data:      map[string]any{"name": "No Email"},
		UpdatedAt: f.now.Add(-2 * time.Minute),
	}
	f.store.docs["remote-good"] = Document{
		ID:        "remote-good",
		Data:      map[string]any{"email": "good@example.com", "name": "Good"},
		UpdatedAt: f.now.Add(-time.Minute),
	}

	result, err := f.reconciler.RunCycle(ctx)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if result.Pulled != 1 || result.PullErrors != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	if _, err := f.users.GetByRemoteID(ctx, "remote-good"); err != nil {
		t.Fatalf("sibling document should have been applied: %v", err)
	}
}

func mustHash(t *testing.T, f *fixture, id string) string {
	t.Helper()
	var hash string
	err := f.client.DB(context.Background()).
		Table("users").Where("id = ?", id).
		Pluck("password_hash", &hash).Error
	if err != nil {
		t.Fatalf("reading hash: %v", err)
	}
	return hash
}
