package sync

import (
	"context"
	"time"

	"github.com/mamacare/engine/internal/prefs"
	"github.com/mamacare/engine/internal/users"
	"github.com/mamacare/engine/pkg/db"
	"github.com/mamacare/engine/pkg/enums"
	apperrors "github.com/mamacare/engine/pkg/errors"
	"github.com/mamacare/engine/pkg/logger"
	"github.com/mamacare/engine/pkg/metrics"
	"gorm.io/gorm"
)

// DefaultCollection is the remote collection users reconcile against.
const DefaultCollection = "users"

// CycleResult summarizes one reconciliation pass.
type CycleResult struct {
	Pushed     int
	PushErrors int
	Pulled     int
	PullErrors int
	Watermark  time.Time
}

// Reconciler runs the bidirectional users sync. All local writes of a cycle
// share one transaction; the watermark only advances when that transaction
// commits.
type Reconciler struct {
	client     *db.Client
	users      *users.Repository
	prefs      *prefs.Repository
	store      DocumentStore
	logg       *logger.Logger
	metrics    *metrics.SyncMetrics
	collection string

	now func() time.Time
}

// ReconcilerParams configure a Reconciler.
type ReconcilerParams struct {
	Client     *db.Client
	Users      *users.Repository
	Prefs      *prefs.Repository
	Store      DocumentStore
	Logger     *logger.Logger
	Metrics    *metrics.SyncMetrics
	Collection string
}

// NewReconciler wires a reconciler over the given store.
func NewReconciler(params ReconcilerParams) *Reconciler {
	collection := params.Collection
	if collection == "" {
		collection = DefaultCollection
	}
	return &Reconciler{
		client:     params.Client,
		users:      params.Users,
		prefs:      params.Prefs,
		store:      params.Store,
		logg:       params.Logger,
		metrics:    params.Metrics,
		collection: collection,
		now:        time.Now,
	}
}

// RunCycle performs one push-then-pull pass. Individual row failures are
// flagged and skipped; a storage failure aborts and rolls back the whole
// cycle, leaving the watermark untouched.
func (r *Reconciler) RunCycle(ctx context.Context) (*CycleResult, error) {
	start := r.now().UTC()
	ctx = r.logg.WithCollection(ctx, r.collection)
	result := &CycleResult{}

	err := r.client.WithTx(ctx, func(ctx context.Context, tx *gorm.DB) error {
		pushed := map[string]struct{}{}
		if err := r.push(ctx, result, pushed); err != nil {
			return err
		}
		maxRemote, err := r.pull(ctx, result, pushed)
		if err != nil {
			return err
		}

		watermark := start
		if maxRemote.After(watermark) {
			watermark = maxRemote
		}
		result.Watermark = watermark
		return r.prefs.SetLastSynced(ctx, r.collection, watermark)
	})

	r.metrics.ObserveCycleDuration(r.collection, r.now().UTC().Sub(start))
	if err != nil {
		r.metrics.IncCycle(r.collection, "failure")
		return nil, err
	}
	r.metrics.IncCycle(r.collection, "success")
	r.metrics.AddRows(r.collection, "push", result.Pushed)
	r.metrics.AddRows(r.collection, "pull", result.Pulled)
	r.logg.Info(r.logg.WithFields(ctx, map[string]any{
		"pushed":      result.Pushed,
		"push_errors": result.PushErrors,
		"pulled":      result.Pulled,
		"pull_errors": result.PullErrors,
	}), "sync cycle finished")
	return result, nil
}

// push sends every row flagged needs_push. Rows without a remote identity
// get their remote document created under the local id and keep the push
// flag until the identity is linked; rows with one are updated and marked
// synced. A failed row is flagged error and the pass continues.
func (r *Reconciler) push(ctx context.Context, result *CycleResult, pushed map[string]struct{}) error {
	pending, err := r.users.ListBySyncStatus(ctx, enums.SyncStatusNeedsPush)
	if err != nil {
		return err
	}

	for i := range pending {
		user := &pending[i]
		data := documentFromUser(user)

		if user.RemoteID == nil {
			if err := r.store.Set(ctx, user.ID, data); err != nil {
				r.flagRowError(ctx, user.ID, err, result)
				continue
			}
			pushed[user.ID] = struct{}{}
			result.Pushed++
			continue
		}

		if err := r.store.Set(ctx, *user.RemoteID, data); err != nil {
			r.flagRowError(ctx, user.ID, err, result)
			continue
		}
		pushed[*user.RemoteID] = struct{}{}
		syncedAt := r.now().UTC()
		if err := r.users.MarkSyncStatus(ctx, user.ID, enums.SyncStatusSynced, &syncedAt); err != nil {
			return err
		}
		result.Pushed++
	}
	return nil
}

// pull applies remote documents changed since the stored watermark and
// returns the newest remote update time seen. Documents written by this
// cycle's own push are echoes: they are skipped but still advance the
// watermark so the next cycle does not re-read them.
func (r *Reconciler) pull(ctx context.Context, result *CycleResult, pushed map[string]struct{}) (time.Time, error) {
	since, err := r.prefs.GetLastSynced(ctx, r.collection)
	if err != nil {
		return time.Time{}, err
	}

	docs, err := r.store.UpdatedSince(ctx, since)
	if err != nil {
		return time.Time{}, apperrors.Wrap(apperrors.CodeSync, err, "listing remote changes")
	}

	// Never regress below the stored watermark, even when a remote clock
	// ran ahead of ours in an earlier cycle.
	maxRemote := since
	for _, doc := range docs {
		if doc.UpdatedAt.After(maxRemote) {
			maxRemote = doc.UpdatedAt
		}
		if _, ok := pushed[doc.ID]; ok {
			continue
		}
		if err := r.applyRemote(ctx, doc); err != nil {
			if apperrors.IsValidation(err) || apperrors.IsConflict(err) {
				r.logg.Error(r.logg.WithField(ctx, "doc_id", doc.ID), "skipping unmappable remote document", err)
				result.PullErrors++
				continue
			}
			return time.Time{}, err
		}
		result.Pulled++
	}
	return maxRemote, nil
}

// applyRemote merges one remote document into the local cache, matching by
// remote id first and email second, and inserting a fresh row otherwise.
// Credential hashes and creation times are preserved on merges.
func (r *Reconciler) applyRemote(ctx context.Context, doc Document) error {
	now := r.now().UTC()

	local, err := r.users.GetByRemoteID(ctx, doc.ID)
	if err != nil && !apperrors.IsNotFound(err) {
		return err
	}

	email, _ := doc.Data["email"].(string)
	if local == nil && email != "" {
		local, err = r.users.GetByEmail(ctx, email)
		if err != nil && !apperrors.IsNotFound(err) {
			return err
		}
		if local != nil {
			remoteID := doc.ID
			local.RemoteID = &remoteID
		}
	}

	if local == nil {
		if email == "" {
			return apperrors.New(apperrors.CodeValidation, "remote document carries no email")
		}
		return r.users.Insert(ctx, userFromDocument(doc, now))
	}

	applyDocument(local, doc)
	local.SyncStatus = enums.SyncStatusSynced
	local.LastSyncedAt = &now
	return r.users.Save(ctx, local)
}

func (r *Reconciler) flagRowError(ctx context.Context, userID string, cause error, result *CycleResult) {
	result.PushErrors++
	r.logg.Error(r.logg.WithUserID(ctx, userID), "push failed for user", cause)
	if err := r.users.MarkSyncStatus(ctx, userID, enums.SyncStatusError, nil); err != nil {
		r.logg.Error(r.logg.WithUserID(ctx, userID), "could not flag user sync error", err)
	}
}
