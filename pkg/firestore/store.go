// Package firestore adapts Cloud Firestore to the engine's document store
// contract. Documents carry an updatedAt server timestamp used as the
// incremental pull cursor.
package firestore

import (
	"context"
	"fmt"
	"time"

	cloudfirestore "cloud.google.com/go/firestore"
	"github.com/mamacare/engine/internal/sync"
	"github.com/mamacare/engine/pkg/config"
	apperrors "github.com/mamacare/engine/pkg/errors"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const updatedAtField = "updatedAt"

// Store implements sync.DocumentStore on one Firestore collection.
type Store struct {
	client     *cloudfirestore.Client
	collection string
}

// NewStore dials Firestore. The credentials file is optional; without one the
// client falls back to application default credentials.
func NewStore(ctx context.Context, cfg config.FirestoreConfig, collection string) (*Store, error) {
	if cfg.ProjectID == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "firestore project id is required")
	}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := cloudfirestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeSync, err, "dialing firestore")
	}
	return &Store{client: client, collection: collection}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// Get fetches one document, or a NOT_FOUND error when it does not exist.
func (s *Store) Get(ctx context.Context, id string) (*sync.Document, error) {
	snapshot, err := s.client.Collection(s.collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("document %s not found", id))
		}
		return nil, apperrors.Wrap(apperrors.CodeSync, err, "fetching document")
	}
	return snapshotToDocument(snapshot), nil
}

// Set merges data into the document, creating it when absent, and stamps the
// server-side updatedAt cursor.
func (s *Store) Set(ctx context.Context, id string, data map[string]any) error {
	payload := make(map[string]any, len(data)+1)
	for k, v := range data {
		payload[k] = v
	}
	payload[updatedAtField] = cloudfirestore.ServerTimestamp

	_, err := s.client.Collection(s.collection).Doc(id).Set(ctx, payload, cloudfirestore.MergeAll)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeSync, err, "writing document")
	}
	return nil
}

// UpdatedSince returns documents whose updatedAt is strictly after since,
// oldest first. Documents without the cursor field never match, which keeps
// records written outside the engine out of the pull.
func (s *Store) UpdatedSince(ctx context.Context, since time.Time) ([]sync.Document, error) {
	iter := s.client.Collection(s.collection).
		Where(updatedAtField, ">", since).
		OrderBy(updatedAtField, cloudfirestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var out []sync.Document
	for {
		snapshot, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeSync, err, "listing documents")
		}
		out = append(out, *snapshotToDocument(snapshot))
	}
	return out, nil
}

func snapshotToDocument(snapshot *cloudfirestore.DocumentSnapshot) *sync.Document {
	data := snapshot.Data()
	updatedAt := snapshot.UpdateTime
	if raw, ok := data[updatedAtField].(time.Time); ok {
		updatedAt = raw
	}
	delete(data, updatedAtField)
	return &sync.Document{
		ID:        snapshot.Ref.ID,
		Data:      data,
		UpdatedAt: updatedAt,
	}
}
