package repo

import (
	"context"

	"github.com/mamacare/engine/pkg/db"
	"gorm.io/gorm"
)

// Base provides a shared foundation for entity repositories. All repository
// queries route through the client so ambient transactions (db.WithTx) and
// the guarded handle lifecycle apply uniformly.
type Base struct {
	client *db.Client
}

// NewBase constructs a Base repository backed by the provided client.
func NewBase(client *db.Client) Base {
	return Base{client: client}
}

// DB returns a GORM handle for ctx, honoring any ambient transaction.
func (b Base) DB(ctx context.Context) *gorm.DB {
	return b.client.DB(ctx)
}

// Client exposes the underlying client for transaction scoping.
func (b Base) Client() *db.Client {
	return b.client
}
