// Package enginetest provides shared fixtures: a throwaway on-disk database
// with the full schema installed, opened through the same client and schema
// manager production code uses.
package enginetest

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/mamacare/engine/internal/schema"
	"github.com/mamacare/engine/internal/search"
	"github.com/mamacare/engine/pkg/config"
	"github.com/mamacare/engine/pkg/db"
	"github.com/mamacare/engine/pkg/logger"
)

// Logger returns a logger that discards output.
func Logger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

// OpenClient opens a client on a fresh temp database without any schema.
func OpenClient(t *testing.T) *db.Client {
	t.Helper()
	cfg := config.DBConfig{
		Path:        filepath.Join(t.TempDir(), "engine_test.db"),
		BusyTimeout: time.Second,
	}
	client, err := db.Open(context.Background(), cfg, Logger())
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	t.Cleanup(func() {
		if err := client.Close(); err != nil {
			t.Errorf("closing test db: %v", err)
		}
	})
	return client
}

// OpenDB opens a fresh temp database and installs the current schema,
// returning the client and the installed search service.
func OpenDB(t *testing.T) (*db.Client, *search.Service) {
	t.Helper()
	client := OpenClient(t)
	searchService := search.NewService(client, Logger())
	manager, err := schema.NewManager(schema.ManagerParams{
		Client: client,
		Logger: Logger(),
		Search: searchService,
	})
	if err != nil {
		t.Fatalf("schema.NewManager: %v", err)
	}
	if err := manager.Ensure(context.Background()); err != nil {
		t.Fatalf("schema.Ensure: %v", err)
	}
	return client, searchService
}
