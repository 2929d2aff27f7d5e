package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/mamacare/engine/pkg/db"
	"github.com/mamacare/engine/pkg/enums"
	apperrors "github.com/mamacare/engine/pkg/errors"
	"github.com/mamacare/engine/pkg/logger"
	"gorm.io/gorm"
)

// SearchInstaller sets up whichever full-text tier the engine supports and
// records the winning tier. Implemented by internal/search.
type SearchInstaller interface {
	Install(ctx context.Context, tx *gorm.DB) (enums.SearchTier, error)
}

// ManagerParams configure the schema manager.
type ManagerParams struct {
	Client *db.Client
	Logger *logger.Logger
	Search SearchInstaller
}

// Manager owns table/index/trigger definitions and version-gated migrations.
type Manager struct {
	client *db.Client
	logg   *logger.Logger
	search SearchInstaller
}

// NewManager builds a schema manager.
func NewManager(params ManagerParams) (*Manager, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Search == nil {
		return nil, fmt.Errorf("search installer required")
	}
	return &Manager{
		client: params.Client,
		logg:   params.Logger,
		search: params.Search,
	}, nil
}

// Ensure brings the on-disk schema to CurrentVersion. A fresh file gets the
// full schema in one transaction; an older file gets each missing migration.
// Any failure is a fatal initialization error and the caller may retry the
// whole sequence.
func (m *Manager) Ensure(ctx context.Context) error {
	version, err := m.Version(ctx)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeFatalInit, err, "reading schema version")
	}

	switch {
	case version == 0:
		if err := m.create(ctx); err != nil {
			return apperrors.Wrap(apperrors.CodeFatalInit, err, "creating schema")
		}
	case version < CurrentVersion:
		if err := m.upgrade(ctx, version); err != nil {
			return apperrors.Wrap(apperrors.CodeFatalInit, err, fmt.Sprintf("migrating schema from v%d", version))
		}
	case version > CurrentVersion:
		return apperrors.New(apperrors.CodeFatalInit,
			fmt.Sprintf("database version %d is newer than supported version %d", version, CurrentVersion))
	}
	return nil
}

// Version reads PRAGMA user_version.
func (m *Manager) Version(ctx context.Context) (int, error) {
	var version int
	if err := m.client.DB(ctx).Raw("PRAGMA user_version").Scan(&version).Error; err != nil {
		return 0, err
	}
	return version, nil
}

func (m *Manager) create(ctx context.Context) error {
	m.logg.Info(ctx, "creating schema at current version")
	return m.client.WithTx(ctx, func(ctx context.Context, tx *gorm.DB) error {
		for _, stmt := range createTableStatements {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("create table: %w", err)
			}
		}
		for _, stmt := range createIndexStatements {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("create index: %w", err)
			}
		}
		tier, err := m.search.Install(ctx, tx)
		if err != nil {
			return fmt.Errorf("install search index: %w", err)
		}
		m.logg.Info(m.logg.WithField(ctx, "tier", string(tier)), "search index installed")
		for _, stmt := range seedStatements {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("seed data: %w", err)
			}
		}
		return setVersion(tx, CurrentVersion)
	})
}

func (m *Manager) upgrade(ctx context.Context, from int) error {
	logCtx := m.logg.WithFields(ctx, map[string]any{"from": from, "to": CurrentVersion})
	m.logg.Info(logCtx, "upgrading schema")

	return m.client.WithTx(ctx, func(ctx context.Context, tx *gorm.DB) error {
		for target := from + 1; target <= CurrentVersion; target++ {
			for _, step := range migrations[target] {
				if err := tx.Exec(step.SQL).Error; err != nil {
					if isAlreadyApplied(err) {
						stepCtx := m.logg.WithFields(ctx, map[string]any{"version": target, "step": step.Name})
						m.logg.Warn(stepCtx, "migration step already applied; skipping")
						continue
					}
					return fmt.Errorf("v%d step %s: %w", target, step.Name, err)
				}
			}
			// v3 introduced the search artifacts; the installer is
			// idempotent, so re-running it on later upgrades is harmless.
			if target == 3 {
				if _, err := m.search.Install(ctx, tx); err != nil {
					return fmt.Errorf("v3 search install: %w", err)
				}
			}
		}
		return setVersion(tx, CurrentVersion)
	})
}

func setVersion(tx *gorm.DB, version int) error {
	// PRAGMA does not accept bind parameters.
	return tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", version)).Error
}

// isAlreadyApplied matches the error classes a re-applied step produces.
func isAlreadyApplied(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate column name") ||
		strings.Contains(msg, "already exists")
}
