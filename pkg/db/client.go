package db

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/mamacare/engine/pkg/config"
	apperrors "github.com/mamacare/engine/pkg/errors"
	"github.com/mamacare/engine/pkg/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Client wraps the process-wide SQLite handle. The handle is lazily reopened
// after Close or Export so callers never observe a nil connection.
type Client struct {
	mu     sync.Mutex
	conn   *gorm.DB
	closed bool
	cfg    config.DBConfig
	logg   *logger.Logger
}

type txKey struct{}

// Open boots the SQLite client at the configured path. Failure here is a
// fatal initialization error; the caller may retry the full sequence.
func Open(ctx context.Context, cfg config.DBConfig, logg *logger.Logger) (*Client, error) {
	if cfg.Path == "" {
		return nil, apperrors.New(apperrors.CodeFatalInit, "database path is required")
	}

	c := &Client{cfg: cfg, logg: logg}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.openLocked(ctx); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeFatalInit, err, "opening database")
	}

	if logg != nil {
		logg.Info(ctx, "database connection established")
	}
	return c, nil
}

func (c *Client) openLocked(ctx context.Context) error {
	dsn := c.cfg.Path
	if !strings.Contains(dsn, "?") {
		dsn += fmt.Sprintf("?_foreign_keys=on&_busy_timeout=%d", c.cfg.BusyTimeout.Milliseconds())
	}

	gormLogger := gormlogger.New(
		log.New(io.Discard, "", log.LstdFlags),
		gormlogger.Config{LogLevel: gormlogger.Silent},
	)

	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return fmt.Errorf("opening sqlite at %s: %w", c.cfg.Path, err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return fmt.Errorf("getting sql db handle: %w", err)
	}
	// Single-writer model: one underlying connection keeps the transaction
	// queue serialized and the pragmas connection-stable.
	sqlDB.SetMaxOpenConns(1)

	if err := conn.WithContext(ctx).Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("enabling foreign keys: %w", err)
	}

	c.conn = conn
	c.closed = false
	return nil
}

// DB returns a GORM handle bound to ctx. When ctx carries an ambient
// transaction (see WithTx) that transaction is returned instead, so repository
// code composes into enclosing transactions transparently.
func (c *Client) DB(ctx context.Context) *gorm.DB {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.conn == nil {
		if err := c.openLocked(ctx); err != nil {
			// Keep handing out the stale handle; its queries fail with
			// "database is closed" instead of panicking on nil.
			if c.logg != nil {
				c.logg.Error(ctx, "database reopen failed", err)
			}
		} else if c.logg != nil {
			c.logg.Info(ctx, "database connection reopened")
		}
	}
	if ctx == nil {
		return c.conn
	}
	return c.conn.WithContext(ctx)
}

// TxFromContext extracts the ambient transaction handle, if any.
func TxFromContext(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return nil
	}
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return nil
}

// WithTx executes fn inside a transaction, rolling back on error/panic.
// Nested calls reuse the outer transaction rather than opening a second one.
func (c *Client) WithTx(ctx context.Context, fn func(ctx context.Context, tx *gorm.DB) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if outer := TxFromContext(ctx); outer != nil {
		return fn(ctx, outer)
	}

	tx := c.DB(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// Ping verifies the datasource is reachable.
func (c *Client) Ping(ctx context.Context) error {
	db := c.DB(ctx)
	if db.Error != nil {
		return db.Error
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close shuts down the underlying connection. A later DB call reopens it.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *Client) closeLocked() error {
	if c.conn == nil || c.closed {
		return nil
	}
	sqlDB, err := c.conn.DB()
	c.closed = true
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Path returns the on-disk location of the cache file.
func (c *Client) Path() string {
	return c.cfg.Path
}

// Export writes an atomic online-backup copy of the database to dest using
// VACUUM INTO. The live handle is closed for the duration and reopened
// regardless of outcome. Engines without VACUUM INTO get a descriptive error,
// never a raw file copy.
func (c *Client) Export(ctx context.Context, dest string) (err error) {
	if dest == "" {
		return apperrors.New(apperrors.CodeValidation, "export destination is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if closeErr := c.closeLocked(); closeErr != nil {
		return fmt.Errorf("closing live handle before export: %w", closeErr)
	}
	defer func() {
		if reopenErr := c.openLocked(ctx); reopenErr != nil && err == nil {
			err = apperrors.Wrap(apperrors.CodeFatalInit, reopenErr, "reopening database after export")
		}
	}()

	scratch, openErr := gorm.Open(sqlite.Open(c.cfg.Path), &gorm.Config{
		Logger: gormlogger.New(log.New(io.Discard, "", log.LstdFlags), gormlogger.Config{LogLevel: gormlogger.Silent}),
	})
	if openErr != nil {
		return fmt.Errorf("opening scratch handle for export: %w", openErr)
	}
	defer func() {
		if sqlDB, dbErr := scratch.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
	}()

	if vacErr := scratch.WithContext(ctx).Exec("VACUUM INTO ?", dest).Error; vacErr != nil {
		if strings.Contains(vacErr.Error(), "syntax error") {
			return fmt.Errorf("VACUUM INTO is not supported by this SQLite build; refusing unsafe raw copy: %w", vacErr)
		}
		return fmt.Errorf("exporting database to %s: %w", dest, vacErr)
	}
	return nil
}
