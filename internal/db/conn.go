package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	_ "modernc.org/sqlite"
)

const schema = `
	CREATE TABLE IF NOT EXISTS conversations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		date TEXT NOT NULL,
		phrases TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS conversations_date ON conversations(date);
`

// Conn lazily opens a single SQLite handle and hands the same one to every
// caller. The open is attempted once; its result, handle or error, is
// returned to every later caller.
type Conn struct {
	path string
	open func(ctx context.Context, path string) (*sql.DB, error)

	once   sync.Once
	db     *sql.DB
	err    error
	closed atomic.Bool
}

var errClosed = fmt.Errorf("%w: store closed", ErrInit)

func newConn(path string) *Conn {
	return &Conn{path: path, open: openSQLite}
}

// DB returns the shared handle, opening it on first use. Concurrent first
// callers wait for the same open.
func (c *Conn) DB(ctx context.Context) (*sql.DB, error) {
	c.once.Do(func() {
		// Don't let one caller's cancellation decide the handle for everyone.
		c.db, c.err = c.open(context.WithoutCancel(ctx), c.path)
		if c.err != nil {
			c.err = fmt.Errorf("%w: %w", ErrInit, c.err)
		}
	})
	if c.closed.Load() {
		return nil, errClosed
	}
	return c.db, c.err
}

// InitSchema creates the conversations table if it does not exist.
func (c *Conn) InitSchema(ctx context.Context) error {
	db, err := c.DB(ctx)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%w: create schema: %w", ErrInit, err)
	}
	return nil
}

// Close closes the handle if it was opened. Later calls to DB fail with
// ErrInit.
func (c *Conn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	// Burn the once so a late caller can't open a handle nobody will close.
	c.once.Do(func() { c.err = errClosed })
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func openSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One connection: statements are serialized by the engine, and an
	// in-memory database stays the same database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}
