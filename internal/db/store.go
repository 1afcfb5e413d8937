package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// DefaultWindow is how far back List looks.
const DefaultWindow = 7 * 24 * time.Hour

// Store persists conversations in a SQLite database file.
type Store struct {
	conn   *Conn
	now    func() time.Time
	window time.Duration
	logger *slog.Logger

	initOnce sync.Once
	initErr  error
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source used for new conversation dates and for
// the List window.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithWindow sets how far back List looks. Non-positive values are ignored.
func WithWindow(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.window = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// DefaultDBPath returns the default database path.
func DefaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "Steno", "history.db")
}

// New returns a store for the database at path. Nothing is opened until
// Initialize or the first query.
func New(path string, opts ...Option) *Store {
	s := &Store{
		conn:   newConn(path),
		now:    time.Now,
		window: DefaultWindow,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize opens the database and creates the schema. It runs once;
// later calls return the first result.
func (s *Store) Initialize(ctx context.Context) error {
	s.initOnce.Do(func() {
		s.initErr = s.conn.InitSchema(context.WithoutCancel(ctx))
	})
	return s.initErr
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) ready(ctx context.Context) (*sql.DB, error) {
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}
	return s.conn.DB(ctx)
}

// Create saves a new conversation dated now and returns it with its
// assigned ID.
func (s *Store) Create(ctx context.Context, name string, phrases []string) (Conversation, error) {
	if strings.TrimSpace(name) == "" {
		return Conversation{}, ErrEmptyName
	}
	encoded, err := EncodePhrases(phrases)
	if err != nil {
		return Conversation{}, fmt.Errorf("%w: %w", ErrWrite, err)
	}

	db, err := s.ready(ctx)
	if err != nil {
		return Conversation{}, err
	}

	// Round to what the column keeps so the returned value matches a read.
	date := s.now().UTC().Truncate(time.Millisecond)
	res, err := db.ExecContext(ctx,
		`INSERT INTO conversations (name, date, phrases) VALUES (?, ?, ?)`,
		name, formatDate(date), encoded)
	if err != nil {
		return Conversation{}, fmt.Errorf("%w: insert conversation: %w", ErrWrite, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Conversation{}, fmt.Errorf("%w: read conversation id: %w", ErrWrite, err)
	}

	s.logger.Debug("conversation saved", "id", id, "phrases", len(phrases))

	stored := make([]string, len(phrases))
	copy(stored, phrases)
	return Conversation{ID: id, Name: name, Date: date, Phrases: stored}, nil
}

// List returns conversations dated within the window, newest first. Rows
// outside the window are kept, just not returned. If any row fails to
// decode the whole list fails.
func (s *Store) List(ctx context.Context) ([]Conversation, error) {
	db, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}

	since := formatDate(s.now().Add(-s.window))
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, date, phrases
		FROM conversations
		WHERE date >= ?
		ORDER BY date DESC, id DESC
	`, since)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer rows.Close()

	convs := []Conversation{}
	for rows.Next() {
		c, err := s.scan(rows)
		if err != nil {
			return nil, err
		}
		convs = append(convs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	return convs, nil
}

// Get returns the conversation with the given ID regardless of its age,
// or nil if there is none.
func (s *Store) Get(ctx context.Context, id int64) (*Conversation, error) {
	db, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx, `
		SELECT id, name, date, phrases
		FROM conversations
		WHERE id = ?
	`, id)

	c, err := s.scan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// Delete removes the conversation with the given ID. Deleting an ID that
// does not exist is not an error.
func (s *Store) Delete(ctx context.Context, id int64) error {
	db, err := s.ready(ctx)
	if err != nil {
		return err
	}

	res, err := db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%w: delete conversation %d: %w", ErrWrite, id, err)
	}
	if n, err := res.RowsAffected(); err == nil {
		s.logger.Debug("conversation deleted", "id", id, "rows", n)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *Store) scan(row scanner) (Conversation, error) {
	var c Conversation
	var date, phrases string
	if err := row.Scan(&c.ID, &c.Name, &date, &phrases); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Conversation{}, err
		}
		return Conversation{}, fmt.Errorf("scan conversation: %w", err)
	}

	t, err := parseDate(date)
	if err != nil {
		s.logger.Error("bad conversation date", "id", c.ID, "date", date, "error", err)
		return Conversation{}, fmt.Errorf("%w: conversation %d: bad date %q: %w", ErrDecode, c.ID, date, err)
	}
	c.Date = t

	c.Phrases, err = DecodePhrases(phrases)
	if err != nil {
		s.logger.Error("bad conversation phrases", "id", c.ID, "error", err)
		return Conversation{}, fmt.Errorf("conversation %d: %w", c.ID, err)
	}
	return c, nil
}
