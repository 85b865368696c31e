// Package store persists conversation records in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"assistd/internal/common/fsutil"
	"assistd/pkg/types"
)

// ErrNotFound is returned by Get when no record has the requested id.
var ErrNotFound = errors.New("record not found")

// ErrInvalidRecord rejects records that cannot be stored.
var ErrInvalidRecord = errors.New("invalid record")

// PersistError wraps a failed write.
type PersistError struct {
	ID  string
	Err error
}

func (e *PersistError) Error() string { return "persist record " + e.ID + ": " + e.Err.Error() }

func (e *PersistError) Unwrap() error { return e.Err }

// timeLayout is fixed width so lexical order in SQLite equals time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const schema = `
CREATE TABLE IF NOT EXISTS memory (
	id TEXT PRIMARY KEY,
	message TEXT NOT NULL,
	response TEXT NOT NULL,
	timestamp DATETIME NOT NULL,
	message_type TEXT
);
CREATE INDEX IF NOT EXISTS idx_memory_timestamp ON memory(timestamp);
CREATE INDEX IF NOT EXISTS idx_memory_type ON memory(message_type);
`

// Config configures Open.
type Config struct {
	// Path is a file path or ":memory:".
	Path   string
	Logger *zerolog.Logger
	// MaxReaders bounds the connection pool for file databases. Default 4.
	MaxReaders int
}

// Store is safe for concurrent use. Reads run in parallel; writes are
// serialized by the store itself.
type Store struct {
	db      *sql.DB
	writeMu sync.Mutex
	log     zerolog.Logger
}

// Open creates the database file and schema if needed.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	path, err := fsutil.ExpandHome(cfg.Path)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, fmt.Errorf("empty database path")
	}
	memory := fsutil.IsMemoryDB(path)
	if !memory {
		if err := fsutil.EnsureParentDir(path); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", dsn(path, memory))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if memory {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	} else {
		n := cfg.MaxReaders
		if n <= 0 {
			n = 4
		}
		db.SetMaxOpenConns(n)
	}
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{db: db, log: zerolog.Nop()}
	if cfg.Logger != nil {
		s.log = cfg.Logger.With().Str("component", "store").Logger()
	}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	s.log.Debug().Str("path", path).Msg("store opened")
	return s, nil
}

// dsn adds per-connection pragmas so every pooled connection gets them.
func dsn(path string, memory bool) string {
	q := url.Values{}
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "synchronous(NORMAL)")
	if !memory {
		q.Add("_pragma", "journal_mode(WAL)")
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + q.Encode()
}

func (s *Store) migrate(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// Save inserts rec or replaces the record with the same id.
func (s *Store) Save(ctx context.Context, rec types.ConversationRecord) error {
	if strings.TrimSpace(rec.ID) == "" {
		return &PersistError{ID: rec.ID, Err: fmt.Errorf("%w: empty id", ErrInvalidRecord)}
	}
	var mt any
	if rec.MessageType != nil {
		mt = *rec.MessageType
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO memory (id, message, response, timestamp, message_type) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.Message, rec.Response, formatTime(rec.Timestamp), mt)
	if err != nil {
		return &PersistError{ID: rec.ID, Err: err}
	}
	return nil
}

const selectCols = `SELECT id, message, response, timestamp, message_type FROM memory`

// Get returns the record with id or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (types.ConversationRecord, error) {
	row := s.db.QueryRowContext(ctx, selectCols+` WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.ConversationRecord{}, ErrNotFound
	}
	return rec, err
}

// List returns records newest first; records with equal timestamps come in
// insertion order. A negative limit means no limit.
func (s *Store) List(ctx context.Context, limit, offset int) ([]types.ConversationRecord, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		selectCols+` ORDER BY timestamp DESC, rowid ASC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return collect(rows)
}

// Search returns records whose message or response contains query, using
// SQLite LIKE semantics (ASCII case-insensitive). Ordered like List.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]types.ConversationRecord, error) {
	if limit < 0 {
		limit = -1
	}
	pattern := "%" + escapeLike(query) + "%"
	rows, err := s.db.QueryContext(ctx,
		selectCols+` WHERE message LIKE ? ESCAPE '\' OR response LIKE ? ESCAPE '\'
		ORDER BY timestamp DESC, rowid ASC LIMIT ?`, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search records: %w", err)
	}
	return collect(rows)
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memory`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (types.ConversationRecord, error) {
	var (
		rec types.ConversationRecord
		ts  any
		mt  sql.NullString
	)
	if err := sc.Scan(&rec.ID, &rec.Message, &rec.Response, &ts, &mt); err != nil {
		return rec, err
	}
	t, err := parseTime(ts)
	if err != nil {
		return rec, fmt.Errorf("record %s: %w", rec.ID, err)
	}
	rec.Timestamp = t
	if mt.Valid {
		rec.MessageType = types.StringPtr(mt.String)
	}
	return rec, nil
}

func collect(rows *sql.Rows) ([]types.ConversationRecord, error) {
	defer rows.Close()
	out := []types.ConversationRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

// parseTime accepts what the driver hands back for a DATETIME column: our
// own text, or a time.Time when the driver recognised the format.
func parseTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), nil
	case string:
		return parseTimeString(x)
	case []byte:
		return parseTimeString(string(x))
	}
	return time.Time{}, fmt.Errorf("unexpected timestamp type %T", v)
}

func parseTimeString(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
