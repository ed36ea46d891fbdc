package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"gagyebu/internal/core"
	ports "gagyebu/internal/sheets"

	_ "modernc.org/sqlite"
)

var (
	_ ports.EntryStore     = (*SQLiteRepository)(nil)
	_ ports.SessionCounter = (*SQLiteRepository)(nil)
)

// ErrPersistentDSN rejects DSNs that are not a shared in-memory database:
// on-disk files, and private in-memory databases that the migration
// connection could not see.
var ErrPersistentDSN = errors.New("sqlite dsn must be a shared in-memory database (mode=memory&cache=shared)")

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

// IsMemoryDSN reports whether dsn names a shared in-memory database, one
// that every connection of the pool opens as the same schema.
func IsMemoryDSN(dsn string) bool {
	_, query, ok := strings.Cut(dsn, "?")
	if !ok {
		return false
	}
	params, err := url.ParseQuery(query)
	if err != nil {
		return false
	}
	return params.Get("mode") == "memory" && params.Get("cache") == "shared"
}

// NewSQLiteRepository opens the in-memory database named by dsn and applies
// the embedded migrations. The data lives as long as the repository is open.
func NewSQLiteRepository(dsn string) (*SQLiteRepository, error) {
	if !IsMemoryDSN(dsn) {
		return nil, ErrPersistentDSN
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps the shared in-memory database alive and
	// serializes writers.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping is used by the readiness probe.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Append implements sheets.EntryStore
func (r *SQLiteRepository) Append(ctx context.Context, sessionID string, e core.Entry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	id, err := r.queries.CreateEntry(ctx, CreateEntryParams{
		SessionID:   sessionID,
		EntryDate:   e.Date.String(),
		Kind:        string(e.Kind),
		Category:    e.Category,
		Description: e.Description,
		Amount:      int64(e.Amount),
	})
	if err != nil {
		return "", fmt.Errorf("create entry: %w", err)
	}

	slog.DebugContext(ctx, "Ledger entry saved to SQLite",
		"id", id,
		"kind", e.Kind,
		"amount_won", int64(e.Amount),
		"date", e.Date.String())

	return strconv.FormatInt(id, 10), nil
}

// List implements sheets.EntryStore
func (r *SQLiteRepository) List(ctx context.Context, sessionID string) ([]core.Entry, error) {
	rows, err := r.queries.ListEntriesBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	out := make([]core.Entry, 0, len(rows))
	for _, row := range rows {
		d, err := core.ParseDate(row.EntryDate)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", row.ID, err)
		}
		out = append(out, core.Entry{
			Date:        d,
			Kind:        core.Kind(row.Kind),
			Category:    row.Category,
			Description: row.Description,
			Amount:      core.Won(row.Amount),
		})
	}
	return out, nil
}

// Reset implements sheets.EntryStore
func (r *SQLiteRepository) Reset(ctx context.Context, sessionID string) error {
	if err := r.queries.DeleteEntriesBySession(ctx, sessionID); err != nil {
		return fmt.Errorf("delete entries: %w", err)
	}
	return nil
}

// Sessions implements sheets.SessionCounter
func (r *SQLiteRepository) Sessions(ctx context.Context) (int64, error) {
	n, err := r.queries.CountSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}
