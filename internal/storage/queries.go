package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

type LedgerEntry struct {
	ID          int64
	SessionID   string
	EntryDate   string
	Kind        string
	Category    string
	Description string
	Amount      int64
}

type CreateEntryParams struct {
	SessionID   string
	EntryDate   string
	Kind        string
	Category    string
	Description string
	Amount      int64
}

const createEntry = `INSERT INTO ledger_entries (session_id, entry_date, kind, category, description, amount)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id`

func (q *Queries) CreateEntry(ctx context.Context, arg CreateEntryParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createEntry,
		arg.SessionID,
		arg.EntryDate,
		arg.Kind,
		arg.Category,
		arg.Description,
		arg.Amount,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const listEntriesBySession = `SELECT id, session_id, entry_date, kind, category, description, amount
FROM ledger_entries
WHERE session_id = ?
ORDER BY id`

func (q *Queries) ListEntriesBySession(ctx context.Context, sessionID string) ([]LedgerEntry, error) {
	rows, err := q.db.QueryContext(ctx, listEntriesBySession, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LedgerEntry
	for rows.Next() {
		var i LedgerEntry
		if err := rows.Scan(
			&i.ID,
			&i.SessionID,
			&i.EntryDate,
			&i.Kind,
			&i.Category,
			&i.Description,
			&i.Amount,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteEntriesBySession = `DELETE FROM ledger_entries WHERE session_id = ?`

func (q *Queries) DeleteEntriesBySession(ctx context.Context, sessionID string) error {
	_, err := q.db.ExecContext(ctx, deleteEntriesBySession, sessionID)
	return err
}

const countSessions = `SELECT COUNT(DISTINCT session_id) FROM ledger_entries`

func (q *Queries) CountSessions(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countSessions)
	var n int64
	err := row.Scan(&n)
	return n, err
}
