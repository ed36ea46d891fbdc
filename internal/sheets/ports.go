package sheets

import (
	"context"

	"gagyebu/internal/core"
)

// Table is a raw tabular sheet: the first row of the source becomes Header and
// every following row is padded to the header width.
type Table struct {
	Header []string
	Rows   [][]string
}

// Cell returns the value at row i, column j, or "" when out of range.
func (t Table) Cell(i, j int) string {
	if i < 0 || i >= len(t.Rows) || j < 0 || j >= len(t.Rows[i]) {
		return ""
	}
	return t.Rows[i][j]
}

// Ports for outbound adapters.
type (
	// EntryStore keeps the ledger entries of each session in insertion order.
	EntryStore interface {
		Append(ctx context.Context, sessionID string, e core.Entry) (ref string, err error)
		List(ctx context.Context, sessionID string) ([]core.Entry, error)
		// Reset drops every entry of the session.
		Reset(ctx context.Context, sessionID string) error
	}

	// SessionCounter is implemented by stores that can report how many
	// sessions currently hold entries.
	SessionCounter interface {
		Sessions(ctx context.Context) (int64, error)
	}

	// TableReader loads a table from a remote spreadsheet range.
	TableReader interface {
		ReadTable(ctx context.Context, spreadsheetID, readRange string) (Table, error)
	}
)

// NewTable builds a Table from a values matrix whose first row is the header.
// Short rows are padded and long rows truncated to the header width; fully
// blank rows are skipped.
func NewTable(values [][]string) Table {
	if len(values) == 0 {
		return Table{}
	}
	header := make([]string, len(values[0]))
	for i, h := range values[0] {
		header[i] = trimCell(h)
	}
	t := Table{Header: header}
	for _, raw := range values[1:] {
		row := make([]string, len(header))
		blank := true
		for j := range row {
			if j < len(raw) {
				row[j] = trimCell(raw[j])
			}
			if row[j] != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
