package amqp

import (
	"encoding/json"
	"time"
)

// Event types, also used as the AMQP message type.
const (
	EventEntryAdded  = "ledger.entry_added"
	EventReportBuilt = "analyzer.report_built"
)

// Event is the envelope published for every domain event.
type Event struct {
	Type       string          `json:"type"`
	SessionID  string          `json:"session_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// EntryAdded is published after a ledger entry was stored.
type EntryAdded struct {
	Ref         string `json:"ref"`
	Date        string `json:"date"`
	Kind        string `json:"kind"`
	Category    string `json:"category"`
	Description string `json:"description"`
	AmountWon   int64  `json:"amount_won"`
}

// ReportBuilt is published after a period summary was generated. Amounts
// are decimal strings.
type ReportBuilt struct {
	Title   string `json:"title"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Rows    int    `json:"rows"`
	Income  string `json:"income"`
	Expense string `json:"expense"`
	Balance string `json:"balance"`
}

// NewEvent wraps payload in an envelope stamped with the current time.
func NewEvent(eventType, sessionID string, payload any) (*Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:       eventType,
		SessionID:  sessionID,
		OccurredAt: time.Now().UTC(),
		Payload:    raw,
	}, nil
}

// ToJSON converts the event to JSON bytes
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON creates an event from JSON bytes
func EventFromJSON(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Decode unmarshals the payload into v.
func (e *Event) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}
