package services

import (
	"context"
	"errors"
	"fmt"

	"gagyebu/internal/amqp"
	"gagyebu/internal/core"
	"gagyebu/internal/ledger"
	"gagyebu/internal/log"
	"gagyebu/internal/metrics"
	"gagyebu/internal/sheets"
)

// LedgerService orchestrates ledger operations across the entry store and AMQP
type LedgerService struct {
	store     sheets.EntryStore
	publisher EventPublisher
	metrics   *metrics.Registry
	logger    *log.StructuredLogger
}

func NewLedgerService(store sheets.EntryStore, publisher EventPublisher, m *metrics.Registry, logger *log.Logger) *LedgerService {
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentLedger)
	}
	return &LedgerService{
		store:     store,
		publisher: publisher,
		metrics:   m,
		logger:    log.NewStructuredLogger(logger),
	}
}

// NewEntry carries the ledger form fields.
type NewEntry struct {
	Date        core.Date
	Kind        core.Kind
	Category    string
	Description string
	Amount      core.Won
}

// AddEntry stores an entry for the session and publishes ledger.entry_added.
func (s *LedgerService) AddEntry(ctx context.Context, sessionID string, in NewEntry) (core.Entry, error) {
	e, ref, err := ledger.New(s.store, sessionID).AddEntry(ctx, in.Date, in.Kind, in.Category, in.Description, in.Amount)
	if err != nil {
		if errors.Is(err, core.ErrZeroAmount) {
			s.metrics.EntryRejectedFor("zero_amount")
		}
		return core.Entry{}, err
	}

	s.metrics.EntryAdded(string(e.Kind))
	s.logger.LogEntryAdded(ctx, sessionID, e.Date.String(), string(e.Kind), e.Category, int64(e.Amount), ref)

	publishEvent(ctx, s.publisher, s.metrics, amqp.EventEntryAdded, sessionID, amqp.EntryAdded{
		Ref:         ref,
		Date:        e.Date.String(),
		Kind:        string(e.Kind),
		Category:    e.Category,
		Description: e.Description,
		AmountWon:   int64(e.Amount),
	})
	return e, nil
}

// Snapshot returns the session's ledger view: sorted entries, totals and the
// category summary.
func (s *LedgerService) Snapshot(ctx context.Context, sessionID string) (ledger.Snapshot, error) {
	return ledger.New(s.store, sessionID).Snapshot(ctx)
}

// Reset drops the session's entries, used when a session expires.
func (s *LedgerService) Reset(ctx context.Context, sessionID string) error {
	if err := s.store.Reset(ctx, sessionID); err != nil {
		return fmt.Errorf("reset session %s: %w", sessionID, err)
	}
	return nil
}
