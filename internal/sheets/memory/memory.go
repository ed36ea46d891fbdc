package memory

import (
	"context"
	"fmt"
	"sync"

	"gagyebu/internal/core"
	ports "gagyebu/internal/sheets"
)

var (
	_ ports.EntryStore     = (*Store)(nil)
	_ ports.SessionCounter = (*Store)(nil)
)

// Store keeps ledger entries per session in process memory.
type Store struct {
	mu    sync.Mutex
	items map[string][]core.Entry
	seq   int
}

func New() *Store {
	return &Store{items: make(map[string][]core.Entry)}
}

// Append stores the entry and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, sessionID string, e core.Entry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[sessionID] = append(s.items[sessionID], e)
	s.seq++
	return fmt.Sprintf("mem:%d", s.seq), nil
}

// List returns a copy of the session's entries in insertion order.
func (s *Store) List(_ context.Context, sessionID string) ([]core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Entry(nil), s.items[sessionID]...), nil
}

func (s *Store) Reset(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, sessionID)
	return nil
}

// Sessions reports how many sessions currently hold entries.
func (s *Store) Sessions(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.items)), nil
}
