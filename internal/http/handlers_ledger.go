package http

import (
	"errors"
	"net/http"

	"gagyebu/internal/core"
	"gagyebu/internal/log"
	"gagyebu/internal/session"
)

func (s *Server) handleLedgerPage(w http.ResponseWriter, r *http.Request, st *session.State) {
	snap, err := s.ledger.Snapshot(r.Context(), st.ID)
	if err != nil {
		s.logStoreError(r, "Ledger snapshot failed", log.OpList, err, st.ID)
		InternalServerError(msgSaveFailed).Write(w)
		return
	}
	s.render(w, r, NewHTMXResponse(), "ledger.html", ledgerPageView{
		Today: core.DateOf(s.now()).String(),
		Kinds: formKinds,
		Panel: newLedgerPanelView(snap),
	})
}

// handleLedgerPanel renders totals, the category summary and the full entry
// list. The page reloads it on ledger:changed.
func (s *Server) handleLedgerPanel(w http.ResponseWriter, r *http.Request, st *session.State) {
	snap, err := s.ledger.Snapshot(r.Context(), st.ID)
	if err != nil {
		s.logStoreError(r, "Ledger snapshot failed", log.OpList, err, st.ID)
		InternalServerError(msgSaveFailed).Write(w)
		return
	}
	s.render(w, r, NewHTMXResponse(), "ledger_panel", newLedgerPanelView(snap))
}

func (s *Server) handleAddEntry(w http.ResponseWriter, r *http.Request, st *session.State) {
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		writeParseError(w, err)
		return
	}

	in, err := ParseEntryForm(parser).Entry(core.DateOf(s.now()))
	if err != nil {
		WarningResponse(http.StatusUnprocessableEntity, entryErrorMessage(err)).
			TriggerWarningNotification(entryErrorMessage(err)).
			Write(w)
		return
	}

	entry, err := s.ledger.AddEntry(r.Context(), st.ID, in)
	switch {
	case errors.Is(err, core.ErrZeroAmount):
		WarningResponse(http.StatusUnprocessableEntity, msgZeroAmount).
			TriggerWarningNotification(msgZeroAmount).
			Write(w)
		return
	case err != nil:
		s.logStoreError(r, "Failed to save ledger entry", log.OpAppend, err, st.ID)
		InternalServerError(msgSaveFailed).Write(w)
		return
	}

	if parser.IsJSON() {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"date":        entry.Date.String(),
			"kind":        entry.Kind,
			"category":    entry.Category,
			"description": entry.Description,
			"amount":      int64(entry.Amount),
		})
		return
	}

	SuccessResponse(msgEntryAdded).
		TriggerLedgerChanged().
		TriggerFormReset().
		TriggerSuccessNotification(msgEntryAdded).
		Write(w)
}

func entryErrorMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidDate):
		return msgInvalidDate
	case errors.Is(err, core.ErrInvalidKind):
		return msgInvalidKind
	case errors.Is(err, core.ErrInvalidAmount):
		return msgInvalidAmount
	}
	return msgBadRequest
}

func (s *Server) logStoreError(r *http.Request, msg, op string, err error, sessionID string) {
	log.NewStructuredLogger(log.FromContext(r.Context())).
		LogError(r.Context(), msg, err, log.ComponentLedger, op, log.NewFields().WithSessionID(sessionID))
}
