package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Inkroom/internal/domain"
)

// Session is the per-open-document state. The validation flag, last-editor
// mark and history handle live here, on the session object itself, so
// teardown is explicit and nothing leaks in process-wide maps.
type Session struct {
	docID  domain.DocumentID
	cancel context.CancelFunc

	mu         sync.Mutex
	flagged    bool
	lastEditor domain.UserID
	history    History
}

func newSession(docID domain.DocumentID, history History, cancel context.CancelFunc) *Session {
	return &Session{docID: docID, history: history, cancel: cancel}
}

func (s *Session) DocumentID() domain.DocumentID { return s.docID }

// ObserveEdit marks the session flagged. Every content-change event lands
// here, before any permission decision.
func (s *Session) ObserveEdit(editor domain.UserID) {
	s.mu.Lock()
	s.flagged = true
	s.lastEditor = editor
	s.mu.Unlock()
}

func (s *Session) Flagged() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flagged
}

// Review runs the watchdog check: an authorized last edit clears the flag;
// an unauthorized one is undone and the flag stays set.
func (s *Session) Review(authorized func(editor domain.UserID) bool) {
	s.mu.Lock()
	if !s.flagged {
		s.mu.Unlock()
		return
	}
	editor := s.lastEditor
	history := s.history
	ok := authorized(editor)
	if ok {
		s.flagged = false
	}
	s.mu.Unlock()

	if ok {
		return
	}
	if history == nil || !history.CanUndo() {
		return
	}
	if err := history.UndoLast(); err != nil {
		log.Error().Err(err).Str("module", "session").Str("doc", string(s.docID)).Msg("undo rejected edit")
		return
	}
	log.Info().Str("module", "session").Str("doc", string(s.docID)).Str("editor", string(editor)).Msg("reverted unauthorized edit")
}

func (s *Session) stop() {
	if s.cancel != nil {
		s.cancel()
	}
}
