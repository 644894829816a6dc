package session

import (
	"context"

	"github.com/dkeye/Inkroom/internal/core"
	"github.com/dkeye/Inkroom/internal/domain"
)

// RelayEngine is the default Engine: it persists each update blob through
// the Manager and relays it untouched to the editor's room mates. Conflict
// resolution happens client-side; the server stays a dumb pipe.
type RelayEngine struct {
	manager  *Manager
	registry *core.Registry
}

func NewRelayEngine(manager *Manager, registry *core.Registry) *RelayEngine {
	return &RelayEngine{manager: manager, registry: registry}
}

func (e *RelayEngine) HandleUpdate(ctx context.Context, docID domain.DocumentID, editor domain.UserID, update []byte) error {
	// First update for a document opens its session. Without an attached
	// engine there is no history handle, so the watchdog flags but cannot
	// revert; an external collaborator plugs in through Manager.Open.
	if _, err := e.manager.Open(docID, nil, nil, nil); err != nil {
		return err
	}
	e.manager.OnUpdate(ctx, docID, editor, update)
	if room, ok := e.registry.Get(docID); ok {
		room.RelayUpdate(editor, update)
	}
	return nil
}
