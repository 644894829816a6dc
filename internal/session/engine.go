// Package session bridges room lifecycle to the external CRDT engine: load
// on first join, periodic store, apply on update, plus the content
// validation watchdog.
package session

import (
	"context"

	"github.com/dkeye/Inkroom/internal/domain"
)

// Engine is the external CRDT collaborator. It receives the editing-protocol
// framing of an admitted socket; Inkroom never interprets the blobs, it only
// moves them between sockets and the blob store.
type Engine interface {
	HandleUpdate(ctx context.Context, docID domain.DocumentID, editor domain.UserID, update []byte) error
}

// History is the engine-owned edit history of one document; UndoLast
// reverts the most recent change.
type History interface {
	CanUndo() bool
	UndoLast() error
}

// BlobStore persists opaque update blobs and snapshots.
type BlobStore interface {
	AppendUpdate(ctx context.Context, docID domain.DocumentID, update []byte) error
	LoadUpdates(ctx context.Context, docID domain.DocumentID) ([][]byte, error)
	SaveSnapshot(ctx context.Context, docID domain.DocumentID, snapshot []byte) error
	LoadSnapshot(ctx context.Context, docID domain.DocumentID) ([]byte, error)
	Drop(ctx context.Context, docID domain.DocumentID) error
}
