package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Inkroom/internal/core"
	"github.com/dkeye/Inkroom/internal/domain"
)

// Snapshotter lets the engine serialize current document state for the
// periodic store hook.
type Snapshotter interface {
	EncodeSnapshot(docID domain.DocumentID) ([]byte, error)
}

// Manager owns one Session per open document and drives the engine's
// load/store hooks plus the watchdog review loop.
type Manager struct {
	ctx      context.Context
	registry *core.Registry
	blobs    BlobStore
	policy   EditPolicy

	snapshotEvery time.Duration
	reviewEvery   time.Duration

	mu       sync.Mutex
	sessions map[domain.DocumentID]*Session
}

func NewManager(ctx context.Context, registry *core.Registry, blobs BlobStore, policy EditPolicy, snapshotEvery, reviewEvery time.Duration) *Manager {
	if snapshotEvery <= 0 {
		snapshotEvery = 30 * time.Second
	}
	if reviewEvery <= 0 {
		reviewEvery = 10 * time.Second
	}
	return &Manager{
		ctx:           ctx,
		registry:      registry,
		blobs:         blobs,
		policy:        policy,
		snapshotEvery: snapshotEvery,
		reviewEvery:   reviewEvery,
		sessions:      make(map[domain.DocumentID]*Session),
	}
}

// Open returns the document's session, creating it on first join. The
// load hook replays the persisted snapshot and update stream into the
// engine through onLoad.
func (m *Manager) Open(docID domain.DocumentID, history History, snap Snapshotter, onLoad func(snapshot []byte, updates [][]byte) error) (*Session, error) {
	m.mu.Lock()
	if sess, ok := m.sessions[docID]; ok {
		m.mu.Unlock()
		return sess, nil
	}
	ctx, cancel := context.WithCancel(m.ctx)
	sess := newSession(docID, history, cancel)
	m.sessions[docID] = sess
	m.mu.Unlock()

	snapshot, err := m.blobs.LoadSnapshot(ctx, docID)
	if err != nil {
		log.Error().Err(err).Str("module", "session").Str("doc", string(docID)).Msg("load snapshot")
	}
	updates, err := m.blobs.LoadUpdates(ctx, docID)
	if err != nil {
		log.Error().Err(err).Str("module", "session").Str("doc", string(docID)).Msg("load updates")
	}
	if onLoad != nil {
		if err := onLoad(snapshot, updates); err != nil {
			m.mu.Lock()
			delete(m.sessions, docID)
			m.mu.Unlock()
			cancel()
			return nil, err
		}
	}

	go m.storeLoop(ctx, sess, snap)
	go m.reviewLoop(ctx, sess)
	log.Info().Str("module", "session").Str("doc", string(docID)).Msg("session opened")
	return sess, nil
}

// OnUpdate persists one opaque update blob and flags the session.
func (m *Manager) OnUpdate(ctx context.Context, docID domain.DocumentID, editor domain.UserID, update []byte) {
	m.mu.Lock()
	sess, ok := m.sessions[docID]
	m.mu.Unlock()
	if !ok {
		return
	}
	if err := m.blobs.AppendUpdate(ctx, docID, update); err != nil {
		log.Error().Err(err).Str("module", "session").Str("doc", string(docID)).Msg("append update")
	}
	sess.ObserveEdit(editor)
}

// Close stops the session's loops. Blobs stay put; Drop removes them when
// the document itself is deleted.
func (m *Manager) Close(docID domain.DocumentID) {
	m.mu.Lock()
	sess, ok := m.sessions[docID]
	if ok {
		delete(m.sessions, docID)
	}
	m.mu.Unlock()
	if ok {
		sess.stop()
		log.Info().Str("module", "session").Str("doc", string(docID)).Msg("session closed")
	}
}

// Drop tears the session down and removes its persisted blobs.
func (m *Manager) Drop(ctx context.Context, docID domain.DocumentID) {
	m.Close(docID)
	if err := m.blobs.Drop(ctx, docID); err != nil {
		log.Error().Err(err).Str("module", "session").Str("doc", string(docID)).Msg("drop blobs")
	}
}

func (m *Manager) storeLoop(ctx context.Context, sess *Session, snap Snapshotter) {
	if snap == nil {
		return
	}
	ticker := time.NewTicker(m.snapshotEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			data, err := snap.EncodeSnapshot(sess.docID)
			if err != nil {
				log.Error().Err(err).Str("module", "session").Str("doc", string(sess.docID)).Msg("encode snapshot")
				continue
			}
			if err := m.blobs.SaveSnapshot(ctx, sess.docID, data); err != nil {
				log.Error().Err(err).Str("module", "session").Str("doc", string(sess.docID)).Msg("save snapshot")
			}
		}
	}
}

func (m *Manager) reviewLoop(ctx context.Context, sess *Session) {
	ticker := time.NewTicker(m.reviewEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			room, _ := m.registry.Get(sess.docID)
			sess.Review(func(editor domain.UserID) bool {
				return m.policy.Authorized(room, editor)
			})
		}
	}
}
