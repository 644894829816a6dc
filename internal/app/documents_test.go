package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Inkroom/internal/core"
	"github.com/dkeye/Inkroom/internal/domain"
	"github.com/dkeye/Inkroom/internal/notify"
)

// memStore is an in-memory DocumentStore plus the notification sink.
type memStore struct {
	docs  map[domain.DocumentID]domain.Document
	notes []domain.Notification
}

func newMemStore() *memStore {
	return &memStore{docs: make(map[domain.DocumentID]domain.Document)}
}

func (s *memStore) CreateDocument(ctx context.Context, doc domain.Document) error {
	s.docs[doc.ID] = doc
	return nil
}

func (s *memStore) GetDocument(ctx context.Context, id domain.DocumentID) (domain.Document, error) {
	doc, ok := s.docs[id]
	if !ok {
		return domain.Document{}, errors.New("record not found")
	}
	return doc, nil
}

func (s *memStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	out := make([]domain.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		out = append(out, doc)
	}
	return out, nil
}

func (s *memStore) UpdateDocumentMeta(ctx context.Context, id domain.DocumentID, name, description string) error {
	doc, ok := s.docs[id]
	if !ok {
		return errors.New("record not found")
	}
	doc.Name = name
	doc.Description = description
	s.docs[id] = doc
	return nil
}

func (s *memStore) DeleteDocument(ctx context.Context, id domain.DocumentID) error {
	delete(s.docs, id)
	return nil
}

func (s *memStore) ReplaceInvites(ctx context.Context, docID domain.DocumentID, invites []domain.Member) error {
	doc, ok := s.docs[docID]
	if !ok {
		return errors.New("record not found")
	}
	doc.Invites = invites
	s.docs[docID] = doc
	return nil
}

func (s *memStore) SetInviteReply(ctx context.Context, docID domain.DocumentID, userID domain.UserID, reply domain.ReplyState) error {
	doc := s.docs[docID]
	for i := range doc.Invites {
		if doc.Invites[i].UserID == userID {
			doc.Invites[i].Reply = reply
		}
	}
	s.docs[docID] = doc
	return nil
}

func (s *memStore) DeleteInvite(ctx context.Context, docID domain.DocumentID, userID domain.UserID) error {
	doc := s.docs[docID]
	kept := doc.Invites[:0]
	for _, m := range doc.Invites {
		if m.UserID != userID {
			kept = append(kept, m)
		}
	}
	doc.Invites = kept
	s.docs[docID] = doc
	return nil
}

func (s *memStore) CreateNotifications(ctx context.Context, notes []domain.Notification) error {
	s.notes = append(s.notes, notes...)
	return nil
}

func (s *memStore) notesFor(id domain.UserID) []domain.Notification {
	var out []domain.Notification
	for _, n := range s.notes {
		if n.To == id {
			out = append(out, n)
		}
	}
	return out
}

type droppedSessions struct {
	ids []domain.DocumentID
}

func (d *droppedSessions) Drop(ctx context.Context, docID domain.DocumentID) {
	d.ids = append(d.ids, docID)
}

func docFixture(t *testing.T) (*DocumentService, *memStore, *core.Registry, *droppedSessions) {
	t.Helper()
	store := newMemStore()
	registry := core.NewRegistry()
	sessions := &droppedSessions{}
	svc := NewDocumentService(store, registry, notify.NewService(store, nil), sessions)
	return svc, store, registry, sessions
}

func docCreator() domain.User {
	return domain.User{ID: "creator", Name: "Cora", Email: "cora@example.com"}
}

func TestCreateAllocatesRoomAndNotifies(t *testing.T) {
	svc, store, registry, _ := docFixture(t)
	ctx := context.Background()

	doc, err := svc.Create(ctx, docCreator(), "Launch Plan", "Q3 launch", "authoring", []domain.Member{
		{UserID: "u1", Name: "Uma", Email: "uma@example.com"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, domain.DocumentEditing, doc.Status)

	stored, err := store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, stored.Invites, 1)
	// Invitees stay teamless until a team command places them.
	assert.Equal(t, domain.TeamName(""), stored.Invites[0].Team)
	assert.Equal(t, domain.ReplyPending, stored.Invites[0].Reply)
	assert.Equal(t, domain.UserID("creator"), stored.Invites[0].Invitor)

	room, ok := registry.Get(doc.ID)
	require.True(t, ok)
	assert.Equal(t, 2, room.MemberCount())

	assert.Len(t, store.notesFor("u1"), 1)
	assert.Len(t, store.notesFor("creator"), 1)
}

func TestCreateWithoutInvitesNotifiesNobody(t *testing.T) {
	svc, store, _, _ := docFixture(t)

	_, err := svc.Create(context.Background(), docCreator(), "Solo", "", "authoring", nil)
	require.NoError(t, err)
	assert.Empty(t, store.notes)
}

func TestRehydrateRebuildsRegistry(t *testing.T) {
	svc, store, registry, _ := docFixture(t)
	ctx := context.Background()
	store.docs["doc-1"] = domain.Document{
		ID: "doc-1", Name: "Launch Plan", Team: "authoring", Creator: docCreator(),
		Invites: []domain.Member{{UserID: "u1", Name: "Uma", Team: "design", Reply: domain.ReplyAccept}},
	}

	require.NoError(t, svc.Rehydrate(ctx))

	room, ok := registry.Get("doc-1")
	require.True(t, ok)
	assert.Equal(t, 2, room.MemberCount())

	// Replayed invite keeps its recorded team and reply.
	m, ok := room.Member("u1")
	require.True(t, ok)
	assert.Equal(t, domain.TeamName("design"), m.Team)
	assert.Equal(t, domain.ReplyAccept, m.Reply)
}

func TestListMine(t *testing.T) {
	svc, store, _, _ := docFixture(t)
	ctx := context.Background()
	store.docs["doc-1"] = domain.Document{ID: "doc-1", Creator: docCreator()}
	store.docs["doc-2"] = domain.Document{
		ID: "doc-2", Creator: domain.User{ID: "other"},
		Invites: []domain.Member{{UserID: "creator"}},
	}
	store.docs["doc-3"] = domain.Document{ID: "doc-3", Creator: domain.User{ID: "other"}}

	mine, err := svc.ListMine(ctx, "creator")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	none, err := svc.ListMine(ctx, "stranger")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUpdateReconcilesRoster(t *testing.T) {
	svc, _, registry, _ := docFixture(t)
	ctx := context.Background()

	doc, err := svc.Create(ctx, docCreator(), "Launch Plan", "", "authoring", []domain.Member{
		{UserID: "u1", Name: "Uma", Email: "uma@example.com"},
		{UserID: "u2", Name: "Ugo", Email: "ugo@example.com"},
	})
	require.NoError(t, err)

	// Keep u1, drop u2, add u3.
	err = svc.Update(ctx, doc.ID, "Launch Plan v2", "revised", []domain.Member{
		{UserID: "u1", Name: "Uma", Team: "authoring", Reply: domain.ReplyAccept},
		{UserID: "u3", Name: "Nia", Team: "authoring", Reply: domain.ReplyPending},
	})
	require.NoError(t, err)

	room, ok := registry.Get(doc.ID)
	require.True(t, ok)
	_, ok = room.Member("u2")
	assert.False(t, ok)
	_, ok = room.Member("u3")
	assert.True(t, ok)
	// The creator survives roster replacement.
	_, ok = room.Member("creator")
	assert.True(t, ok)

	updated, err := svc.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Launch Plan v2", updated.Name)
	assert.Len(t, updated.Invites, 2)
}

func TestDeleteTearsEverythingDown(t *testing.T) {
	svc, _, registry, sessions := docFixture(t)
	ctx := context.Background()

	doc, err := svc.Create(ctx, docCreator(), "Launch Plan", "", "authoring", nil)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, doc.ID))
	_, ok := registry.Get(doc.ID)
	assert.False(t, ok)
	assert.Equal(t, []domain.DocumentID{doc.ID}, sessions.ids)

	_, err = svc.Get(ctx, doc.ID)
	assert.Error(t, err)
}

func TestInviteReplyAccept(t *testing.T) {
	svc, store, registry, _ := docFixture(t)
	ctx := context.Background()

	doc, err := svc.Create(ctx, docCreator(), "Launch Plan", "", "authoring", []domain.Member{
		{UserID: "u1", Name: "stale-name", Email: "stale@example.com"},
	})
	require.NoError(t, err)
	store.notes = nil

	err = svc.HandleInviteReply(ctx, doc.ID, domain.User{ID: "u1", Name: "Uma", Email: "uma@example.com"}, true)
	require.NoError(t, err)

	stored, err := store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReplyAccept, stored.Invites[0].Reply)

	// The live record carries the refreshed identity snapshot.
	room, _ := registry.Get(doc.ID)
	m, ok := room.Member("u1")
	require.True(t, ok)
	assert.Equal(t, "Uma", m.Name)
	assert.Equal(t, "uma@example.com", m.Email)
	assert.Equal(t, domain.ReplyAccept, m.Reply)

	notes := store.notesFor("creator")
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Body, "Uma accepted invitation")
}

func TestInviteReplyReject(t *testing.T) {
	svc, store, registry, _ := docFixture(t)
	ctx := context.Background()

	doc, err := svc.Create(ctx, docCreator(), "Launch Plan", "", "authoring", []domain.Member{
		{UserID: "u1", Name: "Uma", Email: "uma@example.com"},
	})
	require.NoError(t, err)
	store.notes = nil

	err = svc.HandleInviteReply(ctx, doc.ID, domain.User{ID: "u1", Name: "Uma"}, false)
	require.NoError(t, err)

	stored, err := store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Invites)

	room, _ := registry.Get(doc.ID)
	_, ok := room.Member("u1")
	assert.False(t, ok)

	notes := store.notesFor("creator")
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Body, "Uma rejected invitation")
}

func TestInviteReplyTwiceFails(t *testing.T) {
	svc, _, _, _ := docFixture(t)
	ctx := context.Background()

	doc, err := svc.Create(ctx, docCreator(), "Launch Plan", "", "authoring", []domain.Member{
		{UserID: "u1", Name: "Uma", Email: "uma@example.com"},
	})
	require.NoError(t, err)

	require.NoError(t, svc.HandleInviteReply(ctx, doc.ID, domain.User{ID: "u1", Name: "Uma"}, true))
	assert.Error(t, svc.HandleInviteReply(ctx, doc.ID, domain.User{ID: "u1", Name: "Uma"}, true))

	// A user who was never invited cannot reply either.
	assert.Error(t, svc.HandleInviteReply(ctx, doc.ID, domain.User{ID: "stranger"}, true))
}
