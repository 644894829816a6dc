// Package app orchestrates document lifecycle across the store, the room
// registry and the notification side channel.
package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Inkroom/internal/core"
	"github.com/dkeye/Inkroom/internal/domain"
	"github.com/dkeye/Inkroom/internal/notify"
)

// DocumentStore is the slice of the store this service needs.
type DocumentStore interface {
	CreateDocument(ctx context.Context, doc domain.Document) error
	GetDocument(ctx context.Context, id domain.DocumentID) (domain.Document, error)
	ListDocuments(ctx context.Context) ([]domain.Document, error)
	UpdateDocumentMeta(ctx context.Context, id domain.DocumentID, name, description string) error
	DeleteDocument(ctx context.Context, id domain.DocumentID) error
	ReplaceInvites(ctx context.Context, docID domain.DocumentID, invites []domain.Member) error
	SetInviteReply(ctx context.Context, docID domain.DocumentID, userID domain.UserID, reply domain.ReplyState) error
	DeleteInvite(ctx context.Context, docID domain.DocumentID, userID domain.UserID) error
}

// SessionCloser tears down the CRDT session of a deleted document.
type SessionCloser interface {
	Drop(ctx context.Context, docID domain.DocumentID)
}

type DocumentService struct {
	store    DocumentStore
	registry *core.Registry
	notify   *notify.Service
	sessions SessionCloser
}

func NewDocumentService(store DocumentStore, registry *core.Registry, notifier *notify.Service, sessions SessionCloser) *DocumentService {
	return &DocumentService{store: store, registry: registry, notify: notifier, sessions: sessions}
}

// Rehydrate rebuilds the room registry from persisted documents; called
// once at process start.
func (s *DocumentService) Rehydrate(ctx context.Context) error {
	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}
	for _, doc := range docs {
		if _, err := s.registry.CreateRoom(doc.ID, doc.Team, doc.Creator, doc.Invites); err != nil {
			log.Error().Err(err).Str("module", "app.documents").Str("doc", string(doc.ID)).Msg("rehydrate room")
		}
	}
	log.Info().Str("module", "app.documents").Int("count", len(docs)).Msg("registry rehydrated")
	return nil
}

// Create persists a new document and allocates its room. Every invitee
// gets an inbox notification and an invitation mail.
func (s *DocumentService) Create(ctx context.Context, creator domain.User, name, description string, defaultTeam domain.TeamName, invites []domain.Member) (domain.Document, error) {
	doc := domain.Document{
		ID:          domain.DocumentID(uuid.NewString()),
		Name:        name,
		Description: description,
		Team:        defaultTeam,
		Creator:     creator,
		Status:      domain.DocumentEditing,
	}
	for _, m := range invites {
		if m.Reply == "" {
			m.Reply = domain.ReplyPending
		}
		m.Invitor = creator.ID
		doc.Invites = append(doc.Invites, m)
	}

	if err := s.store.CreateDocument(ctx, doc); err != nil {
		return domain.Document{}, fmt.Errorf("persist document: %w", err)
	}
	if _, err := s.registry.CreateRoom(doc.ID, defaultTeam, creator, doc.Invites); err != nil {
		return domain.Document{}, fmt.Errorf("allocate room: %w", err)
	}

	if len(doc.Invites) > 0 {
		notes := make([]domain.Notification, 0, len(doc.Invites)+1)
		names := make([]string, 0, len(doc.Invites))
		for _, m := range doc.Invites {
			names = append(names, m.Name)
			notes = append(notes, notify.InvitedYou(m.UserID, creator.Name, doc))
			s.notify.InvitationEmail(creator, m, doc.Name)
		}
		notes = append(notes, notify.InvitedByYou(creator.ID, names, doc))
		s.notify.Push(ctx, notes...)
	}
	return doc, nil
}

func (s *DocumentService) Get(ctx context.Context, id domain.DocumentID) (domain.Document, error) {
	return s.store.GetDocument(ctx, id)
}

func (s *DocumentService) List(ctx context.Context) ([]domain.Document, error) {
	return s.store.ListDocuments(ctx)
}

// ListMine filters to documents the user created or is invited to.
func (s *DocumentService) ListMine(ctx context.Context, userID domain.UserID) ([]domain.Document, error) {
	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.Document
	for _, doc := range docs {
		if doc.Creator.ID == userID {
			out = append(out, doc)
			continue
		}
		for _, m := range doc.Invites {
			if m.UserID == userID {
				out = append(out, doc)
				break
			}
		}
	}
	return out, nil
}

// Update refreshes the document's metadata and invite list, mirrors the
// roster into the live room and broadcasts the result.
func (s *DocumentService) Update(ctx context.Context, id domain.DocumentID, name, description string, invites []domain.Member) error {
	if err := s.store.UpdateDocumentMeta(ctx, id, name, description); err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if err := s.store.ReplaceInvites(ctx, id, invites); err != nil {
		return fmt.Errorf("replace invites: %w", err)
	}

	room, ok := s.registry.Get(id)
	if !ok {
		return nil
	}
	room.Lock()
	defer room.Unlock()
	keep := make(map[domain.UserID]bool, len(invites))
	for _, m := range invites {
		keep[m.UserID] = true
		room.UpsertMember(m)
	}
	for _, m := range room.Members() {
		if m.Reply == domain.ReplyCreator || keep[m.UserID] {
			continue
		}
		room.RemoveMember(m.UserID)
	}
	room.BroadcastState()
	return nil
}

// Delete evicts the room (closing its sockets), removes the persisted
// record and tears down the CRDT session.
func (s *DocumentService) Delete(ctx context.Context, id domain.DocumentID) error {
	if err := s.store.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	s.registry.Remove(id)
	if s.sessions != nil {
		s.sessions.Drop(ctx, id)
	}
	return nil
}

// HandleInviteReply applies an invitee's accept or reject. Accepting
// refreshes the identity snapshot on the member record; rejecting removes
// the invite entirely. The inviting leader (or the creator) is notified.
func (s *DocumentService) HandleInviteReply(ctx context.Context, id domain.DocumentID, user domain.User, accept bool) error {
	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	var invite *domain.Member
	for i := range doc.Invites {
		if doc.Invites[i].UserID == user.ID {
			invite = &doc.Invites[i]
			break
		}
	}
	if invite == nil || invite.Reply != domain.ReplyPending {
		return fmt.Errorf("no pending invite for %s", user.ID)
	}

	if accept {
		if err := s.store.SetInviteReply(ctx, id, user.ID, domain.ReplyAccept); err != nil {
			return err
		}
	} else {
		if err := s.store.DeleteInvite(ctx, id, user.ID); err != nil {
			return err
		}
	}

	if room, ok := s.registry.Get(id); ok {
		room.Lock()
		if accept {
			m := *invite
			m.Name = user.Name
			m.Email = user.Email
			m.Reply = domain.ReplyAccept
			room.UpsertMember(m)
		} else {
			room.RemoveMember(user.ID)
		}
		room.BroadcastState()
		room.Unlock()
	}

	recipient := invite.Invitor
	if recipient == "" {
		recipient = doc.Creator.ID
	}
	s.notify.Push(ctx, notify.InviteReply(recipient, user.Name, accept, doc))
	return nil
}
