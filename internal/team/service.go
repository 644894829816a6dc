// Package team applies membership-changing commands to a room, keeps the
// persisted invite shadow in sync, and triggers the matching broadcast.
package team

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Inkroom/internal/core"
	"github.com/dkeye/Inkroom/internal/domain"
	"github.com/dkeye/Inkroom/internal/notify"
)

// InviteStore is the slice of the document store the state machine needs.
type InviteStore interface {
	GetDocument(ctx context.Context, id domain.DocumentID) (domain.Document, error)
	UpsertInvite(ctx context.Context, docID domain.DocumentID, m domain.Member) error
	MoveTeamInvites(ctx context.Context, docID domain.DocumentID, oldTeam, newTeam domain.TeamName) error
	DeleteTeamInvites(ctx context.Context, docID domain.DocumentID, team domain.TeamName) error
}

type Service struct {
	registry *core.Registry
	store    InviteStore
	notify   *notify.Service
}

func NewService(registry *core.Registry, store InviteStore, notifier *notify.Service) *Service {
	return &Service{registry: registry, store: store, notify: notifier}
}

// SetActiveTeam marks the team currently allowed to edit and pushes the
// narrow active-team update to every connected member.
func (s *Service) SetActiveTeam(ctx context.Context, docID domain.DocumentID, team domain.TeamName) error {
	room, ok := s.registry.Get(docID)
	if !ok {
		return core.ErrRoomNotFound
	}
	room.Lock()
	defer room.Unlock()
	room.SetActiveTeam(team)
	room.BroadcastActiveTeam()
	return nil
}

func (s *Service) BlockTeam(ctx context.Context, docID domain.DocumentID, team domain.TeamName) error {
	room, ok := s.registry.Get(docID)
	if !ok {
		return core.ErrRoomNotFound
	}
	room.Lock()
	defer room.Unlock()
	room.Block(team)
	room.BroadcastBlockedTeams()
	return nil
}

// UnblockTeam is idempotent: unblocking an already-unblocked team leaves
// the set unchanged and still broadcasts the (identical) result.
func (s *Service) UnblockTeam(ctx context.Context, docID domain.DocumentID, team domain.TeamName) error {
	room, ok := s.registry.Get(docID)
	if !ok {
		return core.ErrRoomNotFound
	}
	room.Lock()
	defer room.Unlock()
	room.Unblock(team)
	room.BroadcastBlockedTeams()
	return nil
}

// PromoteToTeamLeader puts leader on teamName as its leader, invited by
// invitor. An identity not yet on the roster is added to it, mirroring the
// original new-team flow. The invite shadow row is written before the
// broadcast so observers never see live state ahead of the durable one.
func (s *Service) PromoteToTeamLeader(ctx context.Context, docID domain.DocumentID, leader domain.User, teamName domain.TeamName, invitor domain.UserID) error {
	room, ok := s.registry.Get(docID)
	if !ok {
		return core.ErrRoomNotFound
	}
	room.Lock()
	defer room.Unlock()

	member, ok := room.Promote(leader.ID, teamName, invitor)
	if !ok {
		member = *domain.NewMember(leader, teamName, invitor)
		member.Leader = true
		room.UpsertMember(member)
	}
	if err := s.store.UpsertInvite(ctx, docID, member); err != nil {
		log.Error().Err(err).Str("module", "team").Str("doc", string(docID)).Str("user", string(leader.ID)).Msg("persist promoted invite")
	}
	room.BroadcastState()

	doc := s.document(ctx, docID)
	notes := []domain.Notification{
		notify.InvitedYou(member.UserID, s.memberName(room, invitor), doc),
		notify.InvitedByYou(invitor, []string{member.Name}, doc),
	}
	if doc.Creator.ID != "" && doc.Creator.ID != invitor {
		inviter, _ := room.Member(invitor)
		notes = append(notes, notify.InvitedForCreator(doc.Creator.ID, member.Name,
			domain.User{ID: invitor, Name: inviter.Name, Email: inviter.Email}, doc))
	}
	s.notify.Push(ctx, notes...)
	if inviter, ok := room.Member(invitor); ok {
		s.notify.InvitationEmail(domain.User{ID: invitor, Name: inviter.Name, Email: inviter.Email}, member, doc.Name)
	}
	return nil
}

// MergeTeam moves every member of oldTeam onto newTeam; they lose leader
// status. Unknown oldTeam moves nobody but the broadcast still goes out.
func (s *Service) MergeTeam(ctx context.Context, docID domain.DocumentID, oldTeam, newTeam domain.TeamName) error {
	room, ok := s.registry.Get(docID)
	if !ok {
		return core.ErrRoomNotFound
	}
	room.Lock()
	defer room.Unlock()

	moved := room.Merge(oldTeam, newTeam)
	if len(moved) > 0 {
		if err := s.store.MoveTeamInvites(ctx, docID, oldTeam, newTeam); err != nil {
			log.Error().Err(err).Str("module", "team").Str("doc", string(docID)).Str("team", string(oldTeam)).Msg("persist team merge")
		}
	}
	room.BroadcastState()
	return nil
}

// DeleteTeam removes every member of teamName from the room and the invite
// shadow. Each removed member gets one deletion notification; requestedBy
// gets a single aggregate naming everyone removed, and nothing when the
// team matched nobody.
func (s *Service) DeleteTeam(ctx context.Context, docID domain.DocumentID, teamName domain.TeamName, requestedBy domain.UserID) error {
	room, ok := s.registry.Get(docID)
	if !ok {
		return core.ErrRoomNotFound
	}
	room.Lock()
	defer room.Unlock()

	requester, _ := room.Member(requestedBy)
	removed := room.RemoveTeam(teamName)
	if len(removed) > 0 {
		if err := s.store.DeleteTeamInvites(ctx, docID, teamName); err != nil {
			log.Error().Err(err).Str("module", "team").Str("doc", string(docID)).Str("team", string(teamName)).Msg("persist team deletion")
		}
	}
	room.BroadcastState()

	if len(removed) == 0 {
		return nil
	}
	doc := s.document(ctx, docID)
	names := make([]string, 0, len(removed))
	notes := make([]domain.Notification, 0, len(removed)+1)
	for _, m := range removed {
		names = append(names, m.Name)
		if m.UserID == requestedBy {
			continue
		}
		notes = append(notes, notify.DeletedYou(m.UserID, requester.Name, doc))
	}
	notes = append(notes, notify.DeletedByYou(requestedBy, names, doc))
	s.notify.Push(ctx, notes...)
	return nil
}

func (s *Service) document(ctx context.Context, docID domain.DocumentID) domain.Document {
	doc, err := s.store.GetDocument(ctx, docID)
	if err != nil {
		log.Warn().Err(err).Str("module", "team").Str("doc", string(docID)).Msg("load document for notification")
		return domain.Document{ID: docID}
	}
	return doc
}

func (s *Service) memberName(room *core.Room, id domain.UserID) string {
	if m, ok := room.Member(id); ok {
		return m.Name
	}
	return string(id)
}
