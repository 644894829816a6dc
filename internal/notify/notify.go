// Package notify writes inbox notifications and hands outbound e-mail to
// the background queue. Delivery is fire-and-forget; a failure here never
// fails the command that triggered it.
package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Inkroom/internal/domain"
)

// NotificationStore is the slice of the document store this package needs.
type NotificationStore interface {
	CreateNotifications(ctx context.Context, notes []domain.Notification) error
}

type Service struct {
	store  NotificationStore
	mailer *Mailer
}

func NewService(store NotificationStore, mailer *Mailer) *Service {
	return &Service{store: store, mailer: mailer}
}

// Push writes the given notifications, logging instead of propagating on
// failure.
func (s *Service) Push(ctx context.Context, notes ...domain.Notification) {
	if len(notes) == 0 {
		return
	}
	if err := s.store.CreateNotifications(ctx, notes); err != nil {
		log.Error().Err(err).Str("module", "notify").Int("count", len(notes)).Msg("store notifications")
	}
}

// InvitationEmail enqueues an invitation mail; best effort.
func (s *Service) InvitationEmail(from domain.User, to domain.Member, docName string) {
	if s.mailer == nil {
		return
	}
	if err := s.mailer.EnqueueInvitationEmail(from, to, docName); err != nil {
		log.Error().Err(err).Str("module", "notify").Str("to", to.Email).Msg("enqueue invitation email")
	}
}

// NameSentence renders a short list of names the way the frontend expects:
// "A", "A and B", "A, B and C", "A, B and 2 other clients".
func NameSentence(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	case 3:
		return names[0] + ", " + names[1] + " and " + names[2]
	default:
		return fmt.Sprintf("%s, %s and %d other clients", names[0], names[1], len(names)-2)
	}
}

func plural(n int) string {
	if n == 1 {
		return "was"
	}
	return "were"
}

// DeletedYou tells a removed member who removed them.
func DeletedYou(to domain.UserID, byName string, doc domain.Document) domain.Notification {
	return domain.Notification{
		To:       to,
		Type:     domain.NotifyInviteDelete,
		Redirect: doc.ID,
		Body:     fmt.Sprintf("Deleted: You were deleted by %s. Document: %s", byName, doc.Name),
	}
}

// DeletedByYou aggregates all removed members for the requester.
func DeletedByYou(to domain.UserID, removedNames []string, doc domain.Document) domain.Notification {
	return domain.Notification{
		To:       to,
		Type:     domain.NotifyInviteDelete,
		Redirect: doc.ID,
		Body: fmt.Sprintf("Deleted: %s %s deleted by You. Document: %s",
			NameSentence(removedNames), plural(len(removedNames)), doc.Name),
	}
}

// InvitedYou tells a member who brought them in.
func InvitedYou(to domain.UserID, byName string, doc domain.Document) domain.Notification {
	return domain.Notification{
		To:       to,
		Type:     domain.NotifyInviteReceive,
		Redirect: doc.ID,
		Body:     fmt.Sprintf("Invited: You were received by %s. Document: %s", byName, doc.Name),
	}
}

// InvitedByYou confirms an invitation back to its sender.
func InvitedByYou(to domain.UserID, invitedNames []string, doc domain.Document) domain.Notification {
	return domain.Notification{
		To:       to,
		Type:     domain.NotifyInviteSend,
		Redirect: doc.ID,
		Body: fmt.Sprintf("Invited: %s %s received by You. Document: %s",
			NameSentence(invitedNames), plural(len(invitedNames)), doc.Name),
	}
}

// InvitedForCreator tells the document creator about an invitation sent by
// somebody else.
func InvitedForCreator(to domain.UserID, invitedName string, by domain.User, doc domain.Document) domain.Notification {
	return domain.Notification{
		To:       to,
		Type:     domain.NotifyInviteSend,
		Redirect: doc.ID,
		Body: fmt.Sprintf("Invited: %s was received by %s(%s). Document: %s",
			invitedName, by.Name, by.Email, doc.Name),
	}
}

// InviteReply tells the inviting leader (or the creator) about an accepted
// or rejected invitation.
func InviteReply(to domain.UserID, memberName string, accepted bool, doc domain.Document) domain.Notification {
	verb, label := "rejected", "Rejected"
	typ := domain.NotifyInviteReject
	if accepted {
		verb, label = "accepted", "Accepted"
		typ = domain.NotifyInviteAccept
	}
	return domain.Notification{
		To:       to,
		Type:     typ,
		Redirect: doc.ID,
		Body:     fmt.Sprintf("%s: %s %s invitation. Document: %s", label, memberName, verb, doc.Name),
	}
}
