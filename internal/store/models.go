package store

import (
	"time"

	"github.com/dkeye/Inkroom/internal/domain"
)

// Document is the persisted document record. Creator identity is
// denormalized so registry rebuild needs no join against a user service.
type Document struct {
	ID           string   `gorm:"primaryKey;size:36"`
	Name         string   `gorm:"size:255;not null"`
	Description  string
	Team         string   `gorm:"size:64"`
	CreatorID    string   `gorm:"size:36;index"`
	CreatorName  string   `gorm:"size:64"`
	CreatorEmail string   `gorm:"size:255"`
	Status       string   `gorm:"size:16;default:editing"`
	Invites      []Invite `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Invite is the durable shadow of one room member. Every membership-changing
// command keeps this row in sync with the in-memory record.
type Invite struct {
	ID         uint   `gorm:"primaryKey"`
	DocumentID string `gorm:"size:36;index:idx_invite_doc_user,priority:1"`
	UserID     string `gorm:"size:36;index:idx_invite_doc_user,priority:2"`
	Name       string `gorm:"size:64"`
	Email      string `gorm:"size:255"`
	Team       string `gorm:"size:64"`
	Leader     bool
	Invitor    string `gorm:"size:36"`
	Reply      string `gorm:"size:16;default:pending"`
	MailStatus bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Notification is one inbox row for one recipient.
type Notification struct {
	ID        uint   `gorm:"primaryKey"`
	To        string `gorm:"size:36;index"`
	Type      string `gorm:"size:64;not null"`
	Status    string `gorm:"size:16;default:unread"`
	Redirect  string `gorm:"size:36"`
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (d Document) toDomain() domain.Document {
	doc := domain.Document{
		ID:          domain.DocumentID(d.ID),
		Name:        d.Name,
		Description: d.Description,
		Team:        domain.TeamName(d.Team),
		Creator:     domain.User{ID: domain.UserID(d.CreatorID), Name: d.CreatorName, Email: d.CreatorEmail},
		Status:      domain.DocumentStatus(d.Status),
	}
	for _, inv := range d.Invites {
		doc.Invites = append(doc.Invites, inv.toDomain())
	}
	return doc
}

func (i Invite) toDomain() domain.Member {
	return domain.Member{
		UserID:     domain.UserID(i.UserID),
		Name:       i.Name,
		Email:      i.Email,
		Team:       domain.TeamName(i.Team),
		Leader:     i.Leader,
		Reply:      domain.ReplyState(i.Reply),
		Invitor:    domain.UserID(i.Invitor),
		MailStatus: i.MailStatus,
	}
}

func inviteRow(docID domain.DocumentID, m domain.Member) Invite {
	return Invite{
		DocumentID: string(docID),
		UserID:     string(m.UserID),
		Name:       m.Name,
		Email:      m.Email,
		Team:       string(m.Team),
		Leader:     m.Leader,
		Invitor:    string(m.Invitor),
		Reply:      string(m.Reply),
		MailStatus: m.MailStatus,
	}
}
