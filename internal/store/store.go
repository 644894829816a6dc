package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dkeye/Inkroom/internal/domain"
)

var ErrNotFound = errors.New("record not found")

// Store is the CRUD boundary against the document database.
type Store struct {
	db *gorm.DB
}

func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	if err := db.AutoMigrate(&Document{}, &Invite{}, &Notification{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) CreateDocument(ctx context.Context, doc domain.Document) error {
	row := Document{
		ID:           string(doc.ID),
		Name:         doc.Name,
		Description:  doc.Description,
		Team:         string(doc.Team),
		CreatorID:    string(doc.Creator.ID),
		CreatorName:  doc.Creator.Name,
		CreatorEmail: doc.Creator.Email,
		Status:       string(domain.DocumentEditing),
	}
	for _, m := range doc.Invites {
		row.Invites = append(row.Invites, inviteRow(doc.ID, m))
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *Store) GetDocument(ctx context.Context, id domain.DocumentID) (domain.Document, error) {
	var row Document
	err := s.db.WithContext(ctx).Preload("Invites").First(&row, "id = ?", string(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Document{}, ErrNotFound
	}
	if err != nil {
		return domain.Document{}, err
	}
	return row.toDomain(), nil
}

func (s *Store) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	var rows []Document
	if err := s.db.WithContext(ctx).Preload("Invites").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Document, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (s *Store) UpdateDocumentMeta(ctx context.Context, id domain.DocumentID, name, description string) error {
	return s.db.WithContext(ctx).Model(&Document{}).Where("id = ?", string(id)).
		Updates(map[string]any{"name": name, "description": description}).Error
}

func (s *Store) DeleteDocument(ctx context.Context, id domain.DocumentID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&Invite{}, "document_id = ?", string(id)).Error; err != nil {
			return err
		}
		return tx.Delete(&Document{}, "id = ?", string(id)).Error
	})
}

// UpsertInvite writes one member's shadow row, inserting on first sight.
func (s *Store) UpsertInvite(ctx context.Context, docID domain.DocumentID, m domain.Member) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing Invite
		err := tx.First(&existing, "document_id = ? AND user_id = ?", string(docID), string(m.UserID)).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			row := inviteRow(docID, m)
			return tx.Create(&row).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&existing).Updates(map[string]any{
			"name":        m.Name,
			"email":       m.Email,
			"team":        string(m.Team),
			"leader":      m.Leader,
			"invitor":     string(m.Invitor),
			"reply":       string(m.Reply),
			"mail_status": m.MailStatus,
		}).Error
	})
}

// ReplaceInvites swaps a document's entire invite list in one transaction.
func (s *Store) ReplaceInvites(ctx context.Context, docID domain.DocumentID, invites []domain.Member) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&Invite{}, "document_id = ?", string(docID)).Error; err != nil {
			return err
		}
		if len(invites) == 0 {
			return nil
		}
		rows := make([]Invite, 0, len(invites))
		for _, m := range invites {
			rows = append(rows, inviteRow(docID, m))
		}
		return tx.Create(&rows).Error
	})
}

// MoveTeamInvites mirrors a team merge: members of oldTeam move to newTeam
// and lose leadership.
func (s *Store) MoveTeamInvites(ctx context.Context, docID domain.DocumentID, oldTeam, newTeam domain.TeamName) error {
	return s.db.WithContext(ctx).Model(&Invite{}).
		Where("document_id = ? AND team = ?", string(docID), string(oldTeam)).
		Updates(map[string]any{"team": string(newTeam), "leader": false}).Error
}

// DeleteTeamInvites mirrors a team deletion.
func (s *Store) DeleteTeamInvites(ctx context.Context, docID domain.DocumentID, team domain.TeamName) error {
	return s.db.WithContext(ctx).
		Delete(&Invite{}, "document_id = ? AND team = ?", string(docID), string(team)).Error
}

func (s *Store) SetInviteReply(ctx context.Context, docID domain.DocumentID, userID domain.UserID, reply domain.ReplyState) error {
	return s.db.WithContext(ctx).Model(&Invite{}).
		Where("document_id = ? AND user_id = ?", string(docID), string(userID)).
		Update("reply", string(reply)).Error
}

func (s *Store) DeleteInvite(ctx context.Context, docID domain.DocumentID, userID domain.UserID) error {
	return s.db.WithContext(ctx).
		Delete(&Invite{}, "document_id = ? AND user_id = ?", string(docID), string(userID)).Error
}

func (s *Store) CreateNotifications(ctx context.Context, notes []domain.Notification) error {
	if len(notes) == 0 {
		return nil
	}
	rows := make([]Notification, 0, len(notes))
	for _, n := range notes {
		status := n.Status
		if status == "" {
			status = domain.NotificationUnread
		}
		rows = append(rows, Notification{
			To:       string(n.To),
			Type:     string(n.Type),
			Status:   string(status),
			Redirect: string(n.Redirect),
			Body:     n.Body,
		})
	}
	return s.db.WithContext(ctx).Create(&rows).Error
}

// NotificationsFor lists a recipient's inbox, newest first.
func (s *Store) NotificationsFor(ctx context.Context, to domain.UserID) ([]domain.Notification, error) {
	var rows []Notification
	if err := s.db.WithContext(ctx).Where("`to` = ?", string(to)).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Notification, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.Notification{
			To:       domain.UserID(row.To),
			Type:     domain.NotificationType(row.Type),
			Status:   domain.NotificationStatus(row.Status),
			Redirect: domain.DocumentID(row.Redirect),
			Body:     row.Body,
		})
	}
	return out, nil
}
