package domain

type DocumentStatus string

const (
	DocumentEditing   DocumentStatus = "editing"
	DocumentCompleted DocumentStatus = "completed"
)

type Document struct {
	ID          DocumentID
	Name        string
	Description string
	Team        TeamName
	Creator     User
	Status      DocumentStatus
	Invites     []Member
}
