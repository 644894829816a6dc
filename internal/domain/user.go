// Package domain contains entities without logic, just meta-data.
package domain

import "errors"

const (
	MaxUserIDLen = 36
	MaxNameLen   = 64
)

var (
	ErrIDEmpty     = errors.New("user id empty")
	ErrIDTooLong   = errors.New("user id too long")
	ErrNameTooLong = errors.New("name too long")
	ErrNameEmpty   = errors.New("name empty")
)

type (
	UserID     string
	DocumentID string
	TeamName   string
)

type User struct {
	ID    UserID `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewUser validates an identity decoded at a boundary (token claims,
// request bodies) before it enters the domain.
func NewUser(id UserID, name, email string) (*User, error) {
	if len(id) == 0 {
		return nil, ErrIDEmpty
	}
	if len(id) > MaxUserIDLen {
		return nil, ErrIDTooLong
	}
	if len(name) == 0 {
		return nil, ErrNameEmpty
	}
	if len(name) > MaxNameLen {
		return nil, ErrNameTooLong
	}
	return &User{ID: id, Name: name, Email: email}, nil
}
