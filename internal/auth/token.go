// Package auth validates the bearer credential carried by realtime and
// HTTP requests. Credential issuance lives elsewhere; this side only
// verifies and decodes.
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v4"

	"github.com/dkeye/Inkroom/internal/domain"
)

var ErrInvalidToken = errors.New("invalid token")

// Identity is the stable user identity decoded from a verified credential.
type Identity struct {
	UserID domain.UserID
	Name   string
	Email  string
}

// TokenVerifier checks an HS256 bearer token and yields the identity it
// carries.
type TokenVerifier struct {
	secret []byte
}

func NewTokenVerifier(secret string) (*TokenVerifier, error) {
	if secret == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	return &TokenVerifier{secret: []byte(secret)}, nil
}

func (v *TokenVerifier) Verify(tokenStr string) (Identity, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	// The issuer nests the identity under a "user" claim.
	user, ok := claims["user"].(map[string]any)
	if !ok {
		return Identity{}, fmt.Errorf("%w: missing user claim", ErrInvalidToken)
	}
	id, _ := user["_id"].(string)
	name, _ := user["name"].(string)
	email, _ := user["email"].(string)
	u, err := domain.NewUser(domain.UserID(id), name, email)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return Identity{UserID: u.ID, Name: u.Name, Email: u.Email}, nil
}
