package auth

import (
	"errors"
	"fmt"

	"github.com/dkeye/Inkroom/internal/core"
	"github.com/dkeye/Inkroom/internal/domain"
)

var (
	ErrInvalidRequest       = errors.New("invalid request")
	ErrDocumentNotFound     = errors.New("document not found")
	ErrAuthenticationFailed = errors.New("authentication failed")
)

// Authorizer gates admission of realtime connections into a room. A failed
// authorization means "close the socket", never a process error.
type Authorizer struct {
	registry *core.Registry
	verifier *TokenVerifier
}

func NewAuthorizer(registry *core.Registry, verifier *TokenVerifier) *Authorizer {
	return &Authorizer{registry: registry, verifier: verifier}
}

// Authorize admits credential into the room for docID. Order matters:
// request shape, then room existence, then credential.
func (a *Authorizer) Authorize(docID domain.DocumentID, credential string) (Identity, error) {
	if docID == "" {
		return Identity{}, ErrInvalidRequest
	}
	if _, ok := a.registry.Get(docID); !ok {
		return Identity{}, ErrDocumentNotFound
	}
	identity, err := a.verifier.Verify(credential)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}
	return identity, nil
}
