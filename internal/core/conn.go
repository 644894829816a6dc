package core

import "errors"

var ErrBackpressure = errors.New("backpressure")

// PresenceConnection abstracts one client socket. TrySend carries the
// presence framing (JSON text), TrySendBinary the editing-protocol framing.
// The two share the socket but are never conflated. Owned by the adapter;
// the adapter must Close() it. A room holds at most one per user and
// replaces the handle on reconnect.
type PresenceConnection interface {
	TrySend([]byte) error
	TrySendBinary([]byte) error
	Close()
}

// Push type discriminators, wire-compatible with the editor frontend.
const (
	PushStateList    = "userslistWithTeam"
	PushActiveTeam   = "active-team"
	PushBlockTeam    = "block-team"
	PushOnlineStatus = "online-status"
)
