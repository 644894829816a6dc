package core

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Inkroom/internal/domain"
)

var (
	ErrDuplicateRoom = errors.New("room already registered")
	ErrRoomNotFound  = errors.New("room not found")
)

// RoomInfo is a read-only roster projection for the HTTP surface.
type RoomInfo struct {
	Name  domain.DocumentID `json:"name"`
	Users []domain.Member   `json:"users"`
}

// Registry is the process-wide table of live rooms, one per document.
// Reads are concurrent; creation and removal exclude roster iteration.
type Registry struct {
	mu    sync.RWMutex
	rooms map[domain.DocumentID]*Room
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[domain.DocumentID]*Room)}
}

// CreateRoom builds a room with the creator leading defaultTeam and one
// pending member per invite. An invite without a team stays teamless until
// a command assigns one. Invite records that already carry a reply state
// keep it (registry rebuild replays accepted invitations too).
func (reg *Registry) CreateRoom(id domain.DocumentID, defaultTeam domain.TeamName, creator domain.User, invites []domain.Member) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, ok := reg.rooms[id]; ok {
		return nil, ErrDuplicateRoom
	}

	room := NewRoom(id)
	room.members[creator.ID] = &memberState{member: domain.Member{
		UserID: creator.ID,
		Name:   creator.Name,
		Email:  creator.Email,
		Team:   defaultTeam,
		Leader: true,
		Reply:  domain.ReplyCreator,
	}}
	for _, m := range invites {
		if m.Reply == "" {
			m.Reply = domain.ReplyPending
		}
		room.members[m.UserID] = &memberState{member: m}
	}
	room.activeTeam = defaultTeam

	reg.rooms[id] = room
	log.Info().Str("module", "core.registry").Str("doc", string(id)).Int("members", len(room.members)).Msg("room created")
	return room, nil
}

func (reg *Registry) Get(id domain.DocumentID) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	room, ok := reg.rooms[id]
	return room, ok
}

// Remove evicts a room; any still-open sockets are forcibly closed.
func (reg *Registry) Remove(id domain.DocumentID) {
	reg.mu.Lock()
	room, ok := reg.rooms[id]
	if ok {
		delete(reg.rooms, id)
	}
	reg.mu.Unlock()
	if !ok {
		return
	}
	room.CloseAll()
	log.Info().Str("module", "core.registry").Str("doc", string(id)).Msg("room removed")
}

// List snapshots every room's roster.
func (reg *Registry) List() []RoomInfo {
	reg.mu.RLock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, room := range reg.rooms {
		rooms = append(rooms, room)
	}
	reg.mu.RUnlock()

	out := make([]RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, RoomInfo{Name: room.ID(), Users: room.Members()})
	}
	return out
}
