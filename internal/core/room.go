package core

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Inkroom/internal/domain"
)

var ErrNotMember = errors.New("not a room member")

// memberState pairs the membership record with its live socket, if any.
type memberState struct {
	member domain.Member
	conn   PresenceConnection
}

// Room is the in-memory presence/team state for one document. cmd is the
// single-writer lock: a command (mutation plus its broadcast) holds it end
// to end, so two commands against the same room never interleave. mu guards
// the state itself and lets read-only projections run concurrently. Rooms
// lock independently of each other.
type Room struct {
	id domain.DocumentID

	cmd        sync.Mutex
	mu         sync.RWMutex
	activeTeam domain.TeamName
	blocked    map[domain.TeamName]struct{}
	members    map[domain.UserID]*memberState
}

func NewRoom(id domain.DocumentID) *Room {
	return &Room{
		id:      id,
		blocked: make(map[domain.TeamName]struct{}),
		members: make(map[domain.UserID]*memberState),
	}
}

func (r *Room) ID() domain.DocumentID { return r.id }

// Lock takes the room's command lock. Every command against the room runs
// between Lock and Unlock; connection events (Attach, Detach) take it
// internally.
func (r *Room) Lock() { r.cmd.Lock() }

func (r *Room) Unlock() { r.cmd.Unlock() }

func (r *Room) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// Member returns a copy of one membership record.
func (r *Room) Member(id domain.UserID) (domain.Member, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ms, ok := r.members[id]
	if !ok {
		return domain.Member{}, false
	}
	return ms.member, true
}

// Members returns a copy of every membership record.
func (r *Room) Members() []domain.Member {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Member, 0, len(r.members))
	for _, ms := range r.members {
		out = append(out, ms.member)
	}
	return out
}

func (r *Room) ActiveTeam() domain.TeamName {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeTeam
}

func (r *Room) BlockedTeams() []domain.TeamName {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.blockedList()
}

// UpsertMember inserts or refreshes a membership record. The live
// connection, if any, survives a refresh.
func (r *Room) UpsertMember(m domain.Member) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ms, ok := r.members[m.UserID]; ok {
		ms.member = m
		return
	}
	r.members[m.UserID] = &memberState{member: m}
}

// RemoveMember drops a member and returns its record. The member's socket,
// if open, is closed after the lock is released.
func (r *Room) RemoveMember(id domain.UserID) (domain.Member, bool) {
	r.mu.Lock()
	ms, ok := r.members[id]
	if ok {
		delete(r.members, id)
	}
	r.mu.Unlock()
	if !ok {
		return domain.Member{}, false
	}
	if ms.conn != nil {
		ms.conn.Close()
	}
	return ms.member, true
}

// Attach admits a connection for an existing member, replacing any previous
// socket. The replaced socket is closed so the (N-1)th connect never stays
// live. Returns ErrNotMember for identities outside the roster.
func (r *Room) Attach(id domain.UserID, conn PresenceConnection) error {
	r.cmd.Lock()
	defer r.cmd.Unlock()

	r.mu.Lock()
	ms, ok := r.members[id]
	if !ok {
		r.mu.Unlock()
		return ErrNotMember
	}
	prev := ms.conn
	ms.conn = conn
	r.mu.Unlock()

	if prev != nil {
		prev.Close()
		log.Info().Str("module", "core.room").Str("doc", string(r.id)).Str("user", string(id)).Msg("replaced live connection")
	}
	r.UnicastState(id)
	r.notifyOnline(id, true)
	return nil
}

// Detach clears the live connection, but only when conn is still the handle
// recorded for the member. A reconnect that already replaced the socket is
// left untouched.
func (r *Room) Detach(id domain.UserID, conn PresenceConnection) {
	r.cmd.Lock()
	defer r.cmd.Unlock()

	r.mu.Lock()
	ms, ok := r.members[id]
	if !ok || ms.conn != conn {
		r.mu.Unlock()
		return
	}
	ms.conn = nil
	r.mu.Unlock()
	r.notifyOnline(id, false)
}

// CloseAll force-closes every live socket; used on room eviction.
func (r *Room) CloseAll() {
	r.cmd.Lock()
	defer r.cmd.Unlock()

	r.mu.Lock()
	conns := make([]PresenceConnection, 0, len(r.members))
	for _, ms := range r.members {
		if ms.conn != nil {
			conns = append(conns, ms.conn)
			ms.conn = nil
		}
	}
	r.mu.Unlock()
	for _, c := range conns {
		c.Close()
	}
}

// SetActiveTeam records the team currently allowed to edit. Empty means
// unrestricted.
func (r *Room) SetActiveTeam(team domain.TeamName) {
	r.mu.Lock()
	r.activeTeam = team
	r.mu.Unlock()
}

func (r *Room) Block(team domain.TeamName) {
	r.mu.Lock()
	r.blocked[team] = struct{}{}
	r.mu.Unlock()
}

func (r *Room) Unblock(team domain.TeamName) {
	r.mu.Lock()
	delete(r.blocked, team)
	r.mu.Unlock()
}

// Promote moves a member onto team as its leader, recording who brought
// them in. Returns the updated record, or false when the user is unknown.
func (r *Room) Promote(id domain.UserID, team domain.TeamName, invitor domain.UserID) (domain.Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ms, ok := r.members[id]
	if !ok {
		return domain.Member{}, false
	}
	ms.member.Team = team
	ms.member.Leader = true
	ms.member.Invitor = invitor
	return ms.member, true
}

// Merge moves every member of oldTeam onto newTeam, clearing leader status.
// Returns the moved records; an unknown oldTeam moves nobody.
func (r *Room) Merge(oldTeam, newTeam domain.TeamName) []domain.Member {
	r.mu.Lock()
	defer r.mu.Unlock()
	var moved []domain.Member
	for _, ms := range r.members {
		if ms.member.Team != oldTeam {
			continue
		}
		ms.member.Team = newTeam
		ms.member.Leader = false
		moved = append(moved, ms.member)
	}
	return moved
}

// RemoveTeam drops every member of team from the room and closes their
// sockets. Returns the removed records; an unknown team removes nobody.
func (r *Room) RemoveTeam(team domain.TeamName) []domain.Member {
	r.mu.Lock()
	var removed []domain.Member
	var conns []PresenceConnection
	for id, ms := range r.members {
		if ms.member.Team != team {
			continue
		}
		removed = append(removed, ms.member)
		if ms.conn != nil {
			conns = append(conns, ms.conn)
		}
		delete(r.members, id)
	}
	r.mu.Unlock()
	for _, c := range conns {
		c.Close()
	}
	return removed
}

// delivery carries one encoded push out of the lock.
type delivery struct {
	user domain.UserID
	conn PresenceConnection
	data []byte
}

// BroadcastState recomputes and unicasts the personalized view to every
// member with a live connection. Members without one are skipped; presence
// is last-value, never queued.
func (r *Room) BroadcastState() {
	r.mu.RLock()
	sends := make([]delivery, 0, len(r.members))
	for id, ms := range r.members {
		if ms.conn == nil {
			continue
		}
		data, err := json.Marshal(r.viewFor(ms))
		if err != nil {
			log.Error().Err(err).Str("module", "core.room").Str("doc", string(r.id)).Msg("marshal state view")
			continue
		}
		sends = append(sends, delivery{user: id, conn: ms.conn, data: data})
	}
	r.mu.RUnlock()
	r.deliver(sends)
}

// UnicastState pushes the personalized view to one member only.
func (r *Room) UnicastState(id domain.UserID) {
	r.mu.RLock()
	ms, ok := r.members[id]
	if !ok || ms.conn == nil {
		r.mu.RUnlock()
		return
	}
	data, err := json.Marshal(r.viewFor(ms))
	conn := ms.conn
	r.mu.RUnlock()
	if err != nil {
		log.Error().Err(err).Str("module", "core.room").Str("doc", string(r.id)).Msg("marshal state view")
		return
	}
	r.deliver([]delivery{{user: id, conn: conn, data: data}})
}

// BroadcastActiveTeam is the narrow variant for the high-frequency
// active-team change; it still reaches every connected member.
func (r *Room) BroadcastActiveTeam() {
	r.mu.RLock()
	payload := ActiveTeamView{Type: PushActiveTeam, ActiveTeam: r.activeTeam}
	r.mu.RUnlock()
	r.broadcastPayload(payload)
}

// BroadcastBlockedTeams is the narrow variant for blocked-set changes.
func (r *Room) BroadcastBlockedTeams() {
	r.mu.RLock()
	payload := BlockedTeamsView{Type: PushBlockTeam, BlockedTeams: r.blockedList()}
	r.mu.RUnlock()
	r.broadcastPayload(payload)
}

// RelayUpdate forwards one opaque editing-protocol frame to every live
// member except the sender. The payload is never inspected here.
func (r *Room) RelayUpdate(from domain.UserID, data []byte) {
	r.mu.RLock()
	sends := make([]delivery, 0, len(r.members))
	for id, ms := range r.members {
		if id == from || ms.conn == nil {
			continue
		}
		sends = append(sends, delivery{user: id, conn: ms.conn, data: data})
	}
	r.mu.RUnlock()
	for _, s := range sends {
		if err := s.conn.TrySendBinary(s.data); err != nil {
			log.Warn().Err(err).Str("module", "core.room").Str("doc", string(r.id)).Str("user", string(s.user)).Msg("update relay dropped")
		}
	}
}

// notifyOnline tells a member's current teammates about an online/offline
// transition. Best effort only.
func (r *Room) notifyOnline(id domain.UserID, online bool) {
	r.mu.RLock()
	me, ok := r.members[id]
	if !ok || me.member.Team == "" {
		r.mu.RUnlock()
		return
	}
	payload := OnlineStatusView{Type: PushOnlineStatus, UserID: id, Name: me.member.Name, Online: online}
	data, err := json.Marshal(payload)
	if err != nil {
		r.mu.RUnlock()
		return
	}
	sends := make([]delivery, 0, len(r.members))
	for uid, ms := range r.members {
		if uid == id || ms.conn == nil || ms.member.Team != me.member.Team {
			continue
		}
		sends = append(sends, delivery{user: uid, conn: ms.conn, data: data})
	}
	r.mu.RUnlock()
	r.deliver(sends)
}

func (r *Room) broadcastPayload(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "core.room").Str("doc", string(r.id)).Msg("marshal push")
		return
	}
	r.mu.RLock()
	sends := make([]delivery, 0, len(r.members))
	for id, ms := range r.members {
		if ms.conn == nil {
			continue
		}
		sends = append(sends, delivery{user: id, conn: ms.conn, data: data})
	}
	r.mu.RUnlock()
	r.deliver(sends)
}

// deliver fires each push independently; a slow or dead socket never stalls
// delivery to the rest of the room.
func (r *Room) deliver(sends []delivery) {
	for _, s := range sends {
		if err := s.conn.TrySend(s.data); err != nil {
			log.Warn().Err(err).Str("module", "core.room").Str("doc", string(r.id)).Str("user", string(s.user)).Msg("push dropped")
		}
	}
}
