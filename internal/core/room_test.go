package core

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Inkroom/internal/domain"
)

// fakeConn records everything pushed at it.
type fakeConn struct {
	mu     sync.Mutex
	sent   [][]byte
	binary [][]byte
	closed bool
	fail   bool
}

func (f *fakeConn) TrySend(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return ErrBackpressure
	}
	f.sent = append(f.sent, data)
	return nil
}

func (f *fakeConn) TrySendBinary(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return ErrBackpressure
	}
	f.binary = append(f.binary, data)
	return nil
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeConn) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeConn) lastSent(t *testing.T) map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	var out map[string]any
	require.NoError(t, json.Unmarshal(f.sent[len(f.sent)-1], &out))
	return out
}

func member(id, team string, leader bool) domain.Member {
	return domain.Member{
		UserID: domain.UserID(id),
		Name:   "user-" + id,
		Email:  id + "@example.com",
		Team:   domain.TeamName(team),
		Leader: leader,
		Reply:  domain.ReplyAccept,
	}
}

func TestAttachReplacesPreviousConnection(t *testing.T) {
	room := NewRoom("doc-1")
	room.UpsertMember(member("u1", "authoring", false))

	conns := make([]*fakeConn, 0, 3)
	for i := 0; i < 3; i++ {
		conn := &fakeConn{}
		conns = append(conns, conn)
		require.NoError(t, room.Attach("u1", conn))
	}

	// All but the latest connection are closed.
	assert.True(t, conns[0].isClosed())
	assert.True(t, conns[1].isClosed())
	assert.False(t, conns[2].isClosed())

	// The latest received its admission view.
	view := conns[2].lastSent(t)
	assert.Equal(t, PushStateList, view["type"])
}

func TestAttachRejectsUnknownUser(t *testing.T) {
	room := NewRoom("doc-1")
	err := room.Attach("ghost", &fakeConn{})
	assert.ErrorIs(t, err, ErrNotMember)
}

func TestDetachOnlyClearsOwnHandle(t *testing.T) {
	room := NewRoom("doc-1")
	room.UpsertMember(member("u1", "authoring", false))

	old := &fakeConn{}
	require.NoError(t, room.Attach("u1", old))
	replacement := &fakeConn{}
	require.NoError(t, room.Attach("u1", replacement))

	// The stale pump detaching its replaced handle is a no-op.
	room.Detach("u1", old)
	before := replacement.sentCount()
	room.BroadcastState()
	assert.Equal(t, before+1, replacement.sentCount())

	room.Detach("u1", replacement)
	room.BroadcastState()
	assert.Equal(t, before+1, replacement.sentCount())
}

func TestBroadcastReachesExactlyLiveMembers(t *testing.T) {
	room := NewRoom("doc-1")
	room.UpsertMember(member("u1", "authoring", true))
	room.UpsertMember(member("u2", "authoring", false))
	room.UpsertMember(member("u3", "design", false))

	c1, c2 := &fakeConn{}, &fakeConn{}
	require.NoError(t, room.Attach("u1", c1))
	require.NoError(t, room.Attach("u2", c2))
	// u3 stays offline.

	before1, before2 := c1.sentCount(), c2.sentCount()
	room.BroadcastState()
	assert.Equal(t, before1+1, c1.sentCount())
	assert.Equal(t, before2+1, c2.sentCount())
}

func TestBroadcastSurvivesDeadSocket(t *testing.T) {
	room := NewRoom("doc-1")
	room.UpsertMember(member("u1", "authoring", false))
	room.UpsertMember(member("u2", "authoring", false))

	dead := &fakeConn{fail: true}
	live := &fakeConn{}
	require.NoError(t, room.Attach("u1", dead))
	require.NoError(t, room.Attach("u2", live))

	before := live.sentCount()
	room.BroadcastState()
	assert.Equal(t, before+1, live.sentCount())
}

func TestViewIsPersonalized(t *testing.T) {
	room := NewRoom("doc-1")
	room.UpsertMember(member("creator", "authoring", true))
	room.UpsertMember(member("u3", "authoring", false))
	m := member("u1", "design", true)
	m.Invitor = "creator"
	room.UpsertMember(m)
	room.UpsertMember(member("u2", "design", false))
	room.SetActiveTeam("authoring")
	room.Block("design")

	conn := &fakeConn{}
	require.NoError(t, room.Attach("creator", conn))

	raw := conn.sent[0]
	var view StateView
	require.NoError(t, json.Unmarshal(raw, &view))

	assert.Equal(t, PushStateList, view.Type)
	// Teammates are the viewer's team mates, never the viewer itself.
	require.Len(t, view.Teammates, 1)
	assert.Equal(t, domain.UserID("u3"), view.Teammates[0].UserID)
	assert.ElementsMatch(t, []string{"u3@example.com"}, view.Emails)
	require.Len(t, view.Leaders, 2)
	require.Len(t, view.InvitedByMe, 1)
	assert.Equal(t, domain.UserID("u1"), view.InvitedByMe[0].UserID)
	assert.Equal(t, domain.TeamName("authoring"), view.ActiveTeam)
	assert.Equal(t, []domain.TeamName{"design"}, view.BlockedTeams)
}

func TestNarrowBroadcasts(t *testing.T) {
	room := NewRoom("doc-1")
	room.UpsertMember(member("u1", "authoring", false))
	conn := &fakeConn{}
	require.NoError(t, room.Attach("u1", conn))

	room.SetActiveTeam("design")
	room.BroadcastActiveTeam()
	view := conn.lastSent(t)
	assert.Equal(t, PushActiveTeam, view["type"])
	assert.Equal(t, "design", view["activeTeam"])

	room.Block("design")
	room.BroadcastBlockedTeams()
	view = conn.lastSent(t)
	assert.Equal(t, PushBlockTeam, view["type"])
	assert.Equal(t, []any{"design"}, view["blockTeams"])
}

func TestUnblockIsIdempotent(t *testing.T) {
	room := NewRoom("doc-1")
	room.Block("design")
	room.Unblock("design")
	once := room.BlockedTeams()
	room.Unblock("design")
	twice := room.BlockedTeams()
	assert.Equal(t, once, twice)
	assert.Empty(t, twice)
}

func TestRemoveTeamDropsMembersAndClosesSockets(t *testing.T) {
	room := NewRoom("doc-1")
	room.UpsertMember(member("u1", "design", true))
	room.UpsertMember(member("u2", "design", false))
	room.UpsertMember(member("u3", "authoring", false))

	conn := &fakeConn{}
	require.NoError(t, room.Attach("u1", conn))

	removed := room.RemoveTeam("design")
	assert.Len(t, removed, 2)
	assert.True(t, conn.isClosed())
	for _, m := range room.Members() {
		assert.NotEqual(t, domain.TeamName("design"), m.Team)
	}

	// Unknown team removes nobody.
	assert.Empty(t, room.RemoveTeam("ghost"))
}

func TestMergeMovesMembersAndClearsLeadership(t *testing.T) {
	room := NewRoom("doc-1")
	room.UpsertMember(member("u1", "design", true))
	room.UpsertMember(member("u2", "authoring", true))

	moved := room.Merge("design", "authoring")
	require.Len(t, moved, 1)
	assert.Equal(t, domain.TeamName("authoring"), moved[0].Team)
	assert.False(t, moved[0].Leader)

	m, ok := room.Member("u1")
	require.True(t, ok)
	assert.Equal(t, domain.TeamName("authoring"), m.Team)
	assert.False(t, m.Leader)
}

func TestRelayUpdateSkipsSender(t *testing.T) {
	room := NewRoom("doc-1")
	room.UpsertMember(member("u1", "authoring", false))
	room.UpsertMember(member("u2", "authoring", false))

	c1, c2 := &fakeConn{}, &fakeConn{}
	require.NoError(t, room.Attach("u1", c1))
	require.NoError(t, room.Attach("u2", c2))

	room.RelayUpdate("u1", []byte{0x01, 0x02})
	assert.Empty(t, c1.binary)
	require.Len(t, c2.binary, 1)
	assert.Equal(t, []byte{0x01, 0x02}, c2.binary[0])
}
