package session

import (
	"github.com/dkeye/Inkroom/internal/core"
	"github.com/dkeye/Inkroom/internal/domain"
)

// EditPolicy decides whether an observed edit was allowed. The watchdog is
// a coarse last-resort net behind it; swap the policy to tighten per-edit
// authorization without touching the flag-and-revert plumbing.
type EditPolicy interface {
	Authorized(room *core.Room, editor domain.UserID) bool
}

// TeamEditPolicy allows edits from members of the active team; with no
// active team set, any member of a non-blocked team may edit. Unknown
// editors are never authorized.
type TeamEditPolicy struct{}

func (TeamEditPolicy) Authorized(room *core.Room, editor domain.UserID) bool {
	if room == nil {
		return false
	}
	member, ok := room.Member(editor)
	if !ok {
		return false
	}
	for _, blocked := range room.BlockedTeams() {
		if member.Team == blocked {
			return false
		}
	}
	active := room.ActiveTeam()
	return active == "" || member.Team == active
}
