package core

import "github.com/dkeye/Inkroom/internal/domain"

// StateView is the personalized snapshot pushed to one connected client.
type StateView struct {
	Type         string            `json:"type"`
	Teammates    []domain.Member   `json:"users"`
	Emails       []string          `json:"emails"`
	Leaders      []domain.Member   `json:"leaders"`
	InvitedByMe  []domain.Member   `json:"invited"`
	ActiveTeam   domain.TeamName   `json:"activeTeam"`
	BlockedTeams []domain.TeamName `json:"blockTeams"`
}

type ActiveTeamView struct {
	Type       string          `json:"type"`
	ActiveTeam domain.TeamName `json:"activeTeam"`
}

type BlockedTeamsView struct {
	Type         string            `json:"type"`
	BlockedTeams []domain.TeamName `json:"blockTeams"`
}

type OnlineStatusView struct {
	Type   string        `json:"type"`
	UserID domain.UserID `json:"_id"`
	Name   string        `json:"name"`
	Online bool          `json:"online"`
}

// viewFor computes one member's personalized view. Pure function of room
// state; the caller holds at least the read lock.
func (r *Room) viewFor(me *memberState) StateView {
	view := StateView{
		Type:         PushStateList,
		Teammates:    []domain.Member{},
		Emails:       []string{},
		Leaders:      []domain.Member{},
		InvitedByMe:  []domain.Member{},
		ActiveTeam:   r.activeTeam,
		BlockedTeams: r.blockedList(),
	}
	for _, ms := range r.members {
		m := ms.member
		// Teammates are the other members of the viewer's team. A member
		// without a team yet (pending invitee) has no teammates.
		if m.UserID != me.member.UserID && m.Team != "" && m.Team == me.member.Team {
			view.Teammates = append(view.Teammates, m)
			view.Emails = append(view.Emails, m.Email)
		}
		if m.Leader {
			view.Leaders = append(view.Leaders, m)
		}
		if m.Invitor == me.member.UserID {
			view.InvitedByMe = append(view.InvitedByMe, m)
		}
	}
	return view
}

func (r *Room) blockedList() []domain.TeamName {
	out := make([]domain.TeamName, 0, len(r.blocked))
	for team := range r.blocked {
		out = append(out, team)
	}
	return out
}
