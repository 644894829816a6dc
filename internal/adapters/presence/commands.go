package presence

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Inkroom/internal/domain"
)

// command is the envelope of one client→server presence message. Field
// names are wire-compatible with the editor frontend.
type command struct {
	Type       string       `json:"type"`
	Team       string       `json:"team"`
	TeamName   string       `json:"teamName"`
	TeamLeader *domain.User `json:"teamLeader"`
	OldTeam    string       `json:"oldTeam"`
	NewTeam    string       `json:"newTeam"`
	Me         string       `json:"me"`
}

// handleCommand dispatches one presence command. Bad or unknown commands
// are logged and dropped; the protocol never answers a command with an
// error, only with the broadcast of its (possibly empty) effect.
func (ctl *Controller) handleCommand(ctx context.Context, docID domain.DocumentID, from domain.UserID, data []byte) {
	var cmd command
	if err := json.Unmarshal(data, &cmd); err != nil {
		log.Warn().Err(err).Str("module", "presence").Str("doc", string(docID)).Msg("bad command payload")
		return
	}

	var err error
	switch cmd.Type {
	case "set-active":
		err = ctl.teams.SetActiveTeam(ctx, docID, domain.TeamName(cmd.Team))
	case "set-block":
		err = ctl.teams.BlockTeam(ctx, docID, domain.TeamName(cmd.Team))
	case "remove-block":
		err = ctl.teams.UnblockTeam(ctx, docID, domain.TeamName(cmd.Team))
	case "add-team", "add-new-team":
		if cmd.TeamLeader == nil {
			log.Warn().Str("module", "presence").Str("doc", string(docID)).Msg("add-team without teamLeader")
			return
		}
		err = ctl.teams.PromoteToTeamLeader(ctx, docID, *cmd.TeamLeader, domain.TeamName(cmd.TeamName), from)
	case "remove-team":
		err = ctl.teams.MergeTeam(ctx, docID, domain.TeamName(cmd.OldTeam), domain.TeamName(cmd.NewTeam))
	case "delete-team":
		requestedBy := domain.UserID(cmd.Me)
		if requestedBy == "" {
			requestedBy = from
		}
		err = ctl.teams.DeleteTeam(ctx, docID, domain.TeamName(cmd.OldTeam), requestedBy)
	default:
		log.Warn().Str("module", "presence").Str("doc", string(docID)).Str("type", cmd.Type).Msg("unknown command")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("module", "presence").Str("doc", string(docID)).Str("type", cmd.Type).Msg("command failed")
	}
}
