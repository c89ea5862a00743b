package server

import (
	"net/http"

	"github.com/quizwire/trivia-live/internal/logging"
	httperrors "github.com/quizwire/trivia-live/pkg/http/errors"
	"github.com/quizwire/trivia-live/pkg/ws"
)

type createTeamRequest struct {
	TeamName   string `json:"team_name"`
	PlayerName string `json:"player_name"`
}

type createTeamResponse struct {
	Success bool   `json:"success"`
	TeamID  string `json:"team_id"`
}

type playerNameRequest struct {
	PlayerName string `json:"player_name"`
}

type okResponse struct {
	Success bool `json:"success"`
}

func (s *Server) handleListTeams(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.game.Teams())
}

func (s *Server) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	var req createTeamRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	teamID, err := s.game.CreateTeam(req.TeamName, req.PlayerName)
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeTeamCreationFailed, err.Error())
		return
	}

	s.broadcastRoster()
	s.respondJSON(w, http.StatusOK, createTeamResponse{Success: true, TeamID: teamID.String()})
}

func (s *Server) handleJoinTeam(w http.ResponseWriter, r *http.Request) {
	teamID, ok := pathTeamID(w, r)
	if !ok {
		return
	}
	var req playerNameRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	if err := s.game.JoinTeam(teamID, req.PlayerName); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeJoinFailed, err.Error())
		return
	}

	s.broadcastRoster()
	s.respondJSON(w, http.StatusOK, okResponse{Success: true})
}

func (s *Server) handleLeaveTeam(w http.ResponseWriter, r *http.Request) {
	teamID, playerName := s.identity(r)
	if playerName == "" {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeNoMembership, "No active team membership")
		return
	}

	if err := s.game.LeaveTeam(teamID, playerName); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeLeaveFailed, err.Error())
		return
	}

	s.broadcastRoster()
	s.respondJSON(w, http.StatusOK, okResponse{Success: true})
}

func (s *Server) handlePlayerStatus(w http.ResponseWriter, r *http.Request) {
	teamID, playerName := s.identity(r)
	s.respondJSON(w, http.StatusOK, s.game.PlayerStatus(teamID, playerName))
}

// handleCurrentQuestion returns the question enriched for the caller's
// team, or JSON null past the end of the list.
func (s *Server) handleCurrentQuestion(w http.ResponseWriter, r *http.Request) {
	teamID, playerName := s.identity(r)
	if !s.game.PlayerStatus(teamID, playerName).HasTeam {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeNoMembership, "No active team membership")
		return
	}
	s.respondJSON(w, http.StatusOK, s.game.CurrentQuestion(teamID))
}

type submitAnswerRequest struct {
	Answer string `json:"answer"`
}

// handleSubmitAnswer records an answer. Rejections come back in-band with
// success=false; a 200 always carries a full result payload.
func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	teamID, playerName := s.identity(r)
	if !s.game.PlayerStatus(teamID, playerName).HasTeam {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeNoMembership, "No active team membership")
		return
	}
	var req submitAnswerRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	result := s.game.SubmitAnswer(teamID, req.Answer)
	reqLogger := logging.FromContext(r.Context())
	reqLogger.Info().
		Str("team_id", teamID.String()).
		Bool("accepted", result.Success).
		Bool("correct", result.Correct).
		Int("points_earned", result.PointsEarned).
		Msg("answer submitted")
	if result.Success {
		if err := s.hub.Broadcast(ws.TypeScoreUpdate, s.game.Scoreboard()); err != nil {
			s.logger.Warn().Err(err).Msg("score_update broadcast failed")
		}
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleScoreboard(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.game.Scoreboard())
}
