package server

import (
	"net/http"

	httperrors "github.com/quizwire/trivia-live/pkg/http/errors"
	"github.com/quizwire/trivia-live/pkg/ws"
)

// PausedMessage is the notice shown to players while the game is paused.
const PausedMessage = "Game has been paused by the administrator"

func (s *Server) handleAdminStatus(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.game.AdminStatus())
}

func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	if err := s.game.Start(); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeGameControlFailed, err.Error())
		return
	}

	s.broadcastStatus()
	s.broadcastQuestion()
	s.respondJSON(w, http.StatusOK, okResponse{Success: true})
}

func (s *Server) handleStopGame(w http.ResponseWriter, r *http.Request) {
	if err := s.game.Stop(); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeGameControlFailed, err.Error())
		return
	}

	s.broadcastStatus()
	payload := ws.GameStoppedPayload{Scoreboard: s.game.Scoreboard()}
	if err := s.hub.Broadcast(ws.TypeGameStopped, payload); err != nil {
		s.logger.Warn().Err(err).Msg("game_stopped broadcast failed")
	}
	s.respondJSON(w, http.StatusOK, okResponse{Success: true})
}

func (s *Server) handlePauseGame(w http.ResponseWriter, r *http.Request) {
	if err := s.game.Pause(); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeGameControlFailed, err.Error())
		return
	}

	s.broadcastStatus()
	if err := s.hub.Broadcast(ws.TypeGamePaused, ws.GamePausedPayload{Message: PausedMessage}); err != nil {
		s.logger.Warn().Err(err).Msg("game_paused broadcast failed")
	}
	s.respondJSON(w, http.StatusOK, okResponse{Success: true})
}

func (s *Server) handleResumeGame(w http.ResponseWriter, r *http.Request) {
	if err := s.game.Resume(); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeGameControlFailed, err.Error())
		return
	}

	s.broadcastStatus()
	if err := s.hub.Broadcast(ws.TypeGameResumed, nil); err != nil {
		s.logger.Warn().Err(err).Msg("game_resumed broadcast failed")
	}
	// Re-send the question so clients that missed it while paused recover.
	s.broadcastQuestion()
	s.respondJSON(w, http.StatusOK, okResponse{Success: true})
}

func (s *Server) handleNextQuestion(w http.ResponseWriter, r *http.Request) {
	if err := s.game.Advance(); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeQuestionControlFailed, err.Error())
		return
	}

	s.broadcastQuestion()
	s.broadcastStatus()
	s.respondJSON(w, http.StatusOK, okResponse{Success: true})
}

type setQuestionRequest struct {
	QuestionNumber int `json:"question_number"`
}

func (s *Server) handleSetQuestion(w http.ResponseWriter, r *http.Request) {
	var req setQuestionRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	if err := s.game.SetQuestion(req.QuestionNumber); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeQuestionControlFailed, err.Error())
		return
	}

	s.broadcastQuestion()
	s.broadcastStatus()
	s.respondJSON(w, http.StatusOK, okResponse{Success: true})
}

type updateTeamNameRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleUpdateTeamName(w http.ResponseWriter, r *http.Request) {
	teamID, ok := pathTeamID(w, r)
	if !ok {
		return
	}
	var req updateTeamNameRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	if err := s.game.UpdateTeamName(teamID, req.Name); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeTeamUpdateFailed, err.Error())
		return
	}

	s.broadcastRoster()
	s.respondJSON(w, http.StatusOK, okResponse{Success: true})
}

func (s *Server) handleAddPlayer(w http.ResponseWriter, r *http.Request) {
	teamID, ok := pathTeamID(w, r)
	if !ok {
		return
	}
	var req playerNameRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	if err := s.game.AddPlayer(teamID, req.PlayerName); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeTeamUpdateFailed, err.Error())
		return
	}

	s.broadcastRoster()
	s.respondJSON(w, http.StatusOK, okResponse{Success: true})
}

func (s *Server) handleRemovePlayer(w http.ResponseWriter, r *http.Request) {
	teamID, ok := pathTeamID(w, r)
	if !ok {
		return
	}

	if err := s.game.RemovePlayer(teamID, r.PathValue("player")); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeTeamUpdateFailed, err.Error())
		return
	}

	s.broadcastRoster()
	s.respondJSON(w, http.StatusOK, okResponse{Success: true})
}

func (s *Server) handleDeleteTeam(w http.ResponseWriter, r *http.Request) {
	teamID, ok := pathTeamID(w, r)
	if !ok {
		return
	}

	if err := s.game.DeleteTeam(teamID); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeTeamUpdateFailed, err.Error())
		return
	}

	s.broadcastRoster()
	s.respondJSON(w, http.StatusOK, okResponse{Success: true})
}
