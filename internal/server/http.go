package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/quizwire/trivia-live/internal/config"
	"github.com/quizwire/trivia-live/internal/game"
	"github.com/quizwire/trivia-live/internal/logging"
	httperrors "github.com/quizwire/trivia-live/pkg/http/errors"
	"github.com/quizwire/trivia-live/pkg/ws"
)

// WSUpgrader handles WebSocket upgrades (configure CORS/security as needed).
var WSUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Server exposes the game over HTTP JSON plus a WebSocket push endpoint.
// Team identity rides on X-Team-ID / X-Player-Name headers.
type Server struct {
	game   *game.Game
	hub    *ws.Hub
	logger zerolog.Logger
}

// New wires the HTTP layer over a game and its push hub.
func New(g *game.Game, hub *ws.Hub, logger zerolog.Logger) *Server {
	return &Server{
		game:   g,
		hub:    hub,
		logger: logger.With().Str("component", "http").Logger(),
	}
}

// NewHTTPServer builds the listening server with all routes mounted.
func NewHTTPServer(cfg *config.App, s *Server) *http.Server {
	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: s.Handler(),
	}
}

// Handler mounts every route.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Player endpoints
	mux.HandleFunc("GET /api/teams", s.handleListTeams)
	mux.HandleFunc("POST /api/teams", s.handleCreateTeam)
	mux.HandleFunc("POST /api/teams/{id}/join", s.handleJoinTeam)
	mux.HandleFunc("POST /api/teams/leave", s.handleLeaveTeam)
	mux.HandleFunc("GET /api/player/status", s.handlePlayerStatus)
	mux.HandleFunc("GET /api/question", s.handleCurrentQuestion)
	mux.HandleFunc("POST /api/answer", s.handleSubmitAnswer)
	mux.HandleFunc("GET /api/scoreboard", s.handleScoreboard)

	// Admin endpoints
	mux.HandleFunc("GET /admin/api/status", s.handleAdminStatus)
	mux.HandleFunc("POST /admin/api/game/start", s.handleStartGame)
	mux.HandleFunc("POST /admin/api/game/stop", s.handleStopGame)
	mux.HandleFunc("POST /admin/api/game/pause", s.handlePauseGame)
	mux.HandleFunc("POST /admin/api/game/resume", s.handleResumeGame)
	mux.HandleFunc("POST /admin/api/next_question", s.handleNextQuestion)
	mux.HandleFunc("POST /admin/api/set_question", s.handleSetQuestion)
	mux.HandleFunc("PUT /admin/api/teams/{id}/name", s.handleUpdateTeamName)
	mux.HandleFunc("POST /admin/api/teams/{id}/players", s.handleAddPlayer)
	mux.HandleFunc("DELETE /admin/api/teams/{id}/players/{player}", s.handleRemovePlayer)
	mux.HandleFunc("DELETE /admin/api/teams/{id}", s.handleDeleteTeam)

	// Push subscription
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	return logging.Middleware(s.logger)(mux)
}

// --- helpers ---

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn().Err(err).Msg("response encode failed")
	}
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return false
	}
	return true
}

// identity reads the caller's claimed team membership off the headers. The
// zero UUID means the caller has no team claim.
func (s *Server) identity(r *http.Request) (teamID uuid.UUID, playerName string) {
	playerName = r.Header.Get("X-Player-Name")
	if raw := r.Header.Get("X-Team-ID"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			teamID = id
		}
	}
	return teamID, playerName
}

func pathTeamID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidTeamID, "Invalid team id")
		return uuid.Nil, false
	}
	return id, true
}

// broadcastRoster pushes the team list to everyone.
func (s *Server) broadcastRoster() {
	if err := s.hub.Broadcast(ws.TypeTeamsUpdate, s.game.Teams()); err != nil {
		s.logger.Warn().Err(err).Msg("teams_update broadcast failed")
	}
}

// broadcastStatus pushes the coarse lifecycle pair to everyone.
func (s *Server) broadcastStatus() {
	if err := s.hub.Broadcast(ws.TypeGameStatusUpdate, s.game.Status()); err != nil {
		s.logger.Warn().Err(err).Msg("game_status_update broadcast failed")
	}
}

// broadcastQuestion pushes the current question to each team's room with
// that team's answer status.
func (s *Server) broadcastQuestion() {
	for teamID, q := range s.game.TeamQuestions() {
		if err := s.hub.BroadcastToTeam(teamID, ws.TypeNewQuestion, q); err != nil {
			s.logger.Warn().Err(err).Str("team_id", teamID.String()).Msg("new_question broadcast failed")
		}
	}
}
