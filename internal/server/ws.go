package server

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/quizwire/trivia-live/pkg/ws"
)

// handleWebSocket upgrades a subscriber connection. A team_id query
// parameter joins the connection to that team's room for targeted pushes;
// push delivery starts immediately and is at-most-once.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := WSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	subscriber := ws.NewConnection(conn, s.logger)
	connID := s.hub.Register(subscriber)

	if raw := r.URL.Query().Get("team_id"); raw != "" {
		if teamID, err := uuid.Parse(raw); err == nil {
			s.hub.JoinTeam(teamID, connID)
		} else {
			s.logger.Warn().Str("team_id", raw).Msg("ignoring malformed team_id on subscribe")
		}
	}

	go subscriber.WritePump()
	go subscriber.ReadPump(func() {
		s.hub.Unregister(connID)
	})
}
