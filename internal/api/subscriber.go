package api

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/quizwire/trivia-live/pkg/ws"
)

// Subscriber consumes the server's push channel over a WebSocket and
// delivers decoded events in arrival order. Delivery is at-most-once: events
// pushed while disconnected are gone, which is why the session re-fetches on
// reconnect.
type Subscriber struct {
	conn   *websocket.Conn
	events chan ws.Message
	logger zerolog.Logger

	mu     sync.Mutex
	closed bool
}

// Subscribe dials the push endpoint and starts the read loop. teamID scopes
// the subscription to that team's room.
func Subscribe(wsURL, teamID string, logger zerolog.Logger) (*Subscriber, error) {
	url := wsURL
	if teamID != "" {
		url += "?team_id=" + teamID
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, &TransportError{Op: "subscribe", Err: err}
	}

	s := &Subscriber{
		conn:   conn,
		events: make(chan ws.Message, 64),
		logger: logger,
	}
	go s.readLoop()
	return s, nil
}

// Events returns the push event stream. The channel closes when the
// connection drops or Close is called.
func (s *Subscriber) Events() <-chan ws.Message {
	return s.events
}

// Close detaches the subscription.
func (s *Subscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Close()
}

func (s *Subscriber) readLoop() {
	defer close(s.events)

	for {
		var msg ws.Message
		if err := s.conn.ReadJSON(&msg); err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if !closed {
				s.logger.Warn().Err(err).Msg("push connection lost")
			}
			return
		}

		select {
		case s.events <- msg:
		default:
			// At-most-once delivery: a stalled consumer loses events
			// rather than blocking the socket.
			s.logger.Warn().Str("type", msg.Type).Msg("push event dropped, consumer stalled")
		}
	}
}
