package game

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/quizwire/trivia-live/pkg/ws"
)

// Publisher pushes events to subscribers. *ws.Hub satisfies it.
type Publisher interface {
	Broadcast(eventType string, payload any) error
}

// Ticker drives the authoritative countdown pushes: a timer_update each
// second while a countdown is live, and timer_expired exactly once when it
// crosses zero. Clients run their own predicted tick between these pushes
// and are corrected by them.
type Ticker struct {
	game   *Game
	pub    Publisher
	clock  clockwork.Clock
	logger zerolog.Logger
}

// NewTicker builds a ticker over the game's clock.
func NewTicker(g *Game, pub Publisher, logger zerolog.Logger) *Ticker {
	return &Ticker{game: g, pub: pub, clock: g.clock, logger: logger}
}

// Run blocks until ctx is done. Paused and expired countdowns push nothing.
func (t *Ticker) Run(ctx context.Context) {
	ticker := t.clock.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			t.tick()
		}
	}
}

func (t *Ticker) tick() {
	snap, active, expiredNow := t.game.tickSnapshot()
	if !active {
		return
	}

	if err := t.pub.Broadcast(ws.TypeTimerUpdate, snap); err != nil {
		t.logger.Warn().Err(err).Msg("timer update broadcast failed")
	}
	if expiredNow {
		t.logger.Info().Msg("question timer expired")
		if err := t.pub.Broadcast(ws.TypeTimerExpired, nil); err != nil {
			t.logger.Warn().Err(err).Msg("timer expired broadcast failed")
		}
	}
}
