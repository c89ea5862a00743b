package client

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/quizwire/trivia-live/internal/scoring"
	"github.com/quizwire/trivia-live/pkg/ws"
)

// CountdownTimer lifecycle states.
const (
	TimerIdle    = "idle"
	TimerRunning = "running"
	TimerPaused  = "paused"
	TimerExpired = "expired"
)

// TickEvent kinds delivered to the observer.
const (
	TickUpdate  = "tick"
	TickExpired = "expired"
	TickStopped = "stopped"
)

// TickEvent is the observer notification emitted on every predicted tick,
// on expiry, and on stop (hide the timer UI).
type TickEvent struct {
	Kind     string
	Snapshot ws.TimerSnapshot
}

// CountdownTimer predicts time-remaining between authoritative pushes. All
// predicted values defer to the next server snapshot: Correct overwrites the
// local countdown unconditionally while running or paused. At most one tick
// loop is live at any time; Start, Pause, Stop, and expiry all cancel it.
type CountdownTimer struct {
	clock  clockwork.Clock
	logger zerolog.Logger
	notify func(TickEvent)

	mu        sync.Mutex
	state     string
	remaining int
	total     int
	bonus     int
	cancel    chan struct{} // non-nil while a tick loop is live
}

// NewCountdownTimer builds an idle timer. notify may be nil.
func NewCountdownTimer(clock clockwork.Clock, logger zerolog.Logger, notify func(TickEvent)) *CountdownTimer {
	if notify == nil {
		notify = func(TickEvent) {}
	}
	return &CountdownTimer{
		clock:  clock,
		logger: logger,
		notify: notify,
		state:  TimerIdle,
	}
}

// Start anchors the countdown on an authoritative snapshot and begins the
// 1-second local tick. A second Start cancels any prior tick loop before
// installing a new one, so repeated calls never double-tick.
func (t *CountdownTimer) Start(snap ws.TimerSnapshot) {
	t.mu.Lock()
	t.stopTickLocked()
	t.remaining = snap.TimeRemaining
	t.total = snap.TotalTime
	t.bonus = snap.BonusPoints

	if snap.Expired || snap.TimeRemaining <= 0 {
		t.state = TimerExpired
		t.bonus = 0
		ev := TickEvent{Kind: TickExpired, Snapshot: t.snapshotLocked()}
		t.mu.Unlock()
		t.notify(ev)
		return
	}

	t.state = TimerRunning
	t.startTickLocked()
	t.mu.Unlock()
}

// Pause cancels the tick loop without resetting time remaining.
func (t *CountdownTimer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != TimerRunning {
		return
	}
	t.stopTickLocked()
	t.state = TimerPaused
}

// Resume restarts ticking from the stored time remaining. The stored
// snapshot is the new starting point; the server was paused too and owns
// true elapsed time, so no fast-forwarding happens here.
func (t *CountdownTimer) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != TimerPaused {
		return
	}
	t.state = TimerRunning
	t.startTickLocked()
}

// Stop cancels the tick, clears the stored snapshot, and tells observers to
// hide the timer UI. Valid from any state.
func (t *CountdownTimer) Stop() {
	t.mu.Lock()
	t.stopTickLocked()
	alreadyIdle := t.state == TimerIdle
	t.state = TimerIdle
	t.remaining = 0
	t.total = 0
	t.bonus = 0
	t.mu.Unlock()

	if !alreadyIdle {
		t.notify(TickEvent{Kind: TickStopped})
	}
}

// Correct applies an authoritative snapshot. Server wins ties and drift:
// while running or paused the local countdown is overwritten unconditionally.
// An expired snapshot terminates the countdown. Corrections in Idle or
// Expired are ignored.
func (t *CountdownTimer) Correct(snap ws.TimerSnapshot) {
	t.mu.Lock()
	if t.state != TimerRunning && t.state != TimerPaused {
		t.mu.Unlock()
		return
	}

	t.remaining = snap.TimeRemaining
	t.total = snap.TotalTime
	t.bonus = snap.BonusPoints

	if snap.Expired || snap.TimeRemaining <= 0 {
		t.stopTickLocked()
		t.state = TimerExpired
		t.bonus = 0
		ev := TickEvent{Kind: TickExpired, Snapshot: t.snapshotLocked()}
		t.mu.Unlock()
		t.notify(ev)
		return
	}

	ev := TickEvent{Kind: TickUpdate, Snapshot: t.snapshotLocked()}
	t.mu.Unlock()
	t.notify(ev)
}

// Expire terminates the countdown on a pushed timer_expired event. Expiry
// does not block answer submission; it only zeroes future bonus predictions.
func (t *CountdownTimer) Expire() {
	t.mu.Lock()
	if t.state != TimerRunning && t.state != TimerPaused {
		t.mu.Unlock()
		return
	}
	t.stopTickLocked()
	t.state = TimerExpired
	t.remaining = 0
	t.bonus = 0
	ev := TickEvent{Kind: TickExpired, Snapshot: t.snapshotLocked()}
	t.mu.Unlock()
	t.notify(ev)
}

// State returns the current lifecycle state.
func (t *CountdownTimer) State() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Snapshot returns the current predicted snapshot.
func (t *CountdownTimer) Snapshot() ws.TimerSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *CountdownTimer) snapshotLocked() ws.TimerSnapshot {
	return ws.TimerSnapshot{
		TimeRemaining: t.remaining,
		BonusPoints:   t.bonus,
		TotalTime:     t.total,
		Expired:       t.state == TimerExpired,
	}
}

func (t *CountdownTimer) startTickLocked() {
	cancel := make(chan struct{})
	t.cancel = cancel
	go t.run(cancel)
}

func (t *CountdownTimer) stopTickLocked() {
	if t.cancel != nil {
		close(t.cancel)
		t.cancel = nil
	}
}

func (t *CountdownTimer) run(cancel chan struct{}) {
	ticker := t.clock.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-cancel:
			return
		case <-ticker.Chan():
			if !t.tick(cancel) {
				return
			}
		}
	}
}

// tick decrements the prediction by one second. Returns false once this loop
// must stop, either because it was superseded or because the countdown hit
// zero.
func (t *CountdownTimer) tick(cancel chan struct{}) bool {
	t.mu.Lock()
	if t.state != TimerRunning || t.cancel != cancel {
		// A newer Start replaced this loop, or the timer was paused or
		// stopped between the tick firing and the lock being taken.
		t.mu.Unlock()
		return false
	}

	if t.remaining > 0 {
		t.remaining--
	}
	elapsed := t.total - t.remaining
	t.bonus = scoring.BonusPoints(elapsed)

	if t.remaining == 0 {
		t.state = TimerExpired
		t.bonus = 0
		t.cancel = nil
		ev := TickEvent{Kind: TickExpired, Snapshot: t.snapshotLocked()}
		t.mu.Unlock()
		t.notify(ev)
		return false
	}

	ev := TickEvent{Kind: TickUpdate, Snapshot: t.snapshotLocked()}
	t.mu.Unlock()
	t.notify(ev)
	return true
}
