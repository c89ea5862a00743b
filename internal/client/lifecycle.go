package client

import "github.com/quizwire/trivia-live/pkg/ws"

// Game lifecycle phases. Stopped is distinct from NotStarted: it is entered
// only by an explicit stop event and triggers the one-time scoreboard reveal.
const (
	PhaseNotStarted = "not_started"
	PhaseRunning    = "running"
	PhasePaused     = "paused"
	PhaseStopped    = "stopped"
)

// GameLifecycleState is the top-level arbiter: no question or timer UI may
// render unless the phase is Running. All transitions funnel through Apply
// and MarkStopped so ambiguous flag combinations cannot leak in.
type GameLifecycleState struct {
	phase string
}

// NewGameLifecycleState starts in NotStarted.
func NewGameLifecycleState() *GameLifecycleState {
	return &GameLifecycleState{phase: PhaseNotStarted}
}

// Apply maps a pushed status pair onto a phase and returns the transition.
// {started:false} always collapses to NotStarted, including the otherwise
// unreachable {started:false, paused:true} pair. A status push with
// started:true also re-enters Running/Paused from Stopped: the next game
// start leaves the terminal state.
func (g *GameLifecycleState) Apply(status ws.GameStatus) (prev, next string) {
	prev = g.phase
	switch {
	case !status.Started:
		next = PhaseNotStarted
	case status.Paused:
		next = PhasePaused
	default:
		next = PhaseRunning
	}
	g.phase = next
	return prev, next
}

// MarkStopped records the explicit stop signal.
func (g *GameLifecycleState) MarkStopped() (prev, next string) {
	prev = g.phase
	g.phase = PhaseStopped
	return prev, PhaseStopped
}

// Phase returns the current phase.
func (g *GameLifecycleState) Phase() string {
	return g.phase
}

// Active reports whether question and timer UI may be shown.
func (g *GameLifecycleState) Active() bool {
	return g.phase == PhaseRunning
}
