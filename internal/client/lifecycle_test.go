package client

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quizwire/trivia-live/pkg/ws"
)

func TestLifecycleStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		status ws.GameStatus
		want   string
	}{
		{"not started", ws.GameStatus{Started: false, Paused: false}, PhaseNotStarted},
		{"running", ws.GameStatus{Started: true, Paused: false}, PhaseRunning},
		{"paused", ws.GameStatus{Started: true, Paused: true}, PhasePaused},
		// The boolean-pair encoding allows this combination; it must
		// collapse to NotStarted rather than leak an ambiguous state.
		{"stopped but paused collapses", ws.GameStatus{Started: false, Paused: true}, PhaseNotStarted},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := NewGameLifecycleState()
			_, next := g.Apply(tc.status)
			assert.Equal(t, tc.want, next)
			assert.Equal(t, tc.want, g.Phase())
		})
	}
}

func TestLifecycleTransitionsReported(t *testing.T) {
	g := NewGameLifecycleState()

	prev, next := g.Apply(ws.GameStatus{Started: true})
	assert.Equal(t, PhaseNotStarted, prev)
	assert.Equal(t, PhaseRunning, next)

	prev, next = g.Apply(ws.GameStatus{Started: true, Paused: true})
	assert.Equal(t, PhaseRunning, prev)
	assert.Equal(t, PhasePaused, next)

	prev, next = g.Apply(ws.GameStatus{Started: true})
	assert.Equal(t, PhasePaused, prev)
	assert.Equal(t, PhaseRunning, next)
}

func TestLifecycleStoppedUntilNextStart(t *testing.T) {
	g := NewGameLifecycleState()
	g.Apply(ws.GameStatus{Started: true})

	prev, next := g.MarkStopped()
	assert.Equal(t, PhaseRunning, prev)
	assert.Equal(t, PhaseStopped, next)
	assert.False(t, g.Active())

	// The next game start leaves the terminal state.
	_, next = g.Apply(ws.GameStatus{Started: true})
	assert.Equal(t, PhaseRunning, next)
	assert.True(t, g.Active())
}

func TestLifecycleActiveOnlyWhenRunning(t *testing.T) {
	g := NewGameLifecycleState()
	assert.False(t, g.Active())

	g.Apply(ws.GameStatus{Started: true})
	assert.True(t, g.Active())

	g.Apply(ws.GameStatus{Started: true, Paused: true})
	assert.False(t, g.Active())
}
