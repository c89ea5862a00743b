package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for push traffic and reconciliation outcomes.
var (
	PushEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trivia",
		Name:      "push_events_total",
		Help:      "Push events processed, by event type.",
	}, []string{"type"})

	TimerCorrectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "trivia",
		Name:      "timer_corrections_total",
		Help:      "Authoritative timer snapshots applied over local prediction.",
	})

	StaleFetchesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "trivia",
		Name:      "stale_fetches_dropped_total",
		Help:      "Fetch completions discarded because a newer question was already displayed.",
	})

	AnswerSubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trivia",
		Name:      "answer_submissions_total",
		Help:      "Answer submissions, by outcome.",
	}, []string{"outcome"})

	BonusDivergenceTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "trivia",
		Name:      "bonus_divergence_total",
		Help:      "Authoritative bonus values that disagreed with the local prediction.",
	})
)
