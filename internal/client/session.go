package client

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/quizwire/trivia-live/internal/metrics"
	"github.com/quizwire/trivia-live/pkg/ws"
)

// API is the on-demand collaborator contract consumed by the session.
type API interface {
	CurrentQuestion(ctx context.Context) (*ws.Question, error)
	Scoreboard(ctx context.Context) ([]ws.ScoreEntry, error)
	SubmitAnswer(ctx context.Context, answer string) (*ws.AnswerResult, error)
	PlayerStatus(ctx context.Context) (*ws.PlayerStatus, error)
}

// Subscription is the push channel boundary. Events delivers server pushes
// in arrival order; delivery is at-most-once and may drop across reconnects.
type Subscription interface {
	Events() <-chan ws.Message
	Close() error
}

// Update kinds passed to the OnUpdate callback.
const (
	UpdateQuestion   = "question"
	UpdatePhase      = "phase"
	UpdateTimer      = "timer"
	UpdateScoreboard = "scoreboard"
	UpdateRoster     = "roster"
	UpdateResult     = "result"
	UpdateFinal      = "final"
)

// SessionSnapshot is a consistent copy of the display state, taken on the
// session goroutine.
type SessionSnapshot struct {
	Phase           string
	PausedMessage   string
	Question        *ws.Question
	ViewMode        string
	PendingAnswer   string
	SubmitEnabled   bool
	Timer           ws.TimerSnapshot
	TimerState      string
	Result          *ws.AnswerResult
	Scoreboard      []ws.ScoreEntry
	Roster          []ws.Team
	FinalScoreboard []ws.ScoreEntry
}

// Options configures a Session.
type Options struct {
	Clock    clockwork.Clock
	Logger   zerolog.Logger
	OnUpdate func(kind string, snap SessionSnapshot)
}

// Session owns one QuestionViewState, one CountdownTimer, and one
// GameLifecycleState for a connected view. Push events, fetch completions,
// user actions, and timer ticks are all serialized onto a single goroutine,
// so no two handlers ever run at once; their relative order is arrival
// order, and the reconciliation rules below make any interleaving safe.
type Session struct {
	api    API
	sub    Subscription
	logger zerolog.Logger
	onUpd  func(kind string, snap SessionSnapshot)

	queue chan func()
	done  chan struct{}
	once  sync.Once

	lifecycle  *GameLifecycleState
	view       *QuestionViewState
	timer      *CountdownTimer
	scoreboard *ScoreboardView
	roster     *RosterView

	pausedMessage   string
	finalShown      bool
	finalScoreboard []ws.ScoreEntry
}

// NewSession wires the core components. The countdown timer is owned by the
// session and ticks on the provided clock.
func NewSession(api API, sub Subscription, opts Options) *Session {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.OnUpdate == nil {
		opts.OnUpdate = func(string, SessionSnapshot) {}
	}

	s := &Session{
		api:        api,
		sub:        sub,
		logger:     opts.Logger,
		onUpd:      opts.OnUpdate,
		queue:      make(chan func(), 1024),
		done:       make(chan struct{}),
		lifecycle:  NewGameLifecycleState(),
		view:       NewQuestionViewState(),
		scoreboard: &ScoreboardView{},
		roster:     &RosterView{},
	}
	s.timer = NewCountdownTimer(opts.Clock, opts.Logger, s.enqueueTick)
	return s
}

// Start verifies team membership, begins the event loop, and kicks off the
// initial question and scoreboard fetches. ErrNoTeam means the caller must
// navigate away from the game view.
func (s *Session) Start(ctx context.Context) error {
	status, err := s.api.PlayerStatus(ctx)
	if err != nil {
		return err
	}
	if !status.HasTeam {
		return ErrNoTeam
	}

	go s.loop()
	s.Refresh(ctx)
	return nil
}

// Refresh re-fetches the current question and scoreboard. Used at initial
// load and after a reconnect; stale completions are guarded in the loop.
func (s *Session) Refresh(ctx context.Context) {
	go func() {
		q, err := s.api.CurrentQuestion(ctx)
		s.enqueue(func() { s.finishQuestionFetch(q, err) })
	}()
	go func() {
		rows, err := s.api.Scoreboard(ctx)
		s.enqueue(func() { s.finishScoreboardFetch(rows, err) })
	}()
}

// Close tears the session down: the countdown tick is cancelled and the
// push subscription detached. Safe to call more than once.
func (s *Session) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.timer.Stop()
	})
	return s.sub.Close()
}

// SelectOption records a multiple-choice selection on the session goroutine.
func (s *Session) SelectOption(option string) error {
	return s.runUser(func() error { return s.view.SelectOption(option) })
}

// SetInput records free-text input on the session goroutine.
func (s *Session) SetInput(text string) error {
	return s.runUser(func() error { return s.view.SetInput(text) })
}

// SubmitAnswer submits the pending answer. The submit latch engages before
// this method returns control to the event loop, so it cannot double-fire.
// Preconditions (game running, non-empty answer) fail with ValidationError
// and never reach the network.
func (s *Session) SubmitAnswer(ctx context.Context) error {
	errCh := make(chan error, 1)
	if !s.enqueueWait(func() { s.beginSubmit(ctx, errCh) }) {
		return ErrSessionClosed
	}
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrSessionClosed
	}
}

// Snapshot returns a consistent copy of the display state. A closed session
// yields the zero snapshot; state fields may only be read on the session
// goroutine.
func (s *Session) Snapshot() SessionSnapshot {
	var snap SessionSnapshot
	if !s.enqueueWait(func() { snap = s.snapshotLocked() }) {
		return SessionSnapshot{}
	}
	return snap
}

// loop runs every handler on one goroutine, one at a time.
func (s *Session) loop() {
	events := s.sub.Events()
	for {
		select {
		case <-s.done:
			return
		case fn := <-s.queue:
			fn()
		case msg, ok := <-events:
			if !ok {
				s.logger.Warn().Msg("push subscription closed")
				events = nil
				continue
			}
			s.handlePush(msg)
		}
	}
}

func (s *Session) enqueue(fn func()) bool {
	select {
	case s.queue <- fn:
		return true
	case <-s.done:
		return false
	}
}

func (s *Session) enqueueWait(fn func()) bool {
	ran := make(chan struct{})
	if !s.enqueue(func() { fn(); close(ran) }) {
		return false
	}
	select {
	case <-ran:
		return true
	case <-s.done:
		return false
	}
}

// enqueueTick must never block: it is called from the timer goroutine and,
// via Correct and Stop, from the loop itself.
func (s *Session) enqueueTick(ev TickEvent) {
	select {
	case s.queue <- func() { s.handleTick(ev) }:
	case <-s.done:
	default:
		s.logger.Warn().Str("kind", ev.Kind).Msg("event queue full, dropping tick")
	}
}

func (s *Session) runUser(fn func() error) error {
	var err error
	if !s.enqueueWait(func() { err = fn(); s.publish(UpdateQuestion) }) {
		return ErrSessionClosed
	}
	return err
}

// --- push handling ---

func (s *Session) handlePush(msg ws.Message) {
	metrics.PushEventsTotal.WithLabelValues(msg.Type).Inc()

	switch msg.Type {
	case ws.TypeNewQuestion:
		var q ws.Question
		if !s.decode(msg, &q) {
			return
		}
		s.applyStatus(ws.GameStatus{Started: q.GameStarted, Paused: q.GamePaused})
		s.showQuestion(q)

	case ws.TypeGameStatusUpdate:
		var status ws.GameStatus
		if !s.decode(msg, &status) {
			return
		}
		s.applyStatus(status)

	case ws.TypeGamePaused:
		var payload ws.GamePausedPayload
		if !s.decode(msg, &payload) {
			return
		}
		s.pausedMessage = payload.Message
		s.applyStatus(ws.GameStatus{Started: true, Paused: true})
		s.publish(UpdatePhase)

	case ws.TypeGameResumed:
		s.applyStatus(ws.GameStatus{Started: true, Paused: false})

	case ws.TypeGameStopped:
		var payload ws.GameStoppedPayload
		if !s.decode(msg, &payload) {
			return
		}
		s.handleStopped(payload)

	case ws.TypeScoreUpdate:
		var rows []ws.ScoreEntry
		if !s.decode(msg, &rows) {
			return
		}
		s.scoreboard.Update(rows)
		s.publish(UpdateScoreboard)

	case ws.TypeTeamsUpdate:
		var teams []ws.Team
		if !s.decode(msg, &teams) {
			return
		}
		s.roster.Update(teams)
		s.publish(UpdateRoster)

	case ws.TypeTimerUpdate:
		var snap ws.TimerSnapshot
		if !s.decode(msg, &snap) {
			return
		}
		s.handleTimerUpdate(snap)

	case ws.TypeTimerExpired:
		s.timer.Expire()

	default:
		s.logger.Debug().Str("type", msg.Type).Msg("ignoring unknown push event")
	}
}

func (s *Session) decode(msg ws.Message, dst any) bool {
	if err := json.Unmarshal(msg.Payload, dst); err != nil {
		s.logger.Warn().Err(err).Str("type", msg.Type).Msg("bad push payload")
		return false
	}
	return true
}

// showQuestion installs a pushed question. Whichever of fetch or push is
// processed last for a new ordinal wins; a duplicate push for the displayed
// ordinal is ignored so unsubmitted input survives.
func (s *Session) showQuestion(q ws.Question) {
	if !s.view.Show(q) {
		s.logger.Debug().Int("ordinal", q.QuestionNumber).Msg("duplicate question push ignored")
		return
	}

	if q.Timer != nil && !q.AlreadyAnswered && s.lifecycle.Active() {
		s.timer.Start(*q.Timer)
	} else {
		s.timer.Stop()
	}
	s.publish(UpdateQuestion)
}

func (s *Session) applyStatus(status ws.GameStatus) {
	prev, next := s.lifecycle.Apply(status)
	s.phaseEffects(prev, next)
}

func (s *Session) phaseEffects(prev, next string) {
	if prev == next {
		return
	}

	switch next {
	case PhasePaused:
		s.timer.Pause()
	case PhaseRunning:
		s.pausedMessage = ""
		if prev == PhasePaused {
			s.timer.Resume()
		} else {
			// New game: the stopped reveal re-arms.
			s.finalShown = false
			s.finalScoreboard = nil
		}
	case PhaseNotStarted:
		s.timer.Stop()
	}

	s.logger.Info().Str("from", prev).Str("to", next).Msg("game phase changed")
	s.publish(UpdatePhase)
}

func (s *Session) handleStopped(payload ws.GameStoppedPayload) {
	_, _ = s.lifecycle.MarkStopped()
	s.timer.Stop()

	if s.finalShown {
		// Re-pushed stopped status: the reveal already happened.
		s.publish(UpdatePhase)
		return
	}
	s.finalShown = true

	if payload.Scoreboard != nil {
		s.finalScoreboard = payload.Scoreboard
		s.publish(UpdateFinal)
		return
	}

	go func() {
		rows, err := s.api.Scoreboard(context.Background())
		s.enqueue(func() {
			if err != nil {
				s.logger.Warn().Err(err).Msg("final scoreboard fetch failed")
				return
			}
			s.finalScoreboard = rows
			s.publish(UpdateFinal)
		})
	}()
	s.publish(UpdatePhase)
}

func (s *Session) handleTimerUpdate(snap ws.TimerSnapshot) {
	switch s.timer.State() {
	case TimerRunning, TimerPaused:
		metrics.TimerCorrectionsTotal.Inc()
		s.timer.Correct(snap)
	case TimerIdle:
		// The new_question push that carried the timer was missed; the
		// periodic authoritative snapshot re-seeds the countdown.
		if s.lifecycle.Active() && s.view.Ordinal() > 0 && !s.view.Submitting() &&
			(s.view.Mode() == ViewUnansweredChoice || s.view.Mode() == ViewUnansweredBlank) {
			s.timer.Start(snap)
		}
	}
}

func (s *Session) handleTick(ev TickEvent) {
	s.publish(UpdateTimer)
}

// --- fetch completions ---

// finishQuestionFetch applies an on-demand fetch result, guarded against
// stale responses: if a push has already advanced the view past the fetched
// ordinal, the completion is a no-op.
func (s *Session) finishQuestionFetch(q *ws.Question, err error) {
	if err != nil {
		s.logger.Warn().Err(err).Msg("question fetch failed")
		return
	}
	if q == nil {
		if s.view.Ordinal() > 0 {
			// A push landed while this fetch was in flight; an empty fetch
			// result never un-shows a question.
			metrics.StaleFetchesDropped.Inc()
			return
		}
		s.view.Clear()
		s.timer.Stop()
		s.publish(UpdateQuestion)
		return
	}
	if s.view.Ordinal() > q.QuestionNumber {
		metrics.StaleFetchesDropped.Inc()
		s.logger.Debug().
			Int("fetched", q.QuestionNumber).
			Int("displayed", s.view.Ordinal()).
			Msg("stale question fetch dropped")
		return
	}

	s.applyStatus(ws.GameStatus{Started: q.GameStarted, Paused: q.GamePaused})
	s.showQuestion(*q)
}

func (s *Session) finishScoreboardFetch(rows []ws.ScoreEntry, err error) {
	if err != nil {
		s.logger.Warn().Err(err).Msg("scoreboard fetch failed")
		return
	}
	s.scoreboard.Update(rows)
	s.publish(UpdateScoreboard)
}

// --- submission ---

func (s *Session) beginSubmit(ctx context.Context, errCh chan<- error) {
	if !s.lifecycle.Active() {
		metrics.AnswerSubmissionsTotal.WithLabelValues("rejected").Inc()
		errCh <- NewValidationError("game is not currently active")
		return
	}

	answer, err := s.view.BeginSubmit()
	if err != nil {
		metrics.AnswerSubmissionsTotal.WithLabelValues("rejected").Inc()
		errCh <- err
		return
	}

	ordinal := s.view.Ordinal()
	s.publish(UpdateQuestion) // submit control now disabled

	go func() {
		res, submitErr := s.api.SubmitAnswer(ctx, answer)
		s.enqueue(func() { s.finishSubmit(ordinal, res, submitErr, errCh) })
	}()
}

func (s *Session) finishSubmit(ordinal int, res *ws.AnswerResult, err error, errCh chan<- error) {
	if s.view.Ordinal() != ordinal {
		// The game advanced while the submission was in flight. The new
		// question owns the view now; just report the outcome.
		errCh <- err
		return
	}

	if err != nil {
		metrics.AnswerSubmissionsTotal.WithLabelValues("transport_error").Inc()
		s.view.FailSubmit()
		s.publish(UpdateQuestion)
		errCh <- err
		return
	}
	if !res.Success {
		metrics.AnswerSubmissionsTotal.WithLabelValues("rejected").Inc()
		s.view.FailSubmit()
		s.publish(UpdateQuestion)
		errCh <- NewValidationError(res.Error)
		return
	}

	if predicted := s.timer.Snapshot(); s.timer.State() == TimerRunning && predicted.BonusPoints != res.BonusPoints {
		metrics.BonusDivergenceTotal.Inc()
		s.logger.Warn().
			Int("predicted", predicted.BonusPoints).
			Int("authoritative", res.BonusPoints).
			Msg("bonus prediction diverged from server award")
	}

	metrics.AnswerSubmissionsTotal.WithLabelValues("accepted").Inc()
	s.timer.Stop()
	s.view.CompleteSubmit(*res)
	s.publish(UpdateResult)
	errCh <- nil
}

// --- snapshotting ---

func (s *Session) snapshotLocked() SessionSnapshot {
	snap := SessionSnapshot{
		Phase:           s.lifecycle.Phase(),
		PausedMessage:   s.pausedMessage,
		ViewMode:        s.view.Mode(),
		PendingAnswer:   s.view.PendingAnswer(),
		SubmitEnabled:   s.view.CanSubmit() && s.lifecycle.Active(),
		Timer:           s.timer.Snapshot(),
		TimerState:      s.timer.State(),
		Scoreboard:      s.scoreboard.Entries(),
		Roster:          s.roster.Teams(),
		FinalScoreboard: s.finalScoreboard,
	}
	if q := s.view.Question(); q != nil {
		copied := *q
		snap.Question = &copied
	}
	if r := s.view.Result(); r != nil {
		copied := *r
		snap.Result = &copied
	}
	return snap
}

func (s *Session) publish(kind string) {
	s.onUpd(kind, s.snapshotLocked())
}
