package game

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/quizwire/trivia-live/internal/scoring"
	"github.com/quizwire/trivia-live/pkg/ws"
)

// DefaultQuestionSeconds is the countdown window per question.
const DefaultQuestionSeconds = 60

// Question is one quiz question loaded from a question file.
type Question struct {
	Text    string
	Kind    string // ws.KindMultipleChoice or ws.KindFillInBlank
	Options []string
	Answer  string
}

// Team is a scoring unit. Players share one score and one answer per
// question.
type Team struct {
	ID        uuid.UUID
	Name      string
	Players   []string
	Score     int
	CreatedAt time.Time

	answers map[int]answerRecord // question index -> recorded answer
}

type answerRecord struct {
	text    string
	correct bool
}

// Game holds the full authoritative state for one running quiz: teams,
// questions, the lifecycle flags, and the per-question countdown window.
// All methods are safe for concurrent use.
type Game struct {
	clock           clockwork.Clock
	logger          zerolog.Logger
	questionSeconds int

	mu        sync.RWMutex
	teams     map[uuid.UUID]*Team
	questions []Question
	current   int
	started   bool
	paused    bool

	// Countdown bookkeeping for the current question. Elapsed time excludes
	// paused intervals, so a pause freezes the authoritative clock too.
	questionStart time.Time
	pausedAt      time.Time
	pausedTotal   time.Duration
	expiredSent   bool
}

// Options configures a Game.
type Options struct {
	Clock           clockwork.Clock
	Logger          zerolog.Logger
	QuestionSeconds int
}

// New builds a game over the given question list.
func New(questions []Question, opts Options) *Game {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.QuestionSeconds <= 0 {
		opts.QuestionSeconds = DefaultQuestionSeconds
	}
	return &Game{
		clock:           opts.Clock,
		logger:          opts.Logger,
		questionSeconds: opts.QuestionSeconds,
		teams:           make(map[uuid.UUID]*Team),
		questions:       questions,
	}
}

// --- team management ---

// CreateTeam registers a new team with its first player.
func (g *Game) CreateTeam(teamName, playerName string) (uuid.UUID, error) {
	teamName = strings.TrimSpace(teamName)
	playerName = strings.TrimSpace(playerName)
	if teamName == "" {
		return uuid.Nil, fmt.Errorf("team name is required")
	}
	if playerName == "" {
		return uuid.Nil, fmt.Errorf("player name is required")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	team := &Team{
		ID:        uuid.New(),
		Name:      teamName,
		Players:   []string{playerName},
		CreatedAt: g.clock.Now(),
		answers:   make(map[int]answerRecord),
	}
	g.teams[team.ID] = team

	g.logger.Info().
		Str("team_id", team.ID.String()).
		Str("team_name", teamName).
		Str("player", playerName).
		Msg("team created")

	return team.ID, nil
}

// JoinTeam adds a player to an existing team. A player already on another
// team is moved; their old team is removed if it ends up empty.
func (g *Game) JoinTeam(teamID uuid.UUID, playerName string) error {
	playerName = strings.TrimSpace(playerName)
	if playerName == "" {
		return fmt.Errorf("player name is required")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	team, exists := g.teams[teamID]
	if !exists {
		return fmt.Errorf("team not found")
	}

	if currentID, ok := g.findPlayerTeamLocked(playerName); ok && currentID != teamID {
		g.removePlayerLocked(currentID, playerName)
	}

	for _, p := range team.Players {
		if p == playerName {
			return fmt.Errorf("player already on team")
		}
	}
	team.Players = append(team.Players, playerName)

	g.logger.Info().
		Str("team_id", teamID.String()).
		Str("player", playerName).
		Int("player_count", len(team.Players)).
		Msg("player joined team")

	return nil
}

// LeaveTeam removes a player from a team. Empty teams are deleted.
func (g *Game) LeaveTeam(teamID uuid.UUID, playerName string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	team, exists := g.teams[teamID]
	if !exists {
		return fmt.Errorf("team not found")
	}
	for _, p := range team.Players {
		if p == playerName {
			g.removePlayerLocked(teamID, playerName)
			return nil
		}
	}
	return fmt.Errorf("player not on team")
}

// FindPlayerTeam returns the team a player currently belongs to.
func (g *Game) FindPlayerTeam(playerName string) (uuid.UUID, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.findPlayerTeamLocked(playerName)
}

func (g *Game) findPlayerTeamLocked(playerName string) (uuid.UUID, bool) {
	for id, team := range g.teams {
		for _, p := range team.Players {
			if p == playerName {
				return id, true
			}
		}
	}
	return uuid.Nil, false
}

func (g *Game) removePlayerLocked(teamID uuid.UUID, playerName string) {
	team, exists := g.teams[teamID]
	if !exists {
		return
	}
	for i, p := range team.Players {
		if p == playerName {
			team.Players = append(team.Players[:i], team.Players[i+1:]...)
			break
		}
	}
	if len(team.Players) == 0 {
		delete(g.teams, teamID)
		g.logger.Info().Str("team_id", teamID.String()).Msg("empty team removed")
	}
}

// PlayerStatus validates a claimed membership and reports it. A stale team
// id or a player that moved teams reports has_team=false, which tells the
// client to leave the game view.
func (g *Game) PlayerStatus(teamID uuid.UUID, playerName string) ws.PlayerStatus {
	g.mu.RLock()
	defer g.mu.RUnlock()

	team, exists := g.teams[teamID]
	if !exists || playerName == "" {
		return ws.PlayerStatus{HasTeam: false}
	}
	currentID, ok := g.findPlayerTeamLocked(playerName)
	if !ok || currentID != teamID {
		return ws.PlayerStatus{HasTeam: false}
	}

	teammates := make([]string, 0, len(team.Players)-1)
	for _, p := range team.Players {
		if p != playerName {
			teammates = append(teammates, p)
		}
	}
	return ws.PlayerStatus{
		HasTeam:    true,
		TeamID:     teamID.String(),
		TeamName:   team.Name,
		PlayerName: playerName,
		Teammates:  teammates,
	}
}

// Teams returns the roster projection, oldest team first.
func (g *Game) Teams() []ws.Team {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]ws.Team, 0, len(g.teams))
	for _, team := range g.teams {
		out = append(out, ws.Team{
			ID:          team.ID.String(),
			Name:        team.Name,
			Players:     append([]string(nil), team.Players...),
			PlayerCount: len(team.Players),
			Score:       team.Score,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// UpdateTeamName renames a team.
func (g *Game) UpdateTeamName(teamID uuid.UUID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("team name is required")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	team, exists := g.teams[teamID]
	if !exists {
		return fmt.Errorf("team not found")
	}
	team.Name = name
	return nil
}

// AddPlayer puts a player on a team on the admin's behalf, moving them off
// any current team first.
func (g *Game) AddPlayer(teamID uuid.UUID, playerName string) error {
	return g.JoinTeam(teamID, playerName)
}

// RemovePlayer takes a player off a team on the admin's behalf.
func (g *Game) RemovePlayer(teamID uuid.UUID, playerName string) error {
	return g.LeaveTeam(teamID, playerName)
}

// DeleteTeam removes a team outright.
func (g *Game) DeleteTeam(teamID uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.teams[teamID]; !exists {
		return fmt.Errorf("team not found")
	}
	delete(g.teams, teamID)
	return nil
}

// --- lifecycle ---

// Start begins a fresh game from the first question. Scores and recorded
// answers reset.
func (g *Game) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.started {
		return fmt.Errorf("game already started")
	}
	if len(g.questions) == 0 {
		return fmt.Errorf("no questions loaded")
	}

	g.started = true
	g.paused = false
	g.current = 0
	for _, team := range g.teams {
		team.Score = 0
		team.answers = make(map[int]answerRecord)
	}
	g.resetQuestionWindowLocked()

	g.logger.Info().Int("questions", len(g.questions)).Msg("game started")
	return nil
}

// Pause suspends the game. The countdown window stops accumulating elapsed
// time until Resume.
func (g *Game) Pause() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.started {
		return fmt.Errorf("game has not started")
	}
	if g.paused {
		return fmt.Errorf("game already paused")
	}
	g.paused = true
	g.pausedAt = g.clock.Now()

	g.logger.Info().Msg("game paused")
	return nil
}

// Resume continues a paused game. Time spent paused is excluded from the
// countdown.
func (g *Game) Resume() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.started {
		return fmt.Errorf("game has not started")
	}
	if !g.paused {
		return fmt.Errorf("game is not paused")
	}
	g.paused = false
	g.pausedTotal += g.clock.Now().Sub(g.pausedAt)

	g.logger.Info().Msg("game resumed")
	return nil
}

// Stop ends the game.
func (g *Game) Stop() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.started {
		return fmt.Errorf("game has not started")
	}
	g.started = false
	g.paused = false

	g.logger.Info().Msg("game stopped")
	return nil
}

// Advance moves to the next question and restarts the countdown window.
func (g *Game) Advance() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.current >= len(g.questions)-1 {
		return fmt.Errorf("no more questions available")
	}
	g.current++
	g.resetQuestionWindowLocked()

	g.logger.Info().Int("question", g.current+1).Msg("advanced to next question")
	return nil
}

// SetQuestion jumps to a 1-based question number, forward or backward.
// Teams that answered the target question before keep that answer.
func (g *Game) SetQuestion(number int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	idx := number - 1
	if idx < 0 || idx >= len(g.questions) {
		return fmt.Errorf("question number out of range")
	}
	g.current = idx
	g.resetQuestionWindowLocked()

	g.logger.Info().Int("question", number).Msg("question set")
	return nil
}

func (g *Game) resetQuestionWindowLocked() {
	g.questionStart = g.clock.Now()
	g.pausedTotal = 0
	g.expiredSent = false
	if g.paused {
		g.pausedAt = g.questionStart
	}
}

// Status reports the coarse started/paused pair.
func (g *Game) Status() ws.GameStatus {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return ws.GameStatus{Started: g.started, Paused: g.paused}
}

// --- questions and answers ---

// CurrentQuestion builds the per-team question payload: the shared question
// enriched with the team's answer status, the lifecycle flags, and the
// countdown snapshot. Returns nil when the question list is exhausted.
func (g *Game) CurrentQuestion(teamID uuid.UUID) *ws.Question {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.currentQuestionLocked(teamID)
}

func (g *Game) currentQuestionLocked(teamID uuid.UUID) *ws.Question {
	if g.current >= len(g.questions) {
		return nil
	}
	q := g.questions[g.current]

	payload := &ws.Question{
		QuestionNumber: g.current + 1,
		TotalQuestions: len(g.questions),
		QuestionText:   q.Text,
		QuestionType:   q.Kind,
		Options:        append([]string(nil), q.Options...),
		GameStarted:    g.started,
		GamePaused:     g.paused,
		Timer:          g.timerSnapshotLocked(),
	}

	if team, exists := g.teams[teamID]; exists {
		if rec, answered := team.answers[g.current]; answered {
			payload.AlreadyAnswered = true
			payload.SubmittedAnswer = rec.text
		}
	}
	return payload
}

// TeamQuestions returns the enriched question payload for every team, for
// per-team room broadcast on question advance.
func (g *Game) TeamQuestions() map[uuid.UUID]*ws.Question {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(map[uuid.UUID]*ws.Question, len(g.teams))
	for id := range g.teams {
		if q := g.currentQuestionLocked(id); q != nil {
			out[id] = q
		}
	}
	return out
}

// SubmitAnswer records a team's answer for the current question and awards
// points. Failures are reported in-band on the result, matching the wire
// contract. A correct answer earns 1 base point plus the time bonus; answers
// after expiry still land, they just earn no bonus.
func (g *Game) SubmitAnswer(teamID uuid.UUID, answer string) *ws.AnswerResult {
	g.mu.Lock()
	defer g.mu.Unlock()

	team, exists := g.teams[teamID]
	if !exists {
		return &ws.AnswerResult{Error: "Team not found"}
	}
	if !g.started {
		return &ws.AnswerResult{Error: "Game has not started"}
	}
	if g.paused {
		return &ws.AnswerResult{Error: "Game is paused"}
	}
	if g.current >= len(g.questions) {
		return &ws.AnswerResult{Error: "No current question"}
	}
	if _, answered := team.answers[g.current]; answered {
		return &ws.AnswerResult{Error: "Your team has already answered this question"}
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return &ws.AnswerResult{Error: "Answer cannot be empty"}
	}

	question := g.questions[g.current]
	correct := checkAnswer(answer, question.Answer)
	elapsed := g.elapsedSecondsLocked()
	bonus := scoring.BonusPoints(elapsed)

	points := 0
	if correct {
		points = 1 + bonus
		team.Score += points
	}
	team.answers[g.current] = answerRecord{text: answer, correct: correct}

	g.logger.Info().
		Str("team_id", teamID.String()).
		Int("question", g.current+1).
		Bool("correct", correct).
		Int("points", points).
		Int("answer_time", elapsed).
		Msg("answer submitted")

	result := &ws.AnswerResult{
		Success:       true,
		Correct:       correct,
		CorrectAnswer: question.Answer,
		PointsEarned:  points,
		AnswerTime:    elapsed,
		TeamScore:     team.Score,
	}
	if correct {
		result.BonusPoints = bonus
	}
	return result
}

// checkAnswer compares case-insensitively after trimming both sides.
func checkAnswer(submitted, correct string) bool {
	return strings.EqualFold(strings.TrimSpace(submitted), strings.TrimSpace(correct))
}

// Scoreboard returns all teams ranked by score descending. Ties keep team
// id order so repeated calls rank identically.
func (g *Game) Scoreboard() []ws.ScoreEntry {
	g.mu.RLock()
	defer g.mu.RUnlock()

	teams := make([]*Team, 0, len(g.teams))
	for _, team := range g.teams {
		teams = append(teams, team)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].ID.String() < teams[j].ID.String() })

	entries := make([]ws.ScoreEntry, 0, len(teams))
	for _, team := range teams {
		entries = append(entries, ws.ScoreEntry{
			TeamName: team.Name,
			Players:  append([]string(nil), team.Players...),
			Score:    team.Score,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Score > entries[j].Score })
	return entries
}

// AdminStatus builds the full console payload: lifecycle, progress, the
// current question with its answer revealed, per-team answer status, the
// aggregate summary, and the countdown snapshot.
func (g *Game) AdminStatus() ws.AdminStatus {
	g.mu.RLock()
	defer g.mu.RUnlock()

	status := ws.AdminStatus{
		Started:         g.started,
		Paused:          g.paused,
		CurrentQuestion: g.current + 1,
		TotalQuestions:  len(g.questions),
		TeamsCount:      len(g.teams),
		Timer:           g.timerSnapshotLocked(),
	}

	if g.current < len(g.questions) {
		q := g.questions[g.current]
		status.QuestionDetails = &ws.Question{
			QuestionNumber: g.current + 1,
			TotalQuestions: len(g.questions),
			QuestionText:   q.Text,
			QuestionType:   q.Kind,
			Options:        append([]string(nil), q.Options...),
			CorrectAnswer:  q.Answer,
		}

		names := make([]string, 0, len(g.teams))
		byName := make(map[string]*Team, len(g.teams))
		for _, team := range g.teams {
			names = append(names, team.Name)
			byName[team.Name] = team
		}
		sort.Strings(names)
		for _, name := range names {
			team := byName[name]
			entry := ws.TeamAnswerStatus{TeamName: team.Name}
			if rec, ok := team.answers[g.current]; ok {
				entry.HasAnswered = true
				entry.SubmittedAnswer = rec.text
				entry.IsCorrect = rec.correct
			}
			status.TeamAnswers = append(status.TeamAnswers, entry)
		}

		summary := ws.SummarizeAnswers(status.TeamAnswers)
		status.AnswerSummary = &summary
	}

	return status
}

// --- countdown window ---

// elapsedSecondsLocked is elapsed wall time on the current question,
// excluding paused intervals, clamped non-negative.
func (g *Game) elapsedSecondsLocked() int {
	if !g.started || g.questionStart.IsZero() {
		return 0
	}
	end := g.clock.Now()
	if g.paused {
		end = g.pausedAt
	}
	elapsed := end.Sub(g.questionStart) - g.pausedTotal
	if elapsed < 0 {
		elapsed = 0
	}
	return int(elapsed / time.Second)
}

// TimerSnapshot returns the authoritative countdown state, or nil when no
// countdown is live.
func (g *Game) TimerSnapshot() *ws.TimerSnapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.timerSnapshotLocked()
}

func (g *Game) timerSnapshotLocked() *ws.TimerSnapshot {
	if !g.started || g.current >= len(g.questions) {
		return nil
	}
	elapsed := g.elapsedSecondsLocked()
	remaining := g.questionSeconds - elapsed
	if remaining < 0 {
		remaining = 0
	}
	snap := &ws.TimerSnapshot{
		TimeRemaining: remaining,
		BonusPoints:   scoring.BonusPoints(elapsed),
		TotalTime:     g.questionSeconds,
		Expired:       remaining == 0,
	}
	if snap.Expired {
		snap.BonusPoints = 0
	}
	return snap
}

// tickSnapshot is the Ticker's view of the countdown: the snapshot to push,
// whether a push should happen at all, and whether this tick crossed expiry.
func (g *Game) tickSnapshot() (snap *ws.TimerSnapshot, active, expiredNow bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	snap = g.timerSnapshotLocked()
	if snap == nil || g.paused {
		return nil, false, false
	}
	if snap.Expired && !g.expiredSent {
		g.expiredSent = true
		return snap, true, true
	}
	if snap.Expired {
		// Already announced; nothing left to push for this question.
		return nil, false, false
	}
	return snap, true, false
}
