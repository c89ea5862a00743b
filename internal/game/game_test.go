package game

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizwire/trivia-live/pkg/ws"
)

func testQuestions() []Question {
	return []Question{
		{Text: "What is the capital of France?", Kind: ws.KindMultipleChoice, Options: []string{"Paris", "Lyon", "Nice"}, Answer: "Paris"},
		{Text: "What is the capital of the UK?", Kind: ws.KindMultipleChoice, Options: []string{"London", "Leeds", "York"}, Answer: "London"},
		{Text: "Name the capital of Germany.", Kind: ws.KindFillInBlank, Answer: "Berlin"},
	}
}

func newTestGame(t *testing.T) (*Game, *clockwork.FakeClock) {
	t.Helper()
	clk := clockwork.NewFakeClock()
	g := New(testQuestions(), Options{Clock: clk, Logger: zerolog.Nop()})
	return g, clk
}

func mustCreateTeam(t *testing.T, g *Game, teamName, playerName string) uuid.UUID {
	t.Helper()
	id, err := g.CreateTeam(teamName, playerName)
	require.NoError(t, err)
	return id
}

func TestCreateAndJoinTeam(t *testing.T) {
	g, _ := newTestGame(t)

	teamID := mustCreateTeam(t, g, "Alpha", "Ada")
	require.NoError(t, g.JoinTeam(teamID, "Grace"))

	status := g.PlayerStatus(teamID, "Ada")
	assert.True(t, status.HasTeam)
	assert.Equal(t, "Alpha", status.TeamName)
	assert.Equal(t, []string{"Grace"}, status.Teammates)

	assert.Error(t, g.JoinTeam(teamID, "Grace"), "duplicate join")
	assert.Error(t, g.JoinTeam(uuid.New(), "Eve"), "unknown team")
}

func TestJoinMovesPlayerBetweenTeams(t *testing.T) {
	g, _ := newTestGame(t)

	alpha := mustCreateTeam(t, g, "Alpha", "Ada")
	beta := mustCreateTeam(t, g, "Beta", "Bob")

	require.NoError(t, g.JoinTeam(beta, "Ada"))

	id, ok := g.FindPlayerTeam("Ada")
	require.True(t, ok)
	assert.Equal(t, beta, id)

	// Alpha lost its only player and is gone.
	assert.False(t, g.PlayerStatus(alpha, "Ada").HasTeam)
	teams := g.Teams()
	require.Len(t, teams, 1)
	assert.Equal(t, "Beta", teams[0].Name)
	assert.Equal(t, 2, teams[0].PlayerCount)
}

func TestLeaveTeamRemovesEmptyTeam(t *testing.T) {
	g, _ := newTestGame(t)

	teamID := mustCreateTeam(t, g, "Alpha", "Ada")
	require.NoError(t, g.LeaveTeam(teamID, "Ada"))

	assert.Empty(t, g.Teams())
	assert.Error(t, g.LeaveTeam(teamID, "Ada"))
}

func TestPlayerStatusRejectsStaleMembership(t *testing.T) {
	g, _ := newTestGame(t)

	alpha := mustCreateTeam(t, g, "Alpha", "Ada")
	beta := mustCreateTeam(t, g, "Beta", "Bob")
	require.NoError(t, g.JoinTeam(beta, "Ada"))

	// The old claim no longer matches where the player actually is.
	assert.False(t, g.PlayerStatus(alpha, "Ada").HasTeam)
	assert.True(t, g.PlayerStatus(beta, "Ada").HasTeam)
}

func TestAdminTeamManagement(t *testing.T) {
	g, _ := newTestGame(t)

	teamID := mustCreateTeam(t, g, "Alpha", "Ada")
	require.NoError(t, g.UpdateTeamName(teamID, "Alpha Prime"))
	require.NoError(t, g.AddPlayer(teamID, "Grace"))
	require.NoError(t, g.RemovePlayer(teamID, "Ada"))

	teams := g.Teams()
	require.Len(t, teams, 1)
	assert.Equal(t, "Alpha Prime", teams[0].Name)
	assert.Equal(t, []string{"Grace"}, teams[0].Players)

	require.NoError(t, g.DeleteTeam(teamID))
	assert.Empty(t, g.Teams())
	assert.Error(t, g.DeleteTeam(teamID))
}

func TestLifecycleTransitions(t *testing.T) {
	g, _ := newTestGame(t)

	assert.Error(t, g.Pause(), "pause before start")
	assert.Error(t, g.Stop(), "stop before start")

	require.NoError(t, g.Start())
	assert.Error(t, g.Start(), "double start")
	assert.Equal(t, ws.GameStatus{Started: true, Paused: false}, g.Status())

	require.NoError(t, g.Pause())
	assert.Error(t, g.Pause(), "double pause")
	assert.Equal(t, ws.GameStatus{Started: true, Paused: true}, g.Status())

	require.NoError(t, g.Resume())
	assert.Error(t, g.Resume(), "resume while running")

	require.NoError(t, g.Stop())
	assert.Equal(t, ws.GameStatus{Started: false, Paused: false}, g.Status())
}

func TestStartResetsScores(t *testing.T) {
	g, _ := newTestGame(t)
	teamID := mustCreateTeam(t, g, "Alpha", "Ada")

	require.NoError(t, g.Start())
	res := g.SubmitAnswer(teamID, "Paris")
	require.True(t, res.Success)
	require.NoError(t, g.Stop())

	require.NoError(t, g.Start())
	q := g.CurrentQuestion(teamID)
	require.NotNil(t, q)
	assert.False(t, q.AlreadyAnswered)
	assert.Equal(t, 0, g.Scoreboard()[0].Score)
}

func TestSubmitAnswerRestrictions(t *testing.T) {
	g, _ := newTestGame(t)
	teamID := mustCreateTeam(t, g, "Alpha", "Ada")

	res := g.SubmitAnswer(teamID, "Paris")
	assert.False(t, res.Success)
	assert.Equal(t, "Game has not started", res.Error)

	require.NoError(t, g.Start())

	assert.Equal(t, "Team not found", g.SubmitAnswer(uuid.New(), "Paris").Error)
	assert.Equal(t, "Answer cannot be empty", g.SubmitAnswer(teamID, "   ").Error)

	require.NoError(t, g.Pause())
	assert.Equal(t, "Game is paused", g.SubmitAnswer(teamID, "Paris").Error)
	require.NoError(t, g.Resume())

	first := g.SubmitAnswer(teamID, "first answer")
	require.True(t, first.Success)

	second := g.SubmitAnswer(teamID, "second answer")
	assert.False(t, second.Success)
	assert.Contains(t, second.Error, "already answered")

	// The enriched question reflects the recorded answer.
	q := g.CurrentQuestion(teamID)
	require.NotNil(t, q)
	assert.True(t, q.AlreadyAnswered)
	assert.Equal(t, "first answer", q.SubmittedAnswer)

	// A new question accepts answers again.
	require.NoError(t, g.Advance())
	assert.False(t, g.CurrentQuestion(teamID).AlreadyAnswered)
	assert.True(t, g.SubmitAnswer(teamID, "London").Success)
}

func TestAnswerCheckingIsCaseInsensitive(t *testing.T) {
	g, _ := newTestGame(t)
	teamID := mustCreateTeam(t, g, "Alpha", "Ada")
	require.NoError(t, g.Start())

	res := g.SubmitAnswer(teamID, "  pArIs  ")
	require.True(t, res.Success)
	assert.True(t, res.Correct)
	assert.Equal(t, "Paris", res.CorrectAnswer)
}

func TestBonusDecayAcrossTimingScenarios(t *testing.T) {
	g, clk := newTestGame(t)
	teamID := mustCreateTeam(t, g, "Alpha", "Ada")
	require.NoError(t, g.Start())

	// Quick answer inside the first bucket earns the full bonus.
	clk.Advance(1 * time.Second)
	res := g.SubmitAnswer(teamID, "Paris")
	require.True(t, res.Success)
	assert.True(t, res.Correct)
	assert.Equal(t, 6, res.BonusPoints)
	assert.Equal(t, 7, res.PointsEarned)
	assert.Equal(t, 1, res.AnswerTime)

	// 15 seconds in: one completed bucket.
	require.NoError(t, g.Advance())
	clk.Advance(15 * time.Second)
	res = g.SubmitAnswer(teamID, "London")
	require.True(t, res.Correct)
	assert.Equal(t, 5, res.BonusPoints)
	assert.Equal(t, 6, res.PointsEarned)
	assert.Equal(t, 15, res.AnswerTime)

	// 35 seconds in: three completed buckets.
	require.NoError(t, g.Advance())
	clk.Advance(35 * time.Second)
	res = g.SubmitAnswer(teamID, "Berlin")
	require.True(t, res.Correct)
	assert.Equal(t, 3, res.BonusPoints)
	assert.Equal(t, 4, res.PointsEarned)

	assert.Equal(t, 7+6+4, res.TeamScore)
}

func TestWrongAnswerEarnsNothing(t *testing.T) {
	g, _ := newTestGame(t)
	teamID := mustCreateTeam(t, g, "Alpha", "Ada")
	require.NoError(t, g.Start())

	res := g.SubmitAnswer(teamID, "Lyon")
	require.True(t, res.Success)
	assert.False(t, res.Correct)
	assert.Equal(t, 0, res.PointsEarned)
	assert.Equal(t, 0, res.BonusPoints)
	assert.Equal(t, 0, res.TeamScore)
}

func TestPauseExcludesElapsedTime(t *testing.T) {
	g, clk := newTestGame(t)
	teamID := mustCreateTeam(t, g, "Alpha", "Ada")
	require.NoError(t, g.Start())

	clk.Advance(10 * time.Second)
	require.NoError(t, g.Pause())
	clk.Advance(30 * time.Second)
	require.NoError(t, g.Resume())
	clk.Advance(2 * time.Second)

	res := g.SubmitAnswer(teamID, "Paris")
	require.True(t, res.Success)
	assert.Equal(t, 12, res.AnswerTime)
	assert.Equal(t, 5, res.BonusPoints)
}

func TestAnswerAfterExpiryEarnsBaseOnly(t *testing.T) {
	g, clk := newTestGame(t)
	teamID := mustCreateTeam(t, g, "Alpha", "Ada")
	require.NoError(t, g.Start())

	clk.Advance(70 * time.Second)
	res := g.SubmitAnswer(teamID, "Paris")
	require.True(t, res.Success)
	assert.True(t, res.Correct)
	assert.Equal(t, 0, res.BonusPoints)
	assert.Equal(t, 1, res.PointsEarned)
}

func TestTimerSnapshot(t *testing.T) {
	g, clk := newTestGame(t)

	assert.Nil(t, g.TimerSnapshot(), "no countdown before start")

	require.NoError(t, g.Start())
	snap := g.TimerSnapshot()
	require.NotNil(t, snap)
	assert.Equal(t, ws.TimerSnapshot{TimeRemaining: 60, BonusPoints: 6, TotalTime: 60}, *snap)

	clk.Advance(25 * time.Second)
	snap = g.TimerSnapshot()
	assert.Equal(t, 35, snap.TimeRemaining)
	assert.Equal(t, 4, snap.BonusPoints)

	clk.Advance(40 * time.Second)
	snap = g.TimerSnapshot()
	assert.Equal(t, 0, snap.TimeRemaining)
	assert.Equal(t, 0, snap.BonusPoints)
	assert.True(t, snap.Expired)
}

func TestAdvanceResetsCountdownWindow(t *testing.T) {
	g, clk := newTestGame(t)
	require.NoError(t, g.Start())

	clk.Advance(40 * time.Second)
	require.NoError(t, g.Advance())

	snap := g.TimerSnapshot()
	assert.Equal(t, 60, snap.TimeRemaining)
	assert.Equal(t, 6, snap.BonusPoints)
}

func TestAdvancePastLastQuestionFails(t *testing.T) {
	g, _ := newTestGame(t)
	require.NoError(t, g.Start())

	require.NoError(t, g.Advance())
	require.NoError(t, g.Advance())
	assert.Error(t, g.Advance())
}

func TestSetQuestionJumpsAndKeepsRecordedAnswers(t *testing.T) {
	g, _ := newTestGame(t)
	teamID := mustCreateTeam(t, g, "Alpha", "Ada")
	require.NoError(t, g.Start())

	require.True(t, g.SubmitAnswer(teamID, "Paris").Success)
	require.NoError(t, g.Advance())
	require.True(t, g.SubmitAnswer(teamID, "London").Success)

	// Jump back: the old answer is still on record.
	require.NoError(t, g.SetQuestion(1))
	q := g.CurrentQuestion(teamID)
	require.NotNil(t, q)
	assert.Equal(t, 1, q.QuestionNumber)
	assert.True(t, q.AlreadyAnswered)
	assert.Equal(t, "Paris", q.SubmittedAnswer)

	assert.Error(t, g.SetQuestion(0))
	assert.Error(t, g.SetQuestion(4))
}

func TestSingleQuestionGameCannotAdvance(t *testing.T) {
	clk := clockwork.NewFakeClock()
	g := New(testQuestions()[:1], Options{Clock: clk, Logger: zerolog.Nop()})
	teamID := mustCreateTeam(t, g, "Alpha", "Ada")
	require.NoError(t, g.Start())

	assert.NotNil(t, g.CurrentQuestion(teamID))
	assert.Error(t, g.Advance())
}

func TestScoreboardRanksByScoreDescending(t *testing.T) {
	g, _ := newTestGame(t)
	alpha := mustCreateTeam(t, g, "Alpha", "Ada")
	beta := mustCreateTeam(t, g, "Beta", "Bob")
	require.NoError(t, g.Start())

	require.True(t, g.SubmitAnswer(alpha, "Lyon").Success)  // wrong, 0
	require.True(t, g.SubmitAnswer(beta, "Paris").Success)  // correct, 7

	board := g.Scoreboard()
	require.Len(t, board, 2)
	assert.Equal(t, "Beta", board[0].TeamName)
	assert.Equal(t, 7, board[0].Score)
	assert.Equal(t, "Alpha", board[1].TeamName)
	assert.Equal(t, 0, board[1].Score)
}

func TestAdminStatusSummarizesAnswers(t *testing.T) {
	g, _ := newTestGame(t)
	alpha := mustCreateTeam(t, g, "Alpha", "Ada")
	_ = mustCreateTeam(t, g, "Beta", "Bob")
	require.NoError(t, g.Start())

	require.True(t, g.SubmitAnswer(alpha, "Paris").Success)

	status := g.AdminStatus()
	assert.True(t, status.Started)
	assert.Equal(t, 1, status.CurrentQuestion)
	assert.Equal(t, 3, status.TotalQuestions)
	assert.Equal(t, 2, status.TeamsCount)

	require.NotNil(t, status.QuestionDetails)
	assert.Equal(t, "Paris", status.QuestionDetails.CorrectAnswer)

	require.Len(t, status.TeamAnswers, 2)
	assert.Equal(t, "Alpha", status.TeamAnswers[0].TeamName)
	assert.True(t, status.TeamAnswers[0].HasAnswered)
	assert.True(t, status.TeamAnswers[0].IsCorrect)
	assert.False(t, status.TeamAnswers[1].HasAnswered)

	require.NotNil(t, status.AnswerSummary)
	assert.Equal(t, 1, status.AnswerSummary.TeamsAnswered)
	assert.Equal(t, 2, status.AnswerSummary.TeamsTotal)
	assert.Equal(t, 1, status.AnswerSummary.CorrectAnswers)
	assert.Equal(t, 50, status.AnswerSummary.CompletionPercentage)

	require.NotNil(t, status.Timer)
}

func TestTeamQuestionsEnrichPerTeam(t *testing.T) {
	g, _ := newTestGame(t)
	alpha := mustCreateTeam(t, g, "Alpha", "Ada")
	beta := mustCreateTeam(t, g, "Beta", "Bob")
	require.NoError(t, g.Start())

	require.True(t, g.SubmitAnswer(alpha, "Paris").Success)

	views := g.TeamQuestions()
	require.Len(t, views, 2)
	assert.True(t, views[alpha].AlreadyAnswered)
	assert.Equal(t, "Paris", views[alpha].SubmittedAnswer)
	assert.False(t, views[beta].AlreadyAnswered)
}

// --- ticker ---

type recordingPublisher struct {
	mu     sync.Mutex
	events []ws.Message
}

func (p *recordingPublisher) Broadcast(eventType string, payload any) error {
	msg, err := ws.NewMessage(eventType, payload)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.events = append(p.events, msg)
	p.mu.Unlock()
	return nil
}

func (p *recordingPublisher) byType(eventType string) []ws.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []ws.Message
	for _, msg := range p.events {
		if msg.Type == eventType {
			out = append(out, msg)
		}
	}
	return out
}

func TestTickerPushesUpdatesAndExpiresOnce(t *testing.T) {
	g, clk := newTestGame(t)
	pub := &recordingPublisher{}
	ticker := NewTicker(g, pub, zerolog.Nop())
	require.NoError(t, g.Start())

	clk.Advance(1 * time.Second)
	ticker.tick()
	updates := pub.byType(ws.TypeTimerUpdate)
	require.Len(t, updates, 1)

	var snap ws.TimerSnapshot
	require.NoError(t, json.Unmarshal(updates[0].Payload, &snap))
	assert.Equal(t, 59, snap.TimeRemaining)
	assert.Equal(t, 6, snap.BonusPoints)

	// Cross expiry: one final update plus a single timer_expired.
	clk.Advance(60 * time.Second)
	ticker.tick()
	ticker.tick()
	ticker.tick()

	assert.Len(t, pub.byType(ws.TypeTimerUpdate), 2)
	assert.Len(t, pub.byType(ws.TypeTimerExpired), 1)
}

func TestTickerSilentWhilePaused(t *testing.T) {
	g, clk := newTestGame(t)
	pub := &recordingPublisher{}
	ticker := NewTicker(g, pub, zerolog.Nop())
	require.NoError(t, g.Start())
	require.NoError(t, g.Pause())

	clk.Advance(5 * time.Second)
	ticker.tick()
	assert.Empty(t, pub.events)

	require.NoError(t, g.Resume())
	clk.Advance(1 * time.Second)
	ticker.tick()
	assert.Len(t, pub.byType(ws.TypeTimerUpdate), 1)
}

func TestTickerSilentBeforeStart(t *testing.T) {
	g, _ := newTestGame(t)
	pub := &recordingPublisher{}
	ticker := NewTicker(g, pub, zerolog.Nop())

	ticker.tick()
	assert.Empty(t, pub.events)
}
