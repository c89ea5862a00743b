package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizwire/trivia-live/internal/api"
	"github.com/quizwire/trivia-live/internal/game"
	"github.com/quizwire/trivia-live/pkg/ws"
)

func testQuestions() []game.Question {
	return []game.Question{
		{Text: "What is the capital of France?", Kind: ws.KindMultipleChoice, Options: []string{"Paris", "Lyon", "Nice"}, Answer: "Paris"},
		{Text: "Name the capital of Germany.", Kind: ws.KindFillInBlank, Answer: "Berlin"},
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *game.Game) {
	t.Helper()
	g := game.New(testQuestions(), game.Options{
		Clock:  clockwork.NewFakeClock(),
		Logger: zerolog.Nop(),
	})
	hub := ws.NewHub(zerolog.Nop())
	srv := New(g, hub, zerolog.Nop())

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, g
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func adminPost(t *testing.T, ts *httptest.Server, path string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	resp, err := http.Post(ts.URL+path, "application/json", reader)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// nextEvent reads pushes until one of the wanted type arrives. Unrelated
// interleaved events (roster updates and so on) are skipped.
func nextEvent(t *testing.T, sub *api.Subscriber, eventType string) ws.Message {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case msg, ok := <-sub.Events():
			require.True(t, ok, "subscription closed while waiting for %s", eventType)
			if msg.Type == eventType {
				return msg
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", eventType)
		}
	}
}

func TestTeamFlow(t *testing.T) {
	ts, _ := newTestServer(t)
	ctx := context.Background()

	bootstrap := api.NewClient(ts.URL, "", "Ada", zerolog.Nop())
	teamID, err := bootstrap.CreateTeam(ctx, "Alpha", "Ada")
	require.NoError(t, err)
	require.NotEmpty(t, teamID)

	ada := api.NewClient(ts.URL, teamID, "Ada", zerolog.Nop())
	status, err := ada.PlayerStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status.HasTeam)
	assert.Equal(t, "Alpha", status.TeamName)

	bob := api.NewClient(ts.URL, teamID, "Bob", zerolog.Nop())
	require.NoError(t, bob.JoinTeam(ctx, teamID))

	teams, err := ada.Teams(ctx)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, 2, teams[0].PlayerCount)

	require.NoError(t, bob.LeaveTeam(ctx))
	teams, err = ada.Teams(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, teams[0].PlayerCount)

	// The last player leaving removes the team.
	require.NoError(t, ada.LeaveTeam(ctx))
	teams, err = bootstrap.Teams(ctx)
	require.NoError(t, err)
	assert.Empty(t, teams)
}

func TestQuestionRequiresMembership(t *testing.T) {
	ts, _ := newTestServer(t)

	anon := api.NewClient(ts.URL, "", "", zerolog.Nop())
	_, err := anon.CurrentQuestion(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No active team membership")
}

func TestGameFlowWithPushes(t *testing.T) {
	ts, _ := newTestServer(t)
	ctx := context.Background()

	bootstrap := api.NewClient(ts.URL, "", "Ada", zerolog.Nop())
	teamID, err := bootstrap.CreateTeam(ctx, "Alpha", "Ada")
	require.NoError(t, err)
	player := api.NewClient(ts.URL, teamID, "Ada", zerolog.Nop())

	sub, err := api.Subscribe(wsURL(ts), teamID, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { sub.Close() })

	// Start: every subscriber gets the status flip, the team room gets the
	// question with its countdown attached.
	resp := adminPost(t, ts, "/admin/api/game/start", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status ws.GameStatus
	require.NoError(t, json.Unmarshal(nextEvent(t, sub, ws.TypeGameStatusUpdate).Payload, &status))
	assert.True(t, status.Started)

	var q ws.Question
	require.NoError(t, json.Unmarshal(nextEvent(t, sub, ws.TypeNewQuestion).Payload, &q))
	assert.Equal(t, 1, q.QuestionNumber)
	assert.True(t, q.GameStarted)
	require.NotNil(t, q.Timer)
	assert.Equal(t, 60, q.Timer.TimeRemaining)

	// A correct submission awards base + full bonus and pushes the new
	// scoreboard to everyone.
	result, err := player.SubmitAnswer(ctx, "Paris")
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.True(t, result.Correct)
	assert.Equal(t, 7, result.PointsEarned)
	assert.Equal(t, 6, result.BonusPoints)
	assert.Equal(t, 7, result.TeamScore)

	var board []ws.ScoreEntry
	require.NoError(t, json.Unmarshal(nextEvent(t, sub, ws.TypeScoreUpdate).Payload, &board))
	require.Len(t, board, 1)
	assert.Equal(t, 7, board[0].Score)

	// The re-fetched question carries the recorded answer.
	fetched, err := player.CurrentQuestion(ctx)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.True(t, fetched.AlreadyAnswered)
	assert.Equal(t, "Paris", fetched.SubmittedAnswer)

	// Pause and resume.
	adminPost(t, ts, "/admin/api/game/pause", nil)
	var paused ws.GamePausedPayload
	require.NoError(t, json.Unmarshal(nextEvent(t, sub, ws.TypeGamePaused).Payload, &paused))
	assert.Equal(t, PausedMessage, paused.Message)

	adminPost(t, ts, "/admin/api/game/resume", nil)
	nextEvent(t, sub, ws.TypeGameResumed)

	// Resume re-sends the current question, still marked answered for us.
	require.NoError(t, json.Unmarshal(nextEvent(t, sub, ws.TypeNewQuestion).Payload, &q))
	assert.Equal(t, 1, q.QuestionNumber)
	assert.True(t, q.AlreadyAnswered)

	// Advance broadcasts a fresh question to the team room.
	adminPost(t, ts, "/admin/api/next_question", nil)
	require.NoError(t, json.Unmarshal(nextEvent(t, sub, ws.TypeNewQuestion).Payload, &q))
	assert.Equal(t, 2, q.QuestionNumber)
	assert.False(t, q.AlreadyAnswered)

	// Stop: the final scoreboard rides on the game_stopped push.
	adminPost(t, ts, "/admin/api/game/stop", nil)
	var stopped ws.GameStoppedPayload
	require.NoError(t, json.Unmarshal(nextEvent(t, sub, ws.TypeGameStopped).Payload, &stopped))
	require.Len(t, stopped.Scoreboard, 1)
	assert.Equal(t, 7, stopped.Scoreboard[0].Score)
}

func TestSetQuestionJumpsBackward(t *testing.T) {
	ts, _ := newTestServer(t)
	ctx := context.Background()

	bootstrap := api.NewClient(ts.URL, "", "Ada", zerolog.Nop())
	teamID, err := bootstrap.CreateTeam(ctx, "Alpha", "Ada")
	require.NoError(t, err)
	player := api.NewClient(ts.URL, teamID, "Ada", zerolog.Nop())

	adminPost(t, ts, "/admin/api/game/start", nil)
	_, err = player.SubmitAnswer(ctx, "Paris")
	require.NoError(t, err)
	adminPost(t, ts, "/admin/api/next_question", nil)

	resp := adminPost(t, ts, "/admin/api/set_question", map[string]int{"question_number": 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	q, err := player.CurrentQuestion(ctx)
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, 1, q.QuestionNumber)
	assert.True(t, q.AlreadyAnswered)

	resp = adminPost(t, ts, "/admin/api/set_question", map[string]int{"question_number": 99})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdminStatusEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	ctx := context.Background()

	bootstrap := api.NewClient(ts.URL, "", "Ada", zerolog.Nop())
	teamID, err := bootstrap.CreateTeam(ctx, "Alpha", "Ada")
	require.NoError(t, err)
	player := api.NewClient(ts.URL, teamID, "Ada", zerolog.Nop())

	adminPost(t, ts, "/admin/api/game/start", nil)
	_, err = player.SubmitAnswer(ctx, "Lyon")
	require.NoError(t, err)

	resp, err := http.Get(ts.URL + "/admin/api/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	var status ws.AdminStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.True(t, status.Started)
	assert.Equal(t, 1, status.CurrentQuestion)
	require.NotNil(t, status.QuestionDetails)
	assert.Equal(t, "Paris", status.QuestionDetails.CorrectAnswer)
	require.Len(t, status.TeamAnswers, 1)
	assert.True(t, status.TeamAnswers[0].HasAnswered)
	assert.False(t, status.TeamAnswers[0].IsCorrect)
}

func TestStartRequiresQuestions(t *testing.T) {
	g := game.New(nil, game.Options{Clock: clockwork.NewFakeClock(), Logger: zerolog.Nop()})
	hub := ws.NewHub(zerolog.Nop())
	srv := New(g, hub, zerolog.Nop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	resp := adminPost(t, ts, "/admin/api/game/start", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
