package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/quizwire/trivia-live/pkg/ws"
)

// CurrentQuestion fetches the question enriched for this team. A nil
// question means no further questions exist.
func (c *Client) CurrentQuestion(ctx context.Context) (*ws.Question, error) {
	var q ws.Question
	if err := c.do(ctx, http.MethodGet, "/api/question", nil, &q); err != nil {
		return nil, err
	}
	if q.QuestionNumber == 0 {
		return nil, nil
	}
	return &q, nil
}

// Scoreboard fetches the ranked scoreboard. Order is the server's ranking.
func (c *Client) Scoreboard(ctx context.Context) ([]ws.ScoreEntry, error) {
	var rows []ws.ScoreEntry
	if err := c.do(ctx, http.MethodGet, "/api/scoreboard", nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

type submitRequest struct {
	Answer string `json:"answer"`
}

// SubmitAnswer submits an answer for the current question. The result is
// consumed once and is terminal for the question on this client.
func (c *Client) SubmitAnswer(ctx context.Context, answer string) (*ws.AnswerResult, error) {
	var res ws.AnswerResult
	if err := c.do(ctx, http.MethodPost, "/api/answer", submitRequest{Answer: answer}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// PlayerStatus reports this player's team membership.
func (c *Client) PlayerStatus(ctx context.Context) (*ws.PlayerStatus, error) {
	var status ws.PlayerStatus
	if err := c.do(ctx, http.MethodGet, "/api/player/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Teams fetches the team roster.
func (c *Client) Teams(ctx context.Context) ([]ws.Team, error) {
	var teams []ws.Team
	if err := c.do(ctx, http.MethodGet, "/api/teams", nil, &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

type createTeamRequest struct {
	TeamName   string `json:"team_name"`
	PlayerName string `json:"player_name"`
}

type createTeamResponse struct {
	Success bool   `json:"success"`
	TeamID  string `json:"team_id"`
	Message string `json:"message"`
}

// CreateTeam registers a new team and returns its id. The caller should
// build a fresh client with the returned id as its identity.
func (c *Client) CreateTeam(ctx context.Context, teamName, playerName string) (string, error) {
	var res createTeamResponse
	if err := c.do(ctx, http.MethodPost, "/api/teams", createTeamRequest{TeamName: teamName, PlayerName: playerName}, &res); err != nil {
		return "", err
	}
	if !res.Success {
		return "", fmt.Errorf("create team: %s", res.Message)
	}
	return res.TeamID, nil
}

type joinTeamRequest struct {
	PlayerName string `json:"player_name"`
}

// JoinTeam adds this player to an existing team.
func (c *Client) JoinTeam(ctx context.Context, teamID string) error {
	return c.do(ctx, http.MethodPost, "/api/teams/"+teamID+"/join", joinTeamRequest{PlayerName: c.playerName}, nil)
}

// LeaveTeam removes this player from their team.
func (c *Client) LeaveTeam(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/teams/leave", nil, nil)
}
