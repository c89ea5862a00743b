package ws

import "encoding/json"

// Event type constants for the push protocol.
const (
	// Server -> Client
	TypeNewQuestion      = "new_question"
	TypeGameStatusUpdate = "game_status_update"
	TypeGameStopped      = "game_stopped"
	TypeGamePaused       = "game_paused"
	TypeGameResumed      = "game_resumed"
	TypeScoreUpdate      = "score_update"
	TypeTeamsUpdate      = "teams_update"
	TypeTimerUpdate      = "timer_update"
	TypeTimerExpired     = "timer_expired"
	TypeError            = "error"
)

// Question kind constants.
const (
	KindMultipleChoice = "multiple_choice"
	KindFillInBlank    = "fill_in_blank"
)

// Message wraps all push payloads with an event type.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewMessage marshals payload into a Message envelope.
func NewMessage(eventType string, payload any) (Message, error) {
	if payload == nil {
		return Message{Type: eventType}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: eventType, Payload: data}, nil
}

// Question is the per-question payload delivered on advance and on demand.
// CorrectAnswer is populated only in admin context. AlreadyAnswered and
// SubmittedAnswer are enriched per receiving team. The game status fields
// let a fresh fetch seed the lifecycle without a separate status call.
type Question struct {
	QuestionNumber  int            `json:"question_number"`
	TotalQuestions  int            `json:"total_questions"`
	QuestionText    string         `json:"question_text"`
	QuestionType    string         `json:"question_type"`
	Options         []string       `json:"options"`
	CorrectAnswer   string         `json:"correct_answer,omitempty"`
	AlreadyAnswered bool           `json:"already_answered"`
	SubmittedAnswer string         `json:"submitted_answer,omitempty"`
	GameStarted     bool           `json:"game_started"`
	GamePaused      bool           `json:"game_paused"`
	Timer           *TimerSnapshot `json:"timer,omitempty"`
}

// TimerSnapshot carries the countdown state. The server produces
// authoritative snapshots; the client predicts identical ones between pushes.
type TimerSnapshot struct {
	TimeRemaining int  `json:"time_remaining"`
	BonusPoints   int  `json:"bonus_points"`
	TotalTime     int  `json:"total_time"`
	Expired       bool `json:"expired"`
}

// GameStatus is the coarse started/paused pair pushed on every admin action.
type GameStatus struct {
	Started bool `json:"started"`
	Paused  bool `json:"paused"`
}

// GameStoppedPayload carries the final scoreboard for the one-time reveal.
type GameStoppedPayload struct {
	Scoreboard []ScoreEntry `json:"scoreboard"`
}

// GamePausedPayload carries the admin's pause notice.
type GamePausedPayload struct {
	Message string `json:"message"`
}

// ScoreEntry is one scoreboard row, ranked by the server.
type ScoreEntry struct {
	TeamName string   `json:"team_name"`
	Players  []string `json:"players"`
	Score    int      `json:"score"`
}

// Team is the roster projection of a team.
type Team struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Players     []string `json:"players"`
	PlayerCount int      `json:"player_count"`
	Score       int      `json:"score"`
}

// AnswerResult is the server's authoritative response to a submission.
type AnswerResult struct {
	Success       bool   `json:"success"`
	Error         string `json:"error,omitempty"`
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correct_answer"`
	PointsEarned  int    `json:"points_earned"`
	BonusPoints   int    `json:"bonus_points"`
	AnswerTime    int    `json:"answer_time"`
	TeamScore     int    `json:"team_score"`
}

// PlayerStatus reports team membership for admission control.
type PlayerStatus struct {
	HasTeam    bool     `json:"has_team"`
	TeamID     string   `json:"team_id,omitempty"`
	TeamName   string   `json:"team_name,omitempty"`
	PlayerName string   `json:"player_name,omitempty"`
	Teammates  []string `json:"teammates,omitempty"`
}

// TeamAnswerStatus is the admin's per-team view of the current question.
type TeamAnswerStatus struct {
	TeamName        string `json:"team_name"`
	HasAnswered     bool   `json:"has_answered"`
	SubmittedAnswer string `json:"submitted_answer,omitempty"`
	IsCorrect       bool   `json:"is_correct"`
}

// AnswerSummary aggregates answer progress for the admin console.
type AnswerSummary struct {
	TeamsAnswered        int `json:"teams_answered"`
	TeamsTotal           int `json:"teams_total"`
	CorrectAnswers       int `json:"correct_answers"`
	CompletionPercentage int `json:"completion_percentage"`
}

// SummarizeAnswers derives the admin aggregate from per-team answer status.
func SummarizeAnswers(teams []TeamAnswerStatus) AnswerSummary {
	summary := AnswerSummary{TeamsTotal: len(teams)}
	for _, team := range teams {
		if team.HasAnswered {
			summary.TeamsAnswered++
			if team.IsCorrect {
				summary.CorrectAnswers++
			}
		}
	}
	if summary.TeamsTotal > 0 {
		summary.CompletionPercentage = summary.TeamsAnswered * 100 / summary.TeamsTotal
	}
	return summary
}

// AdminStatus is the full admin status payload.
type AdminStatus struct {
	Started         bool               `json:"started"`
	Paused          bool               `json:"paused"`
	CurrentQuestion int                `json:"current_question"`
	TotalQuestions  int                `json:"total_questions"`
	TeamsCount      int                `json:"teams_count"`
	QuestionDetails *Question          `json:"question_details,omitempty"`
	TeamAnswers     []TeamAnswerStatus `json:"team_answers,omitempty"`
	AnswerSummary   *AnswerSummary     `json:"answer_summary,omitempty"`
	Timer           *TimerSnapshot     `json:"timer,omitempty"`
}

// ErrorPayload reports a push-protocol level error.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
