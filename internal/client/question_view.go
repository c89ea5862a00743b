package client

import (
	"fmt"
	"strings"

	"github.com/quizwire/trivia-live/pkg/ws"
)

// Presentation modes derived from the displayed question.
const (
	ViewEmpty            = "empty"
	ViewUnansweredChoice = "unanswered_choice"
	ViewUnansweredBlank  = "unanswered_blank"
	ViewAnswered         = "answered" // previously answered, read-only
	ViewResult           = "result"   // submission result, read-only
)

// QuestionViewState reconciles the current question from on-demand fetches
// and pushed events into one coherent display state. Questions are keyed on
// ordinal: a duplicate arrival for the displayed ordinal is ignored so
// user-entered but unsubmitted input survives. Answered and Result are
// one-way: only a question with a different ordinal re-enables editing.
type QuestionViewState struct {
	question   *ws.Question
	mode       string
	selected   string
	input      string
	submitting bool
	result     *ws.AnswerResult
}

// NewQuestionViewState starts empty.
func NewQuestionViewState() *QuestionViewState {
	return &QuestionViewState{mode: ViewEmpty}
}

// Show installs a question. It returns false and changes nothing when q has
// the same ordinal as the question already displayed.
func (v *QuestionViewState) Show(q ws.Question) bool {
	if v.question != nil && v.question.QuestionNumber == q.QuestionNumber {
		return false
	}

	v.question = &q
	v.selected = ""
	v.input = ""
	v.submitting = false
	v.result = nil

	switch {
	case q.AlreadyAnswered:
		v.mode = ViewAnswered
	case q.QuestionType == ws.KindMultipleChoice:
		v.mode = ViewUnansweredChoice
	default:
		v.mode = ViewUnansweredBlank
	}
	return true
}

// Clear drops the displayed question entirely.
func (v *QuestionViewState) Clear() {
	v.question = nil
	v.mode = ViewEmpty
	v.selected = ""
	v.input = ""
	v.submitting = false
	v.result = nil
}

// Question returns the displayed question, or nil.
func (v *QuestionViewState) Question() *ws.Question {
	return v.question
}

// Ordinal returns the displayed question number, or 0 when empty.
func (v *QuestionViewState) Ordinal() int {
	if v.question == nil {
		return 0
	}
	return v.question.QuestionNumber
}

// Mode returns the current presentation mode.
func (v *QuestionViewState) Mode() string {
	return v.mode
}

// SelectOption records a multiple-choice selection.
func (v *QuestionViewState) SelectOption(option string) error {
	if v.mode != ViewUnansweredChoice {
		return NewValidationError("no selectable options for this question")
	}
	for _, opt := range v.question.Options {
		if opt == option {
			v.selected = option
			return nil
		}
	}
	return NewValidationError(fmt.Sprintf("%q is not one of the options", option))
}

// SetInput records free-text input for a fill-in-the-blank question.
func (v *QuestionViewState) SetInput(text string) error {
	if v.mode != ViewUnansweredBlank {
		return NewValidationError("this question does not take free-text input")
	}
	v.input = text
	return nil
}

// PendingAnswer returns the trimmed answer the user would submit.
func (v *QuestionViewState) PendingAnswer() string {
	switch v.mode {
	case ViewUnansweredChoice:
		return strings.TrimSpace(v.selected)
	case ViewUnansweredBlank:
		return strings.TrimSpace(v.input)
	default:
		return ""
	}
}

// CanSubmit reports whether the submit control is enabled.
func (v *QuestionViewState) CanSubmit() bool {
	if v.submitting {
		return false
	}
	if v.mode != ViewUnansweredChoice && v.mode != ViewUnansweredBlank {
		return false
	}
	return v.PendingAnswer() != ""
}

// BeginSubmit validates the answer and latches the submitting flag in the
// same step, so a second submission cannot fire before the first resolves.
func (v *QuestionViewState) BeginSubmit() (string, error) {
	if v.mode == ViewAnswered || v.mode == ViewResult {
		return "", NewValidationError("this question has already been answered")
	}
	if v.mode == ViewEmpty {
		return "", NewValidationError("no question to answer")
	}
	if v.submitting {
		return "", NewValidationError("submission already in progress")
	}
	answer := v.PendingAnswer()
	if answer == "" {
		return "", NewValidationError("please provide an answer")
	}
	v.submitting = true
	return answer, nil
}

// FailSubmit releases the latch after a transport failure so the user can
// retry manually.
func (v *QuestionViewState) FailSubmit() {
	v.submitting = false
}

// CompleteSubmit installs the authoritative result and makes the view
// read-only for this question.
func (v *QuestionViewState) CompleteSubmit(res ws.AnswerResult) {
	v.submitting = false
	v.result = &res
	v.mode = ViewResult
}

// Result returns the answer result display data, or nil.
func (v *QuestionViewState) Result() *ws.AnswerResult {
	return v.result
}

// Submitting reports whether a submission is in flight.
func (v *QuestionViewState) Submitting() bool {
	return v.submitting
}
