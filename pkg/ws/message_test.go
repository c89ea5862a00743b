package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeAnswers(t *testing.T) {
	teams := []TeamAnswerStatus{
		{TeamName: "Alpha", HasAnswered: true, SubmittedAnswer: "Paris", IsCorrect: true},
		{TeamName: "Beta", HasAnswered: true, SubmittedAnswer: "Lyon", IsCorrect: false},
		{TeamName: "Gamma"},
		{TeamName: "Delta"},
	}

	summary := SummarizeAnswers(teams)
	assert.Equal(t, 2, summary.TeamsAnswered)
	assert.Equal(t, 4, summary.TeamsTotal)
	assert.Equal(t, 1, summary.CorrectAnswers)
	assert.Equal(t, 50, summary.CompletionPercentage)

	assert.Equal(t, AnswerSummary{}, SummarizeAnswers(nil))
}
