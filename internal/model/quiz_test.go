package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuizMaxScoreAndAnswerStripping(t *testing.T) {
	q := Quiz{
		Questions: []QuizQuestion{
			{Text: "a", Options: []string{"x", "y"}, CorrectAnswer: 1, Points: 2, Explanation: "because"},
			{Text: "b", Options: []string{"x", "y"}, CorrectAnswer: 0},
		},
	}
	assert.Equal(t, 3, q.MaxScore())

	public := q.WithoutAnswers()
	for _, question := range public.Questions {
		assert.Equal(t, -1, question.CorrectAnswer)
		assert.Empty(t, question.Explanation)
	}
	// 原对象不受影响
	assert.Equal(t, 1, q.Questions[0].CorrectAnswer)
}
