package service

import (
	"net/http"
	"testing"

	"lms_backend/internal/model"
	"lms_backend/internal/testutil"
	"lms_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleQuiz() *model.Quiz {
	return &model.Quiz{
		Subject:        "DSA",
		PassPercentage: 60,
		Questions: []model.QuizQuestion{
			testutil.Question("arrays", 0, 1),
			testutil.Question("linked lists", 1, 1),
			testutil.Question("trees", 2, 2),
		},
	}
}

func TestGradeAttemptPointsWeighted(t *testing.T) {
	res, err := GradeAttempt(sampleQuiz(), []int{0, 3, 2})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Score)
	assert.Equal(t, 4, res.MaxScore)
	assert.Equal(t, 2, res.CorrectAnswers)
	assert.Equal(t, 3, res.TotalQuestions)
	assert.Equal(t, 75, res.Percentage)
	assert.Equal(t, model.AttemptPass, res.Status)

	assert.True(t, res.Results[0].IsCorrect)
	assert.False(t, res.Results[1].IsCorrect)
	assert.Equal(t, 2, res.Results[2].Earned)
	assert.Equal(t, "linked lists", res.Results[1].Topic)
}

func TestGradeAttemptUnitPointsMatchesCount(t *testing.T) {
	quiz := &model.Quiz{PassPercentage: 50, Questions: []model.QuizQuestion{
		testutil.Question("a", 0, 0), testutil.Question("b", 1, 0), testutil.Question("c", 2, 0),
	}}
	res, err := GradeAttempt(quiz, []int{0, 1, 0})
	require.NoError(t, err)
	// 全部 1 分时，分数等于答对题数
	assert.Equal(t, res.CorrectAnswers, res.Score)
	assert.Equal(t, 67, res.Percentage)
}

func TestGradeAttemptPadsAndRejects(t *testing.T) {
	res, err := GradeAttempt(sampleQuiz(), []int{0})
	require.NoError(t, err)
	assert.Equal(t, model.Unanswered, res.Results[1].SelectedAnswer)
	assert.Equal(t, model.Unanswered, res.Results[2].SelectedAnswer)
	assert.Equal(t, 25, res.Percentage)
	assert.Equal(t, model.AttemptFail, res.Status)

	_, err = GradeAttempt(sampleQuiz(), []int{0, 9, 1})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, util.StatusOf(err))

	_, err = GradeAttempt(sampleQuiz(), []int{0, 1, 2, 3})
	assert.Equal(t, http.StatusBadRequest, util.StatusOf(err))

	_, err = GradeAttempt(sampleQuiz(), []int{-2, 1, 2})
	assert.Equal(t, http.StatusBadRequest, util.StatusOf(err))
}

func TestGradeAttemptPassBoundary(t *testing.T) {
	quiz := &model.Quiz{PassPercentage: 50, Questions: []model.QuizQuestion{
		testutil.Question("a", 0, 1), testutil.Question("b", 0, 1),
	}}
	res, err := GradeAttempt(quiz, []int{0, 1})
	require.NoError(t, err)
	assert.Equal(t, 50, res.Percentage)
	assert.Equal(t, model.AttemptPass, res.Status)
}
