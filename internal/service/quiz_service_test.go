package service

import (
	"context"
	"testing"

	"lms_backend/internal/model"
	"lms_backend/internal/testutil"
	"lms_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quizRequest() QuizRequest {
	two := 2
	return QuizRequest{
		Title:   "Trees 101",
		Subject: "DSA",
		Questions: []QuestionRequest{
			{Text: "root?", Options: []string{"a", "b", "c"}, CorrectAnswer: 1, Topic: "trees"},
			{Text: "bst?", Options: []string{"a", "b"}, CorrectAnswer: 0, Topic: "trees", Points: &two},
		},
	}
}

func TestBuildQuestions(t *testing.T) {
	qs, err := BuildQuestions(quizRequest().Questions)
	require.NoError(t, err)
	assert.Equal(t, 1, qs[0].Points)
	assert.Equal(t, 2, qs[1].Points)

	bad := quizRequest().Questions
	bad[1].CorrectAnswer = 2
	_, err = BuildQuestions(bad)
	var appErr *util.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Fields, "questions[1].correctAnswer")
}

func TestQuizVisibilityAndLocking(t *testing.T) {
	f := newFixture(t)
	svc := NewQuizService(f.quizzes, f.attempts, f.users)
	prof := testutil.CreateUser(t, f.db, "prof", model.Professor)
	other := testutil.CreateUser(t, f.db, "other", model.Professor)
	ana := testutil.CreateStudent(t, f.db, "ana", "2022", "C")
	profID := util.Identity{UserID: prof.ID, Role: model.Professor}
	anaID := util.Identity{UserID: ana.ID, Role: model.Student}

	quiz, err := svc.Create(prof.ID, quizRequest())
	require.NoError(t, err)
	assert.True(t, quiz.IsPublished)
	assert.Equal(t, 60, quiz.PassPercentage)

	draftReq := quizRequest()
	published := false
	draftReq.IsPublished = &published
	_, err = svc.Create(prof.ID, draftReq)
	require.NoError(t, err)

	list, err := svc.List(anaID, QuizListQuery{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, -1, list[0].Questions[0].CorrectAnswer)

	seen, err := svc.Get(anaID, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, -1, seen.Questions[1].CorrectAnswer)

	full, err := svc.Get(profID, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, full.Questions[0].CorrectAnswer)

	_, err = svc.Update(util.Identity{UserID: other.ID, Role: model.Professor}, quiz.ID, quizRequest())
	assert.Equal(t, 403, util.StatusOf(err))

	_, err = f.attemptSv.Submit(context.Background(), ana.ID, SubmitAttemptRequest{QuizID: quiz.ID, Answers: []int{1, 0}})
	require.NoError(t, err)

	_, err = svc.Update(profID, quiz.ID, quizRequest())
	assert.ErrorIs(t, err, util.ErrQuizLocked)
	assert.ErrorIs(t, svc.Delete(profID, quiz.ID), util.ErrQuizLocked)
}
