package service

import (
	"testing"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTallyTopics(t *testing.T) {
	quiz := &model.Quiz{Subject: "DSA", Questions: []model.QuizQuestion{
		{Topic: "trees", Subtopic: "bst", Prerequisites: []string{"recursion"}, CorrectAnswer: 0, Options: []string{"a", "b"}},
		{Topic: "", CorrectAnswer: 0, Options: []string{"a", "b"}},
		{Topic: "trees", Subtopic: "avl", CorrectAnswer: 0, Options: []string{"a", "b"}},
		{Topic: "trees", Subtopic: "heap", Prerequisites: []string{"arrays"}, CorrectAnswer: 0, Options: []string{"a", "b"}},
	}}
	grade, err := GradeAttempt(quiz, []int{1, 1, 0, 1})
	require.NoError(t, err)

	tallies := TallyTopics(quiz, grade.Results)
	require.Len(t, tallies, 2)

	assert.Equal(t, "trees", tallies[0].Topic)
	assert.Equal(t, 2, tallies[0].Wrong)
	assert.Equal(t, 1, tallies[0].Correct)
	assert.Equal(t, []string{"bst", "heap"}, tallies[0].Subtopics)
	assert.Equal(t, []string{"recursion", "arrays"}, tallies[0].Prerequisites)

	assert.Equal(t, "General", tallies[1].Topic)
	assert.Equal(t, 1, tallies[1].Wrong)
}

func TestApplyTally(t *testing.T) {
	now := time.Now()

	t.Run("correct topic never creates", func(t *testing.T) {
		var w model.WeakArea
		assert.False(t, ApplyTally(&w, false, TopicTally{Correct: 3}, 1, now))
	})

	t.Run("existing row improves", func(t *testing.T) {
		w := model.WeakArea{WrongAnswersCount: 2, TotalAttempts: 2, Status: model.WeakCritical}
		require.True(t, ApplyTally(&w, true, TopicTally{Correct: 8}, 7, now))
		assert.Equal(t, 10, w.TotalAttempts)
		assert.Equal(t, 2, w.WrongAnswersCount)
		assert.Equal(t, model.WeakImproving, w.Status)
		assert.Equal(t, uint(7), w.LastQuizID)
	})
}

func TestRecordAttemptAccumulates(t *testing.T) {
	f := newFixture(t)
	student := testutil.CreateStudent(t, f.db, "fay", "2022", "C")
	first := testutil.CreateQuiz(t, f.db, "DSA", testutil.Question("trees", 0, 1), testutil.Question("trees", 0, 1))
	second := testutil.CreateQuiz(t, f.db, "DSA", testutil.Question("trees", 0, 1), testutil.Question("trees", 0, 1))

	grade1, err := GradeAttempt(first, []int{1, 1})
	require.NoError(t, err)
	_, err = f.weak.RecordAttempt(first, &model.QuizAttempt{QuizID: first.ID, StudentID: student.ID, Results: grade1.Results, CompletedAt: time.Now()})
	require.NoError(t, err)

	grade2, err := GradeAttempt(second, []int{0, 0})
	require.NoError(t, err)
	updated, err := f.weak.RecordAttempt(second, &model.QuizAttempt{QuizID: second.ID, StudentID: student.ID, Results: grade2.Results, CompletedAt: time.Now()})
	require.NoError(t, err)
	require.Len(t, updated, 1)

	assert.Equal(t, 2, updated[0].WrongAnswersCount)
	assert.Equal(t, 4, updated[0].TotalAttempts)
	assert.Equal(t, model.WeakNeedsWork, updated[0].Status)

	rows, err := f.weak.ForStudent(student.ID, "DSA")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, second.ID, rows[0].LastQuizID)
}
