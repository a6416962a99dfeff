package service

import (
	"context"
	"testing"

	"lms_backend/internal/model"
	"lms_backend/internal/testutil"
	"lms_backend/internal/util"
	"lms_backend/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitGradesAndRecordsWeakArea(t *testing.T) {
	f := newFixture(t)
	student := testutil.CreateStudent(t, f.db, "ana", "2022", "C")
	quiz := testutil.CreateQuiz(t, f.db, "DSA",
		testutil.Question("arrays", 0, 1),
		testutil.Question("trees", 1, 1),
		testutil.Question("arrays", 2, 2),
	)

	res, err := f.attemptSv.Submit(context.Background(), student.ID, SubmitAttemptRequest{
		QuizID:    quiz.ID,
		Answers:   []int{0, 3, 2},
		TimeTaken: 90,
	})
	require.NoError(t, err)

	a := res.Attempt
	assert.NotZero(t, a.ID)
	assert.Equal(t, 3, a.Score)
	assert.Equal(t, 4, a.MaxScore)
	assert.Equal(t, 2, a.CorrectAnswers)
	assert.Equal(t, 3, a.TotalQuestions)
	assert.Equal(t, 75, a.Percentage)
	assert.Equal(t, model.AttemptPass, a.Status)

	require.Len(t, res.WeakAreas, 1)
	w := res.WeakAreas[0]
	assert.Equal(t, "trees", w.Topic)
	assert.Equal(t, 1, w.WrongAnswersCount)
	assert.Equal(t, 1, w.TotalAttempts)
	assert.Equal(t, 0, w.Accuracy())
	assert.Equal(t, model.WeakCritical, w.Status)

	row, err := f.rankRepo.FindByStudent(student.ID)
	require.NoError(t, err)
	assert.Equal(t, 75.0, row.AverageScore)
	assert.Equal(t, 1, row.ClassRank)
	assert.Equal(t, 1, row.CurrentStreak)

	graded := f.events.OfType(events.QuizAttemptGraded)
	require.Len(t, graded, 1)
}

func TestSubmitRejectsDuplicate(t *testing.T) {
	f := newFixture(t)
	student := testutil.CreateStudent(t, f.db, "ben", "2022", "C")
	quiz := testutil.CreateQuiz(t, f.db, "DSA", testutil.Question("graphs", 0, 1))

	req := SubmitAttemptRequest{QuizID: quiz.ID, Answers: []int{0}}
	_, err := f.attemptSv.Submit(context.Background(), student.ID, req)
	require.NoError(t, err)

	_, err = f.attemptSv.Submit(context.Background(), student.ID, req)
	assert.ErrorIs(t, err, util.ErrDuplicateAttempt)
	assert.Equal(t, 409, util.StatusOf(err))
}

func TestSubmitErrors(t *testing.T) {
	f := newFixture(t)
	student := testutil.CreateStudent(t, f.db, "cy", "2022", "C")
	quiz := testutil.CreateQuiz(t, f.db, "DSA", testutil.Question("graphs", 0, 1))

	t.Run("quiz missing", func(t *testing.T) {
		_, err := f.attemptSv.Submit(context.Background(), student.ID, SubmitAttemptRequest{QuizID: 9999})
		assert.Equal(t, 404, util.StatusOf(err))
	})

	t.Run("answer out of range", func(t *testing.T) {
		_, err := f.attemptSv.Submit(context.Background(), student.ID, SubmitAttemptRequest{QuizID: quiz.ID, Answers: []int{7}})
		assert.Equal(t, 400, util.StatusOf(err))
	})

	t.Run("other section", func(t *testing.T) {
		other := testutil.CreateQuiz(t, f.db, "DSA", testutil.Question("graphs", 0, 1))
		require.NoError(t, f.db.Model(other).Update("section", "A").Error)
		_, err := f.attemptSv.Submit(context.Background(), student.ID, SubmitAttemptRequest{QuizID: other.ID, Answers: []int{0}})
		assert.Equal(t, 403, util.StatusOf(err))
	})

	t.Run("staff cannot attempt", func(t *testing.T) {
		for _, role := range []model.UserRole{model.Admin, model.Professor} {
			staff := testutil.CreateUser(t, f.db, string(role), role)
			_, err := f.attemptSv.Submit(context.Background(), staff.ID, SubmitAttemptRequest{QuizID: quiz.ID, Answers: []int{0}})
			assert.Equal(t, 403, util.StatusOf(err))

			exists, err := f.attempts.Exists(staff.ID, quiz.ID)
			require.NoError(t, err)
			assert.False(t, exists)
		}
	})

	t.Run("unpublished", func(t *testing.T) {
		draft := testutil.CreateQuiz(t, f.db, "DSA", testutil.Question("graphs", 0, 1))
		require.NoError(t, f.db.Model(draft).Update("is_published", false).Error)
		_, err := f.attemptSv.Submit(context.Background(), student.ID, SubmitAttemptRequest{QuizID: draft.ID, Answers: []int{0}})
		assert.ErrorIs(t, err, util.ErrQuizNotFound)
	})
}

func TestGetAttemptOwnership(t *testing.T) {
	f := newFixture(t)
	owner := testutil.CreateStudent(t, f.db, "dan", "2022", "C")
	other := testutil.CreateStudent(t, f.db, "eve", "2022", "C")
	prof := testutil.CreateUser(t, f.db, "prof", model.Professor)
	quiz := testutil.CreateQuiz(t, f.db, "DSA", testutil.Question("graphs", 0, 1))

	res, err := f.attemptSv.Submit(context.Background(), owner.ID, SubmitAttemptRequest{QuizID: quiz.ID, Answers: []int{0}})
	require.NoError(t, err)

	_, err = f.attemptSv.Get(util.Identity{UserID: owner.ID, Role: model.Student}, res.Attempt.ID)
	assert.NoError(t, err)
	_, err = f.attemptSv.Get(util.Identity{UserID: prof.ID, Role: model.Professor}, res.Attempt.ID)
	assert.NoError(t, err)
	_, err = f.attemptSv.Get(util.Identity{UserID: other.ID, Role: model.Student}, res.Attempt.ID)
	assert.Equal(t, 403, util.StatusOf(err))
	_, err = f.attemptSv.Get(util.Identity{UserID: owner.ID, Role: model.Student}, 424242)
	assert.ErrorIs(t, err, util.ErrAttemptNotFound)
}
