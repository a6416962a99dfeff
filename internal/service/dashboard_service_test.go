package service

import (
	"context"
	"testing"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/testutil"
	"lms_backend/internal/util"
	"lms_backend/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardByRole(t *testing.T) {
	f := newFixture(t)
	prof := testutil.CreateUser(t, f.db, "prof", model.Professor)
	admin := testutil.CreateUser(t, f.db, "root", model.Admin)
	ana := testutil.CreateStudent(t, f.db, "ana", "2022", "C")
	ben := testutil.CreateStudent(t, f.db, "ben", "2022", "C")
	require.NoError(t, f.db.Model(ben).Update("status", model.UserPending).Error)

	quiz := testutil.CreateQuiz(t, f.db, "DSA",
		testutil.Question("arrays", 0, 1),
		testutil.Question("trees", 1, 1),
	)
	require.NoError(t, f.db.Model(quiz).Update("created_by", prof.ID).Error)

	_, err := f.attemptSv.Submit(context.Background(), ana.ID, SubmitAttemptRequest{QuizID: quiz.ID, Answers: []int{0, 3}})
	require.NoError(t, err)

	syllabuses := repository.NewSyllabusRepository(f.db)
	_, err = NewSyllabusService(syllabuses, f.users, events.NewRecordingPublisher()).Create(prof.ID, sampleSyllabusRequest())
	require.NoError(t, err)

	changes := repository.NewChangeRequestRepository(f.db)
	_, err = NewChangeRequestService(changes, f.users).Submit(ana.ID, ChangeRequestInput{
		Changes: map[string]string{"name": "Ana Maria"},
		Reason:  "legal name",
	})
	require.NoError(t, err)

	svc := NewDashboardService(f.users, f.attempts, f.weakRepo, f.rankRepo, syllabuses, changes, repository.NewDashboardRepository(f.db))

	t.Run("student", func(t *testing.T) {
		d, err := svc.Get(util.Identity{UserID: ana.ID, Role: model.Student})
		require.NoError(t, err)
		require.NotNil(t, d.Student)
		assert.Nil(t, d.Professor)
		assert.Len(t, d.Student.RecentAttempts, 1)
		assert.EqualValues(t, 1, d.Student.WeakAreaCounts[model.WeakCritical])
		assert.EqualValues(t, 0, d.Student.WeakAreaCounts[model.WeakMastered])
		require.NotNil(t, d.Student.Ranking)
		assert.Equal(t, 1, d.Student.Ranking.ClassRank)
		require.Len(t, d.Student.SyllabusProgress, 1)
		assert.Equal(t, 1, d.Student.SyllabusProgress[0].Completed)
		assert.Equal(t, 3, d.Student.SyllabusProgress[0].Total)
		assert.Equal(t, 33, d.Student.SyllabusProgress[0].Percent)
	})

	t.Run("student without attempts", func(t *testing.T) {
		d, err := svc.Get(util.Identity{UserID: ben.ID, Role: model.Student})
		require.NoError(t, err)
		assert.Empty(t, d.Student.RecentAttempts)
		assert.Nil(t, d.Student.Ranking)
	})

	t.Run("professor", func(t *testing.T) {
		d, err := svc.Get(util.Identity{UserID: prof.ID, Role: model.Professor})
		require.NoError(t, err)
		require.Len(t, d.Professor.Quizzes, 1)
		assert.EqualValues(t, 1, d.Professor.Quizzes[0].Attempts)
		assert.EqualValues(t, 0, d.Professor.Quizzes[0].Passed)
		assert.InDelta(t, 50, d.Professor.Quizzes[0].AveragePercentage, 0.01)
		assert.EqualValues(t, 1, d.Professor.TotalAttempts)
		assert.Len(t, d.Professor.Recent, 1)
	})

	t.Run("admin", func(t *testing.T) {
		d, err := svc.Get(util.Identity{UserID: admin.ID, Role: model.Admin})
		require.NoError(t, err)
		assert.EqualValues(t, 1, d.Admin.PendingUsers)
		assert.EqualValues(t, 1, d.Admin.PendingChangeRequests)
		assert.NotEmpty(t, d.Admin.Users)
	})
}
