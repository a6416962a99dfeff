package service

import (
	"context"
	"testing"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/testutil"
	"lms_backend/internal/util"
	"lms_backend/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRanking(t *testing.T) {
	u := rosterStudent(4, "ana")
	now := time.Now()
	attempts := []model.QuizAttempt{
		{Subject: "DSA", Score: 8, Percentage: 80, Status: model.AttemptPass},
		{Subject: "OS", Score: 7, Percentage: 70, Status: model.AttemptPass},
		{Subject: "DSA", Score: 3, Percentage: 30, Status: model.AttemptFail},
		{Subject: "DSA", Score: 9, Percentage: 90, Status: model.AttemptPass},
	}

	row := BuildRanking(&u, attempts, now)
	assert.Equal(t, uint(4), row.StudentID)
	assert.Equal(t, 4, row.QuizzesAttempted)
	assert.Equal(t, 3, row.QuizzesPassed)
	assert.Equal(t, 27, row.TotalScore)
	assert.Equal(t, 67.5, row.AverageScore)
	assert.Equal(t, 2, row.CurrentStreak)

	dsa := row.SubjectScores.Data()["DSA"]
	assert.Equal(t, 3, dsa.Attempts)
	assert.Equal(t, 2, dsa.Passed)
	assert.Equal(t, 66.67, dsa.AverageScore)

	empty := BuildRanking(&u, nil, now)
	assert.Zero(t, empty.AverageScore)
	assert.NotNil(t, empty.SubjectScores.Data())
}

func TestAssignRanksIsOrderPreserving(t *testing.T) {
	rows := []model.Ranking{
		{StudentID: 1, AverageScore: 50},
		{StudentID: 2, AverageScore: 90},
		{StudentID: 3, AverageScore: 50},
		{StudentID: 4, AverageScore: 70},
	}
	AssignRanks(rows, model.ScopeBatch)

	got := make([]uint, len(rows))
	for i, r := range rows {
		got[i] = r.StudentID
		assert.Equal(t, i+1, r.BatchRank)
	}
	assert.Equal(t, []uint{2, 4, 1, 3}, got)
}

func TestRecomputeAcrossScopes(t *testing.T) {
	f := newFixture(t)
	a := testutil.CreateStudent(t, f.db, "ana", "2022", "C")
	b := testutil.CreateStudent(t, f.db, "ben", "2022", "C")
	c := testutil.CreateStudent(t, f.db, "cy", "2022", "D")
	quiz := testutil.CreateQuiz(t, f.db, "DSA", testutil.Question("trees", 0, 1))
	now := time.Now()

	testutil.CreateAttempt(t, f.db, a.ID, quiz.ID, "DSA", 5, 10, false, now)
	testutil.CreateAttempt(t, f.db, b.ID, quiz.ID, "DSA", 9, 10, true, now)
	testutil.CreateAttempt(t, f.db, c.ID, quiz.ID, "DSA", 7, 10, true, now)

	n, err := f.rankings.RecomputeAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Len(t, f.events.OfType(events.RankingsRecomputed), 1)

	ranks := map[uint]*model.Ranking{}
	for _, s := range []*model.User{a, b, c} {
		row, err := f.rankRepo.FindByStudent(s.ID)
		require.NoError(t, err)
		ranks[s.ID] = row
	}
	assert.Equal(t, 2, ranks[a.ID].ClassRank)
	assert.Equal(t, 1, ranks[b.ID].ClassRank)
	assert.Equal(t, 1, ranks[c.ID].ClassRank)
	assert.Equal(t, 3, ranks[a.ID].BatchRank)
	assert.Equal(t, 2, ranks[c.ID].OverallRank)

	board, err := f.rankings.Leaderboard(util.Identity{UserID: a.ID, Role: model.Student}, LeaderboardQuery{})
	require.NoError(t, err)
	assert.Equal(t, model.ScopeClass, board.Type)
	require.Len(t, board.Entries, 2)
	assert.Equal(t, "ben", board.Entries[0].Name)
	assert.Equal(t, 1, board.Entries[0].Rank)
}

func TestStaffNeverRanked(t *testing.T) {
	f := newFixture(t)
	ana := testutil.CreateStudent(t, f.db, "ana", "2022", "C")
	admin := testutil.CreateUser(t, f.db, "root", model.Admin)
	quiz := testutil.CreateQuiz(t, f.db, "DSA", testutil.Question("trees", 0, 1))
	now := time.Now()

	testutil.CreateAttempt(t, f.db, ana.ID, quiz.ID, "DSA", 0, 1, false, now)
	// 历史数据里残留的教职工作答
	testutil.CreateAttempt(t, f.db, admin.ID, quiz.ID, "DSA", 1, 1, true, now)

	require.NoError(t, f.rankings.RecomputeForStudent(context.Background(), admin.ID))
	_, err := f.rankRepo.FindByStudent(admin.ID)
	assert.Error(t, err)

	n, err := f.rankings.RecomputeAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = f.rankRepo.FindByStudent(admin.ID)
	assert.Error(t, err)

	board, err := f.rankings.Leaderboard(util.Identity{UserID: admin.ID, Role: model.Admin}, LeaderboardQuery{Type: "overall"})
	require.NoError(t, err)
	require.Len(t, board.Entries, 1)
	assert.Equal(t, ana.ID, board.Entries[0].StudentID)
	assert.Equal(t, 1, board.Entries[0].Rank)
}

func TestLeaderboardValidation(t *testing.T) {
	f := newFixture(t)
	prof := testutil.CreateUser(t, f.db, "prof", model.Professor)
	id := util.Identity{UserID: prof.ID, Role: model.Professor}

	_, err := f.rankings.Leaderboard(id, LeaderboardQuery{Type: "galaxy"})
	assert.Equal(t, 400, util.StatusOf(err))

	_, err = f.rankings.Leaderboard(id, LeaderboardQuery{Type: "class", Batch: "2022"})
	assert.Equal(t, 400, util.StatusOf(err))

	board, err := f.rankings.Leaderboard(id, LeaderboardQuery{Type: "overall"})
	require.NoError(t, err)
	assert.Empty(t, board.Entries)
}
