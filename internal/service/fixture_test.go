package service

import (
	"testing"

	"lms_backend/internal/repository"
	"lms_backend/internal/testutil"
	"lms_backend/pkg/events"

	"gorm.io/gorm"
)

type fixture struct {
	db        *gorm.DB
	events    *events.RecordingPublisher
	users     *repository.UserRepository
	quizzes   *repository.QuizRepository
	attempts  *repository.QuizAttemptRepository
	weakRepo  *repository.WeakAreaRepository
	rankRepo  *repository.RankingRepository
	weak      *WeakAreaService
	rankings  *RankingService
	attemptSv *QuizAttemptService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := &fixture{
		db:       db,
		events:   events.NewRecordingPublisher(),
		users:    repository.NewUserRepository(db),
		quizzes:  repository.NewQuizRepository(db),
		attempts: repository.NewQuizAttemptRepository(db),
		weakRepo: repository.NewWeakAreaRepository(db),
		rankRepo: repository.NewRankingRepository(db),
	}
	f.weak = NewWeakAreaService(f.weakRepo, f.users, f.attempts)
	f.rankings = NewRankingService(f.rankRepo, f.users, f.attempts, f.events)
	f.attemptSv = NewQuizAttemptService(f.attempts, f.quizzes, f.users, f.weak, f.rankings, f.events)
	return f
}
