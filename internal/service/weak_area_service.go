package service

import (
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"
	"lms_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// TopicTally 一次作答中某个知识点的对错统计
type TopicTally struct {
	Subject       string
	Topic         string
	Wrong         int
	Correct       int
	Subtopics     []string
	Prerequisites []string
}

// TallyTopics 按知识点分组评分结果（首次出现顺序），子知识点和前置知识只取自答错的题
func TallyTopics(quiz *model.Quiz, results []model.QuestionResult) []TopicTally {
	index := make(map[string]int)
	var tallies []TopicTally

	for _, r := range results {
		if r.QuestionIndex < 0 || r.QuestionIndex >= len(quiz.Questions) {
			continue
		}
		q := quiz.Questions[r.QuestionIndex]
		topic := topicOf(q)

		i, ok := index[topic]
		if !ok {
			i = len(tallies)
			index[topic] = i
			tallies = append(tallies, TopicTally{Subject: quiz.Subject, Topic: topic})
		}

		t := &tallies[i]
		if r.IsCorrect {
			t.Correct++
			continue
		}
		t.Wrong++
		t.Subtopics = model.UnionStrings(t.Subtopics, q.Subtopic)
		t.Prerequisites = model.UnionStrings(t.Prerequisites, q.Prerequisites...)
	}
	return tallies
}

// ApplyTally 把一次作答的统计并入薄弱点记录；全对的知识点不新建记录，无需写入时返回 false
func ApplyTally(area *model.WeakArea, exists bool, tally TopicTally, quizID uint, at time.Time) bool {
	if !exists && tally.Wrong == 0 {
		return false
	}
	area.WrongAnswersCount += tally.Wrong
	area.TotalAttempts += tally.Wrong + tally.Correct
	area.Subtopics = model.UnionStrings(area.Subtopics, tally.Subtopics...)
	area.Prerequisites = model.UnionStrings(area.Prerequisites, tally.Prerequisites...)
	area.LastQuizID = quizID
	area.LastAttemptAt = at
	area.Refresh()
	return true
}

type WeakAreaService struct {
	Repo        *repository.WeakAreaRepository
	UserRepo    *repository.UserRepository
	AttemptRepo *repository.QuizAttemptRepository
}

func NewWeakAreaService(
	repo *repository.WeakAreaRepository,
	userRepo *repository.UserRepository,
	attemptRepo *repository.QuizAttemptRepository,
) *WeakAreaService {
	return &WeakAreaService{Repo: repo, UserRepo: userRepo, AttemptRepo: attemptRepo}
}

// RecordAttempt 根据评分结果更新该学生的薄弱知识点，返回写入的记录
func (s *WeakAreaService) RecordAttempt(quiz *model.Quiz, attempt *model.QuizAttempt) ([]model.WeakArea, error) {
	updated := []model.WeakArea{}
	for _, tally := range TallyTopics(quiz, attempt.Results) {
		tally := tally
		area, written, err := s.Repo.Mutate(attempt.StudentID, tally.Subject, tally.Topic,
			func(w *model.WeakArea, exists bool) bool {
				return ApplyTally(w, exists, tally, attempt.QuizID, attempt.CompletedAt)
			})
		if err != nil {
			return updated, err
		}
		if written {
			monitoring.WeakAreaUpdates.Inc()
			updated = append(updated, *area)
		}
	}

	logger.Log.Info("Weak areas updated",
		zap.Uint("studentId", attempt.StudentID),
		zap.Uint("quizId", attempt.QuizID),
		zap.Int("rows", len(updated)),
	)
	return updated, nil
}

func (s *WeakAreaService) ForStudent(studentID uint, subject string) ([]model.WeakArea, error) {
	if _, err := s.UserRepo.FindByID(studentID); err != nil {
		return nil, notFoundOr(err, util.ErrUserNotFound)
	}
	return s.Repo.FindByStudent(studentID, subject)
}
