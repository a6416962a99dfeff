package service

import (
	"context"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/events"
	"lms_backend/pkg/logger"
	"lms_backend/pkg/monitoring"
	"lms_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type SubmitAttemptRequest struct {
	QuizID    uint  `json:"quizId" binding:"required"`
	Answers   []int `json:"answers" binding:"required"`
	TimeTaken int   `json:"timeTaken" binding:"min=0"`
}

type SubmitAttemptResult struct {
	Attempt   *model.QuizAttempt `json:"attempt"`
	WeakAreas []model.WeakArea   `json:"weakAreas"`
}

type AttemptGradedEvent struct {
	AttemptID  uint                `json:"attemptId"`
	QuizID     uint                `json:"quizId"`
	StudentID  uint                `json:"studentId"`
	Subject    string              `json:"subject"`
	Score      int                 `json:"score"`
	MaxScore   int                 `json:"maxScore"`
	Percentage int                 `json:"percentage"`
	Status     model.AttemptStatus `json:"status"`
}

type QuizAttemptService struct {
	Repo      *repository.QuizAttemptRepository
	QuizRepo  *repository.QuizRepository
	UserRepo  *repository.UserRepository
	WeakAreas *WeakAreaService
	Rankings  *RankingService
	Events    events.Publisher
	now       func() time.Time
}

func NewQuizAttemptService(
	repo *repository.QuizAttemptRepository,
	quizRepo *repository.QuizRepository,
	userRepo *repository.UserRepository,
	weakAreas *WeakAreaService,
	rankings *RankingService,
	publisher events.Publisher,
) *QuizAttemptService {
	return &QuizAttemptService{
		Repo:      repo,
		QuizRepo:  quizRepo,
		UserRepo:  userRepo,
		WeakAreas: weakAreas,
		Rankings:  rankings,
		Events:    publisher,
		now:       time.Now,
	}
}

// Submit 评分并保存作答，再更新薄弱点和排名；只有作答写入必须成功，后续步骤失败只记日志
func (s *QuizAttemptService) Submit(ctx context.Context, studentID uint, req SubmitAttemptRequest) (*SubmitAttemptResult, error) {
	ctx, span := tracing.StartSpan(ctx, "quiz_attempt.submit",
		attribute.Int64("studentId", int64(studentID)),
		attribute.Int64("quizId", int64(req.QuizID)),
	)
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	quiz, err := s.QuizRepo.FindByID(req.QuizID)
	if err != nil {
		err = notFoundOr(err, util.ErrQuizNotFound)
		return nil, err
	}
	student, err := s.UserRepo.FindByID(studentID)
	if err != nil {
		err = notFoundOr(err, util.ErrUserNotFound)
		return nil, err
	}
	if err = checkQuizVisible(quiz, student); err != nil {
		return nil, err
	}

	exists, err := s.Repo.Exists(studentID, quiz.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		err = util.ErrDuplicateAttempt
		return nil, err
	}

	grade, err := GradeAttempt(quiz, req.Answers)
	if err != nil {
		return nil, err
	}

	completed := s.now()
	attempt := &model.QuizAttempt{
		QuizID:         quiz.ID,
		StudentID:      studentID,
		Subject:        quiz.Subject,
		Results:        grade.Results,
		Score:          grade.Score,
		MaxScore:       grade.MaxScore,
		CorrectAnswers: grade.CorrectAnswers,
		TotalQuestions: grade.TotalQuestions,
		Percentage:     grade.Percentage,
		Status:         grade.Status,
		TimeTaken:      req.TimeTaken,
		StartedAt:      completed.Add(-time.Duration(req.TimeTaken) * time.Second),
		CompletedAt:    completed,
	}
	if err = s.Repo.Create(attempt); err != nil {
		if isDuplicate(err) {
			err = util.ErrDuplicateAttempt
		}
		return nil, err
	}
	monitoring.QuizAttempts.WithLabelValues(string(attempt.Status)).Inc()

	logger.Log.Info("Quiz attempt graded",
		zap.Uint("attemptId", attempt.ID),
		zap.Uint("studentId", studentID),
		zap.Uint("quizId", quiz.ID),
		zap.Int("score", attempt.Score),
		zap.Int("percentage", attempt.Percentage),
	)

	weak, werr := s.WeakAreas.RecordAttempt(quiz, attempt)
	if werr != nil {
		logger.Log.Error("Failed to update weak areas", zap.Uint("attemptId", attempt.ID), zap.Error(werr))
	}
	if rerr := s.Rankings.RecomputeForStudent(ctx, studentID); rerr != nil {
		logger.Log.Error("Failed to recompute rankings", zap.Uint("studentId", studentID), zap.Error(rerr))
	}
	if s.Events != nil {
		perr := s.Events.Publish(ctx, events.QuizAttemptGraded, AttemptGradedEvent{
			AttemptID:  attempt.ID,
			QuizID:     quiz.ID,
			StudentID:  studentID,
			Subject:    quiz.Subject,
			Score:      attempt.Score,
			MaxScore:   attempt.MaxScore,
			Percentage: attempt.Percentage,
			Status:     attempt.Status,
		})
		if perr != nil {
			logger.Log.Warn("Failed to publish attempt event", zap.Error(perr))
		}
	}

	return &SubmitAttemptResult{Attempt: attempt, WeakAreas: weak}, nil
}

// checkQuizVisible 只有学生能作答，且仅限已发布、面向本班的测验
func checkQuizVisible(quiz *model.Quiz, student *model.User) error {
	if !student.IsStudent() {
		return util.ForbiddenError("only students can attempt quizzes")
	}
	if !quiz.IsPublished {
		return util.ErrQuizNotFound
	}
	if quiz.Batch != "" && quiz.Batch != student.Batch {
		return util.ForbiddenError("quiz is not assigned to your batch")
	}
	if quiz.Section != "" && quiz.Section != student.Section {
		return util.ForbiddenError("quiz is not assigned to your section")
	}
	return nil
}

func (s *QuizAttemptService) ForStudent(studentID uint) ([]model.QuizAttempt, error) {
	return s.Repo.FindByStudent(studentID)
}

// Get 本人或教职工可查看
func (s *QuizAttemptService) Get(id util.Identity, attemptID uint) (*model.QuizAttempt, error) {
	attempt, err := s.Repo.FindByID(attemptID)
	if err != nil {
		return nil, notFoundOr(err, util.ErrAttemptNotFound)
	}
	if attempt.StudentID != id.UserID && !id.IsStaff() {
		return nil, util.ForbiddenError("cannot view another student's attempt")
	}
	return attempt, nil
}
