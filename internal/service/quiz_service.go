package service

import (
	"fmt"
	"strings"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"

	"go.uber.org/zap"
)

type QuestionRequest struct {
	Text          string   `json:"text" binding:"required,notblank"`
	Options       []string `json:"options" binding:"required,min=2,dive,required"`
	CorrectAnswer int      `json:"correctAnswer" binding:"min=0"`
	Topic         string   `json:"topic" binding:"max=191"`
	Subtopic      string   `json:"subtopic"`
	Prerequisites []string `json:"prerequisites"`
	Difficulty    string   `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	Points        *int     `json:"points" binding:"omitempty,min=1"`
	Explanation   string   `json:"explanation"`
}

type QuizRequest struct {
	Title          string            `json:"title" binding:"required,notblank,max=255"`
	Subject        string            `json:"subject" binding:"required,notblank,max=100"`
	UnitName       string            `json:"unitName" binding:"max=100"`
	Questions      []QuestionRequest `json:"questions" binding:"required,min=1,dive"`
	Duration       int               `json:"duration" binding:"omitempty,min=1,max=600"`
	PassPercentage *int              `json:"passPercentage" binding:"omitempty,min=0,max=100"`
	Batch          string            `json:"batch" binding:"max=20"`
	Section        string            `json:"section" binding:"max=20"`
	IsPublished    *bool             `json:"isPublished"`
}

type QuizListQuery struct {
	Subject string `form:"subject"`
	Batch   string `form:"batch"`
	Section string `form:"section"`
	Mine    bool   `form:"mine"`
}

const (
	defaultQuizDuration = 30
	defaultPassPercent  = 60
)

// BuildQuestions 校验并转换题目，binding 无法表达的约束在这里检查
func BuildQuestions(reqs []QuestionRequest) ([]model.QuizQuestion, error) {
	out := make([]model.QuizQuestion, len(reqs))
	for i, r := range reqs {
		if r.CorrectAnswer < 0 || r.CorrectAnswer >= len(r.Options) {
			return nil, util.FieldError(fmt.Sprintf("questions[%d].correctAnswer", i),
				fmt.Sprintf("must be an option index below %d", len(r.Options)))
		}
		points := 1
		if r.Points != nil {
			if *r.Points < 1 {
				return nil, util.FieldError(fmt.Sprintf("questions[%d].points", i), "points must be at least 1")
			}
			points = *r.Points
		}
		out[i] = model.QuizQuestion{
			Text:          strings.TrimSpace(r.Text),
			Options:       r.Options,
			CorrectAnswer: r.CorrectAnswer,
			Topic:         strings.TrimSpace(r.Topic),
			Subtopic:      strings.TrimSpace(r.Subtopic),
			Prerequisites: model.UnionStrings(nil, r.Prerequisites...),
			Difficulty:    model.Difficulty(r.Difficulty),
			Points:        points,
			Explanation:   r.Explanation,
		}
	}
	return out, nil
}

func applyQuizRequest(quiz *model.Quiz, req QuizRequest) error {
	questions, err := BuildQuestions(req.Questions)
	if err != nil {
		return err
	}
	quiz.Title = strings.TrimSpace(req.Title)
	quiz.Subject = strings.TrimSpace(req.Subject)
	quiz.UnitName = req.UnitName
	quiz.Questions = questions
	quiz.Duration = req.Duration
	if quiz.Duration == 0 {
		quiz.Duration = defaultQuizDuration
	}
	quiz.PassPercentage = defaultPassPercent
	if req.PassPercentage != nil {
		quiz.PassPercentage = *req.PassPercentage
	}
	quiz.Batch = req.Batch
	quiz.Section = req.Section
	quiz.IsPublished = req.IsPublished == nil || *req.IsPublished
	return nil
}

type QuizService struct {
	Repo        *repository.QuizRepository
	AttemptRepo *repository.QuizAttemptRepository
	UserRepo    *repository.UserRepository
}

func NewQuizService(repo *repository.QuizRepository, attemptRepo *repository.QuizAttemptRepository, userRepo *repository.UserRepository) *QuizService {
	return &QuizService{Repo: repo, AttemptRepo: attemptRepo, UserRepo: userRepo}
}

func (s *QuizService) Create(authorID uint, req QuizRequest) (*model.Quiz, error) {
	quiz := &model.Quiz{CreatedBy: authorID}
	if err := applyQuizRequest(quiz, req); err != nil {
		return nil, err
	}
	if err := s.Repo.Create(quiz); err != nil {
		return nil, err
	}
	logger.Log.Info("Quiz created",
		zap.Uint("quizId", quiz.ID),
		zap.Uint("createdBy", authorID),
		zap.String("subject", quiz.Subject),
		zap.Int("questions", len(quiz.Questions)),
	)
	return quiz, nil
}

// List 学生只看到本班已发布的测验，且不含答案
func (s *QuizService) List(id util.Identity, q QuizListQuery) ([]model.Quiz, error) {
	filter := repository.QuizFilter{Subject: q.Subject, Batch: q.Batch, Section: q.Section}
	if id.Role == model.Student {
		me, err := s.UserRepo.FindByID(id.UserID)
		if err != nil {
			return nil, notFoundOr(err, util.ErrUserNotFound)
		}
		filter.Batch, filter.Section = me.Batch, me.Section
		filter.PublishedOnly = true
	} else if q.Mine {
		filter.CreatedBy = id.UserID
	}

	quizzes, err := s.Repo.List(filter)
	if err != nil {
		return nil, err
	}
	if id.Role == model.Student {
		for i := range quizzes {
			quizzes[i] = quizzes[i].WithoutAnswers()
		}
	}
	return quizzes, nil
}

func (s *QuizService) Get(id util.Identity, quizID uint) (*model.Quiz, error) {
	quiz, err := s.Repo.FindByID(quizID)
	if err != nil {
		return nil, notFoundOr(err, util.ErrQuizNotFound)
	}
	if id.Role != model.Student {
		return quiz, nil
	}

	me, err := s.UserRepo.FindByID(id.UserID)
	if err != nil {
		return nil, notFoundOr(err, util.ErrUserNotFound)
	}
	if err := checkQuizVisible(quiz, me); err != nil {
		return nil, err
	}
	stripped := quiz.WithoutAnswers()
	return &stripped, nil
}

// editable 只有出题人或管理员可修改，已有作答的测验不可变
func (s *QuizService) editable(id util.Identity, quizID uint) (*model.Quiz, error) {
	quiz, err := s.Repo.FindByID(quizID)
	if err != nil {
		return nil, notFoundOr(err, util.ErrQuizNotFound)
	}
	if quiz.CreatedBy != id.UserID && id.Role != model.Admin {
		return nil, util.ForbiddenError("only the quiz author or an admin can change this quiz")
	}
	count, err := s.AttemptRepo.CountByQuiz(quiz.ID)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, util.ErrQuizLocked
	}
	return quiz, nil
}

func (s *QuizService) Update(id util.Identity, quizID uint, req QuizRequest) (*model.Quiz, error) {
	quiz, err := s.editable(id, quizID)
	if err != nil {
		return nil, err
	}
	if err := applyQuizRequest(quiz, req); err != nil {
		return nil, err
	}
	if err := s.Repo.Update(quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *QuizService) Delete(id util.Identity, quizID uint) error {
	quiz, err := s.editable(id, quizID)
	if err != nil {
		return err
	}
	return s.Repo.Delete(quiz.ID)
}
