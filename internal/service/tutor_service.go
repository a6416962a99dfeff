package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"
	"lms_backend/pkg/monitoring"
	"lms_backend/pkg/tracing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ChatSessionStore 由 mongo 仓库实现
type ChatSessionStore interface {
	Create(ctx context.Context, session *model.ChatSession) error
	FindByID(ctx context.Context, id string) (*model.ChatSession, error)
	FindByStudent(ctx context.Context, studentID uint, limit int64) ([]model.ChatSession, error)
	AppendTurns(ctx context.Context, id primitive.ObjectID, turns ...model.ChatTurn) error
}

type CreateSessionRequest struct {
	Subject string `json:"subject" binding:"required,notblank,max=100"`
	Topic   string `json:"topic" binding:"max=191"`
}

type SendMessageRequest struct {
	Content string `json:"content" binding:"required,notblank"`
}

type SendMessageResult struct {
	SessionID string         `json:"sessionId"`
	Question  model.ChatTurn `json:"question"`
	Answer    model.ChatTurn `json:"answer"`
}

type WrongAnswer struct {
	QuestionIndex  int    `json:"questionIndex"`
	Question       string `json:"question"`
	SelectedOption string `json:"selectedOption"`
	CorrectOption  string `json:"correctOption"`
	Topic          string `json:"topic"`
}

type AttemptExplanation struct {
	AttemptID    uint          `json:"attemptId"`
	QuizTitle    string        `json:"quizTitle"`
	WrongAnswers []WrongAnswer `json:"wrongAnswers"`
	Explanation  string        `json:"explanation"`
}

const (
	tutorSessionListLimit = 50
	defaultHistoryLimit   = 20
	defaultMaxMessageLen  = 2000
)

const tutorPersona = "You are a patient teaching assistant for university students. " +
	"Explain concepts step by step, check understanding with short questions, " +
	"and never simply hand over answers to graded work."

// BuildTutorSystemPrompt 把学生在该科目的薄弱点作为上下文
func BuildTutorSystemPrompt(subject, topic string, areas []model.WeakArea) string {
	var b strings.Builder
	b.WriteString(tutorPersona)
	fmt.Fprintf(&b, "\n\nSubject: %s", subject)
	if topic != "" {
		fmt.Fprintf(&b, "\nFocus topic: %s", topic)
	}

	weak := 0
	for _, a := range areas {
		if a.Status == model.WeakMastered {
			continue
		}
		if weak == 0 {
			b.WriteString("\n\nThe student has recently struggled with:")
		}
		weak++
		fmt.Fprintf(&b, "\n- %s (%s, accuracy %d%%)", a.Topic, a.Status, a.Accuracy())
		if len(a.Subtopics) > 0 {
			fmt.Fprintf(&b, "; subtopics: %s", strings.Join(a.Subtopics, ", "))
		}
		if len(a.Prerequisites) > 0 {
			fmt.Fprintf(&b, "; revisit: %s", strings.Join(a.Prerequisites, ", "))
		}
	}
	return b.String()
}

// CollectWrongAnswers 按题目顺序列出答错的题
func CollectWrongAnswers(quiz *model.Quiz, attempt *model.QuizAttempt) []WrongAnswer {
	out := []WrongAnswer{}
	for _, r := range attempt.Results {
		if r.IsCorrect || r.QuestionIndex < 0 || r.QuestionIndex >= len(quiz.Questions) {
			continue
		}
		q := quiz.Questions[r.QuestionIndex]
		out = append(out, WrongAnswer{
			QuestionIndex:  r.QuestionIndex,
			Question:       q.Text,
			SelectedOption: optionText(q, r.SelectedAnswer),
			CorrectOption:  optionText(q, q.CorrectAnswer),
			Topic:          topicOf(q),
		})
	}
	return out
}

func optionText(q model.QuizQuestion, i int) string {
	if i < 0 || i >= len(q.Options) {
		return "(no answer)"
	}
	return q.Options[i]
}

// BuildExplainPrompt 一次请求解释所有错题
func BuildExplainPrompt(quiz *model.Quiz, wrong []WrongAnswer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A student took the %s quiz \"%s\" and answered these questions incorrectly.\n", quiz.Subject, quiz.Title)
	b.WriteString("For each one, explain why the correct option is right and what misconception the chosen option suggests.\n")
	for i, w := range wrong {
		fmt.Fprintf(&b, "\n%d. [%s] %s\n   Chosen: %s\n   Correct: %s\n", i+1, w.Topic, w.Question, w.SelectedOption, w.CorrectOption)
	}
	return b.String()
}

type TutorService struct {
	Sessions         ChatSessionStore
	AI               ChatCompleter
	WeakAreas        *repository.WeakAreaRepository
	Attempts         *repository.QuizAttemptRepository
	HistoryLimit     int
	MaxMessageLength int
}

func NewTutorService(sessions ChatSessionStore, ai ChatCompleter, weakAreas *repository.WeakAreaRepository, attempts *repository.QuizAttemptRepository) *TutorService {
	return &TutorService{
		Sessions:         sessions,
		AI:               ai,
		WeakAreas:        weakAreas,
		Attempts:         attempts,
		HistoryLimit:     defaultHistoryLimit,
		MaxMessageLength: defaultMaxMessageLen,
	}
}

func (s *TutorService) CreateSession(ctx context.Context, studentID uint, req CreateSessionRequest) (*model.ChatSession, error) {
	now := time.Now()
	title := req.Subject
	if req.Topic != "" {
		title = req.Subject + " · " + req.Topic
	}
	session := &model.ChatSession{
		StudentID: studentID,
		Subject:   strings.TrimSpace(req.Subject),
		Topic:     strings.TrimSpace(req.Topic),
		Title:     title,
		Messages:  []model.ChatTurn{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *TutorService) ListSessions(ctx context.Context, studentID uint) ([]model.ChatSession, error) {
	return s.Sessions.FindByStudent(ctx, studentID, tutorSessionListLimit)
}

// GetSession 只有会话所有者可以访问
func (s *TutorService) GetSession(ctx context.Context, studentID uint, id string) (*model.ChatSession, error) {
	session, err := s.Sessions.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, util.ErrSessionNotFound)
	}
	if session.StudentID != studentID {
		return nil, util.ForbiddenError("chat session belongs to another student")
	}
	return session, nil
}

// SendMessage 调用成功后才同时保存提问与回答
func (s *TutorService) SendMessage(ctx context.Context, studentID uint, sessionID string, req SendMessageRequest) (*SendMessageResult, error) {
	ctx, span := tracing.StartSpan(ctx, "tutor.send_message", attribute.String("sessionId", sessionID))
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	content := strings.TrimSpace(req.Content)
	if s.MaxMessageLength > 0 && utf8.RuneCountInString(content) > s.MaxMessageLength {
		err = util.FieldError("content", fmt.Sprintf("message must be at most %d characters", s.MaxMessageLength))
		return nil, err
	}

	session, err := s.GetSession(ctx, studentID, sessionID)
	if err != nil {
		return nil, err
	}

	areas, err := s.WeakAreas.FindByStudent(studentID, session.Subject)
	if err != nil {
		return nil, err
	}

	messages := []AIChatMessage{{Role: string(model.ChatRoleSystem), Content: BuildTutorSystemPrompt(session.Subject, session.Topic, areas)}}
	history := session.Messages
	if s.HistoryLimit > 0 && len(history) > s.HistoryLimit {
		history = history[len(history)-s.HistoryLimit:]
	}
	for _, h := range history {
		messages = append(messages, AIChatMessage{Role: string(h.Role), Content: h.Content})
	}
	messages = append(messages, AIChatMessage{Role: string(model.ChatRoleUser), Content: content})

	reply, err := s.AI.Complete(ctx, messages)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	question := model.ChatTurn{Role: model.ChatRoleUser, Content: content, CreatedAt: now}
	answer := model.ChatTurn{Role: model.ChatRoleAssistant, Content: reply, CreatedAt: now}
	if err = s.Sessions.AppendTurns(ctx, session.ID, question, answer); err != nil {
		return nil, err
	}
	monitoring.ChatMessages.WithLabelValues("tutor").Inc()

	logger.Log.Info("Tutor reply stored",
		zap.String("sessionId", sessionID),
		zap.Uint("studentId", studentID),
		zap.Int("historyTurns", len(history)),
	)
	return &SendMessageResult{SessionID: session.ID.Hex(), Question: question, Answer: answer}, nil
}

// ExplainAttempt 解释结果直接返回，不落库
func (s *TutorService) ExplainAttempt(ctx context.Context, id util.Identity, attemptID uint) (*AttemptExplanation, error) {
	attempt, err := s.Attempts.FindByID(attemptID)
	if err != nil {
		return nil, notFoundOr(err, util.ErrAttemptNotFound)
	}
	if attempt.StudentID != id.UserID && !id.IsStaff() {
		return nil, util.ForbiddenError("cannot view another student's attempt")
	}
	if attempt.Quiz == nil {
		return nil, util.ErrQuizNotFound
	}

	wrong := CollectWrongAnswers(attempt.Quiz, attempt)
	out := &AttemptExplanation{AttemptID: attempt.ID, QuizTitle: attempt.Quiz.Title, WrongAnswers: wrong}
	if len(wrong) == 0 {
		out.Explanation = "Every question was answered correctly."
		return out, nil
	}

	reply, err := s.AI.Complete(ctx, []AIChatMessage{
		{Role: string(model.ChatRoleSystem), Content: tutorPersona},
		{Role: string(model.ChatRoleUser), Content: BuildExplainPrompt(attempt.Quiz, wrong)},
	})
	if err != nil {
		return nil, err
	}
	out.Explanation = reply
	return out, nil
}
