package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/testutil"
	"lms_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memorySessions struct {
	mu       sync.Mutex
	sessions map[primitive.ObjectID]*model.ChatSession
}

func newMemorySessions() *memorySessions {
	return &memorySessions{sessions: map[primitive.ObjectID]*model.ChatSession{}}
}

func (m *memorySessions) Create(_ context.Context, s *model.ChatSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = primitive.NewObjectID()
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *memorySessions) FindByID(_ context.Context, id string) (*model.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrDocumentNotFound
	}
	s, ok := m.sessions[oid]
	if !ok {
		return nil, repository.ErrDocumentNotFound
	}
	cp := *s
	cp.Messages = append([]model.ChatTurn(nil), s.Messages...)
	return &cp, nil
}

func (m *memorySessions) FindByStudent(_ context.Context, studentID uint, _ int64) ([]model.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.ChatSession{}
	for _, s := range m.sessions {
		if s.StudentID == studentID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memorySessions) AppendTurns(_ context.Context, id primitive.ObjectID, turns ...model.ChatTurn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return repository.ErrDocumentNotFound
	}
	s.Messages = append(s.Messages, turns...)
	s.UpdatedAt = time.Now()
	return nil
}

type scriptedAI struct {
	reply string
	err   error
	calls [][]AIChatMessage
}

func (a *scriptedAI) Complete(_ context.Context, messages []AIChatMessage) (string, error) {
	a.calls = append(a.calls, messages)
	return a.reply, a.err
}

func TestBuildTutorSystemPrompt(t *testing.T) {
	areas := []model.WeakArea{
		weakRow(1, "DSA", "trees", 2, 2, "bst"),
		weakRow(1, "DSA", "arrays", 0, 10),
	}
	areas[0].Prerequisites = []string{"recursion"}

	prompt := BuildTutorSystemPrompt("DSA", "trees", areas)
	assert.Contains(t, prompt, "Focus topic: trees")
	assert.Contains(t, prompt, "- trees (critical, accuracy 0%); subtopics: bst; revisit: recursion")
	assert.NotContains(t, prompt, "arrays")
}

func TestTutorConversation(t *testing.T) {
	f := newFixture(t)
	ana := testutil.CreateStudent(t, f.db, "ana", "2022", "C")
	ben := testutil.CreateStudent(t, f.db, "ben", "2022", "C")
	ai := &scriptedAI{reply: "Let's start with the root."}
	tutor := NewTutorService(newMemorySessions(), ai, f.weakRepo, f.attempts)
	ctx := context.Background()

	session, err := tutor.CreateSession(ctx, ana.ID, CreateSessionRequest{Subject: "DSA", Topic: "trees"})
	require.NoError(t, err)

	res, err := tutor.SendMessage(ctx, ana.ID, session.ID.Hex(), SendMessageRequest{Content: "what is a tree?"})
	require.NoError(t, err)
	assert.Equal(t, "Let's start with the root.", res.Answer.Content)

	_, err = tutor.SendMessage(ctx, ana.ID, session.ID.Hex(), SendMessageRequest{Content: "and a leaf?"})
	require.NoError(t, err)
	require.Len(t, ai.calls, 2)
	// system + 上一轮问答 + 本次提问
	assert.Len(t, ai.calls[1], 4)
	assert.Equal(t, "system", ai.calls[1][0].Role)

	stored, err := tutor.GetSession(ctx, ana.ID, session.ID.Hex())
	require.NoError(t, err)
	assert.Len(t, stored.Messages, 4)

	_, err = tutor.GetSession(ctx, ben.ID, session.ID.Hex())
	assert.Equal(t, 403, util.StatusOf(err))
	_, err = tutor.GetSession(ctx, ana.ID, "not-an-id")
	assert.ErrorIs(t, err, util.ErrSessionNotFound)

	tutor.MaxMessageLength = 5
	_, err = tutor.SendMessage(ctx, ana.ID, session.ID.Hex(), SendMessageRequest{Content: strings.Repeat("x", 6)})
	assert.Equal(t, 400, util.StatusOf(err))
}

func TestTutorFailedReplyStoresNothing(t *testing.T) {
	f := newFixture(t)
	ana := testutil.CreateStudent(t, f.db, "ana", "2022", "C")
	tutor := NewTutorService(newMemorySessions(), &scriptedAI{err: util.ErrAIUnavailable}, f.weakRepo, f.attempts)
	ctx := context.Background()

	session, err := tutor.CreateSession(ctx, ana.ID, CreateSessionRequest{Subject: "DSA"})
	require.NoError(t, err)
	_, err = tutor.SendMessage(ctx, ana.ID, session.ID.Hex(), SendMessageRequest{Content: "hi"})
	assert.Equal(t, 503, util.StatusOf(err))

	stored, err := tutor.GetSession(ctx, ana.ID, session.ID.Hex())
	require.NoError(t, err)
	assert.Empty(t, stored.Messages)
}

func TestExplainAttempt(t *testing.T) {
	f := newFixture(t)
	ana := testutil.CreateStudent(t, f.db, "ana", "2022", "C")
	quiz := testutil.CreateQuiz(t, f.db, "DSA",
		testutil.Question("trees", 0, 1),
		testutil.Question("graphs", 2, 1),
	)
	res, err := f.attemptSv.Submit(context.Background(), ana.ID, SubmitAttemptRequest{QuizID: quiz.ID, Answers: []int{0}})
	require.NoError(t, err)

	ai := &scriptedAI{reply: "BFS visits neighbours first."}
	tutor := NewTutorService(newMemorySessions(), ai, f.weakRepo, f.attempts)
	out, err := tutor.ExplainAttempt(context.Background(), util.Identity{UserID: ana.ID, Role: model.Student}, res.Attempt.ID)
	require.NoError(t, err)

	require.Len(t, out.WrongAnswers, 1)
	assert.Equal(t, 1, out.WrongAnswers[0].QuestionIndex)
	assert.Equal(t, "(no answer)", out.WrongAnswers[0].SelectedOption)
	assert.Equal(t, "c", out.WrongAnswers[0].CorrectOption)
	assert.Equal(t, "BFS visits neighbours first.", out.Explanation)
	require.Len(t, ai.calls, 1)
	assert.Contains(t, ai.calls[0][1].Content, "[graphs]")
}
