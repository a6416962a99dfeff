// Package testutil 各包测试共用的数据构造
package testutil

import (
	"fmt"
	"testing"
	"time"

	"lms_backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB 每个测试一个独立的内存 SQLite，已完成迁移
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.AllModels()...))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func CreateStudent(t testing.TB, db *gorm.DB, name, batch, section string) *model.User {
	t.Helper()
	u := &model.User{
		Name:     name,
		Email:    fmt.Sprintf("%s-%s@uni.edu", name, uuid.NewString()[:8]),
		Password: "x",
		Role:     model.Student,
		Status:   model.UserActive,
		RollNo:   name,
		Batch:    batch,
		Section:  section,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func CreateUser(t testing.TB, db *gorm.DB, name string, role model.UserRole) *model.User {
	t.Helper()
	u := &model.User{
		Name:     name,
		Email:    fmt.Sprintf("%s-%s@uni.edu", name, uuid.NewString()[:8]),
		Password: "x",
		Role:     role,
		Status:   model.UserActive,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// Question 构造单选题，选项固定为 4 个
func Question(topic string, correct, points int) model.QuizQuestion {
	return model.QuizQuestion{
		Text:          "Q on " + topic,
		Options:       []string{"a", "b", "c", "d"},
		CorrectAnswer: correct,
		Topic:         topic,
		Points:        points,
	}
}

func CreateQuiz(t testing.TB, db *gorm.DB, subject string, questions ...model.QuizQuestion) *model.Quiz {
	t.Helper()
	q := &model.Quiz{
		Title:          subject + " quiz",
		Subject:        subject,
		Questions:      questions,
		PassPercentage: 60,
		IsPublished:    true,
	}
	require.NoError(t, db.Create(q).Error)
	return q
}

// CreateAttempt 直接写入一次作答，绕过评分流程
func CreateAttempt(t testing.TB, db *gorm.DB, studentID, quizID uint, subject string, score, maxScore int, pass bool, at time.Time) *model.QuizAttempt {
	t.Helper()
	status := model.AttemptFail
	if pass {
		status = model.AttemptPass
	}
	pct := 0
	if maxScore > 0 {
		pct = score * 100 / maxScore
	}
	a := &model.QuizAttempt{
		QuizID:      quizID,
		StudentID:   studentID,
		Subject:     subject,
		Score:       score,
		MaxScore:    maxScore,
		Percentage:  pct,
		Status:      status,
		StartedAt:   at.Add(-10 * time.Minute),
		CompletedAt: at,
	}
	require.NoError(t, db.Omit("Quiz", "Student").Create(a).Error)
	return a
}
