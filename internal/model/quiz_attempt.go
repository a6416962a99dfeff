package model

import (
	"time"

	"gorm.io/datatypes"
)

type AttemptStatus string

const (
	AttemptPass AttemptStatus = "pass"
	AttemptFail AttemptStatus = "fail"
)

// Unanswered 未作答
const Unanswered = -1

type QuestionResult struct {
	QuestionIndex  int    `json:"questionIndex"`
	SelectedAnswer int    `json:"selectedAnswer"`
	CorrectAnswer  int    `json:"correctAnswer"`
	IsCorrect      bool   `json:"isCorrect"`
	Points         int    `json:"points"`
	Earned         int    `json:"earned"`
	Topic          string `json:"topic"`
	Subtopic       string `json:"subtopic,omitempty"`
}

// swagger:model QuizAttempt
type QuizAttempt struct {
	BaseModel
	QuizID         uint                                `gorm:"not null;uniqueIndex:idx_attempt_student_quiz,priority:2;index" json:"quizId"`
	Quiz           *Quiz                               `gorm:"foreignKey:QuizID" json:"quiz,omitempty"`
	StudentID      uint                                `gorm:"not null;uniqueIndex:idx_attempt_student_quiz,priority:1" json:"studentId"`
	Student        *User                               `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Subject        string                              `gorm:"size:100;index" json:"subject"`
	Results        datatypes.JSONSlice[QuestionResult] `gorm:"type:json" json:"results"`
	Score          int                                 `json:"score"`
	MaxScore       int                                 `json:"maxScore"`
	CorrectAnswers int                                 `json:"correctAnswers"`
	TotalQuestions int                                 `json:"totalQuestions"`
	Percentage     int                                 `json:"percentage"`
	Status         AttemptStatus                       `gorm:"size:10" json:"status"`
	TimeTaken      int                                 `json:"timeTaken"` // 秒
	StartedAt      time.Time                           `json:"startedAt"`
	CompletedAt    time.Time                           `gorm:"index" json:"completedAt"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

func (a *QuizAttempt) Passed() bool {
	return a.Status == AttemptPass
}
