package model

import (
	"gorm.io/datatypes"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// QuizQuestion 题目，按顺序存储在 Quiz.Questions 中
type QuizQuestion struct {
	Text          string     `json:"text"`
	Options       []string   `json:"options"`
	CorrectAnswer int        `json:"correctAnswer"`
	Topic         string     `json:"topic"`
	Subtopic      string     `json:"subtopic,omitempty"`
	Prerequisites []string   `json:"prerequisites,omitempty"`
	Difficulty    Difficulty `json:"difficulty,omitempty"`
	Points        int        `json:"points"`
	Explanation   string     `json:"explanation,omitempty"`
}

// PointValue 未设置分值时按 1 分计
func (q QuizQuestion) PointValue() int {
	if q.Points <= 0 {
		return 1
	}
	return q.Points
}

// swagger:model Quiz
type Quiz struct {
	BaseModel
	Title          string                            `gorm:"size:255;not null" json:"title"`
	Subject        string                            `gorm:"size:100;index;not null" json:"subject"`
	UnitName       string                            `gorm:"size:100" json:"unitName"`
	Questions      datatypes.JSONSlice[QuizQuestion] `gorm:"type:json" json:"questions"`
	Duration       int                               `gorm:"default:30" json:"duration"` // 分钟
	PassPercentage int                               `gorm:"default:60" json:"passPercentage"`
	Batch          string                            `gorm:"size:20;index" json:"batch,omitempty"`
	Section        string                            `gorm:"size:20" json:"section,omitempty"`
	IsPublished    bool                              `gorm:"index" json:"isPublished"`
	CreatedBy      uint                              `gorm:"index" json:"createdBy"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// MaxScore 所有题目分值之和
func (q *Quiz) MaxScore() int {
	total := 0
	for _, question := range q.Questions {
		total += question.PointValue()
	}
	return total
}

// WithoutAnswers 返回去掉答案和解析的副本，供学生查看
func (q Quiz) WithoutAnswers() Quiz {
	questions := make([]QuizQuestion, len(q.Questions))
	for i, question := range q.Questions {
		question.CorrectAnswer = -1
		question.Explanation = ""
		questions[i] = question
	}
	q.Questions = questions
	return q
}
