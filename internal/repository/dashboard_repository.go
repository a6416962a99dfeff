package repository

import (
	"lms_backend/internal/model"

	"gorm.io/gorm"
)

type DashboardRepository struct {
	DB *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) *DashboardRepository {
	return &DashboardRepository{DB: db}
}

// QuizStat 教师名下每份测验的作答汇总
type QuizStat struct {
	QuizID            uint    `json:"quizId"`
	Title             string  `json:"title"`
	Subject           string  `json:"subject"`
	IsPublished       bool    `json:"isPublished"`
	Attempts          int64   `json:"attempts"`
	Passed            int64   `json:"passed"`
	AveragePercentage float64 `json:"averagePercentage"`
}

func (r *DashboardRepository) QuizStatsByCreator(creatorID uint) ([]QuizStat, error) {
	var rows []QuizStat
	err := r.DB.Model(&model.Quiz{}).
		Select(`quizzes.id AS quiz_id, quizzes.title, quizzes.subject, quizzes.is_published,
			COUNT(quiz_attempts.id) AS attempts,
			COALESCE(SUM(CASE WHEN quiz_attempts.status = ? THEN 1 ELSE 0 END), 0) AS passed,
			COALESCE(AVG(quiz_attempts.percentage), 0) AS average_percentage`, model.AttemptPass).
		Joins("LEFT JOIN quiz_attempts ON quiz_attempts.quiz_id = quizzes.id AND quiz_attempts.deleted_at IS NULL").
		Where("quizzes.created_by = ?", creatorID).
		Group("quizzes.id, quizzes.title, quizzes.subject, quizzes.is_published").
		Order("quizzes.id DESC").
		Scan(&rows).Error
	return rows, err
}
