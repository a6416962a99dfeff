package repository

import (
	"lms_backend/internal/model"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

type QuizFilter struct {
	Subject       string
	Batch         string
	Section       string
	CreatedBy     uint
	PublishedOnly bool
}

func (r *QuizRepository) Create(quiz *model.Quiz) error {
	return r.DB.Create(quiz).Error
}

func (r *QuizRepository) FindByID(id uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.First(&quiz, id).Error
	return &quiz, err
}

func (r *QuizRepository) Update(quiz *model.Quiz) error {
	return r.DB.Save(quiz).Error
}

func (r *QuizRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Quiz{}, id).Error
}

// List 未指定班级的测验对所有班级可见
func (r *QuizRepository) List(filter QuizFilter) ([]model.Quiz, error) {
	var quizzes []model.Quiz
	query := r.DB.Model(&model.Quiz{})
	if filter.Subject != "" {
		query = query.Where("subject = ?", filter.Subject)
	}
	if filter.Batch != "" {
		query = query.Where("batch = ? OR batch = '' OR batch IS NULL", filter.Batch)
	}
	if filter.Section != "" {
		query = query.Where("section = ? OR section = '' OR section IS NULL", filter.Section)
	}
	if filter.CreatedBy > 0 {
		query = query.Where("created_by = ?", filter.CreatedBy)
	}
	if filter.PublishedOnly {
		query = query.Where("is_published = ?", true)
	}
	err := query.Order("created_at DESC, id DESC").Find(&quizzes).Error
	return quizzes, err
}
