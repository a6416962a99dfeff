package repository

import (
	"lms_backend/internal/model"

	"gorm.io/gorm"
)

type QuizAttemptRepository struct {
	DB *gorm.DB
}

func NewQuizAttemptRepository(db *gorm.DB) *QuizAttemptRepository {
	return &QuizAttemptRepository{DB: db}
}

func (r *QuizAttemptRepository) Create(attempt *model.QuizAttempt) error {
	return r.DB.Omit("Quiz", "Student").Create(attempt).Error
}

func (r *QuizAttemptRepository) Exists(studentID, quizID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.QuizAttempt{}).
		Where("student_id = ? AND quiz_id = ?", studentID, quizID).
		Count(&count).Error
	return count > 0, err
}

func (r *QuizAttemptRepository) FindByID(id uint) (*model.QuizAttempt, error) {
	var attempt model.QuizAttempt
	err := r.DB.Preload("Quiz").First(&attempt, id).Error
	return &attempt, err
}

// FindByStudent 最近的在前
func (r *QuizAttemptRepository) FindByStudent(studentID uint) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	err := r.DB.Where("student_id = ?", studentID).
		Preload("Quiz", func(db *gorm.DB) *gorm.DB { return db.Select("id", "title", "subject", "unit_name") }).
		Order("completed_at DESC, id DESC").
		Find(&attempts).Error
	return attempts, err
}

// FindRecentByStudents 花名册范围内最近的 limit 次作答
func (r *QuizAttemptRepository) FindRecentByStudents(studentIDs []uint, limit int) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	if len(studentIDs) == 0 {
		return attempts, nil
	}
	err := r.DB.Where("student_id IN ?", studentIDs).
		Preload("Quiz", func(db *gorm.DB) *gorm.DB { return db.Select("id", "title", "subject", "unit_name") }).
		Order("completed_at DESC, id DESC").
		Limit(limit).
		Find(&attempts).Error
	return attempts, err
}

func (r *QuizAttemptRepository) CountByQuiz(quizID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.QuizAttempt{}).Where("quiz_id = ?", quizID).Count(&count).Error
	return count, err
}

func (r *QuizAttemptRepository) FindByQuizIDs(quizIDs []uint, limit int) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	if len(quizIDs) == 0 {
		return attempts, nil
	}
	err := r.DB.Where("quiz_id IN ?", quizIDs).
		Preload("Student").
		Order("completed_at DESC, id DESC").
		Limit(limit).
		Find(&attempts).Error
	return attempts, err
}

// StudentIDs 所有有作答记录的学生
func (r *QuizAttemptRepository) StudentIDs() ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.QuizAttempt{}).Distinct("student_id").Order("student_id").Pluck("student_id", &ids).Error
	return ids, err
}
