package repository

import (
	"lms_backend/internal/model"

	"gorm.io/gorm"
)

type SyllabusRepository struct {
	DB *gorm.DB
}

func NewSyllabusRepository(db *gorm.DB) *SyllabusRepository {
	return &SyllabusRepository{DB: db}
}

type SyllabusFilter struct {
	Year     int
	Semester int
	Batch    string
	Section  string
}

func (r *SyllabusRepository) Create(s *model.Syllabus) error {
	return r.DB.Create(s).Error
}

func (r *SyllabusRepository) FindByID(id uint) (*model.Syllabus, error) {
	var s model.Syllabus
	err := r.DB.First(&s, id).Error
	return &s, err
}

func (r *SyllabusRepository) FindByKey(year, semester int, batch, section string) (*model.Syllabus, error) {
	var s model.Syllabus
	err := r.DB.Where("year = ? AND semester = ? AND batch = ? AND section = ?", year, semester, batch, section).
		First(&s).Error
	return &s, err
}

func (r *SyllabusRepository) List(filter SyllabusFilter) ([]model.Syllabus, error) {
	var list []model.Syllabus
	query := r.DB.Model(&model.Syllabus{})
	if filter.Year > 0 {
		query = query.Where("year = ?", filter.Year)
	}
	if filter.Semester > 0 {
		query = query.Where("semester = ?", filter.Semester)
	}
	if filter.Batch != "" {
		query = query.Where("batch = ?", filter.Batch)
	}
	if filter.Section != "" {
		query = query.Where("section = ?", filter.Section)
	}
	err := query.Order("year DESC, semester DESC, id ASC").Find(&list).Error
	return list, err
}

func (r *SyllabusRepository) Update(s *model.Syllabus) error {
	return r.DB.Save(s).Error
}

func (r *SyllabusRepository) Delete(id uint) error {
	return r.DB.Unscoped().Delete(&model.Syllabus{}, id).Error
}
