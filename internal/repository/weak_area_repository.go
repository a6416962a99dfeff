package repository

import (
	"errors"

	"lms_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WeakAreaRepository struct {
	DB *gorm.DB
}

func NewWeakAreaRepository(db *gorm.DB) *WeakAreaRepository {
	return &WeakAreaRepository{DB: db}
}

// WeakAreaMutation 修改已有记录或新建记录（exists=false），返回 false 表示无需写入
type WeakAreaMutation func(area *model.WeakArea, exists bool) bool

// lockWeakArea 读取时加行锁（SELECT ... FOR UPDATE），并发评分串行化在同一行上
func lockWeakArea(tx *gorm.DB, studentID uint, subject, topic string) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("student_id = ? AND subject = ? AND topic = ?", studentID, subject, topic)
}

// Mutate 在事务中锁定 (student, subject, topic) 对应记录并应用修改
// 两个请求同时新建同一行时，后者撞唯一索引，重试一次即可读到前者写入的行
func (r *WeakAreaRepository) Mutate(studentID uint, subject, topic string, fn WeakAreaMutation) (*model.WeakArea, bool, error) {
	area, written, err := r.mutateOnce(studentID, subject, topic, fn)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		area, written, err = r.mutateOnce(studentID, subject, topic, fn)
	}
	return area, written, err
}

func (r *WeakAreaRepository) mutateOnce(studentID uint, subject, topic string, fn WeakAreaMutation) (*model.WeakArea, bool, error) {
	var area model.WeakArea
	var written bool

	err := r.DB.Transaction(func(tx *gorm.DB) error {
		err := lockWeakArea(tx, studentID, subject, topic).First(&area).Error
		exists := true
		if errors.Is(err, gorm.ErrRecordNotFound) {
			exists = false
			area = model.WeakArea{StudentID: studentID, Subject: subject, Topic: topic}
		} else if err != nil {
			return err
		}

		if !fn(&area, exists) {
			return nil
		}
		written = true
		if exists {
			return tx.Omit("Student").Save(&area).Error
		}
		return tx.Omit("Student").Create(&area).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &area, written, nil
}

func (r *WeakAreaRepository) FindByStudent(studentID uint, subject string) ([]model.WeakArea, error) {
	var areas []model.WeakArea
	query := r.DB.Where("student_id = ?", studentID)
	if subject != "" {
		query = query.Where("subject = ?", subject)
	}
	err := query.Order("id ASC").Find(&areas).Error
	return areas, err
}

// FindByStudents 按 id 排序，聚合结果依赖这个顺序
func (r *WeakAreaRepository) FindByStudents(studentIDs []uint, subject string) ([]model.WeakArea, error) {
	var areas []model.WeakArea
	if len(studentIDs) == 0 {
		return areas, nil
	}
	query := r.DB.Where("student_id IN ?", studentIDs)
	if subject != "" {
		query = query.Where("subject = ?", subject)
	}
	err := query.Order("id ASC").Find(&areas).Error
	return areas, err
}

type StatusCount struct {
	Status model.WeakAreaStatus `json:"status"`
	Count  int64                `json:"count"`
}

func (r *WeakAreaRepository) CountByStatus(studentID uint) ([]StatusCount, error) {
	var rows []StatusCount
	err := r.DB.Model(&model.WeakArea{}).
		Select("status, COUNT(*) AS count").
		Where("student_id = ?", studentID).
		Group("status").
		Order("status").
		Scan(&rows).Error
	return rows, err
}
