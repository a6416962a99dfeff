package repository

import (
	"errors"

	"lms_backend/internal/model"

	"gorm.io/gorm"
)

type RankingRepository struct {
	DB *gorm.DB
}

func NewRankingRepository(db *gorm.DB) *RankingRepository {
	return &RankingRepository{DB: db}
}

// Upsert 按 (student, batch, section) 写入，并清理学生换班后遗留的旧记录
func (r *RankingRepository) Upsert(row *model.Ranking) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().
			Where("student_id = ? AND (batch <> ? OR section <> ?)", row.StudentID, row.Batch, row.Section).
			Delete(&model.Ranking{}).Error; err != nil {
			return err
		}

		var existing model.Ranking
		err := tx.Where("student_id = ? AND batch = ? AND section = ?", row.StudentID, row.Batch, row.Section).
			First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Omit("Student").Create(row).Error
		case err != nil:
			return err
		}

		// 名次由重排写入，这里保留旧值
		row.ID = existing.ID
		row.CreatedAt = existing.CreatedAt
		row.ClassRank = existing.ClassRank
		row.BatchRank = existing.BatchRank
		row.OverallRank = existing.OverallRank
		return tx.Omit("Student").Save(row).Error
	})
}

func (r *RankingRepository) FindByStudent(studentID uint) (*model.Ranking, error) {
	var row model.Ranking
	err := r.DB.Where("student_id = ?", studentID).First(&row).Error
	return &row, err
}

// FindCohort 按 student_id 排序，空字符串表示不过滤
func (r *RankingRepository) FindCohort(batch, section string) ([]model.Ranking, error) {
	var rows []model.Ranking
	query := r.DB.Model(&model.Ranking{})
	if batch != "" {
		query = query.Where("batch = ?", batch)
	}
	if section != "" {
		query = query.Where("section = ?", section)
	}
	err := query.Order("student_id ASC").Find(&rows).Error
	return rows, err
}

// SaveRanks 只更新名次列
func (r *RankingRepository) SaveRanks(scope model.RankScope, rows []model.Ranking) error {
	column := map[model.RankScope]string{
		model.ScopeClass:   "class_rank",
		model.ScopeBatch:   "batch_rank",
		model.ScopeOverall: "overall_rank",
	}[scope]

	return r.DB.Transaction(func(tx *gorm.DB) error {
		for i := range rows {
			if err := tx.Model(&model.Ranking{}).
				Where("id = ?", rows[i].ID).
				UpdateColumn(column, rows[i].RankFor(scope)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Leaderboard 返回 scope 内按名次排列的记录
func (r *RankingRepository) Leaderboard(scope model.RankScope, batch, section string) ([]model.Ranking, error) {
	var rows []model.Ranking
	query := r.DB.Preload("Student")
	order := "overall_rank ASC"
	switch scope {
	case model.ScopeClass:
		query = query.Where("batch = ? AND section = ?", batch, section)
		order = "class_rank ASC"
	case model.ScopeBatch:
		query = query.Where("batch = ?", batch)
		order = "batch_rank ASC"
	}
	err := query.Order(order).Order("student_id ASC").Find(&rows).Error
	return rows, err
}

func (r *RankingRepository) DeleteAll() error {
	return r.DB.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(&model.Ranking{}).Error
}
