package repository

import (
	"lms_backend/internal/model"

	"gorm.io/gorm"
)

type ChangeRequestRepository struct {
	DB *gorm.DB
}

func NewChangeRequestRepository(db *gorm.DB) *ChangeRequestRepository {
	return &ChangeRequestRepository{DB: db}
}

func (r *ChangeRequestRepository) Create(req *model.ChangeRequest) error {
	return r.DB.Create(req).Error
}

func (r *ChangeRequestRepository) FindByID(id string) (*model.ChangeRequest, error) {
	var req model.ChangeRequest
	err := r.DB.Preload("User").First(&req, "id = ?", id).Error
	return &req, err
}

func (r *ChangeRequestRepository) FindByUser(userID uint) ([]model.ChangeRequest, error) {
	var reqs []model.ChangeRequest
	err := r.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&reqs).Error
	return reqs, err
}

func (r *ChangeRequestRepository) List(status model.ChangeRequestStatus, offset, limit int) ([]model.ChangeRequest, int64, error) {
	var reqs []model.ChangeRequest
	var total int64

	query := r.DB.Model(&model.ChangeRequest{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("User").Order("created_at DESC").Offset(offset).Limit(limit).Find(&reqs).Error
	return reqs, total, err
}

func (r *ChangeRequestRepository) CountPending() (int64, error) {
	var total int64
	err := r.DB.Model(&model.ChangeRequest{}).Where("status = ?", model.ChangePending).Count(&total).Error
	return total, err
}

// Review 在同一事务中保存审核结果并应用用户字段变更
func (r *ChangeRequestRepository) Review(req *model.ChangeRequest, userUpdates map[string]interface{}) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if len(userUpdates) > 0 {
			if err := tx.Model(&model.User{}).Where("id = ?", req.UserID).Updates(userUpdates).Error; err != nil {
				return err
			}
		}
		return tx.Omit("User").Save(req).Error
	})
}
