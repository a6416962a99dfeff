package repository

import (
	"time"

	"lms_backend/internal/model"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

type UserFilter struct {
	Role    model.UserRole
	Status  model.UserStatus
	Batch   string
	Section string
	Search  string
}

func (r *UserRepository) Create(user *model.User) error {
	return r.DB.Create(user).Error
}

func (r *UserRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	err := r.DB.First(&user, id).Error
	return &user, err
}

func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("email = ?", email).First(&user).Error
	return &user, err
}

// EmailTaken 检查邮箱是否被其他用户占用
func (r *UserRepository) EmailTaken(email string, excludeID uint) (bool, error) {
	var count int64
	q := r.DB.Model(&model.User{}).Where("email = ?", email)
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) Update(user *model.User) error {
	return r.DB.Save(user).Error
}

func (r *UserRepository) UpdateFields(id uint, fields map[string]interface{}) error {
	return r.DB.Model(&model.User{}).Where("id = ?", id).Updates(fields).Error
}

func (r *UserRepository) UpdateLastLogin(id uint, at time.Time) error {
	return r.DB.Model(&model.User{}).Where("id = ?", id).Update("last_login", at).Error
}

// Delete 物理删除
func (r *UserRepository) Delete(id uint) error {
	return r.DB.Unscoped().Delete(&model.User{}, id).Error
}

func (r *UserRepository) List(filter UserFilter, offset, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	query := r.DB.Model(&model.User{})
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Batch != "" {
		query = query.Where("batch = ?", filter.Batch)
	}
	if filter.Section != "" {
		query = query.Where("section = ?", filter.Section)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR email LIKE ? OR roll_no LIKE ?", like, like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("id ASC").Offset(offset).Limit(limit).Find(&users).Error
	return users, total, err
}

// FindStudents 返回班级花名册，按 id 排序保证结果稳定
func (r *UserRepository) FindStudents(batch, section string) ([]model.User, error) {
	var users []model.User
	query := r.DB.Where("role = ?", model.Student)
	if batch != "" {
		query = query.Where("batch = ?", batch)
	}
	if section != "" {
		query = query.Where("section = ?", section)
	}
	err := query.Order("id ASC").Find(&users).Error
	return users, err
}

func (r *UserRepository) FindByIDs(ids []uint) ([]model.User, error) {
	var users []model.User
	if len(ids) == 0 {
		return users, nil
	}
	err := r.DB.Where("id IN ?", ids).Order("id ASC").Find(&users).Error
	return users, err
}

type RoleStatusCount struct {
	Role   model.UserRole   `json:"role"`
	Status model.UserStatus `json:"status"`
	Count  int64            `json:"count"`
}

func (r *UserRepository) CountByRoleAndStatus() ([]RoleStatusCount, error) {
	var rows []RoleStatusCount
	err := r.DB.Model(&model.User{}).
		Select("role, status, COUNT(*) AS count").
		Group("role, status").
		Order("role, status").
		Scan(&rows).Error
	return rows, err
}
