package repository

import (
	"lms_backend/internal/model"

	"gorm.io/gorm"
)

type ForumRepository struct {
	DB *gorm.DB
}

func NewForumRepository(db *gorm.DB) *ForumRepository {
	return &ForumRepository{DB: db}
}

func (r *ForumRepository) FindWithPagination(offset, limit int, subject, search string) ([]model.ForumPost, int64, error) {
	var posts []model.ForumPost
	var total int64

	query := r.DB.Model(&model.ForumPost{})
	if subject != "" {
		query = query.Where("subject = ?", subject)
	}
	if search != "" {
		query = query.Where("title LIKE ? OR content LIKE ?", "%"+search+"%", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Offset(offset).Limit(limit).
		Preload("Author").
		Find(&posts).Error
	return posts, total, err
}

func (r *ForumRepository) Create(post *model.ForumPost) error {
	return r.DB.Omit("Author", "Comments").Create(post).Error
}

// FindByID 帖子详情，评论按时间正序
func (r *ForumRepository) FindByID(id string) (*model.ForumPost, error) {
	var post model.ForumPost
	err := r.DB.Preload("Author").
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Comments.Author").
		First(&post, "id = ?", id).Error
	return &post, err
}

func (r *ForumRepository) CreateComment(comment *model.ForumComment) error {
	return r.DB.Omit("Author").Create(comment).Error
}

func (r *ForumRepository) IncrementViews(id string) error {
	return r.DB.Model(&model.ForumPost{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
}

func (r *ForumRepository) Delete(id string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&model.ForumComment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.ForumPost{}, "id = ?", id).Error
	})
}
