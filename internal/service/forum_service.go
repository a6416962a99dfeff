package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	forumViewKeyPrefix = "forum:view:"
	forumViewWindow    = 10 * time.Minute
)

type ForumListQuery struct {
	Subject string `form:"subject"`
	Search  string `form:"search"`
}

type ForumPostRequest struct {
	Title   string   `json:"title" binding:"required,notblank,max=255"`
	Content string   `json:"content" binding:"required,notblank"`
	Subject string   `json:"subject" binding:"max=100"`
	Tags    []string `json:"tags" binding:"omitempty,max=10,dive,max=30"`
}

type ForumCommentRequest struct {
	Content string `json:"content" binding:"required,notblank"`
}

type ForumService struct {
	Repo     *repository.ForumRepository
	UserRepo *repository.UserRepository
	Redis    *redis.Client
}

func NewForumService(repo *repository.ForumRepository, userRepo *repository.UserRepository, rdb *redis.Client) *ForumService {
	return &ForumService{Repo: repo, UserRepo: userRepo, Redis: rdb}
}

func (s *ForumService) List(q ForumListQuery, page, limit int) ([]model.ForumPost, int64, error) {
	return s.Repo.FindWithPagination(offsetOf(page, limit), limit, strings.TrimSpace(q.Subject), strings.TrimSpace(q.Search))
}

func (s *ForumService) Create(authorID uint, req ForumPostRequest) (*model.ForumPost, error) {
	post := &model.ForumPost{
		Title:    strings.TrimSpace(req.Title),
		Content:  req.Content,
		Subject:  strings.TrimSpace(req.Subject),
		Tags:     model.UnionStrings(nil, req.Tags...),
		AuthorID: authorID,
	}
	if err := s.Repo.Create(post); err != nil {
		return nil, err
	}
	return post, nil
}

// Get 返回帖子详情。同一用户在窗口期内重复打开只计一次浏览
func (s *ForumService) Get(ctx context.Context, userID uint, id string) (*model.ForumPost, error) {
	post, err := s.Repo.FindByID(id)
	if err != nil {
		return nil, notFoundOr(err, util.ErrPostNotFound)
	}
	if s.countView(ctx, userID, id) {
		if err := s.Repo.IncrementViews(id); err != nil {
			logger.Log.Warn("Failed to increment post views", zap.String("postId", id), zap.Error(err))
		} else {
			post.Views++
		}
	}
	return post, nil
}

func (s *ForumService) countView(ctx context.Context, userID uint, postID string) bool {
	if s.Redis == nil {
		return true
	}
	key := fmt.Sprintf("%s%s:%d", forumViewKeyPrefix, postID, userID)
	isNew, err := s.Redis.SetNX(ctx, key, "1", forumViewWindow).Result()
	if err != nil {
		// redis 不可用时照常计数
		logger.Log.Warn("Forum view dedup unavailable", zap.Error(err))
		return true
	}
	return isNew
}

func (s *ForumService) Comment(authorID uint, postID string, req ForumCommentRequest) (*model.ForumComment, error) {
	if _, err := s.Repo.FindByID(postID); err != nil {
		return nil, notFoundOr(err, util.ErrPostNotFound)
	}
	comment := &model.ForumComment{
		PostID:   postID,
		AuthorID: authorID,
		Content:  strings.TrimSpace(req.Content),
	}
	if err := s.Repo.CreateComment(comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// Delete 作者本人或管理员可删除
func (s *ForumService) Delete(id util.Identity, postID string) error {
	post, err := s.Repo.FindByID(postID)
	if err != nil {
		return notFoundOr(err, util.ErrPostNotFound)
	}
	if post.AuthorID != id.UserID && id.Role != model.Admin {
		return util.ForbiddenError("only the author or an admin can delete this post")
	}
	return s.Repo.Delete(postID)
}
