package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/events"
	"lms_backend/pkg/logger"

	"go.uber.org/zap"
)

type UserListQuery struct {
	Role    string `form:"role" binding:"omitempty,oneof=student professor admin"`
	Status  string `form:"status" binding:"omitempty,oneof=pending active disabled"`
	Batch   string `form:"batch"`
	Section string `form:"section"`
	Search  string `form:"search"`
}

// AdminUpdateUserRequest 管理员可修改的字段，nil 表示不修改
type AdminUpdateUserRequest struct {
	Name            *string   `json:"name" binding:"omitempty,notblank,max=100"`
	Email           *string   `json:"email" binding:"omitempty,email"`
	Role            *string   `json:"role" binding:"omitempty,oneof=student professor admin"`
	Status          *string   `json:"status" binding:"omitempty,oneof=pending active disabled"`
	RollNo          *string   `json:"rollNo" binding:"omitempty,max=50"`
	Batch           *string   `json:"batch" binding:"omitempty,max=20"`
	Section         *string   `json:"section" binding:"omitempty,max=20"`
	Expertise       *string   `json:"expertise" binding:"omitempty,max=255"`
	ClassesTeaching *[]string `json:"classesTeaching"`
}

type UpdateProfileRequest struct {
	Name string `json:"name" binding:"required,notblank,max=100"`
}

type UserApprovedEvent struct {
	UserID uint           `json:"userId"`
	Email  string         `json:"email"`
	Role   model.UserRole `json:"role"`
}

// UserService 处理用户相关的业务逻辑
type UserService struct {
	UserRepo *repository.UserRepository
	Storage  *StorageService
	Events   events.Publisher
}

// NewUserService 创建一个新的用户服务实例
func NewUserService(userRepo *repository.UserRepository, storage *StorageService, publisher events.Publisher) *UserService {
	return &UserService{
		UserRepo: userRepo,
		Storage:  storage,
		Events:   publisher,
	}
}

// List 获取用户列表，支持分页和筛选
func (s *UserService) List(q UserListQuery, page, limit int) ([]model.User, int64, error) {
	return s.UserRepo.List(repository.UserFilter{
		Role:    model.UserRole(q.Role),
		Status:  model.UserStatus(q.Status),
		Batch:   q.Batch,
		Section: q.Section,
		Search:  q.Search,
	}, offsetOf(page, limit), limit)
}

func (s *UserService) Get(id uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(id)
	if err != nil {
		return nil, notFoundOr(err, util.ErrUserNotFound)
	}
	return user, nil
}

// Approve 激活待审核用户
func (s *UserService) Approve(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if user.Status == model.UserActive {
		return user, nil
	}
	user.Status = model.UserActive
	if err := s.UserRepo.UpdateFields(user.ID, map[string]interface{}{"status": model.UserActive}); err != nil {
		return nil, err
	}

	logger.Log.Info("User approved", zap.Uint("userId", user.ID), zap.String("role", string(user.Role)))
	if s.Events != nil {
		evt := UserApprovedEvent{UserID: user.ID, Email: user.Email, Role: user.Role}
		if perr := s.Events.Publish(ctx, events.UserApproved, evt); perr != nil {
			logger.Log.Warn("Failed to publish user event", zap.Error(perr))
		}
	}
	return user, nil
}

// Reject 拒绝注册申请，直接删除待审核记录
func (s *UserService) Reject(id uint) error {
	user, err := s.Get(id)
	if err != nil {
		return err
	}
	if user.Status != model.UserPending {
		return util.ConflictError("only pending registrations can be rejected")
	}
	return s.UserRepo.Delete(user.ID)
}

func (s *UserService) Update(id uint, req AdminUpdateUserRequest) (*model.User, error) {
	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		taken, err := s.UserRepo.EmailTaken(email, user.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, util.ErrEmailRegistered
		}
		user.Email = email
	}
	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Role != nil {
		user.Role = model.UserRole(*req.Role)
	}
	if req.Status != nil {
		user.Status = model.UserStatus(*req.Status)
	}
	if req.RollNo != nil {
		user.RollNo = *req.RollNo
	}
	if req.Batch != nil {
		user.Batch = *req.Batch
	}
	if req.Section != nil {
		user.Section = *req.Section
	}
	if req.Expertise != nil {
		user.Expertise = *req.Expertise
	}
	if req.ClassesTeaching != nil {
		user.ClassesTeaching = *req.ClassesTeaching
	}
	if user.IsStudent() && (user.Batch == "" || user.Section == "") {
		return nil, util.FieldError("batch", "students need both batch and section")
	}

	if err := s.UserRepo.Update(user); err != nil {
		if isDuplicate(err) {
			return nil, util.ErrEmailRegistered
		}
		return nil, err
	}
	return user, nil
}

// Delete 管理员删除用户，不能删除自己
func (s *UserService) Delete(actorID, id uint) error {
	if actorID == id {
		return util.ForbiddenError("cannot delete your own account")
	}
	if _, err := s.Get(id); err != nil {
		return err
	}
	return s.UserRepo.Delete(id)
}

func (s *UserService) UpdateProfile(userID uint, req UpdateProfileRequest) (*model.User, error) {
	user, err := s.Get(userID)
	if err != nil {
		return nil, err
	}
	user.Name = strings.TrimSpace(req.Name)
	if err := s.UserRepo.UpdateFields(user.ID, map[string]interface{}{"name": user.Name}); err != nil {
		return nil, err
	}
	return user, nil
}

// UploadAvatar 保存头像并更新用户记录，旧文件删除失败只记录日志
func (s *UserService) UploadAvatar(ctx context.Context, userID uint, filename string, reader io.Reader, size int64, contentType string) (*model.User, error) {
	if size > util.MaxAvatarSize {
		return nil, util.FieldError("avatar", fmt.Sprintf("file exceeds %d bytes", util.MaxAvatarSize))
	}
	if !util.HasAllowedExtension(filename, util.AllowedImageExtensions) || !util.IsImage(contentType) {
		return nil, util.FieldError("avatar", "avatar must be a jpg, png, gif or webp image")
	}

	user, err := s.Get(userID)
	if err != nil {
		return nil, err
	}

	key := ObjectKey("avatars", filename, time.Now())
	url, err := s.Storage.Upload(ctx, key, reader, size, contentType)
	if err != nil {
		return nil, err
	}
	previous := user.Avatar
	user.Avatar = url
	if err := s.UserRepo.UpdateFields(user.ID, map[string]interface{}{"avatar": url}); err != nil {
		return nil, err
	}

	if key := s.storageKey(previous); key != "" {
		if err := s.Storage.Delete(ctx, key); err != nil {
			logger.Log.Warn("Failed to delete old avatar", zap.String("key", key), zap.Error(err))
		}
	}
	return user, nil
}

// storageKey 从 URL 反推对象名，非本服务上传的地址返回空
func (s *UserService) storageKey(url string) string {
	i := strings.Index(url, "avatars/")
	if url == "" || i < 0 {
		return ""
	}
	return url[i:]
}
