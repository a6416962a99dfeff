package service

import (
	"strings"
	"time"

	"lms_backend/internal/config"
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type RegisterRequest struct {
	Name            string         `json:"name" binding:"required,notblank,max=100"`
	Email           string         `json:"email" binding:"required,email"`
	Password        string         `json:"password" binding:"required,min=6,max=72"`
	Role            model.UserRole `json:"role" binding:"required,oneof=student professor"`
	RollNo          string         `json:"rollNo" binding:"required_if=Role student,max=50"`
	Batch           string         `json:"batch" binding:"required_if=Role student,max=20"`
	Section         string         `json:"section" binding:"required_if=Role student,max=20"`
	Expertise       string         `json:"expertise" binding:"max=255"`
	ClassesTeaching []string       `json:"classesTeaching"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type AuthService struct {
	UserRepo *repository.UserRepository
	Cfg      *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		UserRepo: userRepo,
		Cfg:      cfg,
	}
}

// Register 新用户一律待审核，管理员账号只能通过 lmsctl 创建
func (s *AuthService) Register(req RegisterRequest) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	taken, err := s.UserRepo.EmailTaken(email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, util.ErrEmailRegistered
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Password: string(hashedPassword),
		Role:     req.Role,
		Status:   model.UserPending,
	}
	switch req.Role {
	case model.Student:
		user.RollNo = req.RollNo
		user.Batch = req.Batch
		user.Section = req.Section
	case model.Professor:
		user.Expertise = req.Expertise
		user.ClassesTeaching = req.ClassesTeaching
	}

	if err := s.UserRepo.Create(user); err != nil {
		if isDuplicate(err) {
			return nil, util.ErrEmailRegistered
		}
		return nil, err
	}
	logger.Log.Info("User registered", zap.Uint("userId", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

func (s *AuthService) Login(req LoginRequest) (*LoginResponse, error) {
	user, err := s.UserRepo.FindByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if isNotFound(err) {
			return nil, util.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, util.ErrInvalidCredentials
	}

	switch user.Status {
	case model.UserPending:
		return nil, util.ErrAccountPending
	case model.UserDisabled:
		return nil, util.ErrAccountDisabled
	}

	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.UserRepo.UpdateLastLogin(user.ID, now); err != nil {
		logger.Log.Warn("Failed to update last login", zap.Uint("userId", user.ID), zap.Error(err))
	}
	user.LastLogin = &now
	return &LoginResponse{Token: token, User: user}, nil
}

func (s *AuthService) Profile(userID uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		return nil, notFoundOr(err, util.ErrUserNotFound)
	}
	return user, nil
}

// CreateAdmin 供 lmsctl 使用，直接创建已激活的管理员
func (s *AuthService) CreateAdmin(name, email, password string) (*model.User, error) {
	if len(password) < 8 {
		return nil, util.FieldError("password", "password must be at least 8 characters")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	taken, err := s.UserRepo.EmailTaken(email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, util.ErrEmailRegistered
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Name:     name,
		Email:    email,
		Password: string(hashedPassword),
		Role:     model.Admin,
		Status:   model.UserActive,
	}
	if err := s.UserRepo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}
