package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type ChangeRequestInput struct {
	Changes map[string]string `json:"changes" binding:"required,min=1"`
	Reason  string            `json:"reason" binding:"required,notblank,max=1000"`
}

type ReviewChangeRequestInput struct {
	Approve *bool  `json:"approve" binding:"required"`
	Note    string `json:"note" binding:"max=1000"`
}

// 请求字段名 -> users 表列名
var changeColumns = map[string]string{
	"name":      "name",
	"email":     "email",
	"rollNo":    "roll_no",
	"batch":     "batch",
	"section":   "section",
	"expertise": "expertise",
}

type ChangeRequestService struct {
	Repo     *repository.ChangeRequestRepository
	UserRepo *repository.UserRepository
}

func NewChangeRequestService(repo *repository.ChangeRequestRepository, userRepo *repository.UserRepository) *ChangeRequestService {
	return &ChangeRequestService{Repo: repo, UserRepo: userRepo}
}

func (s *ChangeRequestService) Submit(userID uint, in ChangeRequestInput) (*model.ChangeRequest, error) {
	fields := make([]string, 0, len(in.Changes))
	for f := range in.Changes {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	changes := make(map[string]string, len(in.Changes))
	for _, f := range fields {
		if !model.ChangeableFields[f] {
			return nil, util.FieldError("changes."+f, fmt.Sprintf("field %q cannot be changed", f))
		}
		v := strings.TrimSpace(in.Changes[f])
		if v == "" {
			return nil, util.FieldError("changes."+f, "value cannot be blank")
		}
		changes[f] = v
	}

	if _, err := s.UserRepo.FindByID(userID); err != nil {
		return nil, notFoundOr(err, util.ErrUserNotFound)
	}

	req := &model.ChangeRequest{
		UserID: userID,
		Reason: strings.TrimSpace(in.Reason),
		Status: model.ChangePending,
	}
	req.Changes = datatypes.NewJSONType(changes)
	if err := s.Repo.Create(req); err != nil {
		return nil, err
	}
	logger.Log.Info("Change request submitted", zap.String("requestId", req.ID), zap.Uint("userId", userID), zap.Strings("fields", fields))
	return req, nil
}

func (s *ChangeRequestService) Mine(userID uint) ([]model.ChangeRequest, error) {
	return s.Repo.FindByUser(userID)
}

func (s *ChangeRequestService) List(status string, page, limit int) ([]model.ChangeRequest, int64, error) {
	return s.Repo.List(model.ChangeRequestStatus(status), offsetOf(page, limit), limit)
}

// Review 审核通过时把变更写入用户记录，与审核结果同一事务
func (s *ChangeRequestService) Review(reviewerID uint, id string, in ReviewChangeRequestInput) (*model.ChangeRequest, error) {
	req, err := s.Repo.FindByID(id)
	if err != nil {
		return nil, notFoundOr(err, util.ErrRequestNotFound)
	}
	if req.Status != model.ChangePending {
		return nil, util.ErrRequestReviewed
	}

	var updates map[string]interface{}
	if *in.Approve {
		changes := req.Changes.Data()
		updates = make(map[string]interface{}, len(changes))
		for field, value := range changes {
			column, ok := changeColumns[field]
			if !ok {
				continue
			}
			if field == "email" {
				value = strings.ToLower(value)
				taken, err := s.UserRepo.EmailTaken(value, req.UserID)
				if err != nil {
					return nil, err
				}
				if taken {
					return nil, util.ErrEmailRegistered
				}
			}
			updates[column] = value
		}
		req.Status = model.ChangeApproved
	} else {
		req.Status = model.ChangeRejected
	}

	now := time.Now()
	req.ReviewedBy = &reviewerID
	req.ReviewNote = strings.TrimSpace(in.Note)
	req.ReviewedAt = &now

	if err := s.Repo.Review(req, updates); err != nil {
		if isDuplicate(err) {
			return nil, util.ErrEmailRegistered
		}
		return nil, err
	}
	logger.Log.Info("Change request reviewed",
		zap.String("requestId", req.ID),
		zap.String("status", string(req.Status)),
		zap.Uint("reviewerId", reviewerID),
	)
	return req, nil
}
