package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"
	"lms_backend/pkg/monitoring"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ChatRoomStore 由 mongo 仓库实现
type ChatRoomStore interface {
	CreateRoom(ctx context.Context, room *model.ChatRoom) error
	FindRoom(ctx context.Context, id string) (*model.ChatRoom, error)
	ListRooms(ctx context.Context, batch, section string) ([]model.ChatRoom, error)
	InsertMessage(ctx context.Context, msg *model.ChatRoomMessage) error
	MessagesSince(ctx context.Context, roomID primitive.ObjectID, since time.Time, limit int64) ([]model.ChatRoomMessage, error)
}

// RoomBroadcaster 房间推送，RoomHub 实现
type RoomBroadcaster interface {
	Publish(ctx context.Context, roomID string, msg WSMessage) error
}

type CreateRoomRequest struct {
	Name    string `json:"name" binding:"required,notblank,max=100"`
	Subject string `json:"subject" binding:"max=100"`
	Batch   string `json:"batch" binding:"max=20"`
	Section string `json:"section" binding:"max=20"`
}

type RoomListQuery struct {
	Batch   string `form:"batch"`
	Section string `form:"section"`
}

type PostRoomMessageRequest struct {
	Content string `json:"content" binding:"required,notblank"`
}

type RoomMessagesQuery struct {
	Since time.Time `form:"since" time_format:"2006-01-02T15:04:05Z07:00"`
	Limit int64     `form:"limit" binding:"omitempty,min=1,max=200"`
}

// RoomMessages 轮询响应，客户端用 serverTime 作为下一次的 since
type RoomMessages struct {
	Messages            []model.ChatRoomMessage `json:"messages"`
	ServerTime          time.Time               `json:"serverTime"`
	PollIntervalSeconds int                     `json:"pollIntervalSeconds"`
}

const defaultRoomMessageLimit = 50

type ChatRoomService struct {
	Store            ChatRoomStore
	Broadcaster      RoomBroadcaster
	UserRepo         *repository.UserRepository
	MaxMessageLength int
	PollInterval     time.Duration
}

func NewChatRoomService(store ChatRoomStore, broadcaster RoomBroadcaster, userRepo *repository.UserRepository) *ChatRoomService {
	return &ChatRoomService{
		Store:            store,
		Broadcaster:      broadcaster,
		UserRepo:         userRepo,
		MaxMessageLength: defaultMaxMessageLen,
		PollInterval:     5 * time.Second,
	}
}

// CanJoin 学生只能进入全校房间或本班房间
func CanJoin(room *model.ChatRoom, user *model.User) bool {
	if !user.IsStudent() {
		return true
	}
	if room.Batch != "" && room.Batch != user.Batch {
		return false
	}
	if room.Section != "" && room.Section != user.Section {
		return false
	}
	return true
}

func (s *ChatRoomService) CreateRoom(ctx context.Context, creatorID uint, req CreateRoomRequest) (*model.ChatRoom, error) {
	if req.Section != "" && req.Batch == "" {
		return nil, util.FieldError("batch", "batch is required when section is set")
	}
	room := &model.ChatRoom{
		Name:      strings.TrimSpace(req.Name),
		Subject:   strings.TrimSpace(req.Subject),
		Batch:     req.Batch,
		Section:   req.Section,
		CreatedBy: creatorID,
		CreatedAt: time.Now(),
	}
	if err := s.Store.CreateRoom(ctx, room); err != nil {
		return nil, err
	}
	logger.Log.Info("Chat room created", zap.String("roomId", room.ID.Hex()), zap.Uint("createdBy", creatorID))
	return room, nil
}

func (s *ChatRoomService) ListRooms(ctx context.Context, id util.Identity, q RoomListQuery) ([]model.ChatRoom, error) {
	if id.Role == model.Student {
		me, err := s.UserRepo.FindByID(id.UserID)
		if err != nil {
			return nil, notFoundOr(err, util.ErrUserNotFound)
		}
		q.Batch, q.Section = me.Batch, me.Section
	}
	return s.Store.ListRooms(ctx, q.Batch, q.Section)
}

// Authorize 返回房间及当前用户，用于发消息和建立 websocket 前的校验
func (s *ChatRoomService) Authorize(ctx context.Context, userID uint, roomID string) (*model.ChatRoom, *model.User, error) {
	room, err := s.Store.FindRoom(ctx, roomID)
	if err != nil {
		return nil, nil, notFoundOr(err, util.ErrRoomNotFound)
	}
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		return nil, nil, notFoundOr(err, util.ErrUserNotFound)
	}
	if !CanJoin(room, user) {
		return nil, nil, util.ForbiddenError("chat room is limited to another class")
	}
	return room, user, nil
}

// PostMessage 先入库再广播，广播失败不影响结果，客户端轮询仍能拿到
func (s *ChatRoomService) PostMessage(ctx context.Context, userID uint, roomID string, req PostRoomMessageRequest) (*model.ChatRoomMessage, error) {
	content := strings.TrimSpace(req.Content)
	if s.MaxMessageLength > 0 && utf8.RuneCountInString(content) > s.MaxMessageLength {
		return nil, util.FieldError("content", fmt.Sprintf("message must be at most %d characters", s.MaxMessageLength))
	}

	room, user, err := s.Authorize(ctx, userID, roomID)
	if err != nil {
		return nil, err
	}

	msg := &model.ChatRoomMessage{
		RoomID:     room.ID,
		SenderID:   user.ID,
		SenderName: user.Name,
		SenderRole: user.Role,
		Content:    content,
		CreatedAt:  time.Now(),
	}
	if err := s.Store.InsertMessage(ctx, msg); err != nil {
		return nil, err
	}
	monitoring.ChatMessages.WithLabelValues("room").Inc()

	if s.Broadcaster != nil {
		out := WSMessage{Type: EventRoomMessage, RoomID: room.ID.Hex(), Data: msg}
		if err := s.Broadcaster.Publish(ctx, room.ID.Hex(), out); err != nil {
			logger.Log.Warn("Failed to broadcast room message", zap.String("roomId", room.ID.Hex()), zap.Error(err))
		}
	}
	return msg, nil
}

func (s *ChatRoomService) Messages(ctx context.Context, userID uint, roomID string, q RoomMessagesQuery) (*RoomMessages, error) {
	room, _, err := s.Authorize(ctx, userID, roomID)
	if err != nil {
		return nil, err
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultRoomMessageLimit
	}
	now := time.Now()
	msgs, err := s.Store.MessagesSince(ctx, room.ID, q.Since, limit)
	if err != nil {
		return nil, err
	}
	return &RoomMessages{
		Messages:            msgs,
		ServerTime:          now,
		PollIntervalSeconds: int(s.PollInterval / time.Second),
	}, nil
}
