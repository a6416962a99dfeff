package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// 以下文档存储在 MongoDB 中

type ChatRole string

const (
	ChatRoleSystem    ChatRole = "system"
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

type ChatTurn struct {
	Role      ChatRole  `bson:"role" json:"role"`
	Content   string    `bson:"content" json:"content"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// ChatSession 一次 AI 辅导会话
type ChatSession struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	StudentID uint               `bson:"studentId" json:"studentId"`
	Subject   string             `bson:"subject" json:"subject"`
	Topic     string             `bson:"topic,omitempty" json:"topic,omitempty"`
	Title     string             `bson:"title" json:"title"`
	Messages  []ChatTurn         `bson:"messages" json:"messages"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ChatRoom 按科目开设的公共聊天室，可限定班级
type ChatRoom struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Subject   string             `bson:"subject,omitempty" json:"subject,omitempty"`
	Batch     string             `bson:"batch,omitempty" json:"batch,omitempty"`
	Section   string             `bson:"section,omitempty" json:"section,omitempty"`
	CreatedBy uint               `bson:"createdBy" json:"createdBy"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

type ChatRoomMessage struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RoomID     primitive.ObjectID `bson:"roomId" json:"roomId"`
	SenderID   uint               `bson:"senderId" json:"senderId"`
	SenderName string             `bson:"senderName" json:"senderName"`
	SenderRole UserRole           `bson:"senderRole" json:"senderRole"`
	Content    string             `bson:"content" json:"content"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}
