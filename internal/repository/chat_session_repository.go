package repository

import (
	"context"
	"errors"
	"time"

	"lms_backend/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDocumentNotFound 统一 mongo 与 gorm 的未找到语义
var ErrDocumentNotFound = errors.New("document not found")

type ChatSessionRepository struct {
	Col *mongo.Collection
}

func NewChatSessionRepository(db *mongo.Database) *ChatSessionRepository {
	return &ChatSessionRepository{Col: db.Collection("chat_sessions")}
}

func (r *ChatSessionRepository) Create(ctx context.Context, session *model.ChatSession) error {
	if session.ID.IsZero() {
		session.ID = primitive.NewObjectID()
	}
	_, err := r.Col.InsertOne(ctx, session)
	return err
}

func (r *ChatSessionRepository) FindByID(ctx context.Context, id string) (*model.ChatSession, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrDocumentNotFound
	}
	var session model.ChatSession
	err = r.Col.FindOne(ctx, bson.M{"_id": oid}).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrDocumentNotFound
	}
	return &session, err
}

// FindByStudent 列表不返回消息内容
func (r *ChatSessionRepository) FindByStudent(ctx context.Context, studentID uint, limit int64) ([]model.ChatSession, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "updatedAt", Value: -1}}).
		SetLimit(limit).
		SetProjection(bson.M{"messages": 0})
	cur, err := r.Col.Find(ctx, bson.M{"studentId": studentID}, opts)
	if err != nil {
		return nil, err
	}
	sessions := []model.ChatSession{}
	if err := cur.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *ChatSessionRepository) AppendTurns(ctx context.Context, id primitive.ObjectID, turns ...model.ChatTurn) error {
	_, err := r.Col.UpdateByID(ctx, id, bson.M{
		"$push": bson.M{"messages": bson.M{"$each": turns}},
		"$set":  bson.M{"updatedAt": time.Now()},
	})
	return err
}
