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

type ChatRoomRepository struct {
	Rooms    *mongo.Collection
	Messages *mongo.Collection
}

func NewChatRoomRepository(db *mongo.Database) *ChatRoomRepository {
	return &ChatRoomRepository{
		Rooms:    db.Collection("chat_rooms"),
		Messages: db.Collection("chat_room_messages"),
	}
}

func (r *ChatRoomRepository) CreateRoom(ctx context.Context, room *model.ChatRoom) error {
	if room.ID.IsZero() {
		room.ID = primitive.NewObjectID()
	}
	_, err := r.Rooms.InsertOne(ctx, room)
	return err
}

func (r *ChatRoomRepository) FindRoom(ctx context.Context, id string) (*model.ChatRoom, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrDocumentNotFound
	}
	var room model.ChatRoom
	err = r.Rooms.FindOne(ctx, bson.M{"_id": oid}).Decode(&room)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrDocumentNotFound
	}
	return &room, err
}

// ListRooms 返回全校房间和指定班级的房间
func (r *ChatRoomRepository) ListRooms(ctx context.Context, batch, section string) ([]model.ChatRoom, error) {
	filter := bson.M{}
	if batch != "" {
		filter = bson.M{"$or": bson.A{
			bson.M{"batch": bson.M{"$exists": false}},
			bson.M{"batch": ""},
			bson.M{"batch": batch, "section": bson.M{"$in": bson.A{"", nil, section}}},
		}}
	}
	cur, err := r.Rooms.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	rooms := []model.ChatRoom{}
	if err := cur.All(ctx, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (r *ChatRoomRepository) InsertMessage(ctx context.Context, msg *model.ChatRoomMessage) error {
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	_, err := r.Messages.InsertOne(ctx, msg)
	return err
}

// MessagesSince 按时间正序返回 since 之后的消息；since 为零值时返回最近 limit 条
func (r *ChatRoomRepository) MessagesSince(ctx context.Context, roomID primitive.ObjectID, since time.Time, limit int64) ([]model.ChatRoomMessage, error) {
	filter := bson.M{"roomId": roomID}
	opts := options.Find().SetLimit(limit)
	if since.IsZero() {
		opts.SetSort(bson.D{{Key: "createdAt", Value: -1}})
	} else {
		filter["createdAt"] = bson.M{"$gt": since}
		opts.SetSort(bson.D{{Key: "createdAt", Value: 1}})
	}

	cur, err := r.Messages.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	msgs := []model.ChatRoomMessage{}
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	if since.IsZero() {
		for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
			msgs[i], msgs[j] = msgs[j], msgs[i]
		}
	}
	return msgs, nil
}
