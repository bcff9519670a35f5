package mongo

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrMessageNotExist 指定消息不存在，两种实现统一返回该错误
var ErrMessageNotExist = errors.New("message not exist")

// MessageRepo 消息存储接口。Mongo 可用时走 messageRepoImpl，
// 否则由 wire 层注入进程内实现，调用方不感知差异。
type MessageRepo interface {
	Insert(ctx context.Context, msg *Message) error
	Get(ctx context.Context, id string) (*Message, error)
	// Conversation 返回 userA 与 userB 之间、viewer 未单侧删除的全部消息，按发送时间升序
	Conversation(ctx context.Context, userA, userB, viewerID string) ([]*Message, error)
	MarkSeen(ctx context.Context, id string) (*Message, error)
	AddDeletedFor(ctx context.Context, id string, userID string) (*Message, error)
	Unsend(ctx context.Context, id string) (*Message, error)
}

type messageRepoImpl struct {
	col *mongo.Collection
}

func NewMessageRepo(db *mongo.Database) MessageRepo {
	return &messageRepoImpl{
		col: db.Collection("message"),
	}
}

// NewMessageID 生成消息主键，进程内实现也用它保证 ID 形态一致
func NewMessageID() string {
	return primitive.NewObjectID().Hex()
}

func (s *messageRepoImpl) Insert(ctx context.Context, msg *Message) error {
	if msg.ID == "" {
		msg.ID = NewMessageID()
	}
	_, err := s.col.InsertOne(ctx, msg)
	return errors.Wrap(err, "insert message")
}

func (s *messageRepoImpl) Get(ctx context.Context, id string) (*Message, error) {
	var msg Message
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&msg)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrMessageNotExist
		}
		return nil, errors.Wrap(err, "get message")
	}
	return &msg, nil
}

func (s *messageRepoImpl) Conversation(ctx context.Context, userA, userB, viewerID string) ([]*Message, error) {
	filter := bson.M{
		"$or": bson.A{
			bson.M{"from": userA, "to": userB},
			bson.M{"from": userB, "to": userA},
		},
		"deleted_for": bson.M{"$ne": viewerID},
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := s.col.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, errors.Wrap(err, "find conversation")
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var messages []*Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, errors.Wrap(err, "decode conversation")
	}

	return messages, nil
}

func (s *messageRepoImpl) MarkSeen(ctx context.Context, id string) (*Message, error) {
	return s.findOneAndUpdate(ctx, id, bson.M{"$set": bson.M{"seen": true}})
}

func (s *messageRepoImpl) AddDeletedFor(ctx context.Context, id string, userID string) (*Message, error) {
	// $addToSet 天然幂等，重复删除不会产生重复成员
	return s.findOneAndUpdate(ctx, id, bson.M{"$addToSet": bson.M{"deleted_for": userID}})
}

func (s *messageRepoImpl) Unsend(ctx context.Context, id string) (*Message, error) {
	return s.findOneAndUpdate(ctx, id, bson.M{"$set": bson.M{"is_unsent": true, "content": ""}})
}

func (s *messageRepoImpl) findOneAndUpdate(ctx context.Context, id string, update bson.M) (*Message, error) {
	var msg Message
	err := s.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&msg)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrMessageNotExist
		}
		return nil, errors.Wrap(err, "update message")
	}
	return &msg, nil
}
