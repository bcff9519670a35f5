package mongo

import (
	"Amoura/internal/api/config"
	"Amoura/internal/pkg/logger"
	"context"
	log "log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InitMongo 建立连接并返回 Database 引用，同时初始化索引
func InitMongo(cfg config.MongoConfig) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.URL).
		SetMonitor(logger.NewMongoMonitor()),
	)
	if err != nil {
		return nil, err
	}

	if err = client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	db := client.Database(cfg.Database)

	// 会话查询按参与双方过滤、按时间排序
	_, err = db.Collection("message").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "from", Value: 1}, {Key: "to", Value: 1}, {Key: "created_at", Value: 1}},
	})
	if err != nil {
		log.Warn("MongoDB create index failed", "err", err)
	}

	log.Info("MongoDB initialized successfully", "db", cfg.Database)
	return db, nil
}
