package wire

import (
	"Amoura/internal/api"
	"Amoura/internal/api/config"
	"Amoura/internal/api/handler"
	"Amoura/internal/job"
	"Amoura/internal/pkg/cron"
	imongo "Amoura/internal/pkg/mongo"
	"Amoura/internal/pkg/ws"
	"Amoura/internal/repository"
	"Amoura/internal/service"
	"context"
	log "log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router   *gin.Engine
	DB       *gorm.DB
	CronMgr  *cron.Manager
	WsRouter *ws.Router
}

// BuildApplication 手工依赖注入。mongoDB 传 nil 表示 Mongo 不可达，
// 消息存储退化为进程内实现，接口语义不变、仅失去持久性。
func BuildApplication(db *gorm.DB, mongoDB *mongo.Database, cfg *config.Config) (*ApplicationContainer, error) {
	var messageRepo imongo.MessageRepo
	if mongoDB != nil {
		messageRepo = imongo.NewMessageRepo(mongoDB)
	} else {
		log.Warn("MongoDB unavailable, message store degraded to in-process fallback")
		messageRepo = imongo.NewMemoryMessageRepo()
	}

	registry := ws.NewRegistry()
	wsRouter := ws.NewRouter(registry)

	presenceService := service.NewPresenceService(time.Duration(cfg.Presence.TTLSeconds) * time.Second)
	wsRouter.OnLastDisconnect = func(ctx context.Context, userID string) {
		presenceService.SetOffline(ctx, userID)
	}

	chatService := service.NewChatService(messageRepo, presenceService, wsRouter)

	userRepo := repository.NewUserRepo(db)
	userService := service.NewUserService(userRepo, presenceService)

	handlers := &api.HandlersGroup{
		ChatHandler: handler.NewChatHandler(chatService, presenceService),
		UserHandler: handler.NewUserHandler(userService),
		WsHandler:   handler.NewWsHandler(registry, wsRouter, presenceService),
	}

	router := api.SetupRouter(handlers)

	sweepJob := job.NewPresenceSweepJob(presenceService, registry)
	cronMgr := cron.NewCronManager(sweepJob, cfg.Presence.SweepSchedule)

	return &ApplicationContainer{
		Router:   router,
		DB:       db,
		CronMgr:  cronMgr,
		WsRouter: wsRouter,
	}, nil
}
