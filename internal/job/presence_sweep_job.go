package job

import (
	"Amoura/internal/pkg/logger"
	"Amoura/internal/pkg/ws"
	"Amoura/internal/service"
	"context"
	log "log/slog"

	"github.com/google/uuid"
)

// PresenceSweepJob 周期清理：进程内在线记录的过期条目。
// Redis 路径按分数区间惰性过期，这里只服务退化模式。
type PresenceSweepJob struct {
	presence service.PresenceService
	registry *ws.Registry
}

func NewPresenceSweepJob(presence service.PresenceService, registry *ws.Registry) *PresenceSweepJob {
	return &PresenceSweepJob{
		presence: presence,
		registry: registry,
	}
}

func (s *PresenceSweepJob) Run() {
	traceID := "job-" + uuid.NewString()
	ctx := context.WithValue(context.Background(), logger.TraceIDKey, traceID)

	s.presence.SweepFallback()

	log.InfoContext(ctx, "presence sweep done", "active_conns", s.registry.Count())
}
