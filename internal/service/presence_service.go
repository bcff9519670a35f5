package service

import (
	"Amoura/internal/pkg/consts"
	"Amoura/internal/pkg/redis"
	"context"
	log "log/slog"
	"strconv"
	"sync"
	"time"
)

// PresenceService 在线状态服务。在线与否由最后心跳时间推导：
// now - lastHeartbeat <= TTL 即在线，不维护需要主动失效的布尔标记。
// Redis 可用时以 ZSET 为准（多进程共享），否则退化为进程内记录。
// 状态属于提示性数据，任何 Redis 错误只记日志、不向调用方抛出。
type PresenceService interface {
	SetOnline(ctx context.Context, userID string, connID string)
	SetOffline(ctx context.Context, userID string)
	Heartbeat(ctx context.Context, userID string)
	IsOnline(ctx context.Context, userID string) bool
	ListOnline(ctx context.Context) []string
	SweepFallback()
}

type presenceServiceImpl struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.RWMutex
	fallback map[string]time.Time // userID -> 最后心跳（进程内退化模式）
}

func NewPresenceService(ttl time.Duration) PresenceService {
	if ttl <= 0 {
		ttl = consts.PresenceTTL
	}
	return &presenceServiceImpl{
		ttl:      ttl,
		now:      time.Now,
		fallback: make(map[string]time.Time),
	}
}

// SetOnline 刷新在线记录。必须成功：Redis 写失败时落进程内兜底。
func (s *presenceServiceImpl) SetOnline(ctx context.Context, userID string, connID string) {
	if userID == "" {
		return
	}
	ts := s.now()

	if redis.Available() {
		err := redis.ZAdd(ctx, consts.PresenceOnlineKey, float64(ts.Unix()), userID)
		if err == nil {
			if connID != "" {
				_ = redis.SetWithExpiration(ctx, consts.PresenceConnKey+userID, connID, s.ttl)
			}
			return
		}
		log.WarnContext(ctx, "presence redis write failed, using fallback", "user", userID, "err", err)
	}

	s.mu.Lock()
	s.fallback[userID] = ts
	s.mu.Unlock()
}

// SetOffline 显式下线立即清除记录，不等 TTL 自愈
func (s *presenceServiceImpl) SetOffline(ctx context.Context, userID string) {
	if redis.Available() {
		if err := redis.ZRem(ctx, consts.PresenceOnlineKey, userID); err != nil {
			log.WarnContext(ctx, "presence redis remove failed", "user", userID, "err", err)
		}
		_ = redis.DeleteKey(ctx, consts.PresenceConnKey+userID)
	}

	s.mu.Lock()
	delete(s.fallback, userID)
	s.mu.Unlock()
}

// Heartbeat 等价于带最新时间戳的 SetOnline
func (s *presenceServiceImpl) Heartbeat(ctx context.Context, userID string) {
	s.SetOnline(ctx, userID, "")
}

// IsOnline 在线当且仅当存在 TTL 窗口内的心跳记录
func (s *presenceServiceImpl) IsOnline(ctx context.Context, userID string) bool {
	if redis.Available() {
		score, found, err := redis.ZScore(ctx, consts.PresenceOnlineKey, userID)
		if err == nil {
			return found && s.within(time.Unix(int64(score), 0))
		}
		log.WarnContext(ctx, "presence redis read failed, using fallback", "user", userID, "err", err)
	}

	s.mu.RLock()
	ts, ok := s.fallback[userID]
	s.mu.RUnlock()
	return ok && s.within(ts)
}

// ListOnline 列出 TTL 窗口内的全部用户
func (s *presenceServiceImpl) ListOnline(ctx context.Context) []string {
	if redis.Available() {
		min := strconv.FormatInt(s.now().Add(-s.ttl).Unix(), 10)
		users, err := redis.ZRangeByScore(ctx, consts.PresenceOnlineKey, min, "+inf")
		if err == nil {
			// 顺带惰性清理过期成员
			_ = redis.ZRemRangeByScore(ctx, consts.PresenceOnlineKey, "-inf", "("+min)
			return users
		}
		log.WarnContext(ctx, "presence redis range failed, using fallback", "err", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]string, 0, len(s.fallback))
	for userID, ts := range s.fallback {
		if s.within(ts) {
			res = append(res, userID)
		}
	}
	return res
}

// SweepFallback 清理进程内过期记录，由定时任务驱动。
// Redis 路径靠分数区间惰性过期，不需要这一步。
func (s *presenceServiceImpl) SweepFallback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, ts := range s.fallback {
		if !s.within(ts) {
			delete(s.fallback, userID)
		}
	}
}

func (s *presenceServiceImpl) within(ts time.Time) bool {
	return s.now().Sub(ts) <= s.ttl
}
