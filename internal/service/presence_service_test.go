package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Redis 未初始化时走进程内兜底路径，便于直接验证 TTL 语义
func newTestPresence(t *testing.T, ttl time.Duration) (*presenceServiceImpl, *time.Time) {
	t.Helper()
	now := time.Now()
	svc := NewPresenceService(ttl).(*presenceServiceImpl)
	svc.now = func() time.Time { return now }
	return svc, &now
}

func TestPresenceSetOnlineThenIsOnline(t *testing.T) {
	svc, _ := newTestPresence(t, time.Minute)
	ctx := context.Background()

	assert.False(t, svc.IsOnline(ctx, "alice"))
	svc.SetOnline(ctx, "alice", "conn-1")
	assert.True(t, svc.IsOnline(ctx, "alice"))
}

func TestPresenceTTLExpiry(t *testing.T) {
	svc, now := newTestPresence(t, time.Minute)
	ctx := context.Background()

	svc.SetOnline(ctx, "alice", "conn-1")
	assert.True(t, svc.IsOnline(ctx, "alice"))

	// 心跳静默超过 TTL：连接悄然断开也会自愈为离线
	*now = now.Add(time.Minute + time.Second)
	assert.False(t, svc.IsOnline(ctx, "alice"))
	assert.NotContains(t, svc.ListOnline(ctx), "alice")
}

func TestPresenceHeartbeatRefreshes(t *testing.T) {
	svc, now := newTestPresence(t, time.Minute)
	ctx := context.Background()

	svc.SetOnline(ctx, "alice", "conn-1")
	*now = now.Add(45 * time.Second)
	svc.Heartbeat(ctx, "alice")
	*now = now.Add(45 * time.Second)

	// 距最后一次心跳 45s < TTL，仍在线
	assert.True(t, svc.IsOnline(ctx, "alice"))
}

func TestPresenceSetOfflineProactive(t *testing.T) {
	svc, _ := newTestPresence(t, time.Minute)
	ctx := context.Background()

	svc.SetOnline(ctx, "alice", "conn-1")
	svc.SetOffline(ctx, "alice")

	// 显式下线立即生效，不等 TTL
	assert.False(t, svc.IsOnline(ctx, "alice"))
}

func TestPresenceListOnline(t *testing.T) {
	svc, now := newTestPresence(t, time.Minute)
	ctx := context.Background()

	svc.SetOnline(ctx, "alice", "c1")
	svc.SetOnline(ctx, "bob", "c2")
	*now = now.Add(30 * time.Second)
	svc.Heartbeat(ctx, "bob")
	*now = now.Add(40 * time.Second)

	// alice 的心跳已超窗，bob 仍在窗口内
	online := svc.ListOnline(ctx)
	assert.NotContains(t, online, "alice")
	assert.Contains(t, online, "bob")
}

func TestPresenceSweepFallback(t *testing.T) {
	svc, now := newTestPresence(t, time.Minute)
	ctx := context.Background()

	svc.SetOnline(ctx, "alice", "c1")
	svc.SetOnline(ctx, "bob", "c2")
	*now = now.Add(2 * time.Minute)
	svc.SweepFallback()

	svc.mu.RLock()
	defer svc.mu.RUnlock()
	assert.Empty(t, svc.fallback, "过期条目应被清理")
}

func TestPresenceEmptyUserIgnored(t *testing.T) {
	svc, _ := newTestPresence(t, time.Minute)
	ctx := context.Background()

	svc.SetOnline(ctx, "", "c1")
	assert.Empty(t, svc.ListOnline(ctx))
}
