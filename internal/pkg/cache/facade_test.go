package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConversationKeyUnorderedPair(t *testing.T) {
	// 双方无论谁发起，同一 viewer 的会话键一致
	assert.Equal(t,
		ConversationKey("alice", "bob", "alice"),
		ConversationKey("bob", "alice", "alice"),
	)
	assert.NotEqual(t,
		ConversationKey("alice", "bob", "alice"),
		ConversationKey("alice", "bob", "bob"),
		"不同 viewer 的视图不能共用缓存",
	)
}

func TestMatchPageKey(t *testing.T) {
	assert.Equal(t, "user:match:alice:2", MatchPageKey("alice", 2))
	assert.Equal(t, "user:profile:alice", ProfileKey("alice"))
}

func TestFacadeDegradesWithoutRedis(t *testing.T) {
	// Redis 未初始化：读一律 miss，写与失效是安全空操作
	ctx := context.Background()

	var dest map[string]string
	assert.False(t, GetJSON(ctx, "any", &dest))

	assert.NotPanics(t, func() {
		SetJSON(ctx, "any", map[string]string{"k": "v"}, time.Minute)
		Invalidate(ctx, "any")
		InvalidateUserCaches(ctx, "alice")
	})
}
