package cache

import (
	"Amoura/internal/pkg/consts"
	"Amoura/internal/pkg/redis"
	"context"
	log "log/slog"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// 读写穿透缓存门面。纯优化层：Redis 未初始化或任何操作失败
// 都按缓存未命中处理，绝不把错误抛给调用方。

// ProfileKey 用户资料缓存键
func ProfileKey(userID string) string {
	return consts.UserProfileKey + userID
}

// MatchPageKey 匹配列表分页缓存键
func MatchPageKey(userID string, page int) string {
	return consts.UserMatchKey + userID + ":" + strconv.Itoa(page)
}

// ConversationKey 会话缓存键：无序参与者对加查看者。
// 单侧删除使同一会话对不同查看者内容不同，故键中必须带 viewer。
func ConversationKey(userA, userB, viewerID string) string {
	if userA > userB {
		userA, userB = userB, userA
	}
	return consts.ConversationKey + userA + "_" + userB + ":" + viewerID
}

// GetJSON 读取并反序列化，命中返回 true
func GetJSON(ctx context.Context, key string, dest interface{}) bool {
	if !redis.Available() {
		return false
	}

	raw, err := redis.GetValue(ctx, key)
	if err != nil {
		log.WarnContext(ctx, "cache get degraded to miss", "key", key, "err", err)
		return false
	}
	if raw == "" {
		return false
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		log.WarnContext(ctx, "cache entry corrupted, treat as miss", "key", key, "err", err)
		_ = redis.DeleteKey(ctx, key)
		return false
	}
	return true
}

// SetJSON 序列化写入，失败只记日志
func SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if !redis.Available() {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		log.WarnContext(ctx, "cache marshal failed", "key", key, "err", err)
		return
	}
	if err := redis.SetWithExpiration(ctx, key, data, ttl); err != nil {
		log.WarnContext(ctx, "cache set failed", "key", key, "err", err)
	}
}

// Invalidate 删除缓存键
func Invalidate(ctx context.Context, keys ...string) {
	if !redis.Available() {
		return
	}
	if err := redis.DeleteKeys(ctx, keys...); err != nil {
		log.WarnContext(ctx, "cache invalidate failed", "keys", keys, "err", err)
	}
}

// InvalidateUserCaches 用户可见属性变更后，资料缓存与其全部匹配分页一并失效
func InvalidateUserCaches(ctx context.Context, userID string) {
	keys := make([]string, 0, consts.MatchPageMax+1)
	keys = append(keys, ProfileKey(userID))
	for page := 1; page <= consts.MatchPageMax; page++ {
		keys = append(keys, MatchPageKey(userID, page))
	}
	Invalidate(ctx, keys...)
}
