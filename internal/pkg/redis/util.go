package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// SetWithExpiration 设置键值对并设置过期时间
func SetWithExpiration(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return Rdb.Set(ctx, key, value, expiration).Err()
}

// GetValue 获取字符串类型的值，键不存在返回空串
func GetValue(ctx context.Context, key string) (string, error) {
	value, err := Rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

// DeleteKey 删除一个键
func DeleteKey(ctx context.Context, key string) error {
	return Rdb.Del(ctx, key).Err()
}

// DeleteKeys 批量删除
func DeleteKeys(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return Rdb.Del(ctx, keys...).Err()
}

// ZAdd 向有序集合添加一个或多个成员，或者更新已存在成员的分数
func ZAdd(ctx context.Context, key string, score float64, member string) error {
	return Rdb.ZAdd(ctx, key, redis.Z{Score: score, Member: member}).Err()
}

// ZScore 获取成员分数，成员不存在时返回 found=false
func ZScore(ctx context.Context, key string, member string) (float64, bool, error) {
	score, err := Rdb.ZScore(ctx, key, member).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return score, true, nil
}

// ZRem 移除有序集合中的成员
func ZRem(ctx context.Context, key string, member string) error {
	return Rdb.ZRem(ctx, key, member).Err()
}

// ZRangeByScore 获取分数区间内的成员
func ZRangeByScore(ctx context.Context, key string, min, max string) ([]string, error) {
	return Rdb.ZRangeByScore(ctx, key, &redis.ZRangeBy{Min: min, Max: max}).Result()
}

// ZRemRangeByScore 移除分数区间内的成员，用于惰性清理过期在线记录
func ZRemRangeByScore(ctx context.Context, key string, min, max string) error {
	return Rdb.ZRemRangeByScore(ctx, key, min, max).Err()
}

// Publish 发布消息到频道
func Publish(ctx context.Context, channel string, payload interface{}) error {
	return Rdb.Publish(ctx, channel, payload).Err()
}

// PSubscribe 按模式订阅频道
func PSubscribe(ctx context.Context, patterns ...string) *redis.PubSub {
	return Rdb.PSubscribe(ctx, patterns...)
}
