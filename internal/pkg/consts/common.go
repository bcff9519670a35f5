package consts

import "time"

const (
	// PresenceTTL 在线判定窗口：最后一次心跳距今超过该值即视为离线
	PresenceTTL = 75 * time.Second

	// HeartbeatInterval 客户端心跳上报周期
	HeartbeatInterval = 30 * time.Second

	// ProfileCacheTTL 用户资料缓存时长
	ProfileCacheTTL = 10 * time.Minute

	// MatchPageCacheTTL 匹配列表分页缓存时长
	MatchPageCacheTTL = 5 * time.Minute

	// ConversationCacheTTL 会话消息缓存时长
	ConversationCacheTTL = 3 * time.Minute

	// MatchPageMax 匹配列表缓存的最大页数，失效时按页逐个删除
	MatchPageMax = 20
)
