package consts

const (
	// PresenceOnlineKey ZSET：member 为用户 ID，score 为最后心跳的 Unix 秒
	PresenceOnlineKey = "presence:online"

	// PresenceConnKey 记录用户最近一次上线关联的连接 ID
	PresenceConnKey = "presence:conn:"

	UserProfileKey = "user:profile:"
	UserMatchKey   = "user:match:"

	ConversationKey = "im:conversation:"

	// IMUserKey 跨进程投递频道前缀，后接用户 ID
	IMUserKey = "im:user:"
)
