package dto

import "time"

// SendMessageReq 发送消息请求体。content 为上游加密后的密文
type SendMessageReq struct {
	ToUserID string `json:"to_user_id" binding:"required"`
	Content  string `json:"content" binding:"required"`
}

// MessageDTO 消息明细响应
type MessageDTO struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Content   string    `json:"content"`
	Seen      bool      `json:"seen"`
	IsUnsent  bool      `json:"is_unsent"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageIDReq 按消息 ID 操作的请求体（已读 / 删除 / 撤回）
type MessageIDReq struct {
	MessageID string `json:"message_id" binding:"required"`
}

// SeenReceiptDTO 已读回执推送
type SeenReceiptDTO struct {
	MessageID string `json:"message_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	SeenBy    string `json:"seen_by"`
}

// OnlineStatusDTO 在线状态查询响应
type OnlineStatusDTO struct {
	UserID string `json:"user_id"`
	Online bool   `json:"online"`
}

// OnlineListDTO 在线用户列表响应
type OnlineListDTO struct {
	Count int      `json:"count"`
	Users []string `json:"users"`
}
