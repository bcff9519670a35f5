package mongo

import (
	"time"
)

// Message MongoDB 私信明细模型
type Message struct {
	ID         string    `bson:"_id" json:"id"`                  // ObjectID 十六进制串，两种存储实现共用
	From       string    `bson:"from" json:"from"`               // 发送者 UID
	To         string    `bson:"to" json:"to"`                   // 接收者 UID
	Content    string    `bson:"content" json:"content"`         // 加密后的消息体，本核心不感知明文
	Seen       bool      `bson:"seen" json:"seen"`               // 已读标记，只能 false -> true
	IsUnsent   bool      `bson:"is_unsent" json:"isUnsent"`      // 撤回标记，置位后 content 清空
	DeletedFor []string  `bson:"deleted_for,omitempty" json:"-"` // 对哪些用户不可见（单侧删除）
	CreatedAt  time.Time `bson:"created_at" json:"createdAt"`    // 发送时间，会话内排序依据
}

// VisibleTo 消息对 viewer 是否可见（未被其单侧删除）
func (m *Message) VisibleTo(viewerID string) bool {
	for _, uid := range m.DeletedFor {
		if uid == viewerID {
			return false
		}
	}
	return true
}
