package ws

import (
	"github.com/goccy/go-json"
)

// 下行事件类型
const (
	EventMessage  = "message"
	EventSeen     = "seen"
	EventPresence = "presence"
	EventTyping   = "typing"
)

// 上行事件类型
const (
	EventIdentify  = "identify"
	EventActivity  = "activity"
	EventHeartbeat = "heartbeat"
	EventJoinRoom  = "join_room"
	EventLeaveRoom = "leave_room"
)

// Frame 一条 Websocket 事件帧
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// EncodeFrame 组装下行帧
func EncodeFrame(eventType string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&Frame{Type: eventType, Data: raw})
}

// PresenceEvent 在线状态变更推送
type PresenceEvent struct {
	UserID string `json:"user_id"`
	Online bool   `json:"online"`
}

// TypingEvent 输入中指示推送，不落库、不重试
type TypingEvent struct {
	From     string `json:"from"`
	To       string `json:"to"`
	IsTyping bool   `json:"is_typing"`
}

// IdentifyReq identify 上行事件载荷
type IdentifyReq struct {
	UserID string `json:"user_id"`
}

// TypingReq typing 上行事件载荷
type TypingReq struct {
	ToUserID string `json:"to_user_id"`
	IsTyping bool   `json:"is_typing"`
}

// RoomReq join_room / leave_room 上行事件载荷
type RoomReq struct {
	RoomID string `json:"room_id"`
}
