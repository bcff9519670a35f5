package ws

import (
	"Amoura/internal/pkg/consts"
	"Amoura/internal/pkg/redis"
	"context"
	log "log/slog"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// PresenceChannel 在线状态变更的全局广播频道
const PresenceChannel = "im:presence"

// Router 投递路由：把消息与瞬态事件推送到相关用户的全部活跃连接。
// 对单个连接的推送是非阻塞尽力而为，失败的连接按已断开处理。
// Redis 可用时同时发布到用户频道，使多进程部署下其他节点也能投递。
type Router struct {
	registry *Registry

	// originID 标识本进程，桥接回流时跳过自己发布的帧
	originID string

	// OnLastDisconnect 用户最后一条连接被清理后的回调（接入在线状态下线）
	OnLastDisconnect func(ctx context.Context, userID string)
}

func NewRouter(registry *Registry) *Router {
	return &Router{
		registry: registry,
		originID: uuid.NewString(),
	}
}

// Deliver 推送一条新消息（或消息状态变化）给会话双方的所有连接，
// 发送方的其他终端也会收到自己刚发出的消息。
func (r *Router) Deliver(ctx context.Context, from, to string, payload interface{}) {
	frame, err := EncodeFrame(EventMessage, payload)
	if err != nil {
		log.ErrorContext(ctx, "encode message frame failed", "err", err)
		return
	}

	r.pushToUser(ctx, from, frame)
	if to != from {
		r.pushToUser(ctx, to, frame)
	}

	r.publish(ctx, consts.IMUserKey+from, frame)
	if to != from {
		r.publish(ctx, consts.IMUserKey+to, frame)
	}
}

// NotifySeen 推送已读回执到原发送者的所有连接
func (r *Router) NotifySeen(ctx context.Context, senderID string, payload interface{}) {
	frame, err := EncodeFrame(EventSeen, payload)
	if err != nil {
		log.ErrorContext(ctx, "encode seen frame failed", "err", err)
		return
	}
	r.pushToUser(ctx, senderID, frame)
	r.publish(ctx, consts.IMUserKey+senderID, frame)
}

// BroadcastPresence 全局广播在线状态变更。此系统规模下全量广播即可。
func (r *Router) BroadcastPresence(ctx context.Context, userID string, online bool) {
	frame, err := EncodeFrame(EventPresence, &PresenceEvent{UserID: userID, Online: online})
	if err != nil {
		log.ErrorContext(ctx, "encode presence frame failed", "err", err)
		return
	}

	for _, conn := range r.registry.AllConnections() {
		r.push(ctx, conn, frame)
	}
	r.publish(ctx, PresenceChannel, frame)
}

// NotifyTyping 输入中指示只送达接收方，后写覆盖先写
func (r *Router) NotifyTyping(ctx context.Context, fromUserID, toUserID string, isTyping bool) {
	frame, err := EncodeFrame(EventTyping, &TypingEvent{From: fromUserID, To: toUserID, IsTyping: isTyping})
	if err != nil {
		return
	}
	r.pushToUser(ctx, toUserID, frame)
	r.publish(ctx, consts.IMUserKey+toUserID, frame)
}

// DropConn 统一的连接清理入口：关闭、注销、必要时触发离线转换与广播
func (r *Router) DropConn(ctx context.Context, connID string) {
	userID, last, known := r.registry.Disconnect(connID)
	if !known {
		return
	}
	if !last {
		return
	}

	if r.OnLastDisconnect != nil {
		r.OnLastDisconnect(ctx, userID)
	}
	r.BroadcastPresence(ctx, userID, false)
}

func (r *Router) pushToUser(ctx context.Context, userID string, frame []byte) {
	for _, conn := range r.registry.ConnectionsFor(userID) {
		r.push(ctx, conn, frame)
	}
}

func (r *Router) push(ctx context.Context, conn Conn, frame []byte) {
	if conn.Enqueue(frame) {
		return
	}

	// 入队失败等同于连接已死，走与显式断开相同的清理路径
	log.WarnContext(ctx, "ws push failed, dropping connection", "conn", conn.ID(), "user", conn.UserID())
	conn.Close()
	r.DropConn(ctx, conn.ID())
}

// bridgeEnvelope 跨进程投递的信封
type bridgeEnvelope struct {
	Origin string          `json:"origin"`
	Frame  json.RawMessage `json:"frame"`
}

func (r *Router) publish(ctx context.Context, channel string, frame []byte) {
	if !redis.Available() {
		return
	}

	data, err := json.Marshal(&bridgeEnvelope{Origin: r.originID, Frame: frame})
	if err != nil {
		return
	}
	if err := redis.Publish(ctx, channel, data); err != nil {
		log.WarnContext(ctx, "bridge publish failed", "channel", channel, "err", err)
	}
}

// StartBridge 订阅 Redis 频道，把其他进程发布的帧投递给本地连接。
// ctx 取消后退出。Redis 不可用时直接返回，单节点模式只走本地投递。
func (r *Router) StartBridge(ctx context.Context) {
	if !redis.Available() {
		log.Info("redis unavailable, delivery bridge disabled")
		return
	}

	pubsub := redis.PSubscribe(ctx, consts.IMUserKey+"*", PresenceChannel)
	go func() {
		defer func() {
			_ = pubsub.Close()
		}()

		ch := pubsub.Channel()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				r.handleBridgeFrame(ctx, msg.Channel, []byte(msg.Payload))
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (r *Router) handleBridgeFrame(ctx context.Context, channel string, payload []byte) {
	var env bridgeEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		log.WarnContext(ctx, "bridge frame malformed", "channel", channel, "err", err)
		return
	}
	if env.Origin == r.originID {
		return
	}

	if channel == PresenceChannel {
		for _, conn := range r.registry.AllConnections() {
			r.push(ctx, conn, env.Frame)
		}
		return
	}

	userID := strings.TrimPrefix(channel, consts.IMUserKey)
	r.pushToUser(ctx, userID, env.Frame)
}
