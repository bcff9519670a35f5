package handler

import (
	"Amoura/internal/api/config"
	"Amoura/internal/pkg/response"
	"Amoura/internal/pkg/security"
	"Amoura/internal/pkg/ws"
	"Amoura/internal/service"
	"context"
	log "log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WsHandler struct {
	registry *ws.Registry
	router   *ws.Router
	presence service.PresenceService
}

func NewWsHandler(registry *ws.Registry, router *ws.Router, presence service.PresenceService) *WsHandler {
	return &WsHandler{
		registry: registry,
		router:   router,
		presence: presence,
	}
}

// Connect 建立实时通道：token 鉴权 -> 协议升级 -> 事件循环。
// 连接登记发生在客户端发送 identify 事件时，而不是升级完成时。
func (s *WsHandler) Connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, service.UnauthorizedError)
		return
	}
	claims, err := security.ValidateToken(token)
	if err != nil {
		log.Warn("WS 鉴权失败", "err", err)
		response.Error(c, service.UnauthorizedError)
		return
	}
	userID := claims.UserID

	sock, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WS 协议升级失败", "err", err)
		return
	}

	wsCfg := config.Cfg.WS
	client := ws.NewClient(userID, sock,
		wsCfg.SendBuffer,
		time.Duration(wsCfg.CoalesceWindow)*time.Millisecond,
		int64(wsCfg.MaxMessageBytes),
	)

	log.Info("用户 WS 连接已建立", "userID", userID, "conn", client.ID())

	go client.WritePump()

	ctx := c.Request.Context()
	client.ReadLoop(func(frame []byte) {
		s.dispatch(ctx, client, frame)
	})

	// 读循环退出即视为断开，未知连接的重复清理是安全的空操作
	client.Close()
	s.router.DropConn(context.Background(), client.ID())
	log.Info("用户 WS 连接已断开", "userID", userID, "conn", client.ID())
}

func (s *WsHandler) dispatch(ctx context.Context, client *ws.Client, frame []byte) {
	var evt ws.Frame
	if err := json.Unmarshal(frame, &evt); err != nil {
		log.DebugContext(ctx, "ws 上行帧解析失败", "conn", client.ID(), "err", err)
		return
	}

	switch evt.Type {
	case ws.EventIdentify:
		var req ws.IdentifyReq
		_ = json.Unmarshal(evt.Data, &req)
		// 连接身份以 token 为准，identify 声明不一致时忽略
		if req.UserID != "" && req.UserID != client.UserID() {
			log.WarnContext(ctx, "identify 与 token 身份不符", "conn", client.ID(), "claimed", req.UserID)
			return
		}
		s.identify(ctx, client)

	case ws.EventTyping:
		var req ws.TypingReq
		if err := json.Unmarshal(evt.Data, &req); err != nil || req.ToUserID == "" {
			return
		}
		s.router.NotifyTyping(ctx, client.UserID(), req.ToUserID, req.IsTyping)

	case ws.EventActivity, ws.EventHeartbeat:
		s.presence.Heartbeat(ctx, client.UserID())

	case ws.EventJoinRoom:
		var req ws.RoomReq
		if err := json.Unmarshal(evt.Data, &req); err != nil || req.RoomID == "" {
			return
		}
		s.registry.JoinRoom(req.RoomID, client)

	case ws.EventLeaveRoom:
		var req ws.RoomReq
		if err := json.Unmarshal(evt.Data, &req); err != nil || req.RoomID == "" {
			return
		}
		s.registry.LeaveRoom(req.RoomID, client.ID())

	default:
		log.DebugContext(ctx, "ws 未知事件类型", "type", evt.Type, "conn", client.ID())
	}
}

func (s *WsHandler) identify(ctx context.Context, client *ws.Client) {
	first := s.registry.Identify(client)
	s.presence.SetOnline(ctx, client.UserID(), client.ID())
	if first {
		s.router.BroadcastPresence(ctx, client.UserID(), true)
	}
}
