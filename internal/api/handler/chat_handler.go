package handler

import (
	"Amoura/internal/api/dto"
	"Amoura/internal/pkg/response"
	"Amoura/internal/service"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	chatService service.ChatService
	presence    service.PresenceService
}

func NewChatHandler(chatService service.ChatService, presence service.PresenceService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		presence:    presence,
	}
}

// SendMessage 发送消息接口
func (s *ChatHandler) SendMessage(c *gin.Context) {
	var req dto.SendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	from := c.GetString("user_id")

	res, err := s.chatService.Send(c, from, req.ToUserID, req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}

	// 任何用户活动都是一次有效心跳
	s.presence.Heartbeat(c, from)
	response.Success(c, res)
}

// GetConversation 拉取与指定用户的会话
func (s *ChatHandler) GetConversation(c *gin.Context) {
	viewerID := c.GetString("user_id")
	peerID := c.Query("peer_id")
	if peerID == "" {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	res, err := s.chatService.GetConversation(c, viewerID, peerID, viewerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// MarkSeen 标记已读接口
func (s *ChatHandler) MarkSeen(c *gin.Context) {
	var req dto.MessageIDReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	res, err := s.chatService.MarkSeen(c, req.MessageID)
	if err != nil {
		response.Error(c, err)
		return
	}

	s.presence.Heartbeat(c, c.GetString("user_id"))
	response.Success(c, res)
}

// DeleteForMe 单侧删除接口
func (s *ChatHandler) DeleteForMe(c *gin.Context) {
	var req dto.MessageIDReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	res, err := s.chatService.DeleteForMe(c, req.MessageID, c.GetString("user_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// Unsend 撤回接口
func (s *ChatHandler) Unsend(c *gin.Context) {
	var req dto.MessageIDReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	res, err := s.chatService.Unsend(c, req.MessageID, c.GetString("user_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// Heartbeat 显式心跳上报
func (s *ChatHandler) Heartbeat(c *gin.Context) {
	s.presence.Heartbeat(c, c.GetString("user_id"))
	response.Success(c, nil)
}

// IsOnline 查询单个用户在线状态
func (s *ChatHandler) IsOnline(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	response.Success(c, &dto.OnlineStatusDTO{
		UserID: userID,
		Online: s.presence.IsOnline(c, userID),
	})
}

// ListOnline 在线用户列表
func (s *ChatHandler) ListOnline(c *gin.Context) {
	users := s.presence.ListOnline(c)
	response.Success(c, &dto.OnlineListDTO{
		Count: len(users),
		Users: users,
	})
}
