package service

import (
	"Amoura/internal/api/dto"
	"Amoura/internal/pkg/cache"
	"Amoura/internal/pkg/consts"
	"Amoura/internal/pkg/mongo"
	"context"
	"errors"
	log "log/slog"
	"time"

	"github.com/jinzhu/copier"
)

// DeliveryRouter 聊天服务依赖的推送能力。推送是尽力而为的旁路，
// 失败对发送方不可见，发送成功的凭据是 Send 的返回值而非推送回执。
type DeliveryRouter interface {
	Deliver(ctx context.Context, from, to string, payload interface{})
	NotifySeen(ctx context.Context, senderID string, payload interface{})
}

// ChatService 私信核心服务
type ChatService interface {
	Send(ctx context.Context, from, to, content string) (*dto.MessageDTO, error)
	GetConversation(ctx context.Context, userA, userB, viewerID string) ([]*dto.MessageDTO, error)
	MarkSeen(ctx context.Context, messageID string) (*dto.MessageDTO, error)
	DeleteForMe(ctx context.Context, messageID, userID string) (*dto.MessageDTO, error)
	Unsend(ctx context.Context, messageID, requesterID string) (*dto.MessageDTO, error)
}

type chatServiceImpl struct {
	messageRepo mongo.MessageRepo
	presence    PresenceService
	router      DeliveryRouter
}

func NewChatService(messageRepo mongo.MessageRepo, presence PresenceService, router DeliveryRouter) ChatService {
	return &chatServiceImpl{
		messageRepo: messageRepo,
		presence:    presence,
		router:      router,
	}
}

// Send 发送消息：落库后推送给双方的所有在线终端。
// 已读初值规则：发给自己的消息直接已读；发出时对方在线也直接置已读。
// 后者是无回执的尽力而为优化，推送丢失时可能出现对方从未渲染过的已读消息，
// 客户端仍可显式调用 MarkSeen 兜底。
func (s *chatServiceImpl) Send(ctx context.Context, from, to, content string) (*dto.MessageDTO, error) {
	if from == "" || to == "" || content == "" {
		return nil, ErrParamInvalid
	}

	seen := from == to || s.presence.IsOnline(ctx, to)

	msg := &mongo.Message{
		From:      from,
		To:        to,
		Content:   content,
		Seen:      seen,
		CreatedAt: time.Now(),
	}

	if err := s.messageRepo.Insert(ctx, msg); err != nil {
		log.ErrorContext(ctx, "message insert failed", "from", from, "to", to, "err", err)
		return nil, ErrMessageStoreDown
	}

	res := s.toMessageDTO(msg)
	s.router.Deliver(ctx, from, to, res)
	s.appendToConversationCache(ctx, msg, res)

	return res, nil
}

// GetConversation 拉取双方会话，升序，排除 viewer 已单侧删除的消息
func (s *chatServiceImpl) GetConversation(ctx context.Context, userA, userB, viewerID string) ([]*dto.MessageDTO, error) {
	if userA == "" || userB == "" || viewerID == "" {
		return nil, ErrParamInvalid
	}

	key := cache.ConversationKey(userA, userB, viewerID)
	var cached []*dto.MessageDTO
	if cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}

	messages, err := s.messageRepo.Conversation(ctx, userA, userB, viewerID)
	if err != nil {
		log.ErrorContext(ctx, "conversation query failed", "err", err)
		return nil, ErrMessageStoreDown
	}

	res := make([]*dto.MessageDTO, 0, len(messages))
	for _, m := range messages {
		res = append(res, s.toMessageDTO(m))
	}

	cache.SetJSON(ctx, key, res, consts.ConversationCacheTTL)
	return res, nil
}

// MarkSeen 标记已读（幂等），并向原发送者的所有终端推送已读回执
func (s *chatServiceImpl) MarkSeen(ctx context.Context, messageID string) (*dto.MessageDTO, error) {
	if messageID == "" {
		return nil, ErrParamInvalid
	}

	msg, err := s.messageRepo.MarkSeen(ctx, messageID)
	if err != nil {
		return nil, s.mapRepoError(ctx, err)
	}

	s.router.NotifySeen(ctx, msg.From, &dto.SeenReceiptDTO{
		MessageID: msg.ID,
		From:      msg.From,
		To:        msg.To,
		SeenBy:    msg.To,
	})
	s.invalidateConversationCache(ctx, msg)

	return s.toMessageDTO(msg), nil
}

// DeleteForMe 单侧删除：只影响 userID 自己的会话视图，幂等
func (s *chatServiceImpl) DeleteForMe(ctx context.Context, messageID, userID string) (*dto.MessageDTO, error) {
	if messageID == "" || userID == "" {
		return nil, ErrParamInvalid
	}

	msg, err := s.messageRepo.AddDeletedFor(ctx, messageID, userID)
	if err != nil {
		return nil, s.mapRepoError(ctx, err)
	}

	cache.Invalidate(ctx, cache.ConversationKey(msg.From, msg.To, userID))
	return s.toMessageDTO(msg), nil
}

// Unsend 撤回：仅原发送者可操作，置位后消息体清空。
// 对方此前的单侧删除独立于撤回，已删除的视图不会因撤回恢复。
func (s *chatServiceImpl) Unsend(ctx context.Context, messageID, requesterID string) (*dto.MessageDTO, error) {
	if messageID == "" || requesterID == "" {
		return nil, ErrParamInvalid
	}

	msg, err := s.messageRepo.Get(ctx, messageID)
	if err != nil {
		return nil, s.mapRepoError(ctx, err)
	}
	if msg.From != requesterID {
		return nil, ErrNotMessageSender
	}

	updated, err := s.messageRepo.Unsend(ctx, messageID)
	if err != nil {
		return nil, s.mapRepoError(ctx, err)
	}

	res := s.toMessageDTO(updated)
	// 撤回后的消息状态同样推送给双方终端刷新视图
	s.router.Deliver(ctx, updated.From, updated.To, res)
	s.invalidateConversationCache(ctx, updated)

	return res, nil
}

func (s *chatServiceImpl) mapRepoError(ctx context.Context, err error) error {
	if errors.Is(err, mongo.ErrMessageNotExist) {
		return ErrMessageNotFound
	}
	log.ErrorContext(ctx, "message store error", "err", err)
	return ErrMessageStoreDown
}

// appendToConversationCache 有缓存时优先追加而非整体失效
func (s *chatServiceImpl) appendToConversationCache(ctx context.Context, msg *mongo.Message, res *dto.MessageDTO) {
	for _, viewerID := range []string{msg.From, msg.To} {
		key := cache.ConversationKey(msg.From, msg.To, viewerID)
		var cached []*dto.MessageDTO
		if !cache.GetJSON(ctx, key, &cached) {
			continue
		}
		cached = append(cached, res)
		cache.SetJSON(ctx, key, cached, consts.ConversationCacheTTL)
		if msg.From == msg.To {
			break
		}
	}
}

func (s *chatServiceImpl) invalidateConversationCache(ctx context.Context, msg *mongo.Message) {
	cache.Invalidate(ctx,
		cache.ConversationKey(msg.From, msg.To, msg.From),
		cache.ConversationKey(msg.From, msg.To, msg.To),
	)
}

func (s *chatServiceImpl) toMessageDTO(m *mongo.Message) *dto.MessageDTO {
	res := &dto.MessageDTO{}
	_ = copier.Copy(res, m)
	return res
}
