package service

import (
	"Amoura/internal/api/dto"
	"Amoura/internal/pkg/mongo"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRouter 记录推送调用的路由桩
type fakeRouter struct {
	mu        sync.Mutex
	delivered []*dto.MessageDTO
	seenTo    []string
	receipts  []*dto.SeenReceiptDTO
}

func (r *fakeRouter) Deliver(ctx context.Context, from, to string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if msg, ok := payload.(*dto.MessageDTO); ok {
		r.delivered = append(r.delivered, msg)
	}
}

func (r *fakeRouter) NotifySeen(ctx context.Context, senderID string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seenTo = append(r.seenTo, senderID)
	if receipt, ok := payload.(*dto.SeenReceiptDTO); ok {
		r.receipts = append(r.receipts, receipt)
	}
}

// 聊天服务测试固定走进程内消息存储：持久实现与它共享同一接口契约
func newTestChatService(t *testing.T) (ChatService, *presenceServiceImpl, *fakeRouter, mongo.MessageRepo) {
	t.Helper()
	repo := mongo.NewMemoryMessageRepo()
	presence := NewPresenceService(time.Minute).(*presenceServiceImpl)
	router := &fakeRouter{}
	return NewChatService(repo, presence, router), presence, router, repo
}

func TestSendSelfMessageSeen(t *testing.T) {
	svc, _, _, _ := newTestChatService(t)

	msg, err := svc.Send(context.Background(), "alice", "alice", "note")
	require.NoError(t, err)
	assert.True(t, msg.Seen, "发给自己的消息直接已读")
}

func TestSendSeenDependsOnRecipientPresence(t *testing.T) {
	svc, presence, _, _ := newTestChatService(t)
	ctx := context.Background()

	offline, err := svc.Send(ctx, "alice", "bob", "first")
	require.NoError(t, err)
	assert.False(t, offline.Seen, "对方离线时不能预置已读")

	presence.SetOnline(ctx, "bob", "conn-1")
	online, err := svc.Send(ctx, "alice", "bob", "second")
	require.NoError(t, err)
	assert.True(t, online.Seen, "发出时对方在线则按尽力而为置已读")
}

func TestSendValidation(t *testing.T) {
	svc, _, _, _ := newTestChatService(t)
	ctx := context.Background()

	_, err := svc.Send(ctx, "", "bob", "x")
	assert.ErrorIs(t, err, ErrParamInvalid)
	_, err = svc.Send(ctx, "alice", "", "x")
	assert.ErrorIs(t, err, ErrParamInvalid)
	_, err = svc.Send(ctx, "alice", "bob", "")
	assert.ErrorIs(t, err, ErrParamInvalid)
}

func TestSendDeliversToRouter(t *testing.T) {
	svc, _, router, _ := newTestChatService(t)

	msg, err := svc.Send(context.Background(), "alice", "bob", "hi")
	require.NoError(t, err)

	require.Len(t, router.delivered, 1)
	assert.Equal(t, msg.ID, router.delivered[0].ID)
}

func TestConversationOrderingAndFiltering(t *testing.T) {
	svc, _, _, repo := newTestChatService(t)
	ctx := context.Background()
	base := time.Now()

	// 直接落库并打乱时间，验证读取端排序
	later := &mongo.Message{From: "alice", To: "bob", Content: "c2", CreatedAt: base.Add(2 * time.Second)}
	require.NoError(t, repo.Insert(ctx, later))
	earlier := &mongo.Message{From: "bob", To: "alice", Content: "c1", CreatedAt: base.Add(1 * time.Second)}
	require.NoError(t, repo.Insert(ctx, earlier))

	res, err := svc.GetConversation(ctx, "alice", "bob", "alice")
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "c1", res[0].Content)
	assert.Equal(t, "c2", res[1].Content)
}

func TestDeleteForMePerViewer(t *testing.T) {
	svc, _, _, _ := newTestChatService(t)
	ctx := context.Background()

	msg, err := svc.Send(ctx, "alice", "bob", "hi")
	require.NoError(t, err)

	_, err = svc.DeleteForMe(ctx, msg.ID, "alice")
	require.NoError(t, err)

	forAlice, err := svc.GetConversation(ctx, "alice", "bob", "alice")
	require.NoError(t, err)
	assert.Empty(t, forAlice, "删除方视图中不再出现")

	forBob, err := svc.GetConversation(ctx, "alice", "bob", "bob")
	require.NoError(t, err)
	assert.Len(t, forBob, 1, "对方视图不受影响")
}

func TestDeleteForMeIdempotent(t *testing.T) {
	svc, _, _, _ := newTestChatService(t)
	ctx := context.Background()

	msg, err := svc.Send(ctx, "alice", "bob", "hi")
	require.NoError(t, err)

	_, err = svc.DeleteForMe(ctx, msg.ID, "alice")
	require.NoError(t, err)
	_, err = svc.DeleteForMe(ctx, msg.ID, "alice")
	require.NoError(t, err)

	forBob, err := svc.GetConversation(ctx, "alice", "bob", "bob")
	require.NoError(t, err)
	assert.Len(t, forBob, 1)
}

func TestUnsendSenderOnly(t *testing.T) {
	svc, _, _, _ := newTestChatService(t)
	ctx := context.Background()

	msg, err := svc.Send(ctx, "alice", "bob", "oops")
	require.NoError(t, err)

	// 非发送者撤回被拒绝且消息原样保留
	_, err = svc.Unsend(ctx, msg.ID, "bob")
	assert.ErrorIs(t, err, ErrNotMessageSender)

	forBob, err := svc.GetConversation(ctx, "alice", "bob", "bob")
	require.NoError(t, err)
	require.Len(t, forBob, 1)
	assert.Equal(t, "oops", forBob[0].Content)
	assert.False(t, forBob[0].IsUnsent)

	// 发送者撤回：清空内容并置位
	unsent, err := svc.Unsend(ctx, msg.ID, "alice")
	require.NoError(t, err)
	assert.True(t, unsent.IsUnsent)
	assert.Empty(t, unsent.Content)
}

func TestUnsendDoesNotRestoreDeletedView(t *testing.T) {
	svc, _, _, _ := newTestChatService(t)
	ctx := context.Background()

	msg, err := svc.Send(ctx, "alice", "bob", "hi")
	require.NoError(t, err)

	_, err = svc.DeleteForMe(ctx, msg.ID, "bob")
	require.NoError(t, err)
	_, err = svc.Unsend(ctx, msg.ID, "alice")
	require.NoError(t, err)

	// 单侧删除独立于撤回：bob 的视图不会因撤回恢复这条消息
	forBob, err := svc.GetConversation(ctx, "alice", "bob", "bob")
	require.NoError(t, err)
	assert.Empty(t, forBob)
}

func TestMarkSeenNotifiesSender(t *testing.T) {
	svc, _, router, _ := newTestChatService(t)
	ctx := context.Background()

	msg, err := svc.Send(ctx, "alice", "bob", "hi")
	require.NoError(t, err)
	assert.False(t, msg.Seen)

	seen, err := svc.MarkSeen(ctx, msg.ID)
	require.NoError(t, err)
	assert.True(t, seen.Seen)

	// 已读回执推向原发送者
	require.Len(t, router.seenTo, 1)
	assert.Equal(t, "alice", router.seenTo[0])
	require.Len(t, router.receipts, 1)
	assert.Equal(t, msg.ID, router.receipts[0].MessageID)

	// 幂等
	_, err = svc.MarkSeen(ctx, msg.ID)
	require.NoError(t, err)
}

func TestMessageOperationsOnMissingID(t *testing.T) {
	svc, _, _, _ := newTestChatService(t)
	ctx := context.Background()

	_, err := svc.MarkSeen(ctx, "missing")
	assert.ErrorIs(t, err, ErrMessageNotFound)
	_, err = svc.DeleteForMe(ctx, "missing", "alice")
	assert.ErrorIs(t, err, ErrMessageNotFound)
	_, err = svc.Unsend(ctx, "missing", "alice")
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

func TestFallbackStoreRoundTrip(t *testing.T) {
	// 进程内存储下完整链路仍可用，只是重启后丢失
	svc, _, _, _ := newTestChatService(t)
	ctx := context.Background()

	sent, err := svc.Send(ctx, "alice", "bob", "hi")
	require.NoError(t, err)

	res, err := svc.GetConversation(ctx, "alice", "bob", "alice")
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, sent.ID, res[0].ID)
	assert.Equal(t, "hi", res[0].Content)
}
