package ws

import (
	"context"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeFrames(t *testing.T, raw [][]byte) []Frame {
	t.Helper()
	res := make([]Frame, 0, len(raw))
	for _, data := range raw {
		var f Frame
		require.NoError(t, json.Unmarshal(data, &f))
		res = append(res, f)
	}
	return res
}

func TestRouterDeliverFansOutToBothParticipants(t *testing.T) {
	registry := NewRegistry()
	router := NewRouter(registry)

	// alice 双端在线，bob 单端在线
	a1 := newFakeConn("a1", "alice")
	a2 := newFakeConn("a2", "alice")
	b1 := newFakeConn("b1", "bob")
	registry.Identify(a1)
	registry.Identify(a2)
	registry.Identify(b1)

	router.Deliver(context.Background(), "bob", "alice", map[string]string{"id": "m1"})

	// 接收方每个终端恰好收到一次，发送方终端也能看到自己发出的消息
	for _, conn := range []*fakeConn{a1, a2, b1} {
		frames := decodeFrames(t, conn.received())
		require.Len(t, frames, 1, "conn %s", conn.ID())
		assert.Equal(t, EventMessage, frames[0].Type)
	}
}

func TestRouterDeliverSelfMessageOnce(t *testing.T) {
	registry := NewRegistry()
	router := NewRouter(registry)

	a1 := newFakeConn("a1", "alice")
	registry.Identify(a1)

	router.Deliver(context.Background(), "alice", "alice", map[string]string{"id": "m1"})

	assert.Len(t, a1.received(), 1)
}

func TestRouterNotifySeenOnlyToSender(t *testing.T) {
	registry := NewRegistry()
	router := NewRouter(registry)

	a1 := newFakeConn("a1", "alice")
	b1 := newFakeConn("b1", "bob")
	registry.Identify(a1)
	registry.Identify(b1)

	router.NotifySeen(context.Background(), "alice", map[string]string{"message_id": "m1"})

	frames := decodeFrames(t, a1.received())
	require.Len(t, frames, 1)
	assert.Equal(t, EventSeen, frames[0].Type)
	assert.Empty(t, b1.received())
}

func TestRouterTypingOnlyToRecipient(t *testing.T) {
	registry := NewRegistry()
	router := NewRouter(registry)

	a1 := newFakeConn("a1", "alice")
	b1 := newFakeConn("b1", "bob")
	registry.Identify(a1)
	registry.Identify(b1)

	router.NotifyTyping(context.Background(), "alice", "bob", true)

	assert.Empty(t, a1.received(), "输入中指示不回显给发送方")
	frames := decodeFrames(t, b1.received())
	require.Len(t, frames, 1)
	assert.Equal(t, EventTyping, frames[0].Type)

	var evt TypingEvent
	require.NoError(t, json.Unmarshal(frames[0].Data, &evt))
	assert.Equal(t, "alice", evt.From)
	assert.True(t, evt.IsTyping)
}

func TestRouterBroadcastPresenceToAll(t *testing.T) {
	registry := NewRegistry()
	router := NewRouter(registry)

	a1 := newFakeConn("a1", "alice")
	b1 := newFakeConn("b1", "bob")
	registry.Identify(a1)
	registry.Identify(b1)

	router.BroadcastPresence(context.Background(), "carol", true)

	for _, conn := range []*fakeConn{a1, b1} {
		frames := decodeFrames(t, conn.received())
		require.Len(t, frames, 1)
		assert.Equal(t, EventPresence, frames[0].Type)

		var evt PresenceEvent
		require.NoError(t, json.Unmarshal(frames[0].Data, &evt))
		assert.Equal(t, "carol", evt.UserID)
		assert.True(t, evt.Online)
	}
}

func TestRouterDeadConnTriggersCleanup(t *testing.T) {
	registry := NewRegistry()
	router := NewRouter(registry)

	var offlined []string
	router.OnLastDisconnect = func(ctx context.Context, userID string) {
		offlined = append(offlined, userID)
	}

	b1 := newFakeConn("b1", "bob")
	b1.full = true // 入队永远失败，模拟死连接
	registry.Identify(b1)

	router.Deliver(context.Background(), "alice", "bob", map[string]string{"id": "m1"})

	assert.True(t, b1.closed, "推送失败的连接应被关闭")
	assert.Empty(t, registry.ConnectionsFor("bob"))
	assert.Equal(t, []string{"bob"}, offlined, "最后一条连接清理后应触发离线")
}

func TestRouterDeadConnDoesNotBlockOthers(t *testing.T) {
	registry := NewRegistry()
	router := NewRouter(registry)

	b1 := newFakeConn("b1", "bob")
	b1.full = true
	b2 := newFakeConn("b2", "bob")
	registry.Identify(b1)
	registry.Identify(b2)

	router.Deliver(context.Background(), "alice", "bob", map[string]string{"id": "m1"})

	assert.Len(t, b2.received(), 1, "单个连接失败不影响其余连接的投递")
}

func TestRouterBridgeSkipsOwnFrames(t *testing.T) {
	registry := NewRegistry()
	router := NewRouter(registry)

	b1 := newFakeConn("b1", "bob")
	registry.Identify(b1)

	frame, err := EncodeFrame(EventMessage, map[string]string{"id": "m1"})
	require.NoError(t, err)

	own, err := json.Marshal(&bridgeEnvelope{Origin: router.originID, Frame: frame})
	require.NoError(t, err)
	router.handleBridgeFrame(context.Background(), "im:user:bob", own)
	assert.Empty(t, b1.received(), "自己发布的帧不应回流投递")

	remote, err := json.Marshal(&bridgeEnvelope{Origin: "other-node", Frame: frame})
	require.NoError(t, err)
	router.handleBridgeFrame(context.Background(), "im:user:bob", remote)
	assert.Len(t, b1.received(), 1)
}
