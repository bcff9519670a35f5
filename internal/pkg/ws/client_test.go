package ws

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientEnqueueNonBlocking(t *testing.T) {
	c := NewClient("alice", nil, 2, 0, 0)

	assert.True(t, c.Enqueue([]byte("f1")))
	assert.True(t, c.Enqueue([]byte("f2")))
	// 缓冲满时立即失败而不是阻塞调用方
	assert.False(t, c.Enqueue([]byte("f3")))
}

func TestClientCollectBatchPreservesOrder(t *testing.T) {
	c := NewClient("alice", nil, 64, 10*time.Millisecond, 0)

	for i := 1; i < 5; i++ {
		require.True(t, c.Enqueue([]byte("f"+strconv.Itoa(i))))
	}

	first := <-c.send
	batch := c.collectBatch(first)

	require.Len(t, batch, 4)
	for i, frame := range batch {
		assert.Equal(t, "f"+strconv.Itoa(i+1), string(frame))
	}
}

func TestClientCollectBatchCapped(t *testing.T) {
	c := NewClient("alice", nil, 128, 50*time.Millisecond, 0)

	for i := 0; i < maxBatch+10; i++ {
		require.True(t, c.Enqueue([]byte{byte(i)}))
	}

	first := <-c.send
	batch := c.collectBatch(first)
	assert.Len(t, batch, maxBatch, "单帧合并条数有上限")
}

func TestClientCollectBatchWithoutWindow(t *testing.T) {
	c := NewClient("alice", nil, 8, 0, 0)
	c.Enqueue([]byte("f1"))
	c.Enqueue([]byte("f2"))

	first := <-c.send
	batch := c.collectBatch(first)
	assert.Len(t, batch, 1, "未配置合并窗口时逐帧发送")
}

func TestClientIDsUnique(t *testing.T) {
	c1 := NewClient("alice", nil, 1, 0, 0)
	c2 := NewClient("alice", nil, 1, 0, 0)
	assert.NotEqual(t, c1.ID(), c2.ID())
	assert.Equal(t, "alice", c1.UserID())
}
