package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedMessage(t *testing.T, repo MessageRepo, from, to, content string, at time.Time) *Message {
	t.Helper()
	msg := &Message{
		From:      from,
		To:        to,
		Content:   content,
		CreatedAt: at,
	}
	require.NoError(t, repo.Insert(context.Background(), msg))
	return msg
}

func TestMemoryRepoConversationOrdering(t *testing.T) {
	repo := NewMemoryMessageRepo()
	base := time.Now()

	// 乱序插入，读取时必须按发送时间升序
	m3 := seedMessage(t, repo, "alice", "bob", "c3", base.Add(3*time.Second))
	m1 := seedMessage(t, repo, "alice", "bob", "c1", base.Add(1*time.Second))
	m2 := seedMessage(t, repo, "bob", "alice", "c2", base.Add(2*time.Second))

	res, err := repo.Conversation(context.Background(), "alice", "bob", "alice")
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, m1.ID, res[0].ID)
	assert.Equal(t, m2.ID, res[1].ID)
	assert.Equal(t, m3.ID, res[2].ID)
}

func TestMemoryRepoConversationExcludesOtherPairs(t *testing.T) {
	repo := NewMemoryMessageRepo()
	now := time.Now()

	seedMessage(t, repo, "alice", "bob", "x", now)
	seedMessage(t, repo, "alice", "carol", "y", now)

	res, err := repo.Conversation(context.Background(), "alice", "bob", "alice")
	require.NoError(t, err)
	assert.Len(t, res, 1)
	assert.Equal(t, "x", res[0].Content)
}

func TestMemoryRepoDeletedForVisibility(t *testing.T) {
	repo := NewMemoryMessageRepo()
	msg := seedMessage(t, repo, "alice", "bob", "hi", time.Now())

	_, err := repo.AddDeletedFor(context.Background(), msg.ID, "alice")
	require.NoError(t, err)

	forAlice, err := repo.Conversation(context.Background(), "alice", "bob", "alice")
	require.NoError(t, err)
	assert.Empty(t, forAlice)

	forBob, err := repo.Conversation(context.Background(), "alice", "bob", "bob")
	require.NoError(t, err)
	assert.Len(t, forBob, 1)
}

func TestMemoryRepoDeletedForIdempotent(t *testing.T) {
	repo := NewMemoryMessageRepo()
	msg := seedMessage(t, repo, "alice", "bob", "hi", time.Now())

	_, err := repo.AddDeletedFor(context.Background(), msg.ID, "alice")
	require.NoError(t, err)
	updated, err := repo.AddDeletedFor(context.Background(), msg.ID, "alice")
	require.NoError(t, err)

	assert.Equal(t, []string{"alice"}, updated.DeletedFor)
}

func TestMemoryRepoUnsendClearsContent(t *testing.T) {
	repo := NewMemoryMessageRepo()
	msg := seedMessage(t, repo, "alice", "bob", "secret", time.Now())

	updated, err := repo.Unsend(context.Background(), msg.ID)
	require.NoError(t, err)
	assert.True(t, updated.IsUnsent)
	assert.Empty(t, updated.Content)
}

func TestMemoryRepoMarkSeen(t *testing.T) {
	repo := NewMemoryMessageRepo()
	msg := seedMessage(t, repo, "alice", "bob", "hi", time.Now())

	updated, err := repo.MarkSeen(context.Background(), msg.ID)
	require.NoError(t, err)
	assert.True(t, updated.Seen)

	// 幂等
	updated, err = repo.MarkSeen(context.Background(), msg.ID)
	require.NoError(t, err)
	assert.True(t, updated.Seen)
}

func TestMemoryRepoUnknownMessage(t *testing.T) {
	repo := NewMemoryMessageRepo()
	ctx := context.Background()

	_, err := repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrMessageNotExist)
	_, err = repo.MarkSeen(ctx, "missing")
	assert.ErrorIs(t, err, ErrMessageNotExist)
	_, err = repo.AddDeletedFor(ctx, "missing", "alice")
	assert.ErrorIs(t, err, ErrMessageNotExist)
	_, err = repo.Unsend(ctx, "missing")
	assert.ErrorIs(t, err, ErrMessageNotExist)
}

func TestMemoryRepoGetReturnsCopy(t *testing.T) {
	repo := NewMemoryMessageRepo()
	msg := seedMessage(t, repo, "alice", "bob", "hi", time.Now())

	got, err := repo.Get(context.Background(), msg.ID)
	require.NoError(t, err)
	got.Content = "tampered"

	again, err := repo.Get(context.Background(), msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "hi", again.Content)
}
