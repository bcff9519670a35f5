package mongo

import (
	"context"
	"sort"
	"sync"
)

// memoryMessageRepo MessageRepo 的进程内实现。Mongo 不可达时由 wire 层选用，
// 仅保证进程生命周期内的数据，可见性与排序语义同 Mongo 实现完全一致。
type memoryMessageRepo struct {
	mu       sync.RWMutex
	messages []*Message
	byID     map[string]*Message
}

func NewMemoryMessageRepo() MessageRepo {
	return &memoryMessageRepo{
		byID: make(map[string]*Message),
	}
}

func (s *memoryMessageRepo) Insert(ctx context.Context, msg *Message) error {
	if msg.ID == "" {
		msg.ID = NewMessageID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	s.byID[msg.ID] = msg
	return nil
}

func (s *memoryMessageRepo) Get(ctx context.Context, id string) (*Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msg, ok := s.byID[id]
	if !ok {
		return nil, ErrMessageNotExist
	}
	cp := *msg
	return &cp, nil
}

func (s *memoryMessageRepo) Conversation(ctx context.Context, userA, userB, viewerID string) ([]*Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var res []*Message
	for _, m := range s.messages {
		betweenPair := (m.From == userA && m.To == userB) || (m.From == userB && m.To == userA)
		if !betweenPair || !m.VisibleTo(viewerID) {
			continue
		}
		cp := *m
		res = append(res, &cp)
	}

	// 插入顺序不一定等于发送时间顺序，读取时统一排序
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].CreatedAt.Before(res[j].CreatedAt)
	})

	return res, nil
}

func (s *memoryMessageRepo) MarkSeen(ctx context.Context, id string) (*Message, error) {
	return s.update(id, func(m *Message) {
		m.Seen = true
	})
}

func (s *memoryMessageRepo) AddDeletedFor(ctx context.Context, id string, userID string) (*Message, error) {
	return s.update(id, func(m *Message) {
		if m.VisibleTo(userID) {
			m.DeletedFor = append(m.DeletedFor, userID)
		}
	})
}

func (s *memoryMessageRepo) Unsend(ctx context.Context, id string) (*Message, error) {
	return s.update(id, func(m *Message) {
		m.IsUnsent = true
		m.Content = ""
	})
}

func (s *memoryMessageRepo) update(id string, mutate func(*Message)) (*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.byID[id]
	if !ok {
		return nil, ErrMessageNotExist
	}
	mutate(msg)
	cp := *msg
	return &cp, nil
}
