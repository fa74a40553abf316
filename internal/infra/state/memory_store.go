package state

import (
	"context"
	"sync"
	"time"

	"whatsapp-catalog-bot/internal/domain"
	"whatsapp-catalog-bot/internal/domain/model"
	"whatsapp-catalog-bot/internal/domain/ports/repository"
)

var _ repository.ConversationStore = (*MemoryStore)(nil)

// MemoryStore keeps conversations in process memory. Values are copied on
// the way in and out so callers never share a state with the store.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]*model.ConversationState
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states: make(map[string]*model.ConversationState),
		now:    time.Now,
	}
}

func (s *MemoryStore) Get(ctx context.Context, senderID string) (*model.ConversationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[senderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return st.Clone(), nil
}

func (s *MemoryStore) Put(ctx context.Context, senderID string, st *model.ConversationState) error {
	if st == nil {
		return domain.ErrInvalidArgument
	}
	c := st.Clone()
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = s.now()
	}
	s.mu.Lock()
	s.states[senderID] = c
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Remove(ctx context.Context, senderID string) error {
	s.mu.Lock()
	delete(s.states, senderID)
	s.mu.Unlock()
	return nil
}

// Sweep drops conversations untouched for longer than idle and returns how
// many were removed.
func (s *MemoryStore) Sweep(idle time.Duration) int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for sender, st := range s.states {
		if st.IdleFor(now) > idle {
			delete(s.states, sender)
			n++
		}
	}
	return n
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}
