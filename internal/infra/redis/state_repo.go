package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"whatsapp-catalog-bot/internal/domain"
	"whatsapp-catalog-bot/internal/domain/model"
	"whatsapp-catalog-bot/internal/domain/ports/repository"
)

var _ repository.ConversationStore = (*StateRepo)(nil)

// StateRepo keeps conversations in Redis as JSON. The key TTL doubles as the
// idle timeout, so no sweeper is needed for this backend.
type StateRepo struct {
	client RedisClient
	ttl    time.Duration
}

func NewStateRepo(client RedisClient, idleTimeout time.Duration) *StateRepo {
	if idleTimeout <= 0 {
		idleTimeout = 30 * time.Minute
	}
	return &StateRepo{client: client, ttl: idleTimeout}
}

func stateKey(senderID string) string {
	return fmt.Sprintf("conv_state:%s", senderID)
}

func (s *StateRepo) Put(ctx context.Context, senderID string, st *model.ConversationState) error {
	if st == nil {
		return domain.ErrInvalidArgument
	}
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = time.Now()
	}
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, stateKey(senderID), data, s.ttl)
}

func (s *StateRepo) Get(ctx context.Context, senderID string) (*model.ConversationState, error) {
	data, err := s.client.Get(ctx, stateKey(senderID))
	if errors.Is(err, Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var st model.ConversationState
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		return nil, fmt.Errorf("decode conversation state: %w", err)
	}
	return &st, nil
}

func (s *StateRepo) Remove(ctx context.Context, senderID string) error {
	return s.client.Del(ctx, stateKey(senderID))
}
