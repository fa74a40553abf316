package repository

import (
	"context"

	"whatsapp-catalog-bot/internal/domain/model"
)

// ConversationStore is the port for per-sender dialog state.
// Get returns domain.ErrNotFound when the sender has no active flow.
type ConversationStore interface {
	Get(ctx context.Context, senderID string) (*model.ConversationState, error)
	Put(ctx context.Context, senderID string, st *model.ConversationState) error
	Remove(ctx context.Context, senderID string) error
}

// SenderLocker serialises message handling for a single sender.
// The returned func releases the lock and is safe to call more than once.
type SenderLocker interface {
	Lock(ctx context.Context, senderID string) (unlock func(), err error)
}
