package adapter

import "context"

// Messenger delivers a text reply to a WhatsApp user.
type Messenger interface {
	SendText(ctx context.Context, to, body string) error
}

// MediaResolver turns a Cloud API media id into a downloadable URL.
type MediaResolver interface {
	ResolveMediaURL(ctx context.Context, mediaID string) (string, error)
}
