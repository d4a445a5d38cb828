package chat

import "context"

// Repository port for chat history. Messages are append-only.
type Repository interface {
	Append(ctx context.Context, m *Message) error
	// ListBySession returns the session's messages ordered by timestamp ascending.
	ListBySession(ctx context.Context, owner, session string) ([]*Message, error)
	DeleteBySession(ctx context.Context, owner, session string) error
	DeleteByOwner(ctx context.Context, owner string) error
}
