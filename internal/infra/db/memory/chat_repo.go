package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bore13/Ai-data-chat/internal/domain/chat"
)

// ChatRepository keeps chat history in process memory.
type ChatRepository struct {
	mu       sync.RWMutex
	messages []*chat.Message
}

func NewChatRepository() *ChatRepository {
	return &ChatRepository{}
}

func (r *ChatRepository) Append(ctx context.Context, m *chat.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *m
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	r.messages = append(r.messages, &cp)
	return nil
}

func (r *ChatRepository) ListBySession(ctx context.Context, owner, session string) ([]*chat.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*chat.Message
	for _, m := range r.messages {
		if m.OwnerID == owner && m.SessionID == session {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *ChatRepository) DeleteBySession(ctx context.Context, owner, session string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.messages = keep(r.messages, func(m *chat.Message) bool {
		return m.OwnerID != owner || m.SessionID != session
	})
	return nil
}

func (r *ChatRepository) DeleteByOwner(ctx context.Context, owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.messages = keep(r.messages, func(m *chat.Message) bool { return m.OwnerID != owner })
	return nil
}

func keep(in []*chat.Message, pred func(*chat.Message) bool) []*chat.Message {
	out := in[:0]
	for _, m := range in {
		if pred(m) {
			out = append(out, m)
		}
	}
	return out
}
