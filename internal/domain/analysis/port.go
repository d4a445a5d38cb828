package analysis

import "context"

// ModelClient sends one system+user exchange to a chat-completion model
// and returns the raw reply text.
type ModelClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}
