package chat

import "errors"

var (
	ErrEmptyQuestion = errors.New("question cannot be empty")
	ErrNoSession     = errors.New("session id is required")
)
