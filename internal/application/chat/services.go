package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bore13/Ai-data-chat/internal/application"
	domanalysis "github.com/bore13/Ai-data-chat/internal/domain/analysis"
	domain "github.com/bore13/Ai-data-chat/internal/domain/chat"
	"github.com/bore13/Ai-data-chat/internal/infra/crypto"
)

// decryptWorkers bounds the fan-out when opening a history.
const decryptWorkers = 8

// Analyzer answers one question. Satisfied by the analysis service.
type Analyzer interface {
	Analyze(ctx context.Context, req domanalysis.Request) (domanalysis.Result, error)
}

// Service implements the chat use-cases. Message text is sealed with the
// owner's key before it reaches Repo and opened after it is read back.
type Service struct {
	Repo     domain.Repository
	Analysis Analyzer
	Codec    *crypto.Codec
	Clock    application.Clock
	Log      *zap.Logger
}

type AskCommand struct {
	OwnerID    string
	SessionID  string
	Question   string
	DatasetIDs []string
}

type AskResult struct {
	Question *domain.Message    `json:"question"`
	Answer   *domain.Message    `json:"answer"`
	Result   domanalysis.Result `json:"result"`
}

// Ask stores the question, runs the analysis and appends the answer to the session.
// The question is persisted before the model is called and stays in the history
// even when analysis is not configured. Only configuration errors and a failure to
// store the question are returned.
func (s *Service) Ask(ctx context.Context, cmd AskCommand) (AskResult, error) {
	question := strings.TrimSpace(cmd.Question)
	if question == "" {
		return AskResult{}, domain.ErrEmptyQuestion
	}
	if strings.TrimSpace(cmd.SessionID) == "" {
		return AskResult{}, domain.ErrNoSession
	}

	seal := s.sealer(cmd.OwnerID)
	askedAt := s.Clock.Now()
	user := &domain.Message{
		ID:            domain.MessageID(uuid.NewString()),
		OwnerID:       cmd.OwnerID,
		SessionID:     cmd.SessionID,
		Text:          question,
		IsUserMessage: true,
		CreatedAt:     askedAt,
	}
	if err := s.append(ctx, user, seal); err != nil {
		return AskResult{}, fmt.Errorf("append question: %w", err)
	}

	res, err := s.Analysis.Analyze(ctx, domanalysis.Request{
		OwnerID:    cmd.OwnerID,
		Question:   question,
		DatasetIDs: cmd.DatasetIDs,
	})
	if err != nil {
		return AskResult{}, err
	}
	answeredAt := s.Clock.Now()
	if !answeredAt.After(askedAt) {
		answeredAt = askedAt.Add(time.Millisecond)
	}

	answer := &domain.Message{
		ID:                domain.MessageID(uuid.NewString()),
		OwnerID:           cmd.OwnerID,
		SessionID:         cmd.SessionID,
		Text:              res.Message,
		CreatedAt:         answeredAt,
		Insights:          res.Insights,
		Recommendations:   res.Recommendations,
		ReformulatedQuery: res.ReformulatedQuery,
		Metrics:           res.Metrics,
	}
	// the caller still gets the answer; the session then ends with the question only
	if err := s.append(ctx, answer, seal); err != nil {
		s.log().Error("append answer failed",
			zap.String("owner", cmd.OwnerID),
			zap.String("session", cmd.SessionID),
			zap.Error(err),
		)
	}

	return AskResult{Question: user, Answer: answer, Result: res}, nil
}

// append stores a copy of m with its text sealed.
func (s *Service) append(ctx context.Context, m *domain.Message, seal func(string) string) error {
	stored := *m
	stored.Text = seal(m.Text)
	return s.Repo.Append(ctx, &stored)
}

// History returns the session's messages in timestamp order with text opened.
func (s *Service) History(ctx context.Context, owner, session string) ([]*domain.Message, error) {
	msgs, err := s.Repo.ListBySession(ctx, owner, session)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if len(msgs) == 0 {
		return msgs, nil
	}

	key, err := s.Codec.DeriveKey(owner)
	if err != nil {
		s.log().Warn("derive key failed, returning stored text", zap.Error(err))
		return msgs, nil
	}

	var g errgroup.Group
	g.SetLimit(decryptWorkers)
	for _, m := range msgs {
		g.Go(func() error {
			m.Text = key.Decrypt(m.Text)
			return nil
		})
	}
	_ = g.Wait() // workers never fail
	return msgs, nil
}

func (s *Service) ClearSession(ctx context.Context, owner, session string) error {
	if err := s.Repo.DeleteBySession(ctx, owner, session); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Service) ClearAll(ctx context.Context, owner string) error {
	if err := s.Repo.DeleteByOwner(ctx, owner); err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	return nil
}

// sealer derives the owner key once; on failure text is stored as-is.
func (s *Service) sealer(owner string) func(string) string {
	key, err := s.Codec.DeriveKey(owner)
	if err != nil {
		s.log().Warn("derive key failed, storing plaintext", zap.Error(err))
		return func(text string) string { return text }
	}
	return key.Encrypt
}

func (s *Service) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
