package analysis

import (
	"context"

	"go.uber.org/zap"

	domain "github.com/bore13/Ai-data-chat/internal/domain/analysis"
	"github.com/bore13/Ai-data-chat/internal/domain/dataset"
	"github.com/bore13/Ai-data-chat/internal/infra/ai/parser"
	"github.com/bore13/Ai-data-chat/internal/infra/ai/prompt"
)

const (
	ApologyMessage = "I apologize, but I encountered an error while analyzing your data. Please try again."
	ApologyInsight = "Error occurred during analysis"
)

// Apology is the result returned for any failure after configuration was checked.
func Apology() domain.Result {
	res := domain.Empty()
	res.Message = ApologyMessage
	res.Insights = []string{ApologyInsight}
	return res
}

// Config is passed explicitly; nothing is read from the environment here.
type Config struct {
	APIKey string
}

// Service orchestrates one question end to end. It holds no per-call state,
// so concurrent Analyze calls proceed independently.
type Service struct {
	datasets dataset.Repository
	model    domain.ModelClient
	cfg      Config
	log      *zap.Logger
	observe  Observer
}

func NewService(datasets dataset.Repository, model domain.ModelClient, cfg Config, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{datasets: datasets, model: model, cfg: cfg, log: log}
}

// OnTransition registers an observer for state changes of every call.
func (s *Service) OnTransition(o Observer) { s.observe = o }

// Configured reports whether a model credential is present.
func (s *Service) Configured() bool { return s.cfg.APIKey != "" && s.model != nil }

// Analyze answers req. Only a missing credential is returned as an error;
// every later failure yields Apology().
func (s *Service) Analyze(ctx context.Context, req domain.Request) (domain.Result, error) {
	if !s.Configured() {
		return domain.Result{}, domain.ErrNotConfigured
	}

	r := newRun(s.observe)
	log := s.log.With(zap.String("owner", req.OwnerID))

	ids := dataset.NormalizeFilter(req.DatasetIDs)
	datasets, err := s.datasets.ListByOwner(ctx, req.OwnerID, ids)
	if err != nil {
		log.Error("fetch datasets failed", zap.Error(err))
		s.finish(r, OutcomeFailure)
		return Apology(), nil
	}

	scope := make([]string, 0, len(ids))
	for _, id := range ids {
		scope = append(scope, string(id))
	}
	user := prompt.Compose(req.Question, prompt.BuildDatasetSummary(datasets), prompt.ScopeNote(scope))

	if err := r.to(StateAwaitingModel, OutcomeNone); err != nil {
		log.Error("state machine", zap.Error(err))
	}
	// no deadline of our own; the caller's cancellation is detached from the model call
	raw, err := s.model.Complete(context.WithoutCancel(ctx), prompt.SystemPrompt, user)
	if err != nil {
		log.Error("model call failed", zap.Error(err))
		s.finish(r, OutcomeFailure)
		return Apology(), nil
	}

	res := parser.Parse(raw)
	log.Info("analysis completed",
		zap.Int("datasets", len(datasets)),
		zap.Int("insights", len(res.Insights)),
		zap.Bool("reformulated", res.ReformulatedQuery != ""),
	)
	s.finish(r, OutcomeSuccess)
	return res, nil
}

func (s *Service) finish(r *run, o Outcome) {
	if err := r.to(StateDone, o); err != nil {
		s.log.Error("state machine", zap.Error(err))
	}
}
