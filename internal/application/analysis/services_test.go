package analysis

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	domain "github.com/bore13/Ai-data-chat/internal/domain/analysis"
	"github.com/bore13/Ai-data-chat/internal/domain/dataset"
	"github.com/bore13/Ai-data-chat/internal/infra/ai/prompt"
	"github.com/bore13/Ai-data-chat/internal/infra/db/memory"
)

type fakeModel struct {
	mu    sync.Mutex
	reply string
	err   error
	calls int32
	users []string
}

func (f *fakeModel) Complete(ctx context.Context, system, user string) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	f.users = append(f.users, user)
	f.mu.Unlock()
	return f.reply, f.err
}

type failingRepo struct{ dataset.Repository }

func (failingRepo) ListByOwner(ctx context.Context, owner string, ids []dataset.ID) ([]*dataset.Dataset, error) {
	return nil, errors.New("connection refused")
}

func seed(t *testing.T, repo dataset.Repository, owner string, id dataset.ID, n int) {
	t.Helper()
	d := &dataset.Dataset{ID: id, OwnerID: owner, Name: string(id)}
	for i := 0; i < n; i++ {
		d.Records = append(d.Records, dataset.Record{
			{Name: "name", Value: dataset.String(fmt.Sprintf("rep%d", i))},
			{Name: "sales", Value: dataset.Number(float64(1000 + i*250))},
		})
	}
	if err := repo.Save(context.Background(), d); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestAnalyzeNotConfigured(t *testing.T) {
	model := &fakeModel{}
	svc := NewService(memory.NewDatasetRepository(), model, Config{}, nil)

	_, err := svc.Analyze(context.Background(), domain.Request{OwnerID: "u1", Question: "hi"})
	if !errors.Is(err, domain.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if model.calls != 0 {
		t.Fatalf("model must not be called without a credential")
	}
}

func TestAnalyzeModelFailureYieldsApology(t *testing.T) {
	model := &fakeModel{err: errors.New("HTTP 500")}
	svc := NewService(memory.NewDatasetRepository(), model, Config{APIKey: "k"}, nil)

	var seen []Transition
	svc.OnTransition(func(tr Transition) { seen = append(seen, tr) })

	res, err := svc.Analyze(context.Background(), domain.Request{OwnerID: "u1", Question: "q"})
	if err != nil {
		t.Fatalf("model failures must not surface as errors: %v", err)
	}
	if res.Message != ApologyMessage || len(res.Insights) != 1 || res.Insights[0] != ApologyInsight {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(seen) != 2 || seen[0].To != StateAwaitingModel || seen[1].To != StateDone || seen[1].Outcome != OutcomeFailure {
		t.Fatalf("transitions = %+v", seen)
	}
}

func TestAnalyzeFetchFailureYieldsApology(t *testing.T) {
	model := &fakeModel{reply: `{"message":"x"}`}
	svc := NewService(failingRepo{}, model, Config{APIKey: "k"}, nil)

	var seen []Transition
	svc.OnTransition(func(tr Transition) { seen = append(seen, tr) })

	res, err := svc.Analyze(context.Background(), domain.Request{OwnerID: "u1", Question: "q"})
	if err != nil || res.Message != ApologyMessage {
		t.Fatalf("res=%+v err=%v", res, err)
	}
	if model.calls != 0 {
		t.Fatalf("model must not be called when datasets cannot be loaded")
	}
	if len(seen) != 1 || seen[0].From != StateIdle || seen[0].To != StateDone {
		t.Fatalf("transitions = %+v", seen)
	}
}

func TestAnalyzeEndToEnd(t *testing.T) {
	repo := memory.NewDatasetRepository()
	seed(t, repo, "u1", "sales", 10)
	seed(t, repo, "u2", "foreign", 2)

	model := &fakeModel{reply: "```json\n" + `{"reformulated_query":"Which sales representative generated the highest total revenue?","message":"rep9 sold the most with $3,250.00","insights":["rep9 leads"],"metrics":{"top_sales":"$3,250.00"},"recommendations":["Study rep9's approach"]}` + "\n```"}
	svc := NewService(repo, model, Config{APIKey: "k"}, nil)

	res, err := svc.Analyze(context.Background(), domain.Request{OwnerID: "u1", Question: "who sold most"})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	want := domain.Result{
		Message:           "rep9 sold the most with $3,250.00",
		ReformulatedQuery: "Which sales representative generated the highest total revenue?",
		Insights:          []string{"rep9 leads"},
		Recommendations:   []string{"Study rep9's approach"},
		Metrics:           map[string]string{"top_sales": "$3,250.00"},
	}
	if !reflect.DeepEqual(res, want) {
		t.Fatalf("result = %+v\nwant   %+v", res, want)
	}

	user := model.users[0]
	if !strings.Contains(user, "Dataset 1: sales") || strings.Contains(user, "foreign") {
		t.Fatalf("prompt must carry only the owner's datasets:\n%s", user)
	}
	if !strings.Contains(user, "who sold most") {
		t.Fatalf("prompt must carry the question")
	}
}

func TestAnalyzeDatasetFilter(t *testing.T) {
	repo := memory.NewDatasetRepository()
	seed(t, repo, "u1", "a", 1)
	seed(t, repo, "u1", "b", 1)
	model := &fakeModel{reply: `{"message":"ok"}`}
	svc := NewService(repo, model, Config{APIKey: "k"}, nil)

	svc.Analyze(context.Background(), domain.Request{OwnerID: "u1", Question: "q", DatasetIDs: []string{"b"}})
	if u := model.users[0]; !strings.Contains(u, "Dataset 1: b") || strings.Contains(u, "Dataset 2") {
		t.Fatalf("filtered prompt:\n%s", u)
	}

	svc.Analyze(context.Background(), domain.Request{OwnerID: "u1", Question: "q", DatasetIDs: []string{"all"}})
	if u := model.users[1]; !strings.Contains(u, "Dataset 2") {
		t.Fatalf("'all' should include every dataset:\n%s", u)
	}
}

func TestAnalyzeNoDatasets(t *testing.T) {
	model := &fakeModel{reply: "plain words"}
	svc := NewService(memory.NewDatasetRepository(), model, Config{APIKey: "k"}, nil)

	res, err := svc.Analyze(context.Background(), domain.Request{OwnerID: "u1", Question: "q"})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !strings.Contains(model.users[0], prompt.NoDataSummary) {
		t.Fatalf("prompt should carry the no-data summary")
	}
	if res.Message != "plain words" {
		t.Fatalf("message = %q", res.Message)
	}
}

func TestAnalyzeIgnoresCallerCancellation(t *testing.T) {
	model := &fakeModel{reply: `{"message":"done"}`}
	svc := NewService(memory.NewDatasetRepository(), model, Config{APIKey: "k"}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := svc.Analyze(ctx, domain.Request{OwnerID: "u1", Question: "q"})
	if err != nil || res.Message != "done" {
		t.Fatalf("res=%+v err=%v", res, err)
	}
}

func TestAnalyzeConcurrentCalls(t *testing.T) {
	repo := memory.NewDatasetRepository()
	seed(t, repo, "u1", "sales", 5)
	model := &fakeModel{reply: `{"message":"ok"}`}
	svc := NewService(repo, model, Config{APIKey: "k"}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Analyze(context.Background(), domain.Request{OwnerID: "u1", Question: "q"})
			if err != nil || res.Message != "ok" {
				t.Errorf("res=%+v err=%v", res, err)
			}
		}()
	}
	wg.Wait()
	if atomic.LoadInt32(&model.calls) != 20 {
		t.Fatalf("calls = %d", model.calls)
	}
}

func TestRunRejectsInvalidTransition(t *testing.T) {
	r := newRun(nil)
	if err := r.to(StateDone, OutcomeSuccess); err != nil {
		t.Fatalf("idle -> done: %v", err)
	}
	if err := r.to(StateAwaitingModel, OutcomeNone); err == nil {
		t.Fatalf("done -> awaiting_model must be rejected")
	}
}
