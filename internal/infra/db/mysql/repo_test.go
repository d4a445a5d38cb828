package mysql

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/bore13/Ai-data-chat/internal/domain/chat"
	"github.com/bore13/Ai-data-chat/internal/domain/dataset"
)

func TestPlaceholders(t *testing.T) {
	if got := placeholders(3); got != "?,?,?" {
		t.Fatalf("placeholders(3) = %q", got)
	}
	if got := placeholders(0); got != "" {
		t.Fatalf("placeholders(0) = %q", got)
	}
}

func TestJSONOr(t *testing.T) {
	var nilSlice []string
	if got := jsonOr(nilSlice, "[]"); got != "[]" {
		t.Fatalf("nil slice = %q", got)
	}
	if got := jsonOr(map[string]string{"a": "b"}, "{}"); got != `{"a":"b"}` {
		t.Fatalf("map = %q", got)
	}
}

// Runs against a real server when TEST_MYSQL_DSN is set.
func TestRepositoriesIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("TEST_MYSQL_DSN not set")
	}
	ctx := context.Background()
	db, err := Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer db.Close()
	if err := Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	owner := "it-" + time.Now().Format("150405.000000")
	datasets := NewDatasetRepository(db)
	d := &dataset.Dataset{ID: dataset.ID(owner + "-d"), OwnerID: owner, Name: "sales", Records: []dataset.Record{
		{{Name: "z", Value: dataset.Number(1)}, {Name: "a", Value: dataset.String("x")}},
	}}
	if err := datasets.Save(ctx, d); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := datasets.ListByOwner(ctx, owner, []dataset.ID{d.ID})
	if err != nil || len(got) != 1 || got[0].Columns()[0] != "z" {
		t.Fatalf("list=%v err=%v", got, err)
	}
	defer datasets.Delete(ctx, owner, d.ID)

	msgs := NewChatRepository(db)
	defer msgs.DeleteByOwner(ctx, owner)
	if err := msgs.Append(ctx, &chat.Message{ID: chat.MessageID(owner + "-m"), OwnerID: owner, SessionID: "s", Text: "env", Metrics: map[string]string{"k": "v"}}); err != nil {
		t.Fatalf("append: %v", err)
	}
	history, err := msgs.ListBySession(ctx, owner, "s")
	if err != nil || len(history) != 1 || history[0].Metrics["k"] != "v" || history[0].ReformulatedQuery != "" {
		t.Fatalf("history=%+v err=%v", history, err)
	}
}
