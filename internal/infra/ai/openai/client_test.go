package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bore13/Ai-data-chat/internal/domain/analysis"
)

func newTestServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1", Temperature: DefaultTemperature})
}

func TestCompleteSendsSystemAndUser(t *testing.T) {
	var got struct {
		Model       string  `json:"model"`
		Temperature float32 `json:"temperature"`
		MaxTokens   int     `json:"max_tokens"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"message\":\"hi\"}"},"finish_reason":"stop"}]}`))
	})

	out, err := c.Complete(context.Background(), "sys", "usr")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != `{"message":"hi"}` {
		t.Fatalf("content = %q", out)
	}
	if got.Model != DefaultModel || got.MaxTokens != DefaultMaxTokens || got.Temperature != DefaultTemperature {
		t.Fatalf("request params = %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[0].Content != "sys" ||
		got.Messages[1].Role != "user" || got.Messages[1].Content != "usr" {
		t.Fatalf("messages = %+v", got.Messages)
	}
}

func TestCompleteQuotaError(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"quota exceeded","type":"insufficient_quota","code":"insufficient_quota"}}`))
	})
	_, err := c.Complete(context.Background(), "s", "u")
	if !errors.Is(err, analysis.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
}

func TestCompleteServerError(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	})
	_, err := c.Complete(context.Background(), "s", "u")
	if err == nil || errors.Is(err, analysis.ErrQuotaExceeded) {
		t.Fatalf("expected a transport error, got %v", err)
	}
}

func TestCompleteNoChoices(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[]}`))
	})
	_, err := c.Complete(context.Background(), "s", "u")
	if !errors.Is(err, analysis.ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestCompleteSendsZeroTemperature(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&raw)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"{}"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL + "/v1", Temperature: 0})
	if _, err := c.Complete(context.Background(), "s", "u"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	temp, ok := raw["temperature"].(float64)
	if !ok || temp >= 1e-6 {
		t.Fatalf("temperature = %v, want a near-zero value on the wire", raw["temperature"])
	}
}
