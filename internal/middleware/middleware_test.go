package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestAPIKeyAuth(t *testing.T) {
	var seen string
	h := APIKeyAuth(map[string]string{"owner-1": "secret"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = OwnerFromContext(r.Context())
	}))

	cases := []struct {
		header string
		path   string
		want   int
	}{
		{"", "/v1/datasets", http.StatusUnauthorized},
		{"Bearer wrong", "/v1/datasets", http.StatusUnauthorized},
		{"Bearer secret", "/v1/datasets", http.StatusOK},
		{"secret", "/v1/datasets", http.StatusOK},
		{"", "/health", http.StatusOK},
	}
	for _, tc := range cases {
		seen = ""
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("%q %s: status %d, want %d", tc.header, tc.path, rec.Code, tc.want)
		}
		if tc.want == http.StatusOK && tc.path != "/health" && seen != "owner-1" {
			t.Fatalf("owner not propagated: %q", seen)
		}
	}
}

func TestTokenBucket(t *testing.T) {
	tb := NewTokenBucket(2, 1)
	now := tb.lastRefill
	if !tb.allowAt(now) || !tb.allowAt(now) {
		t.Fatalf("first two requests should pass")
	}
	if tb.allowAt(now) {
		t.Fatalf("third request should be limited")
	}
	if !tb.allowAt(now.Add(1500 * time.Millisecond)) {
		t.Fatalf("bucket should refill after a second")
	}
}

func TestRateLimitPerOwner(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	defer limiter.Stop()
	h := RateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	do := func(owner string) int {
		req := httptest.NewRequest(http.MethodGet, "/v1/datasets", nil)
		req = req.WithContext(WithOwner(req.Context(), owner))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	if do("a") != http.StatusOK || do("b") != http.StatusOK {
		t.Fatalf("first request per owner should pass")
	}
	if do("a") != http.StatusTooManyRequests {
		t.Fatalf("second request for owner a should be limited")
	}
}

func TestValidators(t *testing.T) {
	if err := ValidateOwnerID("user_1-x"); err != nil {
		t.Fatalf("owner: %v", err)
	}
	if err := ValidateOwnerID("bad owner"); err == nil {
		t.Fatalf("space in owner id should fail")
	}
	if err := ValidateDatasetIDs([]string{"all", "0b7e4b1e-6a0c-4a55-9d4f-2f1c9b6f0c11"}); err != nil {
		t.Fatalf("dataset ids: %v", err)
	}
	if err := ValidateDatasetIDs([]string{"../etc"}); err == nil {
		t.Fatalf("bad dataset id should fail")
	}
	if err := ValidateQuestion(strings.Repeat("x", MaxQuestionLength+1)); err == nil {
		t.Fatalf("long question should fail")
	}
	if got := SanitizeString(" a\x00b\x07 "); got != "ab" {
		t.Fatalf("sanitize = %q", got)
	}
}

func TestHealthHandler(t *testing.T) {
	h := HealthHandler(map[string]HealthChecker{
		"db": CheckFunc(func(ctx context.Context) error { return nil }),
	})
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"healthy"`) {
		t.Fatalf("health = %d %s", rec.Code, rec.Body.String())
	}
}
