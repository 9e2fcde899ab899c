package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newTestClient points a configured Client at a local fake endpoint.
func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/v1", "test-key", "test-model")
}

// completionReply writes an OpenAI-style chat completion whose first choice
// contains content.
func completionReply(w http.ResponseWriter, content string) {
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func rateLimitReply(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	fmt.Fprint(w, `{"error": {"message": "rate limit exceeded", "type": "rate_limit_error"}}`)
}

func TestNewWithoutKey(t *testing.T) {
	c := New("http://localhost:9999/v1", "", "model")
	if c.Configured() {
		t.Error("client without API key should not be configured")
	}
	if _, err := c.Complete(context.Background(), "prompt", 0.5, 100); err == nil {
		t.Error("Complete() on unconfigured client should fail")
	}
}

func TestCompleteReturnsFirstChoice(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		completionReply(w, "hello there")
	}))

	got, err := c.Complete(context.Background(), "prompt", 0.5, 100)
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if got != "hello there" {
		t.Errorf("Complete() = %q, want %q", got, "hello there")
	}
}

func TestCompleteRateLimited(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rateLimitReply(w)
	}))

	_, err := c.Complete(context.Background(), "prompt", 0.5, 100)
	if err == nil {
		t.Fatal("Complete() should fail on 429")
	}
	if !isRateLimited(err) {
		t.Errorf("isRateLimited(%v) = false, want true", err)
	}
}

func TestIsRateLimitedPlainError(t *testing.T) {
	if isRateLimited(fmt.Errorf("connection refused")) {
		t.Error("plain error should not be treated as rate limited")
	}
	if isRateLimited(nil) {
		t.Error("nil error should not be treated as rate limited")
	}
}

func TestExtractObject(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`, false},
		{"prose around", "Here you go:\n{\"a\": 1}\nEnjoy!", `{"a": 1}`, false},
		{"code fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`, false},
		{"nested braces", `x {"a": {"b": 2}} y`, `{"a": {"b": 2}}`, false},
		{"no object", "nothing here", "", true},
		{"only open brace", "{ broken", "", true},
		{"reversed braces", "} {", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractObject(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("extractObject() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("extractObject() = %q, want %q", got, tt.want)
			}
		})
	}
}
