package generator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	t.Setenv("TEST_OPENAI_KEY", "test-key")
	c, err := NewClient(Config{BaseURL: srv.URL, APIKeyEnv: "TEST_OPENAI_KEY"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestGenerateRequestAndAnswer(t *testing.T) {
	const answer = "  The speaker argues for smaller functions.\n"
	var got chatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": answer}},
			},
		})
	})

	out, err := c.Generate(context.Background(), "What is the main point?")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != answer {
		t.Errorf("answer = %q, want the response content unchanged %q", out, answer)
	}
	if got.Temperature != 0.5 {
		t.Errorf("temperature = %v, want 0.5", got.Temperature)
	}
	if got.MaxTokens != 600 {
		t.Errorf("max_tokens = %d, want 600", got.MaxTokens)
	}
	if got.Model == "" {
		t.Error("request carries no model")
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" || got.Messages[0].Content != "What is the main point?" {
		t.Errorf("messages = %+v, want a single user message with the prompt", got.Messages)
	}
}

func TestGenerateNoChoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})
	if _, err := c.Generate(context.Background(), "anything"); err == nil {
		t.Error("expected error for a response without choices")
	}
}

func TestNewClientMissingKey(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "")
	if _, err := NewClient(Config{APIKeyEnv: "TEST_OPENAI_KEY"}); err == nil {
		t.Error("expected error when the API key env is empty")
	}
}
