package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lexhq/counsel/pkg/types"
)

func TestNewProviderRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := NewProvider("")
	if err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestNewProviderOptions(t *testing.T) {
	p, err := NewProvider("test-key",
		WithModel("gpt-4o-mini"),
		WithBaseURL("http://localhost:9999/v1"),
	)
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}

	if p.GetModel() != "gpt-4o-mini" {
		t.Errorf("expected model gpt-4o-mini, got %s", p.GetModel())
	}
	if p.GetBaseURL() != "http://localhost:9999/v1" {
		t.Errorf("unexpected base URL %s", p.GetBaseURL())
	}
	if p.GetModelInfo().Metadata["base_url"] != "http://localhost:9999/v1" {
		t.Error("non-default base URL should be recorded in model info metadata")
	}
}

func TestCloneWithModel(t *testing.T) {
	p, err := NewProvider("test-key", WithModel("gpt-4o"))
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}

	clone := p.CloneWithModel("gpt-4o-mini")
	if clone.GetModel() != "gpt-4o-mini" {
		t.Errorf("clone model = %s, want gpt-4o-mini", clone.GetModel())
	}
	if p.GetModel() != "gpt-4o" {
		t.Errorf("original model mutated to %s", p.GetModel())
	}
	if clone.GetAPIKey() != p.GetAPIKey() {
		t.Error("clone should share credentials")
	}
}

func TestComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}

		var body struct {
			Model    string                   `json:"model"`
			Messages []map[string]interface{} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		if len(body.Messages) != 2 {
			t.Errorf("expected 2 messages, got %d", len(body.Messages))
		}

		resp := map[string]interface{}{
			"model": body.Model,
			"choices": []map[string]interface{}{
				{
					"message":       map[string]string{"role": "assistant", "content": "Hello back"},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]int{
				"prompt_tokens":     12,
				"completion_tokens": 3,
				"total_tokens":      15,
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p, err := NewProvider("test-key",
		WithBaseURL(srv.URL+"/v1"),
		WithModel("gpt-4o"),
	)
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}

	resp, err := p.Complete(context.Background(), []*types.Message{
		types.NewSystemMessage("You are helpful."),
		types.NewUserMessage("Hello"),
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if resp.Content != "Hello back" {
		t.Errorf("Content = %q, want %q", resp.Content, "Hello back")
	}
	if resp.FinishReason != "stop" {
		t.Errorf("FinishReason = %q, want stop", resp.FinishReason)
	}
	if resp.Usage == nil || resp.Usage.TotalTokens != 15 {
		t.Errorf("unexpected usage: %+v", resp.Usage)
	}
}

func TestCompleteAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p, err := NewProvider("test-key", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}

	_, err = p.Complete(context.Background(), []*types.Message{types.NewUserMessage("hi")})
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
