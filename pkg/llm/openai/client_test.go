package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/user/kisanmitra/pkg/llm"
)

func newTestServer(t *testing.T, handler func(body map[string]any) string) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", auth)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		content := handler(body)
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
			"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	client := New(&llm.Config{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Model:   "test-model",
	})
	return srv, client
}

func TestCompleteText(t *testing.T) {
	srv, client := newTestServer(t, func(body map[string]any) string {
		if body["model"] != "test-model" {
			t.Errorf("expected test-model, got %v", body["model"])
		}
		return "hello farmer"
	})
	defer srv.Close()

	resp, err := client.Complete(context.Background(), llm.ChatRequest{
		Messages: []llm.Message{llm.UserText("hi")},
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Content != "hello farmer" {
		t.Errorf("expected 'hello farmer', got %q", resp.Content)
	}
	if resp.Usage.TotalTokens != 15 {
		t.Errorf("expected 15 total tokens, got %d", resp.Usage.TotalTokens)
	}
}

func TestCompleteModelOverride(t *testing.T) {
	srv, client := newTestServer(t, func(body map[string]any) string {
		if body["model"] != "vision-model" {
			t.Errorf("expected vision-model, got %v", body["model"])
		}
		return "ok"
	})
	defer srv.Close()

	_, err := client.Complete(context.Background(), llm.ChatRequest{
		Model:    "vision-model",
		Messages: []llm.Message{llm.UserText("hi")},
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestCompleteImageParts(t *testing.T) {
	srv, client := newTestServer(t, func(body map[string]any) string {
		messages := body["messages"].([]any)
		msg := messages[0].(map[string]any)
		parts, ok := msg["content"].([]any)
		if !ok {
			t.Fatalf("expected content part array, got %T", msg["content"])
		}
		if len(parts) != 2 {
			t.Fatalf("expected 2 parts, got %d", len(parts))
		}
		img := parts[1].(map[string]any)
		if img["type"] != "image_url" {
			t.Errorf("expected image_url part, got %v", img["type"])
		}
		url := img["image_url"].(map[string]any)["url"].(string)
		if !strings.HasPrefix(url, "data:image/jpeg;base64,") {
			t.Errorf("expected data URL, got %q", url)
		}
		return "analysis"
	})
	defer srv.Close()

	_, err := client.Complete(context.Background(), llm.ChatRequest{
		Messages: []llm.Message{{
			Role: "user",
			Parts: []llm.Part{
				llm.TextPart("what disease is this"),
				llm.ImagePart("image/jpeg", []byte{0xFF, 0xD8, 0xFF}),
			},
		}},
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestCompleteAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := New(&llm.Config{BaseURL: srv.URL, APIKey: "k", Model: "m"})
	_, err := client.Complete(context.Background(), llm.ChatRequest{
		Messages: []llm.Message{llm.UserText("hi")},
	})
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("expected status in error, got %v", err)
	}
}
