package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func newTestOpenAIServer(t *testing.T, handler http.HandlerFunc) string {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server.URL + "/v1"
}

func chatCompletion(content, finish string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1234567890,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{
			{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": finish,
			},
		},
		"usage": map[string]any{
			"prompt_tokens":     40,
			"completion_tokens": 25,
			"total_tokens":      65,
		},
	}
}

func TestOpenAIProvider_StructuredOutput(t *testing.T) {
	var gotBody map[string]any
	url := newTestOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletion("```json\n{\"summary\":\"Keep practising fractions.\"}\n```", "stop"))
	})

	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", Model: "gpt-4o-mini", BaseURL: url})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	schema := &Schema{
		Name: "openai-summary-test",
		Definition: map[string]any{
			"type":                 "object",
			"properties":           map[string]any{"summary": map[string]any{"type": "string"}},
			"required":             []any{"summary"},
			"additionalProperties": false,
		},
	}
	resp, err := p.Generate(context.Background(), UserRequest("You are a tutor.", "Summarise.", schema, 256, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != `{"summary":"Keep practising fractions."}` {
		t.Errorf("fence not stripped: %q", resp.Text())
	}
	if resp.Usage.InputTokens != 40 || resp.Usage.OutputTokens != 25 {
		t.Errorf("usage = %+v", resp.Usage)
	}

	msgs, _ := gotBody["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected system + user messages, got %d", len(msgs))
	}
	if first, _ := msgs[0].(map[string]any); first["role"] != "system" {
		t.Errorf("first message role = %v, want system", first["role"])
	}
	if _, ok := gotBody["response_format"]; !ok {
		t.Error("expected response_format to be sent with a schema")
	}
}

func TestOpenAIProvider_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{"rate limit", http.StatusTooManyRequests, func(err error) bool {
			var rl *ErrRateLimit
			return errors.As(err, &rl)
		}},
		{"server error", http.StatusInternalServerError, func(err error) bool {
			var unavail *ErrProviderUnavailable
			return errors.As(err, &unavail)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := newTestOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]any{"type": "server_error", "message": tt.name},
				})
			})
			p, _ := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", Model: "gpt-4o-mini", BaseURL: url})

			_, err := p.Generate(context.Background(), UserRequest("", "test", nil, 100, 0))
			if err == nil || !tt.check(err) {
				t.Fatalf("unexpected error mapping: %T (%v)", err, err)
			}
		})
	}
}

func TestOpenAIEmbedder(t *testing.T) {
	var calls atomic.Int32
	url := newTestOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if !strings.HasSuffix(r.URL.Path, "/embeddings") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Input []string `json:"input"`
		}
		json.NewDecoder(r.Body).Decode(&req)

		// Reply out of order to check that Index is honoured.
		data := make([]map[string]any, len(req.Input))
		for i := range req.Input {
			j := len(req.Input) - 1 - i
			data[i] = map[string]any{"object": "embedding", "index": j, "embedding": []float32{float32(j), 1}}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  "text-embedding-3-small",
			"usage":  map[string]any{"prompt_tokens": 4, "total_tokens": 4},
		})
	})

	e, err := NewOpenAIEmbedder(EmbeddingConfig{Provider: "openai", APIKey: "test-key", BaseURL: url})
	if err != nil {
		t.Fatalf("new embedder: %v", err)
	}
	if e.ModelName() != "text-embedding-3-small" {
		t.Errorf("model = %q", e.ModelName())
	}

	vecs, err := e.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("embed batch: %v", err)
	}
	for i, v := range vecs {
		if v[0] != float32(i) {
			t.Errorf("vecs[%d] = %v, want first component %d", i, v, i)
		}
	}
	if e.Dimensions() != 2 {
		t.Errorf("dimensions = %d, want 2", e.Dimensions())
	}

	if _, err := e.EmbedBatch(context.Background(), nil); err != nil || calls.Load() != 1 {
		t.Errorf("empty batch should not call the API (calls=%d, err=%v)", calls.Load(), err)
	}
}

func TestOpenAIEmbedder_Unavailable(t *testing.T) {
	url := newTestOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	e, _ := NewOpenAIEmbedder(EmbeddingConfig{APIKey: "test-key", BaseURL: url})

	_, err := e.Embed(context.Background(), "hello")
	var unavail *ErrEmbeddingUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got: %T (%v)", err, err)
	}
}
