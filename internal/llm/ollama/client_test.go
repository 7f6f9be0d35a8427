package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nativeways/pathways/internal/llm"
)

func TestChat(t *testing.T) {
	var gotReq map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %q, want /api/chat", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":   "llama3.2",
			"message": map[string]string{"role": "assistant", "content": "hello back"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "llama3.2", 5*time.Second)
	resp, err := c.Chat(context.Background(),
		[]llm.Message{{Role: llm.RoleUser, Content: "hello"}},
		llm.WithTemperature(0.2), llm.WithMaxTokens(64),
	)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Content != "hello back" {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.Model != "llama3.2" {
		t.Errorf("Model = %q", resp.Model)
	}

	if gotReq["model"] != "llama3.2" {
		t.Errorf("request model = %v", gotReq["model"])
	}
	if gotReq["stream"] != false {
		t.Error("streaming must be disabled")
	}
	opts, _ := gotReq["options"].(map[string]any)
	if opts["temperature"] != 0.2 {
		t.Errorf("options temperature = %v", opts["temperature"])
	}
	if opts["num_predict"] != 64.0 {
		t.Errorf("options num_predict = %v", opts["num_predict"])
	}
}

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %q, want /api/generate", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":    "llama3.2",
			"response": "a generated answer",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "llama3.2", 5*time.Second)
	resp, err := c.Generate(context.Background(), "say something")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.Content != "a generated answer" {
		t.Errorf("Content = %q", resp.Content)
	}
}

func TestChatErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		body     string
		wantCode llm.ErrorCode
	}{
		{"model missing", http.StatusNotFound, `{"error":"model 'nope' not found"}`, llm.ErrCodeModelNotFound},
		{"bad request", http.StatusBadRequest, `{"error":"invalid options"}`, llm.ErrCodeInvalidRequest},
		{"server error", http.StatusInternalServerError, `{"error":"out of memory"}`, llm.ErrCodeServerError},
		{"unauthorized", http.StatusUnauthorized, `{"error":"unauthorized"}`, llm.ErrCodeAuthentication},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := New(srv.URL, "nope", 5*time.Second)
			_, err := c.Chat(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "x"}})
			if err == nil {
				t.Fatal("expected error")
			}
			var pe *llm.ProviderError
			if !errors.As(err, &pe) {
				t.Fatalf("error type = %T, want ProviderError", err)
			}
			if pe.Code != tc.wantCode {
				t.Errorf("code = %q, want %q", pe.Code, tc.wantCode)
			}
		})
	}
}

func TestChatTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server watches the connection and cancels
		// r.Context() when the client gives up; otherwise Close deadlocks.
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := New(srv.URL, "llama3.2", 5*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: "x"}})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	var pe *llm.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("error type = %T, want ProviderError", err)
	}
	if pe.Code != llm.ErrCodeTimeout {
		t.Errorf("code = %q, want timeout", pe.Code)
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("path = %q, want /api/tags", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"models": []any{}})
	}))
	defer srv.Close()

	c := New(srv.URL, "llama3.2", 5*time.Second)
	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}

	down := New("http://127.0.0.1:1", "llama3.2", time.Second)
	if err := down.Ping(context.Background()); err == nil {
		t.Error("Ping against unreachable server should error")
	}
}
