// Package ollama implements llm.Provider against a local Ollama server's
// HTTP API with non-streaming completions.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nativeways/pathways/internal/llm"
)

// Compile-time interface guard.
var _ llm.Provider = (*Client)(nil)

// Client talks to one Ollama server and model.
type Client struct {
	baseURL string
	model   string
	http    *http.Client
}

// New creates an Ollama client. timeout bounds each completion call.
func New(baseURL, model string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		model:   model,
		http:    &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []llm.Message  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Model   string      `json:"model"`
	Message llm.Message `json:"message"`
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
}

// Chat completes a multi-turn conversation via /api/chat.
func (c *Client) Chat(ctx context.Context, messages []llm.Message, opts ...llm.CallOption) (*llm.Response, error) {
	options := llm.ApplyOptions(opts...)
	req := chatRequest{
		Model:    c.model,
		Messages: messages,
		Options:  callOptionsMap(options),
	}

	var resp chatResponse
	if err := c.post(ctx, "/api/chat", req, &resp); err != nil {
		return nil, mapError(err)
	}
	return &llm.Response{Content: resp.Message.Content, Model: resp.Model}, nil
}

// Generate completes a single prompt via /api/generate.
func (c *Client) Generate(ctx context.Context, prompt string, opts ...llm.CallOption) (*llm.Response, error) {
	options := llm.ApplyOptions(opts...)
	req := generateRequest{
		Model:   c.model,
		Prompt:  prompt,
		Options: callOptionsMap(options),
	}

	var resp generateResponse
	if err := c.post(ctx, "/api/generate", req, &resp); err != nil {
		return nil, mapError(err)
	}
	return &llm.Response{Content: resp.Response, Model: resp.Model}, nil
}

// Ping verifies the server is reachable. Used at startup to decide whether
// to enable the advisor.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return mapError(err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return mapError(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return mapError(&statusError{StatusCode: resp.StatusCode, Message: "ping failed"})
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &apiErr)
		if apiErr.Error == "" {
			apiErr.Error = http.StatusText(resp.StatusCode)
		}
		return &statusError{StatusCode: resp.StatusCode, Message: apiErr.Error}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func callOptionsMap(o llm.CallOptions) map[string]any {
	return map[string]any{
		"temperature": o.Temperature,
		"num_predict": o.MaxTokens,
	}
}
