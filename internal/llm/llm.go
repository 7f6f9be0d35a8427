// Package llm defines the text-completion provider abstraction consumed by
// the advisor. Providers are opaque: callers see chat/generate calls and
// typed errors, nothing about the backing service.
package llm

import "context"

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a chat conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Response is a completed model reply.
type Response struct {
	Content string
	Model   string
}

// CallOptions collects per-call tuning parameters.
type CallOptions struct {
	Temperature float64
	MaxTokens   int
}

// CallOption mutates CallOptions.
type CallOption func(*CallOptions)

// WithTemperature sets the sampling temperature for one call.
func WithTemperature(t float64) CallOption {
	return func(o *CallOptions) { o.Temperature = t }
}

// WithMaxTokens caps the generated token count for one call.
func WithMaxTokens(n int) CallOption {
	return func(o *CallOptions) { o.MaxTokens = n }
}

// ApplyOptions folds opts over a default CallOptions.
func ApplyOptions(opts ...CallOption) CallOptions {
	o := CallOptions{Temperature: 0.7, MaxTokens: 1024}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Provider is a text-completion backend.
type Provider interface {
	// Chat completes a multi-turn conversation.
	Chat(ctx context.Context, messages []Message, opts ...CallOption) (*Response, error)

	// Generate completes a single prompt.
	Generate(ctx context.Context, prompt string, opts ...CallOption) (*Response, error)
}
