package ai

import "context"

// Role identifies the author of a chat message.
type Role string

const (
	// RoleSystem carries instructions that frame the whole conversation.
	RoleSystem Role = "system"

	// RoleUser carries the content being analyzed.
	RoleUser Role = "user"

	// RoleAssistant carries a prior model response, for multi-turn prompts.
	RoleAssistant Role = "assistant"
)

// Message is a single turn in a chat completion request.
type Message struct {
	Role    Role
	Content string
}

// SystemMessage builds a system-role message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage builds a user-role message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Provider generates chat completions from a configured language model.
// Implementations must be thread-safe for concurrent use.
type Provider interface {
	// ChatCompletion sends the conversation to the model and returns the
	// raw text of the first choice. Call options override the provider's
	// configured sampling defaults for a single request.
	// Returns an error if the request fails or the model returns no choices.
	ChatCompletion(ctx context.Context, messages []Message, opts ...CallOption) (string, error)

	// Name identifies the provider and model, e.g. "portkey/gpt-4o-mini".
	// Used in logs so pipeline output records which backend produced it.
	Name() string

	// Close releases resources held by the provider.
	// After Close is called, the provider should not be used.
	Close() error
}

// CallOptions carries per-request sampling parameters. Providers seed it
// from their configuration, then apply the caller's options on top.
type CallOptions struct {
	// Temperature is the sampling temperature for this request.
	Temperature float64

	// MaxTokens caps the number of tokens the model may generate.
	MaxTokens int

	// JSONResponse asks the model to emit a valid JSON object.
	JSONResponse bool
}

// CallOption is a functional option for a single ChatCompletion request.
type CallOption func(*CallOptions)

// WithTemperature overrides the configured sampling temperature.
func WithTemperature(temperature float64) CallOption {
	return func(o *CallOptions) {
		o.Temperature = temperature
	}
}

// WithMaxTokens overrides the configured generation cap. Batch callers
// raise this when a single response must cover many records.
func WithMaxTokens(maxTokens int) CallOption {
	return func(o *CallOptions) {
		o.MaxTokens = maxTokens
	}
}

// WithJSONResponse requests JSON-mode output from backends that support it.
func WithJSONResponse() CallOption {
	return func(o *CallOptions) {
		o.JSONResponse = true
	}
}
