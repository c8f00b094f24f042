// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ollama implements ai.Provider against a local Ollama server's
// OpenAI-compatible API. No API key is required for local usage.
//
// Recommended models:
//
//   - llama3.1:8b-instruct (fast, good quality)
//   - llama3.1:70b-instruct (best quality, slower)
//   - mistral:7b-instruct (efficient baseline)
package ollama

import (
	"context"
	"log/slog"

	"github.com/poiesic/billscan/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

const (
	defaultBaseURL = "http://localhost:11434/v1"
	defaultModel   = "llama3.1:8b-instruct"
)

// Provider generates chat completions from a local Ollama server.
type Provider struct {
	client      llms.Model
	model       string
	temperature float64
	maxTokens   int
	logger      *slog.Logger
}

// New creates an Ollama-backed provider.
//
// Returns ai.Provider interface to enforce abstraction.
func New(config *ai.Config) (ai.Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := config.Model
	if model == "" {
		model = defaultModel
	}

	// Use "none" as token for local servers that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(baseURL),
		openai.WithToken("none"),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("component", "ollama-provider")
	logger.Debug("initialized ollama provider", "model", model, "base_url", baseURL)

	return &Provider{
		client:      client,
		model:       model,
		temperature: config.Temperature,
		maxTokens:   config.MaxTokens,
		logger:      logger,
	}, nil
}

// ChatCompletion sends the conversation to the local server and returns
// the first choice's text.
func (p *Provider) ChatCompletion(ctx context.Context, messages []ai.Message, opts ...ai.CallOption) (string, error) {
	call := ai.CallOptions{Temperature: p.temperature, MaxTokens: p.maxTokens}
	for _, opt := range opts {
		opt(&call)
	}

	genOpts := []llms.CallOption{
		llms.WithTemperature(call.Temperature),
		llms.WithMaxTokens(call.MaxTokens),
	}
	if call.JSONResponse {
		genOpts = append(genOpts, llms.WithJSONMode())
	}

	response, err := p.client.GenerateContent(ctx, chatContent(messages), genOpts...)
	if err != nil {
		return "", &ai.CompletionError{Provider: p.Name(), Err: err}
	}
	if len(response.Choices) < 1 {
		return "", &ai.CompletionError{Provider: p.Name(), Err: ai.ErrEmptyResponse}
	}
	return response.Choices[0].Content, nil
}

// Name identifies the backend and model.
func (p *Provider) Name() string {
	return "ollama/" + p.model
}

// Close releases resources held by the provider.
// Currently a no-op as the underlying client doesn't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing ollama provider")
	return nil
}

func chatContent(messages []ai.Message) []llms.MessageContent {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		content = append(content, llms.TextParts(chatRole(m.Role), m.Content))
	}
	return content
}

func chatRole(role ai.Role) schema.ChatMessageType {
	switch role {
	case ai.RoleSystem:
		return schema.ChatMessageTypeSystem
	case ai.RoleAssistant:
		return schema.ChatMessageTypeAI
	default:
		return schema.ChatMessageTypeHuman
	}
}
