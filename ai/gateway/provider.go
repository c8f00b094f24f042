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

// Package gateway implements ai.Provider against the Portkey.ai gateway,
// which fronts OpenAI models behind an OpenAI-compatible API.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/poiesic/billscan/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

const (
	defaultBaseURL = "https://api.portkey.ai/v1"
	defaultModel   = "gpt-4o-mini"
)

// EnvAPIKey names the environment variable read when no token is configured.
const EnvAPIKey = "PORTKEY_API_KEY"

// Provider generates chat completions through the Portkey gateway.
type Provider struct {
	client      llms.Model
	model       string
	temperature float64
	maxTokens   int
	logger      *slog.Logger
}

// New creates a Portkey-backed provider. The API key comes from the config
// token or the PORTKEY_API_KEY environment variable.
//
// Returns ai.Provider interface to enforce abstraction.
func New(config *ai.Config) (ai.Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	token := config.Token
	if token == "" {
		token = os.Getenv(EnvAPIKey)
	}
	if token == "" {
		return nil, fmt.Errorf("%w: set %s or configure a token", ai.ErrMissingCredentials, EnvAPIKey)
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := config.Model
	if model == "" {
		model = defaultModel
	}

	client, err := openai.New(
		openai.WithBaseURL(baseURL),
		openai.WithToken(token),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("component", "gateway-provider")
	logger.Debug("initialized portkey provider", "model", model, "base_url", baseURL)

	return &Provider{
		client:      client,
		model:       model,
		temperature: config.Temperature,
		maxTokens:   config.MaxTokens,
		logger:      logger,
	}, nil
}

// ChatCompletion sends the conversation through the gateway and returns
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
	return "portkey/" + p.model
}

// Close releases resources held by the provider.
// Currently a no-op as the underlying client doesn't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing portkey provider")
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
