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

// Package azure implements ai.Provider against Azure OpenAI Service.
// Azure addresses models by deployment name rather than model identifier,
// and versions its API through a query parameter.
package azure

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

// Environment variables read when the corresponding config fields are empty.
const (
	EnvAPIKey     = "AZURE_OPENAI_API_KEY"
	EnvEndpoint   = "AZURE_OPENAI_ENDPOINT"
	EnvDeployment = "AZURE_OPENAI_DEPLOYMENT"
)

const defaultAPIVersion = "2024-02-15-preview"

// Provider generates chat completions from an Azure OpenAI deployment.
type Provider struct {
	client      llms.Model
	deployment  string
	temperature float64
	maxTokens   int
	logger      *slog.Logger
}

// New creates an Azure-backed provider. The API key, endpoint, and
// deployment name come from the config or from the AZURE_OPENAI_API_KEY,
// AZURE_OPENAI_ENDPOINT, and AZURE_OPENAI_DEPLOYMENT environment variables.
//
// The endpoint is the resource URL, e.g. "https://my-resource.openai.azure.com".
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

	endpoint := config.Endpoint
	if endpoint == "" {
		endpoint = os.Getenv(EnvEndpoint)
	}
	if endpoint == "" {
		return nil, fmt.Errorf("%w: set %s or configure an endpoint", ai.ErrMissingCredentials, EnvEndpoint)
	}

	deployment := config.Deployment
	if deployment == "" {
		deployment = os.Getenv(EnvDeployment)
	}
	if deployment == "" {
		return nil, fmt.Errorf("%w: set %s or configure a deployment", ai.ErrMissingCredentials, EnvDeployment)
	}

	apiVersion := config.APIVersion
	if apiVersion == "" {
		apiVersion = defaultAPIVersion
	}

	// The deployment name takes the model's place in Azure request URLs.
	client, err := openai.New(
		openai.WithAPIType(openai.APITypeAzure),
		openai.WithAPIVersion(apiVersion),
		openai.WithBaseURL(endpoint),
		openai.WithToken(token),
		openai.WithModel(deployment),
	)
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("component", "azure-provider")
	logger.Debug("initialized azure openai provider", "deployment", deployment, "api_version", apiVersion)

	return &Provider{
		client:      client,
		deployment:  deployment,
		temperature: config.Temperature,
		maxTokens:   config.MaxTokens,
		logger:      logger,
	}, nil
}

// ChatCompletion sends the conversation to the deployment and returns the
// first choice's text.
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

// Name identifies the backend and deployment.
func (p *Provider) Name() string {
	return "azure/" + p.deployment
}

// Close releases resources held by the provider.
// Currently a no-op as the underlying client doesn't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing azure openai provider")
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
