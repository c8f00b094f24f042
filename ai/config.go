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

package ai

import (
	"errors"
	"strings"
)

// Provider names resolvable through a Registry.
const (
	// ProviderPortkey routes completions through the Portkey.ai gateway.
	ProviderPortkey = "portkey"

	// ProviderGateway is an accepted alias for ProviderPortkey.
	ProviderGateway = "gateway"

	// ProviderAzure uses an Azure OpenAI deployment.
	ProviderAzure = "azure"

	// ProviderOllama uses a local Ollama server's OpenAI-compatible API.
	ProviderOllama = "ollama"
)

// Config holds configuration for LLM chat providers.
type Config struct {
	// Provider selects the backend: "portkey", "azure", or "ollama".
	// "gateway" is accepted as an alias for "portkey".
	Provider string

	// Model is the model identifier to request.
	// Example: "gpt-4o-mini", "llama3.1:8b-instruct"
	// When empty, each backend falls back to its own default model.
	Model string

	// BaseURL is the API base URL for URL-addressed backends.
	// Example: "https://api.portkey.ai/v1", "http://localhost:11434/v1"
	// When empty, each backend falls back to its own default URL.
	BaseURL string

	// Token is the API key. The Portkey backend reads PORTKEY_API_KEY
	// from the environment when this is empty.
	Token string

	// Endpoint is the Azure OpenAI resource endpoint.
	// Example: "https://my-resource.openai.azure.com"
	Endpoint string

	// Deployment is the Azure OpenAI deployment name. Azure addresses
	// models by deployment, not by model identifier.
	Deployment string

	// APIVersion is the Azure OpenAI API version.
	// Default: "2024-02-15-preview"
	APIVersion string

	// Temperature is the default sampling temperature for completions.
	// Individual calls may override it with WithTemperature.
	// Default: 0.3
	Temperature float64

	// MaxTokens is the default generation cap for completions.
	// Individual calls may override it with WithMaxTokens.
	// Default: 2000
	MaxTokens int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithProvider sets the backend name.
func WithProvider(provider string) ConfigOption {
	return func(c *Config) {
		c.Provider = provider
	}
}

// WithModel sets the model identifier.
func WithModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

// WithBaseURL sets the API base URL.
func WithBaseURL(baseURL string) ConfigOption {
	return func(c *Config) {
		c.BaseURL = baseURL
	}
}

// WithToken sets the API key.
func WithToken(token string) ConfigOption {
	return func(c *Config) {
		c.Token = token
	}
}

// WithEndpoint sets the Azure OpenAI resource endpoint.
func WithEndpoint(endpoint string) ConfigOption {
	return func(c *Config) {
		c.Endpoint = endpoint
	}
}

// WithDeployment sets the Azure OpenAI deployment name.
func WithDeployment(deployment string) ConfigOption {
	return func(c *Config) {
		c.Deployment = deployment
	}
}

// WithAPIVersion sets the Azure OpenAI API version.
func WithAPIVersion(version string) ConfigOption {
	return func(c *Config) {
		c.APIVersion = version
	}
}

// WithDefaultTemperature sets the default sampling temperature.
func WithDefaultTemperature(temperature float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = temperature
	}
}

// WithDefaultMaxTokens sets the default generation cap.
func WithDefaultMaxTokens(maxTokens int) ConfigOption {
	return func(c *Config) {
		c.MaxTokens = maxTokens
	}
}

// DefaultConfig returns a Config with sensible defaults: the Portkey
// gateway with conservative sampling. Model and BaseURL are left empty so
// each backend can apply its own default.
func DefaultConfig() *Config {
	return &Config{
		Provider:    ProviderPortkey,
		APIVersion:  "2024-02-15-preview",
		Temperature: 0.3,
		MaxTokens:   2000,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
// This is the recommended way to create a Config with custom settings.
//
// Example:
//
//	cfg := NewConfig(
//	    WithProvider("ollama"),
//	    WithModel("llama3.1:8b-instruct"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It lowercases the provider name, folds the "gateway" alias into
// "portkey", and strips trailing slashes from URLs so backends can append
// request paths without doubling separators.
func (c *Config) Normalize() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == ProviderGateway {
		c.Provider = ProviderPortkey
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	c.Endpoint = strings.TrimRight(c.Endpoint, "/")
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
// Backend-specific requirements, such as credentials, are checked by the
// backend constructors.
func (c *Config) Validate() error {
	// Normalize first so the provider name and URLs are canonical
	c.Normalize()

	if c.Provider == "" {
		return errors.New("ai config: Provider is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.New("ai config: Temperature must be between 0 and 2")
	}
	if c.MaxTokens < 1 {
		return errors.New("ai config: MaxTokens must be positive")
	}
	return nil
}
