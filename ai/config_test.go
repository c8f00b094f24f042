package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, ProviderPortkey, cfg.Provider)
	assert.Equal(t, "2024-02-15-preview", cfg.APIVersion)
	assert.Equal(t, 0.3, cfg.Temperature)
	assert.Equal(t, 2000, cfg.MaxTokens)
	// Left empty so each backend applies its own default
	assert.Empty(t, cfg.Model)
	assert.Empty(t, cfg.BaseURL)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.NotNil(t, cfg)
		// Should have default values
		assert.Equal(t, ProviderPortkey, cfg.Provider)
		assert.Equal(t, 0.3, cfg.Temperature)
		assert.Equal(t, 2000, cfg.MaxTokens)
	})

	t.Run("with custom provider and model", func(t *testing.T) {
		cfg := NewConfig(
			WithProvider("ollama"),
			WithModel("llama3.1:8b-instruct"),
		)

		assert.Equal(t, "ollama", cfg.Provider)
		assert.Equal(t, "llama3.1:8b-instruct", cfg.Model)
	})

	t.Run("with azure settings", func(t *testing.T) {
		cfg := NewConfig(
			WithProvider("azure"),
			WithEndpoint("https://my-resource.openai.azure.com"),
			WithDeployment("gpt-4o-mini-prod"),
			WithAPIVersion("2024-06-01"),
		)

		assert.Equal(t, "azure", cfg.Provider)
		assert.Equal(t, "https://my-resource.openai.azure.com", cfg.Endpoint)
		assert.Equal(t, "gpt-4o-mini-prod", cfg.Deployment)
		assert.Equal(t, "2024-06-01", cfg.APIVersion)
	})

	t.Run("with custom sampling defaults", func(t *testing.T) {
		cfg := NewConfig(
			WithDefaultTemperature(0.7),
			WithDefaultMaxTokens(500),
		)

		assert.Equal(t, 0.7, cfg.Temperature)
		assert.Equal(t, 500, cfg.MaxTokens)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithProvider("portkey"),
			WithModel("gpt-4o"),
			WithBaseURL("https://gateway.internal/v1"),
			WithToken("pk-test"),
		)

		assert.Equal(t, "portkey", cfg.Provider)
		assert.Equal(t, "gpt-4o", cfg.Model)
		assert.Equal(t, "https://gateway.internal/v1", cfg.BaseURL)
		assert.Equal(t, "pk-test", cfg.Token)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name             string
		provider         string
		baseURL          string
		endpoint         string
		expectedProvider string
		expectedBaseURL  string
		expectedEndpoint string
	}{
		{
			name:             "already canonical",
			provider:         "portkey",
			baseURL:          "https://api.portkey.ai/v1",
			expectedProvider: "portkey",
			expectedBaseURL:  "https://api.portkey.ai/v1",
		},
		{
			name:             "uppercase provider",
			provider:         "OLLAMA",
			expectedProvider: "ollama",
		},
		{
			name:             "provider with surrounding whitespace",
			provider:         " azure ",
			expectedProvider: "azure",
		},
		{
			name:             "gateway alias folds into portkey",
			provider:         "gateway",
			expectedProvider: "portkey",
		},
		{
			name:             "trailing slash on base url",
			provider:         "ollama",
			baseURL:          "http://localhost:11434/v1/",
			expectedProvider: "ollama",
			expectedBaseURL:  "http://localhost:11434/v1",
		},
		{
			name:             "trailing slash on endpoint",
			provider:         "azure",
			endpoint:         "https://my-resource.openai.azure.com/",
			expectedProvider: "azure",
			expectedEndpoint: "https://my-resource.openai.azure.com",
		},
		{
			name:             "empty urls stay empty",
			provider:         "portkey",
			expectedProvider: "portkey",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Provider: tt.provider,
				BaseURL:  tt.baseURL,
				Endpoint: tt.endpoint,
			}

			cfg.Normalize()

			assert.Equal(t, tt.expectedProvider, cfg.Provider)
			assert.Equal(t, tt.expectedBaseURL, cfg.BaseURL)
			assert.Equal(t, tt.expectedEndpoint, cfg.Endpoint)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg := &Config{
			Provider:    "Gateway",
			BaseURL:     "https://api.portkey.ai/v1/",
			Temperature: 0.3,
			MaxTokens:   200,
		}

		err := cfg.Validate()
		assert.NoError(t, err)

		// Should also normalize
		assert.Equal(t, ProviderPortkey, cfg.Provider)
		assert.Equal(t, "https://api.portkey.ai/v1", cfg.BaseURL)
	})

	t.Run("missing provider", func(t *testing.T) {
		cfg := &Config{
			Temperature: 0.3,
			MaxTokens:   200,
		}

		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "Provider")
	})

	t.Run("temperature too low", func(t *testing.T) {
		cfg := &Config{
			Provider:    "ollama",
			Temperature: -0.1,
			MaxTokens:   200,
		}

		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "Temperature")
	})

	t.Run("temperature too high", func(t *testing.T) {
		cfg := &Config{
			Provider:    "ollama",
			Temperature: 2.5,
			MaxTokens:   200,
		}

		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "Temperature")
	})

	t.Run("temperature at boundaries", func(t *testing.T) {
		cfg := &Config{
			Provider:    "ollama",
			Temperature: 0,
			MaxTokens:   200,
		}
		err := cfg.Validate()
		assert.NoError(t, err)

		cfg.Temperature = 2
		err = cfg.Validate()
		assert.NoError(t, err)
	})

	t.Run("max tokens must be positive", func(t *testing.T) {
		cfg := &Config{
			Provider:    "ollama",
			Temperature: 0.3,
			MaxTokens:   0,
		}

		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "MaxTokens")
	})
}

func TestConfigValidate_Integration(t *testing.T) {
	// Test that NewConfig produces a valid configuration
	cfg := NewConfig()
	err := cfg.Validate()
	require.NoError(t, err)

	// Test that DefaultConfig produces a valid configuration
	cfg = DefaultConfig()
	err = cfg.Validate()
	require.NoError(t, err)
}
