package ai

import (
	"fmt"
	"log/slog"
	"os"
)

// Environment variables overriding the configured provider at startup.
const (
	// EnvProvider overrides Config.Provider when set.
	EnvProvider = "LLM_PROVIDER"

	// EnvModel overrides Config.Model when set.
	EnvModel = "LLM_MODEL"

	// EnvBaseURL overrides Config.BaseURL when set.
	EnvBaseURL = "LLM_BASE_URL"
)

// Builder constructs a Provider from a Config.
type Builder func(cfg *Config) (Provider, error)

// Registry resolves provider names to builders. The registration map is
// built explicitly at startup; Register keeps it open for extension.
type Registry struct {
	builders map[string]Builder
	logger   *slog.Logger
}

// NewRegistry returns an empty registry. Backend packages are registered
// by the caller so this package never imports its own implementations.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]Builder),
		logger:   slog.Default().With("component", "ai"),
	}
}

// Register adds or replaces the builder for a provider name. The name is
// matched against the normalized Config.Provider, so the "gateway" alias
// resolves to whatever is registered under "portkey".
func (r *Registry) Register(name string, builder Builder) {
	r.builders[name] = builder
}

// Create validates the config and builds the provider it names.
func (r *Registry) Create(cfg *Config) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	builder, ok := r.builders[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}

	provider, err := builder(cfg)
	if err != nil {
		return nil, err
	}

	r.logger.Info("llm provider initialized", "provider", provider.Name())
	return provider, nil
}

// CreateFromEnv builds a provider like Create, with the LLM_PROVIDER,
// LLM_MODEL, and LLM_BASE_URL environment variables overriding the
// corresponding config fields when set. The passed config is not mutated.
func (r *Registry) CreateFromEnv(cfg *Config) (Provider, error) {
	merged := *cfg
	if provider := os.Getenv(EnvProvider); provider != "" {
		r.logger.Info("llm provider overridden from environment", "provider", provider)
		merged.Provider = provider
	}
	if model := os.Getenv(EnvModel); model != "" {
		merged.Model = model
	}
	if baseURL := os.Getenv(EnvBaseURL); baseURL != "" {
		merged.BaseURL = baseURL
	}
	return r.Create(&merged)
}
