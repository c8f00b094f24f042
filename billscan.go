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

// Package billscan wires the bill relevance pipeline together: storage
// backend, AI provider, LegiScan client, enrichment hooks, and data
// sources, all resolved from one configuration tree.
package billscan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/poiesic/billscan/ai"
	"github.com/poiesic/billscan/ai/azure"
	"github.com/poiesic/billscan/ai/gateway"
	"github.com/poiesic/billscan/ai/ollama"
	"github.com/poiesic/billscan/config"
	"github.com/poiesic/billscan/hooks"
	"github.com/poiesic/billscan/legiscan"
	"github.com/poiesic/billscan/pipeline"
	"github.com/poiesic/billscan/source"
	"github.com/poiesic/billscan/storage"
	"github.com/poiesic/billscan/storage/badger"
	"github.com/poiesic/billscan/storage/file"
	"github.com/poiesic/billscan/storage/postgres"
)

// ErrLegiScanUnavailable reports that an operation needs the LegiScan
// client but no API key was configured.
var ErrLegiScanUnavailable = errors.New("legiscan client unavailable: set LEGISCAN_API_KEY")

// App holds the wired pipeline components for one process.
type App struct {
	cfg       *config.Config
	store     storage.Provider
	provider  ai.Provider
	client    *legiscan.Client
	hooks     *hooks.Manager
	hookCache *badger.Backend
	sources   *source.Manager
	logger    *slog.Logger
}

// AppOption configures an App.
type AppOption func(*appOptions)

type appOptions struct {
	store    storage.Provider
	provider ai.Provider
}

// WithStore uses an already-open storage provider instead of building
// one from the configured backend.
func WithStore(store storage.Provider) AppOption {
	return func(o *appOptions) {
		o.store = store
	}
}

// WithAIProvider uses the given provider instead of building one from
// the llm section.
func WithAIProvider(provider ai.Provider) AppOption {
	return func(o *appOptions) {
		o.provider = provider
	}
}

// NewApp wires the components the pipeline commands need. The model
// provider is built lazily on first use, so commands that never call
// the model do not need its credentials. The LegiScan client is
// optional: without an API key the app still runs, with bill
// enrichment and the api source disabled.
func NewApp(ctx context.Context, cfg *config.Config, opts ...AppOption) (*App, error) {
	options := &appOptions{}
	for _, opt := range opts {
		opt(options)
	}
	logger := slog.Default().With("component", "app")

	store := options.store
	if store == nil {
		var err error
		store, err = openStorage(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	client, err := openLegiScan(cfg, store, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	manager, hookCache, err := buildHooks(cfg.Hooks, client, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	app := &App{
		cfg:       cfg,
		store:     store,
		provider:  options.provider,
		client:    client,
		hooks:     manager,
		hookCache: hookCache,
		logger:    logger,
	}

	if len(cfg.Sources) > 0 {
		registry := source.DefaultRegistry(client)
		app.sources = source.NewManagerFromConfigs(registry, sourceConfigs(cfg))
	}

	return app, nil
}

// openStorage registers the three storage backends and builds the
// configured one. The database connection string comes from the
// environment variable named in the storage section.
func openStorage(ctx context.Context, cfg *config.Config) (storage.Provider, error) {
	factory := storage.NewFactory()
	factory.Register(storage.BackendLocal, func(_ context.Context, c storage.Config) (storage.Provider, error) {
		return file.NewProvider(c.DataDirectory)
	})
	factory.Register(storage.BackendBadger, func(_ context.Context, c storage.Config) (storage.Provider, error) {
		return badger.Open(c.BadgerPath, c.BadgerInMemory)
	})
	factory.Register(storage.BackendDatabase, func(ctx context.Context, c storage.Config) (storage.Provider, error) {
		connString := os.Getenv(c.ConnStringEnv)
		if connString == "" {
			return nil, fmt.Errorf("database backend requires %s", c.ConnStringEnv)
		}
		return postgres.NewProvider(ctx, postgres.WithMaxConns(connString, c.PoolSize))
	})
	return factory.Create(ctx, storageConfig(cfg))
}

// openProvider registers the AI backends and builds the configured one.
func openProvider(cfg *config.Config) (ai.Provider, error) {
	registry := ai.NewRegistry()
	registry.Register(ai.ProviderPortkey, gateway.New)
	registry.Register(ai.ProviderAzure, azure.New)
	registry.Register(ai.ProviderOllama, ollama.New)
	return registry.Create(aiConfig(cfg))
}

// openLegiScan builds the cached LegiScan client. A missing API key is
// not fatal; the client is simply absent.
func openLegiScan(cfg *config.Config, store storage.Provider, logger *slog.Logger) (*legiscan.Client, error) {
	opts := []legiscan.Option{legiscan.WithStorage(store)}
	if cfg.LegiScan.BaseURL != "" {
		opts = append(opts, legiscan.WithBaseURL(cfg.LegiScan.BaseURL))
	}

	client, err := legiscan.NewClient("", opts...)
	if errors.Is(err, legiscan.ErrMissingAPIKey) {
		logger.Info("no legiscan api key, bill enrichment disabled")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return client, nil
}

// buildHooks turns the hooks section into a registered manager. Hook
// types that cannot be built are skipped with a warning so one bad
// entry does not take down the run.
func buildHooks(cfg config.HooksConfig, client *legiscan.Client, logger *slog.Logger) (*hooks.Manager, *badger.Backend, error) {
	if !cfg.Enabled {
		return nil, nil, nil
	}

	var (
		cache     hooks.Cache = hooks.NewMemoryCache()
		hookCache *badger.Backend
	)
	if cfg.CacheDirectory != "" {
		backend, err := badger.OpenBackend(cfg.CacheDirectory, false)
		if err != nil {
			return nil, nil, fmt.Errorf("opening hook cache: %w", err)
		}
		hookCache = backend
		cache = hooks.NewBadgerCache(backend)
	}

	registry := hooks.NewRegistry()
	if client != nil {
		registry.Register("legiscan", func(map[string]string) (hooks.Hook, error) {
			return hooks.NewLegiScanHook(client), nil
		})
	}

	manager := hooks.NewManager(hooks.WithCache(cache))
	registered := 0
	for timing, configs := range cfg.ByTiming() {
		for _, hc := range configs {
			hook, err := registry.Create(hc.Type, hc.Params)
			if err != nil {
				logger.Warn("skipping hook", "type", hc.Type, "timing", timing, "err", err)
				continue
			}
			manager.Register(hook, timing)
			registered++
		}
	}

	logger.Info("hooks registered", "count", registered)
	return manager, hookCache, nil
}

// Close releases every component the app owns. Component close errors
// are logged; only a storage close failure is returned.
func (a *App) Close() error {
	if a.provider != nil {
		if err := a.provider.Close(); err != nil {
			a.logger.Error("error closing ai provider", "err", err)
		}
	}
	if a.hookCache != nil {
		if err := a.hookCache.Close(); err != nil {
			a.logger.Error("error closing hook cache", "err", err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Error("error closing storage", "err", err)
			return err
		}
	}
	return nil
}

// Config returns the loaded configuration tree.
func (a *App) Config() *config.Config {
	return a.cfg
}

// Store returns the wired storage provider.
func (a *App) Store() storage.Provider {
	return a.store
}

// AI returns the model provider, building it from the llm section on
// first use.
func (a *App) AI() (ai.Provider, error) {
	if a.provider == nil {
		provider, err := openProvider(a.cfg)
		if err != nil {
			return nil, err
		}
		a.provider = provider
	}
	return a.provider, nil
}

// Sources returns the configured data-source manager, or nil when the
// sources section is empty.
func (a *App) Sources() *source.Manager {
	return a.sources
}

// LegiScan returns the cached LegiScan client, or
// ErrLegiScanUnavailable when no API key was configured.
func (a *App) LegiScan() (*legiscan.Client, error) {
	if a.client == nil {
		return nil, ErrLegiScanUnavailable
	}
	return a.client, nil
}

// NewFilterPass builds the relevance filter pass from the filter_pass
// section, with the configured hooks attached.
func (a *App) NewFilterPass(opts ...pipeline.FilterOption) (*pipeline.FilterPass, error) {
	provider, err := a.AI()
	if err != nil {
		return nil, err
	}
	all := []pipeline.FilterOption{}
	if a.hooks != nil {
		all = append(all, pipeline.WithFilterHooks(a.hooks))
	}
	all = append(all, opts...)
	return pipeline.NewFilterPass(provider, a.store, filterConfig(a.cfg), all...)
}

// NewAnalysisPass builds the per-bill analysis pass from the
// analysis_pass section. The LegiScan enrichment stage and the
// configured hooks are attached when available; callers add run-scoped
// options like pipeline.WithLimit on top.
func (a *App) NewAnalysisPass(opts ...pipeline.AnalysisOption) (*pipeline.AnalysisPass, error) {
	provider, err := a.AI()
	if err != nil {
		return nil, err
	}
	all := []pipeline.AnalysisOption{}
	if a.client != nil {
		all = append(all, pipeline.WithLegiScan(a.client))
	}
	if a.hooks != nil {
		all = append(all, pipeline.WithAnalysisHooks(a.hooks))
	}
	all = append(all, opts...)
	return pipeline.NewAnalysisPass(provider, a.store, analysisConfig(a.cfg), all...)
}

// storageConfig maps the storage section onto the factory config.
func storageConfig(cfg *config.Config) storage.Config {
	return storage.Config{
		Backend:         cfg.Storage.Backend,
		DataDirectory:   cfg.Storage.DataDirectory,
		BadgerPath:      cfg.Storage.BadgerPath,
		ConnStringEnv:   cfg.Storage.ConnStringEnv,
		PoolSize:        cfg.Storage.PoolSize,
		DualWrite:       cfg.Storage.DualWrite,
		DualWriteStrict: cfg.Storage.DualWriteStrict,
	}
}

// aiConfig maps the llm section onto an AI provider config. Empty
// optional fields keep the provider defaults.
func aiConfig(cfg *config.Config) *ai.Config {
	opts := []ai.ConfigOption{
		ai.WithProvider(cfg.LLM.Provider),
		ai.WithDefaultTemperature(cfg.LLM.Temperature),
		ai.WithDefaultMaxTokens(cfg.LLM.MaxTokens),
	}
	if cfg.LLM.Model != "" {
		opts = append(opts, ai.WithModel(cfg.LLM.Model))
	}
	if cfg.LLM.BaseURL != "" {
		opts = append(opts, ai.WithBaseURL(cfg.LLM.BaseURL))
	}
	if cfg.LLM.Endpoint != "" {
		opts = append(opts, ai.WithEndpoint(cfg.LLM.Endpoint))
	}
	if cfg.LLM.Deployment != "" {
		opts = append(opts, ai.WithDeployment(cfg.LLM.Deployment))
	}
	if cfg.LLM.APIVersion != "" {
		opts = append(opts, ai.WithAPIVersion(cfg.LLM.APIVersion))
	}
	return ai.NewConfig(opts...)
}

// filterConfig maps the filter_pass section onto the pass config. The
// filter keeps its own larger response budget, so the llm max_tokens
// setting applies to analysis only.
func filterConfig(cfg *config.Config) pipeline.FilterConfig {
	return pipeline.FilterConfig{
		BatchSize:   cfg.Filter.BatchSize,
		Temperature: cfg.LLM.Temperature,
		BatchDelay:  cfg.Filter.BatchDelay,
		Timeout:     cfg.Filter.Timeout,
	}
}

// analysisConfig maps the analysis_pass section onto the pass config.
func analysisConfig(cfg *config.Config) pipeline.AnalysisConfig {
	return pipeline.AnalysisConfig{
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.Analysis.Timeout,
		APIDelay:    cfg.Analysis.APIDelay,
	}
}

func sourceConfigs(cfg *config.Config) []source.Config {
	out := make([]source.Config, 0, len(cfg.Sources))
	for _, src := range cfg.Sources {
		out = append(out, source.Config{
			Type:       src.Type,
			Patterns:   src.Patterns,
			ConnString: src.ConnString,
			Dataset:    src.Dataset,
			Query:      src.Query,
			State:      src.State,
			Year:       src.Year,
			Delay:      src.Delay,
		})
	}
	return out
}
