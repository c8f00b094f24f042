package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/billscan/hooks"
)

// clearEnvOverrides pins every variable Load reads to the empty string.
// The loader skips empty values, so this keeps ambient settings in the
// test environment from leaking into assertions.
func clearEnvOverrides(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"STORAGE_BACKEND", "STORAGE_DATA_DIRECTORY", "STORAGE_BADGER_PATH",
		"STORAGE_POOL_SIZE", "STORAGE_DUAL_WRITE",
		"LLM_PROVIDER", "LLM_MODEL", "LLM_BASE_URL", "LLM_ENDPOINT",
		"LLM_DEPLOYMENT", "LLM_TEMPERATURE", "LLM_MAX_TOKENS",
		"FILTER_PASS_BATCH_SIZE", "FILTER_PASS_TIMEOUT", "FILTER_PASS_BATCH_DELAY",
		"ANALYSIS_PASS_TIMEOUT", "ANALYSIS_PASS_API_DELAY",
		"LEGISCAN_BASE_URL", "LEGISCAN_DELAY",
		"HOOKS_ENABLED", "HOOKS_CACHE_DIRECTORY",
	} {
		t.Setenv(name, "")
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("defaults cover a full local run", func(t *testing.T) {
		clearEnvOverrides(t)

		cfg, err := Load("")
		require.NoError(t, err)

		assert.Equal(t, "local", cfg.Storage.Backend)
		assert.Equal(t, "data", cfg.Storage.DataDirectory)
		assert.Equal(t, filepath.Join("data", "badger"), cfg.Storage.BadgerPath)
		assert.Equal(t, "DATABASE_CONNECTION_STRING", cfg.Storage.ConnStringEnv)
		assert.Equal(t, 5, cfg.Storage.PoolSize)
		assert.False(t, cfg.Storage.DualWrite)

		assert.Equal(t, "portkey", cfg.LLM.Provider)
		assert.InDelta(t, 0.3, cfg.LLM.Temperature, 0.001)
		assert.Equal(t, 2000, cfg.LLM.MaxTokens)

		assert.Equal(t, 50, cfg.Filter.BatchSize)
		assert.Equal(t, 3*time.Minute, cfg.Filter.Timeout)
		assert.Equal(t, 90*time.Second, cfg.Analysis.Timeout)
		assert.Equal(t, time.Second, cfg.LegiScan.Delay)

		assert.False(t, cfg.Hooks.Enabled)
		assert.Empty(t, cfg.Sources)
	})

	t.Run("reads every section from the file", func(t *testing.T) {
		clearEnvOverrides(t)

		path := writeConfigFile(t, `
storage:
  backend: badger
  data_directory: /var/pipeline
  dual_write: true
llm:
  provider: azure
  model: gpt-4o
  endpoint: https://example.openai.azure.com
  deployment: bills
  temperature: 0.1
  max_tokens: 1500
filter_pass:
  batch_size: 10
  timeout: 2m
  batch_delay: 500ms
analysis_pass:
  timeout: 45s
  api_delay: 2s
legiscan:
  delay: 250ms
hooks:
  enabled: true
  cache_directory: /var/pipeline/hookcache
  pre_analysis:
    - type: legiscan
      description: attach full bill text before analysis
      params:
        cache: "true"
sources:
  - type: files
    patterns:
      - data/raw/*.json
  - type: api
    query: palliative care
    state: CT
    year: 2025
    delay: 1s
`)

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "badger", cfg.Storage.Backend)
		assert.Equal(t, "/var/pipeline", cfg.Storage.DataDirectory)
		assert.Equal(t, filepath.Join("/var/pipeline", "badger"), cfg.Storage.BadgerPath)
		assert.True(t, cfg.Storage.DualWrite)

		assert.Equal(t, "azure", cfg.LLM.Provider)
		assert.Equal(t, "gpt-4o", cfg.LLM.Model)
		assert.Equal(t, "https://example.openai.azure.com", cfg.LLM.Endpoint)
		assert.Equal(t, "bills", cfg.LLM.Deployment)
		assert.InDelta(t, 0.1, cfg.LLM.Temperature, 0.001)
		assert.Equal(t, 1500, cfg.LLM.MaxTokens)

		assert.Equal(t, 10, cfg.Filter.BatchSize)
		assert.Equal(t, 2*time.Minute, cfg.Filter.Timeout)
		assert.Equal(t, 500*time.Millisecond, cfg.Filter.BatchDelay)
		assert.Equal(t, 45*time.Second, cfg.Analysis.Timeout)
		assert.Equal(t, 2*time.Second, cfg.Analysis.APIDelay)
		assert.Equal(t, 250*time.Millisecond, cfg.LegiScan.Delay)

		assert.True(t, cfg.Hooks.Enabled)
		assert.Equal(t, "/var/pipeline/hookcache", cfg.Hooks.CacheDirectory)
		require.Len(t, cfg.Hooks.PreAnalysis, 1)
		assert.Equal(t, "legiscan", cfg.Hooks.PreAnalysis[0].Type)
		assert.Equal(t, map[string]string{"cache": "true"}, cfg.Hooks.PreAnalysis[0].Params)

		require.Len(t, cfg.Sources, 2)
		assert.Equal(t, "files", cfg.Sources[0].Type)
		assert.Equal(t, []string{"data/raw/*.json"}, cfg.Sources[0].Patterns)
		assert.Equal(t, "api", cfg.Sources[1].Type)
		assert.Equal(t, "palliative care", cfg.Sources[1].Query)
		assert.Equal(t, "CT", cfg.Sources[1].State)
		assert.Equal(t, 2025, cfg.Sources[1].Year)
		assert.Equal(t, time.Second, cfg.Sources[1].Delay)
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		clearEnvOverrides(t)

		path := writeConfigFile(t, `
storage:
  backend: local
llm:
  model: gpt-4o-mini
filter_pass:
  batch_size: 10
  timeout: 2m
`)
		t.Setenv("STORAGE_BACKEND", "badger")
		t.Setenv("LLM_MODEL", "gpt-4o")
		t.Setenv("FILTER_PASS_BATCH_SIZE", "25")
		t.Setenv("ANALYSIS_PASS_API_DELAY", "2s")

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "badger", cfg.Storage.Backend)
		assert.Equal(t, "gpt-4o", cfg.LLM.Model)
		assert.Equal(t, 25, cfg.Filter.BatchSize)
		assert.Equal(t, 2*time.Second, cfg.Analysis.APIDelay)
		assert.Equal(t, 2*time.Minute, cfg.Filter.Timeout, "file settings without overrides survive")
	})

	t.Run("an empty environment value does not blank a file setting", func(t *testing.T) {
		clearEnvOverrides(t)

		path := writeConfigFile(t, `
llm:
  provider: azure
`)
		t.Setenv("LLM_PROVIDER", "")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "azure", cfg.LLM.Provider)
	})

	t.Run("a missing file falls back to defaults", func(t *testing.T) {
		clearEnvOverrides(t)

		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "local", cfg.Storage.Backend)
	})

	t.Run("rejects an unparseable file", func(t *testing.T) {
		clearEnvOverrides(t)

		path := writeConfigFile(t, "storage: [not: a map\n")

		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing config file")
	})

	t.Run("rejects an out of range temperature", func(t *testing.T) {
		clearEnvOverrides(t)

		path := writeConfigFile(t, `
llm:
  temperature: 3
`)
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "temperature must be between 0 and 2")
	})

	t.Run("rejects a source without a type", func(t *testing.T) {
		clearEnvOverrides(t)

		path := writeConfigFile(t, `
sources:
  - query: palliative care
`)
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sources[0] is missing a type")
	})

	t.Run("rejects a negative filter timeout", func(t *testing.T) {
		clearEnvOverrides(t)

		path := writeConfigFile(t, `
filter_pass:
  timeout: -1s
`)
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "timeout must not be negative")
	})
}

func TestHooksByTiming(t *testing.T) {
	cfg := HooksConfig{
		PreFilter:   []HookConfig{{Type: "legiscan"}},
		PreAnalysis: []HookConfig{{Type: "legiscan"}, {Type: "static"}},
	}

	byTiming := cfg.ByTiming()
	require.Len(t, byTiming, 4)
	assert.Len(t, byTiming[hooks.PreFilter], 1)
	assert.Empty(t, byTiming[hooks.PostFilter])
	assert.Len(t, byTiming[hooks.PreAnalysis], 2)
	assert.Empty(t, byTiming[hooks.PostAnalysis])
}

func TestEnvToKey(t *testing.T) {
	cases := map[string]string{
		"STORAGE_BACKEND":         "storage.backend",
		"STORAGE_DATA_DIRECTORY":  "storage.data_directory",
		"FILTER_PASS_BATCH_SIZE":  "filter_pass.batch_size",
		"ANALYSIS_PASS_API_DELAY": "analysis_pass.api_delay",
		"LLM_BASE_URL":            "llm.base_url",
		"HOOKS_ENABLED":           "hooks.enabled",
		"PATH":                    "path",
		"LEGISCAN_API_KEY":        "legiscan.api_key",
	}
	for name, want := range cases {
		assert.Equal(t, want, envToKey(name), name)
	}
}
