package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// envSections are the config sections reachable through environment
// variables. A variable named SECTION_FIELD overrides section.field,
// so STORAGE_BACKEND=badger and FILTER_PASS_BATCH_SIZE=10 work without
// a config file. The sources list is file-only.
var envSections = []string{
	"filter_pass",
	"analysis_pass",
	"storage",
	"llm",
	"legiscan",
	"hooks",
}

// Load reads the YAML config file at path, layers environment variable
// overrides on top, fills defaults, and validates the result.
//
// Precedence, highest first:
//  1. Environment variables (STORAGE_BACKEND, LLM_MODEL, ...)
//  2. The YAML file
//  3. Defaults
//
// A missing file is not an error; the defaults cover a full local run.
// Pass an empty path to skip the file entirely.
func Load(path string) (*Config, error) {
	logger := slog.Default().With("component", "config")
	k := koanf.New(".")

	if path != "" {
		content, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			logger.Info("config file not found, using defaults", "path", path)
		case err != nil:
			return nil, fmt.Errorf("reading config file: %w", err)
		default:
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", path, err)
			}
			logger.Info("loaded config file", "path", path)
		}
	}

	// Variables that are set but empty are skipped, so an exported
	// empty LLM_PROVIDER does not blank out a file setting.
	envProvider := env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		if value == "" {
			return "", nil
		}
		return envToKey(key), value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("loading environment overrides: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envToKey maps an environment variable name to a koanf key. Known
// section prefixes become the section segment and the remainder keeps
// its underscores, so ANALYSIS_PASS_API_DELAY maps to
// analysis_pass.api_delay. Names outside the known sections map to a
// root-level key no config field matches, which Unmarshal ignores.
func envToKey(name string) string {
	lower := strings.ToLower(name)
	for _, section := range envSections {
		if rest, ok := strings.CutPrefix(lower, section+"_"); ok {
			return section + "." + rest
		}
	}
	return lower
}

// applyDefaults fills the fields every run needs. Pass tunables the
// filter and analysis passes default themselves (batch delay, API
// delay) stay zero here.
func applyDefaults(cfg *Config) {
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "local"
	}
	if cfg.Storage.DataDirectory == "" {
		cfg.Storage.DataDirectory = "data"
	}
	if cfg.Storage.BadgerPath == "" {
		cfg.Storage.BadgerPath = filepath.Join(cfg.Storage.DataDirectory, "badger")
	}
	if cfg.Storage.ConnStringEnv == "" {
		cfg.Storage.ConnStringEnv = "DATABASE_CONNECTION_STRING"
	}
	if cfg.Storage.PoolSize == 0 {
		cfg.Storage.PoolSize = 5
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "portkey"
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.3
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 2000
	}

	if cfg.Filter.BatchSize == 0 {
		cfg.Filter.BatchSize = 50
	}
	if cfg.Filter.Timeout == 0 {
		cfg.Filter.Timeout = 3 * time.Minute
	}
	if cfg.Analysis.Timeout == 0 {
		cfg.Analysis.Timeout = 90 * time.Second
	}

	if cfg.LegiScan.Delay == 0 {
		cfg.LegiScan.Delay = time.Second
	}
}
