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

// Package config loads pipeline settings from an optional YAML file with
// environment variables layered on top. Secrets never live in the file:
// API keys and connection strings stay in the environment and are read
// by the packages that use them.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/poiesic/billscan/hooks"
)

// Config is the full configuration tree for a pipeline run.
type Config struct {
	Storage  StorageConfig  `koanf:"storage"`
	LLM      LLMConfig      `koanf:"llm"`
	Filter   FilterConfig   `koanf:"filter_pass"`
	Analysis AnalysisConfig `koanf:"analysis_pass"`
	LegiScan LegiScanConfig `koanf:"legiscan"`
	Hooks    HooksConfig    `koanf:"hooks"`
	Sources  []SourceConfig `koanf:"sources"`
}

// StorageConfig selects the storage backend. The database connection
// string itself is read from the environment variable named by
// ConnStringEnv, never from the file.
type StorageConfig struct {
	Backend         string `koanf:"backend"`
	DataDirectory   string `koanf:"data_directory"`
	BadgerPath      string `koanf:"badger_path"`
	ConnStringEnv   string `koanf:"conn_string_env"`
	PoolSize        int    `koanf:"pool_size"`
	DualWrite       bool   `koanf:"dual_write"`
	DualWriteStrict bool   `koanf:"dual_write_strict"`
}

// LLMConfig selects the AI provider and its generation parameters.
// Credentials (PORTKEY_API_KEY, AZURE_OPENAI_API_KEY) come from the
// environment.
type LLMConfig struct {
	Provider    string  `koanf:"provider"`
	Model       string  `koanf:"model"`
	BaseURL     string  `koanf:"base_url"`
	Endpoint    string  `koanf:"endpoint"`
	Deployment  string  `koanf:"deployment"`
	APIVersion  string  `koanf:"api_version"`
	Temperature float64 `koanf:"temperature"`
	MaxTokens   int     `koanf:"max_tokens"`
}

// FilterConfig tunes the batched relevance filter. Durations are Go
// duration strings in YAML, e.g. "3m".
type FilterConfig struct {
	BatchSize  int           `koanf:"batch_size"`
	Timeout    time.Duration `koanf:"timeout"`
	BatchDelay time.Duration `koanf:"batch_delay"`
}

// AnalysisConfig tunes the per-bill analysis pass.
type AnalysisConfig struct {
	Timeout  time.Duration `koanf:"timeout"`
	APIDelay time.Duration `koanf:"api_delay"`
}

// LegiScanConfig tunes the LegiScan client. The API key comes from
// LEGISCAN_API_KEY.
type LegiScanConfig struct {
	BaseURL string        `koanf:"base_url"`
	Delay   time.Duration `koanf:"delay"`
}

// HooksConfig lists the enrichment hooks to run at each point in the
// pipeline. When Enabled is false the lists are ignored. CacheDirectory
// persists hook output in a badger database at that path; empty keeps
// the cache in memory for the life of the process.
type HooksConfig struct {
	Enabled        bool         `koanf:"enabled"`
	CacheDirectory string       `koanf:"cache_directory"`
	PreFilter      []HookConfig `koanf:"pre_filter"`
	PostFilter     []HookConfig `koanf:"post_filter"`
	PreAnalysis    []HookConfig `koanf:"pre_analysis"`
	PostAnalysis   []HookConfig `koanf:"post_analysis"`
}

// HookConfig names one hook and its parameters. Description is free
// text for the config author and is never interpreted.
type HookConfig struct {
	Type        string            `koanf:"type"`
	Params      map[string]string `koanf:"params"`
	Description string            `koanf:"description"`
}

// SourceConfig mirrors source.Config with YAML field names.
type SourceConfig struct {
	Type       string        `koanf:"type"`
	Patterns   []string      `koanf:"patterns"`
	ConnString string        `koanf:"conn_string"`
	Dataset    string        `koanf:"dataset"`
	Query      string        `koanf:"query"`
	State      string        `koanf:"state"`
	Year       int           `koanf:"year"`
	Delay      time.Duration `koanf:"delay"`
}

// ByTiming returns the configured hook lists keyed by execution point,
// in pipeline order.
func (c HooksConfig) ByTiming() map[hooks.Timing][]HookConfig {
	return map[hooks.Timing][]HookConfig{
		hooks.PreFilter:    c.PreFilter,
		hooks.PostFilter:   c.PostFilter,
		hooks.PreAnalysis:  c.PreAnalysis,
		hooks.PostAnalysis: c.PostAnalysis,
	}
}

// Validate checks value ranges after defaults have been applied.
// Reachability of the configured backends is checked by their
// constructors, not here.
func (c *Config) Validate() error {
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return errors.New("config: llm temperature must be between 0 and 2")
	}
	if c.LLM.MaxTokens < 1 {
		return errors.New("config: llm max_tokens must be at least 1")
	}
	if c.Storage.PoolSize < 1 {
		return errors.New("config: storage pool_size must be at least 1")
	}
	if c.Filter.BatchSize < 1 {
		return errors.New("config: filter_pass batch_size must be at least 1")
	}
	if c.Filter.Timeout < 0 {
		return errors.New("config: filter_pass timeout must not be negative")
	}
	if c.Analysis.Timeout < 0 {
		return errors.New("config: analysis_pass timeout must not be negative")
	}
	if c.Analysis.APIDelay < 0 {
		return errors.New("config: analysis_pass api_delay must not be negative")
	}
	for i, src := range c.Sources {
		if src.Type == "" {
			return fmt.Errorf("config: sources[%d] is missing a type", i)
		}
	}
	return nil
}
