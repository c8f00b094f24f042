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

package hooks

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/billscan/core"
	"github.com/poiesic/billscan/storage"
)

// Manager holds an ordered hook list per timing and executes them with
// caching and error isolation.
type Manager struct {
	hooks  map[Timing][]Hook
	cache  Cache
	logger *slog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithCache attaches a result cache. Without one, every hook executes on
// every invocation.
func WithCache(cache Cache) ManagerOption {
	return func(m *Manager) {
		m.cache = cache
	}
}

// NewManager creates an empty hook manager.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		hooks:  make(map[Timing][]Hook),
		logger: slog.Default().With("component", "hooks"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register appends a hook to the given timing. Hooks run in registration
// order.
func (m *Manager) Register(hook Hook, timing Timing) {
	m.hooks[timing] = append(m.hooks[timing], hook)
	m.logger.Debug("registered hook", "hook", hook.Name(), "timing", string(timing))
}

// HookCount returns how many hooks are registered at a timing.
func (m *Manager) HookCount(timing Timing) int {
	return len(m.hooks[timing])
}

// Execute runs every hook registered at the timing, threading data from
// one to the next. A cached result short-circuits that hook; a hook error
// is logged and the next hook receives the last good value. The returned
// data is always usable.
func (m *Manager) Execute(ctx context.Context, timing Timing, data string, hctx Context) string {
	result := data

	for _, hook := range m.hooks[timing] {
		// One key per invocation: the result is saved under the same key
		// it was looked up by, even for hooks that key on the data.
		key := hook.CacheKey(result, hctx)

		if cached, ok := m.fromCache(ctx, hook, key); ok {
			m.logger.Debug("using cached hook result", "hook", hook.Name(), "timing", string(timing))
			result = cached
			continue
		}

		processed, err := hook.Process(ctx, result, hctx)
		if err != nil {
			m.logger.Warn("hook failed, continuing with unmodified data",
				"hook", hook.Name(), "timing", string(timing), "item_id", hctx.ItemID, "err", err)
			continue
		}
		result = processed
		m.toCache(ctx, hook, key, result)
	}
	return result
}

// fromCache looks up a hook result. Keys are digested because item ids
// are bill numbers and may contain characters the backing stores treat
// specially.
func (m *Manager) fromCache(ctx context.Context, hook Hook, key string) (string, bool) {
	if m.cache == nil || key == "" {
		return "", false
	}

	cached, err := m.cache.Get(ctx, core.DigestKey(key))
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			m.logger.Debug("hook cache read failed", "hook", hook.Name(), "key", key, "err", err)
		}
		return "", false
	}
	return cached, true
}

func (m *Manager) toCache(ctx context.Context, hook Hook, key, data string) {
	if m.cache == nil || key == "" {
		return
	}

	if err := m.cache.Set(ctx, core.DigestKey(key), data); err != nil {
		m.logger.Debug("hook cache write failed", "hook", hook.Name(), "key", key, "err", err)
	}
}
