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

// Package hooks runs custom enrichment steps at fixed points around the
// filter and analysis passes. A hook receives the in-flight data string,
// may transform or extend it, and hands the result to the next hook.
// Hook failures never stop the pipeline.
package hooks

import (
	"context"
	"fmt"
)

// Timing is a point in the pipeline where hooks may run.
type Timing string

// The closed set of hook execution points, in pipeline order.
const (
	PreFilter    Timing = "pre_filter"
	PostFilter   Timing = "post_filter"
	PreAnalysis  Timing = "pre_analysis"
	PostAnalysis Timing = "post_analysis"
)

// Timings returns every execution point in pipeline order.
func Timings() []Timing {
	return []Timing{PreFilter, PostFilter, PreAnalysis, PostAnalysis}
}

// ParseTiming converts a configuration string into a Timing.
func ParseTiming(s string) (Timing, error) {
	for _, timing := range Timings() {
		if s == string(timing) {
			return timing, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTiming, s)
}

// Context carries per-item metadata into hook execution. ItemID is the
// upstream identifier of the item being processed (a LegiScan bill id
// during analysis); it may be empty for batch-level timings.
type Context struct {
	ItemID string
	RunID  string
}

// Hook is one enrichment step. Implementations must be safe to call
// sequentially for many items.
type Hook interface {
	// Name identifies the hook in logs and cache keys.
	Name() string

	// Process transforms the in-flight data. On error the manager keeps
	// the previous value and moves on.
	Process(ctx context.Context, data string, hctx Context) (string, error)

	// CacheKey returns the cache key for this invocation, or "" to
	// disable caching. Most hooks delegate to DefaultCacheKey.
	CacheKey(data string, hctx Context) string
}

// DefaultCacheKey composes the conventional {hook name}_{item id} cache
// key. It returns "" when the context has no item id, which disables
// caching for the invocation.
func DefaultCacheKey(name string, hctx Context) string {
	if hctx.ItemID == "" {
		return ""
	}
	return name + "_" + hctx.ItemID
}
