package source

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/billscan/core"
)

// Manager runs an ordered set of sources and combines their output.
type Manager struct {
	plugins []Plugin
	logger  *slog.Logger
}

// NewManager creates a manager over the given sources.
func NewManager(plugins ...Plugin) *Manager {
	return &Manager{
		plugins: plugins,
		logger:  slog.Default().With("component", "source"),
	}
}

// NewManagerFromConfigs builds each configured source through the
// registry. An entry that cannot be built is logged and skipped, so one
// bad source does not block the rest.
func NewManagerFromConfigs(reg *Registry, cfgs []Config) *Manager {
	m := NewManager()
	for _, cfg := range cfgs {
		plugin, err := reg.Create(cfg)
		if err != nil {
			if errors.Is(err, ErrUnknownSource) {
				m.logger.Warn("skipping unknown source type", "type", cfg.Type)
			} else {
				m.logger.Error("skipping source that failed to initialize", "type", cfg.Type, "err", err)
			}
			continue
		}
		m.plugins = append(m.plugins, plugin)
	}
	return m
}

// Len reports the number of sources the manager will run.
func (m *Manager) Len() int {
	return len(m.plugins)
}

// FetchAll runs every source in order and returns their combined
// records. A source failure is logged and does not stop the remaining
// sources.
func (m *Manager) FetchAll(ctx context.Context) []core.BillRecord {
	var combined []core.BillRecord
	for _, plugin := range m.plugins {
		records, err := plugin.Fetch(ctx)
		if err != nil {
			m.logger.Error("source fetch failed", "source", plugin.Name(), "err", err)
			continue
		}
		combined = append(combined, records...)
	}
	m.logger.Info("all sources fetched", "sources", len(m.plugins), "total_bills", len(combined))
	return combined
}
