package source

import (
	"context"
	"log/slog"
	"time"

	"github.com/poiesic/billscan/core"
	"github.com/poiesic/billscan/legiscan"
)

// APIPlugin fetches bills from a live LegiScan search, paging through
// every result for the configured query.
type APIPlugin struct {
	client *legiscan.Client
	query  string
	state  string
	year   int
	delay  time.Duration
	logger *slog.Logger
}

var _ Plugin = (*APIPlugin)(nil)

// NewAPIPlugin creates an api source over an existing LegiScan client.
func NewAPIPlugin(client *legiscan.Client, cfg Config) (*APIPlugin, error) {
	if client == nil {
		return nil, ErrClientRequired
	}
	if cfg.Query == "" {
		return nil, ErrQueryRequired
	}
	return &APIPlugin{
		client: client,
		query:  cfg.Query,
		state:  cfg.State,
		year:   cfg.Year,
		delay:  cfg.Delay,
		logger: slog.Default().With("component", "source"),
	}, nil
}

// Name implements Plugin.
func (p *APIPlugin) Name() string {
	return TypeAPI
}

// Fetch implements Plugin.
func (p *APIPlugin) Fetch(ctx context.Context) ([]core.BillRecord, error) {
	summaries, err := p.client.SearchAll(ctx, p.query, p.state, p.year, p.delay)
	if err != nil {
		return nil, err
	}

	records := make([]core.BillRecord, 0, len(summaries))
	for _, s := range summaries {
		records = append(records, core.BillRecord{
			BillID:      s.BillID,
			BillNumber:  s.BillNumber,
			Title:       s.Title,
			Description: s.Description,
			URL:         s.URL,
		})
	}
	p.logger.Info("fetched bills from search", "query", p.query, "bills", len(records))
	return records, nil
}
