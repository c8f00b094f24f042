package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"

	"github.com/poiesic/billscan/storage"
)

func (p *Provider) GetBillFromCache(ctx context.Context, billID int64) (json.RawMessage, error) {
	var raw []byte
	err := p.db.Pool.QueryRow(ctx,
		`SELECT response_data FROM legiscan_cache WHERE bill_id = $1`, billID,
	).Scan(&raw)
	if err == pgx.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}

func (p *Provider) SaveBillToCache(ctx context.Context, billID int64, bill json.RawMessage) error {
	_, err := p.db.Pool.Exec(ctx, `
		INSERT INTO legiscan_cache (bill_id, response_data)
		VALUES ($1, $2)
		ON CONFLICT (bill_id) DO UPDATE SET
			response_data = EXCLUDED.response_data,
			cached_at = CURRENT_TIMESTAMP
	`, billID, []byte(bill))
	return err
}

func (p *Provider) GetBillTextFromCache(ctx context.Context, docID int64) (string, error) {
	var text string
	err := p.db.Pool.QueryRow(ctx,
		`SELECT bill_text FROM bill_text_cache WHERE doc_id = $1`, docID,
	).Scan(&text)
	if err == pgx.ErrNoRows {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return text, nil
}

func (p *Provider) SaveBillTextToCache(ctx context.Context, docID int64, text string) error {
	_, err := p.db.Pool.Exec(ctx, `
		INSERT INTO bill_text_cache (doc_id, bill_text)
		VALUES ($1, $2)
		ON CONFLICT (doc_id) DO UPDATE SET
			bill_text = EXCLUDED.bill_text,
			cached_at = CURRENT_TIMESTAMP
	`, docID, text)
	return err
}
