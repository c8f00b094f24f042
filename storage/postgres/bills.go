package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/poiesic/billscan/core"
	"github.com/poiesic/billscan/storage"
)

const upsertBillQuery = `
	INSERT INTO bills (
		bill_id, bill_number, state, session, title, description,
		status, status_desc, year, change_hash, last_action,
		last_action_date, url, state_url, raw_data, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	ON CONFLICT (bill_id) DO UPDATE SET
		bill_number = EXCLUDED.bill_number,
		state = EXCLUDED.state,
		session = EXCLUDED.session,
		title = EXCLUDED.title,
		description = EXCLUDED.description,
		status = EXCLUDED.status,
		status_desc = EXCLUDED.status_desc,
		year = EXCLUDED.year,
		change_hash = EXCLUDED.change_hash,
		last_action = EXCLUDED.last_action,
		last_action_date = EXCLUDED.last_action_date,
		url = EXCLUDED.url,
		state_url = EXCLUDED.state_url,
		raw_data = EXCLUDED.raw_data,
		updated_at = EXCLUDED.updated_at
`

// SaveRawData explodes a raw dataset into bills rows. Entries without a
// bill_id or bill_number cannot be keyed and are skipped.
func (p *Provider) SaveRawData(ctx context.Context, name string, data json.RawMessage) error {
	rawBills, err := core.ExtractRawBills(data)
	if err != nil {
		return err
	}

	tx, err := p.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	for _, rawBill := range rawBills {
		var fields map[string]any
		if err := json.Unmarshal(rawBill, &fields); err != nil {
			continue
		}

		billID := intField(fields, "bill_id")
		billNumber := textField(fields, "bill_number")
		if billID == 0 || billNumber == "" {
			continue
		}

		_, err := tx.Exec(ctx, upsertBillQuery,
			billID,
			billNumber,
			nullableText(fields, "state"),
			nullableText(fields, "session"),
			nullableText(fields, "title"),
			nullableText(fields, "description"),
			nullableInt(fields, "status"),
			nullableText(fields, "status_desc"),
			nullableInt(fields, "year"),
			nullableText(fields, "change_hash"),
			nullableText(fields, "last_action"),
			parseActionDate(fields),
			nullableText(fields, "url"),
			nullableText(fields, "state_url"),
			[]byte(rawBill),
			now,
		)
		if err != nil {
			return fmt.Errorf("upserting bill %s: %w", billNumber, err)
		}
	}

	return tx.Commit(ctx)
}

// LoadRawData reassembles a dataset from bills rows matching the state
// and year encoded in the dataset name, e.g. "ct_bills_2025".
func (p *Provider) LoadRawData(ctx context.Context, name string) (json.RawMessage, error) {
	state, year := parseDatasetName(name)

	query := `SELECT raw_data FROM bills WHERE 1=1`
	var args []any
	if state != "" {
		args = append(args, state)
		query += fmt.Sprintf(" AND state = $%d", len(args))
	}
	if year != 0 {
		args = append(args, year)
		query += fmt.Sprintf(" AND year = $%d", len(args))
	}
	query += " ORDER BY bill_number"

	rows, err := p.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bills []json.RawMessage
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		bills = append(bills, json.RawMessage(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(bills) == 0 {
		return nil, storage.ErrNotFound
	}

	// The reassembled document uses the masterlist envelope, the shape
	// upstream exports carry.
	doc := struct {
		Summary struct {
			Masterlist []json.RawMessage `json:"masterlist"`
			Total      int               `json:"total"`
		} `json:"summary"`
	}{}
	doc.Summary.Masterlist = bills
	doc.Summary.Total = len(bills)

	return json.Marshal(doc)
}

// ListRawFiles reports the dataset identifiers present in the bills
// table, derived from each row's state and year.
func (p *Provider) ListRawFiles(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT LOWER(state) || '_bills_' || year::text AS identifier
		FROM bills
		WHERE state IS NOT NULL AND year IS NOT NULL
		ORDER BY identifier
	`
	return p.queryStrings(ctx, query)
}

func (p *Provider) BillExistsInRaw(ctx context.Context, billNumber, name string) (bool, error) {
	query, args := billByNumberQuery(`SELECT 1`, billNumber, name)

	var one int
	err := p.db.Pool.QueryRow(ctx, query+" LIMIT 1", args...).Scan(&one)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (p *Provider) GetBillByNumber(ctx context.Context, billNumber, name string) (json.RawMessage, error) {
	query, args := billByNumberQuery(`SELECT raw_data`, billNumber, name)

	var raw []byte
	err := p.db.Pool.QueryRow(ctx, query, args...).Scan(&raw)
	if err == pgx.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}

// billByNumberQuery scopes a bill_number lookup to the dataset named in
// name, when the name encodes a state and year.
func billByNumberQuery(selectClause, billNumber, name string) (string, []any) {
	query := selectClause + ` FROM bills WHERE bill_number = $1`
	args := []any{billNumber}

	state, year := parseDatasetName(name)
	if state != "" {
		args = append(args, state)
		query += fmt.Sprintf(" AND state = $%d", len(args))
	}
	if year != 0 {
		args = append(args, year)
		query += fmt.Sprintf(" AND year = $%d", len(args))
	}
	return query, args
}

func (p *Provider) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := p.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// parseDatasetName splits a dataset identifier like "ct_bills_2025" into
// its state code and year. Either part may be absent.
func parseDatasetName(name string) (state string, year int) {
	name = storage.RawName(name)
	parts := strings.Split(name, "_")
	if len(parts) == 0 {
		return "", 0
	}

	state = strings.ToUpper(parts[0])
	if y, err := strconv.Atoi(parts[len(parts)-1]); err == nil {
		year = y
	}
	return state, year
}

// Loose-field helpers for upstream bill JSON, which is not strictly
// typed: numbers arrive as numbers or digit strings depending on the
// export.

func textField(fields map[string]any, key string) string {
	if s, ok := fields[key].(string); ok {
		return s
	}
	return ""
}

func intField(fields map[string]any, key string) int64 {
	switch v := fields[key].(type) {
	case float64:
		return int64(v)
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func nullableText(fields map[string]any, key string) *string {
	if s := textField(fields, key); s != "" {
		return &s
	}
	return nil
}

func nullableInt(fields map[string]any, key string) *int64 {
	// Zero is not a meaningful status or year in upstream data.
	if n := intField(fields, key); n != 0 {
		return &n
	}
	return nil
}

func parseActionDate(fields map[string]any) *time.Time {
	s := textField(fields, "last_action_date")
	if s == "" {
		return nil
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &d
}
