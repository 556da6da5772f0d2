package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"AgriIntel/internal/domain/models"
	domrepo "AgriIntel/internal/domain/repository"
	pkgch "AgriIntel/pkg/clickhouse"
	applogger "AgriIntel/pkg/logger"
)

const (
	DefaultPriceTable = "market_prices"
	insertChunkSize   = 2000
)

// CHPriceStore implements PriceStore backed by ClickHouse.
type CHPriceStore struct {
	db    *sql.DB
	table string
	now   func() time.Time
	l     *applogger.Logger
}

func NewCHPriceStore(ch *pkgch.Client) *CHPriceStore {
	return &CHPriceStore{
		db:    ch.DB(),
		table: ch.Database() + "." + DefaultPriceTable,
		now:   time.Now,
	}
}

// SetLogger injects a structured logger.
func (s *CHPriceStore) SetLogger(l *applogger.Logger) { s.l = l }

// Table is the fully qualified table name.
func (s *CHPriceStore) Table() string { return s.table }

// PriceSchema returns the DDL for the price table. ReplacingMergeTree keyed on
// (state, commodity, price_date) keeps the latest ingested row per day.
func PriceSchema(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
            state       LowCardinality(String),
            commodity   LowCardinality(String),
            price_date  Date,
            modal_price Float64,
            ingested_at DateTime64(3, 'UTC')
        )
        ENGINE = ReplacingMergeTree(ingested_at)
        ORDER BY (state, commodity, price_date)`, database, DefaultPriceTable),
	}
}

// LatestPrices returns at most limit rows, ascending by date. Rows not yet
// merged are collapsed with argMax so each date appears once.
func (s *CHPriceStore) LatestPrices(ctx context.Context, region, commodity string, limit int) ([]models.PricePoint, error) {
	start := time.Now()
	const qtpl = `
        SELECT price_date, argMax(modal_price, ingested_at) AS price
        FROM %s
        WHERE state = ? AND commodity = ?
        GROUP BY price_date
        ORDER BY price_date DESC
        LIMIT ?
    `
	q := fmt.Sprintf(qtpl, s.table)
	rows, err := s.db.QueryContext(ctx, q, region, commodity, limit)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse latest_prices query error",
				applogger.String("table", s.table),
				applogger.String("region", region),
				applogger.String("commodity", commodity),
				applogger.Int("limit", limit),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("latest prices: %w", err)
	}
	defer rows.Close()

	out := make([]models.PricePoint, 0, limit)
	for rows.Next() {
		var p models.PricePoint
		if err := rows.Scan(&p.Date, &p.Price); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse latest_prices scan error",
					applogger.String("table", s.table),
					applogger.String("region", region),
					applogger.String("commodity", commodity),
					applogger.Error(err),
				)
			}
			return nil, fmt.Errorf("scan price: %w", err)
		}
		p.Date = p.Date.UTC()
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	reversePoints(out)
	if s.l != nil {
		s.l.Debug("clickhouse latest_prices ok",
			applogger.String("table", s.table),
			applogger.String("region", region),
			applogger.String("commodity", commodity),
			applogger.Int("limit", limit),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

// InsertPrices writes rows using multi-row VALUES in chunks.
func (s *CHPriceStore) InsertPrices(ctx context.Context, rows []models.PriceRow) error {
	if len(rows) == 0 {
		return nil
	}
	ingestedAt := s.now().UTC()
	for start := 0; start < len(rows); start += insertChunkSize {
		end := start + insertChunkSize
		if end > len(rows) {
			end = len(rows)
		}
		q, args := buildInsert(s.table, rows[start:end], ingestedAt)
		if len(args) == 0 {
			continue
		}
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse insert_prices error",
					applogger.String("table", s.table),
					applogger.Int("rows", end-start),
					applogger.Error(err),
				)
			}
			return fmt.Errorf("insert prices: %w", err)
		}
	}
	return nil
}

func (s *CHPriceStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHPriceStore) Close() error {
	return nil // pool owned by pkg/clickhouse
}

func buildInsert(table string, rows []models.PriceRow, ingestedAt time.Time) (string, []any) {
	values := make([]string, 0, len(rows))
	args := make([]any, 0, len(rows)*5)
	for _, r := range rows {
		if r.State == "" || r.Commodity == "" || r.Date.IsZero() {
			continue
		}
		values = append(values, "(?, ?, ?, ?, ?)")
		args = append(args, r.State, r.Commodity, r.Date.UTC(), r.Price, ingestedAt)
	}
	q := fmt.Sprintf("INSERT INTO %s (state, commodity, price_date, modal_price, ingested_at) VALUES %s",
		table, strings.Join(values, ","))
	return q, args
}

func reversePoints(p []models.PricePoint) {
	for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
		p[i], p[j] = p[j], p[i]
	}
}

var _ domrepo.PriceStore = (*CHPriceStore)(nil)
