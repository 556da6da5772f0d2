package repository

import (
	"context"

	"AgriIntel/internal/domain/models"
)

// PriceStore is the queryable time series store for modal prices.
type PriceStore interface {
	// LatestPrices returns up to limit most recent rows, ascending by date.
	LatestPrices(ctx context.Context, region, commodity string, limit int) ([]models.PricePoint, error)
	InsertPrices(ctx context.Context, rows []models.PriceRow) error
	Health(ctx context.Context) error
	Close() error
}

// PricePublisher pushes price rows onto the ingest stream.
type PricePublisher interface {
	PublishBatch(ctx context.Context, rows []models.PriceRow) error
	Close() error
}

type Metrics interface {
	RecordForecast(commodity string, steps int)
	RecordDecision(decision string, profitIndex int)
	RecordHistorySource(source, reason string)
	RecordIngested(backend string, rows int)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
