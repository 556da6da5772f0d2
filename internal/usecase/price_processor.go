package usecase

import (
	"context"
	"fmt"
	"time"

	"AgriIntel/internal/domain/models"
	domrepo "AgriIntel/internal/domain/repository"
	"AgriIntel/pkg/metrics"
)

const (
	BackendKafka      = "kafka"
	BackendClickHouse = "clickhouse"
)

// PriceProcessor routes price rows to the configured backend in batches.
type PriceProcessor struct {
	pub     domrepo.PricePublisher
	store   domrepo.PriceStore
	metrics domrepo.Metrics
	backend string
	batchSz int
}

func NewPriceProcessor(pub domrepo.PricePublisher, store domrepo.PriceStore, mt domrepo.Metrics, backend string, batchSz int) *PriceProcessor {
	if mt == nil {
		mt = metrics.Nop{}
	}
	if batchSz <= 0 {
		batchSz = 500
	}
	return &PriceProcessor{pub: pub, store: store, metrics: mt, backend: backend, batchSz: batchSz}
}

// Process sends rows in batches of batchSz and returns the number sent.
func (p *PriceProcessor) Process(ctx context.Context, rows []models.PriceRow) (int, error) {
	sent := 0
	for start := 0; start < len(rows); start += p.batchSz {
		end := start + p.batchSz
		if end > len(rows) {
			end = len(rows)
		}
		if err := p.processBatch(ctx, rows[start:end]); err != nil {
			return sent, err
		}
		sent += end - start
	}
	return sent, nil
}

func (p *PriceProcessor) processBatch(ctx context.Context, batch []models.PriceRow) error {
	start := time.Now()
	var err error

	switch p.backend {
	case BackendKafka:
		if p.pub == nil {
			return fmt.Errorf("kafka backend selected but no publisher configured")
		}
		err = p.pub.PublishBatch(ctx, batch)
	case BackendClickHouse:
		if p.store == nil {
			return fmt.Errorf("clickhouse backend selected but no store configured")
		}
		err = p.store.InsertPrices(ctx, batch)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process_batch")
		return fmt.Errorf("process batch: %w", err)
	}

	p.metrics.RecordIngested(p.backend, len(batch))
	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())
	return nil
}

// Close closes underlying resources if available.
func (p *PriceProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
