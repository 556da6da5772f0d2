package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"AgriIntel/internal/domain/models"
)

type fakePublisher struct {
	batches [][]models.PriceRow
	err     error
	closed  bool
}

func (p *fakePublisher) PublishBatch(_ context.Context, rows []models.PriceRow) error {
	if p.err != nil {
		return p.err
	}
	p.batches = append(p.batches, rows)
	return nil
}

func (p *fakePublisher) Close() error {
	p.closed = true
	return nil
}

func priceRows(n int) []models.PriceRow {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]models.PriceRow, n)
	for i := range rows {
		rows[i] = models.PriceRow{State: "Punjab", Commodity: "Wheat", Date: start.AddDate(0, 0, i), Price: float64(2000 + i)}
	}
	return rows
}

func TestPriceProcessorBatchesToKafka(t *testing.T) {
	pub := &fakePublisher{}
	p := NewPriceProcessor(pub, nil, nil, BackendKafka, 2)

	sent, err := p.Process(context.Background(), priceRows(5))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if sent != 5 || len(pub.batches) != 3 || len(pub.batches[2]) != 1 {
		t.Fatalf("sent=%d batches=%d", sent, len(pub.batches))
	}
	p.Close()
	if !pub.closed {
		t.Fatalf("publisher should be closed")
	}
}

func TestPriceProcessorClickHouseBackend(t *testing.T) {
	store := &fakeStore{}
	p := NewPriceProcessor(nil, store, nil, BackendClickHouse, 0)

	if _, err := p.Process(context.Background(), priceRows(3)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(store.inserted) != 3 {
		t.Fatalf("expected 3 inserted rows, got %d", len(store.inserted))
	}
}

func TestPriceProcessorStopsOnError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	p := NewPriceProcessor(pub, nil, nil, BackendKafka, 2)

	sent, err := p.Process(context.Background(), priceRows(4))
	if err == nil || sent != 0 {
		t.Fatalf("expected failure before any rows are sent, got sent=%d err=%v", sent, err)
	}
	if _, err := NewPriceProcessor(nil, nil, nil, BackendKafka, 1).Process(context.Background(), priceRows(1)); err == nil {
		t.Fatalf("expected error without publisher")
	}
	if _, err := NewPriceProcessor(nil, nil, nil, "s3", 1).Process(context.Background(), priceRows(1)); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
