package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"AgriIntel/internal/domain/errs"
	"AgriIntel/internal/domain/models"
	domrepo "AgriIntel/internal/domain/repository"
	pkgkafka "AgriIntel/pkg/kafka"
	applogger "AgriIntel/pkg/logger"
	"AgriIntel/pkg/metrics"
	"AgriIntel/pkg/util"
)

// HistoryInvalidator drops cached history for a key.
type HistoryInvalidator interface {
	Invalidate(ctx context.Context, region, commodity string)
}

// PriceIngestHandler consumes price messages from Kafka and writes them to the store.
type PriceIngestHandler struct {
	topic   string
	store   domrepo.PriceStore
	history HistoryInvalidator
	metrics domrepo.Metrics
	l       *applogger.Logger
}

func NewPriceIngestHandler(topic string, store domrepo.PriceStore, history HistoryInvalidator, mt domrepo.Metrics, l *applogger.Logger) *PriceIngestHandler {
	if mt == nil {
		mt = metrics.Nop{}
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &PriceIngestHandler{topic: topic, store: store, history: history, metrics: mt, l: l}
}

func (h *PriceIngestHandler) Topic() string { return h.topic }

// incoming message schema: {state, commodity, price_date, modal_price}
func (h *PriceIngestHandler) Handle(ctx context.Context, b []byte) error {
	var m models.PriceMessage
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("ingest_unmarshal")
		return errs.Invalid("payload", err.Error())
	}
	row, err := ParsePriceMessage(m)
	if err != nil {
		h.metrics.RecordError("ingest_invalid")
		h.l.Warn("price message rejected", applogger.String("topic", h.topic), applogger.Error(err))
		return err
	}

	start := time.Now()
	err = h.store.InsertPrices(ctx, []models.PriceRow{row})
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("ingest_store")
		return fmt.Errorf("store price: %w", err)
	}
	if h.history != nil {
		h.history.Invalidate(ctx, row.State, row.Commodity)
	}
	h.metrics.RecordIngested("clickhouse", 1)
	return nil
}

// ParsePriceMessage validates a wire message into a row.
func ParsePriceMessage(m models.PriceMessage) (models.PriceRow, error) {
	state, commodity := strings.TrimSpace(m.State), strings.TrimSpace(m.Commodity)
	if state == "" {
		return models.PriceRow{}, errs.Invalid("state", "is required")
	}
	if commodity == "" {
		return models.PriceRow{}, errs.Invalid("commodity", "is required")
	}
	date, err := util.ParseDate(m.PriceDate)
	if err != nil {
		return models.PriceRow{}, errs.Invalid("price_date", err.Error())
	}
	if m.ModalPrice == nil {
		return models.PriceRow{}, errs.Invalid("modal_price", "is required")
	}
	p := *m.ModalPrice
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
		return models.PriceRow{}, errs.Invalid("modal_price", "must be a finite non-negative number")
	}
	return models.PriceRow{State: state, Commodity: commodity, Date: date, Price: p}, nil
}

var _ pkgkafka.MessageHandler = (*PriceIngestHandler)(nil)
