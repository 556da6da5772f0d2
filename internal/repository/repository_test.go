package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"AgriIntel/internal/domain/models"
	pkgkafka "AgriIntel/pkg/kafka"
)

func day(s string) time.Time {
	t, _ := time.Parse(time.DateOnly, s)
	return t
}

func TestBuildInsertSkipsIncompleteRows(t *testing.T) {
	at := day("2024-06-15")
	rows := []models.PriceRow{
		{State: "Punjab", Commodity: "Wheat", Date: day("2024-06-01"), Price: 2100},
		{State: "", Commodity: "Wheat", Date: day("2024-06-02"), Price: 2200},
		{State: "Punjab", Commodity: "Wheat", Date: day("2024-06-03"), Price: 2150},
	}
	q, args := buildInsert("agri.market_prices", rows, at)
	if !strings.HasPrefix(q, "INSERT INTO agri.market_prices (state, commodity, price_date, modal_price, ingested_at) VALUES ") {
		t.Fatalf("unexpected query %q", q)
	}
	if strings.Count(q, "(?, ?, ?, ?, ?)") != 2 {
		t.Fatalf("expected 2 value tuples: %q", q)
	}
	if len(args) != 10 {
		t.Fatalf("expected 10 args, got %d", len(args))
	}
	if args[3] != 2100.0 || args[9] != at {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestReversePoints(t *testing.T) {
	p := []models.PricePoint{{Price: 3}, {Price: 2}, {Price: 1}}
	reversePoints(p)
	for i, want := range []float64{1, 2, 3} {
		if p[i].Price != want {
			t.Fatalf("idx %d: got %v want %v", i, p[i].Price, want)
		}
	}
}

func TestPriceSchemaNamesDatabase(t *testing.T) {
	stmts := PriceSchema("agri")
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(stmts))
	}
	if !strings.Contains(stmts[1], "agri.market_prices") || !strings.Contains(stmts[1], "ReplacingMergeTree(ingested_at)") {
		t.Fatalf("unexpected ddl %q", stmts[1])
	}
}

type fakeProducer struct {
	topic  string
	msgs   []pkgkafka.Message
	err    error
	closed bool
}

func (f *fakeProducer) PublishBatch(_ context.Context, topic string, m []pkgkafka.Message) error {
	f.topic = topic
	f.msgs = append(f.msgs, m...)
	return f.err
}

func (f *fakeProducer) Close() error {
	f.closed = true
	return nil
}

func TestKafkaPricePublisherKeysBySeries(t *testing.T) {
	fp := &fakeProducer{}
	p := &KafkaPricePublisher{producer: fp, topic: "agri.market_prices"}
	rows := []models.PriceRow{{State: "Punjab", Commodity: "Wheat", Date: day("2024-06-01"), Price: 2100}}
	if err := p.PublishBatch(context.Background(), rows); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if fp.topic != "agri.market_prices" || len(fp.msgs) != 1 {
		t.Fatalf("unexpected publish topic=%s n=%d", fp.topic, len(fp.msgs))
	}
	if string(fp.msgs[0].Key) != "Punjab:Wheat" {
		t.Fatalf("key=%s", fp.msgs[0].Key)
	}
	m, ok := fp.msgs[0].Value.(models.PriceMessage)
	if !ok || m.PriceDate != "2024-06-01" || m.ModalPrice == nil || *m.ModalPrice != 2100 {
		t.Fatalf("unexpected value %#v", fp.msgs[0].Value)
	}
	if err := p.Close(); err != nil || !fp.closed {
		t.Fatalf("close: %v closed=%v", err, fp.closed)
	}
}

func TestKafkaPricePublisherEmptyAndError(t *testing.T) {
	fp := &fakeProducer{err: errors.New("broker down")}
	p := &KafkaPricePublisher{producer: fp, topic: "t"}
	if err := p.PublishBatch(context.Background(), nil); err != nil {
		t.Fatalf("empty batch should be a no-op: %v", err)
	}
	if fp.topic != "" {
		t.Fatalf("producer should not be called")
	}
	rows := []models.PriceRow{{State: "Punjab", Commodity: "Wheat", Date: day("2024-06-01"), Price: 1}}
	if err := p.PublishBatch(context.Background(), rows); err == nil {
		t.Fatalf("expected producer error")
	}
}
