package repository

import (
	"context"

	"AgriIntel/internal/domain/models"
	domrepo "AgriIntel/internal/domain/repository"
	pkgkafka "AgriIntel/pkg/kafka"
)

type batchProducer interface {
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// KafkaPricePublisher implements PricePublisher for Kafka.
type KafkaPricePublisher struct {
	producer batchProducer
	topic    string
}

func NewKafkaPricePublisher(producer *pkgkafka.Producer, topic string) *KafkaPricePublisher {
	return &KafkaPricePublisher{producer: producer, topic: topic}
}

// PublishBatch keys each message by state:commodity so one series stays on one partition.
func (p *KafkaPricePublisher) PublishBatch(ctx context.Context, rows []models.PriceRow) error {
	if len(rows) == 0 {
		return nil
	}
	return p.producer.PublishBatch(ctx, p.topic, priceMessages(rows))
}

func (p *KafkaPricePublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

func priceMessages(rows []models.PriceRow) []pkgkafka.Message {
	msgs := make([]pkgkafka.Message, len(rows))
	for i, r := range rows {
		key := models.SeriesKey{Region: r.State, Commodity: r.Commodity}
		msgs[i] = pkgkafka.Message{
			Key:   []byte(key.String()),
			Value: models.NewPriceMessage(r),
		}
	}
	return msgs
}

var _ domrepo.PricePublisher = (*KafkaPricePublisher)(nil)
