package repository

import (
	"context"

	"TradeDeck/internal/domain/models"
	domrepo "TradeDeck/internal/domain/repository"
	pkgkafka "TradeDeck/pkg/kafka"
)

// KafkaBarPublisher publishes closed candles to a Kafka topic, keyed by
// symbol so bars for one symbol stay ordered within a partition.
type KafkaBarPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaBarPublisher(producer *pkgkafka.Producer, topic string) domrepo.BarPublisher {
	return &KafkaBarPublisher{producer: producer, topic: topic}
}

func barPayload(c *models.Candle) map[string]interface{} {
	return map[string]interface{}{
		"symbol":    c.Symbol,
		"timeframe": c.Timeframe,
		"bucket":    c.Bucket.Unix(),
		"o":         c.Open,
		"h":         c.High,
		"l":         c.Low,
		"c":         c.Close,
		"v":         c.Volume,
	}
}

func (p *KafkaBarPublisher) Publish(ctx context.Context, c *models.Candle) error {
	return p.producer.Publish(ctx, p.topic, []byte(c.Symbol), barPayload(c))
}

func (p *KafkaBarPublisher) PublishBatch(ctx context.Context, cs []*models.Candle) error {
	if len(cs) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(cs))
	for i, c := range cs {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(c.Symbol),
			Value: barPayload(c),
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaBarPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
