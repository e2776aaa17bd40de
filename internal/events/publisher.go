package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"blisse/internal/logger"
	"blisse/internal/models"
)

// Topic carries product lifecycle events emitted by the sync service and
// consumed by the enrichment worker.
const Topic = "product-events"

const TypeProductSynced = "product.synced"

// Event is the wire format on the product-events topic.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	ProductID int64     `json:"product_id"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
}

type Publisher struct {
	writer *kafka.Writer
	logger *logger.Logger
}

func NewPublisher(brokers string, log *logger.Logger) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers),
			Topic:        Topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 100 * time.Millisecond,
		},
		logger: log,
	}
}

func (p *Publisher) PublishProductSynced(ctx context.Context, product *models.Product) error {
	event := Event{
		ID:        uuid.New().String(),
		Type:      TypeProductSynced,
		ProductID: product.ID,
		Name:      product.Name,
		Timestamp: time.Now(),
	}

	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Type),
		Value: value,
	})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
