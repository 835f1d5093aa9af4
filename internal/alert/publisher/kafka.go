package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fekuna/omnipos-stock-sync/internal/alert/dto"
	"github.com/fekuna/omnipos-stock-sync/internal/model"
)

// Producer is satisfied by *broker.KafkaProducer.
type Producer interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// KafkaPublisher keys messages by product so a product's alerts stay ordered.
type KafkaPublisher struct {
	producer Producer
}

func NewKafkaPublisher(producer Producer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

func (p *KafkaPublisher) PublishAlert(ctx context.Context, a *model.Alert) error {
	event := dto.AlertEvent{
		EventID:   a.ID,
		EventType: dto.EventTypeStockStatusChanged,
		Payload:   *a,
		Timestamp: a.CreatedAt,
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal alert %s: %w", a.ID, err)
	}
	return p.producer.Publish(ctx, a.ProductID, value)
}
