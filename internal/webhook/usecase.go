package webhook

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-stock-sync/internal/model"
	"github.com/fekuna/omnipos-stock-sync/internal/webhook/dto"
)

var (
	ErrUnsupportedTopic = errors.New("unsupported webhook topic")
	ErrInvalidPayload   = errors.New("invalid webhook payload")
)

// Outcome tells the transport how a delivery was handled. All three are acknowledged.
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeSkipped   Outcome = "skipped"
)

type UseCase interface {
	// Dispatch decodes body according to meta.Topic and runs the matching handler.
	Dispatch(ctx context.Context, meta dto.EventMeta, body []byte) (Outcome, error)

	HandleInventoryLevelUpdate(ctx context.Context, meta dto.EventMeta, p *dto.InventoryLevelPayload) (Outcome, error)
	HandleOrder(ctx context.Context, meta dto.EventMeta, p *dto.OrderPayload) (Outcome, error)
	HandleProductUpsert(ctx context.Context, meta dto.EventMeta, p *dto.ProductPayload) (Outcome, error)
	HandleProductDelete(ctx context.Context, meta dto.EventMeta, p *dto.ProductDeletePayload) (Outcome, error)
	HandleLocationUpsert(ctx context.Context, meta dto.EventMeta, p *dto.LocationPayload) (Outcome, error)
}

// AlertPublisher receives alerts after their transaction committed.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, alert *model.Alert) error
}

// ProductIndexer mirrors product metrics into the search index.
type ProductIndexer interface {
	IndexProduct(ctx context.Context, p *model.Product) error
	RemoveProduct(ctx context.Context, productID string) error
}
