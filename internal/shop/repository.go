package shop

import (
	"context"

	"github.com/fekuna/omnipos-stock-sync/internal/model"
)

type Repository interface {
	// GetByDomain returns nil, nil when the shop is not registered.
	GetByDomain(ctx context.Context, domain string) (*model.Shop, error)
	ListAll(ctx context.Context) ([]model.Shop, error)

	// Create inserts the shop unless the domain already exists.
	Create(ctx context.Context, shop *model.Shop) error
	UpdateSettings(ctx context.Context, shop *model.Shop) error
}
