package product

import (
	"context"

	"github.com/fekuna/omnipos-stock-sync/internal/model"
	"github.com/fekuna/omnipos-stock-sync/internal/product/dto"
)

type Repository interface {
	// FindByID returns the product with its variants, or nil when it does not
	// belong to the shop.
	FindByID(ctx context.Context, shopID, id string) (*model.Product, error)
	FindByIDs(ctx context.Context, shopID string, ids []string) ([]model.Product, error)
	FindAll(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)

	// ListIDs returns the ids of every product of the shop, ordered by id.
	ListIDs(ctx context.Context, shopID string) ([]string, error)

	// RunInTx hands fn a repository bound to a single transaction.
	RunInTx(ctx context.Context, fn func(tx TxRepository) error) error
}

// TxRepository is what a bulk recompute needs inside one product's transaction.
type TxRepository interface {
	// LockProduct loads the product with its variants under a row lock, or
	// nil when it no longer exists.
	LockProduct(ctx context.Context, productID string) (*model.Product, error)
	// UpdateMetrics writes the derived fields. Sales velocity is left alone.
	UpdateMetrics(ctx context.Context, p *model.Product) error
}
