package product

import (
	"context"
	"errors"
	"time"

	"github.com/fekuna/omnipos-stock-sync/internal/model"
	"github.com/fekuna/omnipos-stock-sync/internal/product/dto"
)

var ErrProductNotFound = errors.New("product not found")

type UseCase interface {
	GetProductMetrics(ctx context.Context, shopDomain, productID string) (*model.Product, error)
	ListProducts(ctx context.Context, shopDomain string, filters *dto.ProductFilters) ([]model.Product, int, error)

	// RecalculateShop recomputes every product of the shop from stored data.
	RecalculateShop(ctx context.Context, shopDomain string) dto.RecalculateResult
	RecalculateAllShops(ctx context.Context) []dto.RecalculateResult
}

// Locker guards bulk runs. *cache.RedisClient implements it.
type Locker interface {
	AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, value string) error
}

// Index is the search side of products.
type Index interface {
	IndexProduct(ctx context.Context, p *model.Product) error
	RemoveProduct(ctx context.Context, productID string) error
	// SearchIDs returns matching product ids in rank order and the total hit count.
	SearchIDs(ctx context.Context, filters *dto.ProductFilters) ([]string, int, error)
}
