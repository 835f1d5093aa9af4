package shop

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-stock-sync/internal/model"
)

var (
	ErrShopNotFound    = errors.New("shop not found")
	ErrInvalidSettings = errors.New("invalid stock settings")
	ErrInvalidDomain   = errors.New("invalid shop domain")
)

type UseCase interface {
	GetByDomain(ctx context.Context, domain string) (*model.Shop, error)
	ListShops(ctx context.Context) ([]model.Shop, error)
	Register(ctx context.Context, domain string) (*model.Shop, error)
	UpdateSettings(ctx context.Context, domain string, settings model.StockSettings) (*model.Shop, error)
}

// SettingsCache fronts shop lookups. Implementations must be safe for concurrent use.
type SettingsCache interface {
	Get(ctx context.Context, domain string) (*model.Shop, bool)
	Put(ctx context.Context, shop *model.Shop)
	Invalidate(ctx context.Context, domain string)
}
