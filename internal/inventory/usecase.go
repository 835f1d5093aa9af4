package inventory

import (
	"context"

	"github.com/fekuna/omnipos-stock-sync/internal/inventory/dto"
	"github.com/fekuna/omnipos-stock-sync/internal/model"
)

type UseCase interface {
	GetProductInventory(ctx context.Context, shopDomain, productID string) ([]dto.Level, error)
	ListMovements(ctx context.Context, shopDomain string, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error)
}
