package inventory

import (
	"context"

	"github.com/fekuna/omnipos-stock-sync/internal/inventory/dto"
	"github.com/fekuna/omnipos-stock-sync/internal/model"
)

type Repository interface {
	ProductExists(ctx context.Context, shopID, productID string) (bool, error)
	ListLevels(ctx context.Context, shopID, productID string) ([]dto.Level, error)

	// Movements / Audit
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error)
}
