package usecase

import (
	"context"
	"fmt"

	"github.com/fekuna/omnipos-stock-sync/internal/inventory"
	"github.com/fekuna/omnipos-stock-sync/internal/inventory/dto"
	"github.com/fekuna/omnipos-stock-sync/internal/model"
	"github.com/fekuna/omnipos-stock-sync/internal/product"
	"github.com/fekuna/omnipos-stock-sync/internal/shop"
	"github.com/fekuna/omnipos-stock-sync/pkg/logger"
	"go.uber.org/zap"
)

type inventoryUseCase struct {
	repo   inventory.Repository
	shops  shop.UseCase
	logger logger.ZapLogger
}

func NewInventoryUseCase(repo inventory.Repository, shops shop.UseCase, log logger.ZapLogger) inventory.UseCase {
	return &inventoryUseCase{
		repo:   repo,
		shops:  shops,
		logger: log,
	}
}

func (uc *inventoryUseCase) GetProductInventory(ctx context.Context, shopDomain, productID string) ([]dto.Level, error) {
	s, err := uc.shops.GetByDomain(ctx, shopDomain)
	if err != nil {
		return nil, err
	}

	log := uc.logger.With(zap.String("shop", s.Domain), zap.String("product_id", productID))

	exists, err := uc.repo.ProductExists(ctx, s.ID, productID)
	if err != nil {
		log.Error("Failed to check product", zap.Error(err))
		return nil, fmt.Errorf("check product %s: %w", productID, err)
	}
	if !exists {
		log.Debug("Inventory requested for unknown product")
		return nil, product.ErrProductNotFound
	}

	levels, err := uc.repo.ListLevels(ctx, s.ID, productID)
	if err != nil {
		log.Error("Failed to list inventory levels", zap.Error(err))
		return nil, fmt.Errorf("list levels for %s: %w", productID, err)
	}
	return levels, nil
}

func (uc *inventoryUseCase) ListMovements(ctx context.Context, shopDomain string, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	s, err := uc.shops.GetByDomain(ctx, shopDomain)
	if err != nil {
		return nil, 0, err
	}

	filters.ShopID = s.ID
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 || filters.PageSize > 100 {
		filters.PageSize = 50
	}
	movements, total, err := uc.repo.ListMovements(ctx, filters)
	if err != nil {
		uc.logger.Error("Failed to list inventory movements",
			zap.String("shop", s.Domain),
			zap.String("product_id", filters.ProductID),
			zap.String("warehouse_id", filters.WarehouseID),
			zap.Error(err),
		)
		return nil, 0, fmt.Errorf("list movements: %w", err)
	}
	return movements, total, nil
}
