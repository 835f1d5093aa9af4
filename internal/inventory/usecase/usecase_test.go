package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/fekuna/omnipos-stock-sync/internal/inventory/dto"
	"github.com/fekuna/omnipos-stock-sync/internal/model"
	"github.com/fekuna/omnipos-stock-sync/internal/product"
	"github.com/fekuna/omnipos-stock-sync/internal/shop"
	"github.com/fekuna/omnipos-stock-sync/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type stubShops struct {
	shop.UseCase
}

func (stubShops) GetByDomain(_ context.Context, domain string) (*model.Shop, error) {
	if domain != "glow.myshopify.com" {
		return nil, shop.ErrShopNotFound
	}
	return &model.Shop{BaseModel: model.BaseModel{ID: "s1"}, Domain: domain}, nil
}

type stubRepo struct {
	exists  bool
	levels  []dto.Level
	err     error
	filters *dto.MovementFilters
}

func (r *stubRepo) ProductExists(context.Context, string, string) (bool, error) {
	return r.exists, r.err
}

func (r *stubRepo) ListLevels(context.Context, string, string) ([]dto.Level, error) {
	return r.levels, nil
}

func (r *stubRepo) ListMovements(_ context.Context, f *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	r.filters = f
	if r.err != nil {
		return nil, 0, r.err
	}
	return []model.InventoryMovement{{ID: "m1"}}, 1, nil
}

func TestGetProductInventory(t *testing.T) {
	repo := &stubRepo{exists: true, levels: []dto.Level{{SKU: "S-30", Quantity: 4}}}
	uc := NewInventoryUseCase(repo, stubShops{}, logger.NewNop())

	levels, err := uc.GetProductInventory(context.Background(), "glow.myshopify.com", "p1")
	require.NoError(t, err)
	assert.Equal(t, repo.levels, levels)

	repo.exists = false
	_, err = uc.GetProductInventory(context.Background(), "glow.myshopify.com", "p1")
	assert.ErrorIs(t, err, product.ErrProductNotFound)

	_, err = uc.GetProductInventory(context.Background(), "ghost.myshopify.com", "p1")
	assert.ErrorIs(t, err, shop.ErrShopNotFound)
}

func TestInventoryStorageFailuresAreLogged(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	repo := &stubRepo{err: errors.New("db down")}
	uc := NewInventoryUseCase(repo, stubShops{}, logger.FromZap(zap.New(core)))

	_, err := uc.GetProductInventory(context.Background(), "glow.myshopify.com", "p1")
	require.Error(t, err)
	_, _, err = uc.ListMovements(context.Background(), "glow.myshopify.com", &dto.MovementFilters{ProductID: "p1"})
	require.Error(t, err)

	checked := logs.FilterMessage("Failed to check product").All()
	require.Len(t, checked, 1)
	assert.Equal(t, "glow.myshopify.com", checked[0].ContextMap()["shop"])
	assert.Equal(t, "p1", checked[0].ContextMap()["product_id"])

	listed := logs.FilterMessage("Failed to list inventory movements").All()
	require.Len(t, listed, 1)
	assert.Equal(t, "p1", listed[0].ContextMap()["product_id"])
}

func TestListMovementsScopesAndClampsPaging(t *testing.T) {
	repo := &stubRepo{}
	uc := NewInventoryUseCase(repo, stubShops{}, logger.NewNop())

	got, total, err := uc.ListMovements(context.Background(), "glow.myshopify.com", &dto.MovementFilters{ShopID: "other", PageSize: 500})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "s1", repo.filters.ShopID)
	assert.Equal(t, 1, repo.filters.Page)
	assert.Equal(t, 50, repo.filters.PageSize)
}
