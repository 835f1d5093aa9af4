package usecase

import (
	"context"

	"github.com/fekuna/omnipos-stock-sync/internal/alert"
	"github.com/fekuna/omnipos-stock-sync/internal/alert/dto"
	"github.com/fekuna/omnipos-stock-sync/internal/model"
	"github.com/fekuna/omnipos-stock-sync/internal/shop"
)

type alertUseCase struct {
	repo  alert.Repository
	shops shop.UseCase
}

func NewAlertUseCase(repo alert.Repository, shops shop.UseCase) alert.UseCase {
	return &alertUseCase{repo: repo, shops: shops}
}

func (uc *alertUseCase) ListAlerts(ctx context.Context, shopDomain string, filters *dto.AlertFilters) ([]model.Alert, int, error) {
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
	return uc.repo.ListByShop(ctx, filters)
}
