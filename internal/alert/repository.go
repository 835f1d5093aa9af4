package alert

import (
	"context"

	"github.com/fekuna/omnipos-stock-sync/internal/alert/dto"
	"github.com/fekuna/omnipos-stock-sync/internal/model"
)

type Repository interface {
	ListByShop(ctx context.Context, filters *dto.AlertFilters) ([]model.Alert, int, error)
}
