package alert

import (
	"context"

	"github.com/fekuna/omnipos-stock-sync/internal/alert/dto"
	"github.com/fekuna/omnipos-stock-sync/internal/model"
)

type UseCase interface {
	ListAlerts(ctx context.Context, shopDomain string, filters *dto.AlertFilters) ([]model.Alert, int, error)
}
