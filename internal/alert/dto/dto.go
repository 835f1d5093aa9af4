package dto

import (
	"time"

	"github.com/fekuna/omnipos-stock-sync/internal/model"
)

type AlertFilters struct {
	ShopID    string
	ProductID string
	Status    model.ProductStatus
	Since     *time.Time
	Page      int
	PageSize  int
}

// AlertEvent is the message published for every stored alert.
type AlertEvent struct {
	EventID   string      `json:"event_id"`
	EventType string      `json:"event_type"`
	Payload   model.Alert `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

const EventTypeStockStatusChanged = "StockStatusChanged"
