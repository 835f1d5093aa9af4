package dto

import (
	"time"

	"github.com/fekuna/omnipos-stock-sync/internal/model"
)

type ProductFilters struct {
	ShopID      string              `json:"shop_id"`
	Status      model.ProductStatus `json:"status,omitempty"`
	Trending    *bool               `json:"trending,omitempty"`
	SearchQuery string              `json:"q,omitempty"` // title, vendor, sku
	Page        int                 `json:"page"`
	PageSize    int                 `json:"page_size"`
}

// Normalize fills in paging defaults.
func (f *ProductFilters) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = 20
	}
	if f.PageSize > 100 {
		f.PageSize = 100
	}
}

// RecalculateResult reports a bulk recompute. Failures are carried in Message
// rather than returned as errors.
type RecalculateResult struct {
	Shop         string `json:"shop"`
	Success      bool   `json:"success"`
	UpdatedCount int    `json:"updated_count"`
	Message      string `json:"message"`
}

// MetricsView is the dashboard shape of a product. StockoutDays is null when
// the product is not projected to run out.
type MetricsView struct {
	ID                    string              `json:"id"`
	ShopifyProductID      int64               `json:"shopify_product_id"`
	Title                 string              `json:"title"`
	Vendor                string              `json:"vendor"`
	Category              *string             `json:"category"`
	Status                model.ProductStatus `json:"status"`
	StockoutDays          *float64            `json:"stockout_days"`
	CurrentTotalInventory int64               `json:"current_total_inventory"`
	SalesVelocity         *float64            `json:"sales_velocity"`
	Trending              bool                `json:"trending"`
	MetricsUpdatedAt      *time.Time          `json:"metrics_updated_at"`
	Variants              []model.Variant     `json:"variants,omitempty"`
}

func NewMetricsView(p *model.Product) MetricsView {
	return MetricsView{
		ID:                    p.ID,
		ShopifyProductID:      p.ShopifyProductID,
		Title:                 p.Title,
		Vendor:                p.Vendor,
		Category:              p.Category,
		Status:                p.Status,
		StockoutDays:          p.StockoutDaysPtr(),
		CurrentTotalInventory: p.CurrentTotalInventory,
		SalesVelocity:         p.SalesVelocity,
		Trending:              p.Trending,
		MetricsUpdatedAt:      p.MetricsUpdatedAt,
		Variants:              p.Variants,
	}
}
