package model

import (
	"math"
	"time"
)

type Product struct {
	BaseModel
	ShopID                string        `db:"shop_id" json:"shop_id"`
	ShopifyProductID      int64         `db:"shopify_product_id" json:"shopify_product_id"`
	Title                 string        `db:"title" json:"title"`
	Vendor                string        `db:"vendor" json:"vendor"`
	Category              *string       `db:"category" json:"category"`
	Tags                  string        `db:"tags" json:"tags"`
	SalesVelocity         *float64      `db:"sales_velocity" json:"sales_velocity"` // units/day, nil = no data
	Trending              bool          `db:"trending" json:"trending"`
	Status                ProductStatus `db:"status" json:"status"`
	StockoutDays          float64       `db:"stockout_days" json:"-"` // +Inf = no projected stockout
	CurrentTotalInventory int64         `db:"current_total_inventory" json:"current_total_inventory"`
	MetricsUpdatedAt      *time.Time    `db:"metrics_updated_at" json:"metrics_updated_at"`
	Variants              []Variant     `db:"-" json:"variants"`
}

// StockoutDaysPtr returns nil for an infinite horizon so it survives JSON encoding.
func (p *Product) StockoutDaysPtr() *float64 {
	if math.IsInf(p.StockoutDays, 1) || math.IsNaN(p.StockoutDays) {
		return nil
	}
	d := p.StockoutDays
	return &d
}

type Variant struct {
	BaseModel
	ProductID         string `db:"product_id" json:"product_id"`
	ShopifyVariantID  int64  `db:"shopify_variant_id" json:"shopify_variant_id"`
	InventoryItemID   int64  `db:"inventory_item_id" json:"inventory_item_id"`
	Title             string `db:"title" json:"title"`
	SKU               string `db:"sku" json:"sku"`
	InventoryQuantity *int64 `db:"inventory_quantity" json:"inventory_quantity"` // nil = unknown

	// Health is the variant on its own against the shop's low threshold.
	// Only set on single-product reads.
	Health ProductStatus `db:"-" json:"health,omitempty"`
}
