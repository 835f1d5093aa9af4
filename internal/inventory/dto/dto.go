package dto

import "time"

// Level is one variant's quantity at one warehouse.
type Level struct {
	VariantID         string    `db:"variant_id" json:"variant_id"`
	ShopifyVariantID  int64     `db:"shopify_variant_id" json:"shopify_variant_id"`
	SKU               string    `db:"sku" json:"sku"`
	WarehouseID       string    `db:"warehouse_id" json:"warehouse_id"`
	ShopifyLocationID int64     `db:"shopify_location_id" json:"shopify_location_id"`
	WarehouseName     string    `db:"warehouse_name" json:"warehouse_name"`
	Quantity          int64     `db:"quantity" json:"quantity"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

type MovementFilters struct {
	ShopID       string
	ProductID    string
	WarehouseID  string
	MovementType string
	Page         int
	PageSize     int
}
