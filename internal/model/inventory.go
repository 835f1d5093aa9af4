package model

import "time"

type Warehouse struct {
	BaseModel
	ShopID            string `db:"shop_id" json:"shop_id"`
	ShopifyLocationID int64  `db:"shopify_location_id" json:"shopify_location_id"`
	Name              string `db:"name" json:"name"`
	Active            bool   `db:"active" json:"active"`
}

// Inventory is the quantity of one variant at one warehouse. These rows are
// the source of truth; Variant.InventoryQuantity is derived from them.
type Inventory struct {
	ID          string    `db:"id" json:"id"`
	ShopID      string    `db:"shop_id" json:"shop_id"`
	ProductID   string    `db:"product_id" json:"product_id"`
	VariantID   string    `db:"variant_id" json:"variant_id"`
	WarehouseID string    `db:"warehouse_id" json:"warehouse_id"`
	Quantity    int64     `db:"quantity" json:"quantity"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

type InventoryMovement struct {
	ID             string    `db:"id" json:"id"`
	ShopID         string    `db:"shop_id" json:"shop_id"`
	ProductID      string    `db:"product_id" json:"product_id"`
	VariantID      string    `db:"variant_id" json:"variant_id"`
	WarehouseID    string    `db:"warehouse_id" json:"warehouse_id"`
	MovementType   string    `db:"movement_type" json:"movement_type"`
	QuantityChange int64     `db:"quantity_change" json:"quantity_change"`
	QuantityBefore int64     `db:"quantity_before" json:"quantity_before"`
	QuantityAfter  int64     `db:"quantity_after" json:"quantity_after"`
	ReferenceType  *string   `db:"reference_type" json:"reference_type"`
	ReferenceID    *string   `db:"reference_id" json:"reference_id"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

const MovementTypeLevelSync = "level_sync"
