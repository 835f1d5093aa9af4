package webhook

import (
	"context"

	"github.com/fekuna/omnipos-stock-sync/internal/model"
)

type Repository interface {
	// RunInTx hands fn a repository bound to a single transaction. A returned
	// error rolls back everything fn did.
	RunInTx(ctx context.Context, fn func(tx TxRepository) error) error
}

type TxRepository interface {
	// MarkProcessed records key for the shop and reports whether it was new.
	MarkProcessed(ctx context.Context, shopID, key string) (bool, error)

	FindWarehouseByLocation(ctx context.Context, shopID string, locationID int64) (*model.Warehouse, error)
	UpsertWarehouse(ctx context.Context, w *model.Warehouse) error

	FindVariantByInventoryItem(ctx context.Context, shopID string, inventoryItemID int64) (*model.Variant, error)
	GetInventoryLevel(ctx context.Context, variantID, warehouseID string) (*model.Inventory, error)
	UpsertInventoryLevel(ctx context.Context, inv *model.Inventory) error
	LogMovement(ctx context.Context, m *model.InventoryMovement) error
	// RefreshVariantTotal recomputes a variant's quantity from its location rows.
	RefreshVariantTotal(ctx context.Context, variantID string) error

	FindProductByShopifyID(ctx context.Context, shopID string, shopifyProductID int64) (*model.Product, error)
	// LockProduct loads the product with its variants and holds a row lock until commit.
	LockProduct(ctx context.Context, productID string) (*model.Product, error)
	UpsertProduct(ctx context.Context, p *model.Product) (string, error)
	// UpsertVariant only seeds inventory_quantity for variants without location rows.
	UpsertVariant(ctx context.Context, v *model.Variant) error
	DeleteVariantsNotIn(ctx context.Context, productID string, keepShopifyIDs []int64) error
	DeleteProduct(ctx context.Context, productID string) error
	UpdateMetrics(ctx context.Context, p *model.Product) error

	CreateAlert(ctx context.Context, a *model.Alert) error
}
