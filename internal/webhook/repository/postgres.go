package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fekuna/omnipos-stock-sync/internal/model"
	"github.com/fekuna/omnipos-stock-sync/internal/webhook"
	"github.com/fekuna/omnipos-stock-sync/pkg/database/postgres"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) RunInTx(ctx context.Context, fn func(tx webhook.TxRepository) error) error {
	return postgres.WithTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		return fn(&txRepository{tx: tx})
	})
}

type txRepository struct {
	tx *sqlx.Tx
}

const productColumns = `id, shop_id, shopify_product_id, title, vendor, category, tags,
        sales_velocity, trending, status, stockout_days, current_total_inventory,
        metrics_updated_at, created_at, updated_at`

const variantColumns = `id, product_id, shopify_variant_id, inventory_item_id, title, sku,
        inventory_quantity, created_at, updated_at`

func (r *txRepository) MarkProcessed(ctx context.Context, shopID, key string) (bool, error) {
	res, err := r.tx.ExecContext(ctx, `
        INSERT INTO processed_events (shop_id, event_key, processed_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (shop_id, event_key) DO NOTHING
    `, shopID, key)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *txRepository) FindWarehouseByLocation(ctx context.Context, shopID string, locationID int64) (*model.Warehouse, error) {
	var w model.Warehouse
	query := `SELECT id, shop_id, shopify_location_id, name, active, created_at, updated_at
        FROM warehouses WHERE shop_id = $1 AND shopify_location_id = $2`
	if err := r.tx.GetContext(ctx, &w, query, shopID, locationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &w, nil
}

func (r *txRepository) UpsertWarehouse(ctx context.Context, w *model.Warehouse) error {
	query := `
        INSERT INTO warehouses (id, shop_id, shopify_location_id, name, active, created_at, updated_at)
        VALUES (:id, :shop_id, :shopify_location_id, :name, :active, :created_at, :updated_at)
        ON CONFLICT (shop_id, shopify_location_id)
        DO UPDATE SET
            name = EXCLUDED.name,
            active = EXCLUDED.active,
            updated_at = EXCLUDED.updated_at
    `
	_, err := r.tx.NamedExecContext(ctx, query, w)
	return err
}

func (r *txRepository) FindVariantByInventoryItem(ctx context.Context, shopID string, inventoryItemID int64) (*model.Variant, error) {
	var v model.Variant
	query := `
        SELECT v.id, v.product_id, v.shopify_variant_id, v.inventory_item_id, v.title, v.sku,
               v.inventory_quantity, v.created_at, v.updated_at
        FROM variants v
        JOIN products p ON p.id = v.product_id
        WHERE p.shop_id = $1 AND v.inventory_item_id = $2
        LIMIT 1
    `
	if err := r.tx.GetContext(ctx, &v, query, shopID, inventoryItemID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

func (r *txRepository) GetInventoryLevel(ctx context.Context, variantID, warehouseID string) (*model.Inventory, error) {
	var inv model.Inventory
	query := `SELECT id, shop_id, product_id, variant_id, warehouse_id, quantity, updated_at
        FROM inventory WHERE variant_id = $1 AND warehouse_id = $2 FOR UPDATE`
	if err := r.tx.GetContext(ctx, &inv, query, variantID, warehouseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &inv, nil
}

func (r *txRepository) UpsertInventoryLevel(ctx context.Context, inv *model.Inventory) error {
	query := `
        INSERT INTO inventory (id, shop_id, product_id, variant_id, warehouse_id, quantity, updated_at)
        VALUES (:id, :shop_id, :product_id, :variant_id, :warehouse_id, :quantity, :updated_at)
        ON CONFLICT (variant_id, warehouse_id)
        DO UPDATE SET
            quantity = EXCLUDED.quantity,
            updated_at = EXCLUDED.updated_at
    `
	_, err := r.tx.NamedExecContext(ctx, query, inv)
	return err
}

func (r *txRepository) LogMovement(ctx context.Context, m *model.InventoryMovement) error {
	query := `
        INSERT INTO inventory_movements (
            id, shop_id, product_id, variant_id, warehouse_id, movement_type,
            quantity_change, quantity_before, quantity_after,
            reference_type, reference_id, created_at
        )
        VALUES (
            :id, :shop_id, :product_id, :variant_id, :warehouse_id, :movement_type,
            :quantity_change, :quantity_before, :quantity_after,
            :reference_type, :reference_id, :created_at
        )
    `
	_, err := r.tx.NamedExecContext(ctx, query, m)
	return err
}

func (r *txRepository) RefreshVariantTotal(ctx context.Context, variantID string) error {
	_, err := r.tx.ExecContext(ctx, `
        UPDATE variants
        SET inventory_quantity = (SELECT COALESCE(SUM(quantity), 0) FROM inventory WHERE variant_id = $1),
            updated_at = NOW()
        WHERE id = $1
    `, variantID)
	return err
}

func (r *txRepository) FindProductByShopifyID(ctx context.Context, shopID string, shopifyProductID int64) (*model.Product, error) {
	var p model.Product
	query := `SELECT ` + productColumns + ` FROM products WHERE shop_id = $1 AND shopify_product_id = $2`
	if err := r.tx.GetContext(ctx, &p, query, shopID, shopifyProductID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *txRepository) LockProduct(ctx context.Context, productID string) (*model.Product, error) {
	var p model.Product
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`
	if err := r.tx.GetContext(ctx, &p, query, productID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	query = `SELECT ` + variantColumns + ` FROM variants WHERE product_id = $1 ORDER BY shopify_variant_id`
	if err := r.tx.SelectContext(ctx, &p.Variants, query, productID); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *txRepository) UpsertProduct(ctx context.Context, p *model.Product) (string, error) {
	var id string
	err := r.tx.QueryRowxContext(ctx, `
        INSERT INTO products (
            id, shop_id, shopify_product_id, title, vendor, category, tags,
            trending, status, stockout_days, current_total_inventory, created_at, updated_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8, 'Infinity', 0, $9, $10)
        ON CONFLICT (shop_id, shopify_product_id)
        DO UPDATE SET
            title = EXCLUDED.title,
            vendor = EXCLUDED.vendor,
            category = EXCLUDED.category,
            tags = EXCLUDED.tags,
            updated_at = EXCLUDED.updated_at
        RETURNING id
    `, p.ID, p.ShopID, p.ShopifyProductID, p.Title, p.Vendor, p.Category, p.Tags,
		p.Status, p.CreatedAt, p.UpdatedAt).Scan(&id)
	return id, err
}

func (r *txRepository) UpsertVariant(ctx context.Context, v *model.Variant) error {
	// Once a variant has per-location rows those own the quantity, and the
	// catalogue's inventory_quantity is ignored.
	query := `
        INSERT INTO variants (
            id, product_id, shopify_variant_id, inventory_item_id, title, sku,
            inventory_quantity, created_at, updated_at
        )
        VALUES (
            :id, :product_id, :shopify_variant_id, :inventory_item_id, :title, :sku,
            :inventory_quantity, :created_at, :updated_at
        )
        ON CONFLICT (product_id, shopify_variant_id)
        DO UPDATE SET
            inventory_item_id = EXCLUDED.inventory_item_id,
            title = EXCLUDED.title,
            sku = EXCLUDED.sku,
            inventory_quantity = CASE
                WHEN EXISTS (SELECT 1 FROM inventory i WHERE i.variant_id = variants.id)
                THEN variants.inventory_quantity
                ELSE EXCLUDED.inventory_quantity
            END,
            updated_at = EXCLUDED.updated_at
    `
	_, err := r.tx.NamedExecContext(ctx, query, v)
	return err
}

func (r *txRepository) DeleteVariantsNotIn(ctx context.Context, productID string, keepShopifyIDs []int64) error {
	if len(keepShopifyIDs) == 0 {
		_, err := r.tx.ExecContext(ctx, `DELETE FROM variants WHERE product_id = $1`, productID)
		return err
	}

	query, args, err := sqlx.In(`
        DELETE FROM variants
        WHERE product_id = ? AND shopify_variant_id NOT IN (?)
    `, productID, keepShopifyIDs)
	if err != nil {
		return err
	}
	_, err = r.tx.ExecContext(ctx, r.tx.Rebind(query), args...)
	return err
}

func (r *txRepository) DeleteProduct(ctx context.Context, productID string) error {
	// variants, inventory, movements and alerts cascade
	_, err := r.tx.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, productID)
	return err
}

func (r *txRepository) UpdateMetrics(ctx context.Context, p *model.Product) error {
	query := `
        UPDATE products
        SET sales_velocity = :sales_velocity,
            trending = :trending,
            status = :status,
            stockout_days = :stockout_days,
            current_total_inventory = :current_total_inventory,
            metrics_updated_at = :metrics_updated_at
        WHERE id = :id
    `
	_, err := r.tx.NamedExecContext(ctx, query, p)
	return err
}

func (r *txRepository) CreateAlert(ctx context.Context, a *model.Alert) error {
	query := `
        INSERT INTO alerts (id, shop_id, product_id, previous_status, status, stockout_days, message, created_at)
        VALUES (:id, :shop_id, :product_id, :previous_status, :status, :stockout_days, :message, :created_at)
    `
	_, err := r.tx.NamedExecContext(ctx, query, a)
	return err
}
