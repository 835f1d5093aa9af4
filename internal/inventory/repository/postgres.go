package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-stock-sync/internal/inventory/dto"
	"github.com/fekuna/omnipos-stock-sync/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) ProductExists(ctx context.Context, shopID, productID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1 AND shop_id = $2)`
	if err := r.DB.GetContext(ctx, &exists, query, productID, shopID); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PGRepository) ListLevels(ctx context.Context, shopID, productID string) ([]dto.Level, error) {
	levels := []dto.Level{}
	query := `
        SELECT i.variant_id, v.shopify_variant_id, v.sku,
               i.warehouse_id, w.shopify_location_id, w.name AS warehouse_name,
               i.quantity, i.updated_at
        FROM inventory i
        JOIN variants v ON v.id = i.variant_id
        JOIN warehouses w ON w.id = i.warehouse_id
        WHERE i.shop_id = $1 AND i.product_id = $2
        ORDER BY v.shopify_variant_id, w.name
    `
	if err := r.DB.SelectContext(ctx, &levels, query, shopID, productID); err != nil {
		return nil, err
	}
	return levels, nil
}

func (r *PGRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	var items []model.InventoryMovement
	var count int

	conditions := []string{"shop_id = :shop_id"}
	args := map[string]interface{}{"shop_id": f.ShopID}

	if f.ProductID != "" {
		conditions = append(conditions, "product_id = :product_id")
		args["product_id"] = f.ProductID
	}
	if f.WarehouseID != "" {
		conditions = append(conditions, "warehouse_id = :warehouse_id")
		args["warehouse_id"] = f.WarehouseID
	}
	if f.MovementType != "" {
		conditions = append(conditions, "movement_type = :movement_type")
		args["movement_type"] = f.MovementType
	}

	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	countQuery := "SELECT count(*) FROM inventory_movements" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			rows.Close()
			return nil, 0, err
		}
	}
	rows.Close()

	query := `SELECT id, shop_id, product_id, variant_id, warehouse_id, movement_type,
        quantity_change, quantity_before, quantity_after, reference_type, reference_id, created_at
        FROM inventory_movements` + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &items, args)
	return items, count, err
}
