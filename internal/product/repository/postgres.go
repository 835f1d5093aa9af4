package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-stock-sync/internal/model"
	"github.com/fekuna/omnipos-stock-sync/internal/product"
	"github.com/fekuna/omnipos-stock-sync/internal/product/dto"
	"github.com/fekuna/omnipos-stock-sync/pkg/database/postgres"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

const productColumns = `id, shop_id, shopify_product_id, title, vendor, category, tags,
        sales_velocity, trending, status, stockout_days, current_total_inventory,
        metrics_updated_at, created_at, updated_at`

const variantColumns = `id, product_id, shopify_variant_id, inventory_item_id, title, sku,
        inventory_quantity, created_at, updated_at`

func (r *PGRepository) FindByID(ctx context.Context, shopID, id string) (*model.Product, error) {
	var product model.Product
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND shop_id = $2 LIMIT 1`
	err := r.DB.GetContext(ctx, &product, query, id, shopID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	query = `SELECT ` + variantColumns + ` FROM variants WHERE product_id = $1 ORDER BY shopify_variant_id`
	if err := r.DB.SelectContext(ctx, &product.Variants, query, id); err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs keeps the order of ids and drops the ones that do not exist.
func (r *PGRepository) FindByIDs(ctx context.Context, shopID string, ids []string) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	query, args, err := sqlx.In(`SELECT `+productColumns+` FROM products WHERE shop_id = ? AND id IN (?)`, shopID, ids)
	if err != nil {
		return nil, err
	}

	var rows []model.Product
	if err := r.DB.SelectContext(ctx, &rows, r.DB.Rebind(query), args...); err != nil {
		return nil, err
	}

	byID := make(map[string]model.Product, len(rows))
	for _, p := range rows {
		byID[p.ID] = p
	}
	products := make([]model.Product, 0, len(rows))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			products = append(products, p)
		}
	}
	return products, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	var products []model.Product
	var count int

	conditions := []string{"shop_id = :shop_id"}
	args := map[string]interface{}{"shop_id": f.ShopID}

	if f.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = string(f.Status)
	}
	if f.Trending != nil {
		conditions = append(conditions, "trending = :trending")
		args["trending"] = *f.Trending
	}
	if f.SearchQuery != "" {
		conditions = append(conditions, `(title ILIKE :search OR vendor ILIKE :search
            OR EXISTS (SELECT 1 FROM variants v WHERE v.product_id = products.id AND v.sku ILIKE :search))`)
		args["search"] = "%" + f.SearchQuery + "%"
	}

	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	countQuery := "SELECT count(*) FROM products" + whereClause
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

	// Most urgent first: lowest stockout horizon, then smallest stock.
	query := "SELECT " + productColumns + " FROM products" + whereClause +
		" ORDER BY stockout_days ASC, current_total_inventory ASC, title ASC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	if err := nstmt.SelectContext(ctx, &products, args); err != nil {
		return nil, 0, err
	}
	return products, count, nil
}

func (r *PGRepository) ListIDs(ctx context.Context, shopID string) ([]string, error) {
	ids := []string{}
	if err := r.DB.SelectContext(ctx, &ids, `SELECT id FROM products WHERE shop_id = $1 ORDER BY id`, shopID); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *PGRepository) RunInTx(ctx context.Context, fn func(tx product.TxRepository) error) error {
	return postgres.WithTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		return fn(&txRepository{tx: tx})
	})
}

type txRepository struct {
	tx *sqlx.Tx
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

func (r *txRepository) UpdateMetrics(ctx context.Context, p *model.Product) error {
	_, err := r.tx.ExecContext(ctx, `
        UPDATE products
        SET trending = $1,
            status = $2,
            stockout_days = $3,
            current_total_inventory = $4,
            metrics_updated_at = $5
        WHERE id = $6
    `, p.Trending, string(p.Status), p.StockoutDays, p.CurrentTotalInventory, p.MetricsUpdatedAt, p.ID)
	return err
}
