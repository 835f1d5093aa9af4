package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fekuna/omnipos-stock-sync/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

const shopColumns = `id, domain, low_stock_threshold_units, critical_stock_threshold_units,
        critical_stockout_days, sales_velocity_threshold, created_at, updated_at`

func (r *PGRepository) GetByDomain(ctx context.Context, domain string) (*model.Shop, error) {
	var s model.Shop
	query := `SELECT ` + shopColumns + ` FROM shops WHERE domain = $1 LIMIT 1`
	err := r.DB.GetContext(ctx, &s, query, domain)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *PGRepository) ListAll(ctx context.Context) ([]model.Shop, error) {
	var shops []model.Shop
	query := `SELECT ` + shopColumns + ` FROM shops ORDER BY domain`
	if err := r.DB.SelectContext(ctx, &shops, query); err != nil {
		return nil, err
	}
	return shops, nil
}

func (r *PGRepository) Create(ctx context.Context, s *model.Shop) error {
	query := `
        INSERT INTO shops (
            id, domain, low_stock_threshold_units, critical_stock_threshold_units,
            critical_stockout_days, sales_velocity_threshold, created_at, updated_at
        )
        VALUES (
            :id, :domain, :low_stock_threshold_units, :critical_stock_threshold_units,
            :critical_stockout_days, :sales_velocity_threshold, :created_at, :updated_at
        )
        ON CONFLICT (domain) DO NOTHING
    `
	_, err := r.DB.NamedExecContext(ctx, query, s)
	return err
}

func (r *PGRepository) UpdateSettings(ctx context.Context, s *model.Shop) error {
	query := `
        UPDATE shops
        SET low_stock_threshold_units = :low_stock_threshold_units,
            critical_stock_threshold_units = :critical_stock_threshold_units,
            critical_stockout_days = :critical_stockout_days,
            sales_velocity_threshold = :sales_velocity_threshold,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := r.DB.NamedExecContext(ctx, query, s)
	return err
}
