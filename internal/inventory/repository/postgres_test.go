package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fekuna/omnipos-stock-sync/internal/inventory/dto"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*PGRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPGRepository(sqlx.NewDb(db, "pgx")), mock
}

func TestListLevels(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(`FROM inventory i JOIN variants v (.+) WHERE i.shop_id = \$1 AND i.product_id = \$2`).
		WithArgs("s1", "p1").
		WillReturnRows(sqlmock.NewRows([]string{
			"variant_id", "shopify_variant_id", "sku", "warehouse_id", "shopify_location_id",
			"warehouse_name", "quantity", "updated_at",
		}).
			AddRow("v1", int64(1), "S-30", "w1", int64(500), "Main", int64(4), now).
			AddRow("v1", int64(1), "S-30", "w2", int64(501), "Overflow", int64(6), now))

	levels, err := repo.ListLevels(context.Background(), "s1", "p1")
	require.NoError(t, err)
	require.Len(t, levels, 2)
	assert.Equal(t, "Overflow", levels[1].WarehouseName)
	assert.Equal(t, int64(6), levels[1].Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductExists(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("p1", "s1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.ProductExists(context.Background(), "s1", "p1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestListMovementsFilters(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT count\(\*\) FROM inventory_movements WHERE shop_id = \$1 AND product_id = \$2 AND movement_type = \$3`).
		WithArgs("s1", "p1", "level_sync").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectPrepare(`FROM inventory_movements WHERE (.+) ORDER BY created_at DESC LIMIT 50 OFFSET 0`).
		ExpectQuery().
		WithArgs("s1", "p1", "level_sync").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "shop_id", "product_id", "variant_id", "warehouse_id", "movement_type",
			"quantity_change", "quantity_before", "quantity_after", "reference_type", "reference_id", "created_at",
		}).AddRow("m1", "s1", "p1", "v1", "w1", "level_sync", int64(-2), int64(6), int64(4), "webhook", "wh-1", now))

	items, total, err := repo.ListMovements(context.Background(), &dto.MovementFilters{
		ShopID:       "s1",
		ProductID:    "p1",
		MovementType: "level_sync",
		Page:         1,
		PageSize:     50,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, int64(-2), items[0].QuantityChange)
	require.NotNil(t, items[0].ReferenceID)
	assert.Equal(t, "wh-1", *items[0].ReferenceID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
