package repository

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fekuna/omnipos-stock-sync/internal/model"
	"github.com/fekuna/omnipos-stock-sync/internal/product"
	"github.com/fekuna/omnipos-stock-sync/internal/product/dto"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productCols = []string{
	"id", "shop_id", "shopify_product_id", "title", "vendor", "category", "tags",
	"sales_velocity", "trending", "status", "stockout_days", "current_total_inventory",
	"metrics_updated_at", "created_at", "updated_at",
}

var variantCols = []string{
	"id", "product_id", "shopify_variant_id", "inventory_item_id", "title", "sku",
	"inventory_quantity", "created_at", "updated_at",
}

func newMockRepo(t *testing.T) (*PGRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPGRepository(sqlx.NewDb(db, "pgx")), mock
}

func productRow(rows *sqlmock.Rows, id, title string, status model.ProductStatus, days float64, total int64) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(id, "s1", int64(100), title, "Glow", nil, "", nil, false, string(status), days, total, nil, now, now)
}

func TestFindByIDLoadsVariants(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT (.+) FROM products WHERE id = \$1 AND shop_id = \$2`).
		WithArgs("p1", "s1").
		WillReturnRows(productRow(sqlmock.NewRows(productCols), "p1", "Serum", model.StatusLow, math.Inf(1), 8))
	mock.ExpectQuery(`SELECT (.+) FROM variants WHERE product_id = \$1`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(variantCols).
			AddRow("v1", "p1", int64(1), int64(11), "30ml", "S-30", int64(8), now, now))

	p, err := repo.FindByID(context.Background(), "s1", "p1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, model.StatusLow, p.Status)
	assert.Nil(t, p.StockoutDaysPtr())
	require.Len(t, p.Variants, 1)
	assert.Equal(t, "S-30", p.Variants[0].SKU)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDOtherShop(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT (.+) FROM products WHERE id = \$1 AND shop_id = \$2`).
		WithArgs("p1", "s2").
		WillReturnRows(sqlmock.NewRows(productCols))

	p, err := repo.FindByID(context.Background(), "s2", "p1")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestFindByIDsKeepsRankOrder(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows(productCols)
	productRow(rows, "a", "Alpha", model.StatusHealthy, 40, 50)
	productRow(rows, "c", "Gamma", model.StatusCritical, 1, 1)

	mock.ExpectQuery(`SELECT (.+) FROM products WHERE shop_id = \$1 AND id IN \(\$2, \$3, \$4\)`).
		WithArgs("s1", "c", "b", "a").
		WillReturnRows(rows)

	products, err := repo.FindByIDs(context.Background(), "s1", []string{"c", "b", "a"})
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "c", products[0].ID)
	assert.Equal(t, "a", products[1].ID)
}

func TestFindAllFilters(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM products WHERE shop_id = \$1 AND status = \$2`).
		WithArgs("s1", "Critical").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectPrepare(`SELECT (.+) FROM products WHERE shop_id = \$1 AND status = \$2 ORDER BY stockout_days ASC(.+) LIMIT 2 OFFSET 2`).
		ExpectQuery().
		WithArgs("s1", "Critical").
		WillReturnRows(productRow(sqlmock.NewRows(productCols), "p3", "Toner", model.StatusCritical, 0.5, 1))

	products, total, err := repo.FindAll(context.Background(), &dto.ProductFilters{
		ShopID:   "s1",
		Status:   model.StatusCritical,
		Page:     2,
		PageSize: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, products, 1)
	assert.Equal(t, "Toner", products[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListIDs(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT id FROM products WHERE shop_id = \$1 ORDER BY id`).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("p1").AddRow("p2"))

	ids, err := repo.ListIDs(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecomputeReadsAfterBeginUnderLock(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.MatchExpectationsInOrder(true)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM products WHERE id = \$1 FOR UPDATE`).
		WithArgs("p1").
		WillReturnRows(productRow(sqlmock.NewRows(productCols), "p1", "Serum", model.StatusHealthy, math.Inf(1), 30))
	mock.ExpectQuery(`SELECT (.+) FROM variants WHERE product_id = \$1`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(variantCols).
			AddRow("v1", "p1", int64(1), int64(11), "30ml", "S-30", int64(4), now, now))
	mock.ExpectExec(`UPDATE products SET trending = \$1, status = \$2, stockout_days = \$3, current_total_inventory = \$4, metrics_updated_at = \$5 WHERE id = \$6`).
		WithArgs(false, "Critical", 2.0, int64(4), sqlmock.AnyArg(), "p1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.RunInTx(context.Background(), func(tx product.TxRepository) error {
		p, err := tx.LockProduct(context.Background(), "p1")
		require.NoError(t, err)
		require.NotNil(t, p)
		require.Len(t, p.Variants, 1)

		p.Status = model.StatusCritical
		p.StockoutDays = 2
		p.CurrentTotalInventory = 4
		p.MetricsUpdatedAt = &now
		return tx.UpdateMetrics(context.Background(), p)
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockProductGone(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM products WHERE id = \$1 FOR UPDATE`).
		WithArgs("p9").
		WillReturnRows(sqlmock.NewRows(productCols))
	mock.ExpectCommit()

	err := repo.RunInTx(context.Background(), func(tx product.TxRepository) error {
		p, err := tx.LockProduct(context.Background(), "p9")
		assert.Nil(t, p)
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInTxRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE products`).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.RunInTx(context.Background(), func(tx product.TxRepository) error {
		return tx.UpdateMetrics(context.Background(), &model.Product{BaseModel: model.BaseModel{ID: "p1"}})
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}
