package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fekuna/omnipos-stock-sync/internal/model"
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

func TestGetByDomain(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	rows := sqlmock.NewRows([]string{
		"id", "domain", "low_stock_threshold_units", "critical_stock_threshold_units",
		"critical_stockout_days", "sales_velocity_threshold", "created_at", "updated_at",
	}).AddRow("s1", "glow.myshopify.com", 20.0, 10.0, 0.0, 3.0, now, now)

	mock.ExpectQuery(`SELECT (.+) FROM shops WHERE domain = \$1`).
		WithArgs("glow.myshopify.com").
		WillReturnRows(rows)

	s, err := repo.GetByDomain(context.Background(), "glow.myshopify.com")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "s1", s.ID)
	assert.Equal(t, 20.0, s.LowStockThresholdUnits)
	assert.Equal(t, 3.0, s.SalesVelocityThreshold)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByDomainNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT (.+) FROM shops WHERE domain = \$1`).
		WithArgs("missing.myshopify.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	s, err := repo.GetByDomain(context.Background(), "missing.myshopify.com")
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestCreateIsIdempotent(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`INSERT INTO shops (.+) ON CONFLICT \(domain\) DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &model.Shop{
		BaseModel: model.BaseModel{ID: "s1"},
		Domain:    "glow.myshopify.com",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
