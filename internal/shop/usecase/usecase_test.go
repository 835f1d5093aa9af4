package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/fekuna/omnipos-stock-sync/internal/model"
	"github.com/fekuna/omnipos-stock-sync/internal/shop"
	shopcache "github.com/fekuna/omnipos-stock-sync/internal/shop/cache"
	"github.com/fekuna/omnipos-stock-sync/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	shops   map[string]*model.Shop
	lookups int
	err     error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{shops: map[string]*model.Shop{}}
}

func (f *fakeRepo) GetByDomain(_ context.Context, domain string) (*model.Shop, error) {
	f.lookups++
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.shops[domain]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeRepo) ListAll(_ context.Context) ([]model.Shop, error) {
	out := make([]model.Shop, 0, len(f.shops))
	for _, s := range f.shops {
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeRepo) Create(_ context.Context, s *model.Shop) error {
	if _, ok := f.shops[s.Domain]; !ok {
		cp := *s
		f.shops[s.Domain] = &cp
	}
	return nil
}

func (f *fakeRepo) UpdateSettings(_ context.Context, s *model.Shop) error {
	cp := *s
	f.shops[s.Domain] = &cp
	return nil
}

func newUseCase(repo *fakeRepo) shop.UseCase {
	defaults := model.StockSettings{LowStockThresholdUnits: 10, SalesVelocityThreshold: 5}
	return NewShopUseCase(repo, shopcache.NewMemory(time.Hour, nil), defaults, logger.NewNop())
}

func TestGetByDomainUsesCache(t *testing.T) {
	repo := newFakeRepo()
	repo.shops["glow.myshopify.com"] = &model.Shop{BaseModel: model.BaseModel{ID: "s1"}, Domain: "glow.myshopify.com"}
	uc := newUseCase(repo)
	ctx := context.Background()

	s, err := uc.GetByDomain(ctx, " Glow.myshopify.com ")
	require.NoError(t, err)
	assert.Equal(t, "s1", s.ID)

	_, err = uc.GetByDomain(ctx, "glow.myshopify.com")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.lookups, "second lookup is served from cache")
}

func TestGetByDomainNotFound(t *testing.T) {
	uc := newUseCase(newFakeRepo())
	_, err := uc.GetByDomain(context.Background(), "nobody.myshopify.com")
	assert.ErrorIs(t, err, shop.ErrShopNotFound)
}

func TestGetByDomainWrapsRepoErrors(t *testing.T) {
	repo := newFakeRepo()
	repo.err = errors.New("connection refused")
	uc := newUseCase(repo)

	_, err := uc.GetByDomain(context.Background(), "glow.myshopify.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestRegisterAppliesDefaultsOnce(t *testing.T) {
	repo := newFakeRepo()
	uc := newUseCase(repo)
	ctx := context.Background()

	s, err := uc.Register(ctx, "glow.myshopify.com")
	require.NoError(t, err)
	assert.Equal(t, 10.0, s.LowStockThresholdUnits)

	again, err := uc.Register(ctx, "glow.myshopify.com")
	require.NoError(t, err)
	assert.Equal(t, s.ID, again.ID)
}

func TestRegisterRejectsForeignDomains(t *testing.T) {
	uc := newUseCase(newFakeRepo())
	_, err := uc.Register(context.Background(), "evil.example.com")
	assert.ErrorIs(t, err, shop.ErrInvalidDomain)
}

func TestUpdateSettingsInvalidatesCache(t *testing.T) {
	repo := newFakeRepo()
	repo.shops["glow.myshopify.com"] = &model.Shop{
		BaseModel:     model.BaseModel{ID: "s1"},
		Domain:        "glow.myshopify.com",
		StockSettings: model.StockSettings{LowStockThresholdUnits: 10},
	}
	uc := newUseCase(repo)
	ctx := context.Background()

	_, err := uc.GetByDomain(ctx, "glow.myshopify.com")
	require.NoError(t, err)

	_, err = uc.UpdateSettings(ctx, "glow.myshopify.com", model.StockSettings{LowStockThresholdUnits: 40})
	require.NoError(t, err)

	s, err := uc.GetByDomain(ctx, "glow.myshopify.com")
	require.NoError(t, err)
	assert.Equal(t, 40.0, s.LowStockThresholdUnits)
}

func TestUpdateSettingsValidation(t *testing.T) {
	repo := newFakeRepo()
	repo.shops["glow.myshopify.com"] = &model.Shop{Domain: "glow.myshopify.com"}
	uc := newUseCase(repo)
	ctx := context.Background()

	_, err := uc.UpdateSettings(ctx, "glow.myshopify.com", model.StockSettings{LowStockThresholdUnits: math.NaN()})
	assert.ErrorIs(t, err, shop.ErrInvalidSettings)

	_, err = uc.UpdateSettings(ctx, "glow.myshopify.com", model.StockSettings{LowStockThresholdUnits: -5})
	assert.NoError(t, err, "non-positive thresholds are clamped later, not rejected")

	_, err = uc.UpdateSettings(ctx, "nobody.myshopify.com", model.StockSettings{})
	assert.ErrorIs(t, err, shop.ErrShopNotFound)
}
