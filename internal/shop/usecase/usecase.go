package usecase

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/fekuna/omnipos-stock-sync/internal/model"
	"github.com/fekuna/omnipos-stock-sync/internal/shop"
	"github.com/fekuna/omnipos-stock-sync/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var shopDomainRe = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*\.myshopify\.com$`)

type shopUseCase struct {
	repo     shop.Repository
	cache    shop.SettingsCache
	defaults model.StockSettings
	logger   logger.ZapLogger
	now      func() time.Time
}

func NewShopUseCase(repo shop.Repository, cache shop.SettingsCache, defaults model.StockSettings, log logger.ZapLogger) shop.UseCase {
	return &shopUseCase{
		repo:     repo,
		cache:    cache,
		defaults: defaults,
		logger:   log,
		now:      time.Now,
	}
}

func NormalizeDomain(domain string) string {
	return strings.ToLower(strings.TrimSpace(domain))
}

func (uc *shopUseCase) GetByDomain(ctx context.Context, domain string) (*model.Shop, error) {
	domain = NormalizeDomain(domain)
	if s, ok := uc.cache.Get(ctx, domain); ok {
		return s, nil
	}

	s, err := uc.repo.GetByDomain(ctx, domain)
	if err != nil {
		return nil, fmt.Errorf("load shop %s: %w", domain, err)
	}
	if s == nil {
		return nil, shop.ErrShopNotFound
	}

	uc.cache.Put(ctx, s)
	return s, nil
}

func (uc *shopUseCase) ListShops(ctx context.Context) ([]model.Shop, error) {
	return uc.repo.ListAll(ctx)
}

func (uc *shopUseCase) Register(ctx context.Context, domain string) (*model.Shop, error) {
	domain = NormalizeDomain(domain)
	if !shopDomainRe.MatchString(domain) {
		return nil, shop.ErrInvalidDomain
	}

	now := uc.now()
	s := &model.Shop{
		BaseModel:     model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		Domain:        domain,
		StockSettings: uc.defaults,
	}
	if err := uc.repo.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("register shop %s: %w", domain, err)
	}

	// Create is a no-op for known domains, so read back the stored row.
	stored, err := uc.repo.GetByDomain(ctx, domain)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, shop.ErrShopNotFound
	}
	uc.logger.Info("Shop registered", zap.String("shop", domain), zap.String("shop_id", stored.ID))
	return stored, nil
}

func (uc *shopUseCase) UpdateSettings(ctx context.Context, domain string, settings model.StockSettings) (*model.Shop, error) {
	if err := validateSettings(settings); err != nil {
		return nil, err
	}

	domain = NormalizeDomain(domain)
	s, err := uc.repo.GetByDomain(ctx, domain)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, shop.ErrShopNotFound
	}

	s.StockSettings = settings
	s.UpdatedAt = uc.now()
	if err := uc.repo.UpdateSettings(ctx, s); err != nil {
		return nil, fmt.Errorf("update settings for %s: %w", domain, err)
	}

	uc.cache.Invalidate(ctx, domain)
	return s, nil
}

// Non-positive thresholds are legal; the calculations clamp them.
func validateSettings(s model.StockSettings) error {
	for _, v := range []float64{
		s.LowStockThresholdUnits,
		s.CriticalStockThresholdUnits,
		s.CriticalStockoutDays,
		s.SalesVelocityThreshold,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return shop.ErrInvalidSettings
		}
	}
	return nil
}
