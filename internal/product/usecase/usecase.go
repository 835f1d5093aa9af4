package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-stock-sync/internal/metrics"
	"github.com/fekuna/omnipos-stock-sync/internal/model"
	"github.com/fekuna/omnipos-stock-sync/internal/product"
	"github.com/fekuna/omnipos-stock-sync/internal/product/dto"
	"github.com/fekuna/omnipos-stock-sync/internal/shop"
	"github.com/fekuna/omnipos-stock-sync/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type productUseCase struct {
	repo    product.Repository
	shops   shop.UseCase
	locker  product.Locker // optional
	index   product.Index  // optional
	lockTTL time.Duration
	logger  logger.ZapLogger
	now     func() time.Time
}

func NewProductUseCase(repo product.Repository, shops shop.UseCase, locker product.Locker, index product.Index, lockTTL time.Duration, log logger.ZapLogger) product.UseCase {
	return &productUseCase{
		repo:    repo,
		shops:   shops,
		locker:  locker,
		index:   index,
		lockTTL: lockTTL,
		logger:  log,
		now:     time.Now,
	}
}

func (uc *productUseCase) GetProductMetrics(ctx context.Context, shopDomain, productID string) (*model.Product, error) {
	s, err := uc.shops.GetByDomain(ctx, shopDomain)
	if err != nil {
		return nil, err
	}

	p, err := uc.repo.FindByID(ctx, s.ID, productID)
	if err != nil {
		return nil, fmt.Errorf("load product %s: %w", productID, err)
	}
	if p == nil {
		return nil, product.ErrProductNotFound
	}

	for i := range p.Variants {
		p.Variants[i].Health = metrics.ClassifyVariants(p.Variants[i:i+1], s.LowStockThresholdUnits)
	}
	return p, nil
}

func (uc *productUseCase) ListProducts(ctx context.Context, shopDomain string, filters *dto.ProductFilters) ([]model.Product, int, error) {
	s, err := uc.shops.GetByDomain(ctx, shopDomain)
	if err != nil {
		return nil, 0, err
	}
	filters.ShopID = s.ID
	filters.Normalize()

	if filters.SearchQuery != "" && uc.index != nil {
		ids, total, err := uc.index.SearchIDs(ctx, filters)
		if err == nil {
			// The index only ranks; metrics come from the database.
			products, err := uc.repo.FindByIDs(ctx, s.ID, ids)
			if err != nil {
				return nil, 0, err
			}
			return products, total, nil
		}
		uc.logger.Error("ES search failed, falling back to DB", zap.Error(err))
	}

	return uc.repo.FindAll(ctx, filters)
}

func (uc *productUseCase) RecalculateShop(ctx context.Context, shopDomain string) dto.RecalculateResult {
	res := dto.RecalculateResult{Shop: shopDomain}

	s, err := uc.shops.GetByDomain(ctx, shopDomain)
	if err != nil {
		if errors.Is(err, shop.ErrShopNotFound) {
			res.Message = fmt.Sprintf("shop %s not found", shopDomain)
		} else {
			res.Message = err.Error()
		}
		return res
	}
	res.Shop = s.Domain

	if uc.locker != nil {
		key := "recalculate:lock:" + s.ID
		token := uuid.New().String()
		acquired, err := uc.locker.AcquireLock(ctx, key, token, uc.lockTTL)
		if err != nil {
			res.Message = err.Error()
			return res
		}
		if !acquired {
			res.Message = fmt.Sprintf("recalculation already in progress for %s", s.Domain)
			return res
		}
		defer func() {
			if err := uc.locker.ReleaseLock(context.Background(), key, token); err != nil {
				uc.logger.Warn("failed to release recalculation lock", zap.String("shop", s.Domain), zap.Error(err))
			}
		}()
	}

	ids, err := uc.repo.ListIDs(ctx, s.ID)
	if err != nil {
		res.Message = err.Error()
		return res
	}

	// One short transaction per product: webhooks touching the same product
	// wait on its row lock instead of being overwritten by a stale read.
	now := uc.now()
	updated := make([]model.Product, 0, len(ids))
	for _, id := range ids {
		var recomputed *model.Product
		err := uc.repo.RunInTx(ctx, func(tx product.TxRepository) error {
			p, err := tx.LockProduct(ctx, id)
			if err != nil || p == nil {
				return err
			}
			metrics.Apply(p, metrics.Recalculate(p, s.StockSettings))
			p.Trending = metrics.IsTrending(p.SalesVelocity, s.SalesVelocityThreshold)
			p.MetricsUpdatedAt = &now
			if err := tx.UpdateMetrics(ctx, p); err != nil {
				return err
			}
			recomputed = p
			return nil
		})
		if err != nil {
			res.Message = err.Error()
			res.UpdatedCount = len(updated)
			uc.reindexAsync(updated)
			return res
		}
		if recomputed != nil {
			updated = append(updated, *recomputed)
		}
	}

	uc.reindexAsync(updated)

	uc.logger.Info("Shop metrics recalculated", zap.String("shop", s.Domain), zap.Int("products", len(updated)))
	res.Success = true
	res.UpdatedCount = len(updated)
	res.Message = fmt.Sprintf("recalculated %d products", len(updated))
	return res
}

func (uc *productUseCase) RecalculateAllShops(ctx context.Context) []dto.RecalculateResult {
	shops, err := uc.shops.ListShops(ctx)
	if err != nil {
		uc.logger.Error("failed to list shops for recalculation", zap.Error(err))
		return nil
	}

	results := make([]dto.RecalculateResult, 0, len(shops))
	for _, s := range shops {
		if ctx.Err() != nil {
			break
		}
		res := uc.RecalculateShop(ctx, s.Domain)
		if !res.Success {
			uc.logger.Warn("Shop recalculation failed", zap.String("shop", s.Domain), zap.String("message", res.Message))
		}
		results = append(results, res)
	}
	return results
}

func (uc *productUseCase) reindexAsync(products []model.Product) {
	if uc.index != nil && len(products) > 0 {
		go uc.reindex(products)
	}
}

func (uc *productUseCase) reindex(products []model.Product) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	for i := range products {
		if err := uc.index.IndexProduct(ctx, &products[i]); err != nil {
			uc.logger.Error("failed to index product", zap.String("product_id", products[i].ID), zap.Error(err))
		}
	}
}
