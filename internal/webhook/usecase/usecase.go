package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/fekuna/omnipos-stock-sync/internal/metrics"
	"github.com/fekuna/omnipos-stock-sync/internal/model"
	"github.com/fekuna/omnipos-stock-sync/internal/shop"
	"github.com/fekuna/omnipos-stock-sync/internal/webhook"
	"github.com/fekuna/omnipos-stock-sync/internal/webhook/dto"
	"github.com/fekuna/omnipos-stock-sync/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const sideEffectTimeout = 10 * time.Second

type webhookUseCase struct {
	repo    webhook.Repository
	shops   shop.UseCase
	alerts  webhook.AlertPublisher // optional
	indexer webhook.ProductIndexer // optional
	logger  logger.ZapLogger
	now     func() time.Time
}

func NewWebhookUseCase(repo webhook.Repository, shops shop.UseCase, alerts webhook.AlertPublisher, indexer webhook.ProductIndexer, log logger.ZapLogger) webhook.UseCase {
	return &webhookUseCase{
		repo:    repo,
		shops:   shops,
		alerts:  alerts,
		indexer: indexer,
		logger:  log,
		now:     time.Now,
	}
}

// effects collects what to do once the transaction has committed.
type effects struct {
	alerts  []model.Alert
	indexed []model.Product
	removed []string
}

func (uc *webhookUseCase) Dispatch(ctx context.Context, meta dto.EventMeta, body []byte) (webhook.Outcome, error) {
	switch meta.Topic {
	case dto.TopicInventoryLevelsUpdate:
		var p dto.InventoryLevelPayload
		if err := decode(body, &p); err != nil {
			return "", err
		}
		return uc.HandleInventoryLevelUpdate(ctx, meta, &p)

	case dto.TopicOrdersCreate, dto.TopicOrdersPaid:
		var p dto.OrderPayload
		if err := decode(body, &p); err != nil {
			return "", err
		}
		return uc.HandleOrder(ctx, meta, &p)

	case dto.TopicProductsCreate, dto.TopicProductsUpdate:
		var p dto.ProductPayload
		if err := decode(body, &p); err != nil {
			return "", err
		}
		return uc.HandleProductUpsert(ctx, meta, &p)

	case dto.TopicProductsDelete:
		var p dto.ProductDeletePayload
		if err := decode(body, &p); err != nil {
			return "", err
		}
		return uc.HandleProductDelete(ctx, meta, &p)

	case dto.TopicLocationsCreate, dto.TopicLocationsUpdate:
		var p dto.LocationPayload
		if err := decode(body, &p); err != nil {
			return "", err
		}
		return uc.HandleLocationUpsert(ctx, meta, &p)
	}
	return "", fmt.Errorf("%w: %q", webhook.ErrUnsupportedTopic, meta.Topic)
}

func decode(body []byte, v interface{}) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", webhook.ErrInvalidPayload, err)
	}
	return nil
}

func (uc *webhookUseCase) HandleInventoryLevelUpdate(ctx context.Context, meta dto.EventMeta, p *dto.InventoryLevelPayload) (webhook.Outcome, error) {
	log := uc.eventLogger(meta).With(
		zap.Int64("inventory_item_id", p.InventoryItemID),
		zap.Int64("location_id", p.LocationID),
	)
	if p.Available == nil {
		log.Debug("Inventory level without available quantity, item is not tracked")
		return webhook.OutcomeSkipped, nil
	}

	s, err := uc.resolveShop(ctx, meta)
	if s == nil || err != nil {
		return webhook.OutcomeSkipped, err
	}

	var fx effects
	outcome := webhook.OutcomeApplied
	err = uc.repo.RunInTx(ctx, func(tx webhook.TxRepository) error {
		if fresh, err := uc.claim(ctx, tx, s.ID, meta); err != nil || !fresh {
			outcome = webhook.OutcomeDuplicate
			return err
		}

		variant, err := tx.FindVariantByInventoryItem(ctx, s.ID, p.InventoryItemID)
		if err != nil {
			return err
		}
		if variant == nil {
			log.Warn("Inventory level for unknown variant, skipping")
			outcome = webhook.OutcomeSkipped
			return nil
		}

		warehouse, err := tx.FindWarehouseByLocation(ctx, s.ID, p.LocationID)
		if err != nil {
			return err
		}
		if warehouse == nil {
			log.Warn("Inventory level for unknown warehouse, skipping")
			outcome = webhook.OutcomeSkipped
			return nil
		}

		current, err := tx.GetInventoryLevel(ctx, variant.ID, warehouse.ID)
		if err != nil {
			return err
		}

		now := uc.now()
		level := &model.Inventory{
			ID:          uuid.New().String(),
			ShopID:      s.ID,
			ProductID:   variant.ProductID,
			VariantID:   variant.ID,
			WarehouseID: warehouse.ID,
			Quantity:    *p.Available,
			UpdatedAt:   now,
		}
		var before int64
		if current != nil {
			level.ID = current.ID
			before = current.Quantity
		}

		if err := tx.UpsertInventoryLevel(ctx, level); err != nil {
			return fmt.Errorf("upsert inventory level: %w", err)
		}

		if current == nil || before != level.Quantity {
			refType := "webhook"
			refID := meta.WebhookID
			if err := tx.LogMovement(ctx, &model.InventoryMovement{
				ID:             uuid.New().String(),
				ShopID:         s.ID,
				ProductID:      variant.ProductID,
				VariantID:      variant.ID,
				WarehouseID:    warehouse.ID,
				MovementType:   model.MovementTypeLevelSync,
				QuantityChange: level.Quantity - before,
				QuantityBefore: before,
				QuantityAfter:  level.Quantity,
				ReferenceType:  &refType,
				ReferenceID:    &refID,
				CreatedAt:      now,
			}); err != nil {
				return fmt.Errorf("log movement: %w", err)
			}
		}

		if err := tx.RefreshVariantTotal(ctx, variant.ID); err != nil {
			return fmt.Errorf("refresh variant total: %w", err)
		}

		product, err := tx.LockProduct(ctx, variant.ProductID)
		if err != nil || product == nil {
			return err
		}
		return uc.recompute(ctx, tx, s, product, &fx)
	})
	if err != nil {
		return "", err
	}

	uc.runEffects(fx)
	return outcome, nil
}

// HandleOrder adds each line item's quantity/30 to its product's velocity.
// orders/create and orders/paid share the order id as dedupe key, so an
// order is counted once whichever arrives first.
func (uc *webhookUseCase) HandleOrder(ctx context.Context, meta dto.EventMeta, p *dto.OrderPayload) (webhook.Outcome, error) {
	log := uc.eventLogger(meta).With(zap.Int64("order_id", p.ID))
	if p.ID == 0 {
		return "", fmt.Errorf("%w: order without id", webhook.ErrInvalidPayload)
	}
	if p.CancelledAt != nil {
		log.Debug("Cancelled order does not count towards velocity")
		return webhook.OutcomeSkipped, nil
	}

	units := map[int64]int64{}
	for _, item := range p.LineItems {
		if item.ProductID == nil || item.Quantity <= 0 {
			continue
		}
		units[*item.ProductID] += item.Quantity
	}
	if len(units) == 0 {
		return webhook.OutcomeSkipped, nil
	}

	// Lock products in a stable order so concurrent orders cannot deadlock.
	productIDs := make([]int64, 0, len(units))
	for id := range units {
		productIDs = append(productIDs, id)
	}
	sort.Slice(productIDs, func(i, j int) bool { return productIDs[i] < productIDs[j] })

	s, err := uc.resolveShop(ctx, meta)
	if s == nil || err != nil {
		return webhook.OutcomeSkipped, err
	}

	var fx effects
	outcome := webhook.OutcomeApplied
	err = uc.repo.RunInTx(ctx, func(tx webhook.TxRepository) error {
		if fresh, err := uc.claim(ctx, tx, s.ID, meta); err != nil || !fresh {
			outcome = webhook.OutcomeDuplicate
			return err
		}
		fresh, err := tx.MarkProcessed(ctx, s.ID, fmt.Sprintf("order:%d", p.ID))
		if err != nil {
			return err
		}
		if !fresh {
			log.Debug("Order already counted")
			outcome = webhook.OutcomeDuplicate
			return nil
		}

		touched := 0
		for _, shopifyID := range productIDs {
			found, err := tx.FindProductByShopifyID(ctx, s.ID, shopifyID)
			if err != nil {
				return err
			}
			if found == nil {
				log.Warn("Order line for unknown product, skipping", zap.Int64("shopify_product_id", shopifyID))
				continue
			}

			product, err := tx.LockProduct(ctx, found.ID)
			if err != nil {
				return err
			}
			if product == nil {
				continue
			}

			product.SalesVelocity = metrics.AddOrderedUnits(product.SalesVelocity, units[shopifyID])
			product.Trending = metrics.IsTrending(product.SalesVelocity, s.SalesVelocityThreshold)
			if err := uc.recompute(ctx, tx, s, product, &fx); err != nil {
				return err
			}
			touched++
		}
		if touched == 0 {
			outcome = webhook.OutcomeSkipped
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	uc.runEffects(fx)
	return outcome, nil
}

func (uc *webhookUseCase) HandleProductUpsert(ctx context.Context, meta dto.EventMeta, p *dto.ProductPayload) (webhook.Outcome, error) {
	if p.ID == 0 {
		return "", fmt.Errorf("%w: product without id", webhook.ErrInvalidPayload)
	}

	s, err := uc.resolveShop(ctx, meta)
	if s == nil || err != nil {
		return webhook.OutcomeSkipped, err
	}

	var fx effects
	outcome := webhook.OutcomeApplied
	err = uc.repo.RunInTx(ctx, func(tx webhook.TxRepository) error {
		if fresh, err := uc.claim(ctx, tx, s.ID, meta); err != nil || !fresh {
			outcome = webhook.OutcomeDuplicate
			return err
		}

		now := uc.now()
		product := &model.Product{
			BaseModel:        model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
			ShopID:           s.ID,
			ShopifyProductID: p.ID,
			Title:            p.Title,
			Vendor:           p.Vendor,
			Tags:             p.Tags,
			Status:           model.StatusUnknown,
		}
		if p.ProductType != "" {
			category := p.ProductType
			product.Category = &category
		}

		productID, err := tx.UpsertProduct(ctx, product)
		if err != nil {
			return fmt.Errorf("upsert product: %w", err)
		}

		keep := make([]int64, 0, len(p.Variants))
		for _, v := range p.Variants {
			if err := tx.UpsertVariant(ctx, &model.Variant{
				BaseModel:         model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
				ProductID:         productID,
				ShopifyVariantID:  v.ID,
				InventoryItemID:   v.InventoryItemID,
				Title:             v.Title,
				SKU:               v.SKU,
				InventoryQuantity: v.InventoryQuantity,
			}); err != nil {
				return fmt.Errorf("upsert variant %d: %w", v.ID, err)
			}
			keep = append(keep, v.ID)
		}
		if err := tx.DeleteVariantsNotIn(ctx, productID, keep); err != nil {
			return fmt.Errorf("prune variants: %w", err)
		}

		locked, err := tx.LockProduct(ctx, productID)
		if err != nil || locked == nil {
			return err
		}
		return uc.recompute(ctx, tx, s, locked, &fx)
	})
	if err != nil {
		return "", err
	}

	uc.runEffects(fx)
	return outcome, nil
}

func (uc *webhookUseCase) HandleProductDelete(ctx context.Context, meta dto.EventMeta, p *dto.ProductDeletePayload) (webhook.Outcome, error) {
	if p.ID == 0 {
		return "", fmt.Errorf("%w: product without id", webhook.ErrInvalidPayload)
	}

	log := uc.eventLogger(meta).With(zap.Int64("shopify_product_id", p.ID))

	s, err := uc.resolveShop(ctx, meta)
	if s == nil || err != nil {
		return webhook.OutcomeSkipped, err
	}

	var fx effects
	outcome := webhook.OutcomeApplied
	err = uc.repo.RunInTx(ctx, func(tx webhook.TxRepository) error {
		if fresh, err := uc.claim(ctx, tx, s.ID, meta); err != nil || !fresh {
			outcome = webhook.OutcomeDuplicate
			return err
		}

		existing, err := tx.FindProductByShopifyID(ctx, s.ID, p.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			log.Info("Delete for unknown product, nothing to do")
			outcome = webhook.OutcomeSkipped
			return nil
		}

		if err := tx.DeleteProduct(ctx, existing.ID); err != nil {
			return fmt.Errorf("delete product: %w", err)
		}
		fx.removed = append(fx.removed, existing.ID)
		return nil
	})
	if err != nil {
		return "", err
	}

	uc.runEffects(fx)
	return outcome, nil
}

func (uc *webhookUseCase) HandleLocationUpsert(ctx context.Context, meta dto.EventMeta, p *dto.LocationPayload) (webhook.Outcome, error) {
	if p.ID == 0 {
		return "", fmt.Errorf("%w: location without id", webhook.ErrInvalidPayload)
	}

	s, err := uc.resolveShop(ctx, meta)
	if s == nil || err != nil {
		return webhook.OutcomeSkipped, err
	}

	outcome := webhook.OutcomeApplied
	err = uc.repo.RunInTx(ctx, func(tx webhook.TxRepository) error {
		if fresh, err := uc.claim(ctx, tx, s.ID, meta); err != nil || !fresh {
			outcome = webhook.OutcomeDuplicate
			return err
		}

		now := uc.now()
		return tx.UpsertWarehouse(ctx, &model.Warehouse{
			BaseModel:         model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
			ShopID:            s.ID,
			ShopifyLocationID: p.ID,
			Name:              p.Name,
			Active:            p.Active,
		})
	})
	if err != nil {
		return "", err
	}
	return outcome, nil
}

// recompute runs the metrics over a locked product, persists them and raises
// an alert when the status got worse.
func (uc *webhookUseCase) recompute(ctx context.Context, tx webhook.TxRepository, s *model.Shop, p *model.Product, fx *effects) error {
	previous := p.Status
	result := metrics.Recalculate(p, s.StockSettings)
	metrics.Apply(p, result)

	now := uc.now()
	p.MetricsUpdatedAt = &now
	if err := tx.UpdateMetrics(ctx, p); err != nil {
		return fmt.Errorf("update product metrics: %w", err)
	}
	fx.indexed = append(fx.indexed, *p)

	if !metrics.ShouldAlert(previous, result.Status) {
		return nil
	}

	alert := model.Alert{
		ID:             uuid.New().String(),
		ShopID:         s.ID,
		ProductID:      p.ID,
		PreviousStatus: previous,
		Status:         result.Status,
		StockoutDays:   p.StockoutDaysPtr(),
		Message:        alertMessage(p),
		CreatedAt:      now,
	}
	if err := tx.CreateAlert(ctx, &alert); err != nil {
		return fmt.Errorf("create alert: %w", err)
	}
	fx.alerts = append(fx.alerts, alert)
	return nil
}

func alertMessage(p *model.Product) string {
	msg := fmt.Sprintf("%s is %s: %d units left", p.Title, p.Status, p.CurrentTotalInventory)
	if d := p.StockoutDaysPtr(); d != nil {
		msg += fmt.Sprintf(", about %.1f days of stock", *d)
	}
	return msg
}

// claim marks the delivery as processed. Deliveries without an id cannot be
// deduplicated and are always treated as fresh.
func (uc *webhookUseCase) claim(ctx context.Context, tx webhook.TxRepository, shopID string, meta dto.EventMeta) (bool, error) {
	if meta.WebhookID == "" {
		return true, nil
	}
	fresh, err := tx.MarkProcessed(ctx, shopID, "webhook:"+meta.WebhookID)
	if err != nil {
		return false, fmt.Errorf("mark webhook processed: %w", err)
	}
	if !fresh {
		uc.eventLogger(meta).Debug("Duplicate webhook delivery")
	}
	return fresh, nil
}

// resolveShop returns nil without error for shops that are not registered.
func (uc *webhookUseCase) resolveShop(ctx context.Context, meta dto.EventMeta) (*model.Shop, error) {
	s, err := uc.shops.GetByDomain(ctx, meta.ShopDomain)
	if err != nil {
		if errors.Is(err, shop.ErrShopNotFound) {
			uc.eventLogger(meta).Warn("Webhook for unregistered shop, skipping")
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

func (uc *webhookUseCase) eventLogger(meta dto.EventMeta) logger.ZapLogger {
	return uc.logger.With(
		zap.String("topic", meta.Topic),
		zap.String("shop", meta.ShopDomain),
		zap.String("webhook_id", meta.WebhookID),
	)
}

// runEffects publishes alerts and refreshes the search index in the
// background. Failures are logged; the database already holds the truth.
func (uc *webhookUseCase) runEffects(fx effects) {
	if len(fx.alerts) == 0 && len(fx.indexed) == 0 && len(fx.removed) == 0 {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
		defer cancel()

		if uc.alerts != nil {
			for i := range fx.alerts {
				if err := uc.alerts.PublishAlert(ctx, &fx.alerts[i]); err != nil {
					uc.logger.Error("failed to publish alert", zap.String("alert_id", fx.alerts[i].ID), zap.Error(err))
				}
			}
		}

		if uc.indexer == nil {
			return
		}
		for i := range fx.indexed {
			if err := uc.indexer.IndexProduct(ctx, &fx.indexed[i]); err != nil {
				uc.logger.Error("failed to index product", zap.String("product_id", fx.indexed[i].ID), zap.Error(err))
			}
		}
		for _, id := range fx.removed {
			if err := uc.indexer.RemoveProduct(ctx, id); err != nil {
				uc.logger.Error("failed to remove product from index", zap.String("product_id", id), zap.Error(err))
			}
		}
	}()
}
