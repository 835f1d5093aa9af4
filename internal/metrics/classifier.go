// Package metrics holds the pure stock-health calculations: per-variant
// classification, whole-product recalculation and alert transition detection.
package metrics

import "github.com/fekuna/omnipos-stock-sync/internal/model"

// DefaultLowStockThreshold is the floor non-positive thresholds clamp to.
const DefaultLowStockThreshold = 1.0

// EffectiveThreshold clamps t to at least DefaultLowStockThreshold.
func EffectiveThreshold(t float64) float64 {
	if t < DefaultLowStockThreshold {
		return DefaultLowStockThreshold
	}
	return t
}

// ClassifyVariants returns the worst status across variants. A variant is
// Critical at or below half the effective threshold and Low at or below the
// threshold itself. Nil quantities count as zero. No variants means Unknown.
func ClassifyVariants(variants []model.Variant, lowStockThreshold float64) model.ProductStatus {
	if len(variants) == 0 {
		return model.StatusUnknown
	}

	threshold := EffectiveThreshold(lowStockThreshold)
	critical := threshold / 2

	status := model.StatusHealthy
	for _, v := range variants {
		qty := float64(quantityOf(v))
		if qty <= critical {
			return model.StatusCritical
		}
		if qty <= threshold {
			status = model.StatusLow
		}
	}
	return status
}

func quantityOf(v model.Variant) int64 {
	if v.InventoryQuantity == nil {
		return 0
	}
	return *v.InventoryQuantity
}
