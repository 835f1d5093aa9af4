package metrics

import (
	"math"

	"github.com/fekuna/omnipos-stock-sync/internal/model"
)

// VelocityWindowDays is the trailing window each order line is spread over
// when it is added to a product's sales velocity.
const VelocityWindowDays = 30

type Result struct {
	CurrentTotalInventory int64
	StockoutDays          float64 // +Inf when nothing is selling
	Status                model.ProductStatus
}

// Recalculate computes the product's total inventory, stockout horizon and
// status. Status is judged on the aggregated total, not per variant.
func Recalculate(p *model.Product, s model.StockSettings) Result {
	var total int64
	for _, v := range p.Variants {
		total += quantityOf(v)
	}

	days := StockoutDays(total, p.SalesVelocity)

	return Result{
		CurrentTotalInventory: total,
		StockoutDays:          days,
		Status:                totalStatus(len(p.Variants), total, days, s),
	}
}

// StockoutDays projects total/velocity. Zero, negative or missing velocity never runs out.
func StockoutDays(total int64, velocity *float64) float64 {
	if velocity == nil || *velocity <= 0 {
		return math.Inf(1)
	}
	return float64(total) / *velocity
}

// CriticalLimit is the unit count at or below which a product is Critical.
func CriticalLimit(s model.StockSettings) float64 {
	low := EffectiveThreshold(s.LowStockThresholdUnits)
	if s.CriticalStockThresholdUnits <= 0 {
		return low / 2
	}
	return math.Min(s.CriticalStockThresholdUnits, low)
}

func totalStatus(variantCount int, total int64, days float64, s model.StockSettings) model.ProductStatus {
	if variantCount == 0 {
		return model.StatusUnknown
	}

	qty := float64(total)
	switch {
	case qty <= CriticalLimit(s):
		return model.StatusCritical
	case s.CriticalStockoutDays > 0 && days <= s.CriticalStockoutDays:
		return model.StatusCritical
	case qty <= EffectiveThreshold(s.LowStockThresholdUnits):
		return model.StatusLow
	default:
		return model.StatusHealthy
	}
}

// Apply copies r onto p. It is the only place product status gets written.
func Apply(p *model.Product, r Result) {
	p.CurrentTotalInventory = r.CurrentTotalInventory
	p.StockoutDays = r.StockoutDays
	p.Status = r.Status
}

// AddOrderedUnits adds quantity/VelocityWindowDays to the running velocity.
// This is an estimate and drifts without a periodic reconciliation.
func AddOrderedUnits(velocity *float64, quantity int64) *float64 {
	v := 0.0
	if velocity != nil {
		v = *velocity
	}
	v += float64(quantity) / VelocityWindowDays
	return &v
}

func IsTrending(velocity *float64, threshold float64) bool {
	return velocity != nil && *velocity > threshold
}

// ShouldAlert reports whether moving from prev to next warrants an alert:
// next must be Low or Critical and strictly worse than prev.
func ShouldAlert(prev, next model.ProductStatus) bool {
	if next != model.StatusLow && next != model.StatusCritical {
		return false
	}
	return next.Severity() > prev.Severity()
}
