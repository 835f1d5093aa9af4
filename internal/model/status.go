package model

import "strings"

// ProductStatus is the stock health of a product.
type ProductStatus string

const (
	StatusUnknown  ProductStatus = "Unknown"
	StatusHealthy  ProductStatus = "Healthy"
	StatusLow      ProductStatus = "Low"
	StatusCritical ProductStatus = "Critical"
)

// Severity orders statuses from least to most severe.
func (s ProductStatus) Severity() int {
	switch s {
	case StatusHealthy:
		return 1
	case StatusLow:
		return 2
	case StatusCritical:
		return 3
	default:
		return 0
	}
}

func (s ProductStatus) Valid() bool {
	switch s {
	case StatusUnknown, StatusHealthy, StatusLow, StatusCritical:
		return true
	}
	return false
}

// ParseProductStatus maps external and legacy names onto the canonical set.
// "OK" is Healthy and "OutOfStock" is Critical. Anything unrecognised is Unknown.
func ParseProductStatus(raw string) ProductStatus {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(raw), "_", "")) {
	case "healthy", "ok":
		return StatusHealthy
	case "low", "lowstock":
		return StatusLow
	case "critical", "outofstock":
		return StatusCritical
	default:
		return StatusUnknown
	}
}
