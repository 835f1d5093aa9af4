package model

// StockSettings are the per-shop thresholds the metrics are computed against.
type StockSettings struct {
	LowStockThresholdUnits      float64 `db:"low_stock_threshold_units" json:"low_stock_threshold_units"`
	CriticalStockThresholdUnits float64 `db:"critical_stock_threshold_units" json:"critical_stock_threshold_units"` // 0 = half of low
	CriticalStockoutDays        float64 `db:"critical_stockout_days" json:"critical_stockout_days"`                 // 0 = disabled
	SalesVelocityThreshold      float64 `db:"sales_velocity_threshold" json:"sales_velocity_threshold"`
}

type Shop struct {
	BaseModel
	Domain string `db:"domain" json:"domain"` // xxx.myshopify.com
	StockSettings
}
