package model

import "time"

type Alert struct {
	ID             string        `db:"id" json:"id"`
	ShopID         string        `db:"shop_id" json:"shop_id"`
	ProductID      string        `db:"product_id" json:"product_id"`
	PreviousStatus ProductStatus `db:"previous_status" json:"previous_status"`
	Status         ProductStatus `db:"status" json:"status"`
	StockoutDays   *float64      `db:"stockout_days" json:"stockout_days"`
	Message        string        `db:"message" json:"message"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
}
