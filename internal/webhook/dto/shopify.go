package dto

import (
	"encoding/json"
	"time"
)

// Shopify webhook topics handled by the service.
const (
	TopicInventoryLevelsUpdate = "inventory_levels/update"
	TopicOrdersCreate          = "orders/create"
	TopicOrdersPaid            = "orders/paid"
	TopicProductsCreate        = "products/create"
	TopicProductsUpdate        = "products/update"
	TopicProductsDelete        = "products/delete"
	TopicLocationsCreate       = "locations/create"
	TopicLocationsUpdate       = "locations/update"
)

// EventMeta is what Shopify puts in the delivery headers.
type EventMeta struct {
	Topic      string `json:"topic"`
	ShopDomain string `json:"shop_domain"`
	WebhookID  string `json:"webhook_id"`
}

// Envelope is the Kafka form of a webhook delivery, produced by an ingress relay.
type Envelope struct {
	EventMeta
	Payload json.RawMessage `json:"payload"`
}

type InventoryLevelPayload struct {
	InventoryItemID int64     `json:"inventory_item_id"`
	LocationID      int64     `json:"location_id"`
	Available       *int64    `json:"available"` // null when the item is not tracked
	UpdatedAt       time.Time `json:"updated_at"`
}

type OrderPayload struct {
	ID              int64             `json:"id"`
	FinancialStatus string            `json:"financial_status"`
	CancelledAt     *time.Time        `json:"cancelled_at"`
	LineItems       []LineItemPayload `json:"line_items"`
}

type LineItemPayload struct {
	ProductID *int64 `json:"product_id"` // null for custom items
	VariantID *int64 `json:"variant_id"`
	Quantity  int64  `json:"quantity"`
}

type ProductPayload struct {
	ID          int64            `json:"id"`
	Title       string           `json:"title"`
	Vendor      string           `json:"vendor"`
	ProductType string           `json:"product_type"`
	Tags        string           `json:"tags"`
	Variants    []VariantPayload `json:"variants"`
}

type VariantPayload struct {
	ID                int64  `json:"id"`
	Title             string `json:"title"`
	SKU               string `json:"sku"`
	InventoryItemID   int64  `json:"inventory_item_id"`
	InventoryQuantity *int64 `json:"inventory_quantity"`
}

type ProductDeletePayload struct {
	ID int64 `json:"id"`
}

type LocationPayload struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}
