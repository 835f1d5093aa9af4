// Package search mirrors product metrics into Elasticsearch so dashboards can
// run free-text queries over titles, vendors and SKUs.
package search

import (
	"context"
	"strings"
	"time"

	"github.com/fekuna/omnipos-stock-sync/internal/model"
	"github.com/fekuna/omnipos-stock-sync/internal/product/dto"
	pkgsearch "github.com/fekuna/omnipos-stock-sync/pkg/search"
)

// Engine is the subset of *search.Client the indexer uses.
type Engine interface {
	CreateIndex(ctx context.Context, index, mapping string) error
	Index(ctx context.Context, index, id string, doc interface{}) error
	Delete(ctx context.Context, index, id string) error
	Search(ctx context.Context, index string, query map[string]interface{}) (*pkgsearch.SearchResponse, error)
}

const mapping = `{
	"mappings": {
		"properties": {
			"shop_id": { "type": "keyword" },
			"title": { "type": "text" },
			"vendor": { "type": "text" },
			"category": { "type": "keyword" },
			"tags": { "type": "text" },
			"skus": { "type": "keyword" },
			"status": { "type": "keyword" },
			"trending": { "type": "boolean" },
			"stockout_days": { "type": "double" },
			"current_total_inventory": { "type": "long" },
			"metrics_updated_at": { "type": "date" }
		}
	}
}`

type Indexer struct {
	engine Engine
	index  string
}

func NewIndexer(engine Engine, index string) *Indexer {
	return &Indexer{engine: engine, index: index}
}

func (i *Indexer) EnsureIndex(ctx context.Context) error {
	return i.engine.CreateIndex(ctx, i.index, mapping)
}

// Document is what gets stored per product. StockoutDays is omitted when the
// horizon is infinite since JSON has no representation for it.
type Document struct {
	ShopID                string              `json:"shop_id"`
	Title                 string              `json:"title"`
	Vendor                string              `json:"vendor"`
	Category              *string             `json:"category,omitempty"`
	Tags                  string              `json:"tags"`
	SKUs                  []string            `json:"skus"`
	Status                model.ProductStatus `json:"status"`
	Trending              bool                `json:"trending"`
	StockoutDays          *float64            `json:"stockout_days,omitempty"`
	CurrentTotalInventory int64               `json:"current_total_inventory"`
	MetricsUpdatedAt      *time.Time          `json:"metrics_updated_at,omitempty"`
}

func NewDocument(p *model.Product) Document {
	skus := make([]string, 0, len(p.Variants))
	for _, v := range p.Variants {
		if v.SKU != "" {
			skus = append(skus, v.SKU)
		}
	}
	return Document{
		ShopID:                p.ShopID,
		Title:                 p.Title,
		Vendor:                p.Vendor,
		Category:              p.Category,
		Tags:                  p.Tags,
		SKUs:                  skus,
		Status:                p.Status,
		Trending:              p.Trending,
		StockoutDays:          p.StockoutDaysPtr(),
		CurrentTotalInventory: p.CurrentTotalInventory,
		MetricsUpdatedAt:      p.MetricsUpdatedAt,
	}
}

func (i *Indexer) IndexProduct(ctx context.Context, p *model.Product) error {
	return i.engine.Index(ctx, i.index, p.ID, NewDocument(p))
}

func (i *Indexer) RemoveProduct(ctx context.Context, productID string) error {
	return i.engine.Delete(ctx, i.index, productID)
}

func (i *Indexer) SearchIDs(ctx context.Context, filters *dto.ProductFilters) ([]string, int, error) {
	f := *filters
	f.Normalize()

	must := []map[string]interface{}{
		{"term": map[string]interface{}{"shop_id": f.ShopID}},
	}
	if q := strings.TrimSpace(f.SearchQuery); q != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     q,
				"fields":    []string{"title^3", "vendor", "skus", "tags"},
				"fuzziness": "AUTO",
			},
		})
	}
	if f.Status != "" {
		must = append(must, map[string]interface{}{"term": map[string]interface{}{"status": string(f.Status)}})
	}
	if f.Trending != nil {
		must = append(must, map[string]interface{}{"term": map[string]interface{}{"trending": *f.Trending}})
	}

	query := map[string]interface{}{
		"query":   map[string]interface{}{"bool": map[string]interface{}{"must": must}},
		"_source": false,
		"from":    (f.Page - 1) * f.PageSize,
		"size":    f.PageSize,
	}

	res, err := i.engine.Search(ctx, i.index, query)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]string, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, res.Hits.Total.Value, nil
}
