package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/fekuna/omnipos-stock-sync/internal/model"
	"github.com/fekuna/omnipos-stock-sync/internal/product"
	"github.com/fekuna/omnipos-stock-sync/internal/product/dto"
	"github.com/fekuna/omnipos-stock-sync/internal/shop"
	"github.com/fekuna/omnipos-stock-sync/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProductHandler struct {
	uc     product.UseCase
	logger logger.ZapLogger
}

func NewProductHandler(uc product.UseCase, log logger.ZapLogger) *ProductHandler {
	return &ProductHandler{uc: uc, logger: log}
}

// Register mounts the routes on a group that carries the :shop parameter.
func (h *ProductHandler) Register(r gin.IRouter) {
	r.GET("/products", h.ListProducts)
	r.GET("/products/:id", h.GetProduct)
	r.POST("/recalculate", h.Recalculate)
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	filters, err := parseFilters(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	products, total, err := h.uc.ListProducts(c.Request.Context(), c.Param("shop"), filters)
	if err != nil {
		h.writeError(c, err)
		return
	}

	views := make([]dto.MetricsView, 0, len(products))
	for i := range products {
		views = append(views, dto.NewMetricsView(&products[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"products":  views,
		"total":     total,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	p, err := h.uc.GetProductMetrics(c.Request.Context(), c.Param("shop"), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewMetricsView(p))
}

func (h *ProductHandler) Recalculate(c *gin.Context) {
	res := h.uc.RecalculateShop(c.Request.Context(), c.Param("shop"))
	c.JSON(http.StatusOK, res)
}

func (h *ProductHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, shop.ErrShopNotFound), errors.Is(err, product.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.logger.Error("product request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

var errBadStatus = errors.New("status must be one of Unknown, Healthy, Low, Critical")

func parseFilters(c *gin.Context) (*dto.ProductFilters, error) {
	f := &dto.ProductFilters{SearchQuery: strings.TrimSpace(c.Query("q"))}

	if raw := c.Query("status"); raw != "" {
		f.Status = model.ParseProductStatus(raw)
		if f.Status == model.StatusUnknown && !strings.EqualFold(raw, string(model.StatusUnknown)) {
			return nil, errBadStatus
		}
	}
	if raw := c.Query("trending"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, errors.New("trending must be a boolean")
		}
		f.Trending = &v
	}
	if raw := c.Query("page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.New("page must be a number")
		}
		f.Page = v
	}
	if raw := c.Query("page_size"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.New("page_size must be a number")
		}
		f.PageSize = v
	}

	f.Normalize()
	return f, nil
}
