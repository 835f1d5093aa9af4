package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/fekuna/omnipos-stock-sync/internal/inventory"
	"github.com/fekuna/omnipos-stock-sync/internal/inventory/dto"
	"github.com/fekuna/omnipos-stock-sync/internal/product"
	"github.com/fekuna/omnipos-stock-sync/internal/shop"
	"github.com/fekuna/omnipos-stock-sync/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type InventoryHandler struct {
	uc     inventory.UseCase
	logger logger.ZapLogger
}

func NewInventoryHandler(uc inventory.UseCase, log logger.ZapLogger) *InventoryHandler {
	return &InventoryHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *InventoryHandler) Register(r gin.IRouter) {
	r.GET("/products/:id/inventory", h.GetProductInventory)
	r.GET("/products/:id/movements", h.ListMovements)
}

func (h *InventoryHandler) GetProductInventory(c *gin.Context) {
	levels, err := h.uc.GetProductInventory(c.Request.Context(), c.Param("shop"), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	var total int64
	for _, l := range levels {
		total += l.Quantity
	}
	c.JSON(http.StatusOK, gin.H{
		"product_id": c.Param("id"),
		"levels":     levels,
		"total":      total,
	})
}

func (h *InventoryHandler) ListMovements(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))

	filters := &dto.MovementFilters{
		ProductID:    c.Param("id"),
		WarehouseID:  c.Query("warehouse_id"),
		MovementType: c.Query("type"),
		Page:         page,
		PageSize:     pageSize,
	}

	items, total, err := h.uc.ListMovements(c.Request.Context(), c.Param("shop"), filters)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"movements": items,
		"total":     total,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}

func (h *InventoryHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, shop.ErrShopNotFound), errors.Is(err, product.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.logger.Error("inventory request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
