package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/fekuna/omnipos-stock-sync/internal/model"
	"github.com/fekuna/omnipos-stock-sync/internal/product/dto"
	"github.com/fekuna/omnipos-stock-sync/internal/shop"
	"github.com/fekuna/omnipos-stock-sync/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Recalculator recomputes a shop's stored metrics. The product use case implements it.
type Recalculator interface {
	RecalculateShop(ctx context.Context, shopDomain string) dto.RecalculateResult
}

type ShopHandler struct {
	uc     shop.UseCase
	recalc Recalculator
	logger logger.ZapLogger
}

// NewShopHandler wires the shop routes. recalc runs after every settings
// change so stored statuses follow the new thresholds.
func NewShopHandler(uc shop.UseCase, recalc Recalculator, log logger.ZapLogger) *ShopHandler {
	return &ShopHandler{uc: uc, recalc: recalc, logger: log}
}

// Register mounts shop registration on api and the settings routes on the
// group carrying :shop.
func (h *ShopHandler) Register(api gin.IRouter, shopRoutes gin.IRouter) {
	api.POST("/shops", h.RegisterShop)
	shopRoutes.GET("/settings", h.GetSettings)
	shopRoutes.PUT("/settings", h.UpdateSettings)
}

type registerShopRequest struct {
	Domain string `json:"domain" binding:"required"`
}

func (h *ShopHandler) RegisterShop(c *gin.Context) {
	var req registerShopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s, err := h.uc.Register(c.Request.Context(), req.Domain)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

func (h *ShopHandler) GetSettings(c *gin.Context) {
	s, err := h.uc.GetByDomain(c.Request.Context(), c.Param("shop"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.StockSettings)
}

func (h *ShopHandler) UpdateSettings(c *gin.Context) {
	var settings model.StockSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s, err := h.uc.UpdateSettings(c.Request.Context(), c.Param("shop"), settings)
	if err != nil {
		h.writeError(c, err)
		return
	}

	res := h.recalc.RecalculateShop(c.Request.Context(), s.Domain)
	if !res.Success {
		h.logger.Warn("Recalculation after settings change failed",
			zap.String("shop", s.Domain),
			zap.String("message", res.Message),
		)
	}
	c.JSON(http.StatusOK, gin.H{
		"settings":      s.StockSettings,
		"recalculation": res,
	})
}

func (h *ShopHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, shop.ErrShopNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, shop.ErrInvalidDomain), errors.Is(err, shop.ErrInvalidSettings):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("shop request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
