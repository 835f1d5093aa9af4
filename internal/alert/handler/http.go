package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/fekuna/omnipos-stock-sync/internal/alert"
	"github.com/fekuna/omnipos-stock-sync/internal/alert/dto"
	"github.com/fekuna/omnipos-stock-sync/internal/model"
	"github.com/fekuna/omnipos-stock-sync/internal/shop"
	"github.com/fekuna/omnipos-stock-sync/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AlertHandler struct {
	uc     alert.UseCase
	logger logger.ZapLogger
}

func NewAlertHandler(uc alert.UseCase, log logger.ZapLogger) *AlertHandler {
	return &AlertHandler{uc: uc, logger: log}
}

func (h *AlertHandler) Register(r gin.IRouter) {
	r.GET("/alerts", h.ListAlerts)
}

func (h *AlertHandler) ListAlerts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))

	filters := &dto.AlertFilters{
		ProductID: c.Query("product_id"),
		Page:      page,
		PageSize:  pageSize,
	}
	if raw := c.Query("status"); raw != "" {
		filters.Status = model.ParseProductStatus(raw)
	}
	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be an RFC 3339 timestamp"})
			return
		}
		filters.Since = &since
	}

	alerts, total, err := h.uc.ListAlerts(c.Request.Context(), c.Param("shop"), filters)
	if err != nil {
		if errors.Is(err, shop.ErrShopNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("failed to list alerts", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"alerts":    alerts,
		"total":     total,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}
