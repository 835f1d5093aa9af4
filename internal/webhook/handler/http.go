package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/fekuna/omnipos-stock-sync/internal/webhook"
	"github.com/fekuna/omnipos-stock-sync/internal/webhook/dto"
	"github.com/fekuna/omnipos-stock-sync/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	HeaderHmac       = "X-Shopify-Hmac-Sha256"
	HeaderTopic      = "X-Shopify-Topic"
	HeaderShopDomain = "X-Shopify-Shop-Domain"
	HeaderWebhookID  = "X-Shopify-Webhook-Id"
)

type Options struct {
	Secret string
	// MaxBodyBytes caps the request body; 0 means 1 MiB.
	MaxBodyBytes int64
	// SkipVerification disables the HMAC check. Local development only.
	SkipVerification bool
}

type WebhookHandler struct {
	uc     webhook.UseCase
	opts   Options
	logger logger.ZapLogger
}

func NewWebhookHandler(uc webhook.UseCase, opts Options, log logger.ZapLogger) *WebhookHandler {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	return &WebhookHandler{uc: uc, opts: opts, logger: log}
}

func (h *WebhookHandler) Register(r gin.IRouter) {
	r.POST("/webhooks/shopify", h.Receive)
}

// Receive verifies and applies one Shopify delivery. Anything that was
// understood, including duplicates and unknown entities, is answered with 200
// so Shopify stops retrying it.
func (h *WebhookHandler) Receive(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxBodyBytes)

	body, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "body too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read body"})
		return
	}

	if !h.opts.SkipVerification && !VerifyHMAC(h.opts.Secret, body, c.GetHeader(HeaderHmac)) {
		h.logger.Warn("Rejected webhook with invalid signature",
			zap.String("shop", c.GetHeader(HeaderShopDomain)),
			zap.String("topic", c.GetHeader(HeaderTopic)),
		)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	meta := dto.EventMeta{
		Topic:      c.GetHeader(HeaderTopic),
		ShopDomain: c.GetHeader(HeaderShopDomain),
		WebhookID:  c.GetHeader(HeaderWebhookID),
	}
	if meta.Topic == "" || meta.ShopDomain == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing shopify headers"})
		return
	}

	outcome, err := h.uc.Dispatch(c.Request.Context(), meta, body)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": outcome})
	case errors.Is(err, webhook.ErrUnsupportedTopic):
		h.logger.Info("Ignoring webhook topic", zap.String("topic", meta.Topic))
		c.JSON(http.StatusOK, gin.H{"status": webhook.OutcomeSkipped})
	case errors.Is(err, webhook.ErrInvalidPayload):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("failed to apply webhook",
			zap.String("topic", meta.Topic),
			zap.String("shop", meta.ShopDomain),
			zap.String("webhook_id", meta.WebhookID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// VerifyHMAC checks Shopify's base64 HMAC-SHA256 of the raw body.
func VerifyHMAC(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	given, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), given)
}
