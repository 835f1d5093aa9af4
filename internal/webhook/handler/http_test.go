package handler

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fekuna/omnipos-stock-sync/internal/webhook"
	"github.com/fekuna/omnipos-stock-sync/internal/webhook/dto"
	"github.com/fekuna/omnipos-stock-sync/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "shpss_test"

type stubUseCase struct {
	webhook.UseCase

	meta    dto.EventMeta
	body    []byte
	outcome webhook.Outcome
	err     error
}

func (s *stubUseCase) Dispatch(_ context.Context, meta dto.EventMeta, body []byte) (webhook.Outcome, error) {
	s.meta = meta
	s.body = body
	return s.outcome, s.err
}

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func newRouter(uc webhook.UseCase, opts Options) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewWebhookHandler(uc, opts, logger.NewNop()).Register(r)
	return r
}

func deliver(r http.Handler, body []byte, signature, topic string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/shopify", bytes.NewReader(body))
	req.Header.Set(HeaderHmac, signature)
	req.Header.Set(HeaderTopic, topic)
	req.Header.Set(HeaderShopDomain, "glow.myshopify.com")
	req.Header.Set(HeaderWebhookID, "wh-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestVerifyHMAC(t *testing.T) {
	body := []byte(`{"id":1}`)
	assert.True(t, VerifyHMAC(secret, body, sign(body)))
	assert.False(t, VerifyHMAC(secret, []byte(`{"id":2}`), sign(body)))
	assert.False(t, VerifyHMAC("other", body, sign(body)))
	assert.False(t, VerifyHMAC(secret, body, "not base64!"))
	assert.False(t, VerifyHMAC("", body, sign(body)))
}

func TestReceiveDispatchesVerifiedDelivery(t *testing.T) {
	uc := &stubUseCase{outcome: webhook.OutcomeApplied}
	r := newRouter(uc, Options{Secret: secret})
	body := []byte(`{"id":1}`)

	w := deliver(r, body, sign(body), dto.TopicOrdersCreate)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "applied")
	assert.Equal(t, dto.TopicOrdersCreate, uc.meta.Topic)
	assert.Equal(t, "glow.myshopify.com", uc.meta.ShopDomain)
	assert.Equal(t, "wh-1", uc.meta.WebhookID)
	assert.Equal(t, body, uc.body)
}

func TestReceiveRejectsBadSignature(t *testing.T) {
	uc := &stubUseCase{}
	r := newRouter(uc, Options{Secret: secret})

	w := deliver(r, []byte(`{"id":1}`), sign([]byte(`{"id":2}`)), dto.TopicOrdersCreate)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, uc.meta.Topic)
}

func TestReceiveSkipVerification(t *testing.T) {
	uc := &stubUseCase{outcome: webhook.OutcomeDuplicate}
	r := newRouter(uc, Options{SkipVerification: true})

	w := deliver(r, []byte(`{}`), "", dto.TopicProductsUpdate)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "duplicate")
}

func TestReceiveStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"unsupported topic is acknowledged", webhook.ErrUnsupportedTopic, http.StatusOK},
		{"bad payload", webhook.ErrInvalidPayload, http.StatusBadRequest},
		{"storage failure is retried", errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uc := &stubUseCase{err: tc.err}
			r := newRouter(uc, Options{Secret: secret})
			body := []byte(`{}`)

			w := deliver(r, body, sign(body), "customers/create")
			assert.Equal(t, tc.code, w.Code)
		})
	}
}

func TestReceiveRequiresHeaders(t *testing.T) {
	r := newRouter(&stubUseCase{}, Options{Secret: secret})
	body := []byte(`{}`)

	w := deliver(r, body, sign(body), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReceiveEnforcesBodyLimit(t *testing.T) {
	uc := &stubUseCase{}
	r := newRouter(uc, Options{Secret: secret, MaxBodyBytes: 16})
	body := []byte(strings.Repeat("x", 64))

	w := deliver(r, body, sign(body), dto.TopicOrdersCreate)
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Nil(t, uc.body)

	body = []byte(strings.Repeat("x", 16))
	w = deliver(r, body, sign(body), dto.TopicOrdersCreate)
	assert.Equal(t, http.StatusOK, w.Code, "a body at the limit is accepted")
	assert.Equal(t, body, uc.body)
}
