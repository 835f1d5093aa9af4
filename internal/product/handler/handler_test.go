package handler

import (
	"context"
	"encoding/json"
	"math"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fekuna/omnipos-stock-sync/internal/auth"
	"github.com/fekuna/omnipos-stock-sync/internal/model"
	"github.com/fekuna/omnipos-stock-sync/internal/product"
	"github.com/fekuna/omnipos-stock-sync/internal/product/dto"
	"github.com/fekuna/omnipos-stock-sync/internal/shop"
	"github.com/fekuna/omnipos-stock-sync/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type stubUseCase struct {
	products    map[string]model.Product
	lastFilters *dto.ProductFilters
	lastShop    string
}

func (s *stubUseCase) GetProductMetrics(_ context.Context, shopDomain, id string) (*model.Product, error) {
	s.lastShop = shopDomain
	if shopDomain != "glow.myshopify.com" {
		return nil, shop.ErrShopNotFound
	}
	p, ok := s.products[id]
	if !ok {
		return nil, product.ErrProductNotFound
	}
	return &p, nil
}

func (s *stubUseCase) ListProducts(_ context.Context, shopDomain string, f *dto.ProductFilters) ([]model.Product, int, error) {
	s.lastShop = shopDomain
	s.lastFilters = f
	out := make([]model.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (s *stubUseCase) RecalculateShop(_ context.Context, shopDomain string) dto.RecalculateResult {
	s.lastShop = shopDomain
	return dto.RecalculateResult{Shop: shopDomain, Success: true, UpdatedCount: 2, Message: "recalculated 2 products"}
}

func (s *stubUseCase) RecalculateAllShops(context.Context) []dto.RecalculateResult { return nil }

func newStub() *stubUseCase {
	return &stubUseCase{products: map[string]model.Product{
		"p1": {
			BaseModel:             model.BaseModel{ID: "p1"},
			Title:                 "Serum",
			Status:                model.StatusLow,
			StockoutDays:          math.Inf(1),
			CurrentTotalInventory: 7,
			Variants:              []model.Variant{{SKU: "S-30", Health: model.StatusLow}},
		},
	}}
}

func newRouter(uc product.UseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewProductHandler(uc, logger.NewNop()).Register(r.Group("/api/v1/shops/:shop"))
	return r
}

func get(r http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestGetProductRendersInfiniteHorizonAsNull(t *testing.T) {
	r := newRouter(newStub())

	w := get(r, http.MethodGet, "/api/v1/shops/glow.myshopify.com/products/p1")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Low", body["status"])
	assert.Contains(t, body, "stockout_days")
	assert.Nil(t, body["stockout_days"])
	assert.Equal(t, 7.0, body["current_total_inventory"])

	variants, ok := body["variants"].([]interface{})
	require.True(t, ok)
	require.Len(t, variants, 1)
	assert.Equal(t, "Low", variants[0].(map[string]interface{})["health"])
}

func TestGetProductNotFound(t *testing.T) {
	r := newRouter(newStub())

	assert.Equal(t, http.StatusNotFound, get(r, http.MethodGet, "/api/v1/shops/glow.myshopify.com/products/nope").Code)
	assert.Equal(t, http.StatusNotFound, get(r, http.MethodGet, "/api/v1/shops/ghost.myshopify.com/products/p1").Code)
}

func TestListProductsParsesFilters(t *testing.T) {
	uc := newStub()
	r := newRouter(uc)

	w := get(r, http.MethodGet, "/api/v1/shops/glow.myshopify.com/products?status=out_of_stock&trending=true&q=serum&page=2&page_size=500")
	require.Equal(t, http.StatusOK, w.Code)

	require.NotNil(t, uc.lastFilters)
	assert.Equal(t, model.StatusCritical, uc.lastFilters.Status, "legacy names map onto the canonical set")
	require.NotNil(t, uc.lastFilters.Trending)
	assert.True(t, *uc.lastFilters.Trending)
	assert.Equal(t, "serum", uc.lastFilters.SearchQuery)
	assert.Equal(t, 2, uc.lastFilters.Page)
	assert.Equal(t, 100, uc.lastFilters.PageSize)
	assert.Contains(t, w.Body.String(), `"total":1`)
}

func TestListProductsRejectsBadQuery(t *testing.T) {
	r := newRouter(newStub())

	for _, q := range []string{"status=bogus", "trending=maybe", "page=x", "page_size=y"} {
		w := get(r, http.MethodGet, "/api/v1/shops/glow.myshopify.com/products?"+q)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestRecalculateReturnsResult(t *testing.T) {
	uc := newStub()
	r := newRouter(uc)

	w := get(r, http.MethodPost, "/api/v1/shops/glow.myshopify.com/recalculate")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"shop":"glow.myshopify.com","success":true,"updated_count":2,"message":"recalculated 2 products"}`, w.Body.String())
}

func dialMetrics(t *testing.T, uc product.UseCase) MetricsServiceClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnaryInterceptor(auth.UnaryServerInterceptor()))
	RegisterMetricsServiceServer(srv, NewMetricsHandler(uc, logger.NewNop()))
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewMetricsServiceClient(conn)
}

func withShop(domain string) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), auth.MetadataShopDomain, domain)
}

func TestGRPCRecalculateShop(t *testing.T) {
	uc := newStub()
	client := dialMetrics(t, uc)

	out, err := client.RecalculateShop(withShop("glow.myshopify.com"), &emptypb.Empty{})
	require.NoError(t, err)
	assert.True(t, out.Fields["success"].GetBoolValue())
	assert.Equal(t, 2.0, out.Fields["updated_count"].GetNumberValue())
	assert.Equal(t, "glow.myshopify.com", uc.lastShop)

	_, err = client.RecalculateShop(context.Background(), &emptypb.Empty{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGRPCGetProductMetrics(t *testing.T) {
	client := dialMetrics(t, newStub())
	ctx := withShop("glow.myshopify.com")

	out, err := client.GetProductMetrics(ctx, wrapperspb.String("p1"))
	require.NoError(t, err)
	assert.Equal(t, "Low", out.Fields["status"].GetStringValue())
	_, isNull := out.Fields["stockout_days"].GetKind().(*structpb.Value_NullValue)
	assert.True(t, isNull)
	assert.Equal(t, 7.0, out.Fields["current_total_inventory"].GetNumberValue())

	_, err = client.GetProductMetrics(ctx, wrapperspb.String("nope"))
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.GetProductMetrics(ctx, wrapperspb.String(""))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
