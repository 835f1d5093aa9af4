package handler

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-stock-sync/internal/auth"
	"github.com/fekuna/omnipos-stock-sync/internal/model"
	"github.com/fekuna/omnipos-stock-sync/internal/product"
	"github.com/fekuna/omnipos-stock-sync/internal/product/dto"
	"github.com/fekuna/omnipos-stock-sync/internal/shop"
	"github.com/fekuna/omnipos-stock-sync/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type MetricsHandler struct {
	UnimplementedMetricsServiceServer

	uc     product.UseCase
	logger logger.ZapLogger
}

func NewMetricsHandler(uc product.UseCase, log logger.ZapLogger) *MetricsHandler {
	return &MetricsHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *MetricsHandler) RecalculateShop(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	domain := auth.GetShopDomain(ctx)
	if domain == "" {
		return nil, status.Error(codes.InvalidArgument, "missing shop domain")
	}

	res := h.uc.RecalculateShop(ctx, domain)
	return structpb.NewStruct(map[string]interface{}{
		"shop":          res.Shop,
		"success":       res.Success,
		"updated_count": res.UpdatedCount,
		"message":       res.Message,
	})
}

func (h *MetricsHandler) GetProductMetrics(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	domain := auth.GetShopDomain(ctx)
	if domain == "" {
		return nil, status.Error(codes.InvalidArgument, "missing shop domain")
	}
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "missing product id")
	}

	p, err := h.uc.GetProductMetrics(ctx, domain, req.GetValue())
	if err != nil {
		switch {
		case errors.Is(err, shop.ErrShopNotFound), errors.Is(err, product.ErrProductNotFound):
			return nil, status.Error(codes.NotFound, err.Error())
		default:
			h.logger.Error("failed to get product metrics", zap.String("product_id", req.GetValue()), zap.Error(err))
			return nil, status.Error(codes.Internal, err.Error())
		}
	}

	return mapMetricsToStruct(p)
}

func mapMetricsToStruct(p *model.Product) (*structpb.Struct, error) {
	view := dto.NewMetricsView(p)
	fields := map[string]interface{}{
		"id":                      view.ID,
		"title":                   view.Title,
		"status":                  string(view.Status),
		"stockout_days":           nil,
		"current_total_inventory": view.CurrentTotalInventory,
		"sales_velocity":          nil,
		"trending":                view.Trending,
	}
	if view.StockoutDays != nil {
		fields["stockout_days"] = *view.StockoutDays
	}
	if view.SalesVelocity != nil {
		fields["sales_velocity"] = *view.SalesVelocity
	}

	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return s, nil
}
