package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// MetricsService speaks protobuf well-known types only, so its descriptor is
// written out here rather than generated.
const (
	MetricsServiceName                              = "omnipos.stocksync.v1.MetricsService"
	MetricsService_RecalculateShop_FullMethodName   = "/" + MetricsServiceName + "/RecalculateShop"
	MetricsService_GetProductMetrics_FullMethodName = "/" + MetricsServiceName + "/GetProductMetrics"
)

type MetricsServiceServer interface {
	RecalculateShop(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetProductMetrics(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
}

type UnimplementedMetricsServiceServer struct{}

func (UnimplementedMetricsServiceServer) RecalculateShop(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method RecalculateShop not implemented")
}

func (UnimplementedMetricsServiceServer) GetProductMetrics(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetProductMetrics not implemented")
}

func RegisterMetricsServiceServer(s grpc.ServiceRegistrar, srv MetricsServiceServer) {
	s.RegisterService(&MetricsService_ServiceDesc, srv)
}

func _MetricsService_RecalculateShop_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MetricsServiceServer).RecalculateShop(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: MetricsService_RecalculateShop_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MetricsServiceServer).RecalculateShop(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _MetricsService_GetProductMetrics_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MetricsServiceServer).GetProductMetrics(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: MetricsService_GetProductMetrics_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MetricsServiceServer).GetProductMetrics(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

var MetricsService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: MetricsServiceName,
	HandlerType: (*MetricsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "RecalculateShop",
			Handler:    _MetricsService_RecalculateShop_Handler,
		},
		{
			MethodName: "GetProductMetrics",
			Handler:    _MetricsService_GetProductMetrics_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "stocksync/v1/metrics.proto",
}

type MetricsServiceClient interface {
	RecalculateShop(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetProductMetrics(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type metricsServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewMetricsServiceClient(cc grpc.ClientConnInterface) MetricsServiceClient {
	return &metricsServiceClient{cc}
}

func (c *metricsServiceClient) RecalculateShop(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MetricsService_RecalculateShop_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *metricsServiceClient) GetProductMetrics(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MetricsService_GetProductMetrics_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
