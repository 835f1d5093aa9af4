package auth

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// MetadataShopDomain carries the myshopify domain on gRPC calls.
const MetadataShopDomain = "x-shop-domain"

type shopDomainKey struct{}

func WithShopDomain(ctx context.Context, domain string) context.Context {
	return context.WithValue(ctx, shopDomainKey{}, domain)
}

// GetShopDomain returns the shop the call acts on, or "" if none was given.
func GetShopDomain(ctx context.Context) string {
	if val, ok := ctx.Value(shopDomainKey{}).(string); ok {
		return val
	}

	md, ok := metadata.FromIncomingContext(ctx)
	if ok {
		if val := md.Get(MetadataShopDomain); len(val) > 0 {
			return strings.ToLower(strings.TrimSpace(val[0]))
		}
	}
	return ""
}

// UnaryServerInterceptor lifts the shop domain out of metadata into the context.
func UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if domain := GetShopDomain(ctx); domain != "" {
			ctx = WithShopDomain(ctx, domain)
		}
		return handler(ctx, req)
	}
}
