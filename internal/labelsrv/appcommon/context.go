// Package appcommon provides context management utilities shared across
// labelsrv. The shop is the tenant boundary: every token row and catalog
// call is scoped to the shop resolved for the request.
package appcommon

import (
	"context"
)

// ShopID identifies the owning shop (the tenant).
type ShopID string

func (s ShopID) IsNil() bool {
	return s == ""
}

type ctxKeyType string

const (
	ctxShopIdKey      ctxKeyType = "LabelShopId"
	ctxShopDomainKey  ctxKeyType = "LabelShopDomain"
	ctxTestContextKey ctxKeyType = "LabelTestContext"
)

// SetShopIdInContext sets the shop ID in the provided context.
func SetShopIdInContext(ctx context.Context, shopId ShopID) context.Context {
	return context.WithValue(ctx, ctxShopIdKey, shopId)
}

// ShopIdFromContext retrieves the shop ID from the provided context.
func ShopIdFromContext(ctx context.Context) ShopID {
	if shopId, ok := ctx.Value(ctxShopIdKey).(ShopID); ok {
		return shopId
	}
	return ""
}

// SetShopDomainInContext sets the myshopify domain in the provided context.
func SetShopDomainInContext(ctx context.Context, domain string) context.Context {
	return context.WithValue(ctx, ctxShopDomainKey, domain)
}

// ShopDomainFromContext retrieves the myshopify domain from the provided context.
func ShopDomainFromContext(ctx context.Context) string {
	if domain, ok := ctx.Value(ctxShopDomainKey).(string); ok {
		return domain
	}
	return ""
}

// SetTestContext marks the context as belonging to a test request, which
// bypasses session-token verification in the middleware.
func SetTestContext(ctx context.Context, isTest bool) context.Context {
	return context.WithValue(ctx, ctxTestContextKey, isTest)
}

// IsTestContext reports whether the context belongs to a test request.
func IsTestContext(ctx context.Context) bool {
	if isTest, ok := ctx.Value(ctxTestContextKey).(bool); ok {
		return isTest
	}
	return false
}
