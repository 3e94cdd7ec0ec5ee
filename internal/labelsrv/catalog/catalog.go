// Package catalog defines the external product catalog collaborator. The
// catalog owns product variants; labelsrv only searches them, checks barcode
// existence, and writes a single barcode field. The Shopify Admin GraphQL
// implementation lives in shopify.go; tests substitute fakes for the Client
// interface.
package catalog

import (
	"context"
	"net/http"

	"github.com/labelworks/labelsrv/internal/common/apperrors"
)

// Errors returned by catalog implementations. Any transport, API, or
// userError failure surfaces as ErrCatalog; it is never retried here.
var (
	ErrCatalog        apperrors.Error = apperrors.New("catalog error").SetStatusCode(http.StatusBadGateway)
	ErrCatalogRequest apperrors.Error = ErrCatalog.New("catalog request failed")
	ErrCatalogDenied  apperrors.Error = ErrCatalog.New("catalog request denied").SetStatusCode(http.StatusUnauthorized)
)

// Variant is the slice of a catalog variant labelsrv consumes.
type Variant struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Title     string `json:"title"`
	SKU       string `json:"sku"`
	Barcode   string `json:"barcode"`
	Price     string `json:"price"`
	Inventory int64  `json:"inventory"`
	Vendor    string `json:"vendor"`
	ImageURL  string `json:"image_url"`
}

// VariantRef identifies the variant targeted by a barcode write. The product
// ID rides along because the catalog's update mutation operates at the
// product level with a per-variant sub-update.
type VariantRef struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
}

// Client is the catalog collaborator port.
type Client interface {
	// SearchVariants returns up to first variants matching query (title,
	// SKU, or barcode search syntax of the backing catalog).
	SearchVariants(ctx context.Context, query string, first int) ([]Variant, apperrors.Error)

	// BarcodeInUse reports whether any variant in the shop's catalog
	// already carries barcode.
	BarcodeInUse(ctx context.Context, barcode string) (bool, apperrors.Error)

	// SetVariantBarcode persists barcode onto the referenced variant.
	SetVariantBarcode(ctx context.Context, ref VariantRef, barcode string) apperrors.Error
}
