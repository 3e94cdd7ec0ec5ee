package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/labelworks/labelsrv/internal/common/apperrors"
)

const searchVariantsQuery = `
query searchVariants($query: String!, $first: Int!) {
  productVariants(first: $first, query: $query) {
    edges {
      node {
        id
        title
        sku
        barcode
        price
        inventoryQuantity
        product {
          id
          title
          vendor
          featuredImage {
            url
          }
        }
      }
    }
  }
}`

const barcodeLookupQuery = `
query barcodeLookup($query: String!) {
  productVariants(first: 1, query: $query) {
    edges {
      node {
        id
      }
    }
  }
}`

const updateBarcodeMutation = `
mutation updateBarcode($productId: ID!, $variants: [ProductVariantsBulkInput!]!) {
  productVariantsBulkUpdate(productId: $productId, variants: $variants) {
    userErrors {
      field
      message
    }
  }
}`

// ShopifyClient implements Client against the Shopify Admin GraphQL API for
// a single shop.
type ShopifyClient struct {
	shopDomain  string
	accessToken string
	apiVersion  string
	endpoint    string
	httpClient  *http.Client
}

type ShopifyOption func(*ShopifyClient)

// WithEndpoint overrides the Admin API URL. Used by tests to point the
// client at a local server.
func WithEndpoint(url string) ShopifyOption {
	return func(c *ShopifyClient) {
		c.endpoint = url
	}
}

func WithHTTPClient(hc *http.Client) ShopifyOption {
	return func(c *ShopifyClient) {
		c.httpClient = hc
	}
}

// NewShopifyClient builds a catalog client for one shop. The access token is
// the plain Admin API token, already decrypted by the caller.
func NewShopifyClient(shopDomain, accessToken, apiVersion string, opts ...ShopifyOption) *ShopifyClient {
	c := &ShopifyClient{
		shopDomain:  shopDomain,
		accessToken: accessToken,
		apiVersion:  apiVersion,
		httpClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.endpoint == "" {
		c.endpoint = fmt.Sprintf("https://%s/admin/api/%s/graphql.json", shopDomain, apiVersion)
	}
	return c
}

var _ Client = &ShopifyClient{}

func (c *ShopifyClient) postGraphQL(ctx context.Context, query string, variables map[string]any) ([]byte, apperrors.Error) {
	body, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return nil, ErrCatalogRequest.Err(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, ErrCatalogRequest.Err(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)

	res, err := c.httpClient.Do(req)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("shop", c.shopDomain).Msg("catalog request failed")
		return nil, ErrCatalogRequest.Err(err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, ErrCatalogRequest.Err(err)
	}

	if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
		log.Ctx(ctx).Error().Int("status", res.StatusCode).Str("shop", c.shopDomain).Msg("catalog request denied")
		return nil, ErrCatalogDenied
	}
	if res.StatusCode != http.StatusOK {
		log.Ctx(ctx).Error().Int("status", res.StatusCode).Str("shop", c.shopDomain).Msg("catalog returned non-OK status")
		return nil, ErrCatalogRequest.Msg("catalog returned status " + strconv.Itoa(res.StatusCode))
	}

	if apiErrors := gjson.GetBytes(raw, "errors"); apiErrors.Exists() && len(apiErrors.Array()) > 0 {
		msg := apiErrors.Array()[0].Get("message").String()
		log.Ctx(ctx).Error().Str("shop", c.shopDomain).Str("error", msg).Msg("catalog query returned errors")
		return nil, ErrCatalogRequest.Msg(msg)
	}

	return raw, nil
}

func (c *ShopifyClient) SearchVariants(ctx context.Context, query string, first int) ([]Variant, apperrors.Error) {
	if first <= 0 {
		first = 50
	}
	raw, err := c.postGraphQL(ctx, searchVariantsQuery, map[string]any{
		"query": query,
		"first": first,
	})
	if err != nil {
		return nil, err
	}

	edges := gjson.GetBytes(raw, "data.productVariants.edges").Array()
	variants := make([]Variant, 0, len(edges))
	for _, edge := range edges {
		node := edge.Get("node")
		variants = append(variants, Variant{
			ID:        node.Get("id").String(),
			ProductID: node.Get("product.id").String(),
			Title:     node.Get("title").String(),
			SKU:       node.Get("sku").String(),
			Barcode:   node.Get("barcode").String(),
			Price:     node.Get("price").String(),
			Inventory: node.Get("inventoryQuantity").Int(),
			Vendor:    node.Get("product.vendor").String(),
			ImageURL:  node.Get("product.featuredImage.url").String(),
		})
	}
	return variants, nil
}

func (c *ShopifyClient) BarcodeInUse(ctx context.Context, barcode string) (bool, apperrors.Error) {
	raw, err := c.postGraphQL(ctx, barcodeLookupQuery, map[string]any{
		"query": fmt.Sprintf("barcode:%s", barcode),
	})
	if err != nil {
		return false, err
	}

	edges := gjson.GetBytes(raw, "data.productVariants.edges").Array()
	return len(edges) > 0, nil
}

func (c *ShopifyClient) SetVariantBarcode(ctx context.Context, ref VariantRef, barcode string) apperrors.Error {
	raw, err := c.postGraphQL(ctx, updateBarcodeMutation, map[string]any{
		"productId": ref.ProductID,
		"variants": []map[string]any{
			{"id": ref.VariantID, "barcode": barcode},
		},
	})
	if err != nil {
		return err
	}

	userErrors := gjson.GetBytes(raw, "data.productVariantsBulkUpdate.userErrors").Array()
	if len(userErrors) > 0 {
		msg := userErrors[0].Get("message").String()
		log.Ctx(ctx).Error().Str("shop", c.shopDomain).Str("error", msg).Msg("barcode update rejected")
		return ErrCatalogRequest.Msg(msg)
	}
	return nil
}
