package server

import (
	"net/http"
	"strconv"

	"github.com/labelworks/labelsrv/internal/common/httpx"
	"github.com/labelworks/labelsrv/internal/labelsrv/catalog"
)

const (
	defaultVariantPageSize = 25
	maxVariantPageSize     = 100
)

type listVariantsResponse struct {
	Variants []catalog.Variant `json:"variants"`
}

// listVariants proxies a catalog variant search for the embedded UI.
func (s *LabelServer) listVariants(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()

	query := r.URL.Query().Get("query")
	first := defaultVariantPageSize
	if v := r.URL.Query().Get("first"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, httpx.ErrInvalidRequest("first must be a positive integer")
		}
		if n > maxVariantPageSize {
			n = maxVariantPageSize
		}
		first = n
	}

	client, err := s.catalogForShop(ctx)
	if err != nil {
		return nil, err
	}

	variants, verr := client.SearchVariants(ctx, query, first)
	if verr != nil {
		return nil, verr
	}
	if variants == nil {
		variants = []catalog.Variant{}
	}

	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   &listVariantsResponse{Variants: variants},
	}, nil
}
