package server

import (
	"net/http"

	"github.com/labelworks/labelsrv/internal/common/httpx"
	"github.com/labelworks/labelsrv/internal/labelsrv/barcode"
	"github.com/labelworks/labelsrv/internal/labelsrv/catalog"
)

type allocateBarcodeRequest struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
}

type allocateBarcodeResponse struct {
	Barcode string `json:"barcode"`
}

// allocateBarcode generates a catalog-unique 8-digit barcode and writes it
// onto the requested variant. Exhaustion of the attempt budget maps to 409,
// catalog failures to 502.
func (s *LabelServer) allocateBarcode(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()

	req := &allocateBarcodeRequest{}
	if err := httpx.GetRequestData(r, req); err != nil {
		return nil, err
	}
	if req.ProductID == "" || req.VariantID == "" {
		return nil, httpx.ErrInvalidRequest("product_id and variant_id are required")
	}

	client, err := s.catalogForShop(ctx)
	if err != nil {
		return nil, err
	}

	alloc := barcode.NewAllocator(client, s.maxBarcodeAttempts)
	code, aerr := alloc.Allocate(ctx, catalog.VariantRef{
		ProductID: req.ProductID,
		VariantID: req.VariantID,
	})
	if aerr != nil {
		return nil, aerr
	}

	return &httpx.Response{
		StatusCode: http.StatusOK,
		Response:   &allocateBarcodeResponse{Barcode: code},
	}, nil
}
