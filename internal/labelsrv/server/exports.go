package server

import (
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/labelworks/labelsrv/internal/common/httpx"
	"github.com/labelworks/labelsrv/internal/labelsrv/appcommon"
	"github.com/labelworks/labelsrv/internal/labelsrv/export"
)

type createExportRequest struct {
	ArtifactName string            `json:"artifact_name"`
	Rows         []export.LabelRow `json:"rows"`
}

// createExport renders the label sheet from the selected rows and parks it
// under a fresh one-time token. The response carries the relative download
// path the frontend opens in a top-level browser context.
func (s *LabelServer) createExport(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()

	shopID := appcommon.ShopIdFromContext(ctx)
	if shopID.IsNil() {
		return nil, httpx.ErrInvalidShop()
	}

	req := &createExportRequest{}
	if err := httpx.GetRequestData(r, req); err != nil {
		return nil, err
	}
	if err := export.ValidateRows(req.Rows); err != nil {
		return nil, err
	}

	payload, err := export.BuildPayload(req.Rows)
	if err != nil {
		return nil, err
	}
	artifact, err := export.RenderCSV(payload)
	if err != nil {
		return nil, err
	}

	exp, apperr := s.exports.Issue(ctx, shopID, artifact, req.ArtifactName)
	if apperr != nil {
		return nil, apperr
	}

	return &httpx.Response{
		StatusCode: http.StatusCreated,
		Location:   exp.Path,
		Response:   exp,
	}, nil
}

// getDownload redeems a one-time token and streams the stored artifact. A
// missing token parameter is the caller's mistake and gets a 400; every
// rejected token gets the same 403 regardless of whether it was unknown,
// already consumed, or expired.
func (s *LabelServer) getDownload(r *http.Request) (*httpx.Response, error) {
	ctx := r.Context()

	token := r.URL.Query().Get("token")
	if token == "" {
		return nil, httpx.ErrInvalidRequest("token is required")
	}

	row, err := s.exports.Redeem(ctx, token)
	if err != nil {
		if errors.Is(err, export.ErrTokenRejected) {
			return nil, httpx.ErrForbidden("download link is invalid or has expired")
		}
		return nil, err
	}

	return &httpx.Response{
		StatusCode:     http.StatusOK,
		Raw:            row.Payload,
		ContentType:    contentTypeForArtifact(row.ArtifactName),
		AttachmentName: row.ArtifactName,
	}, nil
}

func contentTypeForArtifact(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".csv":
		return "text/csv"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}
