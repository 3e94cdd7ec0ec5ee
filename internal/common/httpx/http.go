// Package httpx carries the request/response plumbing shared by all handlers:
// JSON request decoding, a response envelope, and the adapter that maps
// apperrors values to HTTP errors.
package httpx

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/labelworks/labelsrv/internal/common/apperrors"
)

// GetRequestData decodes the JSON request body into data.
func GetRequestData(r *http.Request, data any) error {
	if r.Method != http.MethodPost && r.Method != http.MethodPut {
		return ErrReqMethodNotSupported()
	}
	if r.Body == nil {
		log.Ctx(r.Context()).Error().Msg("empty request body")
		return ErrUnableToParseReqData()
	}
	if err := json.NewDecoder(r.Body).Decode(data); err != nil {
		return ErrUnableToParseReqData()
	}
	return nil
}

// Response is the envelope a RequestHandler returns. Either Response is set
// (serialized as JSON) or Raw is set together with ContentType and, for
// downloads, AttachmentName.
type Response struct {
	StatusCode     int
	Location       string
	Response       any
	Raw            []byte
	ContentType    string
	AttachmentName string
}

type RequestHandler func(r *http.Request) (*Response, error)

type ResponseHandlerParam struct {
	Method  string
	Path    string
	Handler RequestHandler
}

// WrapHttpRsp adapts a RequestHandler to http.HandlerFunc, translating
// apperrors and httpx errors into JSON error responses.
func WrapHttpRsp(handler RequestHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rsp, err := handler(r)
		if err != nil {
			sendHandlerError(w, err)
			return
		}
		if rsp == nil {
			ErrApplicationError().Send(w)
			return
		}
		if rsp.Raw != nil {
			sendRawRsp(w, rsp)
			return
		}
		if rsp.ContentType == "" {
			rsp.ContentType = "application/json"
		}
		if rsp.ContentType != "application/json" {
			ErrApplicationError("unsupported response type").Send(w)
			return
		}
		var location []string
		if rsp.Location != "" {
			location = append(location, rsp.Location)
		}
		SendJsonRsp(r.Context(), w, rsp.StatusCode, rsp.Response, location...)
	}
}

func sendHandlerError(w http.ResponseWriter, err error) {
	if httperror, ok := err.(*Error); ok {
		httperror.Send(w)
		return
	}
	if appErr, ok := err.(apperrors.Error); ok {
		SendError(w, appErr)
		return
	}
	ErrApplicationError(err.Error()).Send(w)
}

// SendJsonRsp serializes rsp as JSON. An optional location argument is set as
// the Location header for 201/202 responses.
func SendJsonRsp(ctx context.Context, w http.ResponseWriter, statusCode int, rsp any, location ...string) {
	w.Header().Set("Content-Type", "application/json")
	if len(location) > 0 {
		w.Header().Set("Location", location[0])
	}
	w.WriteHeader(statusCode)
	if rsp == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(rsp); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to encode response")
	}
}

func sendRawRsp(w http.ResponseWriter, rsp *Response) {
	contentType := rsp.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if rsp.AttachmentName != "" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+rsp.AttachmentName+`"`)
	}
	w.WriteHeader(rsp.StatusCode)
	w.Write(rsp.Raw)
}
