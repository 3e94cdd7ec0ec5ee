// Package server wires the HTTP surface of labelsrv: the session-scoped API
// under /api, the unauthenticated one-time download route, and the version
// endpoint. All persistence goes through the db.Store passed at construction.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/labelworks/labelsrv/internal/common/httpx"
	"github.com/labelworks/labelsrv/internal/common/logtrace"
	commonmiddleware "github.com/labelworks/labelsrv/internal/common/middleware"
	"github.com/labelworks/labelsrv/internal/labelsrv/appcommon"
	"github.com/labelworks/labelsrv/internal/labelsrv/catalog"
	"github.com/labelworks/labelsrv/internal/labelsrv/config"
	"github.com/labelworks/labelsrv/internal/labelsrv/db"
	"github.com/labelworks/labelsrv/internal/labelsrv/db/dberror"
	"github.com/labelworks/labelsrv/internal/labelsrv/export"
	"github.com/labelworks/labelsrv/internal/labelsrv/security"
	"github.com/labelworks/labelsrv/internal/labelsrv/server/middleware"
)

// CatalogFactory builds a catalog client for a shop's stored credentials.
// Tests swap in a fake.
type CatalogFactory func(shopDomain, accessToken string) catalog.Client

type LabelServer struct {
	Router *chi.Mux

	store              db.Store
	exports            *export.Service
	catalogFor         CatalogFactory
	maxBarcodeAttempts int
}

func CreateNewServer(store db.Store) (*LabelServer, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	s := &LabelServer{
		store:              store,
		exports:            export.NewService(store, config.Config().TokenTTLDuration()),
		maxBarcodeAttempts: config.Config().MaxBarcodeRetries,
		catalogFor: func(shopDomain, accessToken string) catalog.Client {
			return catalog.NewShopifyClient(shopDomain, accessToken, config.Config().ShopifyAPIVersion)
		},
	}
	s.Router = chi.NewRouter()
	return s, nil
}

// Exports exposes the export service so main can run the background sweeper
// against the same instance the handlers use.
func (s *LabelServer) Exports() *export.Service {
	return s.exports
}

func (s *LabelServer) MountHandlers() {
	s.Router.Use(commonmiddleware.RequestLogger)
	s.Router.Use(commonmiddleware.PanicHandler)
	if config.Config().HandleCORS {
		s.Router.Use(s.HandleCORS)
	}
	s.Router.Route("/api", s.mountAPIHandlers)
	s.Router.Get(export.DownloadPath, httpx.WrapHttpRsp(s.getDownload))
	s.Router.Get("/version", s.getVersion)
	if logtrace.IsTraceEnabled() {
		fmt.Println("Routes in router")
		walkFunc := func(method string, route string, handler http.Handler, middlewares ...func(http.Handler) http.Handler) error {
			fmt.Printf("%s %s\n", method, route)
			return nil
		}
		if err := chi.Walk(s.Router, walkFunc); err != nil {
			log.Error().Err(err).Msg("Error walking router")
		}
	}
}

func (s *LabelServer) mountAPIHandlers(r chi.Router) {
	r.Use(middleware.SessionAuth)
	handlers := []httpx.ResponseHandlerParam{
		{
			Method:  http.MethodPost,
			Path:    "/exports",
			Handler: s.createExport,
		},
		{
			Method:  http.MethodPost,
			Path:    "/barcodes",
			Handler: s.allocateBarcode,
		},
		{
			Method:  http.MethodGet,
			Path:    "/variants",
			Handler: s.listVariants,
		},
	}
	for _, handler := range handlers {
		r.Method(handler.Method, handler.Path, httpx.WrapHttpRsp(handler.Handler))
	}
}

// catalogForShop resolves the request's shop to a catalog client using the
// credentials stored at install time.
func (s *LabelServer) catalogForShop(ctx context.Context) (catalog.Client, error) {
	shopID := appcommon.ShopIdFromContext(ctx)
	if shopID.IsNil() {
		return nil, httpx.ErrInvalidShop()
	}
	shop, err := s.store.GetShop(ctx, shopID)
	if err != nil {
		if errors.Is(err, dberror.ErrNotFound) {
			return nil, httpx.ErrForbidden("shop is not installed")
		}
		return nil, err
	}

	accessToken := shop.AccessTokenEnc
	if keyB64 := config.Config().TokenCryptKey; keyB64 != "" {
		key, kerr := security.LoadKeyFromBase64(keyB64)
		if kerr != nil {
			log.Ctx(ctx).Error().Err(kerr).Msg("invalid token crypt key")
			return nil, httpx.ErrApplicationError()
		}
		accessToken, kerr = security.DecryptAESGCM(key, shop.AccessTokenEnc)
		if kerr != nil {
			log.Ctx(ctx).Error().Err(kerr).Str("shop", string(shop.Domain)).Msg("failed to decrypt access token")
			return nil, httpx.ErrApplicationError()
		}
	}

	return s.catalogFor(string(shop.Domain), accessToken), nil
}

type GetVersionRsp struct {
	ServerVersion string `json:"serverVersion"`
	ApiVersion    string `json:"apiVersion"`
}

func (s *LabelServer) getVersion(w http.ResponseWriter, r *http.Request) {
	log.Ctx(r.Context()).Debug().Msg("GetVersion")
	rsp := &GetVersionRsp{
		ServerVersion: "Label Service: 0.1.0",
		ApiVersion:    "v1",
	}
	httpx.SendJsonRsp(r.Context(), w, http.StatusOK, rsp)
}

func (s *LabelServer) HandleCORS(next http.Handler) http.Handler {
	origin := config.Config().AllowedOrigin
	if origin == "" {
		origin = "*"
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   []string{origin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length", "Accept-Encoding"},
		ExposedHeaders:   []string{"Link", "Location", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	})(next)
}
