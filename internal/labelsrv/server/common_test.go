package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/labelworks/labelsrv/internal/common/apperrors"
	"github.com/labelworks/labelsrv/internal/labelsrv/appcommon"
	"github.com/labelworks/labelsrv/internal/labelsrv/catalog"
	"github.com/labelworks/labelsrv/internal/labelsrv/db"
	"github.com/labelworks/labelsrv/internal/labelsrv/db/memory"
	"github.com/labelworks/labelsrv/internal/labelsrv/db/models"
)

const testShopDomain = "labels-demo.myshopify.com"

// fakeCatalog is a scriptable catalog.Client.
type fakeCatalog struct {
	variants   []catalog.Variant
	inUse      map[string]bool
	collideAll bool

	searchErr apperrors.Error
	checkErr  apperrors.Error
	writeErr  apperrors.Error

	written map[string]string // variant ID -> barcode
}

func (f *fakeCatalog) SearchVariants(ctx context.Context, query string, first int) ([]catalog.Variant, apperrors.Error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if first < len(f.variants) {
		return f.variants[:first], nil
	}
	return f.variants, nil
}

func (f *fakeCatalog) BarcodeInUse(ctx context.Context, barcode string) (bool, apperrors.Error) {
	if f.checkErr != nil {
		return false, f.checkErr
	}
	if f.collideAll {
		return true, nil
	}
	return f.inUse[barcode], nil
}

func (f *fakeCatalog) SetVariantBarcode(ctx context.Context, ref catalog.VariantRef, barcode string) apperrors.Error {
	if f.writeErr != nil {
		return f.writeErr
	}
	if f.written == nil {
		f.written = map[string]string{}
	}
	f.written[ref.VariantID] = barcode
	return nil
}

// testEnv bundles a server, its store, and the fake catalog behind it.
type testEnv struct {
	server  *LabelServer
	store   db.Store
	catalog *fakeCatalog

	// credentials the catalog factory was last called with
	factoryDomain string
	factoryToken  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		store:   memory.New(),
		catalog: &fakeCatalog{},
	}
	s, err := CreateNewServer(env.store)
	require.NoError(t, err)
	s.catalogFor = func(shopDomain, accessToken string) catalog.Client {
		env.factoryDomain = shopDomain
		env.factoryToken = accessToken
		return env.catalog
	}
	s.MountHandlers()
	env.server = s
	return env
}

func (env *testEnv) installShop(t *testing.T, accessTokenEnc string) {
	t.Helper()
	err := env.store.UpsertShop(context.Background(), &models.Shop{
		Domain:         testShopDomain,
		AccessTokenEnc: accessTokenEnc,
		Scope:          "read_products,write_products",
	})
	require.Nil(t, err)
}

// executeTestRequest runs req through the router. When asShop is set, the
// request context carries the shop and the test flag that bypasses session
// token verification.
func (env *testEnv) executeTestRequest(req *http.Request, asShop appcommon.ShopID) *httptest.ResponseRecorder {
	if !asShop.IsNil() {
		ctx := req.Context()
		ctx = appcommon.SetShopIdInContext(ctx, asShop)
		ctx = appcommon.SetShopDomainInContext(ctx, string(asShop))
		ctx = appcommon.SetTestContext(ctx, true)
		req = req.WithContext(ctx)
	}
	rr := httptest.NewRecorder()
	env.server.Router.ServeHTTP(rr, req)
	return rr
}

func newJSONRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeJSONBody(t *testing.T, rr *httptest.ResponseRecorder, into any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rr.Body).Decode(into))
}
