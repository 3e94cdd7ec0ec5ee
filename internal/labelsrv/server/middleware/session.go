// Package middleware holds labelsrv-specific HTTP middleware. Session
// authentication follows the embedded-app model: the frontend sends a
// short-lived session token (JWT, HS256-signed with the app's API secret)
// on every API call, and the shop the token was minted for becomes the
// tenant for the request.
package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/labelworks/labelsrv/internal/common/httpx"
	"github.com/labelworks/labelsrv/internal/labelsrv/appcommon"
	"github.com/labelworks/labelsrv/internal/labelsrv/config"
)

// SessionAuth verifies the session token and puts the resolved shop into the
// request context. The token's dest claim carries the shop origin, e.g.
// "https://example.myshopify.com".
func SessionAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if appcommon.IsTestContext(ctx) {
			next.ServeHTTP(w, r)
			return
		}

		raw := bearerToken(r)
		if raw == "" {
			httpx.ErrUnAuthorized("missing session token").Send(w)
			return
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			return []byte(config.Config().ShopifyAPISecret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil || !token.Valid {
			httpx.ErrUnAuthorized("invalid session token").Send(w)
			return
		}

		dest, _ := claims["dest"].(string)
		domain := strings.TrimPrefix(dest, "https://")
		if domain == "" || !strings.HasSuffix(domain, ".myshopify.com") {
			httpx.ErrInvalidShop().Send(w)
			return
		}

		ctx = appcommon.SetShopIdInContext(ctx, appcommon.ShopID(domain))
		ctx = appcommon.SetShopDomainInContext(ctx, domain)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return h[len(prefix):]
	}
	return ""
}
