package models

import (
	"time"

	"github.com/labelworks/labelsrv/internal/labelsrv/appcommon"
	"github.com/labelworks/labelsrv/internal/labelsrv/db/dberror"
)

// Shop is an installed store. The myshopify domain doubles as the tenant ID.
// AccessTokenEnc holds the Admin API access token encrypted with AES-GCM;
// the plain token never reaches the database.
type Shop struct {
	Domain         appcommon.ShopID `json:"domain"`
	AccessTokenEnc string           `json:"-"`
	Scope          string           `json:"scope"`
	InstalledAt    time.Time        `json:"installed_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

func (s *Shop) Validate() error {
	if s.Domain.IsNil() {
		return dberror.ErrMissingShopID
	}
	if s.AccessTokenEnc == "" {
		return dberror.ErrInvalidInput.Msg("access token is required")
	}
	return nil
}
