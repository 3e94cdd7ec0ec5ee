package models

import (
	"time"

	"github.com/labelworks/labelsrv/internal/labelsrv/appcommon"
	"github.com/labelworks/labelsrv/internal/labelsrv/db/dberror"
)

// DownloadToken is a single pending one-time export. A row is never updated:
// it is taken (read and deleted in one step) by redemption, or deleted by the
// sweeper once expired.
type DownloadToken struct {
	Token        string           `json:"token"`
	ShopID       appcommon.ShopID `json:"shop_id"`
	Payload      []byte           `json:"payload"`
	ArtifactName string           `json:"artifact_name"`
	CreatedAt    time.Time        `json:"created_at"`
}

func (t *DownloadToken) Validate() error {
	if t.Token == "" {
		return dberror.ErrInvalidInput.Msg("token is required")
	}
	if t.ShopID.IsNil() {
		return dberror.ErrMissingShopID
	}
	if len(t.Payload) == 0 {
		return dberror.ErrInvalidInput.Msg("payload is required")
	}
	return nil
}

// ExpiresAt returns the instant the token stops being redeemable.
func (t *DownloadToken) ExpiresAt(ttl time.Duration) time.Time {
	return t.CreatedAt.Add(ttl)
}
