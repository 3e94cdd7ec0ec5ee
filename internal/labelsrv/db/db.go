// Package db defines the persistence ports for labelsrv. The ports are
// threaded explicitly through service constructors; there is no ambient
// database singleton. The postgresql subpackage implements them against
// Postgres, the memory subpackage against an in-process map for tests.
package db

import (
	"context"
	"time"

	"github.com/labelworks/labelsrv/internal/common/apperrors"
	"github.com/labelworks/labelsrv/internal/labelsrv/appcommon"
	"github.com/labelworks/labelsrv/internal/labelsrv/db/models"
)

// TokenManager is the persistence port for one-time download tokens.
type TokenManager interface {
	// CreateDownloadToken persists a new token row. The row is durable when
	// the call returns without error.
	CreateDownloadToken(ctx context.Context, token *models.DownloadToken) apperrors.Error

	// TakeDownloadToken reads and deletes the row for token in one atomic
	// step. Concurrent takes of the same token agree that at most one
	// receives the row; every other caller gets dberror.ErrNotFound. The
	// caller owns the expiry decision: an expired row is still returned
	// (and is gone from the store by then).
	TakeDownloadToken(ctx context.Context, token string) (*models.DownloadToken, apperrors.Error)

	// DeleteExpiredDownloadTokens removes every row created before cutoff,
	// returning the number of rows removed. Idempotent and safe to run
	// concurrently with creates and takes.
	DeleteExpiredDownloadTokens(ctx context.Context, cutoff time.Time) (int64, apperrors.Error)
}

// ShopManager is the persistence port for the shop registry.
type ShopManager interface {
	UpsertShop(ctx context.Context, shop *models.Shop) apperrors.Error
	GetShop(ctx context.Context, domain appcommon.ShopID) (*models.Shop, apperrors.Error)
	DeleteShop(ctx context.Context, domain appcommon.ShopID) apperrors.Error
}

// Store aggregates the ports a fully wired server needs.
type Store interface {
	TokenManager
	ShopManager
	Close() error
}
