// Package export implements the one-time download flow for generated label
// sheets. Issuing runs inside an authenticated session and stores the
// rendered artifact under a fresh random token; redemption runs on an
// unauthenticated route (the embedded app opens it in an external browser
// context, where the session cannot follow) and consumes the token. A token
// is redeemable at most once and only within its TTL.
package export

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/labelworks/labelsrv/internal/common/apperrors"
	"github.com/labelworks/labelsrv/internal/labelsrv/appcommon"
	"github.com/labelworks/labelsrv/internal/labelsrv/db"
	"github.com/labelworks/labelsrv/internal/labelsrv/db/dberror"
	"github.com/labelworks/labelsrv/internal/labelsrv/db/models"
)

const (
	DefaultTokenTTL     = 15 * time.Minute
	DownloadPath        = "/download"
	defaultArtifactName = "labels.csv"
)

var (
	ErrValidation apperrors.Error = apperrors.New("invalid export request").
			SetStatusCode(http.StatusBadRequest)

	ErrPersistence apperrors.Error = apperrors.New("failed to persist export").
			SetStatusCode(http.StatusInternalServerError)

	// ErrTokenRejected covers every redemption failure. Unknown, already
	// consumed, and expired tokens are deliberately indistinguishable to
	// the outside; the two derived errors below exist for logs and tests
	// only and must never leak distinct responses.
	ErrTokenRejected apperrors.Error = apperrors.New("download link is invalid or has expired").
				SetStatusCode(http.StatusForbidden)
	ErrTokenNotFound apperrors.Error = ErrTokenRejected.New("download token not found")
	ErrTokenExpired  apperrors.Error = ErrTokenRejected.New("download token expired")
)

// Export is the issuing result handed back to the embedded app.
type Export struct {
	Token        string `json:"token"`
	Path         string `json:"path"`
	ArtifactName string `json:"artifact_name"`
}

// Service issues, redeems, and sweeps one-time download tokens. All state
// lives in the token store; the service itself is safe for concurrent use.
type Service struct {
	tokens db.TokenManager
	ttl    time.Duration
	now    func() time.Time
}

func NewService(tokens db.TokenManager, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Service{
		tokens: tokens,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue stores payload under a fresh token and returns the token together
// with the retrieval path. The row is durable before Issue returns, so the
// token can be redeemed the moment the caller sees it.
func (s *Service) Issue(ctx context.Context, shopID appcommon.ShopID, payload []byte, artifactName string) (*Export, apperrors.Error) {
	if shopID.IsNil() {
		return nil, ErrValidation.Msg("shop is required")
	}
	if len(payload) == 0 {
		return nil, ErrValidation.Msg("payload is required")
	}
	if artifactName == "" {
		artifactName = defaultArtifactName
	}

	token := uuid.NewString()
	row := &models.DownloadToken{
		Token:        token,
		ShopID:       shopID,
		Payload:      payload,
		ArtifactName: artifactName,
		CreatedAt:    s.now(),
	}
	if err := s.tokens.CreateDownloadToken(ctx, row); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("shop", string(shopID)).Msg("failed to issue download token")
		return nil, ErrPersistence.Err(err)
	}

	return &Export{
		Token:        token,
		Path:         DownloadPath + "?token=" + token,
		ArtifactName: artifactName,
	}, nil
}

// Redeem takes the row for token out of the store and returns it. The take
// is atomic, so concurrent redemptions of the same token agree that at most
// one succeeds. A row found past its TTL is already gone by the time the
// expiry is noticed; the caller gets ErrTokenExpired, which presents to the
// outside exactly like ErrTokenNotFound.
func (s *Service) Redeem(ctx context.Context, token string) (*models.DownloadToken, apperrors.Error) {
	if token == "" {
		return nil, ErrValidation.Msg("token is required")
	}

	row, err := s.tokens.TakeDownloadToken(ctx, token)
	if err != nil {
		if errors.Is(err, dberror.ErrNotFound) {
			return nil, ErrTokenNotFound
		}
		log.Ctx(ctx).Error().Err(err).Msg("failed to take download token")
		return nil, ErrPersistence.Err(err)
	}

	if s.now().Sub(row.CreatedAt) > s.ttl {
		log.Ctx(ctx).Info().Str("shop", string(row.ShopID)).Msg("download token expired on access")
		return nil, ErrTokenExpired
	}

	return row, nil
}

// Sweep deletes every token older than the TTL, bounding storage growth from
// abandoned exports. Redeem self-expires on access, so sweeping is purely
// housekeeping; it is idempotent and safe alongside Issue and Redeem.
func (s *Service) Sweep(ctx context.Context) (int64, apperrors.Error) {
	deleted, err := s.tokens.DeleteExpiredDownloadTokens(ctx, s.now().Add(-s.ttl))
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to sweep expired download tokens")
		return 0, ErrPersistence.Err(err)
	}
	return deleted, nil
}
