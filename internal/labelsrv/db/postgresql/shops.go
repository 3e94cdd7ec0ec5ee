package postgresql

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog/log"

	"github.com/labelworks/labelsrv/internal/common/apperrors"
	"github.com/labelworks/labelsrv/internal/labelsrv/appcommon"
	"github.com/labelworks/labelsrv/internal/labelsrv/db/dberror"
	"github.com/labelworks/labelsrv/internal/labelsrv/db/models"
)

func (s *labelStore) UpsertShop(ctx context.Context, shop *models.Shop) apperrors.Error {
	if err := shop.Validate(); err != nil {
		return dberror.ErrInvalidInput.Err(err)
	}

	query := `
		INSERT INTO shops (domain, access_token_enc, scope)
		VALUES ($1, $2, $3)
		ON CONFLICT (domain) DO UPDATE
		SET access_token_enc = EXCLUDED.access_token_enc,
		    scope = EXCLUDED.scope,
		    updated_at = now()
		RETURNING installed_at, updated_at`

	errDb := s.db.QueryRowContext(ctx, query,
		shop.Domain, shop.AccessTokenEnc, shop.Scope).
		Scan(&shop.InstalledAt, &shop.UpdatedAt)

	if errDb != nil {
		log.Ctx(ctx).Error().Err(errDb).Str("shop", string(shop.Domain)).Msg("failed to upsert shop")
		return dberror.ErrDatabase.Err(errDb)
	}

	return nil
}

func (s *labelStore) GetShop(ctx context.Context, domain appcommon.ShopID) (*models.Shop, apperrors.Error) {
	if domain.IsNil() {
		return nil, dberror.ErrMissingShopID
	}

	query := `
		SELECT domain, access_token_enc, scope, installed_at, updated_at
		FROM shops
		WHERE domain = $1`

	shop := &models.Shop{}
	errDb := s.db.QueryRowContext(ctx, query, domain).
		Scan(&shop.Domain, &shop.AccessTokenEnc, &shop.Scope, &shop.InstalledAt, &shop.UpdatedAt)

	if errDb != nil {
		if errDb == sql.ErrNoRows {
			log.Ctx(ctx).Info().Str("shop", string(domain)).Msg("shop not found")
			return nil, dberror.ErrNotFound.Msg("shop not found")
		}
		log.Ctx(ctx).Error().Err(errDb).Str("shop", string(domain)).Msg("failed to get shop")
		return nil, dberror.ErrDatabase.Err(errDb)
	}

	return shop, nil
}

func (s *labelStore) DeleteShop(ctx context.Context, domain appcommon.ShopID) apperrors.Error {
	if domain.IsNil() {
		return dberror.ErrMissingShopID
	}

	result, errDb := s.db.ExecContext(ctx, `DELETE FROM shops WHERE domain = $1`, domain)
	if errDb != nil {
		log.Ctx(ctx).Error().Err(errDb).Str("shop", string(domain)).Msg("failed to delete shop")
		return dberror.ErrDatabase.Err(errDb)
	}

	rowsAffected, errDb := result.RowsAffected()
	if errDb != nil {
		log.Ctx(ctx).Error().Err(errDb).Msg("failed to get rows affected")
		return dberror.ErrDatabase.Err(errDb)
	}

	if rowsAffected == 0 {
		log.Ctx(ctx).Info().Str("shop", string(domain)).Msg("shop not found")
		return dberror.ErrNotFound.Msg("shop not found")
	}

	return nil
}
