package postgresql

import (
	"context"
	"database/sql"
	"time"

	"github.com/golang/snappy"
	"github.com/jackc/pgconn"
	"github.com/rs/zerolog/log"

	"github.com/labelworks/labelsrv/internal/common/apperrors"
	"github.com/labelworks/labelsrv/internal/labelsrv/config"
	"github.com/labelworks/labelsrv/internal/labelsrv/db/dberror"
	"github.com/labelworks/labelsrv/internal/labelsrv/db/models"
)

func (s *labelStore) CreateDownloadToken(ctx context.Context, token *models.DownloadToken) apperrors.Error {
	if err := token.Validate(); err != nil {
		return dberror.ErrInvalidInput.Err(err)
	}

	payload := token.Payload
	if config.Config().CompressPayloads {
		payload = snappy.Encode(nil, token.Payload)
		log.Ctx(ctx).Debug().Msgf("raw: %d, compressed: %d", len(token.Payload), len(payload))
	}

	query := `
		INSERT INTO download_tokens (token, shop_domain, payload, artifact_name)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	errDb := s.db.QueryRowContext(ctx, query,
		token.Token, token.ShopID, payload, token.ArtifactName).
		Scan(&token.CreatedAt)

	if errDb != nil {
		if pgErr, ok := errDb.(*pgconn.PgError); ok {
			if pgErr.Code == "23505" && pgErr.ConstraintName == "download_tokens_pkey" {
				log.Ctx(ctx).Error().Str("token", token.Token).Msg("download token collision")
				return dberror.ErrAlreadyExists.Msg("download token already exists")
			}
		}
		log.Ctx(ctx).Error().Err(errDb).Msg("failed to create download token")
		return dberror.ErrDatabase.Err(errDb)
	}

	return nil
}

// TakeDownloadToken deletes the row and returns it in a single statement.
// DELETE ... RETURNING gives the at-most-once guarantee: of two concurrent
// takes, exactly one sees the row and the other sees no rows.
func (s *labelStore) TakeDownloadToken(ctx context.Context, token string) (*models.DownloadToken, apperrors.Error) {
	query := `
		DELETE FROM download_tokens
		WHERE token = $1
		RETURNING token, shop_domain, payload, artifact_name, created_at`

	row := &models.DownloadToken{}
	errDb := s.db.QueryRowContext(ctx, query, token).
		Scan(&row.Token, &row.ShopID, &row.Payload, &row.ArtifactName, &row.CreatedAt)

	if errDb != nil {
		if errDb == sql.ErrNoRows {
			log.Ctx(ctx).Info().Msg("download token not found")
			return nil, dberror.ErrNotFound.Msg("download token not found")
		}
		log.Ctx(ctx).Error().Err(errDb).Msg("failed to take download token")
		return nil, dberror.ErrDatabase.Err(errDb)
	}

	if config.Config().CompressPayloads {
		payload, err := snappy.Decode(nil, row.Payload)
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("failed to uncompress download token payload")
			return nil, dberror.ErrDatabase.Err(err)
		}
		row.Payload = payload
	}

	return row, nil
}

func (s *labelStore) DeleteExpiredDownloadTokens(ctx context.Context, cutoff time.Time) (int64, apperrors.Error) {
	query := `
		DELETE FROM download_tokens
		WHERE created_at < $1`

	result, errDb := s.db.ExecContext(ctx, query, cutoff)
	if errDb != nil {
		log.Ctx(ctx).Error().Err(errDb).Msg("failed to delete expired download tokens")
		return 0, dberror.ErrDatabase.Err(errDb)
	}

	rowsAffected, errDb := result.RowsAffected()
	if errDb != nil {
		log.Ctx(ctx).Error().Err(errDb).Msg("failed to get rows affected")
		return 0, dberror.ErrDatabase.Err(errDb)
	}

	return rowsAffected, nil
}
