// Package postgresql implements the labelsrv persistence ports against
// Postgres via the pgx stdlib driver.
//
// Expected schema:
//
//	CREATE TABLE shops (
//	    domain           TEXT PRIMARY KEY,
//	    access_token_enc TEXT NOT NULL,
//	    scope            TEXT NOT NULL DEFAULT '',
//	    installed_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
//	    updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//
//	CREATE TABLE download_tokens (
//	    token         TEXT PRIMARY KEY,
//	    shop_domain   TEXT NOT NULL REFERENCES shops (domain) ON DELETE CASCADE,
//	    payload       BYTEA NOT NULL,
//	    artifact_name TEXT NOT NULL DEFAULT '',
//	    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//	CREATE INDEX download_tokens_shop_domain_idx ON download_tokens (shop_domain);
//	CREATE INDEX download_tokens_created_at_idx ON download_tokens (created_at);
package postgresql

import (
	"database/sql"

	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/rs/zerolog/log"
)

type labelStore struct {
	db *sql.DB
}

// New opens a connection pool against dsn and verifies it with a ping.
func New(dsn string) (*labelStore, error) {
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Error().Err(err).Msg("failed to open db")
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		log.Error().Err(err).Msg("failed to ping db")
		return nil, err
	}
	return &labelStore{db: sqlDB}, nil
}

func (s *labelStore) Close() error {
	return s.db.Close()
}
