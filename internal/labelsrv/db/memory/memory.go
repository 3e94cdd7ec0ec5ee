// Package memory implements the labelsrv persistence ports with in-process
// maps. It backs unit tests and gives the token take the same at-most-once
// contract as the Postgres DELETE ... RETURNING path, guarded by a mutex.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/labelworks/labelsrv/internal/common/apperrors"
	"github.com/labelworks/labelsrv/internal/labelsrv/appcommon"
	"github.com/labelworks/labelsrv/internal/labelsrv/db/dberror"
	"github.com/labelworks/labelsrv/internal/labelsrv/db/models"
)

type labelStore struct {
	mu     sync.Mutex
	tokens map[string]models.DownloadToken
	shops  map[appcommon.ShopID]models.Shop
}

func New() *labelStore {
	return &labelStore{
		tokens: make(map[string]models.DownloadToken),
		shops:  make(map[appcommon.ShopID]models.Shop),
	}
}

func (s *labelStore) Close() error {
	return nil
}

func (s *labelStore) CreateDownloadToken(ctx context.Context, token *models.DownloadToken) apperrors.Error {
	if err := token.Validate(); err != nil {
		return dberror.ErrInvalidInput.Err(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tokens[token.Token]; ok {
		return dberror.ErrAlreadyExists.Msg("download token already exists")
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}
	s.tokens[token.Token] = *token
	return nil
}

func (s *labelStore) TakeDownloadToken(ctx context.Context, token string) (*models.DownloadToken, apperrors.Error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.tokens[token]
	if !ok {
		return nil, dberror.ErrNotFound.Msg("download token not found")
	}
	delete(s.tokens, token)
	return &row, nil
}

func (s *labelStore) DeleteExpiredDownloadTokens(ctx context.Context, cutoff time.Time) (int64, apperrors.Error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for key, row := range s.tokens {
		if row.CreatedAt.Before(cutoff) {
			delete(s.tokens, key)
			deleted++
		}
	}
	return deleted, nil
}

func (s *labelStore) UpsertShop(ctx context.Context, shop *models.Shop) apperrors.Error {
	if err := shop.Validate(); err != nil {
		return dberror.ErrInvalidInput.Err(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if existing, ok := s.shops[shop.Domain]; ok {
		shop.InstalledAt = existing.InstalledAt
	} else {
		shop.InstalledAt = now
	}
	shop.UpdatedAt = now
	s.shops[shop.Domain] = *shop
	return nil
}

func (s *labelStore) GetShop(ctx context.Context, domain appcommon.ShopID) (*models.Shop, apperrors.Error) {
	if domain.IsNil() {
		return nil, dberror.ErrMissingShopID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	shop, ok := s.shops[domain]
	if !ok {
		return nil, dberror.ErrNotFound.Msg("shop not found")
	}
	return &shop, nil
}

func (s *labelStore) DeleteShop(ctx context.Context, domain appcommon.ShopID) apperrors.Error {
	if domain.IsNil() {
		return dberror.ErrMissingShopID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.shops[domain]; !ok {
		return dberror.ErrNotFound.Msg("shop not found")
	}
	delete(s.shops, domain)
	return nil
}

// TokenCount reports the number of live token rows. Test helper.
func (s *labelStore) TokenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}
