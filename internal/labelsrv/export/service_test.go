package export

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labelworks/labelsrv/internal/common/apperrors"
	"github.com/labelworks/labelsrv/internal/labelsrv/db/dberror"
	"github.com/labelworks/labelsrv/internal/labelsrv/db/memory"
	"github.com/labelworks/labelsrv/internal/labelsrv/db/models"
)

const testShop = "labels-demo.myshopify.com"

func TestIssueThenRedeemRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.New(), DefaultTokenTTL)

	export, err := svc.Issue(ctx, testShop, []byte(`[{"a":1}]`), "export.xlsx")
	require.Nil(t, err)
	assert.NotEmpty(t, export.Token)
	assert.Equal(t, "/download?token="+export.Token, export.Path)
	assert.Equal(t, "export.xlsx", export.ArtifactName)

	row, err := svc.Redeem(ctx, export.Token)
	require.Nil(t, err)
	assert.Equal(t, []byte(`[{"a":1}]`), row.Payload)
	assert.Equal(t, "export.xlsx", row.ArtifactName)
}

func TestRedeemIsOneTime(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.New(), DefaultTokenTTL)

	export, err := svc.Issue(ctx, testShop, []byte(`[{"a":1}]`), "export.xlsx")
	require.Nil(t, err)

	_, err = svc.Redeem(ctx, export.Token)
	require.Nil(t, err)

	_, second := svc.Redeem(ctx, export.Token)
	require.NotNil(t, second)
	assert.ErrorIs(t, second, ErrTokenRejected)

	_, unknown := svc.Redeem(ctx, "not-a-real-token")
	require.NotNil(t, unknown)
	assert.ErrorIs(t, unknown, ErrTokenRejected)
	assert.Equal(t, second.StatusCode(), unknown.StatusCode())
}

func TestConcurrentRedeemAtMostOnce(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.New(), DefaultTokenTTL)

	export, err := svc.Issue(ctx, testShop, []byte("payload"), "labels.csv")
	require.Nil(t, err)

	const callers = 16
	var wins int32
	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			if _, err := svc.Redeem(ctx, export.Token); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)
}

func TestRedeemExpiryBoundary(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewService(store, DefaultTokenTTL)

	t0 := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	// Just inside the window.
	svc.now = func() time.Time { return t0 }
	export, err := svc.Issue(ctx, testShop, []byte("payload"), "labels.csv")
	require.Nil(t, err)

	svc.now = func() time.Time { return t0.Add(14*time.Minute + 59*time.Second) }
	_, err = svc.Redeem(ctx, export.Token)
	assert.Nil(t, err)

	// Just past the window.
	svc.now = func() time.Time { return t0 }
	export, err = svc.Issue(ctx, testShop, []byte("payload"), "labels.csv")
	require.Nil(t, err)

	svc.now = func() time.Time { return t0.Add(15*time.Minute + time.Second) }
	_, err = svc.Redeem(ctx, export.Token)
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.ErrorIs(t, err, ErrTokenRejected)

	// The expired row was destroyed by the take, not just rejected.
	_, err = svc.Redeem(ctx, export.Token)
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrTokenNotFound)
	assert.Equal(t, 0, store.TokenCount())
}

func TestIssueValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.New(), DefaultTokenTTL)

	_, err := svc.Issue(ctx, testShop, nil, "labels.csv")
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Issue(ctx, "", []byte("payload"), "labels.csv")
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestIssueDefaultsArtifactName(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.New(), DefaultTokenTTL)

	export, err := svc.Issue(ctx, testShop, []byte("payload"), "")
	require.Nil(t, err)
	assert.Equal(t, defaultArtifactName, export.ArtifactName)
}

func TestIssueTokensAreDistinct(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.New(), DefaultTokenTTL)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		export, err := svc.Issue(ctx, testShop, []byte("payload"), "labels.csv")
		require.Nil(t, err)
		assert.False(t, seen[export.Token])
		seen[export.Token] = true
	}
}

func TestRedeemMissingToken(t *testing.T) {
	svc := NewService(memory.New(), DefaultTokenTTL)
	_, err := svc.Redeem(context.Background(), "")
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrTokenRejected)
}

func TestSweepDeletesOnlyExpired(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewService(store, DefaultTokenTTL)

	t0 := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return t0 }
	_, err := svc.Issue(ctx, testShop, []byte("abandoned"), "labels.csv")
	require.Nil(t, err)

	svc.now = func() time.Time { return t0.Add(20 * time.Minute) }
	fresh, err := svc.Issue(ctx, testShop, []byte("fresh"), "labels.csv")
	require.Nil(t, err)

	deleted, err := svc.Sweep(ctx)
	require.Nil(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = svc.Redeem(ctx, fresh.Token)
	assert.Nil(t, err)
}

// failingTokenStore simulates a store outage.
type failingTokenStore struct{}

func (f *failingTokenStore) CreateDownloadToken(ctx context.Context, token *models.DownloadToken) apperrors.Error {
	return dberror.ErrDatabase.Msg("connection refused")
}

func (f *failingTokenStore) TakeDownloadToken(ctx context.Context, token string) (*models.DownloadToken, apperrors.Error) {
	return nil, dberror.ErrDatabase.Msg("connection refused")
}

func (f *failingTokenStore) DeleteExpiredDownloadTokens(ctx context.Context, cutoff time.Time) (int64, apperrors.Error) {
	return 0, dberror.ErrDatabase.Msg("connection refused")
}

func TestStoreFailuresSurfaceAsPersistence(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&failingTokenStore{}, DefaultTokenTTL)

	_, err := svc.Issue(ctx, testShop, []byte("payload"), "labels.csv")
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrPersistence)

	_, err = svc.Redeem(ctx, "some-token")
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.NotErrorIs(t, err, ErrTokenRejected)

	_, err = svc.Sweep(ctx)
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrPersistence)
}
