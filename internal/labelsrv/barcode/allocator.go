// Package barcode allocates label barcodes for catalog variants. A candidate
// is a uniform random 8-digit number checked against the catalog before it is
// written, so an allocated value was unused at the moment of its check. The
// check and the write are two separate catalog calls with no transactional
// linkage; two concurrent allocations could in principle both pass the check
// with the same candidate. With 90 million candidates per shop that residual
// risk is accepted.
package barcode

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"

	"github.com/labelworks/labelsrv/internal/common/apperrors"
	"github.com/labelworks/labelsrv/internal/labelsrv/catalog"
)

// Candidates are drawn from [10_000_000, 99_999_999]: always eight digits,
// never a leading zero.
const (
	barcodeMin = 10_000_000
	barcodeMax = 99_999_999
)

const DefaultMaxAttempts = 10

var (
	ErrAllocation apperrors.Error = apperrors.New("barcode allocation failed").
			SetStatusCode(http.StatusInternalServerError)

	// ErrAllocationExhausted means every candidate in the attempt budget
	// collided. A fresh call draws a fresh random sequence, so the caller
	// reports failure rather than silently enlarging the budget.
	ErrAllocationExhausted apperrors.Error = ErrAllocation.New("could not allocate a unique barcode").
				SetStatusCode(http.StatusConflict)
)

// errBarcodeTaken marks a collision inside the retry loop. Collisions are
// part of the normal algorithm, not failures, and are the only retried case.
var errBarcodeTaken = errors.New("barcode already in use")

type Allocator struct {
	catalog     catalog.Client
	maxAttempts int
}

func NewAllocator(client catalog.Client, maxAttempts int) *Allocator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Allocator{
		catalog:     client,
		maxAttempts: maxAttempts,
	}
}

// Allocate produces a barcode unused in the shop's catalog at check time and
// persists it onto ref. Collisions retry with a new candidate up to the
// attempt budget; catalog failures abort immediately.
func (a *Allocator) Allocate(ctx context.Context, ref catalog.VariantRef) (string, apperrors.Error) {
	var allocated string

	err := retry.Do(func() error {
		candidate, err := randomCandidate()
		if err != nil {
			return ErrAllocation.Err(err)
		}

		inUse, cerr := a.catalog.BarcodeInUse(ctx, candidate)
		if cerr != nil {
			return cerr
		}
		if inUse {
			log.Ctx(ctx).Debug().Str("candidate", candidate).Msg("barcode candidate collided")
			return errBarcodeTaken
		}

		if cerr := a.catalog.SetVariantBarcode(ctx, ref, candidate); cerr != nil {
			return cerr
		}
		allocated = candidate
		return nil
	},
		retry.Attempts(uint(a.maxAttempts)),
		retry.RetryIf(func(err error) bool { return errors.Is(err, errBarcodeTaken) }),
		retry.Delay(time.Millisecond),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)

	if err != nil {
		if errors.Is(err, errBarcodeTaken) {
			log.Ctx(ctx).Warn().Int("attempts", a.maxAttempts).Msg("barcode allocation exhausted")
			return "", ErrAllocationExhausted
		}
		if appErr, ok := err.(apperrors.Error); ok {
			return "", appErr
		}
		return "", ErrAllocation.Err(err)
	}
	return allocated, nil
}

func randomCandidate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(barcodeMax-barcodeMin+1))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(barcodeMin+n.Int64(), 10), nil
}
