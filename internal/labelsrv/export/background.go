package export

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Sweeper periodically deletes expired download tokens. It is optional:
// Redeem expires tokens lazily on access, the sweeper only bounds storage
// growth from exports that are never downloaded.
type Sweeper struct {
	service  *Service
	interval time.Duration
}

func NewSweeper(service *Service, interval time.Duration) *Sweeper {
	return &Sweeper{
		service:  service,
		interval: interval,
	}
}

// Run blocks until ctx is cancelled, sweeping once per interval.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	log.Ctx(ctx).Info().Dur("interval", s.interval).Msg("starting download token sweeper")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Ctx(ctx).Info().Msg("stopping download token sweeper")
			return
		case <-ticker.C:
			deleted, err := s.service.Sweep(ctx)
			if err != nil {
				log.Ctx(ctx).Error().Err(err).Msg("failed to sweep expired download tokens")
				continue
			}
			if deleted > 0 {
				log.Ctx(ctx).Info().Int64("deleted", deleted).Msg("swept expired download tokens")
			}
		}
	}
}
