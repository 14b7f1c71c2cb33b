// Package worker runs background maintenance for the poll service.
package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/castpoll/backend/internal/polls"
)

// ExpiryStore lists polls whose expiry falls inside a window.
type ExpiryStore interface {
	ListExpiredBetween(ctx context.Context, from, to time.Time) ([]uuid.UUID, error)
}

// Sweeper periodically drops cached views of polls whose expiry passed
// since the previous sweep, so listings and results stop serving stale
// pre-expiry data. Purely advisory: vote-time enforcement lives in the
// poll service.
type Sweeper struct {
	store    ExpiryStore
	views    polls.Invalidator
	logger   *zap.Logger
	interval time.Duration
}

// NewSweeper creates an expiry sweeper.
func NewSweeper(store ExpiryStore, views polls.Invalidator, logger *zap.Logger, interval time.Duration) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{store: store, views: views, logger: logger, interval: interval}
}

// Run sweeps on the configured interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.sweep(ctx, last, now)
			last = now
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context, from, to time.Time) {
	ids, err := s.store.ListExpiredBetween(ctx, from, to)
	if err != nil {
		s.logger.Warn("expiry sweep", zap.Error(err))
		return
	}
	if len(ids) == 0 {
		return
	}
	for _, id := range ids {
		for _, path := range polls.ViewPaths(id) {
			s.views.Invalidate(ctx, path)
		}
	}
	s.views.Invalidate(ctx, polls.ListingPath)
	s.logger.Info("expired polls swept", zap.Int("count", len(ids)))
}
