package service

import (
	"context"

	"github.com/smallbiznis/utilibill/internal/billing/domain"
	"github.com/smallbiznis/utilibill/internal/clock"
	obslogger "github.com/smallbiznis/utilibill/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/utilibill/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type SweeperParams struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Repo    domain.Repository
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Sweeper struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	repo    domain.Repository
	metrics *obsmetrics.Metrics
}

func NewSweeper(p SweeperParams) domain.Sweeper {
	return &Sweeper{
		db:      p.DB,
		log:     p.Log.Named("billing.sweeper"),
		clock:   p.Clock,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

// MarkOverdueBills reads the clock once, so every bill is judged against the
// same day. Running it again the same day changes nothing.
func (s *Sweeper) MarkOverdueBills(ctx context.Context, trigger string) (int64, error) {
	now := s.clock.Now()
	today := clock.DateOf(now)

	count, err := s.repo.MarkOverdue(ctx, s.db, today, now)
	if err != nil {
		return 0, err
	}

	s.metrics.RecordOverdueTransitions(ctx, trigger, count)
	obslogger.WithContext(ctx, s.log).Info("overdue sweep finished",
		zap.String("trigger", trigger),
		zap.Time("today", today),
		zap.Int64("count", count),
	)
	return count, nil
}
