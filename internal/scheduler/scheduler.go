package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/smallbiznis/utilibill/internal/billing/domain"
	"github.com/smallbiznis/utilibill/internal/clock"
	obsmetrics "github.com/smallbiznis/utilibill/internal/observability/metrics"
	"github.com/smallbiznis/utilibill/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const JobOverdueSweep = "overdue_sweep"

var ErrInvalidConfig = errors.New("scheduler: invalid config")

type Params struct {
	fx.In

	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Sweeper billingdomain.Sweeper
	Locker  *ratelimit.Locker `optional:"true"`
	Config  Config
}

type Scheduler struct {
	log     *zap.Logger
	cfg     Config
	genID   *snowflake.Node
	clock   clock.Clock
	sweeper billingdomain.Sweeper
	locker  *ratelimit.Locker
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.GenID == nil || p.Clock == nil || p.Sweeper == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:     p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:     p.Config.withDefaults(),
		genID:   p.GenID,
		clock:   p.Clock,
		sweeper: p.Sweeper,
		locker:  p.Locker,
	}, nil
}

// runJob bounds fn by timeout. A deadline is a soft failure: it is counted
// and logged but not returned.
func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx, run := s.startJobRun(ctx, name)
	sweepMetrics := obsmetrics.Sweep()
	sweepMetrics.IncJobRun(name)

	err := fn(ctx)
	sweepMetrics.ObserveJobDuration(name, s.clock.Now().Sub(start))
	run.errored = err != nil
	s.logJobFinish(ctx, run)
	if err == nil {
		return nil
	}

	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		sweepMetrics.IncJobTimeout(name)
	}
	sweepMetrics.IncJobError(name, err)
	if isTimeout {
		s.logger(ctx).Warn("job timed out",
			zap.String("job", name),
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}

// RunOnce performs one sweep. With Redis configured only the replica holding
// the lease sweeps; the others skip.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if s.locker.Enabled() {
		lease, err := s.locker.Acquire(ctx, s.cfg.LockKey, s.cfg.LockTTL)
		if errors.Is(err, ratelimit.ErrLeaseHeld) {
			obsmetrics.Sweep().IncJobSkipped(JobOverdueSweep, obsmetrics.SkipReasonLockHeld)
			s.log.Debug("sweep lock held elsewhere")
			return nil
		}
		if err != nil {
			obsmetrics.Sweep().IncJobSkipped(JobOverdueSweep, obsmetrics.SkipReasonLockFailed)
			s.log.Warn("sweep lock failed", zap.Error(err))
			return nil
		}
		defer func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := lease.Release(releaseCtx); err != nil {
				s.log.Warn("sweep lock release failed", zap.Error(err))
			}
		}()
	}

	return s.runJob(ctx, JobOverdueSweep, s.cfg.JobTimeout, s.OverdueSweepJob)
}

func (s *Scheduler) OverdueSweepJob(ctx context.Context) error {
	count, err := s.sweeper.MarkOverdueBills(ctx, billingdomain.TriggerScheduled)
	if err != nil {
		return err
	}
	if run := jobRunFromContext(ctx); run != nil {
		run.updated = count
	}
	obsmetrics.Sweep().AddBillsUpdated(JobOverdueSweep, count)
	return nil
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()
	nextRun := s.clock.Now()
	sweepMetrics := obsmetrics.Sweep()

	for {
		if lag := s.clock.Now().Sub(nextRun); lag > 0 {
			sweepMetrics.ObserveRunLoopLag(lag)
		}
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
		nextRun = nextRun.Add(s.cfg.RunInterval)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
