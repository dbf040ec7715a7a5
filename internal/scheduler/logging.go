package scheduler

import (
	"context"
	"time"

	obscontext "github.com/smallbiznis/utilibill/internal/observability/context"
	obslogger "github.com/smallbiznis/utilibill/internal/observability/logger"
	"go.uber.org/zap"
)

type jobRun struct {
	job       string
	runID     string
	startedAt time.Time
	updated   int64
	errored   bool
}

type jobRunKey struct{}

func (s *Scheduler) startJobRun(ctx context.Context, job string) (context.Context, *jobRun) {
	run := &jobRun{
		job:       job,
		runID:     s.genID.Generate().String(),
		startedAt: s.clock.Now(),
	}
	ctx = context.WithValue(ctx, jobRunKey{}, run)
	ctx = obscontext.WithActor(ctx, "system", "scheduler", "")
	ctx = obscontext.WithRequestID(ctx, run.runID)
	return ctx, run
}

func jobRunFromContext(ctx context.Context) *jobRun {
	if run, ok := ctx.Value(jobRunKey{}).(*jobRun); ok {
		return run
	}
	return nil
}

func (s *Scheduler) logger(ctx context.Context) *zap.Logger {
	return obslogger.WithContext(ctx, s.log)
}

func (s *Scheduler) logJobFinish(ctx context.Context, run *jobRun) {
	if run == nil {
		return
	}
	fields := []zap.Field{
		zap.String("job", run.job),
		zap.String("run_id", run.runID),
		zap.Int64("bills_updated", run.updated),
		zap.Duration("duration", s.clock.Now().Sub(run.startedAt)),
	}
	if run.errored {
		s.logger(ctx).Warn("scheduler job finished with errors", fields...)
		return
	}
	s.logger(ctx).Info("scheduler job finished", fields...)
}
