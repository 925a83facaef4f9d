// Package scheduler runs the daily rent reminder sweep.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"rent-backend/internal/timeutil"
)

const DefaultSchedule = "0 9 * * *"

// Job is one scheduled unit of work
type Job func(ctx context.Context) error

type Scheduler struct {
	cron    *cron.Cron
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a scheduler evaluating specs in IST
func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(timeutil.IST)),
		timeout: 10 * time.Minute,
		logger:  logger.Named("scheduler"),
	}
}

// Add registers job under a standard five-field cron spec.
func (s *Scheduler) Add(name, spec string, job Job) error {
	if spec == "" {
		spec = DefaultSchedule
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid schedule %q for %s: %w", spec, name, err)
	}
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		started := time.Now()
		if err := job(ctx); err != nil {
			s.logger.Error("job failed", zap.String("job", name), zap.Error(err))
			return
		}
		s.logger.Info("job finished", zap.String("job", name), zap.Duration("took", time.Since(started)))
	})
	if err != nil {
		return err
	}
	s.logger.Info("job scheduled", zap.String("job", name), zap.String("spec", spec))
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for running jobs to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
