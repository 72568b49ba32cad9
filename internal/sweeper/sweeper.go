// Package sweeper runs the periodic arena housekeeping: server-side battle
// deadlines, removal of finished sessions and retrying stalled pairings.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Engine is the part of *arena.Engine the sweeper drives.
type Engine interface {
	ExpireOverdue(ctx context.Context, now time.Time) int
	ReapCompleted(now time.Time) int
	Matchmake(ctx context.Context) int
}

type Sweeper struct {
	engine   Engine
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func New(engine Engine, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Sweeper{engine: engine, interval: interval, logger: logger, now: time.Now}
}

func (s *Sweeper) Expire(ctx context.Context) {
	if n := s.engine.ExpireOverdue(ctx, s.now()); n > 0 {
		s.logger.Info("expired overdue sessions", "count", n)
	}
}

func (s *Sweeper) Reap() {
	if n := s.engine.ReapCompleted(s.now()); n > 0 {
		s.logger.Debug("reaped completed sessions", "count", n)
	}
}

func (s *Sweeper) Match(ctx context.Context) {
	if n := s.engine.Matchmake(ctx); n > 0 {
		s.logger.Info("paired waiting players", "sessions", n)
	}
}

// Run schedules the jobs and blocks until ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}

	jobs := []struct {
		name string
		task gocron.Task
	}{
		{"expire-overdue", gocron.NewTask(s.Expire, ctx)},
		{"reap-completed", gocron.NewTask(s.Reap)},
		{"matchmake", gocron.NewTask(s.Match, ctx)},
	}
	for _, j := range jobs {
		_, err := sched.NewJob(
			gocron.DurationJob(s.interval),
			j.task,
			gocron.WithName(j.name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			_ = sched.Shutdown()
			return fmt.Errorf("scheduling %s: %w", j.name, err)
		}
	}

	s.logger.Info("starting sweeper", "interval", s.interval.String())
	sched.Start()

	<-ctx.Done()
	s.logger.Info("stopping sweeper")
	if err := sched.Shutdown(); err != nil {
		return fmt.Errorf("stopping scheduler: %w", err)
	}
	return nil
}
