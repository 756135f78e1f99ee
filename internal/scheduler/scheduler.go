// Package scheduler drives periodic reconciliation passes with a
// single-flight guarantee: at most one pass runs at any time, and manual
// triggers arriving during a pass are dropped rather than queued.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/BlyZeDev/tempocal/internal/engine"
	"github.com/BlyZeDev/tempocal/internal/planner"
	"github.com/BlyZeDev/tempocal/internal/tracker"
)

// Engine is the pass runner the scheduler owns.
type Engine interface {
	Reconcile(ctx context.Context) (engine.Summary, error)
}

// Scheduler runs passes on a fixed interval or a cron expression, plus
// manual triggers in between.
type Scheduler struct {
	engine   Engine
	log      *zap.Logger
	interval time.Duration
	schedule cron.Schedule
	now      func() time.Time

	trigger chan struct{}
	busy    atomic.Bool
}

// New builds a scheduler ticking every interval. When cronExpr is non-empty
// it takes precedence over the interval; it must be a standard five-field
// expression.
func New(e Engine, log *zap.Logger, interval time.Duration, cronExpr string) (*Scheduler, error) {
	s := &Scheduler{
		engine:   e,
		log:      log,
		interval: interval,
		now:      time.Now,
		trigger:  make(chan struct{}, 1),
	}
	if cronExpr != "" {
		schedule, err := cron.ParseStandard(cronExpr)
		if err != nil {
			return nil, fmt.Errorf("parsing cron expression %q: %w", cronExpr, err)
		}
		s.schedule = schedule
	} else if interval <= 0 {
		return nil, errors.New("sync interval must be positive")
	}
	return s, nil
}

// TriggerNow requests an immediate pass. It is a no-op while a pass is
// already running or one is already queued.
func (s *Scheduler) TriggerNow() {
	if s.busy.Load() {
		s.log.Debug("manual trigger ignored, pass in progress")
		return
	}
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Syncing reports whether a pass is currently running.
func (s *Scheduler) Syncing() bool { return s.busy.Load() }

// Run executes an immediate pass and then loops until ctx is cancelled,
// waking on the schedule and on manual triggers.
func (s *Scheduler) Run(ctx context.Context) error {
	s.runPass(ctx)

	for {
		wait := s.untilNext()
		timer := time.NewTimer(wait)

		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-s.trigger:
			timer.Stop()
			s.runPass(ctx)
		case <-timer.C:
			s.runPass(ctx)
		}
	}
}

// untilNext returns the sleep duration before the next scheduled pass.
func (s *Scheduler) untilNext() time.Duration {
	if s.schedule != nil {
		wait := s.schedule.Next(s.now()).Sub(s.now())
		if wait < time.Second {
			wait = time.Second
		}
		return wait
	}
	return s.interval
}

func (s *Scheduler) runPass(ctx context.Context) {
	if !s.busy.CompareAndSwap(false, true) {
		return
	}
	defer s.busy.Store(false)

	start := s.now()
	sum, err := s.engine.Reconcile(ctx)
	switch {
	case errors.Is(err, context.Canceled):
		return
	case errors.Is(err, planner.ErrUnauthorized) || errors.Is(err, tracker.ErrUnauthorized):
		s.log.Error("sync rejected, check the configured credentials", zap.Error(err))
		return
	case err != nil:
		s.log.Error("sync failed", zap.Error(err))
		return
	}

	s.log.Info("sync pass complete",
		zap.Int("changed", sum.Changed()),
		zap.Bool("partial", sum.Partial),
		zap.Duration("elapsed", s.now().Sub(start)))
}
