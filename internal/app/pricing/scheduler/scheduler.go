// Package scheduler owns the periodic decay sweep. It runs at most one sweep at
// a time, drops ticks that arrive while a sweep is running and drains the
// in-flight sweep on Stop.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/usecases/decay_prices"
	"github.com/light-bringer/dynprice-service/internal/obs"
)

// ErrAlreadyStarted is returned by a second Start.
var ErrAlreadyStarted = errors.New("scheduler already started")

// Sweeper runs one decay pass.
type Sweeper interface {
	Sweep(ctx context.Context) (decay_prices.SweepReport, error)
}

// Config tunes the scheduler.
type Config struct {
	// TickTimeout is the deadline handed to Sweep. Products are still visited
	// after it passes; only Stop or ctx cancellation cuts a sweep short.
	TickTimeout time.Duration
	// OnSweep, when set, is called after every sweep from the scheduler goroutine.
	OnSweep func(decay_prices.SweepReport, error)
}

// Scheduler runs Sweeper on every Trigger tick.
type Scheduler struct {
	sweeper Sweeper
	trigger Trigger
	cfg     Config
	log     *slog.Logger

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	stopCh  chan struct{}
	done    chan struct{}

	runs    atomic.Int64
	dropped atomic.Int64
}

// New creates a stopped scheduler.
func New(sweeper Sweeper, trigger Trigger, cfg Config, log *slog.Logger) *Scheduler {
	if cfg.TickTimeout <= 0 {
		cfg.TickTimeout = 30 * time.Second
	}
	return &Scheduler{
		sweeper: sweeper,
		trigger: trigger,
		cfg:     cfg,
		log:     obs.OrNop(log),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start launches the loop. Cancelling ctx aborts any running sweep and ends the loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	go s.loop(runCtx)

	s.log.Info("decay scheduler started", "tick_timeout", s.cfg.TickTimeout.String())
	return nil
}

// Stop ends the loop after the in-flight sweep finishes. If ctx ends first the
// sweep is cancelled and ctx.Err is returned.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	s.mu.Unlock()

	s.trigger.Stop()

	select {
	case <-s.done:
		s.cancel()
		s.log.Info("decay scheduler stopped", "runs", s.Runs())
		return nil
	case <-ctx.Done():
		s.cancel()
		<-s.done
		s.log.Warn("decay scheduler drain timed out", "error", ctx.Err())
		return ctx.Err()
	}
}

// Runs returns how many sweeps have completed.
func (s *Scheduler) Runs() int64 { return s.runs.Load() }

// Dropped returns how many ticks were discarded because a sweep was running.
func (s *Scheduler) Dropped() int64 { return s.dropped.Load() }

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-s.trigger.C():
			report, err := s.runOnce(ctx)
			s.dropPending()
			s.runs.Add(1)
			if s.cfg.OnSweep != nil {
				s.cfg.OnSweep(report, err)
			}
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) (report decay_prices.SweepReport, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.TickTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("decay sweep panicked", "panic", r)
			err = errors.New("decay sweep panicked")
		}
	}()

	started := time.Now()
	report, err = s.sweeper.Sweep(ctx)
	if err != nil {
		s.log.Warn("decay sweep incomplete", "error", err, "scanned", report.Scanned)
		return report, err
	}
	s.log.Info("decay sweep",
		"scanned", report.Scanned,
		"changed", report.Changed,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"took", time.Since(started).String(),
	)
	return report, nil
}

// dropPending discards a tick that queued up during the sweep.
func (s *Scheduler) dropPending() {
	for {
		select {
		case _, ok := <-s.trigger.C():
			if !ok {
				return
			}
			s.dropped.Add(1)
		default:
			return
		}
	}
}
