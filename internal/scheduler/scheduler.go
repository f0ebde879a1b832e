// Package scheduler runs the weekly snapshot job on calendar boundaries.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/julianstephens/fitbot/internal/lifecycle"
	"github.com/julianstephens/fitbot/internal/logger"
	"github.com/julianstephens/fitbot/internal/models"
)

// maxWait caps a single sleep so wall-clock jumps (suspend, NTP steps) are
// noticed within a minute.
const maxWait = time.Minute

// Clock is the time source. Tests substitute a fake.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Job is one snapshot pass.
type Job func(ctx context.Context) (models.SnapshotResult, error)

type Scheduler struct {
	schedule  Schedule
	job       Job
	beforeRun func(ctx context.Context) error
	clock     Clock
	maxWait   time.Duration

	mu      sync.Mutex
	next    time.Time
	started bool

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

type Option func(*Scheduler)

func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithBeforeRun installs a hook that runs before each job, such as a backup.
// A hook failure is logged and the job still runs.
func WithBeforeRun(fn func(ctx context.Context) error) Option {
	return func(s *Scheduler) { s.beforeRun = fn }
}

func New(schedule Schedule, job Job, opts ...Option) *Scheduler {
	s := &Scheduler{
		schedule: schedule,
		job:      job,
		clock:    realClock{},
		maxWait:  maxWait,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Next is the boundary the loop is currently waiting for. Zero before Run.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

func (s *Scheduler) Schedule() Schedule { return s.schedule }

// Start runs the loop on its own goroutine under h.
func (s *Scheduler) Start(h *lifecycle.Handle) {
	go func() {
		defer h.Close()
		s.Run(h.Ctx())
	}()
}

// Stop ends the wait and blocks until the loop returns. A job in flight
// finishes first. Stopping a scheduler whose loop never started returns at
// once, and a later Run returns without waiting.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	if s.claim() {
		close(s.done)
	}
	<-s.done
}

// claim marks the loop as owned by the caller. Only the first caller of Run
// or Stop gets true; that caller closes done.
func (s *Scheduler) claim() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return false
	}
	s.started = true
	return true
}

// Run blocks until ctx is cancelled or Stop is called. Whenever the clock
// reaches the pending boundary the job runs exactly once and the next
// boundary is computed from the current time, so a process that slept
// through several boundaries catches up with a single run.
// Run only runs once; later calls, or a call after Stop, return immediately.
func (s *Scheduler) Run(ctx context.Context) {
	if !s.claim() {
		return
	}
	defer close(s.done)

	next := s.schedule.NextBoundary(s.clock.Now())
	s.setNext(next)
	logger.Info("Scheduler started", "schedule", s.schedule.String(), "next", next.Format(time.RFC3339))

	for {
		wait := next.Sub(s.clock.Now())
		if wait > s.maxWait {
			wait = s.maxWait
		}
		if wait > 0 {
			select {
			case <-ctx.Done():
				logger.Info("Scheduler stopped")
				return
			case <-s.stop:
				logger.Info("Scheduler stopped")
				return
			case <-s.clock.After(wait):
			}
		}

		now := s.clock.Now()
		if now.Before(next) {
			continue
		}
		s.runOnce(context.WithoutCancel(ctx), next)
		next = s.schedule.NextBoundary(s.clock.Now())
		s.setNext(next)
	}
}

func (s *Scheduler) runOnce(ctx context.Context, boundary time.Time) {
	if s.beforeRun != nil {
		if err := s.beforeRun(ctx); err != nil {
			logger.Warn("Pre-snapshot hook failed", "error", err)
		}
	}
	res, err := s.job(ctx)
	if err != nil {
		logger.Error("Weekly snapshot failed", "boundary", boundary.Format(time.RFC3339), "run_id", res.RunID.String(), "error", err)
		return
	}
	logger.Info("Weekly snapshot finished", "run_id", res.RunID.String(), "written", res.Written, "failed", len(res.Failed))
}

func (s *Scheduler) setNext(t time.Time) {
	s.mu.Lock()
	s.next = t
	s.mu.Unlock()
}
