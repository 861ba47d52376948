// Package scheduler runs the pipeline on a cron schedule and on demand,
// allowing at most one run at a time.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"compass/logging"
	"compass/orchestrator"

	"github.com/robfig/cron/v3"
)

// ErrBusy is returned when a run is requested while another is in progress.
var ErrBusy = errors.New("a run is already in progress")

// ErrStopped is returned when a run is requested after Stop.
var ErrStopped = errors.New("scheduler is stopped")

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context, req orchestrator.Request) (*orchestrator.RunResult, error)
}

// Scheduler owns the single run slot shared by cron, the API and Kafka.
type Scheduler struct {
	runner Runner
	state  *manager

	mu     sync.Mutex
	cron   *cron.Cron
	cronID cron.EntryID
	spec   string
	base    context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	stopped bool
}

// New creates a scheduler around runner. Nothing is scheduled until Start.
func New(runner Runner) *Scheduler {
	base, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		runner: runner,
		state:  newManager(),
		cron:   cron.New(),
		base:   base,
		cancel: cancel,
	}
}

// Start schedules a run for today's date on every tick of spec.
func (s *Scheduler) Start(spec string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.cron.AddFunc(spec, s.tick)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}
	s.cronID = id
	s.spec = spec
	s.cron.Start()
	s.state.addLog(fmt.Sprintf("Schedule started: %s", spec))
	logging.Info("cron job started", "schedule", spec)
	return nil
}

func (s *Scheduler) tick() {
	logging.Info("cron triggered: starting scheduled run")
	if _, err := s.Run(s.base, orchestrator.Request{}); errors.Is(err, ErrBusy) {
		s.state.addLog("Scheduled run skipped: a run is in progress")
		logging.Warn("cron skipped: run in progress")
	}
}

// Run executes one run synchronously. It returns ErrBusy without running
// when another run holds the slot.
func (s *Scheduler) Run(ctx context.Context, req orchestrator.Request) (*orchestrator.RunResult, error) {
	if err := s.admit(req); err != nil {
		return nil, err
	}
	defer s.wg.Done()

	res, err := s.runner.Run(ctx, req)
	s.state.end(res, err)
	return res, err
}

// Trigger starts a run in the background and returns the status snapshot
// taken right after the run was admitted.
func (s *Scheduler) Trigger(req orchestrator.Request) (Status, error) {
	if err := s.admit(req); err != nil {
		return s.Status(), err
	}
	go func() {
		defer s.wg.Done()
		res, err := s.runner.Run(s.base, req)
		if err != nil {
			logging.Warn("triggered run failed", "date", req.Date, "err", err)
		}
		s.state.end(res, err)
	}()
	return s.Status(), nil
}

// admit claims the run slot and registers the run with the wait group. The
// stopped check and wg.Add share s.mu with Stop so no run starts after Stop
// begins waiting.
func (s *Scheduler) admit(req orchestrator.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrStopped
	}
	if !s.state.begin(req) {
		return ErrBusy
	}
	s.wg.Add(1)
	return nil
}

// Status returns a snapshot of the current state
func (s *Scheduler) Status() Status {
	st := s.state.snapshot()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.spec != "" {
		st.Schedule = s.spec
		if next := s.cron.Entry(s.cronID).Next; !next.IsZero() {
			st.NextRun = &next
		}
	}
	return st
}

// Stop halts the schedule, cancels background runs and waits for them to
// return or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	cronDone := s.cron.Stop()
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		<-cronDone.Done()
		close(done)
	}()

	select {
	case <-done:
		logging.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
