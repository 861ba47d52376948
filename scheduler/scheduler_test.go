package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compass/logging"
	"compass/orchestrator"
)

func init() {
	logging.SetOutput(io.Discard)
}

// blockingRunner holds each run until release is closed.
type blockingRunner struct {
	mu      sync.Mutex
	calls   []orchestrator.Request
	started chan struct{}
	release chan struct{}
	err     error
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{started: make(chan struct{}, 10), release: make(chan struct{})}
}

func (b *blockingRunner) Run(ctx context.Context, req orchestrator.Request) (*orchestrator.RunResult, error) {
	b.mu.Lock()
	b.calls = append(b.calls, req)
	b.mu.Unlock()
	b.started <- struct{}{}
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &orchestrator.RunResult{RunID: "run", Date: req.Date, Signals: 2, Composite: 3.5, Level: "Moderate"}, b.err
}

func (b *blockingRunner) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

type instantRunner struct {
	err error
}

func (r instantRunner) Run(_ context.Context, req orchestrator.Request) (*orchestrator.RunResult, error) {
	return &orchestrator.RunResult{RunID: "run", Date: req.Date, Signals: 1, Level: "Low"}, r.err
}

func TestRunUpdatesState(t *testing.T) {
	s := New(instantRunner{})
	assert.Equal(t, StateIdle, s.Status().State)

	res, err := s.Run(context.Background(), orchestrator.Request{Date: "2026-02-01"})
	require.NoError(t, err)
	assert.Equal(t, "2026-02-01", res.Date)

	st := s.Status()
	assert.Equal(t, StateComplete, st.State)
	require.NotNil(t, st.LastRun)
	assert.Equal(t, "run", st.LastRun.RunID)
	assert.Nil(t, st.Current)
	require.Len(t, st.Logs, 2)
	assert.Equal(t, "Run started for 2026-02-01", st.Logs[0].Message)
	assert.Contains(t, st.Logs[1].Message, "Run complete for 2026-02-01")
}

func TestRunError(t *testing.T) {
	s := New(instantRunner{err: errors.New("disk full")})

	_, err := s.Run(context.Background(), orchestrator.Request{Date: "2026-02-01"})
	require.Error(t, err)

	st := s.Status()
	assert.Equal(t, StateError, st.State)
	assert.Equal(t, "disk full", st.Error)
	require.NotEmpty(t, st.Logs)
	assert.Equal(t, "Error: disk full", st.Logs[len(st.Logs)-1].Message)

	_, err = s.Run(context.Background(), orchestrator.Request{Date: "2026-02-02"})
	require.Error(t, err)
}

func TestTriggerRejectsConcurrentRuns(t *testing.T) {
	runner := newBlockingRunner()
	s := New(runner)

	st, err := s.Trigger(orchestrator.Request{Date: "2026-02-01"})
	require.NoError(t, err)
	assert.Equal(t, StateRunning, st.State)
	require.NotNil(t, st.Current)
	assert.Equal(t, "2026-02-01", st.Current.Date)
	<-runner.started

	_, err = s.Trigger(orchestrator.Request{Date: "2026-02-02"})
	assert.ErrorIs(t, err, ErrBusy)
	_, err = s.Run(context.Background(), orchestrator.Request{})
	assert.ErrorIs(t, err, ErrBusy)

	close(runner.release)
	require.Eventually(t, func() bool {
		return s.Status().State == StateComplete
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, runner.callCount())

	_, err = s.Trigger(orchestrator.Request{Date: "2026-02-03"})
	require.NoError(t, err)
	require.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, 2, runner.callCount())
}

func TestTickSkipsWhileRunning(t *testing.T) {
	runner := newBlockingRunner()
	s := New(runner)

	_, err := s.Trigger(orchestrator.Request{Date: "2026-02-01"})
	require.NoError(t, err)
	<-runner.started

	s.tick()
	st := s.Status()
	assert.Equal(t, StateRunning, st.State)
	assert.Equal(t, "Scheduled run skipped: a run is in progress", st.Logs[len(st.Logs)-1].Message)

	close(runner.release)
	require.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, 1, runner.callCount())
}

func TestLogRingBuffer(t *testing.T) {
	m := newManager()
	for i := range 60 {
		m.addLog(fmt.Sprintf("entry %d", i))
	}
	st := m.snapshot()
	require.Len(t, st.Logs, maxLogs)
	assert.Equal(t, "entry 10", st.Logs[0].Message)
	assert.Equal(t, "entry 59", st.Logs[maxLogs-1].Message)
}

func TestStartSchedule(t *testing.T) {
	s := New(instantRunner{})

	require.Error(t, s.Start("not a cron spec"))

	require.NoError(t, s.Start("0 6 * * *"))
	require.Eventually(t, func() bool {
		return s.Status().NextRun != nil
	}, time.Second, 5*time.Millisecond)
	st := s.Status()
	assert.Equal(t, "0 6 * * *", st.Schedule)
	assert.Equal(t, 6, st.NextRun.Hour())

	require.NoError(t, s.Stop(context.Background()))
}

func TestStopCancelsBackgroundRun(t *testing.T) {
	runner := newBlockingRunner()
	s := New(runner)

	_, err := s.Trigger(orchestrator.Request{Date: "2026-02-01"})
	require.NoError(t, err)
	<-runner.started

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.Equal(t, StateError, s.Status().State)
}

func TestTriggerAfterStop(t *testing.T) {
	runner := newBlockingRunner()
	s := New(runner)
	require.NoError(t, s.Stop(context.Background()))

	_, err := s.Trigger(orchestrator.Request{Date: "2026-02-01"})
	assert.ErrorIs(t, err, ErrStopped)
	_, err = s.Run(context.Background(), orchestrator.Request{Date: "2026-02-01"})
	assert.ErrorIs(t, err, ErrStopped)

	assert.Zero(t, runner.callCount())
	assert.Equal(t, StateIdle, s.Status().State)
}

func TestConcurrentTriggerAndStop(t *testing.T) {
	for i := 0; i < 20; i++ {
		s := New(instantRunner{})
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Trigger(orchestrator.Request{Date: "2026-02-01"})
			if err != nil {
				assert.ErrorIs(t, err, ErrStopped)
			}
		}()
		require.NoError(t, s.Stop(context.Background()))
		wg.Wait()

		_, err := s.Trigger(orchestrator.Request{Date: "2026-02-02"})
		assert.ErrorIs(t, err, ErrStopped)
	}
}
