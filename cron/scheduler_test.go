package cron

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"medminder/services/dispatcher"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

type countingDispatcher struct {
	ticks atomic.Int32
	hold  chan struct{}
	panic bool
}

func (d *countingDispatcher) Tick(ctx context.Context) dispatcher.TickReport {
	d.ticks.Add(1)
	if d.panic {
		panic("tick exploded")
	}
	if d.hold != nil {
		select {
		case <-d.hold:
		case <-ctx.Done():
		}
	}
	return dispatcher.TickReport{RunID: "run", Skipped: map[dispatcher.SkipReason]int{}}
}

func TestNewDispatchSchedulerRejectsBadSchedule(t *testing.T) {
	_, err := NewDispatchScheduler("every minute please", time.UTC, &countingDispatcher{}, false, zaptest.NewLogger(t))
	require.Error(t, err)
}

func TestDispatchSchedulerRunOnStart(t *testing.T) {
	d := &countingDispatcher{}
	s, err := NewDispatchScheduler("0 0 1 1 *", time.UTC, d, true, zaptest.NewLogger(t))
	require.NoError(t, err)

	s.Start()
	require.Eventually(t, func() bool { return d.ticks.Load() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))
	require.EqualValues(t, 1, d.ticks.Load())
}

func TestDispatchSchedulerRunsOnSchedule(t *testing.T) {
	d := &countingDispatcher{}
	s, err := NewDispatchScheduler("@every 1s", time.UTC, d, false, zaptest.NewLogger(t))
	require.NoError(t, err)

	s.Start()
	require.Eventually(t, func() bool { return d.ticks.Load() >= 1 }, 3*time.Second, 10*time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))
}

func TestDispatchSchedulerSurvivesPanics(t *testing.T) {
	d := &countingDispatcher{panic: true}
	s, err := NewDispatchScheduler("0 0 1 1 *", time.UTC, d, true, zaptest.NewLogger(t))
	require.NoError(t, err)

	s.Start()
	require.Eventually(t, func() bool { return d.ticks.Load() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))
}

func TestDispatchSchedulerStopTimesOut(t *testing.T) {
	d := &countingDispatcher{hold: make(chan struct{})}
	defer close(d.hold)
	// The cancelled tick finishes after the test returns, so it must not log to t.
	s, err := NewDispatchScheduler("0 0 1 1 *", time.UTC, d, true, zap.NewNop())
	require.NoError(t, err)

	s.Start()
	require.Eventually(t, func() bool { return d.ticks.Load() == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, s.Stop(ctx), context.DeadlineExceeded)
}
