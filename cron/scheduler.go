package cron

import (
	"context"
	"fmt"
	"sync"
	"time"

	"medminder/config"
	"medminder/services/dispatcher"

	robfig "github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// zapCronLogger adapts zap to robfig.Logger. cron's own info lines are debug
// noise for us.
type zapCronLogger struct {
	s *zap.SugaredLogger
}

func (l zapCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l zapCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}

// DispatchScheduler drives dispatch ticks on a cron expression.
type DispatchScheduler struct {
	cron       *robfig.Cron
	job        robfig.Job
	runOnStart bool
	logger     *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDispatchScheduler parses the cron expression expr in loc. Overlapping runs are skipped and
// a panicking tick is logged rather than crashing the process.
func NewDispatchScheduler(expr string, loc *time.Location, svc dispatcher.DispatchService, runOnStart bool, logger *zap.Logger) (*DispatchScheduler, error) {
	sched, err := config.ParseSchedule(expr)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.UTC
	}

	cl := zapCronLogger{s: logger.Sugar()}
	c := robfig.New(robfig.WithLocation(loc), robfig.WithLogger(cl))

	ctx, cancel := context.WithCancel(context.Background())
	s := &DispatchScheduler{
		cron:       c,
		runOnStart: runOnStart,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
	s.job = robfig.NewChain(robfig.Recover(cl), robfig.SkipIfStillRunning(cl)).Then(robfig.FuncJob(func() {
		report := svc.Tick(s.ctx)
		dispatcher.LogReport(logger, report)
	}))
	c.Schedule(sched, s.job)
	return s, nil
}

func (s *DispatchScheduler) Start() {
	s.logger.Info("Starting dispatch scheduler", zap.Bool("runOnStart", s.runOnStart))
	if s.runOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.job.Run()
		}()
	}
	s.cron.Start()
}

// Stop prevents new ticks and waits for running ones until ctx expires, at
// which point in-flight ticks are cancelled.
func (s *DispatchScheduler) Stop(ctx context.Context) error {
	cronDone := s.cron.Stop()
	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		s.logger.Info("Dispatch scheduler stopped")
		return nil
	case <-ctx.Done():
		s.cancel()
		return fmt.Errorf("dispatch scheduler stop: %w", ctx.Err())
	}
}
