package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	claimRepo "medminder/database/repository/claims"
	notificationRepo "medminder/database/repository/notification"
	reminderRepo "medminder/database/repository/reminder"
	"medminder/models"
	"medminder/services/channels"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

const dayLayout = "2006-01-02"

// Options tunes how a tick evaluates and processes rows.
type Options struct {
	Location       *time.Location
	MatchMode      MatchMode
	MaxCatchup     int
	RowConcurrency int
}

// DefaultDispatchService is the production dispatcher. Claims is optional;
// a nil claim store leaves reminders undeduplicated.
type DefaultDispatchService struct {
	store    reminderRepo.ReminderRepository
	recorder notificationRepo.NotificationRepository
	claims   claimRepo.ClaimStore
	fanout   Fanout
	clock    Clock
	logger   *zap.Logger
	opts     Options

	running atomic.Bool

	mu            sync.Mutex
	lastEvaluated time.Time
}

func NewDispatchService(
	store reminderRepo.ReminderRepository,
	recorder notificationRepo.NotificationRepository,
	claims claimRepo.ClaimStore,
	fanout Fanout,
	clock Clock,
	logger *zap.Logger,
	opts Options,
) (*DefaultDispatchService, error) {
	if store == nil || recorder == nil || fanout == nil {
		return nil, fmt.Errorf("dispatch service initialization error: store, recorder or fanout is nil")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.MatchMode == "" {
		opts.MatchMode = MatchExact
	}
	if _, err := ParseMatchMode(string(opts.MatchMode)); err != nil {
		return nil, err
	}
	if opts.RowConcurrency < 1 {
		opts.RowConcurrency = 1
	}
	return &DefaultDispatchService{
		store:    store,
		recorder: recorder,
		claims:   claims,
		fanout:   fanout,
		clock:    clock,
		logger:   logger,
		opts:     opts,
	}, nil
}

// rowOutcome is what one matched row contributed to a tick.
type rowOutcome struct {
	skipped  SkipReason
	eligible bool
	recorded bool
	attempts int
	failures []Failure
}

// Tick runs one scheduling cycle. Failures never escape as errors; they are
// collected in the returned report.
func (s *DefaultDispatchService) Tick(ctx context.Context) TickReport {
	now := s.clock.Now().In(s.opts.Location)
	report := TickReport{
		RunID:   uuid.NewString(),
		Now:     now,
		Skipped: map[SkipReason]int{},
	}

	if !s.running.CompareAndSwap(false, true) {
		report.fail(ErrTickInProgress)
		report.FinishedAt = s.clock.Now().In(s.opts.Location)
		return report
	}
	defer s.running.Store(false)

	cur := minuteOf(now)
	times, minuteAt := timesOfDay(s.evaluatedMinutes(cur))
	report.Times = times
	logger := s.logger.With(zap.String("runId", report.RunID))

	rows, err := s.store.FindDueIntakes(ctx, report.Times)
	if err != nil {
		report.fail(fmt.Errorf("find due intakes: %w", err))
		report.FinishedAt = s.clock.Now().In(s.opts.Location)
		return report
	}
	s.commitEvaluated(cur)
	report.Matched = len(rows)

	outcomes := make([]rowOutcome, len(rows))
	if s.opts.RowConcurrency == 1 || len(rows) < 2 {
		for i, row := range rows {
			outcomes[i] = s.processRow(ctx, logger, dueAt(minuteAt, row, cur), row)
		}
	} else {
		p := pool.New().WithMaxGoroutines(s.opts.RowConcurrency)
		for i, row := range rows {
			p.Go(func() {
				outcomes[i] = s.processRow(ctx, logger, dueAt(minuteAt, row, cur), row)
			})
		}
		p.Wait()
	}

	for _, o := range outcomes {
		if o.skipped != "" {
			report.Skipped[o.skipped]++
		}
		if o.eligible {
			report.Eligible++
		}
		if o.recorded {
			report.Recorded++
		}
		report.Attempts += o.attempts
		report.Failures = append(report.Failures, o.failures...)
	}
	report.FinishedAt = s.clock.Now().In(s.opts.Location)
	return report
}

// evaluatedMinutes lists the minutes this tick matches against.
func (s *DefaultDispatchService) evaluatedMinutes(cur time.Time) []time.Time {
	if s.opts.MatchMode != MatchWindow {
		return []time.Time{cur}
	}
	s.mu.Lock()
	last := s.lastEvaluated
	s.mu.Unlock()
	return minutesSince(last, cur, s.opts.MaxCatchup)
}

// dueAt is the minute a matched row was scheduled for. In window mode that
// can be a minute of the previous day, whose date then governs the row.
func dueAt(minuteAt map[string]time.Time, row models.DueIntake, cur time.Time) time.Time {
	if at, ok := minuteAt[row.IntakeTime.Time]; ok {
		return at
	}
	return cur
}

// commitEvaluated advances the window only after the store answered.
func (s *DefaultDispatchService) commitEvaluated(cur time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur.After(s.lastEvaluated) {
		s.lastEvaluated = cur
	}
}

// processRow handles one matched intake due at the minute at.
func (s *DefaultDispatchService) processRow(ctx context.Context, logger *zap.Logger, at time.Time, row models.DueIntake) rowOutcome {
	var out rowOutcome
	logger = logger.With(zap.String("intakeTimeId", row.IntakeTime.ID))

	if row.Medication == nil || row.User == nil {
		logger.Warn("Skipping intake with missing medication or user",
			zap.String("medicationId", row.IntakeTime.MedicationID))
		out.skipped = SkipMissingRelation
		return out
	}
	med, user := *row.Medication, *row.User
	logger = logger.With(zap.String("medicationId", med.ID))

	if !notificationsEnabled(row.Settings) {
		out.skipped = SkipNotificationsOff
		return out
	}
	if !activeOn(med, at) {
		out.skipped = SkipInactiveDates
		return out
	}
	out.eligible = true

	fail := func(stage Stage, err error) {
		out.failures = append(out.failures, Failure{
			IntakeTimeID: row.IntakeTime.ID,
			MedicationID: med.ID,
			Stage:        stage,
			Message:      err.Error(),
			Err:          err,
		})
	}

	day := at.Format(dayLayout)
	if s.claims != nil {
		ok, err := s.claims.Claim(ctx, row.IntakeTime.ID, day)
		if err != nil {
			logger.Error("Failed to claim reminder", zap.Error(err))
			fail(StageClaim, err)
			return out
		}
		if !ok {
			logger.Debug("Reminder already sent today")
			out.eligible = false
			out.skipped = SkipAlreadySent
			return out
		}
	}

	n := &models.Notification{
		MedicationID: med.ID,
		UserID:       user.ID,
		IntakeTimeID: row.IntakeTime.ID,
		Message:      reminderMessage(med, row.Settings),
		Status:       models.NotificationStatusSent,
	}
	if _, err := s.recorder.RecordReminder(ctx, n); err != nil {
		logger.Error("Failed to record reminder, skipping delivery", zap.Error(err))
		fail(StageLog, err)
		if s.claims != nil {
			// Nothing was raised, so a retry in the same minute may claim again.
			if rerr := s.claims.Release(ctx, row.IntakeTime.ID, day); rerr != nil {
				logger.Warn("Failed to release reminder claim", zap.Error(rerr))
			}
		}
		return out
	}
	out.recorded = true

	results := s.fanout.Deliver(ctx, Delivery{NotificationID: n.ID, Medication: med, User: user})
	out.attempts = len(results)
	for _, res := range results {
		if res.Err == nil {
			logger.Info("Reminder delivered",
				zap.String("channel", string(res.Channel)),
				zap.String("messageId", res.MessageID))
			continue
		}
		lvl := logger.Error
		if errors.Is(res.Err, channels.ErrNotConfigured) {
			lvl = logger.Warn
		}
		lvl("Reminder delivery failed", zap.String("channel", string(res.Channel)), zap.Error(res.Err))
		fail(Stage(res.Channel), res.Err)
	}
	return out
}
