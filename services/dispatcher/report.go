package dispatcher

import (
	"time"

	"go.uber.org/zap"
)

// SkipReason explains why a matched intake raised no reminder.
type SkipReason string

const (
	SkipMissingRelation  SkipReason = "missing_relation"
	SkipNotificationsOff SkipReason = "notifications_off"
	SkipInactiveDates    SkipReason = "inactive_dates"
	SkipAlreadySent      SkipReason = "already_sent"
)

// Stage is where a row failed.
type Stage string

const (
	StageClaim Stage = "claim"
	StageLog   Stage = "log"
	StageSMS   Stage = Stage(ChannelSMS)
	StageEmail Stage = Stage(ChannelEmail)
)

// Failure is one row-level or channel-level error.
type Failure struct {
	IntakeTimeID string `json:"intakeTimeId"`
	MedicationID string `json:"medicationId"`
	Stage        Stage  `json:"stage"`
	Message      string `json:"error"`
	Err          error  `json:"-"`
}

// TickReport summarises one tick for the host process.
type TickReport struct {
	RunID      string             `json:"runId"`
	Now        time.Time          `json:"now"`
	Times      []string           `json:"times"`
	Matched    int                `json:"matched"`
	Eligible   int                `json:"eligible"`
	Recorded   int                `json:"recorded"`
	Attempts   int                `json:"channelAttempts"`
	Skipped    map[SkipReason]int `json:"skipped"`
	Failures   []Failure          `json:"failures,omitempty"`
	Err        error              `json:"-"`
	Error      string             `json:"error,omitempty"`
	FinishedAt time.Time          `json:"finishedAt"`
}

func (r *TickReport) fail(err error) {
	r.Err = err
	r.Error = err.Error()
}

// LogReport writes one summary line for a tick.
func LogReport(logger *zap.Logger, r TickReport) {
	fields := []zap.Field{
		zap.String("runId", r.RunID),
		zap.Strings("times", r.Times),
		zap.Int("matched", r.Matched),
		zap.Int("eligible", r.Eligible),
		zap.Int("recorded", r.Recorded),
		zap.Int("channelAttempts", r.Attempts),
		zap.Any("skipped", r.Skipped),
		zap.Int("failures", len(r.Failures)),
		zap.Duration("took", r.FinishedAt.Sub(r.Now)),
	}
	switch {
	case r.Err != nil:
		logger.Error("dispatch tick aborted", append(fields, zap.Error(r.Err))...)
	case len(r.Failures) > 0:
		logger.Warn("dispatch tick finished with failures", fields...)
	case r.Matched > 0:
		logger.Info("dispatch tick finished", fields...)
	default:
		logger.Debug("dispatch tick finished", fields...)
	}
}
