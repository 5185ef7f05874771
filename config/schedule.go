package config

import (
	"errors"
	"fmt"
	"time"

	robfig "github.com/robfig/cron/v3"
)

var scheduleParser = robfig.NewParser(
	robfig.Minute | robfig.Hour | robfig.Dom | robfig.Month | robfig.Dow | robfig.Descriptor,
)

// ParseSchedule parses a five-field cron expression or an @descriptor such as
// "@every 30s".
func ParseSchedule(expr string) (robfig.Schedule, error) {
	sched, err := scheduleParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid dispatch schedule %q: %w", expr, err)
	}
	return sched, nil
}

// longestGap walks one day of firings and returns the widest interval seen,
// counting the wait for the first firing. It stops early once a gap exceeds
// limit.
func longestGap(sched robfig.Schedule, limit time.Duration) (time.Duration, error) {
	const maxSteps = 1 << 16
	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	var widest time.Duration
	prev := start
	for i := 0; i < maxSteps && prev.Before(end); i++ {
		next := sched.Next(prev)
		if next.IsZero() {
			return 0, errors.New("schedule never fires")
		}
		if gap := next.Sub(prev); gap > widest {
			widest = gap
		}
		if widest > limit {
			break
		}
		prev = next
	}
	return widest, nil
}

// validateSchedule checks DISPATCH_SCHEDULE fires often enough for the match
// mode. Exact matching only sees the tick's own minute, so it needs a tick at
// least once a minute. Window matching can bridge up to MAX_CATCHUP_MINUTES.
func (c Config) validateSchedule() error {
	sched, err := ParseSchedule(c.DispatchSchedule)
	if err != nil {
		return err
	}

	limit := time.Minute
	if c.MatchMode == "window" {
		limit = time.Duration(max(c.MaxCatchupMinutes, 1)) * time.Minute
	}
	gap, err := longestGap(sched, limit)
	if err != nil {
		return fmt.Errorf("invalid DISPATCH_SCHEDULE %q: %w", c.DispatchSchedule, err)
	}
	if gap > limit {
		return fmt.Errorf("DISPATCH_SCHEDULE %q leaves %s between ticks, %s matching allows at most %s",
			c.DispatchSchedule, gap, c.MatchMode, limit)
	}
	return nil
}
