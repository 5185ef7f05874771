package dispatcher

import (
	"errors"
	"fmt"
	"time"
)

// MatchMode selects which times of day a tick evaluates.
type MatchMode string

const (
	// MatchExact evaluates only the tick's own minute.
	MatchExact MatchMode = "exact"
	// MatchWindow evaluates every minute since the last successful tick, so
	// minutes skipped by a paused process still fire.
	MatchWindow MatchMode = "window"
)

const timeOfDayLayout = "15:04"

var ErrInvalidMatchMode = errors.New("invalid match mode")

func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(s) {
	case MatchExact, MatchWindow:
		return MatchMode(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMatchMode, s)
}

// minuteOf truncates t to the start of its minute in t's location.
func minuteOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, t.Location())
}

// minutesSince lists every minute in (last, cur], keeping at most the
// newest maxCatchup of them. A zero last, or a cur that is not after last,
// yields only cur.
func minutesSince(last, cur time.Time, maxCatchup int) []time.Time {
	if maxCatchup < 1 {
		maxCatchup = 1
	}
	if maxCatchup > 24*60 {
		maxCatchup = 24 * 60
	}
	if last.IsZero() || !cur.After(last) {
		return []time.Time{cur}
	}

	start := last.Add(time.Minute)
	if earliest := cur.Add(-time.Duration(maxCatchup-1) * time.Minute); start.Before(earliest) {
		start = earliest
	}

	var out []time.Time
	for m := start; !m.After(cur); m = m.Add(time.Minute) {
		out = append(out, m)
	}
	return out
}

// timesOfDay formats minutes as "HH:mm" and indexes each string back to its
// minute. A window never exceeds a day, so the strings are unique.
func timesOfDay(minutes []time.Time) ([]string, map[string]time.Time) {
	times := make([]string, 0, len(minutes))
	at := make(map[string]time.Time, len(minutes))
	for _, m := range minutes {
		hhmm := m.Format(timeOfDayLayout)
		times = append(times, hhmm)
		at[hhmm] = m
	}
	return times, at
}
