// Package reminder implements the client-side reminder engine: it polls
// the backend's entity collections, evaluates a fixed schedule of
// lead-time offsets against each entity's due instant, deduplicates
// firings through a persisted ledger, and dispatches notifications and
// email escalations.
package reminder

import (
	"time"

	"remindd/internal/models"
)

// TimePoint is one of the fixed lead-time offsets before an entity's
// due/start instant at which a reminder may fire.
type TimePoint int

const (
	OneDay TimePoint = iota
	HalfDay
	OneHour
	ThirtyMin
)

// TimePoints lists every offset, farthest out first.
var TimePoints = [...]TimePoint{OneDay, HalfDay, OneHour, ThirtyMin}

// Tolerance is the window around each offset that absorbs polling
// jitter. Offsets are spaced at least 30 minutes apart, so at most one
// time point can match a given evaluation.
const Tolerance = 5 * time.Minute

// Offset returns the lead time before the due instant.
func (tp TimePoint) Offset() time.Duration {
	switch tp {
	case OneDay:
		return 24 * time.Hour
	case HalfDay:
		return 12 * time.Hour
	case OneHour:
		return time.Hour
	case ThirtyMin:
		return 30 * time.Minute
	default:
		return 0
	}
}

func (tp TimePoint) String() string {
	switch tp {
	case OneDay:
		return "one_day"
	case HalfDay:
		return "half_day"
	case OneHour:
		return "one_hour"
	case ThirtyMin:
		return "thirty_min"
	default:
		return "unknown"
	}
}

// maxLookahead is the farthest-out due instant worth evaluating at all.
const maxLookahead = 24*time.Hour + Tolerance

// Match reports which time point, if any, the due instant currently
// falls within tolerance of. It is a pure predicate; the ledger decides
// whether a match actually fires.
func Match(now, due time.Time) (TimePoint, bool) {
	untilDue := due.Sub(now)
	for _, tp := range TimePoints {
		diff := untilDue - tp.Offset()
		if diff < 0 {
			diff = -diff
		}
		if diff < Tolerance {
			return tp, true
		}
	}
	return 0, false
}

// Eligible reports whether the entity may fire reminders at all: not
// completed, not an un-instantiated recurring parent, recurrence not
// expired, due strictly in the future and within the maximum lookahead.
func Eligible(e *models.Entity, now time.Time) bool {
	if e.Completed {
		return false
	}
	if e.IsSeriesParent() {
		return false
	}
	if e.RecurrenceExpired(now) {
		return false
	}
	untilDue := e.Due().Sub(now)
	return untilDue > 0 && untilDue <= maxLookahead
}
