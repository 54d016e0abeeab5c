// Package cadence computes the next occurrence date of a recurring event.
// All functions are pure; dates are treated as midnight-UTC calendar days.
package cadence

import (
	"time"

	"github.com/username/recurro/backend/src/models"
)

// NextOccurrence returns the next occurrence strictly after from for the
// given cadence. dayAnchor is the optional day-of-month anchor; pass 0 to
// anchor on from's own day. For models.CadenceUnknown there is no projection
// and ok is false: an unclassified series has no projected due date until
// enough history accumulates.
func NextOccurrence(from time.Time, c models.Cadence, dayAnchor int) (next time.Time, ok bool) {
	from = midnight(from)
	switch c {
	case models.CadenceWeekly:
		return from.AddDate(0, 0, 7), true
	case models.CadenceBiweekly:
		return from.AddDate(0, 0, 14), true
	case models.CadenceSemimonthly:
		return nextSemimonthly(from), true
	case models.CadenceMonthly:
		return addMonthsClamped(from, 1, dayAnchor), true
	case models.CadenceQuarterly:
		return addMonthsClamped(from, 3, dayAnchor), true
	case models.CadenceYearly:
		return addMonthsClamped(from, 12, dayAnchor), true
	default:
		return time.Time{}, false
	}
}

// nextSemimonthly moves strictly forward to the nearer of the 1st or the
// 15th; from itself is never returned.
func nextSemimonthly(from time.Time) time.Time {
	if from.Day() < 15 {
		return time.Date(from.Year(), from.Month(), 15, 0, 0, 0, 0, time.UTC)
	}
	first := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, 1, 0)
}

// addMonthsClamped advances by whole calendar months preserving the anchor
// day. When the target month is shorter than the anchor the day clamps to
// the month's last valid day instead of overflowing into the next month
// (time.AddDate would normalize Jan 31 + 1 month to Mar 2/3).
func addMonthsClamped(from time.Time, months, dayAnchor int) time.Time {
	day := dayAnchor
	if day <= 0 {
		day = from.Day()
	}
	target := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)
	if last := daysInMonth(target.Year(), target.Month()); day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day, 0, 0, 0, 0, time.UTC)
}

func daysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
