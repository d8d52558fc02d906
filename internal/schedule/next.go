package schedule

import "time"

// NextOccurrence computes the next wall-clock time strictly after from at
// which a fixed daily (or weekly, when weekday is set) schedule matches:
// minute zero of the given hour. Missed occurrences are never backfilled;
// callers simply recompute after each fire.
func NextOccurrence(from time.Time, hour int, weekday *time.Weekday) time.Time {
	next := time.Date(from.Year(), from.Month(), from.Day(), hour, 0, 0, 0, from.Location())
	if !next.After(from) {
		next = next.AddDate(0, 0, 1)
	}
	if weekday != nil {
		for next.Weekday() != *weekday {
			next = next.AddDate(0, 0, 1)
		}
	}
	return next
}
