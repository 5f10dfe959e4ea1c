/*
reconcile.go - Timeline reconciliation

PURPOSE:
  Pairs a user's raw clock events into completed work intervals
  (time_in, time_out). This is where malformed sequences are detected:
  odd counts and consecutive same-direction events.

ALGORITHM:
  1. Sort events chronologically ascending (queries return descending).
  2. If the sequence strictly alternates and ends on an IN, the user is
     still clocked in: the trailing IN is excluded from output, not an
     error.
  3. Otherwise, an odd count drops the OLDEST event (see below).
  4. Walk events pairwise (e[0],e[1]), (e[2],e[3]), ... Each pair is
     assumed IN-then-OUT. With strict checking enabled, a pair that is
     not IN-then-OUT surfaces MismatchedClockError instead of silently
     pairing wrong events.

DROP-OLDEST:
  Historical behavior on odd counts was to discard the earliest event.
  This silently discards data and is almost certainly a bug rather than
  intent, but it is preserved for compatibility behind the named
  DropOldestUnpaired function so the behavior is reproducible and pinned
  by tests. Flagged for product-owner review.

SEE ALSO:
  - calculator.go: Consumes the reconciled intervals
*/
package timeclock

import (
	"sort"
	"time"
)

// =============================================================================
// WORK INTERVAL - One completed in/out cycle
// =============================================================================

type WorkInterval struct {
	TimeIn  time.Time
	TimeOut time.Time
	In      Event
	Out     Event
}

// Duration returns the wall-clock length of the interval.
func (w WorkInterval) Duration() time.Duration { return w.TimeOut.Sub(w.TimeIn) }

// =============================================================================
// RECONCILER
// =============================================================================

// ReconcileOptions controls validation strictness.
type ReconcileOptions struct {
	// StrictDirections rejects pairs that are not IN-then-OUT.
	// Equivalent to the legacy total-clock-count validation.
	StrictDirections bool
}

// Reconcile pairs events into work intervals. Input order does not
// matter; events are sorted ascending before pairing.
func Reconcile(events []Event, opts ReconcileOptions) ([]WorkInterval, error) {
	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	if len(sorted)%2 != 0 {
		if alternates(sorted) && sorted[len(sorted)-1].Direction == DirectionIn {
			// Still clocked in: the trailing IN has no OUT yet.
			sorted = sorted[:len(sorted)-1]
		} else {
			sorted = DropOldestUnpaired(sorted)
		}
	}

	intervals := make([]WorkInterval, 0, len(sorted)/2)
	for i := 0; i+1 < len(sorted); i += 2 {
		in, out := sorted[i], sorted[i+1]
		if opts.StrictDirections && (in.Direction != DirectionIn || out.Direction != DirectionOut) {
			return nil, &MismatchedClockError{
				UserID: in.UserID,
				Count:  len(events),
				At:     in.Time,
				Detail: "consecutive events with the same direction",
			}
		}
		intervals = append(intervals, WorkInterval{
			TimeIn:  in.Time,
			TimeOut: out.Time,
			In:      in,
			Out:     out,
		})
	}
	return intervals, nil
}

// DropOldestUnpaired removes the earliest event from an odd-length
// sequence. Preserved legacy behavior: it discards data silently and is
// flagged as questionable, but kept so results match the historical
// system. Callers must pass an ascending-sorted slice.
func DropOldestUnpaired(sorted []Event) []Event {
	if len(sorted) == 0 {
		return sorted
	}
	return sorted[1:]
}

// CheckTotalClockCount reports whether the events can form complete
// in/out pairs: an even count of strictly alternating directions.
func CheckTotalClockCount(events []Event) bool {
	if len(events)%2 != 0 {
		return false
	}
	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})
	return alternates(sorted)
}

func alternates(sorted []Event) bool {
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Direction == sorted[i-1].Direction {
			return false
		}
	}
	return true
}
