/*
payrate.go - Pay rate resolution

PURPOSE:
  Finds the rate in effect at or near a date. Rate rows are not required
  to be contiguous or non-overlapping, so resolution is defensive: it
  scans the user's rates rather than trusting range invariants.

CONTRACT:
  RateBeforeOrAt: the rate with the latest Start <= date.
  RateAfter:      the rate with the earliest Start > date.
  Both return (nil, nil) when no such rate exists. "No pay rate" is a
  distinct, user-visible condition raised by the calculator, not here.

SEE ALSO:
  - calculator.go: Raises NoPayRateError when resolution comes up empty
*/
package timeclock

import (
	"context"
	"time"
)

type RateResolver struct {
	Rates PayRateStore
}

func NewRateResolver(store PayRateStore) *RateResolver {
	return &RateResolver{Rates: store}
}

// RateBeforeOrAt returns the pay rate with the latest Start at or before
// date, or nil if the user has no rate that early.
func (r *RateResolver) RateBeforeOrAt(ctx context.Context, userID UserID, date time.Time) (*PayRate, error) {
	rates, err := r.Rates.PayRatesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var best *PayRate
	for i := range rates {
		rate := rates[i]
		if rate.Start.After(date) {
			continue
		}
		if best == nil || rate.Start.After(best.Start) {
			best = &rate
		}
	}
	return best, nil
}

// RateAfter returns the pay rate with the earliest Start strictly after
// date, or nil if none exists.
func (r *RateResolver) RateAfter(ctx context.Context, userID UserID, date time.Time) (*PayRate, error) {
	rates, err := r.Rates.PayRatesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var best *PayRate
	for i := range rates {
		rate := rates[i]
		if !rate.Start.After(date) {
			continue
		}
		if best == nil || rate.Start.Before(best.Start) {
			best = &rate
		}
	}
	return best, nil
}
