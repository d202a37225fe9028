package booking

import (
	"fmt"
	"time"
)

// PricingStrategy defines the interface for calculating booking prices.
type PricingStrategy interface {
	// Calculate returns the total charge in cents for the given stay.
	Calculate(params PricingParams) (int64, error)
}

// PricingParams holds the inputs for price calculation.
type PricingParams struct {
	CheckIn   time.Time
	CheckOut  time.Time
	RateCents int64
}

// NightlyPricingStrategy charges the room rate once per night.
type NightlyPricingStrategy struct{}

// NewNightlyPricingStrategy creates a new NightlyPricingStrategy.
func NewNightlyPricingStrategy() *NightlyPricingStrategy {
	return &NightlyPricingStrategy{}
}

// Calculate computes nights × rate. The range must cover at least one
// calendar night.
func (s *NightlyPricingStrategy) Calculate(params PricingParams) (int64, error) {
	if !params.CheckOut.After(params.CheckIn) {
		return 0, NewInvalidRangeError("check-out date must be after check-in date")
	}
	if params.RateCents < 0 {
		return 0, fmt.Errorf("rate cannot be negative")
	}

	nights := NightsBetween(params.CheckIn, params.CheckOut)
	if nights < 1 {
		return 0, NewInvalidRangeError("stay must span at least one night")
	}
	return nights * params.RateCents, nil
}

// NightsBetween returns the calendar-day difference between the UTC dates
// of in and out. Times of day are ignored.
func NightsBetween(in, out time.Time) int64 {
	y1, m1, d1 := in.UTC().Date()
	y2, m2, d2 := out.UTC().Date()
	start := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	end := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return int64(end.Sub(start).Hours() / 24)
}
