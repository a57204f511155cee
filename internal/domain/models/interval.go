package models

// Interval is the sampling interval requested from market-data providers.
type Interval string

const (
	IntervalDaily  Interval = "daily"
	IntervalHourly Interval = "hourly"
)

// IsValidInterval returns true if iv is supported.
func IsValidInterval(iv Interval) bool {
	switch iv {
	case IntervalDaily, IntervalHourly:
		return true
	default:
		return false
	}
}

// DefaultInterval returns the default sampling interval.
func DefaultInterval() Interval { return IntervalDaily }

// NormalizeInterval converts raw string to a valid interval (or default).
func NormalizeInterval(s string) Interval {
	if s == "" {
		return DefaultInterval()
	}
	iv := Interval(s)
	if IsValidInterval(iv) {
		return iv
	}
	return DefaultInterval()
}

// PeriodsPerYear returns the annualization base for the interval.
func (iv Interval) PeriodsPerYear() float64 {
	if iv == IntervalHourly {
		return 365 * 24
	}
	return 365
}
