package staking

import "time"

const secondsPerDay = 86_400

// Clock abstracts the current-time source so reward accrual can be driven by
// a deterministic clock in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the operating system wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// DaysBetween returns the number of whole days between two unix timestamps,
// saturating at zero when to precedes from.
func DaysBetween(from, to int64) uint64 {
	if to < from {
		return 0
	}
	return uint64(to-from) / secondsPerDay
}
