// Package backoff provides delay schedules for retry.
package backoff

import (
	"math"
	"time"
)

// Strategy returns the delay before the next attempt. Attempts start at 1.
type Strategy func(attempts uint) time.Duration

// Constant waits the same interval between every attempt.
func Constant(interval time.Duration) Strategy {
	return func(uint) time.Duration {
		return interval
	}
}

// Exponential waits baseDelay * base^(attempts-1), saturating instead of
// overflowing.
//
// Ex. Exponential(10*time.Millisecond, 2) = 10ms, 20ms, 40ms, ...
func Exponential(baseDelay time.Duration, base float64) Strategy {
	return func(attempts uint) time.Duration {
		delay := float64(baseDelay) * math.Pow(base, float64(attempts-1))
		if delay >= math.MaxInt64 || delay < 0 {
			return math.MaxInt64
		}
		return time.Duration(delay)
	}
}
