package retry

import (
	"errors"
	"math/rand"
	"time"

	"github.com/code-payments/presale-server/pkg/retry/backoff"
)

// Strategy decides whether an action that just failed should run again. It
// may sleep before answering.
type Strategy func(attempts uint, err error) bool

// Limit caps the total number of attempts, including the first.
func Limit(maxAttempts uint) Strategy {
	return func(attempts uint, _ error) bool {
		return attempts < maxAttempts
	}
}

// RetriableErrors only allows another attempt for the listed errors, matched
// with errors.Is.
func RetriableErrors(retriableErrors ...error) Strategy {
	return func(_ uint, err error) bool {
		for _, target := range retriableErrors {
			if errors.Is(err, target) {
				return true
			}
		}
		return false
	}
}

// RetriableWhen only allows another attempt when match accepts the error.
func RetriableWhen(match func(error) bool) Strategy {
	return func(_ uint, err error) bool {
		return match(err)
	}
}

// Backoff sleeps for the delay the backoff strategy computes, capped at
// maxBackoff.
func Backoff(strategy backoff.Strategy, maxBackoff time.Duration) Strategy {
	return func(attempts uint, _ error) bool {
		sleeperImpl.Sleep(capDelay(strategy(attempts), maxBackoff))
		return true
	}
}

// BackoffWithJitter is Backoff with the capped delay randomly moved by up to
// jitter (a fraction of the delay) in either direction.
func BackoffWithJitter(strategy backoff.Strategy, maxBackoff time.Duration, jitter float64) Strategy {
	return func(attempts uint, _ error) bool {
		delay := capDelay(strategy(attempts), maxBackoff)
		factor := 1 + (rand.Float64()*2-1)*jitter
		sleeperImpl.Sleep(time.Duration(float64(delay) * factor))
		return true
	}
}

func capDelay(delay, max time.Duration) time.Duration {
	if delay > max {
		return max
	}
	return delay
}

type sleeper interface {
	Sleep(time.Duration)
}

type realSleeper struct{}

func (r *realSleeper) Sleep(d time.Duration) { time.Sleep(d) }

var sleeperImpl sleeper = &realSleeper{}
