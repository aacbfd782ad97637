package testutil

import (
	"time"

	"github.com/pkg/errors"
)

var ErrConditionNotMet = errors.New("condition not met")

// WaitFor polls condition every interval until it holds or timeout elapses
func WaitFor(timeout, interval time.Duration, condition func() bool) error {
	if timeout < interval {
		return errors.New("timeout must be greater than interval")
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if condition() {
			return nil
		}

		select {
		case <-deadline.C:
			return errors.Wrapf(ErrConditionNotMet, "waited %v", timeout)
		case <-ticker.C:
		}
	}
}
