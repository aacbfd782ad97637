package testutil

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitFor(t *testing.T) {
	var calls int
	require.NoError(t, WaitFor(time.Second, 5*time.Millisecond, func() bool {
		calls++
		return calls == 3
	}))
	assert.Equal(t, 3, calls)

	err := WaitFor(50*time.Millisecond, 10*time.Millisecond, func() bool {
		return false
	})
	assert.True(t, errors.Is(err, ErrConditionNotMet))

	assert.Error(t, WaitFor(50*time.Millisecond, 100*time.Millisecond, func() bool {
		return true
	}))
}

func TestIsVerbose(t *testing.T) {
	assert.True(t, isVerbose([]string{"pkg.test", "-test.v=true"}))
	assert.True(t, isVerbose([]string{"pkg.test", "-test.v"}))
	assert.False(t, isVerbose([]string{"pkg.test", "-test.run=TestX"}))
}
