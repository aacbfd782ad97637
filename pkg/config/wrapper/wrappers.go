package wrapper

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/code-payments/presale-server/pkg/config"
)

var ErrUnsuportedConversion = errors.New("unsupported config value conversion")

// converter turns a raw config value into T. Raw values are either the typed
// value itself (memory configs) or its textual form as bytes (env configs).
type converter[T any] func(raw interface{}) (T, error)

type typedConfig[T any] struct {
	override     config.Config
	defaultValue T
	convert      converter[T]

	stateMu   sync.RWMutex
	lastValue T
}

func newTypedConfig[T any](override config.Config, defaultValue T, convert converter[T]) *typedConfig[T] {
	return &typedConfig[T]{
		override:     override,
		defaultValue: defaultValue,
		convert:      convert,
		lastValue:    defaultValue,
	}
}

// GetSafe gets a config value and propagates any errors that arise. A best-effort
// attempt is made to return the last known value
func (c *typedConfig[T]) GetSafe(ctx context.Context) (T, error) {
	raw, err := c.override.Get(ctx)

	c.stateMu.RLock()
	lastValue := c.lastValue
	c.stateMu.RUnlock()

	if err == config.ErrNoValue {
		c.setLastValue(c.defaultValue)
		return c.defaultValue, nil
	} else if err != nil {
		return lastValue, err
	}

	value, err := c.convert(raw)
	if err != nil {
		return lastValue, err
	}

	c.setLastValue(value)
	return value, nil
}

// Get is a wrapper for GetSafe that ignores the returned error
func (c *typedConfig[T]) Get(ctx context.Context) T {
	val, _ := c.GetSafe(ctx)
	return val
}

// Shutdown signals the config to stop all underlying resources
func (c *typedConfig[T]) Shutdown() {
	c.override.Shutdown()
}

func (c *typedConfig[T]) setLastValue(value T) {
	c.stateMu.Lock()
	c.lastValue = value
	c.stateMu.Unlock()
}

// NewBoolConfig returns a new bool config utility wrapper
func NewBoolConfig(override config.Config, defaultValue bool) config.Bool {
	return newTypedConfig(override, defaultValue, func(raw interface{}) (bool, error) {
		switch v := raw.(type) {
		case []byte:
			return strconv.ParseBool(string(v))
		case bool:
			return v, nil
		}
		return false, ErrUnsuportedConversion
	})
}

// NewInt64Config returns a new int64 config utility wrapper
func NewInt64Config(override config.Config, defaultValue int64) config.Int64 {
	return newTypedConfig(override, defaultValue, func(raw interface{}) (int64, error) {
		switch v := raw.(type) {
		case []byte:
			return strconv.ParseInt(string(v), 10, 64)
		case int64:
			return v, nil
		case int:
			return int64(v), nil
		}
		return 0, ErrUnsuportedConversion
	})
}

// NewUint64Config returns a new uint64 config utility wrapper
func NewUint64Config(override config.Config, defaultValue uint64) config.Uint64 {
	return newTypedConfig(override, defaultValue, func(raw interface{}) (uint64, error) {
		switch v := raw.(type) {
		case []byte:
			return strconv.ParseUint(string(v), 10, 64)
		case uint64:
			return v, nil
		case uint:
			return uint64(v), nil
		case int:
			if v < 0 {
				return 0, ErrUnsuportedConversion
			}
			return uint64(v), nil
		}
		return 0, ErrUnsuportedConversion
	})
}

// NewFloat64Config returns a new float64 config utility wrapper
func NewFloat64Config(override config.Config, defaultValue float64) config.Float64 {
	return newTypedConfig(override, defaultValue, func(raw interface{}) (float64, error) {
		switch v := raw.(type) {
		case []byte:
			return strconv.ParseFloat(string(v), 64)
		case float64:
			return v, nil
		}
		return 0, ErrUnsuportedConversion
	})
}

// NewStringConfig returns a new string config utility wrapper
func NewStringConfig(override config.Config, defaultValue string) config.String {
	return newTypedConfig(override, defaultValue, func(raw interface{}) (string, error) {
		switch v := raw.(type) {
		case []byte:
			return string(v), nil
		case string:
			return v, nil
		}
		return "", ErrUnsuportedConversion
	})
}

// NewDurationConfig returns a new duration config utility wrapper. Textual
// values use time.ParseDuration syntax, for example "1m30s".
func NewDurationConfig(override config.Config, defaultValue time.Duration) config.Duration {
	return newTypedConfig(override, defaultValue, func(raw interface{}) (time.Duration, error) {
		switch v := raw.(type) {
		case []byte:
			return time.ParseDuration(string(v))
		case time.Duration:
			return v, nil
		}
		return 0, ErrUnsuportedConversion
	})
}
