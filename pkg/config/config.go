package config

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrNoValue indicates no value was set for the config
	ErrNoValue = errors.New("config: no value set")

	// ErrShutdown indicates the use of a Config after calling Shutdown
	ErrShutdown = errors.New("config: shutdown")
)

// Config is an interface for getting a configuration value
type Config interface {
	// Get returns the latest config value
	Get(ctx context.Context) (interface{}, error)

	// Shutdown signals the config to stop all underlying resources
	Shutdown()
}

// NoopConfig is a config that does not yield any values.
var NoopConfig = &noopConfig{}

type noopConfig struct{}

func (*noopConfig) Get(_ context.Context) (interface{}, error) {
	return nil, ErrNoValue
}

func (*noopConfig) Shutdown() {
}

// Value is a typed view over a Config. Get never fails and falls back to the
// last known or default value, while GetSafe surfaces lookup errors.
type Value[T any] interface {
	Get(ctx context.Context) T
	GetSafe(ctx context.Context) (T, error)
	Shutdown()
}

type (
	Bool     = Value[bool]
	Duration = Value[time.Duration]
	Float64  = Value[float64]
	Int64    = Value[int64]
	Uint64   = Value[uint64]
	String   = Value[string]
)
