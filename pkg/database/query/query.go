package query

import (
	"errors"
)

var (
	ErrQueryNotSupported = errors.New("the requested query option is not supported")
)

// SupportedOptions is the set of options a store query accepts
type SupportedOptions byte

const (
	CanLimitResults  SupportedOptions = 0x01
	CanSortBy        SupportedOptions = 0x01 << 1
	CanQueryByCursor SupportedOptions = 0x01 << 2
)

type QueryOptions struct {
	Supported SupportedOptions

	SortBy Ordering
	Limit  uint64
	Cursor Cursor
}

type Option func(*QueryOptions) error

func (qo *QueryOptions) supports(option SupportedOptions) bool {
	return qo.Supported&option == option
}

func (qo *QueryOptions) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(qo); err != nil {
			return err
		}
	}
	return nil
}

func requires(option SupportedOptions, set func(*QueryOptions)) Option {
	return func(qo *QueryOptions) error {
		if !qo.supports(option) {
			return ErrQueryNotSupported
		}
		set(qo)
		return nil
	}
}

func WithDirection(val Ordering) Option {
	return requires(CanSortBy, func(qo *QueryOptions) { qo.SortBy = val })
}

func WithLimit(val uint64) Option {
	return requires(CanLimitResults, func(qo *QueryOptions) { qo.Limit = val })
}

func WithCursor(val []byte) Option {
	return requires(CanQueryByCursor, func(qo *QueryOptions) { qo.Cursor = val })
}
