package query

import (
	"github.com/pkg/errors"
)

// The ordering of a returned set of records
type Ordering uint

const (
	Ascending Ordering = iota
	Descending
)

func ToOrdering(val string) (Ordering, error) {
	switch val {
	case "asc":
		return Ascending, nil
	case "desc":
		return Descending, nil
	default:
		return 0, errors.Errorf("unexpected value: %v", val)
	}
}

func (o Ordering) String() string {
	switch o {
	case Ascending:
		return "asc"
	case Descending:
		return "desc"
	default:
		return "unknown"
	}
}

func (o Ordering) sql() string {
	if o == Descending {
		return "DESC"
	}
	return "ASC"
}

func (o Ordering) cursorComparison() string {
	if o == Descending {
		return "<"
	}
	return ">"
}
