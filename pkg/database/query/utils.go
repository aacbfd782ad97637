package query

import "strconv"

const (
	defaultPagingLimit = 1000
)

// PaginateQuery returns a paginated query string for the given input options.
//
// The input query string is expected as follows:
//
//	"SELECT ... WHERE (...)" <- these brackets are not optional
//
// The output query string would be as follows:
//
//	"SELECT ... WHERE (...) AND id > $n ORDER BY id ASC LIMIT $m"
//	-or-
//	"SELECT ... WHERE (...) AND id < $n ORDER BY id DESC LIMIT $m"
//
// Cursors are exclusive, and the bound arguments are appended to opts.
func PaginateQuery(query string, opts []interface{}, cursor Cursor, limit uint64, direction Ordering) (string, []interface{}) {
	if len(cursor) > 0 {
		opts = append(opts, cursor.ToUint64())
		query += " AND id " + direction.cursorComparison() + " $" + strconv.Itoa(len(opts))
	}

	query += " ORDER BY id " + direction.sql()

	if limit > 0 {
		opts = append(opts, limit)
		query += " LIMIT $" + strconv.Itoa(len(opts))
	}

	return query, opts
}

// DefaultPaginationHandler applies opts over the defaults every paged store
// query shares: ascending, from the start, at most 1000 results
func DefaultPaginationHandler(opts ...Option) (*QueryOptions, error) {
	req := QueryOptions{
		Limit:     defaultPagingLimit,
		SortBy:    Ascending,
		Supported: CanLimitResults | CanSortBy | CanQueryByCursor,
	}
	if err := req.Apply(opts...); err != nil {
		return nil, ErrQueryNotSupported
	}

	if req.Limit == 0 || req.Limit > defaultPagingLimit {
		return nil, ErrQueryNotSupported
	}
	if len(req.Cursor) > 0 && len(req.Cursor) != cursorSize {
		return nil, ErrInvalidCursor
	}

	return &req, nil
}
