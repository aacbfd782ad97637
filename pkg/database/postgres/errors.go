package pg

import (
	"database/sql"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/pkg/errors"
)

func CheckNoRows(inErr, outErr error) error {
	if IsNoRows(inErr) {
		return outErr
	}
	return inErr
}

func IsNoRows(err error) bool {
	return err != nil && errors.Is(err, sql.ErrNoRows)
}

func CheckUniqueViolation(inErr, outErr error) error {
	if IsUniqueViolation(inErr) {
		return outErr
	}
	return inErr
}

func IsUniqueViolation(err error) bool {
	return hasCode(err, pgerrcode.UniqueViolation)
}

// CheckConstraintViolation maps a failed CHECK constraint to outErr
func CheckConstraintViolation(inErr, outErr error) error {
	if hasCode(inErr, pgerrcode.CheckViolation) {
		return outErr
	}
	return inErr
}

func IsSerializationFailure(err error) bool {
	return hasCode(err, pgerrcode.SerializationFailure) || hasCode(err, pgerrcode.DeadlockDetected)
}

func hasCode(err error, code string) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}
