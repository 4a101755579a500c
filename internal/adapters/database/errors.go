package database

import (
	"errors"

	"github.com/lib/pq"

	apperrors "github.com/zatekoja/servicehub/pkg/errors"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func hasPQCode(err error, code string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == code
}

// insertError maps unique violations to conflicts and everything else to internal errors
func insertError(err error, conflictMsg, internalMsg string) error {
	if hasPQCode(err, pqUniqueViolation) {
		return apperrors.NewConflictError(conflictMsg)
	}
	return apperrors.NewInternalError(internalMsg, err)
}
