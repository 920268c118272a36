package repository

import (
	"errors"

	"github.com/lib/pq"
)

// PostgreSQL error codes.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// pqError returns the underlying *pq.Error with the given code, if any.
func pqError(err error, code pq.ErrorCode) (*pq.Error, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == code {
		return pqErr, true
	}
	return nil, false
}

func isUniqueViolation(err error) bool {
	_, ok := pqError(err, codeUniqueViolation)
	return ok
}

// foreignKeyTarget maps a foreign key violation to the not found error of
// the referenced row, or returns nil. Constraint names follow PostgreSQL's
// default <table>_<column>_fkey naming.
func foreignKeyTarget(err error, targets map[string]error) error {
	pqErr, ok := pqError(err, codeForeignKeyViolation)
	if !ok {
		return nil
	}
	return targets[pqErr.Constraint]
}
