package postgres

import (
	"errors"

	"github.com/lib/pq"
)

var errSchemaMissing = errors.New("users or consumers table missing")

// uniqueViolation is the SQLSTATE for unique_violation
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}
