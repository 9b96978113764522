package store

import (
	"errors"
	"math"

	"github.com/lib/pq"
)

// MaxPoints bounds task points and user totals. It matches the INTEGER
// columns that hold them.
const MaxPoints = math.MaxInt32

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write collides with an existing record or
// with a concurrent change.
var ErrConflict = errors.New("conflict")

// ErrValidation is returned when caller-supplied data is malformed.
var ErrValidation = errors.New("validation failed")

const (
	pqUniqueViolation = "23505"
	pqOutOfRange      = "22003"
)

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

func isOutOfRange(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqOutOfRange
}
