package repository

import (
	"errors"

	"github.com/lib/pq"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("user with this email already exists")
)

const (
	pqUniqueViolation = "23505"
	pqInvalidTextRepr = "22P02" // malformed uuid literal
)

func pqCode(err error) pq.ErrorCode {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code
	}
	return ""
}
