package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/hotel-reservation-engine/internal/repository"
)

// Error kinds.  Every error returned by a service wraps exactly one of
// these, so callers classify with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrPrecondition = errors.New("precondition failed")
	ErrUnauthorized = errors.New("unauthorized")
)

// Error carries a caller-facing message and its kind.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }
func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func validation(format string, args ...any) error { return newError(ErrValidation, format, args...) }
func notFound(format string, args ...any) error   { return newError(ErrNotFound, format, args...) }
func conflict(format string, args ...any) error   { return newError(ErrConflict, format, args...) }
func precondition(format string, args ...any) error {
	return newError(ErrPrecondition, format, args...)
}

// lookup turns a store miss into a NotFound naming what was missing and
// passes any other error through.
func lookup(err error, what string, id uint64) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound("%s %d not found", what, id)
	}
	return err
}
