package apperr

import "errors"

var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrInternal     = errors.New("internal error")

	// ErrLastAdmin guards channel admin mutations: the last remaining
	// admin can be neither removed nor demoted.
	ErrLastAdmin = errors.New("cannot remove only admin")

	// ErrEditWindow is returned when a sender edits a message after the
	// edit window has closed.
	ErrEditWindow = errors.New("edit window expired")
)
