package refectory

import (
	"errors"
	"net/http"
)

var (
	ErrEmptyBatch         = errors.New("at least one vigency date is required")
	ErrDuplicateInBatch   = errors.New("duplicated vigency date provided")
	ErrPastVigencyDate    = errors.New("some provided vigency date is in the past")
	ErrVigencyDateCleared = errors.New("vigency date cannot be cleared")
	ErrNotAccepting       = errors.New("this refectory does not accept answers")
	ErrInvalidStatus      = errors.New("unknown refectory status")

	ErrVigencyDateExists = errors.New("some provided vigency date already exists")
	ErrAlreadyAnswered   = errors.New("user already answered this refectory")

	ErrFormOpen = errors.New("an open refectory cannot be changed")

	ErrFormNotFound = errors.New("refectory not found")
	ErrUserNotFound = errors.New("user not found")

	ErrInternal = errors.New("Internal server error")
)

// HTTPStatus maps an engine error to the response status code
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrEmptyBatch),
		errors.Is(err, ErrDuplicateInBatch),
		errors.Is(err, ErrPastVigencyDate),
		errors.Is(err, ErrVigencyDateCleared),
		errors.Is(err, ErrNotAccepting),
		errors.Is(err, ErrInvalidStatus):
		return http.StatusBadRequest
	case errors.Is(err, ErrVigencyDateExists), errors.Is(err, ErrAlreadyAnswered):
		return http.StatusConflict
	case errors.Is(err, ErrFormOpen):
		return http.StatusForbidden
	case errors.Is(err, ErrFormNotFound), errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
