package reservations

import "errors"

var (
	ErrSpaceNotFound       = errors.New("space not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrValidation          = errors.New("validation error")
	ErrRejected            = errors.New("reservation rejected")
	ErrStaleView           = errors.New("stale view request")
	ErrUpstream            = errors.New("reservation api unavailable")
	ErrUnsupportedFormat   = errors.New("unsupported export format")
)

// FieldErrors carries per-field messages of a rejected reservation form.
type FieldErrors map[string]string

func (e FieldErrors) Error() string { return ErrValidation.Error() }

func (e FieldErrors) Unwrap() error { return ErrValidation }

// RejectedError is the API refusing a reservation, typically a conflict.
type RejectedError struct {
	Message string
	Fields  map[string][]string
}

func (e *RejectedError) Error() string { return e.Message }

func (e *RejectedError) Unwrap() error { return ErrRejected }
