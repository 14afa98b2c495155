package spaces

import "errors"

var (
	ErrSpaceNotFound = errors.New("space not found")
	ErrValidation    = errors.New("validation error")
	ErrUpstream      = errors.New("reservation api unavailable")
)

// FieldErrors carries per-field messages of a rejected space form.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	return ErrValidation.Error()
}

func (e FieldErrors) Unwrap() error {
	return ErrValidation
}
