package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrValidation         = errors.New("validation error")
	ErrUpstream           = errors.New("reservation api unavailable")
)
