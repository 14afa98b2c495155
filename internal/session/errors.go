package session

import "errors"

var (
	ErrNotFound  = errors.New("session not found")
	ErrExpired   = errors.New("session expired")
	ErrDuplicate = errors.New("session id collision")

	ErrInvalidToken = errors.New("api token failed verification")
)
