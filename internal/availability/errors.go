package availability

import "errors"

var (
	ErrUnparseableDate = errors.New("reservation date cannot be parsed")
)
