package valueobject

import "errors"

var (
	ErrInvalidURL  = errors.New("invalid destination url")
	ErrInvalidCode = errors.New("invalid short code format")
)
