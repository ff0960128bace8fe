package engine

import "errors"

// Engine errors
var (
	ErrInvalidConfig   = errors.New("invalid engine configuration")
	ErrDuplicateSystem = errors.New("system already registered")
)
