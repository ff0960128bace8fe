package world

import "errors"

// World errors
var (
	ErrEntityNotAlive     = errors.New("entity is not alive")
	ErrComponentExists    = errors.New("component already present on entity")
	ErrStoreBorrowed      = errors.New("component store is borrowed by an active iteration")
	ErrUnknownComponent   = errors.New("unknown component key")
	ErrDuplicateComponent = errors.New("component key already registered")
	ErrMalformedScene     = errors.New("malformed scene document")
)
