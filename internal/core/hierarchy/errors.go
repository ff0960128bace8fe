package hierarchy

import "errors"

var (
	// ErrDuplicateName fails a load that repeats a parent_id name while
	// duplicates are rejected.
	ErrDuplicateName = errors.New("duplicate parent_id name")
	// ErrCycle rejects a link that would make an entity its own ancestor.
	ErrCycle = errors.New("parent link would create a cycle")
)
