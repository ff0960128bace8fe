package models

import "strconv"

// EntityID is an opaque, comparable handle issued by a world.
// Zero is never issued and marks "no entity".
type EntityID uint64

// NoEntity is the zero handle.
const NoEntity EntityID = 0

// Valid reports whether the id can refer to an entity.
func (id EntityID) Valid() bool { return id != NoEntity }

func (id EntityID) String() string {
	return "e" + strconv.FormatUint(uint64(id), 10)
}

// EntityMap maps entity ids of one world onto the ids of another.
// Keys are the old (source) ids, values the new (destination) ids.
type EntityMap map[EntityID]EntityID
