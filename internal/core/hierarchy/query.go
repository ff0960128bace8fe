package hierarchy

import (
	"github.com/zeusync/scenegraph/internal/core/models"
	"github.com/zeusync/scenegraph/internal/core/systems/physics"
	"github.com/zeusync/scenegraph/internal/core/world"
)

// EntityByTempName finds the first entity (lowest id) whose parent_id is name.
// It only works while the records still exist, i.e. before the hierarchy
// load hook of that world has run.
func EntityByTempName(w *world.World, name string) (models.EntityID, bool) {
	found := models.NoEntity
	world.Each(w, func(e models.EntityID, id TempID) bool {
		if id.Name == name {
			found = e
			return false
		}
		return true
	})
	return found, found.Valid()
}

// Children lists the entities whose Parent targets parent, ascending.
func Children(w *world.World, parent models.EntityID) []models.EntityID {
	var out []models.EntityID
	world.Each(w, func(e models.EntityID, p Parent) bool {
		if p.Entity == parent {
			out = append(out, e)
		}
		return true
	})
	return out
}

// SetParent links child under parent with the given offset, replacing any
// previous link. It refuses links that would make child its own ancestor.
func SetParent(w *world.World, child, parent models.EntityID, offset physics.Transform) error {
	if !w.Alive(child) || !w.Alive(parent) {
		return world.ErrEntityNotAlive
	}
	if closesCycle(w, child, parent) {
		return ErrCycle
	}
	return world.Set(w, child, Parent{Entity: parent, Offset: offset})
}

// Unparent removes child's link and reports whether it had one. The child
// becomes a root if it carries a Transform.
func Unparent(w *world.World, child models.EntityID) bool {
	_, ok := world.Remove[Parent](w, child)
	return ok
}
