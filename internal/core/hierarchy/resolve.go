package hierarchy

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/zeusync/scenegraph/internal/core/events/bus"
	"github.com/zeusync/scenegraph/internal/core/models"
	"github.com/zeusync/scenegraph/internal/core/observability/log"
	"github.com/zeusync/scenegraph/internal/core/world"
)

// EventParented is published on the engine bus once per resolved link, after
// the parenting hooks ran. Event data is a ParentedContext.
const EventParented = "hierarchy.parented"

type nameEntry struct {
	name   string
	entity models.EntityID
}

// nameIndex maps parent_id names to entities for one load. Buckets are keyed
// by the name's hash and hold entries in ascending entity order.
type nameIndex struct {
	buckets map[uint64][]nameEntry
}

func (ix nameIndex) lookup(name string) (models.EntityID, bool) {
	for _, entry := range ix.buckets[xxhash.Sum64String(name)] {
		if entry.name == name {
			return entry.entity, true
		}
	}
	return models.NoEntity, false
}

func (m *Module) buildNameIndex(w *world.World) (nameIndex, error) {
	ix := nameIndex{buckets: make(map[uint64][]nameEntry, world.Count[TempID](w))}
	var err error
	world.Each(w, func(e models.EntityID, id TempID) bool {
		if first, dup := ix.lookup(id.Name); dup {
			if m.opts.Duplicates == DuplicateReject {
				err = fmt.Errorf("%w: %q on %s and %s", ErrDuplicateName, id.Name, first, e)
				return false
			}
			m.logger.Warn("duplicate parent_id name, keeping the first",
				log.String("name", id.Name), log.Stringer("kept", first), log.Stringer("ignored", e))
			return true
		}
		h := xxhash.Sum64String(id.Name)
		ix.buckets[h] = append(ix.buckets[h], nameEntry{name: id.Name, entity: e})
		return true
	})
	return ix, err
}

// onWorldLoad turns TempParent records into Parent links, drops every TempID
// and then reports each link to the hooks and the bus.
func (m *Module) onWorldLoad(_ world.LoadContext, w *world.World) error {
	index, err := m.buildNameIndex(w)
	if err != nil {
		return err
	}

	var parented []ParentedContext
	for _, child := range world.CollectBy[TempParent](w) {
		request, _ := world.Remove[TempParent](w, child)
		parent, ok := index.lookup(request.Parent)
		if !ok {
			m.logger.Debug("parent name not found",
				log.String("name", request.Parent), log.Stringer("child", child))
			continue
		}
		if !world.Has[Parent](w, child) && closesCycle(w, child, parent) {
			m.logger.Warn("parent link would create a cycle, leaving entity unparented",
				log.String("name", request.Parent), log.Stringer("child", child), log.Stringer("parent", parent))
			continue
		}
		parented = append(parented, ParentedContext{Parent: parent, Child: child})
		if err = world.Insert(w, child, Parent{Entity: parent, Offset: request.Offset}); err != nil {
			m.logger.Debug("keeping existing parent",
				log.Stringer("child", child), log.Error(err))
		}
	}

	for _, e := range world.CollectBy[TempID](w) {
		world.Remove[TempID](w, e)
	}

	hooks := m.snapshotHooks()
	events := make([]bus.Event, 0, len(parented))
	for _, ctx := range parented {
		for _, h := range hooks {
			h.hook(w, ctx)
		}
		events = append(events, bus.NewEvent(EventParented, "hierarchy", ctx))
	}

	m.logger.Debug("parents resolved", log.Int("linked", len(parented)), log.Int("hooks", len(hooks)))

	if m.bus == nil || len(events) == 0 {
		return nil
	}
	if err = m.bus.PublishBatch(events...); err != nil {
		return fmt.Errorf("publish %s: %w", EventParented, err)
	}
	return nil
}

// closesCycle reports whether making parent the parent of child would put
// child on its own ancestor chain.
func closesCycle(w *world.World, child, parent models.EntityID) bool {
	parents := world.ReadView[Parent](w)
	limit := parents.Len() + 1
	for ancestor := parent; limit > 0; limit-- {
		if ancestor == child {
			return true
		}
		next, ok := parents.Get(ancestor)
		if !ok {
			return false
		}
		ancestor = next.Entity
	}
	// the existing chain loops without reaching child
	return true
}
