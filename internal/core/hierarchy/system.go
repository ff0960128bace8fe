package hierarchy

import (
	"github.com/zeusync/scenegraph/internal/core/models"
	"github.com/zeusync/scenegraph/internal/core/observability/log"
	"github.com/zeusync/scenegraph/internal/core/systems/physics"
	"github.com/zeusync/scenegraph/internal/core/world"
)

// Stats summarizes one evaluation pass.
type Stats struct {
	// Updated entities had their Transform rewritten.
	Updated int
	// Orphaned entities sit under an ancestor that is neither parented nor a
	// root; their Transform was left as is.
	Orphaned int
	// Cyclic entities sit on or under a parent cycle, or under a chain deeper
	// than MaxDepth; their Transform was left as is.
	Cyclic int
}

// Evaluate rewrites the Transform of every entity that has both a Parent and
// a Transform to root ∘ offsets along its ancestor chain.
//
// Each entity walks its own chain up to the root: intermediate levels are
// recomputed per descendant, but no child lists or dirty flags are needed and
// evaluation order does not matter. The written Transforms belong to entities
// with a Parent; the roots are read through a view that excludes every such
// entity, and the walk itself only reads Parent.
func Evaluate(w *world.World, maxDepth int) Stats {
	parents := world.ReadView[Parent](w)
	targets, roots := world.Split[physics.Transform, Parent](w)

	limit := parents.Len()
	if maxDepth > 0 && maxDepth < limit {
		limit = maxDepth
	}

	var stats Stats
	targets.Each(func(e models.EntityID, own Parent, absolute *physics.Transform) {
		relative := own.Offset
		ancestor := own.Entity
		for hops := 0; ; hops++ {
			next, ok := parents.Get(ancestor)
			if !ok {
				break
			}
			if ancestor == e || hops >= limit {
				stats.Cyclic++
				return
			}
			relative = next.Offset.Compose(relative)
			ancestor = next.Entity
		}
		// ancestor has no Parent, so it is either a root or gone.
		root, ok := roots.Get(ancestor)
		if !ok {
			stats.Orphaned++
			return
		}
		*absolute = root.Compose(relative)
		stats.Updated++
	})
	return stats
}

// System evaluates w with no depth bound beyond the cycle guard.
func System(w *world.World) error {
	Evaluate(w, 0)
	return nil
}

// System evaluates w with the module's options and logs anomalies.
func (m *Module) System(w *world.World) error {
	stats := Evaluate(w, m.opts.MaxDepth)
	if stats.Cyclic > 0 {
		m.logger.Warn("parent cycles skipped", log.Int("entities", stats.Cyclic))
	}
	if stats.Orphaned > 0 {
		m.logger.Debug("orphaned entities kept stale transforms", log.Int("entities", stats.Orphaned))
	}
	return nil
}
