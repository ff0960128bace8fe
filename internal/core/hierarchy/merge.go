package hierarchy

import (
	"slices"

	"github.com/google/uuid"

	"github.com/zeusync/scenegraph/internal/core/models"
	"github.com/zeusync/scenegraph/internal/core/observability/log"
	"github.com/zeusync/scenegraph/internal/core/world"
)

type retarget struct {
	child  models.EntityID
	target models.EntityID
}

// Remap points every Parent of a merged entity at the merged id of its old
// target. entityMap keys are old ids, values the ids in w. Parents whose
// target is not an old key are left alone. All rewrites are decided before
// any is applied, so a chain like {1→2, 2→3} moves each target exactly once.
// It returns the number of rewritten links.
func Remap(w *world.World, entityMap models.EntityMap) int {
	var rewrites []retarget
	for _, merged := range entityMap {
		p, ok := world.Get[Parent](w, merged)
		if !ok {
			continue
		}
		if target, ok := entityMap[p.Entity]; ok {
			rewrites = append(rewrites, retarget{child: merged, target: target})
		}
	}
	for _, r := range rewrites {
		p, _ := world.Get[Parent](w, r.child)
		p.Entity = r.target
	}
	return len(rewrites)
}

// onWorldMerge remaps Parent links once per merge pass. A pass is identified
// by its MergeContext.ID; replaying one of the last recentMerges passes is a
// no-op.
func (m *Module) onWorldMerge(dst, _ *world.World, entityMap models.EntityMap, ctx world.MergeContext) error {
	m.mu.Lock()
	if _, done := m.merges[ctx.ID]; done {
		m.mu.Unlock()
		m.logger.Debug("merge already remapped", log.Stringer("merge_id", ctx.ID))
		return nil
	}
	m.rememberMerge(ctx.ID)
	m.mu.Unlock()

	n := Remap(dst, entityMap)
	m.logger.Debug("parents remapped", log.Stringer("merge_id", ctx.ID), log.Int("links", n))
	return nil
}

// rememberMerge records id and forgets the oldest pass beyond recentMerges.
// Callers hold m.mu.
func (m *Module) rememberMerge(id uuid.UUID) {
	m.merges[id] = struct{}{}
	m.mergeOrder = append(m.mergeOrder, id)
	if len(m.mergeOrder) > recentMerges {
		delete(m.merges, m.mergeOrder[0])
		m.mergeOrder = slices.Delete(m.mergeOrder, 0, 1)
	}
}
