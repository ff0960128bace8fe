// Package world is a small entity-component store: entities are plain ids,
// components live in one sparse-set Store per Go type.
//
// A World is not safe for concurrent use. Separate worlds may be used from
// separate goroutines.
package world

import (
	"reflect"
	"slices"

	"github.com/zeusync/scenegraph/internal/core/models"
)

type World struct {
	nextID models.EntityID
	alive  map[models.EntityID]struct{}
	stores map[reflect.Type]storage
}

func New() *World {
	return &World{
		alive:  make(map[models.EntityID]struct{}),
		stores: make(map[reflect.Type]storage),
	}
}

// Spawn allocates a new entity with no components.
func (w *World) Spawn() models.EntityID {
	w.nextID++
	w.alive[w.nextID] = struct{}{}
	return w.nextID
}

// Despawn removes the entity and every component it carries.
func (w *World) Despawn(e models.EntityID) bool {
	if !w.Alive(e) {
		return false
	}
	for _, s := range w.stores {
		s.remove(e)
	}
	delete(w.alive, e)
	return true
}

func (w *World) Alive(e models.EntityID) bool {
	_, ok := w.alive[e]
	return ok
}

func (w *World) Len() int { return len(w.alive) }

// Entities returns every live entity in ascending id order.
func (w *World) Entities() []models.EntityID {
	out := make([]models.EntityID, 0, len(w.alive))
	for e := range w.alive {
		out = append(out, e)
	}
	slices.Sort(out)
	return out
}

func storeOf[T any](w *World) *Store[T] {
	t := reflect.TypeFor[T]()
	if s, ok := w.stores[t]; ok {
		return s.(*Store[T])
	}
	s := newStore[T]()
	w.stores[t] = s
	return s
}

func lookupStore[T any](w *World) (*Store[T], bool) {
	s, ok := w.stores[reflect.TypeFor[T]()]
	if !ok {
		return nil, false
	}
	return s.(*Store[T]), true
}

// Insert attaches v to e. It fails if e already carries a T.
func Insert[T any](w *World, e models.EntityID, v T) error {
	if !w.Alive(e) {
		return ErrEntityNotAlive
	}
	s := storeOf[T](w)
	if s.has(e) {
		return ErrComponentExists
	}
	s.put(e, v)
	return nil
}

// Set attaches or replaces the T on e.
func Set[T any](w *World, e models.EntityID, v T) error {
	if !w.Alive(e) {
		return ErrEntityNotAlive
	}
	storeOf[T](w).put(e, v)
	return nil
}

// Get returns a pointer to e's T. The pointer is invalidated by the next
// insert or remove of a T anywhere in the world.
func Get[T any](w *World, e models.EntityID) (*T, bool) {
	s, ok := lookupStore[T](w)
	if !ok {
		return nil, false
	}
	return s.get(e)
}

func Has[T any](w *World, e models.EntityID) bool {
	s, ok := lookupStore[T](w)
	return ok && s.has(e)
}

// Remove detaches and returns e's T.
func Remove[T any](w *World, e models.EntityID) (T, bool) {
	s, ok := lookupStore[T](w)
	if !ok {
		var zero T
		return zero, false
	}
	return s.take(e)
}

// CollectBy returns every entity carrying T in ascending id order.
func CollectBy[T any](w *World) []models.EntityID {
	s, ok := lookupStore[T](w)
	if !ok {
		return nil
	}
	return s.sorted()
}

// Count returns the number of entities carrying T.
func Count[T any](w *World) int {
	s, ok := lookupStore[T](w)
	if !ok {
		return 0
	}
	return s.Len()
}

// Each visits every T in ascending entity order until fn returns false.
// The store is borrowed for the duration: inserting or removing a T from fn panics.
func Each[T any](w *World, fn func(e models.EntityID, v T) bool) {
	s, ok := lookupStore[T](w)
	if !ok {
		return
	}
	release := s.borrow()
	defer release()
	for _, e := range s.sorted() {
		v, _ := s.get(e)
		if !fn(e, *v) {
			return
		}
	}
}
