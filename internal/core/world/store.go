package world

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/zeusync/scenegraph/internal/core/models"
)

// storage is the type-erased side of a Store used by World for despawn and merge.
type storage interface {
	has(e models.EntityID) bool
	remove(e models.EntityID) bool
	count() int
	copyInto(dst *World, from, to models.EntityID) error
	typeName() string
}

// Store holds every component of type T as a sparse set: a dense value slice
// plus an entity to index map. Pointers returned by Get stay valid until the
// next insert or remove on the same store.
type Store[T any] struct {
	index    map[models.EntityID]int
	entities []models.EntityID
	values   []T
	borrows  int
}

func newStore[T any]() *Store[T] {
	return &Store[T]{
		index:    make(map[models.EntityID]int),
		entities: make([]models.EntityID, 0, 16),
		values:   make([]T, 0, 16),
	}
}

// Len returns the number of entities carrying T.
func (s *Store[T]) Len() int { return len(s.entities) }

func (s *Store[T]) get(e models.EntityID) (*T, bool) {
	i, ok := s.index[e]
	if !ok {
		return nil, false
	}
	return &s.values[i], true
}

func (s *Store[T]) put(e models.EntityID, v T) {
	s.checkUnborrowed()
	if i, ok := s.index[e]; ok {
		s.values[i] = v
		return
	}
	s.index[e] = len(s.entities)
	s.entities = append(s.entities, e)
	s.values = append(s.values, v)
}

func (s *Store[T]) take(e models.EntityID) (T, bool) {
	var zero T
	i, ok := s.index[e]
	if !ok {
		return zero, false
	}
	s.checkUnborrowed()
	v := s.values[i]
	last := len(s.entities) - 1
	if i != last {
		moved := s.entities[last]
		s.entities[i] = moved
		s.values[i] = s.values[last]
		s.index[moved] = i
	}
	s.values[last] = zero
	s.entities = s.entities[:last]
	s.values = s.values[:last]
	delete(s.index, e)
	return v, true
}

// sorted returns a copy of the entity list in ascending id order.
func (s *Store[T]) sorted() []models.EntityID {
	out := slices.Clone(s.entities)
	slices.Sort(out)
	return out
}

func (s *Store[T]) borrow() func() {
	s.borrows++
	return func() { s.borrows-- }
}

func (s *Store[T]) checkUnborrowed() {
	if s.borrows > 0 {
		panic(fmt.Errorf("%w: %s", ErrStoreBorrowed, s.typeName()))
	}
}

func (s *Store[T]) has(e models.EntityID) bool {
	_, ok := s.index[e]
	return ok
}

func (s *Store[T]) remove(e models.EntityID) bool {
	_, ok := s.take(e)
	return ok
}

func (s *Store[T]) count() int { return len(s.entities) }

func (s *Store[T]) copyInto(dst *World, from, to models.EntityID) error {
	v, ok := s.get(from)
	if !ok {
		return nil
	}
	return Insert(dst, to, *v)
}

func (s *Store[T]) typeName() string {
	return reflect.TypeFor[T]().String()
}
