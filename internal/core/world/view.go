package world

import "github.com/zeusync/scenegraph/internal/core/models"

// View is a read-only lookup over one component type. Lookups return copies.
type View[T any] struct {
	store *Store[T]
}

// ReadView builds a View over T.
func ReadView[T any](w *World) View[T] {
	return View[T]{store: storeOf[T](w)}
}

func (v View[T]) Get(e models.EntityID) (T, bool) {
	p, ok := v.store.get(e)
	if !ok {
		var zero T
		return zero, false
	}
	return *p, true
}

func (v View[T]) Has(e models.EntityID) bool { return v.store.has(e) }

func (v View[T]) Len() int { return v.store.Len() }

// Writer iterates entities carrying both T and R, handing out T mutably and
// R by value.
type Writer[T, R any] struct {
	target *Store[T]
	filter *Store[R]
}

// Reader looks up T only on entities that do NOT carry R.
type Reader[T, R any] struct {
	source  *Store[T]
	exclude *Store[R]
}

// Split partitions the T store by presence of R. Every entity the Writer
// yields carries R and every entity the Reader answers for lacks R, so a
// *T from the Writer never aliases a value the Reader can see.
func Split[T, R any](w *World) (Writer[T, R], Reader[T, R]) {
	t, r := storeOf[T](w), storeOf[R](w)
	return Writer[T, R]{target: t, filter: r}, Reader[T, R]{source: t, exclude: r}
}

// Each calls fn for every entity with both T and R in ascending id order.
// Both stores are borrowed: structural changes to either from fn panic.
func (wr Writer[T, R]) Each(fn func(e models.EntityID, r R, t *T)) {
	releaseT := wr.target.borrow()
	defer releaseT()
	releaseR := wr.filter.borrow()
	defer releaseR()

	for _, e := range wr.filter.sorted() {
		t, ok := wr.target.get(e)
		if !ok {
			continue
		}
		r, _ := wr.filter.get(e)
		fn(e, *r, t)
	}
}

// Len counts entities carrying both T and R.
func (wr Writer[T, R]) Len() int {
	n := 0
	for _, e := range wr.filter.entities {
		if wr.target.has(e) {
			n++
		}
	}
	return n
}

func (rd Reader[T, R]) Get(e models.EntityID) (T, bool) {
	if rd.exclude.has(e) {
		var zero T
		return zero, false
	}
	p, ok := rd.source.get(e)
	if !ok {
		var zero T
		return zero, false
	}
	return *p, true
}

func (rd Reader[T, R]) Has(e models.EntityID) bool {
	return rd.source.has(e) && !rd.exclude.has(e)
}
