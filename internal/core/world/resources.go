package world

import (
	"reflect"
	"sync"
)

// Resources holds engine-wide singletons keyed by their Go type, at most one
// value per type. Safe for concurrent use.
type Resources struct {
	mu    sync.RWMutex
	items map[reflect.Type]any
}

func NewResources() *Resources {
	return &Resources{items: make(map[reflect.Type]any)}
}

// Insert stores res under its dynamic type, replacing any previous value.
func (r *Resources) Insert(res any) {
	if res == nil {
		panic("cannot add nil resource")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[reflect.TypeOf(res)] = res
}

// Resource returns the stored value of type T.
func Resource[T any](r *Resources) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.items[reflect.TypeFor[T]()]
	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}

// GetOrInsert returns the stored T, storing create() first if absent.
func GetOrInsert[T any](r *Resources, create func() T) T {
	t := reflect.TypeFor[T]()
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.items[t]; ok {
		return v.(T)
	}
	v := create()
	r.items[t] = v
	return v
}
