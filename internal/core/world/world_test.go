package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/scenegraph/internal/core/models"
)

type position struct{ X, Y float64 }
type tag struct{ Name string }

func TestSpawnDespawn(t *testing.T) {
	w := New()
	a, b := w.Spawn(), w.Spawn()
	require.NotEqual(t, a, b)
	assert.True(t, a.Valid())
	assert.Equal(t, 2, w.Len())

	require.NoError(t, Insert(w, a, position{X: 1}))
	assert.True(t, w.Despawn(a))
	assert.False(t, w.Despawn(a))
	assert.False(t, w.Alive(a))
	assert.False(t, Has[position](w, a))
	assert.Equal(t, []models.EntityID{b}, w.Entities())
}

func TestInsertConflictAndSet(t *testing.T) {
	w := New()
	e := w.Spawn()

	require.NoError(t, Insert(w, e, position{X: 1}))
	assert.ErrorIs(t, Insert(w, e, position{X: 2}), ErrComponentExists)

	p, ok := Get[position](w, e)
	require.True(t, ok)
	assert.Equal(t, 1.0, p.X)

	require.NoError(t, Set(w, e, position{X: 3}))
	p, _ = Get[position](w, e)
	assert.Equal(t, 3.0, p.X)

	assert.ErrorIs(t, Insert(w, models.EntityID(99), position{}), ErrEntityNotAlive)
}

func TestRemoveKeepsOtherEntitiesAddressable(t *testing.T) {
	w := New()
	ids := make([]models.EntityID, 5)
	for i := range ids {
		ids[i] = w.Spawn()
		require.NoError(t, Insert(w, ids[i], position{X: float64(i)}))
	}

	v, ok := Remove[position](w, ids[1])
	require.True(t, ok)
	assert.Equal(t, 1.0, v.X)
	_, ok = Remove[position](w, ids[1])
	assert.False(t, ok)

	for i, e := range ids {
		if i == 1 {
			continue
		}
		p, ok := Get[position](w, e)
		require.True(t, ok)
		assert.Equal(t, float64(i), p.X)
	}
	assert.Equal(t, []models.EntityID{ids[0], ids[2], ids[3], ids[4]}, CollectBy[position](w))
	assert.Equal(t, 4, Count[position](w))
}

func TestEachBorrowsStore(t *testing.T) {
	w := New()
	e := w.Spawn()
	require.NoError(t, Insert(w, e, tag{Name: "a"}))

	assert.PanicsWithError(t, ErrStoreBorrowed.Error()+": world.tag", func() {
		Each(w, func(e models.EntityID, _ tag) bool {
			_, _ = Remove[tag](w, e)
			return true
		})
	})

	// the borrow is released even after a panic
	_, ok := Remove[tag](w, e)
	assert.True(t, ok)
}

func TestSplitPartitionsByPresence(t *testing.T) {
	w := New()
	root, child, bare := w.Spawn(), w.Spawn(), w.Spawn()
	require.NoError(t, Insert(w, root, position{X: 10}))
	require.NoError(t, Insert(w, child, position{X: 1}))
	require.NoError(t, Insert(w, child, tag{Name: "linked"}))
	require.NoError(t, Insert(w, bare, tag{Name: "no position"}))

	writer, reader := Split[position, tag](w)
	assert.Equal(t, 1, writer.Len())

	_, ok := reader.Get(child)
	assert.False(t, ok, "reader must not see entities carrying the filter")
	rp, ok := reader.Get(root)
	require.True(t, ok)
	assert.Equal(t, 10.0, rp.X)
	assert.False(t, reader.Has(bare))

	var visited []models.EntityID
	writer.Each(func(e models.EntityID, tg tag, p *position) {
		visited = append(visited, e)
		assert.False(t, reader.Has(e))
		p.X += 100
	})
	assert.Equal(t, []models.EntityID{child}, visited)

	p, _ := Get[position](w, child)
	assert.Equal(t, 101.0, p.X)
}

func TestSplitWriterBorrowsBothStores(t *testing.T) {
	w := New()
	e := w.Spawn()
	require.NoError(t, Insert(w, e, position{}))
	require.NoError(t, Insert(w, e, tag{}))

	writer, _ := Split[position, tag](w)
	assert.Panics(t, func() {
		writer.Each(func(e models.EntityID, _ tag, _ *position) {
			w.Despawn(e)
		})
	})
}

func TestReadViewReturnsCopies(t *testing.T) {
	w := New()
	e := w.Spawn()
	require.NoError(t, Insert(w, e, position{X: 1}))

	view := ReadView[position](w)
	v, ok := view.Get(e)
	require.True(t, ok)
	v.X = 50

	p, _ := Get[position](w, e)
	assert.Equal(t, 1.0, p.X)
	assert.Equal(t, 1, view.Len())
}

func TestResources(t *testing.T) {
	r := NewResources()
	type marker struct{}
	type counter struct{ n int }

	_, ok := Resource[*marker](r)
	assert.False(t, ok)
	m := &marker{}
	r.Insert(m)
	got, ok := Resource[*marker](r)
	require.True(t, ok)
	assert.Same(t, m, got)

	first := GetOrInsert(r, func() *counter { return &counter{n: 1} })
	second := GetOrInsert(r, func() *counter { return &counter{n: 2} })
	assert.Same(t, first, second)
}
