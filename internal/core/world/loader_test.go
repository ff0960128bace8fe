package world

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/scenegraph/internal/core/models"
	"github.com/zeusync/scenegraph/internal/core/observability/log"
)

func newTestLoader(t *testing.T) *Loader {
	t.Helper()
	l := NewLoader(log.NewNop())
	require.NoError(t, RegisterComponent[position](l, "position"))
	require.NoError(t, RegisterComponent[tag](l, "tag"))
	return l
}

const scene = `
entities:
  - position: {x: 1, y: 2}
    tag: {name: first}
  - tag: {name: second}
  - {}
`

func TestLoadSpawnsEntitiesInOrder(t *testing.T) {
	l := newTestLoader(t)

	w, err := l.Load(context.Background(), strings.NewReader(scene), NewResources())
	require.NoError(t, err)
	require.Equal(t, 3, w.Len())

	ids := w.Entities()
	p, ok := Get[position](w, ids[0])
	require.True(t, ok)
	assert.Equal(t, position{X: 1, Y: 2}, *p)

	tg, ok := Get[tag](w, ids[1])
	require.True(t, ok)
	assert.Equal(t, "second", tg.Name)
	assert.False(t, Has[position](w, ids[1]))
}

func TestLoadJSON(t *testing.T) {
	l := newTestLoader(t)
	w, err := l.Load(context.Background(),
		strings.NewReader(`{"entities": [{"tag": {"name": "j"}}]}`), NewResources())
	require.NoError(t, err)
	assert.Equal(t, 1, Count[tag](w))
}

func TestLoadEmptyDocument(t *testing.T) {
	w, err := newTestLoader(t).Load(context.Background(), strings.NewReader(""), NewResources())
	require.NoError(t, err)
	assert.Equal(t, 0, w.Len())
}

func TestLoadFailures(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{name: "unknown key", src: "entities: [{velocity: {x: 1}}]", want: ErrUnknownComponent},
		{name: "entity not a mapping", src: "entities: [3]", want: ErrMalformedScene},
		{name: "not yaml", src: "entities: [", want: ErrMalformedScene},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := newTestLoader(t).Load(context.Background(), strings.NewReader(tt.src), NewResources())
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, w)
		})
	}
}

func TestLoadDecodeErrorAborts(t *testing.T) {
	w, err := newTestLoader(t).Load(context.Background(),
		strings.NewReader("entities: [{position: {x: notanumber}}]"), NewResources())
	assert.Error(t, err)
	assert.Nil(t, w)
}

func TestLoadHooksRunInOrderAndAbort(t *testing.T) {
	l := newTestLoader(t)
	var order []int
	l.AddOnWorldLoadHook(func(ctx LoadContext, w *World) error {
		order = append(order, 1)
		assert.NotNil(t, ctx.Resources)
		return nil
	})
	l.AddOnWorldLoadHook(func(_ LoadContext, w *World) error {
		order = append(order, 2)
		return nil
	})

	_, err := l.Load(context.Background(), strings.NewReader(scene), NewResources())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, order)

	boom := errors.New("boom")
	l.AddOnWorldLoadHook(func(LoadContext, *World) error { return boom })
	w, err := l.Load(context.Background(), strings.NewReader(scene), NewResources())
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, w)
}

func TestDecodeLeavesHooksToRunLoadHooks(t *testing.T) {
	l := newTestLoader(t)
	calls := 0
	l.AddOnWorldLoadHook(func(_ LoadContext, w *World) error {
		calls++
		assert.Equal(t, 3, w.Len())
		return nil
	})

	w, err := l.Decode(context.Background(), strings.NewReader(scene))
	require.NoError(t, err)
	assert.Equal(t, 3, w.Len())
	assert.Zero(t, calls)

	require.NoError(t, l.RunLoadHooks(context.Background(), w, NewResources()))
	assert.Equal(t, 1, calls)
}

func TestLoadHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestLoader(t).Load(ctx, strings.NewReader(scene), NewResources())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRegisterDuplicateKey(t *testing.T) {
	l := newTestLoader(t)
	assert.ErrorIs(t, RegisterComponent[position](l, "position"), ErrDuplicateComponent)
}

func TestMergeCopiesAndMaps(t *testing.T) {
	l := newTestLoader(t)
	dst := New()
	existing := dst.Spawn()

	src := New()
	a, b := src.Spawn(), src.Spawn()
	require.NoError(t, Insert(src, a, position{X: 5}))
	require.NoError(t, Insert(src, b, tag{Name: "b"}))

	var seenID uuid.UUID
	l.AddWorldMergeHandler(func(d, s *World, m models.EntityMap, ctx MergeContext) error {
		seenID = ctx.ID
		assert.Same(t, dst, d)
		assert.Same(t, src, s)
		assert.Len(t, m, 2)
		return nil
	})

	m, err := l.Merge(context.Background(), dst, src, NewResources())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, seenID)
	assert.Equal(t, 3, dst.Len())
	assert.NotEqual(t, existing, m[a])

	p, ok := Get[position](dst, m[a])
	require.True(t, ok)
	assert.Equal(t, 5.0, p.X)
	tg, ok := Get[tag](dst, m[b])
	require.True(t, ok)
	assert.Equal(t, "b", tg.Name)
	assert.Equal(t, 2, src.Len())
}

func TestMergeRollsBackOnHandlerError(t *testing.T) {
	l := newTestLoader(t)
	dst := New()
	keep := dst.Spawn()
	src := New()
	e := src.Spawn()
	require.NoError(t, Insert(src, e, position{}))

	boom := errors.New("boom")
	l.AddWorldMergeHandler(func(*World, *World, models.EntityMap, MergeContext) error { return boom })

	m, err := l.Merge(context.Background(), dst, src, NewResources())
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, m)
	assert.Equal(t, []models.EntityID{keep}, dst.Entities())
	assert.Equal(t, 0, Count[position](dst))
}
