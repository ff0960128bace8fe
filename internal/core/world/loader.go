package world

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/scenegraph/internal/core/models"
	"github.com/zeusync/scenegraph/internal/core/observability/log"
)

// Attach inserts a decoded component into w on entity e.
type Attach func(w *World, e models.EntityID) error

// ComponentDecoder turns the scene value under a component key into an Attach.
type ComponentDecoder func(node *yaml.Node) (Attach, error)

// LoadContext is handed to every load hook.
type LoadContext struct {
	context.Context
	Resources *Resources
}

// MergeContext is handed to every merge handler. ID is unique per Merge call.
type MergeContext struct {
	context.Context
	ID        uuid.UUID
	Resources *Resources
}

type (
	// LoadHook runs once per loaded world, after every component is attached.
	LoadHook func(ctx LoadContext, w *World) error
	// MergeHandler runs once per merge. entityMap maps src ids to dst ids.
	MergeHandler func(dst, src *World, entityMap models.EntityMap, ctx MergeContext) error
)

// Loader decodes scene documents into worlds and merges worlds. Registration
// and loading may happen from several goroutines.
type Loader struct {
	mu            sync.RWMutex
	components    map[string]ComponentDecoder
	loadHooks     []LoadHook
	mergeHandlers []MergeHandler
	logger        log.Log
}

func NewLoader(logger log.Log) *Loader {
	return &Loader{
		components: make(map[string]ComponentDecoder),
		logger:     logger.Named("loader"),
	}
}

// RegisterComponent binds a scene key to component type T. The value under
// the key is decoded with yaml.v3 into a T.
func RegisterComponent[T any](l *Loader, key string) error {
	return l.Register(key, func(node *yaml.Node) (Attach, error) {
		var v T
		if err := node.Decode(&v); err != nil {
			return nil, err
		}
		return func(w *World, e models.EntityID) error {
			return Insert(w, e, v)
		}, nil
	})
}

// Register binds a scene key to a custom decoder.
func (l *Loader) Register(key string, decode ComponentDecoder) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.components[key]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateComponent, key)
	}
	l.components[key] = decode
	return nil
}

// AddOnWorldLoadHook appends a hook; hooks run in registration order.
func (l *Loader) AddOnWorldLoadHook(hook LoadHook) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loadHooks = append(l.loadHooks, hook)
}

// AddWorldMergeHandler appends a handler; handlers run in registration order.
func (l *Loader) AddWorldMergeHandler(handler MergeHandler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.mergeHandlers = append(l.mergeHandlers, handler)
}

type sceneDoc struct {
	Entities []yaml.Node `yaml:"entities"`
}

// Load decodes a YAML or JSON scene of the form
//
//	entities:
//	  - transform: {x: 10, y: 10}
//	    parent_id: {name: root}
//
// spawning one entity per list item in order, then runs every load hook once.
// Any failure discards the world.
func (l *Loader) Load(ctx context.Context, r io.Reader, res *Resources) (*World, error) {
	w, err := l.Decode(ctx, r)
	if err != nil {
		return nil, err
	}
	if err = l.RunLoadHooks(ctx, w, res); err != nil {
		return nil, err
	}
	return w, nil
}

// Decode builds the world of a scene without running any load hook. It only
// reads loader state, so several scenes may be decoded at once; their hooks
// must then be run one world at a time with RunLoadHooks.
func (l *Loader) Decode(ctx context.Context, r io.Reader) (*World, error) {
	var doc sceneDoc
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrMalformedScene, err)
	}

	l.mu.RLock()
	components := make(map[string]ComponentDecoder, len(l.components))
	for k, v := range l.components {
		components[k] = v
	}
	l.mu.RUnlock()

	w := New()
	for i := range doc.Entities {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		node := &doc.Entities[i]
		if node.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: entity %d is not a mapping", ErrMalformedScene, i)
		}
		e := w.Spawn()
		for j := 0; j+1 < len(node.Content); j += 2 {
			key := node.Content[j].Value
			decode, ok := components[key]
			if !ok {
				return nil, fmt.Errorf("%w: %q (entity %d)", ErrUnknownComponent, key, i)
			}
			attach, err := decode(node.Content[j+1])
			if err != nil {
				return nil, fmt.Errorf("decode %q (entity %d): %w", key, i, err)
			}
			if err = attach(w, e); err != nil {
				return nil, fmt.Errorf("attach %q (entity %d): %w", key, i, err)
			}
		}
	}
	return w, nil
}

// RunLoadHooks runs every load hook on w in registration order and stops at
// the first failure. Hooks are not safe to run for two worlds at once.
func (l *Loader) RunLoadHooks(ctx context.Context, w *World, res *Resources) error {
	l.mu.RLock()
	hooks := append([]LoadHook(nil), l.loadHooks...)
	l.mu.RUnlock()

	loadCtx := LoadContext{Context: ctx, Resources: res}
	for i, hook := range hooks {
		if err := hook(loadCtx, w); err != nil {
			return fmt.Errorf("world load hook %d: %w", i, err)
		}
	}

	l.logger.Debug("world loaded", log.Int("entities", w.Len()), log.Int("hooks", len(hooks)))
	return nil
}

// Merge copies every live src entity with all of its components into dst
// under fresh ids, then runs every merge handler. src is left untouched. If a
// handler fails, the copied entities are despawned from dst again.
func (l *Loader) Merge(ctx context.Context, dst, src *World, res *Resources) (models.EntityMap, error) {
	l.mu.RLock()
	handlers := append([]MergeHandler(nil), l.mergeHandlers...)
	l.mu.RUnlock()

	entityMap := make(models.EntityMap, src.Len())
	rollback := func() {
		for _, e := range entityMap {
			dst.Despawn(e)
		}
	}

	for _, old := range src.Entities() {
		if err := ctx.Err(); err != nil {
			rollback()
			return nil, err
		}
		e := dst.Spawn()
		entityMap[old] = e
		for _, s := range src.stores {
			if err := s.copyInto(dst, old, e); err != nil {
				rollback()
				return nil, fmt.Errorf("merge %s: copy %s: %w", old, s.typeName(), err)
			}
		}
	}

	mergeCtx := MergeContext{Context: ctx, ID: uuid.New(), Resources: res}
	for i, handler := range handlers {
		if err := handler(dst, src, entityMap, mergeCtx); err != nil {
			rollback()
			return nil, fmt.Errorf("world merge handler %d: %w", i, err)
		}
	}

	l.logger.Debug("worlds merged",
		log.Int("entities", len(entityMap)),
		log.Stringer("merge_id", mergeCtx.ID))
	return entityMap, nil
}
