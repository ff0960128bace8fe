// Package hierarchy links entities into a transform tree.
//
// Scenes name entities with a parent_id record and point children at those
// names with a parent record. When a world is loaded the names are resolved
// into Parent components and the records are dropped. Each tick, System
// rewrites every parented entity's Transform from its chain of ancestors.
// Merging worlds remaps Parent targets onto the merged ids.
package hierarchy

import (
	"sync"

	"github.com/google/uuid"

	"github.com/zeusync/scenegraph/internal/core/events/bus"
	"github.com/zeusync/scenegraph/internal/core/observability/log"
	"github.com/zeusync/scenegraph/internal/core/world"
	"github.com/zeusync/scenegraph/internal/engine"
)

// OnParentedHook observes one resolved link. It may mutate w but the
// parent_id and parent records of the load are already gone.
type OnParentedHook func(w *world.World, ctx ParentedContext)

// HookID identifies a registered hook. Ids grow monotonically and are never reused.
type HookID uint64

// DuplicatePolicy decides what a repeated parent_id name does.
type DuplicatePolicy uint8

const (
	// DuplicateFirst resolves to the earliest entity of the scene carrying the name.
	DuplicateFirst DuplicatePolicy = iota
	// DuplicateReject fails the load with ErrDuplicateName.
	DuplicateReject
)

// Options tune resolution and evaluation.
type Options struct {
	// MaxDepth bounds ancestor walks. 0 uses the number of parented entities,
	// which no acyclic chain can exceed.
	MaxDepth   int
	Duplicates DuplicatePolicy
}

// OptionsFromConfig maps the engine's hierarchy section.
func OptionsFromConfig(cfg engine.HierarchyConfig) Options {
	opts := Options{MaxDepth: cfg.MaxDepth}
	if cfg.DuplicateNames == "reject" {
		opts.Duplicates = DuplicateReject
	}
	return opts
}

// recentMerges is how many merge pass ids a module remembers.
const recentMerges = 64

type registeredHook struct {
	id   HookID
	hook OnParentedHook
}

// Module is the per-engine hierarchy state: the parenting hook registry, the
// applied merge passes and the init marker. It lives in the engine resources.
type Module struct {
	opts   Options
	logger log.Log
	bus    bus.EventBus

	mu          sync.Mutex
	hooks       []registeredHook
	uid         HookID
	merges      map[uuid.UUID]struct{}
	mergeOrder  []uuid.UUID
	initialized bool
}

func newModule(e *engine.Engine) *Module {
	return &Module{
		opts:   OptionsFromConfig(e.Config().Hierarchy),
		logger: e.Logger().Named("hierarchy"),
		bus:    e.Bus(),
		merges: make(map[uuid.UUID]struct{}, recentMerges),
	}
}

// moduleOf returns the engine's module, creating it without registering anything.
func moduleOf(e *engine.Engine) *Module {
	return world.GetOrInsert(e.Resources(), func() *Module { return newModule(e) })
}

// Init registers the parent_id and parent records, the load hook and the merge
// handler on e. Calling it again returns the same module and registers nothing.
func Init(e *engine.Engine) (*Module, error) {
	m := moduleOf(e)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initialized {
		return m, nil
	}

	loader := e.Loader()
	if err := world.RegisterComponent[TempID](loader, TempIDKey); err != nil {
		return nil, err
	}
	if err := world.RegisterComponent[TempParent](loader, TempParentKey); err != nil {
		return nil, err
	}
	loader.AddOnWorldLoadHook(m.onWorldLoad)
	loader.AddWorldMergeHandler(m.onWorldMerge)

	m.initialized = true
	m.logger.Debug("hierarchy initialized",
		log.Int("max_depth", m.opts.MaxDepth),
		log.Bool("reject_duplicates", m.opts.Duplicates == DuplicateReject))
	return m, nil
}

// AddOnParentedHook subscribes hook to every link resolved by e's loads.
// It works before Init as well; hooks are never removed.
func AddOnParentedHook(e *engine.Engine, hook OnParentedHook) {
	moduleOf(e).AddOnParentedHook(hook)
}

// AddOnParentedHook appends hook and returns its id.
func (m *Module) AddOnParentedHook(hook OnParentedHook) HookID {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uid++
	m.hooks = append(m.hooks, registeredHook{id: m.uid, hook: hook})
	return m.uid
}

// Hooks returns the number of registered hooks.
func (m *Module) Hooks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.hooks)
}

func (m *Module) snapshotHooks() []registeredHook {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]registeredHook(nil), m.hooks...)
}
