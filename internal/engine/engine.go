package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/zeusync/scenegraph/internal/core/events/bus"
	"github.com/zeusync/scenegraph/internal/core/models"
	"github.com/zeusync/scenegraph/internal/core/observability/log"
	"github.com/zeusync/scenegraph/internal/core/systems/physics"
	"github.com/zeusync/scenegraph/internal/core/world"
	"github.com/zeusync/scenegraph/pkg/concurrent"
)

// TransformKey is the scene key for physics.Transform.
const TransformKey = "transform"

// System is one step of a simulation tick.
type System func(w *world.World) error

type namedSystem struct {
	name string
	run  System
}

// Engine owns everything shared by the worlds it loads: the loader with its
// hooks, engine-wide resources, the event bus and the tick schedule.
type Engine struct {
	config    Config
	logger    log.Log
	loader    *world.Loader
	resources *world.Resources
	bus       bus.EventBus
	observer  *busObserver

	mu      sync.RWMutex
	systems []namedSystem
}

// New builds an engine with the transform component registered and an
// observer attached to eventBus. Close detaches it.
func New(config Config, logger log.Log, eventBus bus.EventBus) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		config:    config,
		logger:    logger.Named("engine"),
		loader:    world.NewLoader(logger),
		resources: world.NewResources(),
		bus:       eventBus,
	}
	if err := world.RegisterComponent[physics.Transform](e.loader, TransformKey); err != nil {
		return nil, err
	}
	e.observer = &busObserver{logger: e.logger.Named("bus")}
	if eventBus != nil {
		eventBus.AddObserver(e.observer)
	}
	return e, nil
}

func (e *Engine) Config() Config              { return e.config }
func (e *Engine) Logger() log.Log             { return e.logger }
func (e *Engine) Loader() *world.Loader       { return e.loader }
func (e *Engine) Resources() *world.Resources { return e.resources }
func (e *Engine) Bus() bus.EventBus           { return e.bus }

// Close detaches the engine from its bus. The bus itself stays usable.
func (e *Engine) Close() {
	if e.bus != nil {
		e.bus.RemoveObserver(e.observer)
	}
}

// AddSystem appends a system to the tick schedule.
func (e *Engine) AddSystem(name string, run System) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range e.systems {
		if s.name == name {
			return fmt.Errorf("%w: %s", ErrDuplicateSystem, name)
		}
	}
	e.systems = append(e.systems, namedSystem{name: name, run: run})
	return nil
}

// Systems lists scheduled system names in execution order.
func (e *Engine) Systems() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, len(e.systems))
	for i, s := range e.systems {
		names[i] = s.name
	}
	return names
}

// Tick runs every system once, in order. A failing system does not stop the
// rest; all failures are joined.
func (e *Engine) Tick(w *world.World) error {
	e.mu.RLock()
	systems := append([]namedSystem(nil), e.systems...)
	e.mu.RUnlock()

	var all error
	for _, s := range systems {
		start := time.Now()
		if err := s.run(w); err != nil {
			e.logger.Error("system failed", log.String("system", s.name), log.Error(err))
			all = errors.Join(all, fmt.Errorf("%s: %w", s.name, err))
			continue
		}
		e.logger.Debug("system done", log.String("system", s.name), log.Duration("took", time.Since(start)))
	}
	if e.bus != nil {
		m := e.bus.GetMetrics()
		e.logger.Debug("tick done",
			log.Uint64("events_published", m.Published),
			log.Uint64("event_errors", m.Errors),
			log.Uint64("subscribers", m.SubscribersActive))
	}
	return all
}

// LoadScene decodes one scene and runs every load hook on it.
func (e *Engine) LoadScene(ctx context.Context, r io.Reader) (*world.World, error) {
	return e.loader.Load(ctx, r, e.resources)
}

// LoadSceneFile is LoadScene on a file path.
func (e *Engine) LoadSceneFile(ctx context.Context, path string) (*world.World, error) {
	w, err := e.decodeSceneFile(ctx, path)
	if err != nil {
		return nil, err
	}
	if err = e.runLoadHooks(ctx, path, w); err != nil {
		return nil, err
	}
	return w, nil
}

// LoadScenes decodes every path concurrently, bounded by Load.Workers, then
// runs the load hooks on each world one at a time in path order. Worlds are
// returned in path order; the first failure aborts the whole batch.
func (e *Engine) LoadScenes(ctx context.Context, paths []string) ([]*world.World, error) {
	worlds, err := concurrent.Map(ctx, paths, e.config.Load.Workers, e.decodeSceneFile)
	if err != nil {
		return nil, err
	}
	for i, w := range worlds {
		if err = e.runLoadHooks(ctx, paths[i], w); err != nil {
			return nil, err
		}
	}
	return worlds, nil
}

func (e *Engine) decodeSceneFile(ctx context.Context, path string) (*world.World, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	w, err := e.loader.Decode(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return w, nil
}

func (e *Engine) runLoadHooks(ctx context.Context, path string, w *world.World) error {
	if err := e.loader.RunLoadHooks(ctx, w, e.resources); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	e.logger.Info("scene loaded", log.String("path", path), log.Int("entities", w.Len()))
	return nil
}

// MergeInto copies src into dst and runs every merge handler.
func (e *Engine) MergeInto(ctx context.Context, dst, src *world.World) (models.EntityMap, error) {
	return e.loader.Merge(ctx, dst, src, e.resources)
}
