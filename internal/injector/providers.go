package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/scenegraph/internal/core/events/bus"
	"github.com/zeusync/scenegraph/internal/core/hierarchy"
	"github.com/zeusync/scenegraph/internal/core/observability/log"
	"github.com/zeusync/scenegraph/internal/engine"
)

// App is everything the CLI needs: an engine with the hierarchy initialized.
type App struct {
	Engine    *engine.Engine
	Hierarchy *hierarchy.Module
	Logger    *log.Logger
}

func ProvideLogger(cfg engine.Config) *log.Logger {
	return log.New(cfg.Level())
}

var ProviderSet = wire.NewSet(
	ProvideLogger,
	wire.Bind(new(log.Log), new(*log.Logger)),
	bus.New,
	engine.New,
	hierarchy.Init,
	wire.Struct(new(App), "*"),
)
