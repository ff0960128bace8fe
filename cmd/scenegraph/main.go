package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/zeusync/scenegraph/internal/core/events/bus"
	"github.com/zeusync/scenegraph/internal/core/hierarchy"
	"github.com/zeusync/scenegraph/internal/core/observability/log"
	"github.com/zeusync/scenegraph/internal/core/world"
	"github.com/zeusync/scenegraph/internal/engine"
	"github.com/zeusync/scenegraph/internal/injector"
	"github.com/zeusync/scenegraph/internal/inspect"
)

var (
	configPath = flag.String("config", "", "Path to a YAML engine config")
	ticks      = flag.Int("ticks", 1, "Hierarchy passes to run before printing")
	serve      = flag.Bool("inspect", false, "Serve the websocket inspector and keep ticking until interrupted")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] scene.yaml [more scenes...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, flag.Args(), os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "scenegraph:", err)
		os.Exit(1)
	}
}

func loadConfig() (engine.Config, error) {
	if *configPath == "" {
		return engine.DefaultConfig(), nil
	}
	return engine.LoadConfigFile(*configPath)
}

func run(ctx context.Context, scenes []string, out io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	app, err := injector.InitializeApp(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = app.Logger.Sync() }()

	e := app.Engine
	defer e.Close()
	if _, err = e.Bus().Subscribe(hierarchy.EventParented, func(ev bus.Event) error {
		link := ev.Data().(hierarchy.ParentedContext)
		app.Logger.Debug("parented", log.Stringer("parent", link.Parent), log.Stringer("child", link.Child))
		return nil
	}); err != nil {
		return err
	}
	if err = e.AddSystem("hierarchy", app.Hierarchy.System); err != nil {
		return err
	}

	w, err := loadMerged(ctx, e, scenes)
	if err != nil {
		return err
	}

	for i := 0; i < *ticks; i++ {
		if err = e.Tick(w); err != nil {
			return err
		}
	}

	if *serve {
		return serveInspector(ctx, e, w, app.Logger)
	}
	return printWorld(out, w)
}

// loadMerged loads every scene and merges them left to right into the first.
func loadMerged(ctx context.Context, e *engine.Engine, scenes []string) (*world.World, error) {
	worlds, err := e.LoadScenes(ctx, scenes)
	if err != nil {
		return nil, err
	}
	dst := worlds[0]
	for i, src := range worlds[1:] {
		if _, err = e.MergeInto(ctx, dst, src); err != nil {
			return nil, fmt.Errorf("merge %s: %w", scenes[i+1], err)
		}
	}
	return dst, nil
}

func printWorld(out io.Writer, w *world.World) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPARENT\tX\tY\tROTATION\tSCALE")
	for _, s := range inspect.Capture(0, w).Entities {
		parent := "-"
		if s.Parent.Valid() {
			parent = s.Parent.String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%.3f\t%.3f\t%.3f\t%.3f\n", s.ID, parent, s.X, s.Y, s.Rotation, s.Scale)
	}
	return tw.Flush()
}

func serveInspector(ctx context.Context, e *engine.Engine, w *world.World, logger log.Log) error {
	cfg := e.Config().Inspect
	inspector := inspect.NewServer(logger)
	defer inspector.Close()

	srv := &http.Server{Addr: cfg.Addr, Handler: inspector.Handler(), ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	logger.Info("inspector listening", log.String("addr", cfg.Addr))

	interval := cfg.Interval
	if interval <= 0 {
		interval = engine.DefaultConfig().Inspect.Interval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var tick uint64
	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		case err := <-errCh:
			return err
		case <-ticker.C:
			tick++
			if err := e.Tick(w); err != nil {
				logger.Warn("tick failed", log.Error(err))
			}
			inspector.Broadcast(inspect.Capture(tick, w))
		}
	}
}
