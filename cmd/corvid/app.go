// Package cli wires every internal subsystem into the corvid binary's
// command surface: corvid route, run, daemon, manifest sync|show, and
// ledger show.
package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/corvidlabs/corvid/internal/capabilities"
	"github.com/corvidlabs/corvid/internal/config"
	"github.com/corvidlabs/corvid/internal/daemon"
	"github.com/corvidlabs/corvid/internal/db"
	"github.com/corvidlabs/corvid/internal/eventrouter"
	"github.com/corvidlabs/corvid/internal/ledger"
	"github.com/corvidlabs/corvid/internal/manifest"
	"github.com/corvidlabs/corvid/internal/router"
	"github.com/corvidlabs/corvid/internal/scheduler"
	"github.com/corvidlabs/corvid/internal/simpleagent"
	"github.com/corvidlabs/corvid/internal/smallmodel"
	"github.com/corvidlabs/corvid/internal/taskstore"
	"github.com/corvidlabs/corvid/internal/watchers"
	"github.com/corvidlabs/corvid/internal/watchers/plugin"
)

// App bundles every subsystem the CLI commands dispatch into. Built once
// in main, closed on exit.
type App struct {
	Config  config.Config
	DataDir string

	DB       *db.Store
	Ledger   *ledger.Ledger
	Manifest *manifest.Store
	Registry *capabilities.Registry
	Resolver *smallmodel.Resolver
	Router   *router.Router
	Agent    *simpleagent.Agent

	Tasks    *taskstore.Store
	Watchers *watchers.Store

	Scheduler *scheduler.Scheduler
	Daemon    *daemon.Daemon

	watcherPlugins []*plugin.Client
}

// NewApp opens the shared database, builds every subsystem from cfg, and
// registers the baseline capability set. Callers must call Close when
// done (the watcher plugin clients in particular hold subprocess handles).
func NewApp(cfg config.Config, dataDir string) (*App, error) {
	dbPath := filepath.Join(dataDir, "data", "corvid.db")
	store, err := db.NewSQLite(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	l := ledger.New(store.DB)

	manifestPath := cfg.RouterCache.StoragePath
	if manifestPath == "" {
		manifestPath = filepath.Join(dataDir, "manifest.yaml")
	}
	manifestStore := manifest.NewStore(manifestPath)
	if loaded, err := manifestStore.Load(); err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	} else if !loaded {
		if err := manifestStore.LoadBundledFallback(); err != nil {
			return nil, fmt.Errorf("load bundled manifest fallback: %w", err)
		}
	}

	registry := capabilities.New()
	registerCoreCapabilities(registry)

	resolver := smallmodel.BuildResolver(cfg, l)
	r := router.New(manifestStore, resolver, registry)
	agent := simpleagent.New(smallmodel.NewAdapter(resolver, smallmodel.PurposeTask))

	tasks := taskstore.New(store.DB)
	watcherStore := watchers.NewStore(store.DB)

	app := &App{
		Config:    cfg,
		DataDir:   dataDir,
		DB:        store,
		Ledger:    l,
		Manifest:  manifestStore,
		Registry:  registry,
		Resolver:  resolver,
		Router:    r,
		Agent:     agent,
		Tasks:     tasks,
		Watchers:  watcherStore,
	}

	sched := scheduler.New(tasks, &taskExecutor{router: r, agent: agent})
	app.Scheduler = sched

	sources, plugins, err := app.buildWatcherSources()
	if err != nil {
		return nil, err
	}
	app.watcherPlugins = plugins

	classifierCaller := smallmodel.NewAdapter(resolver, smallmodel.PurposeClassification)
	evRouter := eventrouter.New(classifierCaller, agent, tasks)
	watcherManager := watchers.NewManager(watcherStore, evRouter, sources...)

	app.Daemon = daemon.New(daemon.Config{
		WatcherPollInterval:   cfg.Listener.PollInterval.Duration,
		SchedulerTickInterval: cfg.Scheduler.TickInterval.Duration,
		HeartbeatInterval:     cfg.HeartbeatInterval.Duration,
		Watchers:              watcherManager,
		Scheduler:             sched,
	})

	return app, nil
}

// buildWatcherSources launches a plugin.Client subprocess for every binary
// path in cfg.Listener.Watchers.
func (a *App) buildWatcherSources() ([]watchers.Source, []*plugin.Client, error) {
	var sources []watchers.Source
	var clients []*plugin.Client
	for _, path := range a.Config.Listener.Watchers {
		client, err := plugin.Launch(path)
		if err != nil {
			return nil, nil, fmt.Errorf("launch watcher plugin %s: %w", path, err)
		}
		sources = append(sources, client.Source())
		clients = append(clients, client)
	}
	return sources, clients, nil
}

// Close releases the database connection and every launched watcher
// plugin subprocess.
func (a *App) Close() {
	for _, client := range a.watcherPlugins {
		client.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

func registerCoreCapabilities(reg *capabilities.Registry) {
	reg.RegisterTool(capabilities.Tool{
		Name:        "shell",
		Description: "Run a bounded shell command and capture its output.",
	})
}

// taskExecutor implements scheduler.Executor by routing a task's
// TaskString exactly as if it were typed interactively: early-exit route
// results (instant answer, bash shortcut) resolve directly, everything
// else falls through to the Simple-Task Agent, the only concrete
// execution path this core owns (a full multi-step agent is an external
// collaborator, out of scope per spec's Non-goals).
type taskExecutor struct {
	router *router.Router
	agent  *simpleagent.Agent
}

func (e *taskExecutor) Execute(ctx context.Context, task taskstore.ScheduledTask) (string, error) {
	result := e.router.Route(ctx, task.TaskString)
	switch result.Kind {
	case router.KindInstant:
		return result.Answer, nil
	case router.KindBashShortcut:
		return result.Resolve(ctx)
	}

	res, err := e.agent.Run(ctx, task.TaskString)
	if err != nil {
		return "", fmt.Errorf("simple-task agent: %w", err)
	}
	if res.BailOut {
		return "", fmt.Errorf("task %q requires a full agent invocation: %s", task.TaskString, res.BailWhy)
	}
	return res.Answer, nil
}
