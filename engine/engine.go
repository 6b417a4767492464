// Package engine assembles the core runtime: job scheduler, event dispatcher,
// entity world and render frontend, constructed and torn down as one unit.
package engine

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/kaisc/lemon-toolkit/engine/events"
	"github.com/kaisc/lemon-toolkit/engine/graphics"
	"github.com/kaisc/lemon-toolkit/engine/metrics"
	"github.com/kaisc/lemon-toolkit/engine/scheduler"
	"github.com/kaisc/lemon-toolkit/engine/world"
)

// Core bundles the four subsystems of the runtime. Between Initialize and
// Dispose the accessors are valid; calling them outside that window is a
// contract violation.
type Core struct {
	sched      *scheduler.Scheduler
	dispatcher *events.Dispatcher
	world      *world.World
	frontend   graphics.Frontend
	metrics    *metrics.Set
	log        *logrus.Entry
}

// EngineBuilderOption is a functional option for configuring a Core.
// Use the With* functions to create options.
type EngineBuilderOption func(c *coreConfig)

type coreConfig struct {
	workerCount int
	backend     graphics.Backend
	registerer  prometheus.Registerer
	frontendOps []graphics.Option
}

// WithWorkerCount sets the scheduler's worker goroutine count. Defaults to
// the machine's logical CPU count.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWorkerCount(n int) EngineBuilderOption {
	return func(c *coreConfig) {
		c.workerCount = n
	}
}

// WithBackend sets the render backend the frontend hands frames to. Defaults
// to a TraceBackend, which records frames without touching a GPU.
//
// Parameters:
//   - b: the backend implementation
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithBackend(b graphics.Backend) EngineBuilderOption {
	return func(c *coreConfig) {
		c.backend = b
	}
}

// WithRegisterer enables metrics collection against the given Prometheus
// registerer. Without this option the core records no metrics.
//
// Parameters:
//   - reg: the registerer to install collectors into
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRegisterer(reg prometheus.Registerer) EngineBuilderOption {
	return func(c *coreConfig) {
		c.registerer = reg
	}
}

// WithFrontendOptions forwards extra options to the render frontend, such as
// handle set capacities.
//
// Parameters:
//   - options: graphics options to forward
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFrontendOptions(options ...graphics.Option) EngineBuilderOption {
	return func(c *coreConfig) {
		c.frontendOps = append(c.frontendOps, options...)
	}
}

// Initialize constructs the runtime: scheduler, dispatcher, world, then the
// render frontend, in that order. None of these constructors returns an error,
// so there is no partial-failure path and no stage is rolled back. The calling
// goroutine becomes the main thread for IsMainThread.
//
// Parameters:
//   - options: functional options (worker count, backend, metrics)
//
// Returns:
//   - *Core: the running core
func Initialize(options ...EngineBuilderOption) *Core {
	cfg := coreConfig{
		workerCount: runtime.NumCPU(),
	}
	for _, opt := range options {
		opt(&cfg)
	}
	if cfg.backend == nil {
		cfg.backend = graphics.NewTraceBackend()
	}

	var set *metrics.Set
	if cfg.registerer != nil {
		set = metrics.New(cfg.registerer)
	}

	core := &Core{
		metrics: set,
		log:     logrus.WithField("subsystem", "core"),
	}
	core.sched = scheduler.New(
		scheduler.WithWorkerCount(cfg.workerCount),
		scheduler.WithMetrics(set),
	)
	core.dispatcher = events.NewDispatcher()
	core.world = world.New(core.dispatcher, world.WithMetrics(set))

	frontendOps := append([]graphics.Option{graphics.WithMetrics(set)}, cfg.frontendOps...)
	core.frontend = graphics.NewFrontend(cfg.backend, frontendOps...)

	core.log.WithField("workers", core.sched.WorkerCount()).Info("core initialized")
	return core
}

// Dispose tears the runtime down in reverse construction order: world, render
// frontend, dispatcher, scheduler. Safe to call once; the core is unusable
// afterwards.
func (c *Core) Dispose() {
	if c.world != nil {
		c.world.Dispose()
		c.world = nil
	}
	if c.frontend != nil {
		c.frontend.Dispose()
		c.frontend = nil
	}
	if c.dispatcher != nil {
		c.dispatcher.Dispose()
		c.dispatcher = nil
	}
	if c.sched != nil {
		c.sched.Dispose()
		c.sched = nil
	}
	c.log.Info("core disposed")
}

// IsRunning reports whether the core is between Initialize and Dispose.
func (c *Core) IsRunning() bool {
	return c.sched != nil
}

// Scheduler returns the job scheduler.
func (c *Core) Scheduler() *scheduler.Scheduler {
	return c.sched
}

// Dispatcher returns the event dispatcher.
func (c *Core) Dispatcher() *events.Dispatcher {
	return c.dispatcher
}

// World returns the entity world.
func (c *Core) World() *world.World {
	return c.world
}

// Frontend returns the render frontend.
func (c *Core) Frontend() graphics.Frontend {
	return c.frontend
}

// IsMainThread reports whether the caller is the goroutine that initialized
// the core.
func (c *Core) IsMainThread() bool {
	return c.sched.IsMainThread()
}

// CPUCount returns the machine's logical CPU count, the default worker count.
//
// Returns:
//   - int: the logical CPU count
func CPUCount() int {
	return runtime.NumCPU()
}
