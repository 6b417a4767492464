// Package metrics exposes the core's Prometheus collectors. All metrics are
// prefixed with "lemon_" and registered against an injectable Registerer so
// embedders can choose between the default registry and an isolated one.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Set bundles every collector the core reports into. A nil *Set is valid and
// turns every recording method into a no-op, so subsystems can carry a Set
// without caring whether metrics were enabled.
type Set struct {
	entitiesAlive     prometheus.Gauge
	componentsAdded   *prometheus.CounterVec
	componentsRemoved *prometheus.CounterVec
	tasksExecuted     prometheus.Counter
	tasksStolen       prometheus.Counter
	taskPanics        prometheus.Counter
	framesSubmitted   prometheus.Counter
	drawcallsPerFrame prometheus.Histogram
}

// New creates the collector set and registers it. Registration failures panic,
// which is intentional fail-fast behavior at startup.
//
// Parameters:
//   - reg: the Registerer to install the collectors into
//
// Returns:
//   - *Set: the newly created collector set
func New(reg prometheus.Registerer) *Set {
	s := &Set{
		entitiesAlive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lemon_entities_alive",
			Help: "Number of currently alive entities in the world.",
		}),
		componentsAdded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lemon_components_added_total",
			Help: "Total components added, partitioned by component name.",
		}, []string{"component"}),
		componentsRemoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lemon_components_removed_total",
			Help: "Total components removed, partitioned by component name.",
		}, []string{"component"}),
		tasksExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lemon_tasks_executed_total",
			Help: "Total task closures executed by the scheduler.",
		}),
		tasksStolen: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lemon_tasks_stolen_total",
			Help: "Total tasks taken from a foreign worker's deque.",
		}),
		taskPanics: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lemon_task_panics_total",
			Help: "Total task closures that panicked and were recovered.",
		}),
		framesSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lemon_frames_submitted_total",
			Help: "Total frames handed to the render backend.",
		}),
		drawcallsPerFrame: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lemon_drawcalls_per_frame",
			Help:    "Drawcalls recorded per submitted frame.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}

	reg.MustRegister(
		s.entitiesAlive,
		s.componentsAdded,
		s.componentsRemoved,
		s.tasksExecuted,
		s.tasksStolen,
		s.taskPanics,
		s.framesSubmitted,
		s.drawcallsPerFrame,
	)
	return s
}

// EntitySpawned records one new live entity.
func (s *Set) EntitySpawned() {
	if s == nil {
		return
	}
	s.entitiesAlive.Inc()
}

// EntityRecycled records one entity leaving the world.
func (s *Set) EntityRecycled() {
	if s == nil {
		return
	}
	s.entitiesAlive.Dec()
}

// ComponentAdded records an add of the named component type.
func (s *Set) ComponentAdded(name string) {
	if s == nil {
		return
	}
	s.componentsAdded.WithLabelValues(name).Inc()
}

// ComponentRemoved records a removal of the named component type.
func (s *Set) ComponentRemoved(name string) {
	if s == nil {
		return
	}
	s.componentsRemoved.WithLabelValues(name).Inc()
}

// TaskExecuted records one executed task closure.
func (s *Set) TaskExecuted() {
	if s == nil {
		return
	}
	s.tasksExecuted.Inc()
}

// TaskStolen records one successful steal.
func (s *Set) TaskStolen() {
	if s == nil {
		return
	}
	s.tasksStolen.Inc()
}

// TaskPanicked records one recovered task panic.
func (s *Set) TaskPanicked() {
	if s == nil {
		return
	}
	s.taskPanics.Inc()
}

// FrameSubmitted records a frame swap and its drawcall count.
func (s *Set) FrameSubmitted(drawcalls int) {
	if s == nil {
		return
	}
	s.framesSubmitted.Inc()
	s.drawcallsPerFrame.Observe(float64(drawcalls))
}
