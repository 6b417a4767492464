package scene

import (
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/sirupsen/logrus"

	"github.com/kaisc/lemon-toolkit/engine/world"
)

// Scene drives bulk operations over the transform forest. Its worker pool is
// created once and reused across frames, avoiding per-frame goroutine
// spawn/teardown overhead during the parallel refresh phase.
type Scene struct {
	w *world.World

	// refreshPool manages a bounded set of reusable goroutines for the
	// parallel world-pose refresh. Workers persist across frames.
	refreshPool    worker.DynamicWorkerPool
	refreshWorkers int

	log *logrus.Entry
}

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *Scene)

// WithRefreshWorkers sets the number of worker goroutines used by
// RefreshWorldPoses. Defaults to runtime.NumCPU()-1. Higher values may help
// scenes with many wide subtrees; lower values reduce scheduling overhead for
// small forests.
//
// Parameters:
//   - n: the number of refresh workers (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithRefreshWorkers(n int) SceneBuilderOption {
	return func(s *Scene) {
		if n < 1 {
			n = 1
		}
		s.refreshWorkers = n
	}
}

// NewScene creates a Scene over the given world.
//
// Parameters:
//   - w: the world carrying the transforms (must not be nil)
//   - options: functional options to further configure the scene
//
// Returns:
//   - *Scene: the newly created scene
func NewScene(w *world.World, options ...SceneBuilderOption) *Scene {
	if w == nil {
		panic("scene: NewScene requires a non-nil World")
	}

	s := &Scene{
		w:              w,
		refreshWorkers: runtime.NumCPU() - 1,
		log:            logrus.WithField("subsystem", "scene"),
	}
	if s.refreshWorkers < 1 {
		s.refreshWorkers = 1
	}
	for _, opt := range options {
		opt(s)
	}

	// Queue size of 256 accommodates typical root counts with headroom.
	s.refreshPool = worker.NewDynamicWorkerPool(s.refreshWorkers, 256, 1*time.Second)
	return s
}

// Roots returns every transform-bearing entity without a parent, in ascending
// entity index order.
//
// Returns:
//   - []world.Entity: the forest roots
func (s *Scene) Roots() []world.Entity {
	var roots []world.Entity
	view := world.FindWith[Transform](s.w)
	view.Visit(func(e world.Entity) {
		if TransformOf(s.w, e).Parent().IsNil() {
			roots = append(roots, e)
		}
	})
	return roots
}

// RefreshWorldPoses recomputes the cached world pose of every transform,
// submitting one job per root subtree to the refresh pool. Subtrees are
// disjoint so the jobs never touch the same transform. The call returns once
// every subtree has been refreshed.
//
// Structural mutation of the world or the hierarchy while a refresh is in
// flight is a contract violation.
func (s *Scene) RefreshWorldPoses() {
	roots := s.Roots()
	if len(roots) == 0 {
		return
	}

	// A WaitGroup provides the per-call barrier since the pool's own wait
	// blocks until workers idle-exit, which is unsuitable for per-frame use.
	var wg sync.WaitGroup
	for i, root := range roots {
		wg.Add(1)
		rt := TransformOf(s.w, root)
		s.refreshPool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				refreshSubtree(rt)
				return nil, nil
			},
		})
	}
	wg.Wait()
}

// refreshSubtree recomputes world poses top-down so every cache hit during
// the walk is already fresh.
func refreshSubtree(t *Transform) {
	t.WorldPose()
	t.VisitChildren(true, func(child *Transform) bool {
		child.WorldPose()
		return true
	})
}
