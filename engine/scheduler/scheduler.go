// Package scheduler implements the job system: a fixed pool of worker
// goroutines running a directed tree of tasks with parent/child completion
// accounting, bulk parallel-for partitioning, and help-while-blocked waiting.
package scheduler

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kaisc/lemon-toolkit/common"
	"github.com/kaisc/lemon-toolkit/engine/metrics"
)

// TaskHandle identifies a task. Handles of completed tasks go stale, and every
// query against a stale handle reads as "completed".
type TaskHandle = common.Handle

// DefaultQueueDepth bounds the shared submission queue.
const DefaultQueueDepth = 4096

// Scheduler owns the worker pool and the task table.
type Scheduler struct {
	handles *common.HandlePool
	mu      sync.Mutex
	tasks   []*task

	workers []*worker
	byGoID  sync.Map // goroutine id -> *worker
	shared  chan TaskHandle
	stop    chan struct{}
	wg      sync.WaitGroup

	mainID  uint64
	metrics *metrics.Set
	log     *logrus.Entry
}

// Option configures a Scheduler at construction time.
type Option func(s *schedulerConfig)

type schedulerConfig struct {
	workerCount int
	queueDepth  int
	metrics     *metrics.Set
}

// WithWorkerCount sets the number of worker goroutines. Defaults to the
// machine's logical CPU count; values below 1 are clamped to 1.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - Option: option function to apply
func WithWorkerCount(n int) Option {
	return func(c *schedulerConfig) {
		c.workerCount = n
	}
}

// WithQueueDepth sets the capacity of the shared submission queue.
//
// Parameters:
//   - n: the queue capacity (minimum 1)
//
// Returns:
//   - Option: option function to apply
func WithQueueDepth(n int) Option {
	return func(c *schedulerConfig) {
		if n < 1 {
			n = 1
		}
		c.queueDepth = n
	}
}

// WithMetrics wires the scheduler's counters into the given collector set.
//
// Parameters:
//   - m: the collector set (nil disables recording)
//
// Returns:
//   - Option: option function to apply
func WithMetrics(m *metrics.Set) Option {
	return func(c *schedulerConfig) {
		c.metrics = m
	}
}

// New creates the scheduler and starts its workers. The calling goroutine is
// recorded as the main thread for IsMainThread.
//
// Parameters:
//   - options: functional options (worker count, queue depth, metrics)
//
// Returns:
//   - *Scheduler: the running scheduler
func New(options ...Option) *Scheduler {
	cfg := schedulerConfig{
		workerCount: runtime.NumCPU(),
		queueDepth:  DefaultQueueDepth,
	}
	for _, opt := range options {
		opt(&cfg)
	}
	if cfg.workerCount < 1 {
		cfg.workerCount = 1
	}

	s := &Scheduler{
		handles: common.NewHandlePool(),
		shared:  make(chan TaskHandle, cfg.queueDepth),
		stop:    make(chan struct{}),
		mainID:  goid(),
		metrics: cfg.metrics,
		log:     logrus.WithField("subsystem", "scheduler"),
	}

	s.workers = make([]*worker, cfg.workerCount)
	for i := range s.workers {
		s.workers[i] = &worker{id: i, sched: s}
	}
	s.wg.Add(cfg.workerCount)
	for _, w := range s.workers {
		go w.run()
	}
	return s
}

// WorkerCount returns the number of worker goroutines.
func (s *Scheduler) WorkerCount() int {
	return len(s.workers)
}

// IsMainThread reports whether the caller is the goroutine that constructed
// the scheduler.
func (s *Scheduler) IsMainThread() bool {
	return goid() == s.mainID
}

// Dispose stops the workers and drops all unfinished tasks. Waiting on any
// outstanding handle afterwards returns immediately.
func (s *Scheduler) Dispose() {
	close(s.stop)
	s.wg.Wait()

	s.mu.Lock()
	s.tasks = nil
	s.handles.Clear()
	s.mu.Unlock()
}

// Create produces an unstarted task. A nil closure is permitted for pure
// grouping nodes such as parallel-for roots.
//
// Parameters:
//   - name: the diagnostic name of the task
//   - fn: the closure to execute, may be nil
//
// Returns:
//   - TaskHandle: the handle of the unstarted task
func (s *Scheduler) Create(name string, fn func()) TaskHandle {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.handles.Create()
	for uint32(len(s.tasks)) <= h.Index() {
		s.tasks = append(s.tasks, nil)
	}
	t := &task{name: name, fn: fn}
	t.open.Store(1)
	s.tasks[h.Index()] = t
	return h
}

// CreateAsChild produces an unstarted task whose completion the parent waits
// on: the parent's open-count is incremented and only drops once this child
// (and its own descendants) have finished. Must be called before Run(parent);
// creating a child of an already-submitted parent returns the null handle.
//
// Parameters:
//   - parent: the parent task handle
//   - name: the diagnostic name of the task
//   - fn: the closure to execute, may be nil
//
// Returns:
//   - TaskHandle: the child handle, or the null handle on contract violation
func (s *Scheduler) CreateAsChild(parent TaskHandle, name string, fn func()) TaskHandle {
	pt := s.taskAt(parent)
	if pt == nil {
		s.log.WithField("task", name).Warn("create child of completed or unknown parent")
		return common.NilHandle
	}
	if pt.submitted.Load() {
		s.log.WithField("task", name).Warn("create child after parent was submitted")
		return common.NilHandle
	}

	pt.open.Add(1)
	h := s.Create(name, fn)
	s.taskAt(h).parent = parent
	return h
}

// CreateParallelFor produces a root task plus one child per partition of
// [first, last). The children cover the range without gaps or overlap; the
// final child may be short. Run the returned root to execute all partitions.
//
// Parameters:
//   - name: the diagnostic name of the root task
//   - fn: the range closure, invoked as fn(start, end) per partition
//   - first: the inclusive start of the range
//   - last: the exclusive end of the range
//   - partition: the partition width (minimum 1)
//
// Returns:
//   - TaskHandle: the root handle
func (s *Scheduler) CreateParallelFor(name string, fn func(start, end int), first, last, partition int) TaskHandle {
	if partition < 1 {
		partition = 1
	}

	root := s.Create(name, nil)
	rt := s.taskAt(root)
	for lo := first; lo < last; lo += partition {
		hi := lo + partition
		if hi > last {
			hi = last
		}
		start, end := lo, hi
		child := s.CreateAsChild(root, fmt.Sprintf("%s[%d,%d)", name, start, end), func() {
			fn(start, end)
		})
		rt.pending = append(rt.pending, child)
	}
	return root
}

// Run submits the task for execution. For parallel-for roots the pre-created
// partition children are submitted first. Submitting a stale or
// already-submitted handle is a no-op.
//
// Parameters:
//   - h: the task to submit
func (s *Scheduler) Run(h TaskHandle) {
	t := s.taskAt(h)
	if t == nil {
		return
	}
	if !t.submitted.CompareAndSwap(false, true) {
		s.log.WithField("task", t.name).Warn("task submitted twice")
		return
	}

	for _, child := range t.pending {
		if ct := s.taskAt(child); ct != nil {
			ct.submitted.Store(true)
			s.enqueue(child)
		}
	}
	t.pending = nil
	s.enqueue(h)
}

// Wait blocks until the task's open-count reaches zero. While blocked, the
// caller helps by executing queued tasks; a bare condition wait would deadlock
// once descendants outnumber workers. Waiting on a stale handle returns
// immediately.
//
// Parameters:
//   - h: the task to wait for
func (s *Scheduler) Wait(h TaskHandle) {
	me, _ := s.byGoID.Load(goid())
	w, _ := me.(*worker)
	for !s.IsCompleted(h) {
		if !s.helpOne(w) {
			runtime.Gosched()
		}
	}
}

// IsCompleted reports whether the task's closure and every descendant closure
// have returned. Stale handles read as completed.
//
// Parameters:
//   - h: the task to check
//
// Returns:
//   - bool: true once the task tree below h has drained
func (s *Scheduler) IsCompleted(h TaskHandle) bool {
	return !s.handles.Alive(h)
}

func (s *Scheduler) taskAt(h TaskHandle) *task {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.handles.Alive(h) {
		return nil
	}
	return s.tasks[h.Index()]
}

func (s *Scheduler) enqueue(h TaskHandle) {
	if me, ok := s.byGoID.Load(goid()); ok {
		me.(*worker).push(h)
		return
	}
	select {
	case s.shared <- h:
	case <-s.stop:
	}
}

// execute runs one task closure, recovering panics so the dependency tree
// always drains, then walks the completion cascade.
func (s *Scheduler) execute(h TaskHandle) {
	t := s.taskAt(h)
	if t == nil {
		return
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				s.metrics.TaskPanicked()
				s.log.WithFields(logrus.Fields{"task": t.name, "panic": r}).
					Error("task closure panicked; counting as completed")
			}
		}()
		if t.fn != nil {
			t.fn()
		}
	}()

	s.metrics.TaskExecuted()
	s.complete(h, t)
}

// complete decrements the task's open-count and, when it carries, cascades to
// the parent. The cascade is iterative and lock-free apart from handle
// release.
func (s *Scheduler) complete(h TaskHandle, t *task) {
	for {
		if t.open.Add(-1) != 0 {
			return
		}
		parent := t.parent
		s.release(h)
		if parent.IsNil() {
			return
		}
		h = parent
		t = s.taskAt(h)
		if t == nil {
			return
		}
	}
}

func (s *Scheduler) release(h TaskHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handles.Alive(h) {
		s.tasks[h.Index()] = nil
		s.handles.Free(h)
	}
}

// helpOne executes at most one queued task on the calling goroutine: the
// caller's own deque first, then the shared queue, then a steal attempt.
func (s *Scheduler) helpOne(w *worker) bool {
	if w != nil {
		if h, ok := w.pop(); ok {
			s.execute(h)
			return true
		}
	}
	select {
	case h := <-s.shared:
		s.execute(h)
		return true
	default:
	}
	if h, ok := s.stealFor(w); ok {
		s.metrics.TaskStolen()
		s.execute(h)
		return true
	}
	return false
}

// stealFor takes a task from the tail of another worker's deque.
func (s *Scheduler) stealFor(thief *worker) (TaskHandle, bool) {
	for _, victim := range s.workers {
		if victim == thief {
			continue
		}
		if h, ok := victim.steal(); ok {
			return h, true
		}
	}
	return common.NilHandle, false
}

// task carries one unit of work plus its completion accounting. The open-count
// starts at 1 for the task's own closure and grows by one per direct child.
type task struct {
	name      string
	fn        func()
	parent    TaskHandle
	open      atomic.Int32
	submitted atomic.Bool

	// pending holds parallel-for children created up front; Run submits them
	// before the root itself.
	pending []TaskHandle
}

// worker owns a LIFO deque fed by submissions made from its own goroutine.
// The owner pushes and pops at the back; thieves take from the front.
type worker struct {
	id    int
	sched *Scheduler

	mu    sync.Mutex
	deque []TaskHandle
}

func (w *worker) push(h TaskHandle) {
	w.mu.Lock()
	w.deque = append(w.deque, h)
	w.mu.Unlock()
}

func (w *worker) pop() (TaskHandle, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := len(w.deque)
	if n == 0 {
		return common.NilHandle, false
	}
	h := w.deque[n-1]
	w.deque = w.deque[:n-1]
	return h, true
}

func (w *worker) steal() (TaskHandle, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.deque) == 0 {
		return common.NilHandle, false
	}
	h := w.deque[0]
	w.deque = w.deque[1:]
	return h, true
}

func (w *worker) run() {
	s := w.sched
	defer s.wg.Done()
	s.byGoID.Store(goid(), w)
	defer s.byGoID.Delete(goid())

	for {
		if h, ok := w.pop(); ok {
			s.execute(h)
			continue
		}

		select {
		case h := <-s.shared:
			s.execute(h)
			continue
		case <-s.stop:
			return
		default:
		}

		if h, ok := s.stealFor(w); ok {
			s.metrics.TaskStolen()
			s.execute(h)
			continue
		}

		select {
		case h := <-s.shared:
			s.execute(h)
		case <-s.stop:
			return
		case <-time.After(time.Millisecond):
			// periodic wakeup to re-attempt steals from busy deques
		}
	}
}
