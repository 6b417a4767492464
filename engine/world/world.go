// Package world implements the entity/component store: opaque entity handles
// mapped to densely packed, type-indexed component pools, with iteration
// restricted to entities holding a requested set of components.
//
// The world is single-writer: all structural mutation (spawn, recycle, add,
// remove) must happen on one goroutine at a time. Read-only queries are safe
// from other goroutines as long as no structural mutation is in flight; this
// is a cooperative contract, not an enforced one.
package world

import (
	"math/bits"
	"reflect"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/kaisc/lemon-toolkit/common"
	"github.com/kaisc/lemon-toolkit/engine/events"
	"github.com/kaisc/lemon-toolkit/engine/metrics"
)

// DefaultChunkSize is the per-page slot count used when a component type is
// registered without an explicit chunk size.
const DefaultChunkSize = 128

const noSlot = int32(-1)

// record is the type-erased registry entry for one component type. The typed
// closures are built at registration time and close over the concrete pool.
type record struct {
	index     common.TypeIndex
	name      string
	chunkSize int

	slots []int32 // entity index -> pool slot

	alloc     func() uint32
	component func(slot uint32) Component
	release   func(slot uint32)
	clearPool func()
	poolSize  func() int
	poolCap   func() int

	// destroy is the only teardown path for a component: it emits
	// ComponentRemoved and EntityModified, then runs the user Dispose hook.
	destroy func(e Entity, c Component)
}

func (r *record) slotOf(entityIndex uint32) int32 {
	if entityIndex >= uint32(len(r.slots)) {
		return noSlot
	}
	return r.slots[entityIndex]
}

func (r *record) setSlot(entityIndex uint32, slot int32) {
	for uint32(len(r.slots)) <= entityIndex {
		r.slots = append(r.slots, noSlot)
	}
	r.slots[entityIndex] = slot
}

// World owns the entity handle pool, the per-entity component masks and the
// registered component pools.
type World struct {
	handles    *common.HandlePool
	masks      []ComponentMask
	registry   *common.TypeRegistry
	dispatcher *events.Dispatcher

	regMu   sync.Mutex
	records []*record

	metrics *metrics.Set
	log     *logrus.Entry
}

// Option configures a World at construction time.
type Option func(w *World)

// WithMetrics wires the world's counters into the given collector set.
//
// Parameters:
//   - m: the collector set (nil disables recording)
//
// Returns:
//   - Option: option function to apply
func WithMetrics(m *metrics.Set) Option {
	return func(w *World) {
		w.metrics = m
	}
}

// New creates an empty world emitting into the given dispatcher.
//
// Parameters:
//   - dispatcher: the dispatcher world events are emitted into (must not be nil)
//   - options: functional options to further configure the world
//
// Returns:
//   - *World: the newly created world
func New(dispatcher *events.Dispatcher, options ...Option) *World {
	if dispatcher == nil {
		panic("world: New requires a non-nil Dispatcher")
	}

	w := &World{
		handles:    common.NewHandlePool(),
		registry:   common.NewTypeRegistry(),
		dispatcher: dispatcher,
		log:        logrus.WithField("subsystem", "world"),
	}
	for _, opt := range options {
		opt(w)
	}
	return w
}

// Spawn allocates a fresh entity with an empty component mask.
//
// Returns:
//   - Entity: the new entity handle
func (w *World) Spawn() Entity {
	e := w.handles.Create()
	idx := e.Index()
	for uint32(len(w.masks)) <= idx {
		w.masks = append(w.masks, ComponentMask{})
	}
	w.masks[idx] = ComponentMask{}
	w.metrics.EntitySpawned()
	return e
}

// Recycle tears down every component the entity holds, in ascending type
// order, then releases the handle. Recycling a dead or null entity is a no-op.
//
// Parameters:
//   - e: the entity to recycle
//
// Returns:
//   - bool: true if the entity was alive and has been recycled
func (w *World) Recycle(e Entity) bool {
	if !w.handles.Alive(e) {
		return false
	}

	mask := w.masks[e.Index()]
	for word := range mask {
		for mask[word] != 0 {
			bit := bits.TrailingZeros64(mask[word])
			mask[word] &^= 1 << bit
			idx := common.TypeIndex(word*64 + bit)
			w.removeRecord(w.records[idx], e)
		}
	}

	w.handles.Free(e)
	w.metrics.EntityRecycled()
	return true
}

// Alive reports whether the entity handle is live.
func (w *World) Alive(e Entity) bool {
	return w.handles.Alive(e)
}

// Size returns the number of alive entities.
func (w *World) Size() int {
	return w.handles.Size()
}

// Mask returns the entity's component mask, or the empty mask for dead
// entities.
func (w *World) Mask(e Entity) ComponentMask {
	if !w.handles.Alive(e) {
		return ComponentMask{}
	}
	return w.masks[e.Index()]
}

// Dispose recycles every alive entity, then tears the registered pools down
// in reverse registration order. The world afterwards behaves like a freshly
// constructed one: type indices start over from zero.
func (w *World) Dispose() {
	capacity := w.handles.Capacity()
	for i := 0; i < capacity; i++ {
		if h := w.handles.At(uint32(i)); !h.IsNil() {
			w.Recycle(h)
		}
	}

	w.regMu.Lock()
	defer w.regMu.Unlock()
	for i := len(w.records) - 1; i >= 0; i-- {
		if w.records[i] != nil {
			w.records[i].clearPool()
			w.records[i] = nil
		}
	}
	w.records = nil
	w.registry = common.NewTypeRegistry()
	w.handles.Clear()
	w.masks = w.masks[:0]
}

// RegisterOption configures one component registration.
type RegisterOption func(r *record)

// WithChunkSize sets the number of component slots per pool page.
//
// Parameters:
//   - n: slots per page (minimum 1)
//
// Returns:
//   - RegisterOption: option function to apply
func WithChunkSize(n int) RegisterOption {
	return func(r *record) {
		if n < 1 {
			n = 1
		}
		r.chunkSize = n
	}
}

// WithName sets the diagnostic name of the component type. Defaults to the Go
// type name.
//
// Parameters:
//   - name: the diagnostic name
//
// Returns:
//   - RegisterOption: option function to apply
func WithName(name string) RegisterOption {
	return func(r *record) {
		r.name = name
	}
}

// Register installs the component type T into the world's registry exactly
// once. Re-registration is a no-op. The destructor path recorded here is the
// only way a T is ever torn down.
//
// Parameters:
//   - w: the world to register with
//   - options: per-type configuration (chunk size, diagnostic name)
//
// Returns:
//   - error: ErrTooManyComponents if the dense id space is exhausted
func Register[T any, PT ComponentPtr[T]](w *World, options ...RegisterOption) error {
	idx := common.IndexOf[T](w.registry)
	if idx >= MaxComponents {
		w.log.WithField("component", reflect.TypeFor[T]().Name()).Warn("component type limit exceeded")
		return ErrTooManyComponents
	}

	w.regMu.Lock()
	defer w.regMu.Unlock()

	for common.TypeIndex(len(w.records)) <= idx {
		w.records = append(w.records, nil)
	}
	if w.records[idx] != nil {
		return nil
	}

	pool := newChunkedPool[T](DefaultChunkSize)
	rec := &record{
		index:     idx,
		name:      reflect.TypeFor[T]().Name(),
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range options {
		opt(rec)
	}
	pool.chunkSize = rec.chunkSize

	rec.alloc = pool.alloc
	rec.component = func(slot uint32) Component { return PT(pool.at(slot)) }
	rec.release = pool.release
	rec.clearPool = pool.clear
	rec.poolSize = pool.size
	rec.poolCap = pool.capacity
	rec.destroy = func(e Entity, c Component) {
		ptr := c.(PT)
		events.Emit(w.dispatcher, ComponentRemoved[T]{Entity: e, Component: (*T)(ptr)})
		events.Emit(w.dispatcher, EntityModified{Entity: e})
		ptr.Dispose()
	}

	w.records[idx] = rec
	return nil
}

// IndexFor resolves the dense type index of T, registering the type with
// default options on first sight.
//
// Parameters:
//   - w: the world to resolve against
//
// Returns:
//   - common.TypeIndex: the dense index of T
func IndexFor[T any, PT ComponentPtr[T]](w *World) common.TypeIndex {
	if err := Register[T, PT](w); err != nil {
		return common.InvalidTypeIndex
	}
	return common.IndexOf[T](w.registry)
}

// MaskOf returns the single-bit mask for component type T, registering the
// type on first sight. Combine masks with Or to build multi-type queries.
//
// Parameters:
//   - w: the world to resolve against
//
// Returns:
//   - ComponentMask: the mask with only T's bit set
func MaskOf[T any, PT ComponentPtr[T]](w *World) ComponentMask {
	return ComponentMask{}.Set(IndexFor[T, PT](w))
}

// Add constructs a component of type T on the entity. The component is
// zero-initialized, bound to its owner, mutated by the optional init closures,
// announced via ComponentAdded and EntityModified, and finally offered to its
// Initialize hook. A false Initialize immediately runs the destructor path.
//
// Parameters:
//   - w: the world to mutate
//   - e: the target entity (must be alive)
//   - init: optional closures run before events fire, standing in for
//     constructor arguments
//
// Returns:
//   - PT: the component, address-stable until removal; nil on failure
//   - error: ErrDeadEntity, ErrDuplicateComponent, ErrTooManyComponents or
//     ErrComponentRejected
func Add[T any, PT ComponentPtr[T]](w *World, e Entity, init ...func(PT)) (PT, error) {
	var none PT
	if err := Register[T, PT](w); err != nil {
		return none, err
	}
	idx := common.IndexOf[T](w.registry)
	rec := w.records[idx]

	if !w.handles.Alive(e) {
		w.log.WithFields(logrus.Fields{"component": rec.name, "entity": e.Uint64()}).
			Warn("add component on dead entity")
		return none, ErrDeadEntity
	}
	eidx := e.Index()
	if w.masks[eidx].Has(idx) {
		w.log.WithFields(logrus.Fields{"component": rec.name, "entity": e.Uint64()}).
			Warn("duplicated component")
		return none, ErrDuplicateComponent
	}

	slot := rec.alloc()
	rec.setSlot(eidx, int32(slot))
	w.masks[eidx] = w.masks[eidx].Set(idx)

	ptr := rec.component(slot).(PT)
	ptr.bind(e)
	for _, fn := range init {
		fn(ptr)
	}
	w.metrics.ComponentAdded(rec.name)

	events.Emit(w.dispatcher, ComponentAdded[T]{Entity: e, Component: (*T)(ptr)})
	events.Emit(w.dispatcher, EntityModified{Entity: e})

	if !ptr.Initialize() {
		w.removeRecord(rec, e)
		return none, ErrComponentRejected
	}
	return ptr, nil
}

// SpawnWith spawns an entity and immediately adds a component of type T to it.
//
// Parameters:
//   - w: the world to mutate
//   - init: optional closures applied to the new component
//
// Returns:
//   - Entity: the new entity
//   - PT: the added component, nil if the add was rejected
//   - error: the add error, if any
func SpawnWith[T any, PT ComponentPtr[T]](w *World, init ...func(PT)) (Entity, PT, error) {
	e := w.Spawn()
	ptr, err := Add[T, PT](w, e, init...)
	return e, ptr, err
}

// LookupIndex resolves the dense type index of an already-registered
// component type T without registering it as a side effect.
//
// Parameters:
//   - w: the world to resolve against
//
// Returns:
//   - common.TypeIndex: the dense index of T
//   - error: ErrNotRegistered if the world has never seen T
func LookupIndex[T any, PT ComponentPtr[T]](w *World) (common.TypeIndex, error) {
	idx, ok := w.registry.Lookup(reflect.TypeFor[T]())
	if !ok || w.recordAt(idx) == nil {
		return common.InvalidTypeIndex, ErrNotRegistered
	}
	return idx, nil
}

// Get returns the entity's component of type T.
//
// Parameters:
//   - w: the world to query
//   - e: the entity to look up
//
// Returns:
//   - PT: the component, or nil if the entity is dead or lacks T
func Get[T any, PT ComponentPtr[T]](w *World, e Entity) PT {
	var none PT
	idx, err := LookupIndex[T, PT](w)
	if err != nil || !w.handles.Alive(e) {
		return none
	}
	eidx := e.Index()
	if !w.masks[eidx].Has(idx) {
		return none
	}
	rec := w.records[idx]
	return rec.component(uint32(rec.slotOf(eidx))).(PT)
}

// Has reports whether the entity holds a component of type T.
//
// Parameters:
//   - w: the world to query
//   - e: the entity to look up
//
// Returns:
//   - bool: true if e is alive and holds a T
func Has[T any, PT ComponentPtr[T]](w *World, e Entity) bool {
	idx, err := LookupIndex[T, PT](w)
	if err != nil || !w.handles.Alive(e) {
		return false
	}
	return w.masks[e.Index()].Has(idx)
}

// Remove tears down the entity's component of type T via the destructor path.
// Removing a component the entity does not hold is a no-op.
//
// Parameters:
//   - w: the world to mutate
//   - e: the entity to strip
//
// Returns:
//   - bool: true if a component was removed
func Remove[T any, PT ComponentPtr[T]](w *World, e Entity) bool {
	idx, err := LookupIndex[T, PT](w)
	if err != nil || !w.handles.Alive(e) {
		return false
	}
	if !w.masks[e.Index()].Has(idx) {
		return false
	}
	return w.removeRecord(w.records[idx], e)
}

// PoolStats reports the live slot count and total slot capacity of T's pool.
//
// Parameters:
//   - w: the world to query
//
// Returns:
//   - size: currently allocated slots
//   - capacity: total slots across all pages
func PoolStats[T any, PT ComponentPtr[T]](w *World) (size, capacity int) {
	idx, err := LookupIndex[T, PT](w)
	if err != nil {
		return 0, 0
	}
	return w.records[idx].poolSize(), w.records[idx].poolCap()
}

func (w *World) recordAt(idx common.TypeIndex) *record {
	if int(idx) >= len(w.records) {
		return nil
	}
	return w.records[idx]
}

func (w *World) removeRecord(rec *record, e Entity) bool {
	eidx := e.Index()
	slot := rec.slotOf(eidx)
	if slot == noSlot {
		return false
	}

	rec.destroy(e, rec.component(uint32(slot)))
	rec.release(uint32(slot))
	rec.setSlot(eidx, noSlot)
	w.masks[eidx] = w.masks[eidx].Clear(rec.index)
	w.metrics.ComponentRemoved(rec.name)
	return true
}
