package common

import "sync"

const (
	// HandleIndexBits is the number of bits reserved for the slot index of a Handle.
	HandleIndexBits = 32
	// MaxHandleGeneration is the last generation a slot can reach. Once a slot's
	// generation saturates here the slot is retired and its index is never reissued.
	MaxHandleGeneration = ^uint32(0) - 1
)

// Handle is an opaque identifier made of a slot index and a generation counter.
// The zero value is the null handle: generation 0 is reserved and never issued,
// so a zero Handle can never be alive. Handles are comparable and usable as map keys.
type Handle struct {
	index      uint32
	generation uint32
}

// NilHandle is the null handle. It compares equal to the zero value of Handle.
var NilHandle = Handle{}

// NewHandle assembles a handle from its raw parts. Primarily useful for tests
// and for decoding handles that crossed a serialization boundary.
//
// Parameters:
//   - index: the slot index
//   - generation: the generation counter
//
// Returns:
//   - Handle: the assembled handle
func NewHandle(index, generation uint32) Handle {
	return Handle{index: index, generation: generation}
}

// Index returns the slot index of the handle.
func (h Handle) Index() uint32 {
	return h.index
}

// Generation returns the generation counter of the handle.
func (h Handle) Generation() uint32 {
	return h.generation
}

// IsNil reports whether the handle is the null handle.
func (h Handle) IsNil() bool {
	return h.generation == 0
}

// Uint64 packs the handle into a single 64-bit value, index in the high half.
func (h Handle) Uint64() uint64 {
	return uint64(h.index)<<HandleIndexBits | uint64(h.generation)
}

// HandlePool issues handles backed by a freelist of slot indices and a parallel
// vector of current generations. Freed indices are reused LIFO so recently
// touched slots stay cache-resident. A handle is alive iff its generation
// matches the slot's current generation and the slot is currently allocated.
//
// All methods are safe for concurrent use.
type HandlePool struct {
	mu          sync.Mutex
	generations []uint32
	occupied    []bool
	freelist    []uint32
	count       int
}

// NewHandlePool creates an empty HandlePool.
//
// Returns:
//   - *HandlePool: the newly created pool
func NewHandlePool() *HandlePool {
	return &HandlePool{}
}

// Create allocates a new live handle. Retired and still-live slots are never
// handed out twice; a fresh slot starts at generation 1.
//
// Returns:
//   - Handle: the newly issued handle
func (p *HandlePool) Create() Handle {
	p.mu.Lock()
	defer p.mu.Unlock()

	var index uint32
	if n := len(p.freelist); n > 0 {
		index = p.freelist[n-1]
		p.freelist = p.freelist[:n-1]
	} else {
		index = uint32(len(p.generations))
		p.generations = append(p.generations, 1)
		p.occupied = append(p.occupied, false)
	}

	p.occupied[index] = true
	p.count++
	return Handle{index: index, generation: p.generations[index]}
}

// Free releases the handle's slot and bumps its generation, invalidating every
// outstanding copy of the handle. Freeing a stale or null handle is a no-op.
// A slot whose generation saturates at MaxHandleGeneration is retired instead
// of returning to the freelist.
//
// Parameters:
//   - h: the handle to free
//
// Returns:
//   - bool: true if the handle was live and has been released
func (p *HandlePool) Free(h Handle) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.aliveLocked(h) {
		return false
	}

	p.occupied[h.index] = false
	p.generations[h.index]++
	p.count--

	if p.generations[h.index] < MaxHandleGeneration {
		p.freelist = append(p.freelist, h.index)
	}
	return true
}

// Alive reports whether the handle refers to a currently allocated slot.
//
// Parameters:
//   - h: the handle to check
//
// Returns:
//   - bool: true if the handle is live
func (p *HandlePool) Alive(h Handle) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.aliveLocked(h)
}

func (p *HandlePool) aliveLocked(h Handle) bool {
	if h.IsNil() || h.index >= uint32(len(p.generations)) {
		return false
	}
	return p.occupied[h.index] && p.generations[h.index] == h.generation
}

// At returns the live handle currently occupying the given slot index.
//
// Parameters:
//   - index: the slot index to look up
//
// Returns:
//   - Handle: the live handle at the index, or the null handle if vacant
func (p *HandlePool) At(index uint32) Handle {
	p.mu.Lock()
	defer p.mu.Unlock()

	if index >= uint32(len(p.generations)) || !p.occupied[index] {
		return NilHandle
	}
	return Handle{index: index, generation: p.generations[index]}
}

// Size returns the number of currently live handles.
func (p *HandlePool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

// Capacity returns the number of slots the pool has ever allocated, including
// vacant and retired ones. The highest live index is always below Capacity.
func (p *HandlePool) Capacity() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.generations)
}

// Clear invalidates every live handle and forgets all slots. Subsequent Create
// calls start over from index 0 at generation 1.
func (p *HandlePool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.generations = p.generations[:0]
	p.occupied = p.occupied[:0]
	p.freelist = p.freelist[:0]
	p.count = 0
}
