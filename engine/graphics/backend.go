package graphics

import "sync"

// Backend consumes one sorted frame at a time: the implicit clear, then
// resource creates and updates in recorded order, then drawcalls in key
// order, then resource frees in recorded order. Implementations live outside
// the core; the frontend guarantees at most one frame is being consumed at
// any moment.
type Backend interface {
	// BeginFrame opens a frame with its implicit clear.
	//
	// Parameters:
	//   - clear: the clear options and arguments recorded for this frame
	//
	// Returns:
	//   - error: an error if the backend cannot start the frame
	BeginFrame(clear ClearParams) error

	// Execute runs one resource-lifecycle command.
	//
	// Parameters:
	//   - cmd: the command to run
	//
	// Returns:
	//   - error: an error if the resource operation was rejected
	Execute(cmd Command) error

	// Draw submits one drawcall with its resolved uniform entries.
	//
	// Parameters:
	//   - key: the drawcall's sort key
	//   - call: the drawcall
	//   - uniforms: the (name hash, value) pairs of the call's uniform view
	//
	// Returns:
	//   - error: an error if the draw was rejected
	Draw(key SortKey, call DrawCall, uniforms []UniformEntry) error

	// EndFrame closes the frame and presents it.
	//
	// Returns:
	//   - error: an error if presentation failed
	EndFrame() error
}

// TraceFrame is one fully consumed frame as observed by the TraceBackend.
type TraceFrame struct {
	Clear ClearParams
	// Commands holds every executed command in consumption order: creates and
	// updates first, frees last.
	Commands []Command
	// Draws holds the drawcalls in sorted order.
	Draws []TraceDraw
}

// TraceDraw is one consumed drawcall with its key and resolved uniforms.
type TraceDraw struct {
	Key      SortKey
	Call     DrawCall
	Uniforms []UniformEntry
}

// TraceBackend records everything it consumes. It backs tests and headless
// runs, and doubles as the reference for command/drawcall ordering semantics.
//
// All methods are safe for concurrent use, though the frontend only ever
// drives a backend from one goroutine at a time.
type TraceBackend struct {
	mu      sync.Mutex
	current *TraceFrame
	frames  []TraceFrame
}

// NewTraceBackend creates an empty trace backend.
//
// Returns:
//   - *TraceBackend: the newly created backend
func NewTraceBackend() *TraceBackend {
	return &TraceBackend{}
}

var _ Backend = &TraceBackend{}

// BeginFrame starts recording a new frame.
func (b *TraceBackend) BeginFrame(clear ClearParams) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = &TraceFrame{Clear: clear}
	return nil
}

// Execute appends the command to the current frame.
func (b *TraceBackend) Execute(cmd Command) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current != nil {
		b.current.Commands = append(b.current.Commands, cmd)
	}
	return nil
}

// Draw appends the drawcall to the current frame.
func (b *TraceBackend) Draw(key SortKey, call DrawCall, uniforms []UniformEntry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current != nil {
		b.current.Draws = append(b.current.Draws, TraceDraw{Key: key, Call: call, Uniforms: uniforms})
	}
	return nil
}

// EndFrame seals the current frame into the trace.
func (b *TraceBackend) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current != nil {
		b.frames = append(b.frames, *b.current)
		b.current = nil
	}
	return nil
}

// Frames returns a copy of every sealed frame in consumption order.
//
// Returns:
//   - []TraceFrame: the consumed frames
func (b *TraceBackend) Frames() []TraceFrame {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]TraceFrame, len(b.frames))
	copy(out, b.frames)
	return out
}

// Reset drops every sealed frame.
func (b *TraceBackend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frames = nil
	b.current = nil
}
