package graphics

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/kaisc/lemon-toolkit/common"
	"github.com/kaisc/lemon-toolkit/engine/metrics"
)

// Default capacities of the typed resource handle sets.
const (
	DefaultMaxVertexBuffers = 1024
	DefaultMaxIndexBuffers  = 1024
	DefaultMaxTextures      = 1024
	DefaultMaxPrograms      = 256
	DefaultMaxRenderStates  = 256
)

// Frontend is the double-buffered command recorder. Resource operations hand
// out handles synchronously and append lifecycle commands to the current
// submit frame; drawcalls are sorted by key at EndFrame and consumed by the
// backend while producers fill the next frame.
//
// Resource and drawcall recording may happen from many goroutines between
// BeginFrame and EndFrame. BeginFrame, EndFrame, Flush and Dispose belong to
// the owning (main) goroutine.
type Frontend interface {
	// CreateVertexBuffer allocates a vertex buffer handle and records its
	// upload.
	//
	// Parameters:
	//   - data: the vertex data; copied before the call returns
	//   - layout: the finished vertex layout of the data
	//   - usage: the buffer usage hint
	//
	// Returns:
	//   - common.Handle: the buffer handle, or the null handle on exhaustion
	CreateVertexBuffer(data []byte, layout VertexLayout, usage BufferUsage) common.Handle

	// UpdateVertexBuffer records a rewrite of a dynamic vertex buffer range.
	//
	// Parameters:
	//   - h: the buffer handle
	//   - start: the first vertex to rewrite
	//   - data: the replacement data; copied before the call returns
	UpdateVertexBuffer(h common.Handle, start uint32, data []byte)

	// FreeVertexBuffer releases the handle and records the buffer's
	// destruction. Stale handles are a no-op.
	//
	// Parameters:
	//   - h: the buffer handle
	FreeVertexBuffer(h common.Handle)

	// IsVertexBufferAlive reports whether the handle is live.
	IsVertexBufferAlive(h common.Handle) bool

	// CreateIndexBuffer allocates an index buffer handle and records its
	// upload.
	//
	// Parameters:
	//   - data: the index data; copied before the call returns
	//   - format: the index element width
	//   - usage: the buffer usage hint
	//
	// Returns:
	//   - common.Handle: the buffer handle, or the null handle on exhaustion
	CreateIndexBuffer(data []byte, format IndexElementFormat, usage BufferUsage) common.Handle

	// UpdateIndexBuffer records a rewrite of a dynamic index buffer range.
	UpdateIndexBuffer(h common.Handle, start uint32, data []byte)

	// FreeIndexBuffer releases the handle and records the buffer's
	// destruction.
	FreeIndexBuffer(h common.Handle)

	// IsIndexBufferAlive reports whether the handle is live.
	IsIndexBufferAlive(h common.Handle) bool

	// CreateTexture allocates a texture handle and records its upload.
	//
	// Parameters:
	//   - data: the texel data; copied before the call returns
	//   - format: the channel layout
	//   - pixelFormat: the texel component storage
	//   - width, height: the texture dimensions
	//   - usage: the buffer usage hint
	//
	// Returns:
	//   - common.Handle: the texture handle, or the null handle on exhaustion
	CreateTexture(data []byte, format TextureFormat, pixelFormat TexturePixelFormat, width, height uint16, usage BufferUsage) common.Handle

	// UpdateTextureMipmap records toggling the texture's mipmap chain.
	UpdateTextureMipmap(h common.Handle, mipmap bool)

	// UpdateTextureAddressMode records an addressing mode change.
	UpdateTextureAddressMode(h common.Handle, coord TextureCoordinate, mode TextureAddressMode)

	// UpdateTextureFilterMode records a filter mode change.
	UpdateTextureFilterMode(h common.Handle, mode TextureFilterMode)

	// FreeTexture releases the handle and records the texture's destruction.
	FreeTexture(h common.Handle)

	// IsTextureAlive reports whether the handle is live.
	IsTextureAlive(h common.Handle) bool

	// CreateProgram allocates a program handle and records shader
	// compilation and linking.
	//
	// Parameters:
	//   - vertexShader: the vertex shader source
	//   - fragmentShader: the fragment shader source
	//
	// Returns:
	//   - common.Handle: the program handle, or the null handle on exhaustion
	CreateProgram(vertexShader, fragmentShader string) common.Handle

	// CreateProgramUniform records the declaration of a uniform on a program.
	CreateProgramUniform(h common.Handle, name string)

	// CreateProgramAttribute records binding a vertex attribute slot to a
	// shader input name.
	CreateProgramAttribute(h common.Handle, attribute VertexAttribute, name string)

	// FreeProgram releases the handle and records the program's destruction.
	FreeProgram(h common.Handle)

	// IsProgramAlive reports whether the handle is live.
	IsProgramAlive(h common.Handle) bool

	// CreateRenderState allocates a render state handle.
	//
	// Parameters:
	//   - state: the stateless state declaration
	//
	// Returns:
	//   - common.Handle: the state handle, or the null handle on exhaustion
	CreateRenderState(state RenderState) common.Handle

	// UpdateRenderState records replacing a render state block.
	UpdateRenderState(h common.Handle, state RenderState)

	// FreeRenderState releases the handle and records the state's
	// destruction.
	FreeRenderState(h common.Handle)

	// IsRenderStateAlive reports whether the handle is live.
	IsRenderStateAlive(h common.Handle) bool

	// AllocateUniformBuffer reserves a window of the current frame's uniform
	// arena. The returned view handle is only valid until EndFrame.
	//
	// Parameters:
	//   - num: the number of (name, value) slots to reserve
	//
	// Returns:
	//   - common.Handle: the view handle, or the null handle on exhaustion
	AllocateUniformBuffer(num uint32) common.Handle

	// IsUniformBufferAlive reports whether the view handle is live in the
	// current frame.
	IsUniformBufferAlive(h common.Handle) bool

	// UpdateUniformBuffer appends one (name hash, value) pair to the view.
	// Writes past the view's reserved size are dropped with a warning.
	//
	// Parameters:
	//   - h: the view handle
	//   - name: the hashed uniform name (HashUniformName)
	//   - value: the uniform value
	UpdateUniformBuffer(h common.Handle, name uint64, value UniformVariable)

	// Clear sets the clear parameters the next BeginFrame records implicitly
	// at the head of the frame.
	//
	// Parameters:
	//   - options: which attachments to clear
	//   - color: the clear color
	//   - depth: the clear depth value
	//   - stencil: the clear stencil value
	Clear(options ClearOption, color common.Color, depth float32, stencil uint32)

	// BeginFrame opens a new recording cycle. Returns false while the backend
	// is still consuming the previous frame; callers may retry or skip.
	//
	// Returns:
	//   - bool: true if the frontend is ready to record
	BeginFrame() bool

	// Submit records one drawcall into the current frame. Safe from any
	// goroutine between BeginFrame and EndFrame.
	//
	// Parameters:
	//   - call: the drawcall to record
	Submit(call DrawCall)

	// Flush synchronously drains the current submit frame on the calling
	// goroutine, waiting for the backend to go idle first. Used for teardown
	// and fence-like behavior.
	Flush()

	// EndFrame sorts the frame's drawcalls, swaps the double buffer and wakes
	// the backend to consume the closed frame.
	EndFrame()

	// Dispose stops the backend consumer. Pending recorded work is dropped.
	Dispose()
}

// Option configures a Frontend at construction time.
type Option func(f *frontend)

// WithMaxVertexBuffers bounds the vertex buffer handle set.
func WithMaxVertexBuffers(n uint32) Option {
	return func(f *frontend) { f.maxVertexBuffers = n }
}

// WithMaxIndexBuffers bounds the index buffer handle set.
func WithMaxIndexBuffers(n uint32) Option {
	return func(f *frontend) { f.maxIndexBuffers = n }
}

// WithMaxTextures bounds the texture handle set.
func WithMaxTextures(n uint32) Option {
	return func(f *frontend) { f.maxTextures = n }
}

// WithMaxPrograms bounds the program handle set.
func WithMaxPrograms(n uint32) Option {
	return func(f *frontend) { f.maxPrograms = n }
}

// WithMaxRenderStates bounds the render state handle set.
func WithMaxRenderStates(n uint32) Option {
	return func(f *frontend) { f.maxRenderStates = n }
}

// WithMetrics wires the frontend's counters into the given collector set.
func WithMetrics(m *metrics.Set) Option {
	return func(f *frontend) { f.metrics = m }
}

type frontend struct {
	backend Backend

	maxVertexBuffers uint32
	maxIndexBuffers  uint32
	maxTextures      uint32
	maxPrograms      uint32
	maxRenderStates  uint32

	// vertex buffers carry their layout hash for sort-key encoding
	vbHandles    *common.HandleObjectSet[uint64]
	ibHandles    *common.HandleSet
	texHandles   *common.HandleSet
	progHandles  *common.HandleSet
	stateHandles *common.HandleObjectSet[RenderState]

	frames    [2]*renderFrame
	submitIdx int

	clearMu      sync.Mutex
	pendingClear ClearParams

	drawReady atomic.Bool
	frameC    chan *renderFrame
	stop      chan struct{}
	wg        sync.WaitGroup

	metrics *metrics.Set
	log     *logrus.Entry
}

var _ Frontend = &frontend{}

// NewFrontend creates the frontend and starts its backend consumer goroutine.
//
// Parameters:
//   - backend: the command consumer (must not be nil)
//   - options: functional options (handle set capacities, metrics)
//
// Returns:
//   - Frontend: the newly created frontend
func NewFrontend(backend Backend, options ...Option) Frontend {
	if backend == nil {
		panic("graphics: NewFrontend requires a non-nil Backend")
	}

	f := &frontend{
		backend:          backend,
		maxVertexBuffers: DefaultMaxVertexBuffers,
		maxIndexBuffers:  DefaultMaxIndexBuffers,
		maxTextures:      DefaultMaxTextures,
		maxPrograms:      DefaultMaxPrograms,
		maxRenderStates:  DefaultMaxRenderStates,
		frameC:           make(chan *renderFrame, 1),
		stop:             make(chan struct{}),
		log:              logrus.WithField("subsystem", "graphics"),
	}
	for _, opt := range options {
		opt(f)
	}

	f.vbHandles = common.NewHandleObjectSet[uint64](f.maxVertexBuffers)
	f.ibHandles = common.NewHandleSet(f.maxIndexBuffers)
	f.texHandles = common.NewHandleSet(f.maxTextures)
	f.progHandles = common.NewHandleSet(f.maxPrograms)
	f.stateHandles = common.NewHandleObjectSet[RenderState](f.maxRenderStates)
	f.frames[0] = newRenderFrame()
	f.frames[1] = newRenderFrame()
	f.pendingClear = ClearParams{Options: ClearColor | ClearDepth, Depth: 1}
	f.drawReady.Store(true)

	f.wg.Add(1)
	go f.consumeLoop()
	return f
}

func (f *frontend) submitFrame() *renderFrame {
	return f.frames[f.submitIdx]
}

// --- vertex buffers ---

func (f *frontend) CreateVertexBuffer(data []byte, layout VertexLayout, usage BufferUsage) common.Handle {
	h := f.vbHandles.Create(layout.Hash())
	if h.IsNil() {
		f.log.Warn("vertex buffer handles exhausted")
		return h
	}
	f.submitFrame().record(CreateVertexBufferCmd{
		Handle: h,
		Data:   append([]byte(nil), data...),
		Layout: layout,
		Usage:  usage,
	})
	return h
}

func (f *frontend) UpdateVertexBuffer(h common.Handle, start uint32, data []byte) {
	if !f.vbHandles.Alive(h) {
		f.log.Warn("update of dead vertex buffer dropped")
		return
	}
	f.submitFrame().record(UpdateVertexBufferCmd{
		Handle: h,
		Start:  start,
		Data:   append([]byte(nil), data...),
	})
}

func (f *frontend) FreeVertexBuffer(h common.Handle) {
	if !f.vbHandles.Free(h) {
		return
	}
	f.submitFrame().record(FreeVertexBufferCmd{Handle: h})
}

func (f *frontend) IsVertexBufferAlive(h common.Handle) bool {
	return f.vbHandles.Alive(h)
}

// --- index buffers ---

func (f *frontend) CreateIndexBuffer(data []byte, format IndexElementFormat, usage BufferUsage) common.Handle {
	h := f.ibHandles.Create()
	if h.IsNil() {
		f.log.Warn("index buffer handles exhausted")
		return h
	}
	f.submitFrame().record(CreateIndexBufferCmd{
		Handle: h,
		Data:   append([]byte(nil), data...),
		Format: format,
		Usage:  usage,
	})
	return h
}

func (f *frontend) UpdateIndexBuffer(h common.Handle, start uint32, data []byte) {
	if !f.ibHandles.Alive(h) {
		f.log.Warn("update of dead index buffer dropped")
		return
	}
	f.submitFrame().record(UpdateIndexBufferCmd{
		Handle: h,
		Start:  start,
		Data:   append([]byte(nil), data...),
	})
}

func (f *frontend) FreeIndexBuffer(h common.Handle) {
	if !f.ibHandles.Free(h) {
		return
	}
	f.submitFrame().record(FreeIndexBufferCmd{Handle: h})
}

func (f *frontend) IsIndexBufferAlive(h common.Handle) bool {
	return f.ibHandles.Alive(h)
}

// --- textures ---

func (f *frontend) CreateTexture(data []byte, format TextureFormat, pixelFormat TexturePixelFormat, width, height uint16, usage BufferUsage) common.Handle {
	h := f.texHandles.Create()
	if h.IsNil() {
		f.log.Warn("texture handles exhausted")
		return h
	}
	f.submitFrame().record(CreateTextureCmd{
		Handle:      h,
		Data:        append([]byte(nil), data...),
		Format:      format,
		PixelFormat: pixelFormat,
		Width:       width,
		Height:      height,
		Usage:       usage,
	})
	return h
}

func (f *frontend) UpdateTextureMipmap(h common.Handle, mipmap bool) {
	if !f.texHandles.Alive(h) {
		f.log.Warn("update of dead texture dropped")
		return
	}
	f.submitFrame().record(UpdateTextureMipmapCmd{Handle: h, Mipmap: mipmap})
}

func (f *frontend) UpdateTextureAddressMode(h common.Handle, coord TextureCoordinate, mode TextureAddressMode) {
	if !f.texHandles.Alive(h) {
		f.log.Warn("update of dead texture dropped")
		return
	}
	f.submitFrame().record(UpdateTextureAddressModeCmd{Handle: h, Coord: coord, Mode: mode})
}

func (f *frontend) UpdateTextureFilterMode(h common.Handle, mode TextureFilterMode) {
	if !f.texHandles.Alive(h) {
		f.log.Warn("update of dead texture dropped")
		return
	}
	f.submitFrame().record(UpdateTextureFilterModeCmd{Handle: h, Mode: mode})
}

func (f *frontend) FreeTexture(h common.Handle) {
	if !f.texHandles.Free(h) {
		return
	}
	f.submitFrame().record(FreeTextureCmd{Handle: h})
}

func (f *frontend) IsTextureAlive(h common.Handle) bool {
	return f.texHandles.Alive(h)
}

// --- programs ---

func (f *frontend) CreateProgram(vertexShader, fragmentShader string) common.Handle {
	h := f.progHandles.Create()
	if h.IsNil() {
		f.log.Warn("program handles exhausted")
		return h
	}
	f.submitFrame().record(CreateProgramCmd{
		Handle:         h,
		VertexShader:   vertexShader,
		FragmentShader: fragmentShader,
	})
	return h
}

func (f *frontend) CreateProgramUniform(h common.Handle, name string) {
	if !f.progHandles.Alive(h) {
		f.log.Warn("uniform declaration on dead program dropped")
		return
	}
	f.submitFrame().record(CreateProgramUniformCmd{Handle: h, Name: name, Hash: HashUniformName(name)})
}

func (f *frontend) CreateProgramAttribute(h common.Handle, attribute VertexAttribute, name string) {
	if !f.progHandles.Alive(h) {
		f.log.Warn("attribute binding on dead program dropped")
		return
	}
	f.submitFrame().record(CreateProgramAttributeCmd{Handle: h, Attribute: attribute, Name: name})
}

func (f *frontend) FreeProgram(h common.Handle) {
	if !f.progHandles.Free(h) {
		return
	}
	f.submitFrame().record(FreeProgramCmd{Handle: h})
}

func (f *frontend) IsProgramAlive(h common.Handle) bool {
	return f.progHandles.Alive(h)
}

// --- render states ---

func (f *frontend) CreateRenderState(state RenderState) common.Handle {
	h := f.stateHandles.Create(state)
	if h.IsNil() {
		f.log.Warn("render state handles exhausted")
		return h
	}
	f.submitFrame().record(CreateRenderStateCmd{Handle: h, State: state})
	return h
}

func (f *frontend) UpdateRenderState(h common.Handle, state RenderState) {
	stored := f.stateHandles.Get(h)
	if stored == nil {
		f.log.Warn("update of dead render state dropped")
		return
	}
	*stored = state
	f.submitFrame().record(UpdateRenderStateCmd{Handle: h, State: state})
}

func (f *frontend) FreeRenderState(h common.Handle) {
	if !f.stateHandles.Free(h) {
		return
	}
	f.submitFrame().record(FreeRenderStateCmd{Handle: h})
}

func (f *frontend) IsRenderStateAlive(h common.Handle) bool {
	return f.stateHandles.Alive(h)
}

// --- uniforms ---

func (f *frontend) AllocateUniformBuffer(num uint32) common.Handle {
	frame := f.submitFrame()
	first, ok := frame.arena.reserve(num)
	if !ok {
		f.log.Warn("uniform arena exhausted")
		return common.NilHandle
	}
	h := frame.views.Create(UniformBufferView{First: first, Num: num})
	if h.IsNil() {
		f.log.Warn("uniform view handles exhausted")
	}
	return h
}

func (f *frontend) IsUniformBufferAlive(h common.Handle) bool {
	return f.submitFrame().views.Alive(h)
}

func (f *frontend) UpdateUniformBuffer(h common.Handle, name uint64, value UniformVariable) {
	frame := f.submitFrame()
	view := frame.views.Get(h)
	if view == nil {
		f.log.Warn("write to stale uniform view dropped")
		return
	}
	if view.Used >= view.Num {
		f.log.Warn("uniform view overflow; write dropped")
		return
	}
	frame.arena.write(view.First+view.Used, name, value)
	view.Used++
}

// --- frame protocol ---

func (f *frontend) Clear(options ClearOption, color common.Color, depth float32, stencil uint32) {
	f.clearMu.Lock()
	f.pendingClear = ClearParams{Options: options, Color: color, Depth: depth, Stencil: stencil}
	f.clearMu.Unlock()
}

func (f *frontend) BeginFrame() bool {
	if !f.drawReady.Load() {
		return false
	}
	f.clearMu.Lock()
	clear := f.pendingClear
	f.clearMu.Unlock()
	f.submitFrame().reset(clear)
	return true
}

func (f *frontend) Submit(call DrawCall) {
	frame := f.submitFrame()

	var layoutHash uint64
	if hash := f.vbHandles.Get(call.VertexBuffer); hash != nil {
		layoutHash = *hash
	}
	key := EncodeSortKey(
		call.View,
		call.Layer,
		uint16(call.Program.Index()),
		layoutHash,
		call.Depth,
		frame.nextSequence(),
	)
	frame.submit(key, call)
}

func (f *frontend) EndFrame() {
	frame := f.submitFrame()
	frame.sortDraws()
	f.metrics.FrameSubmitted(len(frame.draws))

	f.drawReady.Store(false)
	select {
	case f.frameC <- frame:
		f.submitIdx = 1 - f.submitIdx
	case <-f.stop:
	}
}

func (f *frontend) Flush() {
	// Wait for the backend to go idle so the two consumption paths never
	// interleave on the backend implementation.
	for !f.drawReady.Load() {
		select {
		case <-f.stop:
			return
		default:
			runtime.Gosched()
		}
	}

	frame := f.submitFrame()
	frame.sortDraws()
	f.consume(frame)
	f.clearMu.Lock()
	clear := f.pendingClear
	f.clearMu.Unlock()
	frame.reset(clear)
}

func (f *frontend) Dispose() {
	close(f.stop)
	f.wg.Wait()
}

func (f *frontend) consumeLoop() {
	defer f.wg.Done()
	for {
		select {
		case frame := <-f.frameC:
			f.consume(frame)
			f.drawReady.Store(true)
		case <-f.stop:
			return
		}
	}
}

// consume drives the backend through one frame: clear, creates and updates in
// recorded order, drawcalls in key order, frees in recorded order.
func (f *frontend) consume(frame *renderFrame) {
	if err := f.backend.BeginFrame(frame.clear); err != nil {
		f.log.WithError(err).Error("backend rejected frame")
		return
	}

	for _, cmd := range frame.commands {
		if IsFreeCommand(cmd) {
			continue
		}
		if err := f.backend.Execute(cmd); err != nil {
			f.log.WithError(err).Warn("backend rejected command")
		}
	}

	for _, draw := range frame.draws {
		if !f.drawResourcesAlive(draw.Call) {
			f.log.WithField("key", uint64(draw.Key)).Warn("drawcall against dead resource dropped")
			continue
		}
		var uniforms []UniformEntry
		if view := frame.views.Get(draw.Call.Uniforms); view != nil {
			uniforms = frame.arena.slice(*view)
		}
		if err := f.backend.Draw(draw.Key, draw.Call, uniforms); err != nil {
			f.log.WithError(err).Warn("backend rejected drawcall")
		}
	}

	for _, cmd := range frame.commands {
		if !IsFreeCommand(cmd) {
			continue
		}
		if err := f.backend.Execute(cmd); err != nil {
			f.log.WithError(err).Warn("backend rejected command")
		}
	}

	if err := f.backend.EndFrame(); err != nil {
		f.log.WithError(err).Error("backend failed to present frame")
	}
}

// drawResourcesAlive checks the call's mandatory handles against the typed
// sets at consumption time.
func (f *frontend) drawResourcesAlive(call DrawCall) bool {
	if !f.progHandles.Alive(call.Program) || !f.vbHandles.Alive(call.VertexBuffer) {
		return false
	}
	if !call.IndexBuffer.IsNil() && !f.ibHandles.Alive(call.IndexBuffer) {
		return false
	}
	if !call.RenderState.IsNil() && !f.stateHandles.Alive(call.RenderState) {
		return false
	}
	return true
}
