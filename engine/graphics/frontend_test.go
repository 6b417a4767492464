package graphics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaisc/lemon-toolkit/common"
)

func newTestFrontend(t *testing.T, backend Backend, options ...Option) Frontend {
	t.Helper()
	f := NewFrontend(backend, options...)
	t.Cleanup(f.Dispose)
	return f
}

func waitFrames(t *testing.T, backend *TraceBackend, n int) []TraceFrame {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(backend.Frames()) >= n
	}, 2*time.Second, time.Millisecond)
	return backend.Frames()
}

// simpleScene creates the minimum resources a drawcall needs.
func simpleScene(f Frontend) (program, vb common.Handle) {
	program = f.CreateProgram("vs", "fs")
	layout := MakeVertexLayout(AttributeData{Attribute: AttributePosition, Format: FormatFloat, Num: 3})
	vb = CreateVertexBufferFrom(f, []float32{0, 0, 0}, layout, BufferUsageStatic)
	return program, vb
}

func TestFrontend_ResourceCommandsKeepRecordOrder(t *testing.T) {
	backend := NewTraceBackend()
	f := newTestFrontend(t, backend)

	require.True(t, f.BeginFrame())
	program, vb := simpleScene(f)
	require.False(t, program.IsNil())
	require.False(t, vb.IsNil())
	UpdateVertexBufferFrom(f, vb, 0, []float32{1, 2, 3})
	f.EndFrame()

	frames := waitFrames(t, backend, 1)
	require.Len(t, frames, 1)
	cmds := frames[0].Commands
	require.Len(t, cmds, 3)
	assert.IsType(t, CreateProgramCmd{}, cmds[0])
	assert.IsType(t, CreateVertexBufferCmd{}, cmds[1])
	assert.IsType(t, UpdateVertexBufferCmd{}, cmds[2])

	update := cmds[2].(UpdateVertexBufferCmd)
	assert.Len(t, update.Data, 12, "three float32 vertices view as twelve bytes")
}

func TestFrontend_TypedIndexUpload(t *testing.T) {
	backend := NewTraceBackend()
	f := newTestFrontend(t, backend)

	require.True(t, f.BeginFrame())
	require.False(t, CreateIndexBufferFrom(f, []uint16{0, 1, 2}, BufferUsageStatic).IsNil())
	require.False(t, CreateIndexBufferFrom(f, []uint32{0, 1, 2, 3}, BufferUsageStatic).IsNil())
	f.EndFrame()

	frames := waitFrames(t, backend, 1)
	var creates []CreateIndexBufferCmd
	for _, cmd := range frames[0].Commands {
		if c, ok := cmd.(CreateIndexBufferCmd); ok {
			creates = append(creates, c)
		}
	}
	require.Len(t, creates, 2)
	assert.Equal(t, IndexUint16, creates[0].Format)
	assert.Len(t, creates[0].Data, 6)
	assert.Equal(t, IndexUint32, creates[1].Format)
	assert.Len(t, creates[1].Data, 16)
}

func TestFrontend_DrawcallsSortedStably(t *testing.T) {
	backend := NewTraceBackend()
	f := newTestFrontend(t, backend)

	require.True(t, f.BeginFrame())
	program, vb := simpleScene(f)

	// depths 0.5, 0.2, 0.5, 0.1 stand in for keys 5, 2, 5, 1; IndexFirst tags
	// the submission order
	depths := []float32{0.5, 0.2, 0.5, 0.1}
	for i, d := range depths {
		f.Submit(DrawCall{
			Program:      program,
			VertexBuffer: vb,
			IndexFirst:   uint32(i + 1),
			Layer:        LayerOpaque,
			Depth:        d,
		})
	}
	f.EndFrame()

	frames := waitFrames(t, backend, 1)
	draws := frames[0].Draws
	require.Len(t, draws, 4)

	var tags []uint32
	for _, d := range draws {
		tags = append(tags, d.Call.IndexFirst)
	}
	// 0.1 first, then 0.2, then the two 0.5 calls in submission order
	assert.Equal(t, []uint32{4, 2, 1, 3}, tags)
}

func TestFrontend_DrawsAfterCreatesBeforeFrees(t *testing.T) {
	backend := NewTraceBackend()
	f := newTestFrontend(t, backend)

	require.True(t, f.BeginFrame())
	program, vb := simpleScene(f)
	f.Submit(DrawCall{Program: program, VertexBuffer: vb})

	layout := MakeVertexLayout(AttributeData{Attribute: AttributePosition, Format: FormatFloat, Num: 3})
	other := f.CreateVertexBuffer([]byte{9, 9, 9, 9}, layout, BufferUsageStatic)
	f.FreeVertexBuffer(other)
	f.EndFrame()

	frames := waitFrames(t, backend, 1)
	cmds := frames[0].Commands

	// creates and updates first in record order, frees trail the drawcalls
	require.Len(t, cmds, 4)
	assert.IsType(t, CreateProgramCmd{}, cmds[0])
	assert.IsType(t, CreateVertexBufferCmd{}, cmds[1])
	assert.IsType(t, CreateVertexBufferCmd{}, cmds[2])
	assert.IsType(t, FreeVertexBufferCmd{}, cmds[3])
	assert.Len(t, frames[0].Draws, 1)
}

func TestFrontend_DrawAgainstFreedHandleIsDropped(t *testing.T) {
	backend := NewTraceBackend()
	f := newTestFrontend(t, backend)

	require.True(t, f.BeginFrame())
	program, vb := simpleScene(f)
	f.Submit(DrawCall{Program: program, VertexBuffer: vb})
	f.FreeVertexBuffer(vb)
	f.EndFrame()

	frames := waitFrames(t, backend, 1)
	// the backend still observes create then free, the frame is not corrupted
	var sawCreate, sawFree bool
	for _, cmd := range frames[0].Commands {
		switch cmd.(type) {
		case CreateVertexBufferCmd:
			sawCreate = true
		case FreeVertexBufferCmd:
			assert.True(t, sawCreate, "free is consumed after create")
			sawFree = true
		}
	}
	assert.True(t, sawCreate)
	assert.True(t, sawFree)
	assert.Empty(t, frames[0].Draws, "the dead-handle drawcall is dropped with a warning")
}

func TestFrontend_UniformArena(t *testing.T) {
	backend := NewTraceBackend()
	f := newTestFrontend(t, backend)

	require.True(t, f.BeginFrame())
	program, vb := simpleScene(f)

	ub := f.AllocateUniformBuffer(2)
	require.False(t, ub.IsNil())
	assert.True(t, f.IsUniformBufferAlive(ub))

	f.UpdateUniformBuffer(ub, HashUniformName("u_color"), UniformFloat(0.25))
	f.UpdateUniformBuffer(ub, HashUniformName("u_time"), UniformFloat(9))
	// the third write overflows the reserved window and is dropped
	f.UpdateUniformBuffer(ub, HashUniformName("u_extra"), UniformFloat(1))

	f.Submit(DrawCall{Program: program, VertexBuffer: vb, Uniforms: ub})
	f.EndFrame()

	frames := waitFrames(t, backend, 1)
	require.Len(t, frames[0].Draws, 1)
	uniforms := frames[0].Draws[0].Uniforms
	require.Len(t, uniforms, 2)
	assert.Equal(t, HashUniformName("u_color"), uniforms[0].Name)
	assert.Equal(t, float32(0.25), uniforms[0].Value.Data[0])
	assert.Equal(t, HashUniformName("u_time"), uniforms[1].Name)
}

func TestFrontend_UniformViewsResetEachFrame(t *testing.T) {
	backend := NewTraceBackend()
	f := newTestFrontend(t, backend)

	require.True(t, f.BeginFrame())
	ub := f.AllocateUniformBuffer(1)
	require.False(t, ub.IsNil())
	f.EndFrame()
	waitFrames(t, backend, 1)

	require.Eventually(t, f.BeginFrame, 2*time.Second, time.Millisecond)
	f.EndFrame()
	waitFrames(t, backend, 2)

	// two cycles later the same slot is recording again; the old view handle
	// must not resolve
	require.Eventually(t, f.BeginFrame, 2*time.Second, time.Millisecond)
	assert.False(t, f.IsUniformBufferAlive(ub))
}

func TestFrontend_HandleExhaustion(t *testing.T) {
	backend := NewTraceBackend()
	f := newTestFrontend(t, backend, WithMaxPrograms(1))

	require.True(t, f.BeginFrame())
	first := f.CreateProgram("vs", "fs")
	require.False(t, first.IsNil())

	second := f.CreateProgram("vs", "fs")
	assert.True(t, second.IsNil(), "exhausted handle set returns the null handle")
}

func TestFrontend_ClearParamsRecordedAtBegin(t *testing.T) {
	backend := NewTraceBackend()
	f := newTestFrontend(t, backend)

	f.Clear(ClearColor|ClearStencil, common.RGBA(1, 0, 0, 1), 0.5, 7)
	require.True(t, f.BeginFrame())
	f.EndFrame()

	frames := waitFrames(t, backend, 1)
	clear := frames[0].Clear
	assert.Equal(t, ClearColor|ClearStencil, clear.Options)
	assert.Equal(t, float32(1), clear.Color.R)
	assert.Equal(t, float32(0.5), clear.Depth)
	assert.Equal(t, uint32(7), clear.Stencil)
}

func TestFrontend_FlushDrainsSynchronously(t *testing.T) {
	backend := NewTraceBackend()
	f := newTestFrontend(t, backend)

	require.True(t, f.BeginFrame())
	program, vb := simpleScene(f)
	f.Submit(DrawCall{Program: program, VertexBuffer: vb})
	f.Flush()

	// no EndFrame happened, yet the recorded work reached the backend
	frames := backend.Frames()
	require.Len(t, frames, 1)
	assert.Len(t, frames[0].Draws, 1)

	// recording continues on the flushed frame
	f.Submit(DrawCall{Program: program, VertexBuffer: vb})
	f.EndFrame()
	frames = waitFrames(t, backend, 2)
	assert.Len(t, frames[1].Draws, 1)
}

// gatedBackend blocks frame consumption until released, to observe the
// frontend's behavior while the backend is behind.
type gatedBackend struct {
	*TraceBackend
	gate chan struct{}
}

func (g *gatedBackend) EndFrame() error {
	<-g.gate
	return g.TraceBackend.EndFrame()
}

func TestFrontend_BeginFrameFalseWhileBackendBehind(t *testing.T) {
	gated := &gatedBackend{TraceBackend: NewTraceBackend(), gate: make(chan struct{})}
	f := newTestFrontend(t, gated)

	require.True(t, f.BeginFrame())
	f.EndFrame()

	// the backend is stuck consuming; the next frame cannot begin
	assert.Never(t, f.BeginFrame, 50*time.Millisecond, 5*time.Millisecond)

	close(gated.gate)
	require.Eventually(t, f.BeginFrame, 2*time.Second, time.Millisecond)
}

func TestFrontend_FrameSerialization(t *testing.T) {
	backend := NewTraceBackend()
	f := newTestFrontend(t, backend)

	for i := 0; i < 3; i++ {
		require.Eventually(t, f.BeginFrame, 2*time.Second, time.Millisecond)
		program, vb := simpleScene(f)
		f.Submit(DrawCall{Program: program, VertexBuffer: vb})
		f.EndFrame()
	}

	frames := waitFrames(t, backend, 3)
	require.Len(t, frames, 3)
	for i, frame := range frames {
		assert.Len(t, frame.Draws, 1, "frame %d fully drained before the next", i)
	}
}

func TestFrontend_StaleResourceUpdatesDropped(t *testing.T) {
	backend := NewTraceBackend()
	f := newTestFrontend(t, backend)

	require.True(t, f.BeginFrame())
	_, vb := simpleScene(f)
	f.FreeVertexBuffer(vb)

	f.UpdateVertexBuffer(vb, 0, []byte{1})
	f.FreeVertexBuffer(vb) // double free is a no-op
	f.EndFrame()

	frames := waitFrames(t, backend, 1)
	frees := 0
	for _, cmd := range frames[0].Commands {
		switch cmd.(type) {
		case FreeVertexBufferCmd:
			frees++
		case UpdateVertexBufferCmd:
			t.Fatal("update against a dead handle must not be recorded")
		}
	}
	assert.Equal(t, 1, frees)
}
