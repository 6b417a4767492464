package graphics

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/kaisc/lemon-toolkit/common"
)

// ClearParams are the arguments of the implicit clear recorded at the head of
// every frame.
type ClearParams struct {
	Options ClearOption
	Color   common.Color
	Depth   float32
	Stencil uint32
}

// renderFrame is one recording slot of the double buffer: the resource command
// list, the drawcall list, and the per-frame uniform arena. Appends are
// guarded by a lightweight mutex per vector; the arena position is a single
// atomic bump. Each producer's own submissions keep their relative order.
type renderFrame struct {
	clear ClearParams

	cmdMu    sync.Mutex
	commands []Command

	drawMu sync.Mutex
	draws  []SortedDraw

	arena    uniformArena
	views    *common.HandleObjectSet[UniformBufferView]
	sequence atomic.Uint32
}

func newRenderFrame() *renderFrame {
	return &renderFrame{
		views: common.NewHandleObjectSet[UniformBufferView](MaxUniforms),
	}
}

// reset prepares the frame for a new recording cycle. Uniform views from the
// previous cycle go stale here.
func (f *renderFrame) reset(clear ClearParams) {
	f.clear = clear
	f.commands = f.commands[:0]
	f.draws = f.draws[:0]
	f.arena.reset()
	f.views.Clear()
	f.sequence.Store(0)
}

func (f *renderFrame) record(cmd Command) {
	f.cmdMu.Lock()
	f.commands = append(f.commands, cmd)
	f.cmdMu.Unlock()
}

func (f *renderFrame) submit(key SortKey, call DrawCall) {
	f.drawMu.Lock()
	f.draws = append(f.draws, SortedDraw{Key: key, Call: call})
	f.drawMu.Unlock()
}

// nextSequence hands out the per-frame drawcall tiebreaker.
func (f *renderFrame) nextSequence() uint16 {
	return uint16(f.sequence.Add(1) - 1)
}

// sortDraws orders the drawcall list by key. Keys embed the submission
// sequence in their low bits, so an unstable integer sort is already stable
// with respect to the higher-order criteria.
func (f *renderFrame) sortDraws() {
	sort.Slice(f.draws, func(i, j int) bool {
		return f.draws[i].Key < f.draws[j].Key
	})
}
