package graphics

import (
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/kaisc/lemon-toolkit/common"
)

// MaxUniforms bounds the per-frame uniform arena and the number of uniform
// buffer views one frame can hold.
const MaxUniforms = 4096

// UniformKind discriminates the variant payload of a UniformVariable.
type UniformKind uint8

const (
	UniformFloat1 UniformKind = iota
	UniformVector2
	UniformVector3
	UniformVector4
	UniformMatrix3
	UniformMatrix4
	UniformTexture
)

// UniformVariable is a tagged union of the value types a shader uniform can
// take. The fixed payload keeps the arena a flat array.
type UniformVariable struct {
	Kind    UniformKind
	Data    [16]float32
	Texture common.Handle
}

// UniformFloat wraps a scalar uniform value.
func UniformFloat(v float32) UniformVariable {
	return UniformVariable{Kind: UniformFloat1, Data: [16]float32{v}}
}

// UniformVec2 wraps a two-component vector.
func UniformVec2(v mgl32.Vec2) UniformVariable {
	return UniformVariable{Kind: UniformVector2, Data: [16]float32{v[0], v[1]}}
}

// UniformVec3 wraps a three-component vector.
func UniformVec3(v mgl32.Vec3) UniformVariable {
	return UniformVariable{Kind: UniformVector3, Data: [16]float32{v[0], v[1], v[2]}}
}

// UniformVec4 wraps a four-component vector.
func UniformVec4(v mgl32.Vec4) UniformVariable {
	return UniformVariable{Kind: UniformVector4, Data: [16]float32{v[0], v[1], v[2], v[3]}}
}

// UniformMat3 wraps a 3x3 matrix, stored in the first nine payload floats.
func UniformMat3(m mgl32.Mat3) UniformVariable {
	var u UniformVariable
	u.Kind = UniformMatrix3
	copy(u.Data[:9], m[:])
	return u
}

// UniformMat4 wraps a 4x4 matrix.
func UniformMat4(m mgl32.Mat4) UniformVariable {
	var u UniformVariable
	u.Kind = UniformMatrix4
	copy(u.Data[:], m[:])
	return u
}

// UniformSampler wraps a texture binding.
func UniformSampler(texture common.Handle) UniformVariable {
	return UniformVariable{Kind: UniformTexture, Texture: texture}
}

// HashUniformName hashes a uniform variable name for arena storage. Producers
// can hash once at startup and reuse the value every frame.
//
// Parameters:
//   - name: the shader-side variable name
//
// Returns:
//   - uint64: the name hash
func HashUniformName(name string) uint64 {
	return xxhash.Sum64String(name)
}

// UniformEntry is one recorded (name hash, value) pair.
type UniformEntry struct {
	Name  uint64
	Value UniformVariable
}

// UniformBufferView is a slice descriptor into the frame's uniform arena:
// a reserved window [First, First+Num) of which Used entries are filled.
type UniformBufferView struct {
	First uint32
	Num   uint32
	Used  uint32
}

// uniformArena is the per-frame bump allocator backing uniform storage. The
// position is a single atomic so producers on any goroutine can reserve
// windows without locking; entries are written into the reserved window only
// by their owning producer.
type uniformArena struct {
	position atomic.Uint32
	names    [MaxUniforms]uint64
	values   [MaxUniforms]UniformVariable
}

// reserve bumps the arena by num slots. Returns the window start and false if
// the arena is exhausted.
func (a *uniformArena) reserve(num uint32) (uint32, bool) {
	first := a.position.Add(num) - num
	if first+num > MaxUniforms {
		return 0, false
	}
	return first, true
}

func (a *uniformArena) write(slot uint32, name uint64, value UniformVariable) {
	a.names[slot] = name
	a.values[slot] = value
}

func (a *uniformArena) slice(view UniformBufferView) []UniformEntry {
	entries := make([]UniformEntry, view.Used)
	for i := uint32(0); i < view.Used; i++ {
		entries[i] = UniformEntry{Name: a.names[view.First+i], Value: a.values[view.First+i]}
	}
	return entries
}

func (a *uniformArena) reset() {
	a.position.Store(0)
}
