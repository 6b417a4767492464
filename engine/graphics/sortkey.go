package graphics

import "math"

// TranslucencyLayer orders drawcalls into coarse blending classes before any
// other criterion.
type TranslucencyLayer uint8

const (
	// LayerOpaque draws first, front to back to exploit early-z.
	LayerOpaque TranslucencyLayer = iota
	// LayerTranslucent draws after opaque geometry, back to front.
	LayerTranslucent
	// LayerAdditive draws last; ordering within the layer is irrelevant but
	// kept deterministic by the sequence field.
	LayerAdditive
)

// SortKey is a single 64-bit integer encoding every drawcall ordering
// criterion, high bits first: view id, translucency layer, program, vertex
// layout, depth bucket, submission sequence. A plain integer sort of keys
// yields the frame's draw order; the sequence field in the low bits makes the
// sort stable for otherwise-equal keys.
//
// Bit layout, high to low:
//
//	[63:56] view        8 bits
//	[55:54] layer       2 bits
//	[53:44] program    10 bits
//	[43:32] layout     12 bits
//	[31:16] depth      16 bits
//	[15:00] sequence   16 bits
type SortKey uint64

// EncodeSortKey packs the ordering fields into a key. Depth is expected in
// [0, 1] from the near plane; opaque layers bucket front-to-back while
// translucent and additive layers invert the bucket for back-to-front order.
//
// Parameters:
//   - view: the render-target / view id
//   - layer: the translucency layer
//   - program: the program handle index
//   - layoutHash: the vertex layout hash (folded to 12 bits)
//   - depth: normalized view-space depth in [0, 1]
//   - sequence: the per-frame submission counter
//
// Returns:
//   - SortKey: the packed key
func EncodeSortKey(view uint8, layer TranslucencyLayer, program uint16, layoutHash uint64, depth float32, sequence uint16) SortKey {
	bucket := depthBucket(depth)
	if layer != LayerOpaque {
		bucket = ^bucket
	}

	key := uint64(view) << 56
	key |= (uint64(layer) & 0x3) << 54
	key |= (uint64(program) & 0x3ff) << 44
	key |= (layoutHash & 0xfff) << 32
	key |= uint64(bucket) << 16
	key |= uint64(sequence)
	return SortKey(key)
}

// View extracts the view id.
func (k SortKey) View() uint8 {
	return uint8(k >> 56)
}

// Layer extracts the translucency layer.
func (k SortKey) Layer() TranslucencyLayer {
	return TranslucencyLayer((k >> 54) & 0x3)
}

// Program extracts the program handle index.
func (k SortKey) Program() uint16 {
	return uint16((k >> 44) & 0x3ff)
}

// Sequence extracts the submission tiebreaker.
func (k SortKey) Sequence() uint16 {
	return uint16(k & 0xffff)
}

func depthBucket(depth float32) uint16 {
	if depth != depth || depth < 0 { // NaN clamps to the near plane
		depth = 0
	}
	if depth > 1 {
		depth = 1
	}
	return uint16(math.RoundToEven(float64(depth) * 0xffff))
}
