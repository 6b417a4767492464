// Package graphics implements the render frontend: a double-buffered,
// thread-safe command recorder that accepts resource operations and draw
// calls on producer goroutines, sorts draws by key, and hands completed
// frames to a backend for submission.
package graphics

// BufferUsage is the expected update pattern of a buffer's data store.
type BufferUsage uint8

const (
	// BufferUsageStatic marks data written once and drawn many times.
	BufferUsageStatic BufferUsage = iota
	// BufferUsageDynamic marks data updated repeatedly between draws.
	BufferUsageDynamic
	// BufferUsageStream marks data rewritten nearly every frame.
	BufferUsageStream
)

// IndexElementFormat is the width of one index element.
type IndexElementFormat uint8

const (
	// IndexUint16 stores indices as 16-bit values.
	IndexUint16 IndexElementFormat = iota
	// IndexUint32 stores indices as 32-bit values.
	IndexUint32
)

// TextureFormat describes the channel layout of a texture.
type TextureFormat uint8

const (
	TextureFormatAlpha TextureFormat = iota
	TextureFormatRGB
	TextureFormatRGBA
	TextureFormatDepth
	TextureFormatDepthStencil
)

// TexturePixelFormat describes the storage of one texel component.
type TexturePixelFormat uint8

const (
	PixelFormatUByte TexturePixelFormat = iota
	PixelFormatUShort565
	PixelFormatUShort4444
	PixelFormatFloat
)

// TextureCoordinate names one texture addressing axis.
type TextureCoordinate uint8

const (
	TextureCoordinateU TextureCoordinate = iota
	TextureCoordinateV
	TextureCoordinateW
)

// TextureAddressMode controls sampling outside the [0, 1] coordinate range.
type TextureAddressMode uint8

const (
	AddressModeRepeat TextureAddressMode = iota
	AddressModeMirror
	AddressModeClamp
	AddressModeBorder
)

// TextureFilterMode controls texel filtering.
type TextureFilterMode uint8

const (
	FilterModeNearest TextureFilterMode = iota
	FilterModeLinear
	FilterModeTrilinear
	FilterModeAnisotropic
)

// CompareFunc is a depth/stencil comparison function.
type CompareFunc uint8

const (
	CompareNever CompareFunc = iota
	CompareLess
	CompareLessEqual
	CompareEqual
	CompareGreaterEqual
	CompareGreater
	CompareNotEqual
	CompareAlways
)

// BlendFactor is one operand of the blend equation.
type BlendFactor uint8

const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcColor
	BlendOneMinusSrcColor
	BlendSrcAlpha
	BlendOneMinusSrcAlpha
	BlendDstColor
	BlendOneMinusDstColor
	BlendDstAlpha
	BlendOneMinusDstAlpha
)

// CullMode selects which triangle faces are discarded.
type CullMode uint8

const (
	CullNone CullMode = iota
	CullFront
	CullBack
)

// RenderState is an immutable, stateless declaration of fixed-function state
// one drawcall runs with. Submitting with whatever state a call wants never
// affects any other call.
type RenderState struct {
	DepthTest   bool
	DepthWrite  bool
	DepthFunc   CompareFunc
	BlendEnable bool
	BlendSrc    BlendFactor
	BlendDst    BlendFactor
	Cull        CullMode
	ScissorTest bool
	ScissorX    uint16
	ScissorY    uint16
	ScissorW    uint16
	ScissorH    uint16
	ColorWrite  bool
}

// DefaultRenderState returns a conventional starting state: depth test and
// write on, no blending, back-face culling. CreateRenderState does not apply
// it; every handle stores exactly the state passed to it.
//
// Returns:
//   - RenderState: the default state
func DefaultRenderState() RenderState {
	return RenderState{
		DepthTest:  true,
		DepthWrite: true,
		DepthFunc:  CompareLessEqual,
		Cull:       CullBack,
		ColorWrite: true,
	}
}

// ClearOption selects which attachments an implicit frame clear touches.
type ClearOption uint8

const (
	// ClearColor clears the color attachment.
	ClearColor ClearOption = 1 << iota
	// ClearDepth clears the depth attachment.
	ClearDepth
	// ClearStencil clears the stencil attachment.
	ClearStencil
)
