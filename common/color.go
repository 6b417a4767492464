package common

import "github.com/lucasb-eyer/go-colorful"

// Color is a linear RGBA color with components in [0, 1]. The alpha channel is
// carried separately so the RGB part can round-trip through colorful's
// blending and color-space helpers.
type Color struct {
	R, G, B, A float32
}

// RGBA builds a color from its components.
//
// Parameters:
//   - r, g, b, a: channel values in [0, 1]
//
// Returns:
//   - Color: the assembled color
func RGBA(r, g, b, a float32) Color {
	return Color{R: r, G: g, B: b, A: a}
}

// Transparent is the all-zero clear color.
var Transparent = Color{}

// Black is opaque black.
var Black = Color{A: 1}

// White is opaque white.
var White = Color{R: 1, G: 1, B: 1, A: 1}

// Lerp blends toward other in the perceptually uniform Luv space, which avoids
// the muddy midpoints of naive per-channel interpolation. Alpha interpolates
// linearly.
//
// Parameters:
//   - other: the target color
//   - t: blend factor in [0, 1]
//
// Returns:
//   - Color: the blended color
func (c Color) Lerp(other Color, t float32) Color {
	blended := c.colorful().BlendLuv(other.colorful(), float64(t)).Clamped()
	return Color{
		R: float32(blended.R),
		G: float32(blended.G),
		B: float32(blended.B),
		A: c.A + (other.A-c.A)*t,
	}
}

// Hex formats the RGB part as a #rrggbb string for diagnostics.
//
// Returns:
//   - string: the hex representation
func (c Color) Hex() string {
	return c.colorful().Clamped().Hex()
}

func (c Color) colorful() colorful.Color {
	return colorful.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B)}
}
