// Package colour provides colour conversion and dominant colour extraction.
package colour

import (
	"fmt"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

const maxChannel = 255.0

// RGB represents a colour with three 8-bit channels.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// HSV represents a colour in hue/saturation/value space.
// H is in degrees and is normally within [0, 360), S and V are within [0, 1].
// Equality is exact per field.
type HSV struct {
	H float64 `json:"h"`
	S float64 `json:"s"`
	V float64 `json:"v"`
}

// String returns the RGB colour as a string in the format "rgb(r, g, b)".
func (rgb RGB) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", rgb.R, rgb.G, rgb.B)
}

// Hex returns the RGB colour as a hex string (e.g., "#1a2b3c").
func (rgb RGB) Hex() string {
	return "#" + rgb.HexNoHash()
}

// HexNoHash returns the lowercase hex encoding without a prefix (e.g., "1a2b3c").
func (rgb RGB) HexNoHash() string {
	return fmt.Sprintf("%02x%02x%02x", rgb.R, rgb.G, rgb.B)
}

// ToHSV converts the colour to HSV.
func (rgb RGB) ToHSV() HSV {
	c := colorful.Color{R: U8ToF64(rgb.R), G: U8ToF64(rgb.G), B: U8ToF64(rgb.B)}
	h, s, v := c.Hsv()
	return HSV{H: h, S: s, V: v}
}

// String returns the HSV colour as "hsv(h, s, v)".
func (hsv HSV) String() string {
	return fmt.Sprintf("hsv(%.3f, %.3f, %.3f)", hsv.H, hsv.S, hsv.V)
}

// ToRGB converts the colour to 8-bit RGB. Channels are truncated, not rounded.
// Hues outside [0, 360) are reduced for the conversion only.
func (hsv HSV) ToRGB() RGB {
	c := colorful.Hsv(wrapHue(hsv.H), hsv.S, hsv.V)
	return RGB{R: F64ToU8(c.R), G: F64ToU8(c.G), B: F64ToU8(c.B)}
}

// Hex returns the hex string of the quantized colour.
func (hsv HSV) Hex() string {
	return hsv.ToRGB().Hex()
}

// wrapHue reduces h into [0, 360).
func wrapHue(h float64) float64 {
	if math.IsNaN(h) || math.IsInf(h, 0) {
		return 0
	}
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	if h >= 360 {
		h = 0
	}
	return h
}

// U8ToF64 normalises an 8-bit channel into [0, 1].
func U8ToF64(c uint8) float64 {
	switch c {
	case 0:
		return 0
	case math.MaxUint8:
		return 1
	default:
		return float64(c) / maxChannel
	}
}

// F64ToU8 quantizes a [0, 1] channel to 8 bits by truncation.
// Out of range values are clamped.
func F64ToU8(v float64) uint8 {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= 1:
		return math.MaxUint8
	default:
		return uint8(v * maxChannel)
	}
}

// RoundFloat rounds v to the given number of decimals, half away from zero.
func RoundFloat(decimals uint8, v float64) float64 {
	carrier := math.Pow10(int(decimals))
	return math.Round(v*carrier) / carrier
}

// ToHSVSlice converts a slice of RGB colours to HSV.
func ToHSVSlice(colours []RGB) []HSV {
	out := make([]HSV, len(colours))
	for i, c := range colours {
		out[i] = c.ToHSV()
	}
	return out
}
