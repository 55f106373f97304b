package colour

import (
	"encoding/json"
	"image"
	"image/color"
	"math"
)

// Palette represents the dominant colours extracted from one pixel sample.
// Order is whatever the extraction algorithm produced.
type Palette struct {
	Colors []RGB

	// Weights holds the relative dominance of each colour, or nil when the
	// algorithm does not report one.
	Weights []float64
}

// NewPalette creates a new Palette with the given colours.
func NewPalette(colors []RGB) *Palette {
	return &Palette{
		Colors: colors,
	}
}

// NewPaletteWithWeights creates a Palette with per-colour weights.
func NewPaletteWithWeights(colors []RGB, weights []float64) *Palette {
	return &Palette{
		Colors:  colors,
		Weights: weights,
	}
}

// Len returns the number of colours in the palette.
func (p *Palette) Len() int {
	return len(p.Colors)
}

// ToHSV converts the palette colours to HSV.
func (p *Palette) ToHSV() []HSV {
	return ToHSVSlice(p.Colors)
}

// ToHex converts the palette colours to hex strings.
func (p *Palette) ToHex() []string {
	hexColors := make([]string, len(p.Colors))
	for i, c := range p.Colors {
		hexColors[i] = c.Hex()
	}
	return hexColors
}

// ColorJSON represents a colour in JSON output format.
type ColorJSON struct {
	Hex    string  `json:"hex"`
	RGB    RGB     `json:"rgb"`
	Weight float64 `json:"weight,omitempty"`
}

// PaletteJSON represents the palette in JSON format.
type PaletteJSON struct {
	Count  int         `json:"count"`
	Colors []ColorJSON `json:"colors"`
}

// ToJSON converts the palette to JSON format.
func (p *Palette) ToJSON() ([]byte, error) {
	colors := make([]ColorJSON, len(p.Colors))
	for i, c := range p.Colors {
		colors[i] = ColorJSON{Hex: c.Hex(), RGB: c}
		if i < len(p.Weights) {
			colors[i].Weight = p.Weights[i]
		}
	}

	return json.MarshalIndent(PaletteJSON{Count: len(p.Colors), Colors: colors}, "", "  ")
}

// ToRGB converts a color.Color to RGB.
func ToRGB(c color.Color) RGB {
	r, g, b, _ := c.RGBA()
	// RGBA returns values in the range [0, 65535], convert to [0, 255]
	return RGB{
		R: uint8(r >> 8),
		G: uint8(g >> 8),
		B: uint8(b >> 8),
	}
}

// PixelsFromImage flattens an image into row-major RGB samples, dropping alpha.
func PixelsFromImage(img image.Image) []RGB {
	bounds := img.Bounds()
	pixels := make([]RGB, 0, bounds.Dx()*bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			pixels = append(pixels, ToRGB(img.At(x, y)))
		}
	}
	return pixels
}

// imageFromPixels packs samples into a near-square opaque image. The last row
// is padded by cycling from the first sample.
func imageFromPixels(pixels []RGB) *image.RGBA {
	n := len(pixels)
	width := int(math.Ceil(math.Sqrt(float64(n))))
	height := (n + width - 1) / width

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < width*height; i++ {
		p := pixels[i%n]
		off := i * 4
		img.Pix[off] = p.R
		img.Pix[off+1] = p.G
		img.Pix[off+2] = p.B
		img.Pix[off+3] = 0xff
	}
	return img
}
