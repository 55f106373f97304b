package colour

import (
	"fmt"
	"image/color"

	"github.com/ericpauley/go-quantize/quantize"
)

// QuantizeExtractor implements colour extraction using median cut
// quantization. Every pixel carries the same weight.
type QuantizeExtractor struct {
	quantizer quantize.MedianCutQuantizer
}

// NewQuantizeExtractor creates a new QuantizeExtractor with default settings.
func NewQuantizeExtractor() *QuantizeExtractor {
	return &QuantizeExtractor{
		quantizer: quantize.MedianCutQuantizer{
			Aggregation: quantize.Mean,
		},
	}
}

// Extract extracts count representative colours. The palette order is the
// order of the quantizer's buckets and carries no weights.
func (e *QuantizeExtractor) Extract(pixels []RGB, count int) (*Palette, error) {
	if err := checkExtractInput(pixels, count); err != nil {
		return nil, err
	}

	img := imageFromPixels(pixels)
	quantized := e.quantizer.Quantize(make(color.Palette, 0, count), img)
	if len(quantized) == 0 {
		return nil, fmt.Errorf("%w: quantizer returned no colours", ErrExtractionFailed)
	}

	colors := make([]RGB, len(quantized))
	for i, c := range quantized {
		colors[i] = ToRGB(c)
	}

	return NewPalette(colors), nil
}
