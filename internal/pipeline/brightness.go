package pipeline

import (
	"math"

	"github.com/desktopdye/desktopdye/internal/colour"
)

// ScaleBrightness multiplies every colour's value by factor, capped at 1.0.
// A factor of exactly 1.0 returns colors unchanged.
func ScaleBrightness(colors []colour.HSV, factor float64) []colour.HSV {
	if factor == 1.0 {
		return colors
	}

	scaled := make([]colour.HSV, len(colors))
	for i, c := range colors {
		scaled[i] = colour.HSV{H: c.H, S: c.S, V: math.Min(c.V*factor, 1.0)}
	}
	return scaled
}
