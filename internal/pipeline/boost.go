package pipeline

import (
	"math"

	"github.com/desktopdye/desktopdye/internal/colour"
)

// VividnessBoost is added to saturation and value of every extracted colour.
const VividnessBoost = 0.2

// Boost returns a copy of colors with saturation and value raised by
// VividnessBoost and capped at 1.0. Hue is untouched.
func Boost(colors []colour.HSV) []colour.HSV {
	boosted := make([]colour.HSV, len(colors))
	for i, c := range colors {
		boosted[i] = colour.HSV{
			H: c.H,
			S: math.Min(c.S+VividnessBoost, 1.0),
			V: math.Min(c.V+VividnessBoost, 1.0),
		}
	}
	return boosted
}
