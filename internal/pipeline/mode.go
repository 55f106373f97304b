package pipeline

import (
	"fmt"
	"sort"

	"github.com/desktopdye/desktopdye/internal/colour"
)

// Mode selects how the boosted palette is turned into the final colours.
type Mode string

const (
	// ModeDefault passes the palette through unchanged.
	ModeDefault Mode = "default"

	// ModeBrightness moves the first bright colour to the front.
	ModeBrightness Mode = "brightness"

	// ModeHueShift fans the first colour out across a hue range.
	ModeHueShift Mode = "hue_shift"
)

// BrightnessThreshold is the value a colour must exceed to be picked as the
// primary colour in brightness mode.
const BrightnessThreshold = 0.80

// ValidModes returns all selection modes.
func ValidModes() []Mode {
	return []Mode{ModeDefault, ModeBrightness, ModeHueShift}
}

// ParseMode resolves a mode name.
func ParseMode(name string) (Mode, error) {
	for _, m := range ValidModes() {
		if string(m) == name {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown mode: %s (valid modes: %v)", name, ValidModes())
}

// String returns the display name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeDefault:
		return "Default"
	case ModeBrightness:
		return "Brightness"
	case ModeHueShift:
		return "Hue Shift"
	default:
		return string(m)
	}
}

// Correct applies the selection mode to colors. The input is never modified.
func Correct(colors []colour.HSV, mode Mode, hueShift float64) []colour.HSV {
	if len(colors) == 0 {
		return colors
	}

	switch mode {
	case ModeBrightness:
		return correctBrightness(colors)
	case ModeHueShift:
		return correctHueShift(colors, hueShift)
	default:
		return colors
	}
}

// correctBrightness puts the primary colour first followed by the remaining
// colours in their original order. Copies exactly equal to the primary are
// dropped; near-equal colours are kept.
func correctBrightness(colors []colour.HSV) []colour.HSV {
	primary, ok := firstAboveThreshold(colors)
	if !ok {
		primary = brightest(colors)
	}

	out := make([]colour.HSV, 0, len(colors))
	out = append(out, primary)
	for _, c := range colors {
		if c != primary {
			out = append(out, c)
		}
	}
	return out
}

func firstAboveThreshold(colors []colour.HSV) (colour.HSV, bool) {
	for _, c := range colors {
		if c.V > BrightnessThreshold {
			return c, true
		}
	}
	return colour.HSV{}, false
}

// brightest returns the colour with the highest value. Ties go to the
// earliest colour in input order.
func brightest(colors []colour.HSV) colour.HSV {
	sorted := make([]colour.HSV, len(colors))
	copy(sorted, colors)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].V > sorted[j].V
	})
	return sorted[0]
}

// correctHueShift spreads len(colors) hues evenly over
// [primary-hueShift, primary+hueShift], all sharing the primary's saturation
// and value.
func correctHueShift(colors []colour.HSV, hueShift float64) []colour.HSV {
	if len(colors) == 1 {
		return colors
	}

	primary := colors[0]
	lower := primary.H - hueShift
	step := hueShift * 2 / float64(len(colors)-1)

	out := make([]colour.HSV, len(colors))
	for i := range colors {
		out[i] = colour.HSV{
			H: normalizeHue(lower + step*float64(i)),
			S: primary.S,
			V: primary.V,
		}
	}
	return out
}

// normalizeHue folds a hue back by a single turn. Hues more than one turn
// outside [0, 360] are left partially wrapped.
func normalizeHue(h float64) float64 {
	switch {
	case h < 0:
		return h + 360
	case h > 360:
		return h - 360
	default:
		return h
	}
}
