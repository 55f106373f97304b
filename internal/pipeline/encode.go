package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/desktopdye/desktopdye/internal/colour"
)

// Format is the textual wire format of the payload.
type Format string

const (
	// FormatRGB encodes each colour as "r,g,b".
	FormatRGB Format = "rgb"

	// FormatRGBB encodes each colour as "r,g,b,brightness" with brightness
	// as a percentage.
	FormatRGBB Format = "rgbb"

	// FormatHSB encodes each colour as "hue,saturation,brightness" with
	// saturation and brightness as percentages.
	FormatHSB Format = "hsb"
)

// payloadDecimals is the rounding applied to fractional payload fields.
const payloadDecimals = 3

// ValidFormats returns all payload formats.
func ValidFormats() []Format {
	return []Format{FormatRGB, FormatRGBB, FormatHSB}
}

// ParseFormat resolves a format name.
func ParseFormat(name string) (Format, error) {
	for _, f := range ValidFormats() {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported format: %s (supported: %v)", name, ValidFormats())
}

// String returns the display name of the format.
func (f Format) String() string {
	return strings.ToUpper(string(f))
}

// Encode serializes colors into space separated, comma delimited tokens.
func Encode(colors []colour.HSV, format Format) string {
	tokens := make([]string, len(colors))
	for i, c := range colors {
		tokens[i] = EncodeColour(c, format)
	}
	return strings.Join(tokens, " ")
}

// EncodeColour serializes a single colour.
func EncodeColour(c colour.HSV, format Format) string {
	switch format {
	case FormatRGBB:
		rgb := c.ToRGB()
		return fmt.Sprintf("%d,%d,%d,%s", rgb.R, rgb.G, rgb.B, formatPercent(c.V))
	case FormatHSB:
		return strings.Join([]string{
			formatFloat(colour.RoundFloat(payloadDecimals, c.H)),
			formatPercent(c.S),
			formatPercent(c.V),
		}, ",")
	default:
		rgb := c.ToRGB()
		return fmt.Sprintf("%d,%d,%d", rgb.R, rgb.G, rgb.B)
	}
}

// Label renders a colour for terminal output in the given format.
func Label(c colour.HSV, format Format) string {
	rgb := c.ToRGB()
	switch format {
	case FormatRGBB:
		return fmt.Sprintf("RGBB(%d,%d,%d,%s)", rgb.R, rgb.G, rgb.B, formatPercent(c.V))
	case FormatHSB:
		return fmt.Sprintf("H: %.3f°, S: %.3f, B: %.3f", c.H, c.S, c.V)
	default:
		return fmt.Sprintf("RGB(%d, %d, %d)", rgb.R, rgb.G, rgb.B)
	}
}

func formatPercent(v float64) string {
	return formatFloat(colour.RoundFloat(payloadDecimals, v*100))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
