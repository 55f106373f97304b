package colour

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// ANSI escape codes for terminal colours.
const (
	ansiReset    = "\033[0m"
	ansiBold     = "\033[1m"
	ansiFgPrefix = "\033[38;2;"
	ansiBgPrefix = "\033[48;2;"
	ansiSuffix   = "m"
	defaultWidth = 8
)

// DisableColourOutput can be used to disable colour output.
var DisableColourOutput = false

// SupportsANSIColours reports whether f is a terminal that should receive
// ANSI colour codes. NO_COLOR and TERM=dumb disable colours.
func SupportsANSIColours(f *os.File) bool {
	if DisableColourOutput || f == nil {
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// ColourPreview returns an ANSI-coloured solid block for a colour.
func ColourPreview(c RGB, width int) string {
	if width <= 0 {
		width = defaultWidth
	}

	bgColour := fmt.Sprintf("%s%d;%d;%d%s", ansiBgPrefix, c.R, c.G, c.B, ansiSuffix)
	return bgColour + strings.Repeat(" ", width) + ansiReset
}

// Swatch renders text in bold on the colour's background. Text is black on
// bright colours (V > 0.5) and white otherwise.
func Swatch(c HSV, text string) string {
	rgb := c.ToRGB()

	var fg uint8 = 255
	if c.V > 0.5 {
		fg = 0
	}

	bgColour := fmt.Sprintf("%s%d;%d;%d%s", ansiBgPrefix, rgb.R, rgb.G, rgb.B, ansiSuffix)
	fgColour := fmt.Sprintf("%s%d;%d;%d%s", ansiFgPrefix, fg, fg, fg, ansiSuffix)

	return ansiBold + bgColour + fgColour + text + ansiReset
}

// PaletteStrip renders the palette as one bar of width cells. Each colour
// gets a share of the bar matching its weight, or an equal share when the
// palette has no weights. Every colour gets at least one cell.
func PaletteStrip(p *Palette, width int) string {
	n := p.Len()
	if n == 0 {
		return ""
	}
	if width < n {
		width = n
	}

	cells := make([]int, n)
	used := 0
	for i := range cells {
		share := 1.0 / float64(n)
		if len(p.Weights) == n {
			share = p.Weights[i]
		}
		cells[i] = max(1, int(share*float64(width)))
		used += cells[i]
	}
	// Rounding leftovers go to the last colour. The one cell minimum can
	// overshoot instead; the widest share gives those cells back.
	if used < width {
		cells[n-1] += width - used
	}
	for ; used > width; used-- {
		widest := 0
		for i := range cells {
			if cells[i] > cells[widest] {
				widest = i
			}
		}
		cells[widest]--
	}

	var b strings.Builder
	for i, c := range p.Colors {
		b.WriteString(ColourPreview(c, cells[i]))
	}
	return b.String()
}
