package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/desktopdye/desktopdye/internal/colour"
	"github.com/desktopdye/desktopdye/internal/pipeline"
)

// useColour reports whether w should receive ANSI swatches.
func useColour(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && colour.SupportsANSIColours(f)
}

// formatColours lists each final colour with its hex code and a label in the
// payload format. With swatches the hex code is drawn on the colour itself.
func formatColours(colors []colour.HSV, format pipeline.Format, swatches bool) string {
	var b strings.Builder
	for i, c := range colors {
		hex := c.Hex()
		if swatches {
			hex = colour.Swatch(c, " "+hex+" ")
		}
		fmt.Fprintf(&b, "%2d. %s  %s\n", i+1, hex, pipeline.Label(c, format))
	}
	return b.String()
}

// paletteStripWidth is the width of the extracted palette bar.
const paletteStripWidth = 40

// printResult writes the colours of result followed by the payload. With
// preview on a terminal the raw extracted palette is drawn first.
func printResult(w io.Writer, result *pipeline.Result, format pipeline.Format, preview bool) {
	swatches := preview && useColour(w)
	if swatches && result.Palette != nil {
		fmt.Fprintf(w, "palette: %s\n", colour.PaletteStrip(result.Palette, paletteStripWidth))
	}
	fmt.Fprint(w, formatColours(result.Colors, format, swatches))
	fmt.Fprintf(w, "payload: %s\n", result.Payload)
}
