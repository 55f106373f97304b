package pipeline

import (
	"slices"

	"github.com/desktopdye/desktopdye/internal/colour"
)

// HasChanged reports whether current differs from the previous run's colours.
// A nil previous always counts as changed. Comparison is exact, so colours
// that differ only by floating point noise are treated as changed.
func HasChanged(previous, current []colour.HSV) bool {
	if previous == nil {
		return true
	}
	return !slices.Equal(previous, current)
}
