package colour

import (
	"fmt"
	"sort"

	"github.com/EdlinOrg/prominentcolor"

	"github.com/desktopdye/desktopdye/internal/security"
)

// ClusterExtractor implements colour extraction using k-means clustering in
// Lab space. Cluster sizes become the palette weights.
type ClusterExtractor struct {
	arguments  int
	resizeSize uint
}

// NewClusterExtractor creates a new ClusterExtractor with default settings.
func NewClusterExtractor() *ClusterExtractor {
	return &ClusterExtractor{
		arguments:  prominentcolor.ArgumentLAB | prominentcolor.ArgumentNoCropping,
		resizeSize: prominentcolor.DefaultSize,
	}
}

type weightedColour struct {
	rgb    RGB
	weight float64
}

// Extract extracts count dominant colours ordered by ascending dominance,
// least dominant first.
func (e *ClusterExtractor) Extract(pixels []RGB, count int) (*Palette, error) {
	if err := checkExtractInput(pixels, count); err != nil {
		return nil, err
	}

	img := imageFromPixels(pixels)

	// Small samples are clustered as is rather than upscaled.
	resize := e.resizeSize
	if uint(img.Bounds().Dx()) <= resize {
		resize = 0
	}

	items, err := prominentcolor.KmeansWithAll(count, img, e.arguments, resize, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: clustering returned no colours", ErrExtractionFailed)
	}

	total := 0
	for _, item := range items {
		total += item.Cnt
	}

	weighted := make([]weightedColour, len(items))
	for i, item := range items {
		weighted[i].rgb = RGB{
			R: security.SafeUint8FromUint32(item.Color.R),
			G: security.SafeUint8FromUint32(item.Color.G),
			B: security.SafeUint8FromUint32(item.Color.B),
		}
		if total > 0 {
			weighted[i].weight = float64(item.Cnt) / float64(total)
		}
	}

	sort.SliceStable(weighted, func(i, j int) bool {
		return weighted[i].weight < weighted[j].weight
	})

	colors := make([]RGB, len(weighted))
	weights := make([]float64, len(weighted))
	for i, w := range weighted {
		colors[i] = w.rgb
		weights[i] = w.weight
	}

	return NewPaletteWithWeights(colors, weights), nil
}
