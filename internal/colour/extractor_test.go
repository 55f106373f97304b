package colour

import (
	"errors"
	"math"
	"testing"
)

func twoColourPixels(a, b RGB, countA, countB int) []RGB {
	pixels := make([]RGB, 0, countA+countB)
	for i := 0; i < countA; i++ {
		pixels = append(pixels, a)
	}
	for i := 0; i < countB; i++ {
		pixels = append(pixels, b)
	}
	return pixels
}

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		name    string
		want    Algorithm
		wantErr bool
	}{
		{"quantization", AlgorithmQuantization, false},
		{"clustering", AlgorithmClustering, false},
		{"color_thief", AlgorithmQuantization, false},
		{"pigmnts", AlgorithmClustering, false},
		{"kmeans", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAlgorithm(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAlgorithm() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseAlgorithm() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewExtractor(t *testing.T) {
	e, err := NewExtractor(AlgorithmQuantization)
	if err != nil {
		t.Fatalf("NewExtractor() error = %v", err)
	}
	if _, ok := e.(*QuantizeExtractor); !ok {
		t.Errorf("NewExtractor(quantization) = %T, want *QuantizeExtractor", e)
	}

	e, err = NewExtractor("pigmnts")
	if err != nil {
		t.Fatalf("NewExtractor() error = %v", err)
	}
	if _, ok := e.(*ClusterExtractor); !ok {
		t.Errorf("NewExtractor(pigmnts) = %T, want *ClusterExtractor", e)
	}

	if _, err := NewExtractor("octree"); err == nil {
		t.Error("Expected error for unknown algorithm")
	}
}

func TestExtractorConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  ExtractorConfig
		wantErr bool
	}{
		{"default", DefaultExtractorConfig(), false},
		{"minimum", ExtractorConfig{Algorithm: AlgorithmClustering, SampleSize: 1}, false},
		{"maximum", ExtractorConfig{Algorithm: AlgorithmClustering, SampleSize: 10}, false},
		{"zero", ExtractorConfig{Algorithm: AlgorithmQuantization, SampleSize: 0}, true},
		{"too many", ExtractorConfig{Algorithm: AlgorithmQuantization, SampleSize: 11}, true},
		{"bad algorithm", ExtractorConfig{Algorithm: "octree", SampleSize: 3}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestExtractInputErrors(t *testing.T) {
	pixels := []RGB{{R: 10, G: 20, B: 30}}

	for _, alg := range ValidAlgorithms() {
		e, err := NewExtractor(alg)
		if err != nil {
			t.Fatalf("NewExtractor(%s) error = %v", alg, err)
		}

		if _, err := e.Extract(nil, 3); !errors.Is(err, ErrExtractionFailed) {
			t.Errorf("%s: Extract(no pixels) error = %v, want ErrExtractionFailed", alg, err)
		}
		if _, err := e.Extract(pixels, 0); !errors.Is(err, ErrExtractionFailed) {
			t.Errorf("%s: Extract(count 0) error = %v, want ErrExtractionFailed", alg, err)
		}
	}
}

func TestQuantizeExtractor(t *testing.T) {
	red := RGB{R: 220, G: 30, B: 30}
	blue := RGB{R: 30, G: 30, B: 220}
	pixels := twoColourPixels(red, blue, 32, 32)

	palette, err := NewQuantizeExtractor().Extract(pixels, 2)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if palette.Len() == 0 || palette.Len() > 2 {
		t.Fatalf("got %d colours, want 1-2", palette.Len())
	}
	if palette.Weights != nil {
		t.Errorf("quantization palette should carry no weights, got %v", palette.Weights)
	}
}

func TestQuantizeExtractorSingleColour(t *testing.T) {
	green := RGB{R: 40, G: 200, B: 60}
	pixels := twoColourPixels(green, green, 9, 0)

	palette, err := NewQuantizeExtractor().Extract(pixels, 1)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if palette.Len() != 1 {
		t.Fatalf("got %d colours, want 1", palette.Len())
	}
	if palette.Colors[0] != green {
		t.Errorf("got %v, want %v", palette.Colors[0], green)
	}
}

func TestClusterExtractorOrdersByAscendingWeight(t *testing.T) {
	dominant := RGB{R: 200, G: 40, B: 40}
	minor := RGB{R: 40, G: 40, B: 200}
	pixels := twoColourPixels(dominant, minor, 48, 16)

	palette, err := NewClusterExtractor().Extract(pixels, 2)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if palette.Len() == 0 || palette.Len() > 2 {
		t.Fatalf("got %d colours, want 1-2", palette.Len())
	}
	if len(palette.Weights) != palette.Len() {
		t.Fatalf("got %d weights for %d colours", len(palette.Weights), palette.Len())
	}

	sum := 0.0
	for i, w := range palette.Weights {
		sum += w
		if i > 0 && palette.Weights[i-1] > w {
			t.Errorf("weights not ascending: %v", palette.Weights)
		}
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("weights sum to %v, want 1", sum)
	}
}
