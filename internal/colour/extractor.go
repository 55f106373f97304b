package colour

import (
	"errors"
	"fmt"
	"slices"
)

// ErrExtractionFailed is returned when a dominant colour algorithm errors or
// produces no colours.
var ErrExtractionFailed = errors.New("dominant colour extraction failed")

// Extractor defines the interface for dominant colour algorithms.
type Extractor interface {
	// Extract reduces the pixel samples to a palette of count colours.
	Extract(pixels []RGB, count int) (*Palette, error)
}

// Algorithm represents the colour extraction algorithm type.
type Algorithm string

const (
	// AlgorithmQuantization uses median cut quantization over RGB space.
	AlgorithmQuantization Algorithm = "quantization"

	// AlgorithmClustering uses k-means clustering in Lab space and orders
	// the result by ascending dominance.
	AlgorithmClustering Algorithm = "clustering"
)

// Names accepted in configuration files written for older releases.
var algorithmAliases = map[string]Algorithm{
	"color_thief": AlgorithmQuantization,
	"pigmnts":     AlgorithmClustering,
}

const (
	// MinSampleSize is the smallest palette size accepted from configuration.
	MinSampleSize = 1

	// MaxSampleSize is the largest palette size accepted from configuration.
	MaxSampleSize = 10
)

// ValidAlgorithms returns a list of valid algorithm names.
func ValidAlgorithms() []Algorithm {
	return []Algorithm{
		AlgorithmQuantization,
		AlgorithmClustering,
	}
}

// ParseAlgorithm resolves an algorithm name, accepting legacy aliases.
func ParseAlgorithm(name string) (Algorithm, error) {
	alg := Algorithm(name)
	if slices.Contains(ValidAlgorithms(), alg) {
		return alg, nil
	}
	if alias, ok := algorithmAliases[name]; ok {
		return alias, nil
	}
	return "", fmt.Errorf("unknown algorithm: %s (valid algorithms: %v)", name, ValidAlgorithms())
}

// NewExtractor creates a new Extractor based on the specified algorithm.
func NewExtractor(alg Algorithm) (Extractor, error) {
	resolved, err := ParseAlgorithm(string(alg))
	if err != nil {
		return nil, err
	}

	switch resolved {
	case AlgorithmQuantization:
		return NewQuantizeExtractor(), nil
	default:
		return NewClusterExtractor(), nil
	}
}

// ExtractorConfig holds configuration for colour extraction.
type ExtractorConfig struct {
	Algorithm  Algorithm
	SampleSize int
}

// DefaultExtractorConfig returns the default extractor configuration.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		Algorithm:  AlgorithmQuantization,
		SampleSize: 3,
	}
}

// Validate validates the extractor configuration.
func (c ExtractorConfig) Validate() error {
	if _, err := ParseAlgorithm(string(c.Algorithm)); err != nil {
		return err
	}
	if c.SampleSize < MinSampleSize || c.SampleSize > MaxSampleSize {
		return fmt.Errorf("sample size must be between %d and %d, got %d", MinSampleSize, MaxSampleSize, c.SampleSize)
	}
	return nil
}

// checkExtractInput applies the argument checks shared by every extractor.
func checkExtractInput(pixels []RGB, count int) error {
	if count < 1 {
		return fmt.Errorf("%w: colour count must be at least 1, got %d", ErrExtractionFailed, count)
	}
	if len(pixels) == 0 {
		return fmt.Errorf("%w: no pixels to sample", ErrExtractionFailed)
	}
	return nil
}
