// Package pipeline turns sampled screen pixels into the final colours and
// payload sent to a lighting actuator.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/desktopdye/desktopdye/internal/colour"
)

var (
	// ErrCaptureFailed marks failures of the screen capture collaborator.
	// The pipeline never returns it; callers wrap capture errors with it.
	ErrCaptureFailed = errors.New("screen capture failed")

	// ErrExtractionFailed is returned when no dominant colours could be
	// extracted for the current cycle.
	ErrExtractionFailed = colour.ErrExtractionFailed
)

// Config holds the already validated settings for one pipeline.
type Config struct {
	SampleSize       int
	Algorithm        colour.Algorithm
	Mode             Mode
	HueShift         float64
	Format           Format
	BrightnessFactor float64
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return Config{
		SampleSize:       3,
		Algorithm:        colour.AlgorithmQuantization,
		Mode:             ModeDefault,
		HueShift:         45.0,
		Format:           FormatRGB,
		BrightnessFactor: 1.0,
	}
}

// Result is the output of one pipeline run.
type Result struct {
	// Colors is the final ordered colour sequence. Callers keep it as the
	// previous value for the next run.
	Colors []colour.HSV

	// Palette is the raw extractor output.
	Palette *colour.Palette

	// Payload is the encoded form of Colors.
	Payload string

	// Changed is false when Colors equals the previous run's colours and
	// the payload does not need to be submitted again.
	Changed bool
}

// Pipeline runs extraction and correction with a fixed configuration.
type Pipeline struct {
	config    Config
	extractor colour.Extractor
	logger    hclog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for debug output.
func WithLogger(logger hclog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger.Named("pipeline")
		}
	}
}

// WithExtractor overrides the extractor chosen from Config.Algorithm.
func WithExtractor(extractor colour.Extractor) Option {
	return func(p *Pipeline) {
		p.extractor = extractor
	}
}

// New creates a Pipeline. The extractor is constructed from cfg.Algorithm
// unless WithExtractor is given.
func New(cfg Config, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		config: cfg,
		logger: hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.extractor == nil {
		extractor, err := colour.NewExtractor(cfg.Algorithm)
		if err != nil {
			return nil, fmt.Errorf("failed to create extractor: %w", err)
		}
		p.extractor = extractor
	}

	return p, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config {
	return p.config
}

// Run extracts, boosts, corrects and encodes the dominant colours of pixels.
// previous is the Colors of the last successful run, or nil.
func (p *Pipeline) Run(pixels []colour.RGB, previous []colour.HSV) (*Result, error) {
	palette, err := p.extractor.Extract(pixels, p.config.SampleSize)
	if err != nil {
		if errors.Is(err, ErrExtractionFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	if palette == nil || palette.Len() == 0 {
		return nil, fmt.Errorf("%w: got 0 results", ErrExtractionFailed)
	}

	p.logger.Debug("extracted palette", "algorithm", p.config.Algorithm, "colours", palette.ToHex(), "pixels", len(pixels))

	colors := Boost(palette.ToHSV())
	p.logger.Debug("dominant colour", "hex", colors[0].Hex())

	colors = Correct(colors, p.config.Mode, p.config.HueShift)
	colors = ScaleBrightness(colors, p.config.BrightnessFactor)

	result := &Result{
		Colors:  colors,
		Palette: palette,
		Payload: Encode(colors, p.config.Format),
		Changed: HasChanged(previous, colors),
	}

	p.logger.Debug("pipeline complete", "mode", p.config.Mode, "format", p.config.Format, "payload", result.Payload, "changed", result.Changed)

	return result, nil
}

// Run is a convenience wrapper that builds a Pipeline for cfg and runs it once.
func Run(pixels []colour.RGB, cfg Config, previous []colour.HSV) (*Result, error) {
	p, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return p.Run(pixels, previous)
}
