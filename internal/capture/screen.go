// Package capture grabs screen contents and turns them into pixel samples.
package capture

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/hashicorp/go-hclog"
	"github.com/kbinani/screenshot"

	"github.com/desktopdye/desktopdye/internal/colour"
	imgutil "github.com/desktopdye/desktopdye/internal/image"
)

// ErrNoDisplays is returned when the system reports no active displays.
var ErrNoDisplays = errors.New("no active displays found")

// ErrInvalidDisplay is returned for a display index with no active display.
var ErrInvalidDisplay = errors.New("invalid display")

// Capturer produces the pixel samples for one cycle.
type Capturer interface {
	Capture(ctx context.Context) ([]colour.RGB, error)
}

// Display describes an active display.
type Display struct {
	Index   int             `json:"index"`
	Bounds  image.Rectangle `json:"bounds"`
	Primary bool            `json:"primary"`
}

// Width returns the display width in pixels.
func (d Display) Width() int { return d.Bounds.Dx() }

// Height returns the display height in pixels.
func (d Display) Height() int { return d.Bounds.Dy() }

// ListDisplays returns every active display. Display 0 is the primary one.
func ListDisplays() ([]Display, error) {
	n := screenshot.NumActiveDisplays()
	if n <= 0 {
		return nil, ErrNoDisplays
	}

	displays := make([]Display, n)
	for i := range displays {
		displays[i] = Display{
			Index:   i,
			Bounds:  screenshot.GetDisplayBounds(i),
			Primary: i == 0,
		}
	}
	return displays, nil
}

// ScreenCapturer captures a single display.
type ScreenCapturer struct {
	// Display is the display index.
	Display int

	// DownscaleWidth resizes captures wider than this many pixels before
	// sampling. Zero keeps the full resolution.
	DownscaleWidth int

	logger hclog.Logger
}

// NewScreenCapturer creates a capturer for the given display. The display
// index is checked against the active displays.
func NewScreenCapturer(display, downscaleWidth int, logger hclog.Logger) (*ScreenCapturer, error) {
	displays, err := ListDisplays()
	if err != nil {
		return nil, err
	}
	if err := checkDisplayIndex(display, len(displays)); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &ScreenCapturer{
		Display:        display,
		DownscaleWidth: downscaleWidth,
		logger:         logger.Named("capture"),
	}, nil
}

// checkDisplayIndex reports whether display addresses one of count displays.
func checkDisplayIndex(display, count int) error {
	if display < 0 || display >= count {
		return fmt.Errorf("%w: failed to find screen with id %d (%d displays available)", ErrInvalidDisplay, display, count)
	}
	return nil
}

// CaptureImage captures the display, downscaled when configured.
func (c *ScreenCapturer) CaptureImage(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := screenshot.CaptureDisplay(c.Display)
	if err != nil {
		return nil, fmt.Errorf("failed to capture display %d: %w", c.Display, err)
	}

	bounds := img.Bounds()
	scaled := imgutil.Downscale(img, c.DownscaleWidth)
	c.logger.Debug("captured display", "display", c.Display,
		"width", bounds.Dx(), "height", bounds.Dy(),
		"sample_width", scaled.Bounds().Dx(), "sample_height", scaled.Bounds().Dy())

	return scaled, nil
}

// Capture implements Capturer.
func (c *ScreenCapturer) Capture(ctx context.Context) ([]colour.RGB, error) {
	img, err := c.CaptureImage(ctx)
	if err != nil {
		return nil, err
	}
	return colour.PixelsFromImage(img), nil
}
