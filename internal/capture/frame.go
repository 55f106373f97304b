package capture

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/ulikunitz/xz"

	"github.com/desktopdye/desktopdye/internal/colour"
	imgutil "github.com/desktopdye/desktopdye/internal/image"
	"github.com/desktopdye/desktopdye/internal/security"
)

// frameMagic identifies a frame file.
var frameMagic = [4]byte{'D', 'D', 'F', '1'}

const (
	frameHeaderSize = 12

	// MaxFramePixels bounds the dimensions accepted when reading a frame.
	MaxFramePixels = 16384 * 16384
)

// ErrInvalidFrame is returned for data that is not a well formed frame.
var ErrInvalidFrame = errors.New("invalid frame")

// Frame is a captured set of pixel samples with the dimensions they were
// taken at.
type Frame struct {
	Width  int
	Height int
	Pixels []colour.RGB
}

// FrameFromImage flattens img into a frame.
func FrameFromImage(img image.Image) *Frame {
	bounds := img.Bounds()
	return &Frame{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Pixels: colour.PixelsFromImage(img),
	}
}

// Image rebuilds an opaque RGBA image from the frame's pixels.
func (f *Frame) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for i, p := range f.Pixels {
		off := i * 4
		img.Pix[off] = p.R
		img.Pix[off+1] = p.G
		img.Pix[off+2] = p.B
		img.Pix[off+3] = 0xff
	}
	return img
}

// Validate checks that the pixel count matches the dimensions.
func (f *Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidFrame, f.Width, f.Height)
	}
	if f.Width*f.Height > MaxFramePixels {
		return fmt.Errorf("%w: %dx%d exceeds the maximum frame size", ErrInvalidFrame, f.Width, f.Height)
	}
	if len(f.Pixels) != f.Width*f.Height {
		return fmt.Errorf("%w: %d pixels for %dx%d", ErrInvalidFrame, len(f.Pixels), f.Width, f.Height)
	}
	return nil
}

// WriteFrame writes f to w as an xz compressed frame.
func WriteFrame(w io.Writer, f *Frame) error {
	if err := f.Validate(); err != nil {
		return err
	}

	xzw, err := xz.NewWriter(w)
	if err != nil {
		return fmt.Errorf("failed to create xz writer: %w", err)
	}

	bw := bufio.NewWriter(xzw)

	var header [frameHeaderSize]byte
	copy(header[:4], frameMagic[:])
	binary.BigEndian.PutUint32(header[4:8], uint32(f.Width))  // #nosec G115 - bounded by Validate
	binary.BigEndian.PutUint32(header[8:12], uint32(f.Height)) // #nosec G115 - bounded by Validate
	if _, err := bw.Write(header[:]); err != nil {
		return fmt.Errorf("failed to write frame header: %w", err)
	}

	var px [3]byte
	for _, p := range f.Pixels {
		px[0], px[1], px[2] = p.R, p.G, p.B
		if _, err := bw.Write(px[:]); err != nil {
			return fmt.Errorf("failed to write frame pixels: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush frame: %w", err)
	}
	if err := xzw.Close(); err != nil {
		return fmt.Errorf("failed to close xz stream: %w", err)
	}
	return nil
}

// ReadFrame reads an xz compressed frame from r.
func ReadFrame(r io.Reader) (*Frame, error) {
	xzr, err := xz.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}

	limited := security.NewLimitedReader(xzr, frameHeaderSize+int64(MaxFramePixels)*3)

	var header [frameHeaderSize]byte
	if _, err := io.ReadFull(limited, header[:]); err != nil {
		return nil, fmt.Errorf("%w: failed to read header: %v", ErrInvalidFrame, err)
	}
	if [4]byte(header[:4]) != frameMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrInvalidFrame, header[:4])
	}

	width := int(binary.BigEndian.Uint32(header[4:8]))
	height := int(binary.BigEndian.Uint32(header[8:12]))
	if width <= 0 || height <= 0 || width > MaxFramePixels/height {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrInvalidFrame, width, height)
	}

	data := make([]byte, width*height*3)
	if _, err := io.ReadFull(limited, data); err != nil {
		return nil, fmt.Errorf("%w: failed to read pixels: %v", ErrInvalidFrame, err)
	}

	pixels := make([]colour.RGB, width*height)
	for i := range pixels {
		pixels[i] = colour.RGB{R: data[i*3], G: data[i*3+1], B: data[i*3+2]}
	}

	return &Frame{Width: width, Height: height, Pixels: pixels}, nil
}

// SaveFrame writes f to path.
func SaveFrame(path string, f *Frame) error {
	out, err := os.Create(path) // #nosec G304 - User-specified output path
	if err != nil {
		return fmt.Errorf("failed to create frame file: %w", err)
	}

	writeErr := WriteFrame(out, f)
	closeErr := out.Close()

	if writeErr != nil {
		return writeErr
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close frame file: %w", closeErr)
	}
	return nil
}

// LoadFrame reads a frame from path.
func LoadFrame(path string) (*Frame, error) {
	in, err := os.Open(path) // #nosec G304 - User-specified frame path, intended to be read
	if err != nil {
		return nil, fmt.Errorf("failed to open frame file: %w", err)
	}
	defer in.Close()

	return ReadFrame(bufio.NewReader(in))
}

// FrameCapturer replays a stored frame on every capture.
type FrameCapturer struct {
	frame *Frame

	// DownscaleWidth resizes frames wider than this many pixels before
	// sampling, as ScreenCapturer does. Zero replays every pixel.
	DownscaleWidth int
}

// NewFrameCapturer creates a Capturer that always returns f's pixels,
// downscaled to downscaleWidth when the frame is wider.
func NewFrameCapturer(f *Frame, downscaleWidth int) *FrameCapturer {
	return &FrameCapturer{frame: f, DownscaleWidth: downscaleWidth}
}

// Capture implements Capturer.
func (c *FrameCapturer) Capture(ctx context.Context) ([]colour.RGB, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.DownscaleWidth > 0 && c.frame.Width > c.DownscaleWidth {
		return colour.PixelsFromImage(imgutil.Downscale(c.frame.Image(), c.DownscaleWidth)), nil
	}
	pixels := make([]colour.RGB, len(c.frame.Pixels))
	copy(pixels, c.frame.Pixels)
	return pixels, nil
}
