package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/desktopdye/desktopdye/internal/capture"
)

var (
	// Capture command flags
	captureDisplay   int
	captureDownscale int
	captureOutput    string
)

// screensCmd represents the screens command
var screensCmd = &cobra.Command{
	Use:   "screens",
	Short: "List the displays that can be captured",
	Long: `List the active displays. The index in the first column is the value to
use for screen_id in the config file.`,
	Args: cobra.NoArgs,
	RunE: runScreens,
}

// captureCmd represents the capture command
var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Record a display to a frame file",
	Long: `Capture a display once and store the downscaled pixels as an xz compressed
frame file. Frames can be fed back through the pipeline with
'desktopdye replay'.

Examples:
  # Record the primary display
  desktopdye capture -o desk.ddf

  # Record the second display at full resolution
  desktopdye capture --display 1 --downscale 0 -o second.ddf`,
	Args: cobra.NoArgs,
	RunE: runCapture,
}

func init() {
	captureCmd.Flags().IntVarP(&captureDisplay, "display", "d", 0, "display index (see 'desktopdye screens')")
	captureCmd.Flags().IntVar(&captureDownscale, "downscale", 320, "resize to this width before saving (0 disables)")
	captureCmd.Flags().StringVarP(&captureOutput, "output", "o", "frame.ddf", "frame file to write")
}

// runScreens executes the screens command.
func runScreens(cmd *cobra.Command, _ []string) error {
	displays, err := capture.ListDisplays()
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), displayTable(displays).Render())
	return nil
}

func displayTable(displays []capture.Display) *Table {
	table := NewTable([]string{"ID", "SIZE", "POSITION", "PRIMARY"})
	table.AlignRight(0)
	for _, d := range displays {
		primary := ""
		if d.Primary {
			primary = "yes"
		}
		table.AddRow([]string{
			strconv.Itoa(d.Index),
			fmt.Sprintf("%dx%d", d.Width(), d.Height()),
			fmt.Sprintf("%d,%d", d.Bounds.Min.X, d.Bounds.Min.Y),
			primary,
		})
	}
	return table
}

// runCapture executes the capture command.
func runCapture(cmd *cobra.Command, _ []string) error {
	logger := newLogger(cmd.ErrOrStderr())

	if captureDownscale < 0 {
		return fmt.Errorf("downscale must not be negative, got %d", captureDownscale)
	}

	capturer, err := capture.NewScreenCapturer(captureDisplay, captureDownscale, logger)
	if err != nil {
		return err
	}

	img, err := capturer.CaptureImage(cmd.Context())
	if err != nil {
		return err
	}

	frame := capture.FrameFromImage(img)
	if err := capture.SaveFrame(captureOutput, frame); err != nil {
		return err
	}

	logger.Info("frame saved", "path", captureOutput, "width", frame.Width, "height", frame.Height)
	return nil
}
