package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/desktopdye/desktopdye/internal/capture"
	"github.com/desktopdye/desktopdye/internal/colour"
	"github.com/desktopdye/desktopdye/internal/image"
	"github.com/desktopdye/desktopdye/internal/pipeline"
)

// pipelineFlags holds the pipeline settings shared by extract and replay.
type pipelineFlags struct {
	colours    int
	algorithm  string
	mode       string
	hueShift   float64
	format     string
	brightness float64
	downscale  int
	preview    bool
	json       bool
	output     string
}

var (
	extractFlags pipelineFlags
	replayFlags  pipelineFlags
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract <image>",
	Short: "Run the colour pipeline over an image",
	Long: `Run the colour pipeline over an image file or URL and print the resulting
colours and payload, without contacting Home Assistant.

Supported image formats: JPEG, PNG, GIF, WebP

Examples:
  # Extract 3 colours (default) from an image
  desktopdye extract wallpaper.jpg

  # Extract 5 colours with swatches
  desktopdye extract --preview --colours 5 wallpaper.png

  # Fan the dominant colour out over 60 degrees in HSB format
  desktopdye extract -m hue_shift --hue-shift 60 -f hsb wallpaper.jpg

  # Save the payload to a file
  desktopdye extract -o payload.txt wallpaper.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

// replayCmd represents the replay command
var replayCmd = &cobra.Command{
	Use:   "replay <frame>",
	Short: "Run the colour pipeline over a recorded frame",
	Long: `Run the colour pipeline over a frame recorded with 'desktopdye capture'.
Useful for tuning the mode and format settings against a known screen.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	addPipelineFlags(extractCmd, &extractFlags)
	addPipelineFlags(replayCmd, &replayFlags)
}

func addPipelineFlags(cmd *cobra.Command, f *pipelineFlags) {
	defaults := pipeline.DefaultConfig()

	cmd.Flags().IntVarP(&f.colours, "colours", "c", defaults.SampleSize,
		fmt.Sprintf("number of colours to extract (%d-%d)", colour.MinSampleSize, colour.MaxSampleSize))
	cmd.Flags().StringVarP(&f.algorithm, "algorithm", "a", string(defaults.Algorithm),
		fmt.Sprintf("extraction algorithm %v", colour.ValidAlgorithms()))
	cmd.Flags().StringVarP(&f.mode, "mode", "m", string(defaults.Mode),
		fmt.Sprintf("colour selection mode %v", pipeline.ValidModes()))
	cmd.Flags().Float64Var(&f.hueShift, "hue-shift", defaults.HueShift, "hue range in degrees for the hue_shift mode")
	cmd.Flags().StringVarP(&f.format, "format", "f", string(defaults.Format),
		fmt.Sprintf("payload format %v", pipeline.ValidFormats()))
	cmd.Flags().Float64Var(&f.brightness, "brightness", defaults.BrightnessFactor, "brightness multiplier")
	cmd.Flags().IntVar(&f.downscale, "downscale", 320, "resize wider images or frames to this width before sampling (0 disables)")
	cmd.Flags().BoolVar(&f.preview, "preview", false, "show colour swatches in the terminal")
	cmd.Flags().BoolVar(&f.json, "json", false, "print the extracted palette as JSON")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "write the payload to a file")
}

// pipelineConfig validates the flags and converts them to a pipeline config.
func (f *pipelineFlags) pipelineConfig() (pipeline.Config, error) {
	alg, err := colour.ParseAlgorithm(f.algorithm)
	if err != nil {
		return pipeline.Config{}, err
	}

	ec := colour.ExtractorConfig{Algorithm: alg, SampleSize: f.colours}
	if err := ec.Validate(); err != nil {
		return pipeline.Config{}, err
	}

	mode, err := pipeline.ParseMode(f.mode)
	if err != nil {
		return pipeline.Config{}, err
	}

	format, err := pipeline.ParseFormat(f.format)
	if err != nil {
		return pipeline.Config{}, err
	}

	if f.brightness < 0 {
		return pipeline.Config{}, fmt.Errorf("brightness must not be negative, got %v", f.brightness)
	}

	return pipeline.Config{
		SampleSize:       ec.SampleSize,
		Algorithm:        alg,
		Mode:             mode,
		HueShift:         f.hueShift,
		Format:           format,
		BrightnessFactor: f.brightness,
	}, nil
}

// runExtract executes the extract command.
func runExtract(cmd *cobra.Command, args []string) error {
	imagePath := args[0]
	logger := newLogger(cmd.ErrOrStderr())

	if err := image.ValidateImagePath(imagePath); err != nil {
		return fmt.Errorf("invalid image path: %w", err)
	}

	cfg, err := extractFlags.pipelineConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Debug("loading image", "path", imagePath)
	img, err := image.NewSmartLoader().Load(cmd.Context(), imagePath)
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}

	bounds := img.Bounds()
	logger.Debug("image loaded", "width", bounds.Dx(), "height", bounds.Dy())

	pixels := colour.PixelsFromImage(image.Downscale(img, extractFlags.downscale))
	return runPipeline(cmd, &extractFlags, cfg, pixels)
}

// runReplay executes the replay command.
func runReplay(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd.ErrOrStderr())

	cfg, err := replayFlags.pipelineConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	frame, err := capture.LoadFrame(args[0])
	if err != nil {
		return fmt.Errorf("failed to load frame: %w", err)
	}
	logger.Debug("frame loaded", "path", args[0], "width", frame.Width, "height", frame.Height)

	pixels, err := capture.NewFrameCapturer(frame, replayFlags.downscale).Capture(cmd.Context())
	if err != nil {
		return err
	}
	return runPipeline(cmd, &replayFlags, cfg, pixels)
}

func runPipeline(cmd *cobra.Command, f *pipelineFlags, cfg pipeline.Config, pixels []colour.RGB) error {
	logger := newLogger(cmd.ErrOrStderr())

	p, err := pipeline.New(cfg, pipeline.WithLogger(logger))
	if err != nil {
		return err
	}

	result, err := p.Run(pixels, nil)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if f.json {
		data, err := result.Palette.ToJSON()
		if err != nil {
			return fmt.Errorf("failed to convert to JSON: %w", err)
		}
		fmt.Fprintln(out, string(data))
	} else {
		printResult(out, result, cfg.Format, f.preview)
	}

	if f.output != "" {
		logger.Debug("writing payload", "path", f.output)
		if err := os.WriteFile(f.output, []byte(result.Payload+"\n"), 0o644); err != nil { // #nosec G306 - payload is not sensitive
			return fmt.Errorf("failed to write output file: %w", err)
		}
	}

	return nil
}
