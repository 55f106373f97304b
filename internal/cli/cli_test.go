package cli

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desktopdye/desktopdye/internal/capture"
	"github.com/desktopdye/desktopdye/internal/colour"
	"github.com/desktopdye/desktopdye/internal/pipeline"
)

// executeCommand runs the root command with args and returns stdout.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	stdout, _, err := executeCommandOutput(t, args...)
	return stdout, err
}

// executeCommandOutput runs the root command with args and returns stdout
// and stderr.
func executeCommandOutput(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	t.Cleanup(func() {
		globalConfig = ""
		globalVerbose = false
		globalQuiet = false
		configCheckOffline = false
		globalNoColor = false
		colour.DisableColourOutput = false
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	if err != nil {
		t.Logf("stderr: %s", stderr.String())
	}
	return stdout.String(), stderr.String(), err
}

func writeSolidPNG(t *testing.T, c color.RGBA) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, c)
		}
	}

	path := filepath.Join(t.TempDir(), "solid.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFormatColours(t *testing.T) {
	colors := []colour.HSV{{H: 0, S: 1, V: 1}, {H: 240, S: 1, V: 1}}

	tests := []struct {
		format pipeline.Format
		want   string
	}{
		{pipeline.FormatRGB, " 1. #ff0000  RGB(255, 0, 0)\n 2. #0000ff  RGB(0, 0, 255)\n"},
		{pipeline.FormatRGBB, " 1. #ff0000  RGBB(255,0,0,100)\n 2. #0000ff  RGBB(0,0,255,100)\n"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			if got := formatColours(colors, tt.format, false); got != tt.want {
				t.Errorf("formatColours() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}

	swatched := formatColours(colors[:1], pipeline.FormatRGB, true)
	if !strings.Contains(swatched, "\x1b[") || !strings.Contains(swatched, "#ff0000") {
		t.Errorf("swatch output = %q, want ANSI escape around the hex code", swatched)
	}
}

func TestPipelineFlags(t *testing.T) {
	valid := pipelineFlags{
		colours:    3,
		algorithm:  "quantization",
		mode:       "default",
		hueShift:   45,
		format:     "rgb",
		brightness: 1,
	}

	tests := []struct {
		name    string
		modify  func(f *pipelineFlags)
		wantErr bool
	}{
		{"defaults", func(*pipelineFlags) {}, false},
		{"kmeans alias", func(f *pipelineFlags) { f.algorithm = "pigmnts" }, false},
		{"hsb format", func(f *pipelineFlags) { f.format = "hsb" }, false},
		{"too many colours", func(f *pipelineFlags) { f.colours = 11 }, true},
		{"no colours", func(f *pipelineFlags) { f.colours = 0 }, true},
		{"unknown algorithm", func(f *pipelineFlags) { f.algorithm = "magic" }, true},
		{"unknown mode", func(f *pipelineFlags) { f.mode = "rainbow" }, true},
		{"unknown format", func(f *pipelineFlags) { f.format = "cmyk" }, true},
		{"negative brightness", func(f *pipelineFlags) { f.brightness = -0.5 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid
			tt.modify(&f)

			cfg, err := f.pipelineConfig()
			if (err != nil) != tt.wantErr {
				t.Fatalf("pipelineConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && cfg.SampleSize != f.colours {
				t.Errorf("SampleSize = %d, want %d", cfg.SampleSize, f.colours)
			}
		})
	}
}

func TestExtractCommand(t *testing.T) {
	imgPath := writeSolidPNG(t, color.RGBA{R: 255, A: 255})
	outPath := filepath.Join(t.TempDir(), "payload.txt")

	stdout, err := executeCommand(t, "extract", "-q", "-c", "1", "-a", "quantization", "-m", "default", "-f", "rgb", "--brightness", "1", "-o", outPath, imgPath)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	if !strings.Contains(stdout, "payload: 255,0,0") {
		t.Errorf("stdout = %q, want red payload", stdout)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(data); got != "255,0,0\n" {
		t.Errorf("payload file = %q, want %q", got, "255,0,0\n")
	}
}

func TestExtractCommandRejectsBadInput(t *testing.T) {
	if _, err := executeCommand(t, "extract", "-q", filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("expected error for missing image")
	}

	imgPath := writeSolidPNG(t, color.RGBA{B: 255, A: 255})
	if _, err := executeCommand(t, "extract", "-q", "-c", "1", "-f", "xyz", imgPath); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestReplayCommand(t *testing.T) {
	frame := &capture.Frame{Width: 2, Height: 2, Pixels: []colour.RGB{
		{R: 0, G: 0, B: 255}, {R: 0, G: 0, B: 255},
		{R: 0, G: 0, B: 255}, {R: 0, G: 0, B: 255},
	}}
	path := filepath.Join(t.TempDir(), "blue.ddf")
	if err := capture.SaveFrame(path, frame); err != nil {
		t.Fatal(err)
	}

	stdout, err := executeCommand(t, "replay", "-q", "-c", "1", "-a", "quantization", "-m", "default", "-f", "hsb", path)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if !strings.Contains(stdout, "payload: 240,100,100") {
		t.Errorf("stdout = %q, want blue hsb payload", stdout)
	}
}

func TestReplayCommandDownscale(t *testing.T) {
	pixels := make([]colour.RGB, 8*4)
	for i := range pixels {
		pixels[i] = colour.RGB{G: 255}
	}
	path := filepath.Join(t.TempDir(), "wide.ddf")
	if err := capture.SaveFrame(path, &capture.Frame{Width: 8, Height: 4, Pixels: pixels}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		downscale string
		want      string
	}{
		{"full frame", "0", "pixels=32"},
		{"downscaled", "2", "pixels=2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr, err := executeCommandOutput(t, "replay", "-v", "-c", "1", "-a", "quantization",
				"-m", "default", "-f", "rgb", "--downscale", tt.downscale, path)
			if err != nil {
				t.Fatalf("replay failed: %v", err)
			}
			if !strings.Contains(stderr, tt.want) {
				t.Errorf("stderr = %q, want sample count %q", stderr, tt.want)
			}
			if !strings.Contains(stdout, "payload: 0,255,0") {
				t.Errorf("stdout = %q, want green payload", stdout)
			}
		})
	}
}

func TestNoColorFlag(t *testing.T) {
	if _, err := executeCommand(t, "--no-color", "config", "path"); err != nil {
		t.Fatal(err)
	}
	if !colour.DisableColourOutput {
		t.Error("--no-color should disable colour output")
	}
	if useColour(os.Stdout) {
		t.Error("useColour() = true with --no-color")
	}
}

func TestConfigCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	stdout, err := executeCommand(t, "--config", path, "config", "path")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(stdout) != path {
		t.Errorf("config path = %q, want %q", stdout, path)
	}

	if _, err := executeCommand(t, "--config", path, "config", "init"); err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not created: %v", err)
	}

	if _, err := executeCommand(t, "--config", path, "config", "init"); err == nil {
		t.Error("second config init should refuse to overwrite")
	}

	// The template needs editing before it validates.
	if _, err := executeCommand(t, "--config", path, "config", "check", "--offline"); err == nil {
		t.Error("config check should fail on the unedited template")
	}
}

func TestConfigCheckOnline(t *testing.T) {
	ha := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/api/":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"message":"API running."}`))
		case "/api/config":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"2025.6.0","location_name":"Home"}`))
		case "/api/services":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"domain":"input_text","services":{"set_value":{}}}]`))
		case "/api/states/input_text.desktop_dye":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"entity_id":"input_text.desktop_dye","state":"255,0,0"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ha.Close()

	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := "ha_endpoint: " + ha.URL + "\nha_token: secret\nha_target_entity_id: input_text.desktop_dye\n"
	if err := os.WriteFile(path, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}

	stdout, err := executeCommand(t, "-q", "--config", path, "config", "check")
	if err != nil {
		t.Fatalf("config check failed: %v", err)
	}
	for _, want := range []string{"is valid", ": ok", "version: 2025.6.0", `"255,0,0"`} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout = %q, missing %q", stdout, want)
		}
	}
	if strings.Contains(stdout, "Warning") {
		t.Errorf("unexpected warning in %q", stdout)
	}
}
