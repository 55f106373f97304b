// Package config loads and validates the desktopdye configuration file.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/desktopdye/desktopdye/internal/colour"
	"github.com/desktopdye/desktopdye/internal/homeassistant"
	"github.com/desktopdye/desktopdye/internal/pipeline"
	"github.com/desktopdye/desktopdye/internal/security"
)

const (
	// DirName is the configuration directory inside the home directory.
	DirName = ".desktop_dye"

	// FileName is the configuration file name.
	FileName = "config.yaml"

	// EnvFileName is the optional dotenv file read from the config directory.
	EnvFileName = ".env"
)

// Environment variables that override file values.
const (
	EnvEndpoint = "DESKTOPDYE_HA_ENDPOINT"
	EnvToken    = "DESKTOPDYE_HA_TOKEN"
	EnvEntityID = "DESKTOPDYE_HA_ENTITY_ID"
	EnvScreenID = "DESKTOPDYE_SCREEN_ID"
)

// Defaults for optional keys.
const (
	DefaultCaptureInterval = 3.0
	DefaultDownscaleWidth  = 320
)

//go:embed default_config.yaml
var defaultConfig []byte

// ErrNotFound is returned by Load when the configuration file is missing.
var ErrNotFound = errors.New("config file does not exist")

// ErrAlreadyExists is returned by CreateDefault when a file is in the way.
var ErrAlreadyExists = errors.New("config file already exists")

// Config is a validated configuration.
type Config struct {
	// ScreenID is the display index, nil for the primary display.
	ScreenID *int

	HAEndpoint       string
	HAToken          string
	HATargetEntityID string

	SampleSize       int
	Algorithm        colour.Algorithm
	CaptureInterval  float64
	Mode             pipeline.Mode
	HueShift         float64
	ColorFormat      pipeline.Format
	BrightnessFactor float64
	DownscaleWidth   int
	BroadcastAddr    string
}

// fileConfig mirrors the YAML file. Pointers distinguish missing keys from
// zero values.
type fileConfig struct {
	ScreenID         *int     `yaml:"screen_id"`
	HAEndpoint       *string  `yaml:"ha_endpoint"`
	HAToken          *string  `yaml:"ha_token"`
	HATargetEntityID *string  `yaml:"ha_target_entity_id"`
	SampleSize       *int     `yaml:"sample_size"`
	Algorithm        *string  `yaml:"algorithm"`
	CaptureInterval  *float64 `yaml:"capture_interval"`
	Mode             *string  `yaml:"mode"`
	HueShift         *float64 `yaml:"hue_shift"`
	ColorFormat      *string  `yaml:"color_format"`
	BrightnessFactor *float64 `yaml:"brightness_factor"`
	DownscaleWidth   *int     `yaml:"downscale_width"`
	BroadcastAddr    *string  `yaml:"broadcast_addr"`
}

// ValidationError lists every problem found in a configuration.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	lines := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		lines[i] = "  - " + p
	}
	return "config file is invalid. Please fix the following errors:\n" + strings.Join(lines, "\n")
}

func (e *ValidationError) add(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// DefaultPath returns ~/.desktop_dye/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, DirName, FileName), nil
}

// Exists reports whether a file exists at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// DefaultContents returns the commented default configuration file.
func DefaultContents() []byte {
	out := make([]byte, len(defaultConfig))
	copy(out, defaultConfig)
	return out
}

// CreateDefault writes the default configuration file to path. It never
// overwrites an existing file.
func CreateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { // #nosec G301 - user config directory
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, defaultConfig, 0o600); err != nil {
		return fmt.Errorf("failed to write default config file: %w", err)
	}
	return nil
}

// Load reads the configuration at path, applies a .env file from the same
// directory and environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 - User config file, intended to be read
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	envPath := filepath.Join(filepath.Dir(path), EnvFileName)
	if Exists(envPath) {
		// Variables already set in the environment take precedence.
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", envPath, err)
		}
	}

	return Parse(data)
}

// Parse decodes and validates YAML configuration data, applying environment
// overrides.
func Parse(data []byte) (*Config, error) {
	var raw fileConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	verr := &ValidationError{}
	applyEnv(&raw, verr)

	cfg := build(&raw, verr)
	if len(verr.Problems) > 0 {
		return nil, verr
	}
	return cfg, nil
}

func applyEnv(raw *fileConfig, verr *ValidationError) {
	if v, ok := os.LookupEnv(EnvEndpoint); ok && v != "" {
		raw.HAEndpoint = &v
	}
	if v, ok := os.LookupEnv(EnvToken); ok && v != "" {
		raw.HAToken = &v
	}
	if v, ok := os.LookupEnv(EnvEntityID); ok && v != "" {
		raw.HATargetEntityID = &v
	}
	if v, ok := os.LookupEnv(EnvScreenID); ok && v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			verr.add("%s must be an integer. Found %q", EnvScreenID, v)
			return
		}
		raw.ScreenID = &id
	}
}

func build(raw *fileConfig, verr *ValidationError) *Config {
	cfg := &Config{
		ScreenID:         raw.ScreenID,
		SampleSize:       3,
		Algorithm:        colour.AlgorithmQuantization,
		CaptureInterval:  DefaultCaptureInterval,
		Mode:             pipeline.ModeDefault,
		HueShift:         45.0,
		ColorFormat:      pipeline.FormatRGB,
		BrightnessFactor: 1.0,
		DownscaleWidth:   DefaultDownscaleWidth,
	}

	if raw.ScreenID != nil && *raw.ScreenID < 0 {
		verr.add("Screen id must not be negative. Found %d", *raw.ScreenID)
	}

	if raw.HAEndpoint == nil || *raw.HAEndpoint == "" {
		verr.add("Missing Home Assistant endpoint in config file")
	} else {
		cfg.HAEndpoint = *raw.HAEndpoint
		if err := security.ValidateEndpoint(cfg.HAEndpoint); err != nil {
			verr.add("Home Assistant endpoint is invalid: %v. Found %q", err, cfg.HAEndpoint)
		}
	}

	if raw.HAToken == nil || *raw.HAToken == "" {
		verr.add("Missing Home Assistant token in config file")
	} else {
		cfg.HAToken = *raw.HAToken
	}

	if raw.HATargetEntityID == nil || *raw.HATargetEntityID == "" {
		verr.add("Missing Home Assistant target entity ID in config file")
	} else {
		cfg.HATargetEntityID = *raw.HATargetEntityID
		if err := security.ValidateEntityID(cfg.HATargetEntityID); err != nil {
			verr.add("Home Assistant target entity ID is invalid: %v", err)
		}
	}

	if raw.SampleSize != nil {
		cfg.SampleSize = *raw.SampleSize
		if cfg.SampleSize < colour.MinSampleSize || cfg.SampleSize > colour.MaxSampleSize {
			verr.add("Sample size must be between %d and %d. Found %d", colour.MinSampleSize, colour.MaxSampleSize, cfg.SampleSize)
		}
	}

	if raw.Algorithm != nil {
		alg, err := colour.ParseAlgorithm(*raw.Algorithm)
		if err != nil {
			verr.add("Algorithm is invalid: %v", err)
		}
		cfg.Algorithm = alg
	}

	if raw.CaptureInterval != nil {
		cfg.CaptureInterval = *raw.CaptureInterval
		switch {
		case math.IsNaN(cfg.CaptureInterval) || cfg.CaptureInterval <= 0:
			verr.add("Capture interval must be greater than 0. Found %v", cfg.CaptureInterval)
		case math.IsInf(cfg.CaptureInterval, 0) || cfg.CaptureInterval > math.MaxInt64/float64(time.Second):
			verr.add("Capture interval invalid. Cannot wait for the number of seconds provided. Found %v", cfg.CaptureInterval)
		}
	}

	if raw.Mode != nil {
		mode, err := pipeline.ParseMode(*raw.Mode)
		if err != nil {
			verr.add("Mode is invalid: %v", err)
		}
		cfg.Mode = mode
	}

	if raw.HueShift != nil {
		cfg.HueShift = *raw.HueShift
		if math.IsNaN(cfg.HueShift) || math.IsInf(cfg.HueShift, 0) {
			verr.add("Hue shift must be a finite number. Found %v", cfg.HueShift)
		}
	}

	if raw.ColorFormat != nil {
		format, err := pipeline.ParseFormat(*raw.ColorFormat)
		if err != nil {
			verr.add("Color format is invalid: %v", err)
		}
		cfg.ColorFormat = format
	}

	if raw.BrightnessFactor != nil {
		cfg.BrightnessFactor = *raw.BrightnessFactor
		if math.IsNaN(cfg.BrightnessFactor) || cfg.BrightnessFactor < 0 {
			verr.add("Brightness factor must not be negative. Found %v", cfg.BrightnessFactor)
		}
	}

	if raw.DownscaleWidth != nil {
		cfg.DownscaleWidth = *raw.DownscaleWidth
		if cfg.DownscaleWidth < 0 {
			verr.add("Downscale width must not be negative. Found %d", cfg.DownscaleWidth)
		}
	}

	if raw.BroadcastAddr != nil {
		cfg.BroadcastAddr = *raw.BroadcastAddr
	}

	return cfg
}

// Display returns the display index to capture.
func (c *Config) Display() int {
	if c.ScreenID == nil {
		return 0
	}
	return *c.ScreenID
}

// Interval returns the capture interval as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.CaptureInterval * float64(time.Second))
}

// PipelineConfig returns the pipeline settings.
func (c *Config) PipelineConfig() pipeline.Config {
	return pipeline.Config{
		SampleSize:       c.SampleSize,
		Algorithm:        c.Algorithm,
		Mode:             c.Mode,
		HueShift:         c.HueShift,
		Format:           c.ColorFormat,
		BrightnessFactor: c.BrightnessFactor,
	}
}

// HomeAssistant returns the client settings.
func (c *Config) HomeAssistant() homeassistant.Config {
	return homeassistant.Config{
		Endpoint: c.HAEndpoint,
		Token:    c.HAToken,
	}
}
