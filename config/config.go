package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/maskedsyntax/pypixl/common"
	"github.com/maskedsyntax/pypixl/logging"
	"github.com/maskedsyntax/pypixl/resolution"
)

const (
	// MinDeviceIndex and MaxDeviceIndex bound the selectable camera slots
	MinDeviceIndex = 0
	MaxDeviceIndex = 4
)

// Config holds the application configuration
type Config struct {
	DeviceIndex       int    `json:"device_index"`
	CaptureResolution string `json:"capture_resolution"` // Requested from the camera, e.g. "720p" or "1280x720"
	CaptureCodec      string `json:"capture_codec"`      // Preferred four-character code; falls back to MJPG
	FilePrefix        string `json:"file_prefix"`        // Recordings and snapshots are named <prefix>_<timestamp>
	VideoDirectory    string `json:"video_directory"`    // Empty means the user's videos directory
	PictureDirectory  string `json:"picture_directory"`  // Empty means the user's pictures directory
	LogLevel          string `json:"log_level"`
	LogDirectory      string `json:"log_directory"`
	Headless          bool   `json:"headless"`
	RecordSeconds     int    `json:"record_seconds"`     // Headless only: record this long, then exit
	DriftToleranceMs  int    `json:"drift_tolerance_ms"` // Accepted playback drift when inspecting finished recordings
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		DeviceIndex:       0,
		CaptureResolution: "720p",
		CaptureCodec:      common.PrimaryCodec,
		FilePrefix:        "PyPixl",
		LogLevel:          string(logging.LogLevelInfo),
		LogDirectory:      "logs",
		DriftToleranceMs:  250,
	}
}

// LoadConfig loads configuration from a JSON file. An empty filename yields the
// defaults; nothing is ever written back to disk.
func LoadConfig(filename string) (*Config, error) {
	config := Default()
	if filename == "" {
		return config, nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults for values cleared in the file
	defaults := Default()
	if config.CaptureResolution == "" {
		config.CaptureResolution = defaults.CaptureResolution
	}
	if config.CaptureCodec == "" {
		config.CaptureCodec = defaults.CaptureCodec
	}
	if config.FilePrefix == "" {
		config.FilePrefix = defaults.FilePrefix
	}
	if config.LogLevel == "" {
		config.LogLevel = defaults.LogLevel
	}
	if config.LogDirectory == "" {
		config.LogDirectory = defaults.LogDirectory
	}

	return config, nil
}

// ConfigOverrides holds potential override values for configuration
type ConfigOverrides struct {
	DeviceIndex       *int
	CaptureResolution *string
	CaptureCodec      *string
	FilePrefix        *string
	VideoDirectory    *string
	PictureDirectory  *string
	LogLevel          *string
	LogDirectory      *string
	Headless          *bool
	RecordDuration    *time.Duration
}

// Override applies every override that is set. Negative device indexes and
// empty strings mean "not set".
func (c *Config) Override(overrides ConfigOverrides) {
	if overrides.DeviceIndex != nil && *overrides.DeviceIndex >= 0 {
		c.DeviceIndex = *overrides.DeviceIndex
	}
	if overrides.CaptureResolution != nil && *overrides.CaptureResolution != "" {
		c.CaptureResolution = *overrides.CaptureResolution
	}
	if overrides.CaptureCodec != nil && *overrides.CaptureCodec != "" {
		c.CaptureCodec = *overrides.CaptureCodec
	}
	if overrides.FilePrefix != nil && *overrides.FilePrefix != "" {
		c.FilePrefix = *overrides.FilePrefix
	}
	if overrides.VideoDirectory != nil && *overrides.VideoDirectory != "" {
		c.VideoDirectory = *overrides.VideoDirectory
	}
	if overrides.PictureDirectory != nil && *overrides.PictureDirectory != "" {
		c.PictureDirectory = *overrides.PictureDirectory
	}
	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		c.LogLevel = *overrides.LogLevel
	}
	if overrides.LogDirectory != nil && *overrides.LogDirectory != "" {
		c.LogDirectory = *overrides.LogDirectory
	}
	if overrides.Headless != nil && *overrides.Headless {
		c.Headless = true
	}
	if overrides.RecordDuration != nil && *overrides.RecordDuration > 0 {
		c.RecordSeconds = int(overrides.RecordDuration.Round(time.Second) / time.Second)
	}
}

// Validate checks the configuration for values the capture loop cannot use
func (c *Config) Validate() error {
	if c.DeviceIndex < MinDeviceIndex || c.DeviceIndex > MaxDeviceIndex {
		return fmt.Errorf("device index %d out of range [%d, %d]", c.DeviceIndex, MinDeviceIndex, MaxDeviceIndex)
	}
	if _, err := resolution.Parse(c.CaptureResolution); err != nil {
		return fmt.Errorf("invalid capture resolution: %w", err)
	}
	if err := common.ValidateCodec(c.CaptureCodec); err != nil {
		return fmt.Errorf("invalid capture codec: %w", err)
	}
	if c.FilePrefix == "" {
		return fmt.Errorf("file prefix must not be empty")
	}
	if _, err := logging.ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if c.RecordSeconds < 0 {
		return fmt.Errorf("record duration must not be negative")
	}
	if c.DriftToleranceMs < 0 {
		return fmt.Errorf("drift tolerance must not be negative")
	}
	return nil
}

// Resolution returns the parsed capture resolution, or the default on error
func (c *Config) Resolution() resolution.Resolution {
	res, err := resolution.Parse(c.CaptureResolution)
	if err != nil {
		return resolution.Default
	}
	return res
}

// RecordDuration returns the headless recording length, zero meaning "until interrupted"
func (c *Config) RecordDuration() time.Duration {
	return time.Duration(c.RecordSeconds) * time.Second
}
