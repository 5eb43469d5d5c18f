// Package config loads howaway settings from defaults, an optional
// howaway.yaml and HOWAWAY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/el-hoshino/HowAwayAreYou/pkg/geometry"
)

// Capture source kinds
const (
	SourceReplay = "replay"
	SourceWebcam = "webcam"
)

// Config holds all runtime settings
type Config struct {
	LogLevel string `mapstructure:"logLevel"`

	Server struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`

	Capture struct {
		Source   string        `mapstructure:"source"`
		Session  string        `mapstructure:"session"`
		Device   int           `mapstructure:"device"`
		Interval time.Duration `mapstructure:"interval"`
		Quality  int           `mapstructure:"quality"`
		Loop     bool          `mapstructure:"loop"`
	} `mapstructure:"capture"`

	Detector struct {
		Model      string  `mapstructure:"model"`
		Confidence float64 `mapstructure:"confidence"`
	} `mapstructure:"detector"`

	Pipeline struct {
		Orientation       string `mapstructure:"orientation"`
		MonocularFallback bool   `mapstructure:"monocularFallback"`
	} `mapstructure:"pipeline"`
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logLevel", "info")

	v.SetDefault("server.port", "8080")

	v.SetDefault("capture.source", SourceReplay)
	v.SetDefault("capture.session", "session.yaml")
	v.SetDefault("capture.device", 0)
	v.SetDefault("capture.interval", 66*time.Millisecond)
	v.SetDefault("capture.quality", 80)
	v.SetDefault("capture.loop", false)

	v.SetDefault("detector.model", "models/face_detection_yunet.onnx")
	v.SetDefault("detector.confidence", 0.5)

	v.SetDefault("pipeline.orientation", "right")
	v.SetDefault("pipeline.monocularFallback", true)
}

// Load reads howaway.yaml from configDir (if present) over the defaults.
// An empty configDir skips the file and uses defaults and environment only.
func Load(configDir string) (Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix("HOWAWAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configDir != "" {
		v.SetConfigName("howaway")
		v.SetConfigType("yaml")
		v.AddConfigPath(configDir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later at startup
func (c Config) Validate() error {
	if c.Capture.Source != SourceReplay && c.Capture.Source != SourceWebcam {
		return fmt.Errorf("config: capture.source must be %s or %s, got %q",
			SourceReplay, SourceWebcam, c.Capture.Source)
	}
	if c.Capture.Interval <= 0 {
		return fmt.Errorf("config: capture.interval must be positive, got %v", c.Capture.Interval)
	}
	if c.Capture.Quality < 1 || c.Capture.Quality > 100 {
		return fmt.Errorf("config: capture.quality must be between 1 and 100, got %d", c.Capture.Quality)
	}
	if c.Detector.Confidence <= 0 || c.Detector.Confidence > 1 {
		return fmt.Errorf("config: detector.confidence must be in (0, 1], got %v", c.Detector.Confidence)
	}
	if _, err := geometry.ParseOrientation(c.Pipeline.Orientation); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Orientation returns the parsed pipeline orientation
func (c Config) Orientation() geometry.Orientation {
	o, _ := geometry.ParseOrientation(c.Pipeline.Orientation)
	return o
}
