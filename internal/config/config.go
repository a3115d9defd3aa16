// Package config loads and validates the YAML settings shared by the
// converter CLI and the watcher service. Every malformed value is rejected
// here, before any telemetry row is touched.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "10s" parse directly.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// LineStyle renders the flight path.
type LineStyle struct {
	Color string  `yaml:"color"`
	Width float64 `yaml:"width"`
}

// PointStyle renders per-fix markers.
type PointStyle struct {
	LabelPoints     bool    `yaml:"label_points"`
	IconScale       float64 `yaml:"icon_scale"`
	IconColor       string  `yaml:"icon_color"`
	InterpIconColor string  `yaml:"interp_icon_color"`
	IconHref        string  `yaml:"icon_href"`
	LabelColor      string  `yaml:"label_color"`
	LabelScale      float64 `yaml:"label_scale"`
}

// PublishConfig controls the optional Kafka sink for sanitized points.
type PublishConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// WatchConfig controls the spool-directory watcher service.
type WatchConfig struct {
	InputDir        string   `yaml:"input_dir"`
	OutputDir       string   `yaml:"output_dir"`
	Interval        Duration `yaml:"interval"`
	HTTPAddr        string   `yaml:"http_addr"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// Config holds all settings.
type Config struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// FieldMappings maps each canonical field name to its candidate source
	// columns, lowest priority first. The list order also drives the
	// positional renaming of duplicate log headers.
	FieldMappings map[string][]string `yaml:"field_mappings"`

	// DisplayedFields pass through to marker metadata, in this order.
	DisplayedFields []string `yaml:"displayed_fields"`

	// Per-axis thresholds in lon, lat, elevation order.
	XYZLimit      []float64 `yaml:"xyzLimit"`
	XYZDeltaLimit []float64 `yaml:"xyzDeltaLimit"`
	XYZRounding   []int     `yaml:"xyzRounding"`

	// ValidSatRange is the inclusive [min, max] accepted satellite count.
	ValidSatRange []int `yaml:"validSatRange"`

	DropDuplicateFixes bool `yaml:"dropDuplicateFixes"`

	// GroundElevation overrides the derived ground reference when set.
	GroundElevation *float64 `yaml:"ground_elevation"`

	LineStyle  LineStyle  `yaml:"line_style"`
	PointStyle PointStyle `yaml:"point_style"`

	Publish PublishConfig `yaml:"publish"`
	Watch   WatchConfig   `yaml:"watch"`
}

// requiredFields are the canonical names the normalizer consumes; their
// mappings must exist or no row could ever become a record.
var requiredFields = []string{"Date", "Time", "Sats", "GPS", "Alt(m)"}

// Default returns the settings for a stock EdgeTX/OpenTX log.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		FieldMappings: map[string][]string{
			"Date":   {"Date"},
			"Time":   {"Time"},
			"Sats":   {"Sats"},
			"GPS":    {"GPS"},
			"Alt(m)": {"GPS Alt(m)", "Vario Alt(m)"},
		},
		DisplayedFields: []string{
			"Date", "Time", "Sats", "Alt(m)",
			"Height above Ground (m)", "RSSI(dB)", "RxBt(V)",
			"Point Description",
		},
		XYZLimit:      []float64{0.1, 0.1, 1000},
		XYZDeltaLimit: []float64{0.001, 0.001, 50},
		XYZRounding:   []int{6, 6, 0},
		ValidSatRange: []int{4, 32},
		LineStyle:     LineStyle{Color: "ff00a5ff", Width: 4},
		PointStyle: PointStyle{
			IconScale:       0.5,
			IconColor:       "ff00ff00",
			InterpIconColor: "ff0000ff",
			IconHref:        "http://maps.google.com/mapfiles/kml/shapes/placemark_circle.png",
			LabelColor:      "ffffffff",
			LabelScale:      0.5,
		},
		Publish: PublishConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   "sanitized-track-points",
		},
		Watch: WatchConfig{
			Interval:        Duration(10 * time.Second),
			HTTPAddr:        ":8080",
			ShutdownTimeout: Duration(10 * time.Second),
		},
	}
}

// Load reads the settings file at path, layering it over the defaults. An
// empty path returns the defaults unchanged. Validation failures abort
// before any telemetry is processed.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read settings: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse settings: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}

	for _, name := range requiredFields {
		if len(c.FieldMappings[name]) == 0 {
			return fmt.Errorf("field_mappings must map %q to at least one source column", name)
		}
	}

	if err := c.validateLimits(); err != nil {
		return err
	}
	if err := c.validateStyles(); err != nil {
		return err
	}

	if c.Publish.Enabled {
		if len(c.Publish.Brokers) == 0 {
			return errors.New("publish.brokers is required when publishing is enabled")
		}
		if c.Publish.Topic == "" {
			return errors.New("publish.topic is required when publishing is enabled")
		}
	}

	return nil
}

func (c *Config) validateLimits() error {
	if len(c.XYZLimit) != 3 {
		return fmt.Errorf("xyzLimit needs exactly 3 values, got %d", len(c.XYZLimit))
	}
	if len(c.XYZDeltaLimit) != 3 {
		return fmt.Errorf("xyzDeltaLimit needs exactly 3 values, got %d", len(c.XYZDeltaLimit))
	}
	if len(c.XYZRounding) != 3 {
		return fmt.Errorf("xyzRounding needs exactly 3 values, got %d", len(c.XYZRounding))
	}
	for i, v := range c.XYZLimit {
		if v < 0 {
			return fmt.Errorf("xyzLimit[%d] must not be negative", i)
		}
	}
	for i, v := range c.XYZDeltaLimit {
		if v < 0 {
			return fmt.Errorf("xyzDeltaLimit[%d] must not be negative", i)
		}
	}
	for i, v := range c.XYZRounding {
		if v < 0 {
			return fmt.Errorf("xyzRounding[%d] must not be negative", i)
		}
	}

	if len(c.ValidSatRange) != 2 {
		return fmt.Errorf("validSatRange needs exactly 2 values, got %d", len(c.ValidSatRange))
	}
	if c.ValidSatRange[0] < 0 || c.ValidSatRange[0] > c.ValidSatRange[1] {
		return fmt.Errorf("validSatRange [%d, %d] is not a valid inclusive range",
			c.ValidSatRange[0], c.ValidSatRange[1])
	}

	return nil
}

func (c *Config) validateStyles() error {
	colors := map[string]string{
		"line_style.color":              c.LineStyle.Color,
		"point_style.icon_color":        c.PointStyle.IconColor,
		"point_style.interp_icon_color": c.PointStyle.InterpIconColor,
		"point_style.label_color":       c.PointStyle.LabelColor,
	}
	for key, v := range colors {
		if !validColor(v) {
			return fmt.Errorf("%s must be 8 hex digits (aabbggrr), got %q", key, v)
		}
	}

	if c.LineStyle.Width <= 0 {
		return errors.New("line_style.width must be positive")
	}
	if c.PointStyle.IconScale <= 0 {
		return errors.New("point_style.icon_scale must be positive")
	}
	if c.PointStyle.LabelScale <= 0 {
		return errors.New("point_style.label_scale must be positive")
	}
	if c.PointStyle.IconHref == "" {
		return errors.New("point_style.icon_href is required")
	}

	return nil
}

// ValidateWatch checks the settings the watcher service additionally needs.
// The one-shot CLI never calls this, so plain conversions work without any
// watch section.
func (c *Config) ValidateWatch() error {
	if c.Watch.InputDir == "" {
		return errors.New("watch.input_dir is required")
	}
	if c.Watch.OutputDir == "" {
		return errors.New("watch.output_dir is required")
	}
	if c.Watch.Interval <= 0 {
		return errors.New("watch.interval must be positive")
	}
	if c.Watch.HTTPAddr == "" {
		return errors.New("watch.http_addr is required")
	}
	if c.Watch.ShutdownTimeout <= 0 {
		return errors.New("watch.shutdown_timeout must be positive")
	}
	return nil
}

// validColor reports whether s is a KML aabbggrr color: exactly 8 hex
// digits.
func validColor(s string) bool {
	if len(s) != 8 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
