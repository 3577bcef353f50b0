// Package config holds the host configuration, stored as TOML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	fxdebug "github.com/justyntemme/vfxgo/pkg/framework/debug"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("config: invalid")

// Config is the host configuration.
type Config struct {
	Render    Render    `toml:"render"`
	Log       Log       `toml:"log"`
	Presets   Presets   `toml:"presets"`
	Audio     Audio     `toml:"audio"`
	Telemetry Telemetry `toml:"telemetry"`

	// Seed makes Randomize reproducible across runs. Zero seeds from the clock.
	Seed uint64 `toml:"seed"`
}

// Render configures the frame clock and the buffers the host allocates.
type Render struct {
	FPS           float64 `toml:"fps"`
	DisplayWidth  int32   `toml:"display_width"`
	DisplayHeight int32   `toml:"display_height"`
	// BufferWidth and BufferHeight size the output and the three standard buffers.
	BufferWidth  uint32 `toml:"buffer_width"`
	BufferHeight uint32 `toml:"buffer_height"`
}

// Log configures the host logger.
type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Presets configures the preset database.
type Presets struct {
	Path     string `toml:"path"`
	Compress bool   `toml:"compress"`
}

// Audio configures how band triggers are derived from fed samples.
type Audio struct {
	SampleRate   float32 `toml:"sample_rate"`
	ThresholdDB  float32 `toml:"threshold_db"`
	HysteresisDB float32 `toml:"hysteresis_db"`
}

// Telemetry switches the OpenTelemetry hook.
type Telemetry struct {
	Traces  bool `toml:"traces"`
	Metrics bool `toml:"metrics"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Render: Render{
			FPS:           25,
			DisplayWidth:  1280,
			DisplayHeight: 720,
			BufferWidth:   1280,
			BufferHeight:  720,
		},
		Log:     Log{Level: "info", Format: "text"},
		Presets: Presets{Path: "presets.db", Compress: true},
		Audio:   Audio{SampleRate: 44100, ThresholdDB: -30, HysteresisDB: 3},
	}
}

// Load reads a TOML file over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := Decode(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Decode unmarshals TOML into cfg. Unknown keys are an error.
func Decode(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(cfg)
}

// Save writes cfg as TOML, creating the directory if needed.
func Save(cfg Config, path string) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks ranges and names.
func (c Config) Validate() error {
	r := c.Render
	if r.FPS <= 0 || r.FPS > 1000 {
		return fmt.Errorf("%w: fps %v", ErrInvalid, r.FPS)
	}
	if r.DisplayWidth <= 0 || r.DisplayHeight <= 0 {
		return fmt.Errorf("%w: display %dx%d", ErrInvalid, r.DisplayWidth, r.DisplayHeight)
	}
	if r.BufferWidth == 0 || r.BufferHeight == 0 {
		return fmt.Errorf("%w: buffer %dx%d", ErrInvalid, r.BufferWidth, r.BufferHeight)
	}
	if a := c.Audio; a.SampleRate <= 0 || a.ThresholdDB > 0 || a.HysteresisDB < 0 {
		return fmt.Errorf("%w: audio rate %v threshold %v hysteresis %v", ErrInvalid, a.SampleRate, a.ThresholdDB, a.HysteresisDB)
	}
	if _, err := fxdebug.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := c.LogFormat(); err != nil {
		return err
	}
	return nil
}

// LogLevel returns the parsed log level.
func (c Config) LogLevel() fxdebug.LogLevel {
	lvl, err := fxdebug.ParseLevel(c.Log.Level)
	if err != nil {
		return fxdebug.LogLevelInfo
	}
	return lvl
}

// LogFormat returns the parsed log format.
func (c Config) LogFormat() (fxdebug.Format, error) {
	switch c.Log.Format {
	case "", "text":
		return fxdebug.FormatText, nil
	case "json":
		return fxdebug.FormatJSON, nil
	}
	return fxdebug.FormatText, fmt.Errorf("%w: log format %q", ErrInvalid, c.Log.Format)
}

// Logger builds the host logger this configuration describes.
func (c Config) Logger(output io.Writer) *fxdebug.Logger {
	format, _ := c.LogFormat()
	l := fxdebug.New(output, format, "fxhost")
	l.SetLevel(c.LogLevel())
	return l
}
