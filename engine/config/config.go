package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Carmen-Shannon/oxy-skin/common"
	"github.com/Carmen-Shannon/oxy-skin/engine/input"
	"github.com/Carmen-Shannon/oxy-skin/engine/skeleton"
	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"
)

// Config is the viewer configuration, read from a TOML file. Keys missing from the file keep
// their Default values; unknown keys are rejected.
type Config struct {
	Limits LimitsConfig `toml:"limits"`
	Log    LogConfig    `toml:"log"`
	Model  ModelConfig  `toml:"model"`
	Input  InputConfig  `toml:"input"`
	Render RenderConfig `toml:"render"`
	Watch  WatchConfig  `toml:"watch"`
}

// LimitsConfig mirrors skeleton.Limits.
type LimitsConfig struct {
	MaxBones      int `toml:"max_bones"`
	MaxBoneNames  int `toml:"max_bone_names"`
	MaxNameLength int `toml:"max_name_length"`
	MaxDepth      int `toml:"max_depth"`
}

type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level"`
}

type ModelConfig struct {
	Path string `toml:"path"`

	// TranslationOnlyOffsets keeps only the translation of each bone offset.
	TranslationOnlyOffsets bool `toml:"translation_only_offsets"`
}

type InputConfig struct {
	// RotationSpeed is in degrees per second.
	RotationSpeed float32 `toml:"rotation_speed"`
}

type RenderConfig struct {
	Headless             bool   `toml:"headless"`
	Title                string `toml:"title"`
	Width                int    `toml:"width"`
	Height               int    `toml:"height"`
	ForceFallbackAdapter bool   `toml:"force_fallback_adapter"`

	// Instances is the number of skeleton copies evaluated per frame.
	Instances int `toml:"instances"`

	// Workers bounds parallel instance evaluation; zero means GOMAXPROCS.
	Workers int `toml:"workers"`

	// ProfileInterval is the profiler report interval in seconds; zero disables it.
	ProfileInterval float64 `toml:"profile_interval"`
}

type WatchConfig struct {
	Enabled    bool `toml:"enabled"`
	DebounceMS int  `toml:"debounce_ms"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	l := skeleton.DefaultLimits()
	return Config{
		Limits: LimitsConfig{
			MaxBones:      l.MaxBones,
			MaxBoneNames:  l.MaxBoneNames,
			MaxNameLength: l.MaxNameLength,
			MaxDepth:      l.MaxDepth,
		},
		Log:   LogConfig{Level: "info"},
		Input: InputConfig{RotationSpeed: input.DefaultRotationSpeed},
		Render: RenderConfig{
			Title:           "oxy-skin",
			Width:           1280,
			Height:          720,
			Instances:       1,
			ProfileInterval: 1,
		},
		Watch: WatchConfig{DebounceMS: 250},
	}
}

// Load reads and validates the TOML file at path. An empty path returns Default.
//
// Parameters:
//   - path: the config file path
//
// Returns:
//   - Config: the decoded configuration
//   - error: error if the file cannot be read, decoded, or fails validation
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Decode(bytes.NewReader(data))
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads TOML from r over Default and validates the result.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("unknown config keys:\n%s", strict.String())
		}
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Encode writes cfg as TOML.
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if err := c.SkeletonLimits().Validate(); err != nil {
		return fmt.Errorf("limits: %w", err)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Input.RotationSpeed < 0 {
		return fmt.Errorf("input.rotation_speed must not be negative, got %v", c.Input.RotationSpeed)
	}
	if c.Render.Instances < 1 {
		return fmt.Errorf("render.instances must be at least 1, got %d", c.Render.Instances)
	}
	if c.Render.Workers < 0 {
		return fmt.Errorf("render.workers must not be negative, got %d", c.Render.Workers)
	}
	if c.Render.ProfileInterval < 0 {
		return fmt.Errorf("render.profile_interval must not be negative, got %v", c.Render.ProfileInterval)
	}
	if c.Watch.DebounceMS < 0 {
		return fmt.Errorf("watch.debounce_ms must not be negative, got %d", c.Watch.DebounceMS)
	}
	return nil
}

// SkeletonLimits converts the [limits] section.
func (c Config) SkeletonLimits() skeleton.Limits {
	return skeleton.Limits{
		MaxBones:      c.Limits.MaxBones,
		MaxBoneNames:  c.Limits.MaxBoneNames,
		MaxNameLength: c.Limits.MaxNameLength,
		MaxDepth:      c.Limits.MaxDepth,
	}
}

// WithOverrides returns a copy of c with non-zero command-line values taking precedence.
func (c Config) WithOverrides(modelPath string, headless bool) Config {
	c.Model.Path = common.Coalesce(modelPath, c.Model.Path)
	c.Render.Headless = common.Coalesce(headless, c.Render.Headless)
	return c
}
