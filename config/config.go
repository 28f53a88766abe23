// Package config loads the YAML configuration of the dokaben binary.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Carmen-Shannon/oxy-dokaben/engine/dokaben"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer"
	"gopkg.in/yaml.v3"
)

// Config is the root of the configuration file.
type Config struct {
	Dokaben  DokabenConfig  `yaml:"dokaben"`
	Window   WindowConfig   `yaml:"window"`
	Renderer RendererConfig `yaml:"renderer"`
	Engine   EngineConfig   `yaml:"engine"`
	Log      LogConfig      `yaml:"log"`
}

// DokabenConfig configures the instance animation.
type DokabenConfig struct {
	MaxObjectNum   int        `yaml:"max_object_num"`
	AnimationSpeed float32    `yaml:"animation_speed"`
	MeshScale      [3]float32 `yaml:"mesh_scale"`
	BoundCenter    [3]float32 `yaml:"bound_center"`
	BoundSize      [3]float32 `yaml:"bound_size"`
	Seed           uint64     `yaml:"seed"`
	BaseColor      [4]float32 `yaml:"base_color"`
}

// WindowConfig configures the GLFW window of the wgpu backend.
type WindowConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// RendererConfig selects and configures the renderer backend.
type RendererConfig struct {
	Backend              string `yaml:"backend"`
	PresentMode          string `yaml:"present_mode"`
	MSAA                 int    `yaml:"msaa"`
	ForceFallbackAdapter bool   `yaml:"force_fallback_adapter"`
	ValidateShaders      bool   `yaml:"validate_shaders"`
	SoftwareWorkers      int    `yaml:"software_workers"`
	SoftwareMemoryLimit  uint64 `yaml:"software_memory_limit"`
}

// EngineConfig configures the frame loop.
type EngineConfig struct {
	RenderFrameLimit float64 `yaml:"render_frame_limit"`
	MaxFrames        uint64  `yaml:"max_frames"`
	Profiling        bool    `yaml:"profiling"`
}

// LogConfig configures the slog handler installed by the binary.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given. Load starts from it,
// so keys missing from a file keep these values.
func Default() Config {
	return Config{
		Dokaben: DokabenConfig{
			MaxObjectNum:   dokaben.DefaultCapacity,
			AnimationSpeed: 1,
			MeshScale:      [3]float32{1, 1, 1},
			BoundSize:      [3]float32{32, 32, 32},
			Seed:           1,
			BaseColor:      [4]float32{0.85, 0.78, 0.62, 1},
		},
		Window: WindowConfig{
			Title:  "Dokaben",
			Width:  1280,
			Height: 720,
		},
		Renderer: RendererConfig{
			Backend:     "wgpu",
			PresentMode: "vsync",
			MSAA:        4,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML file over the defaults and validates the result.
//
// Parameters:
//   - path: the file path
//
// Returns:
//   - Config: the loaded configuration
//   - error: a read, decode or validation error
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if len(data) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("config: decode: %w", err)
		}
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every value. Out-of-range capacities are rejected, not clamped.
//
// Parameters:
//   - cfg: the configuration to check
//
// Returns:
//   - error: all problems joined, or nil
func Validate(cfg Config) error {
	var errs []error

	if err := dokaben.ValidateCapacity(cfg.Dokaben.MaxObjectNum); err != nil {
		errs = append(errs, fmt.Errorf("dokaben.max_object_num: %w", err))
	}
	for i, v := range cfg.Dokaben.BoundSize {
		if v < 0 {
			errs = append(errs, fmt.Errorf("dokaben.bound_size[%d]: negative extent %v", i, v))
		}
	}
	for i, v := range cfg.Dokaben.MeshScale {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("dokaben.mesh_scale[%d]: must be positive, got %v", i, v))
		}
	}
	if _, err := renderer.ParseBackendType(cfg.Renderer.Backend); err != nil {
		errs = append(errs, fmt.Errorf("renderer.backend: %w", err))
	}
	if _, err := ParsePresentMode(cfg.Renderer.PresentMode); err != nil {
		errs = append(errs, fmt.Errorf("renderer.present_mode: %w", err))
	}
	if _, err := ParseMSAA(cfg.Renderer.MSAA); err != nil {
		errs = append(errs, fmt.Errorf("renderer.msaa: %w", err))
	}
	if cfg.Renderer.SoftwareWorkers < 0 {
		errs = append(errs, fmt.Errorf("renderer.software_workers: negative value %d", cfg.Renderer.SoftwareWorkers))
	}
	if cfg.Window.Width <= 0 || cfg.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window: size %dx%d must be positive", cfg.Window.Width, cfg.Window.Height))
	}
	if cfg.Engine.RenderFrameLimit < 0 {
		errs = append(errs, fmt.Errorf("engine.render_frame_limit: negative value %v", cfg.Engine.RenderFrameLimit))
	}
	if _, err := ParseLogLevel(cfg.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", cfg.Log.Format))
	}
	return errors.Join(errs...)
}

// ParsePresentMode maps "vsync" and "uncapped" to a renderer present mode.
func ParsePresentMode(s string) (renderer.PresentMode, error) {
	switch s {
	case "vsync", "":
		return renderer.PresentModeVSync, nil
	case "uncapped":
		return renderer.PresentModeUncapped, nil
	default:
		return 0, fmt.Errorf("unknown present mode %q", s)
	}
}

// ParseMSAA maps a sample count to an MSAA setting. 0 and 1 disable multisampling.
func ParseMSAA(n int) (renderer.MSAASampleCount, error) {
	switch n {
	case 0, 1:
		return renderer.MSAAOff, nil
	case 4:
		return renderer.MSAA4x, nil
	case 8:
		return renderer.MSAA8x, nil
	case 16:
		return renderer.MSAA16x, nil
	default:
		return 0, fmt.Errorf("unsupported sample count %d", n)
	}
}

// ParseLogLevel maps debug, info, warn and error to a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown level %q", s)
	}
	return l, nil
}
