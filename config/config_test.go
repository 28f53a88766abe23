package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-dokaben/engine/dokaben"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate(Default()) = %v", err)
	}
	if cfg.Dokaben.MaxObjectNum != 14384 {
		t.Errorf("MaxObjectNum = %d, want 14384", cfg.Dokaben.MaxObjectNum)
	}
	if cfg.Dokaben.BoundSize != [3]float32{32, 32, 32} {
		t.Errorf("BoundSize = %v, want [32 32 32]", cfg.Dokaben.BoundSize)
	}
}

func TestParseOverlaysDefaults(t *testing.T) {
	src := `
dokaben:
  max_object_num: 256
  bound_center: [1, 2, 3]
renderer:
  backend: software
  software_workers: 2
engine:
  max_frames: 10
log:
  level: debug
  format: json
`
	cfg, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Dokaben.MaxObjectNum != 256 || cfg.Dokaben.BoundCenter != [3]float32{1, 2, 3} {
		t.Errorf("dokaben = %+v", cfg.Dokaben)
	}
	if cfg.Dokaben.AnimationSpeed != 1 || cfg.Dokaben.BoundSize != [3]float32{32, 32, 32} {
		t.Errorf("missing keys lost their defaults: %+v", cfg.Dokaben)
	}
	if cfg.Renderer.Backend != "software" || cfg.Renderer.SoftwareWorkers != 2 || cfg.Renderer.MSAA != 4 {
		t.Errorf("renderer = %+v", cfg.Renderer)
	}
	if cfg.Engine.MaxFrames != 10 || cfg.Log.Format != "json" {
		t.Errorf("engine = %+v, log = %+v", cfg.Engine, cfg.Log)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
		wantIs  error
	}{
		{"capacity zero", "dokaben: {max_object_num: 0}", "max_object_num", dokaben.ErrInvalidCapacity},
		{"capacity below min", "dokaben: {max_object_num: 255}", "max_object_num", dokaben.ErrInvalidCapacity},
		{"capacity above max", "dokaben: {max_object_num: 32769}", "max_object_num", dokaben.ErrInvalidCapacity},
		{"negative bound", "dokaben: {bound_size: [1, -1, 1]}", "bound_size[1]", nil},
		{"zero scale", "dokaben: {mesh_scale: [1, 0, 1]}", "mesh_scale[1]", nil},
		{"backend", "renderer: {backend: vulkan}", "renderer.backend", nil},
		{"present mode", "renderer: {present_mode: mailbox}", "present_mode", nil},
		{"msaa", "renderer: {msaa: 2}", "renderer.msaa", nil},
		{"window size", "window: {width: 0}", "window", nil},
		{"log level", "log: {level: loud}", "log.level", nil},
		{"log format", "log: {format: xml}", "log.format", nil},
		{"unknown key", "dokaben: {max_objects: 300}", "decode", nil},
		{"bad yaml", "dokaben: [", "decode", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			if err == nil {
				t.Fatal("Parse succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Errorf("error %v is not %v", err, tt.wantIs)
			}
		})
	}
}

func TestCapacityBoundariesAccepted(t *testing.T) {
	for _, n := range []int{dokaben.MinCapacity, dokaben.MaxCapacity} {
		cfg := Default()
		cfg.Dokaben.MaxObjectNum = n
		if err := Validate(cfg); err != nil {
			t.Errorf("Validate(max_object_num=%d) = %v", n, err)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dokaben.yaml")
	if err := os.WriteFile(path, []byte("dokaben:\n  seed: 42\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Dokaben.Seed != 42 {
		t.Errorf("Seed = %d, want 42", cfg.Dokaben.Seed)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing) error = %v, want os.ErrNotExist", err)
	}
}

func TestParsers(t *testing.T) {
	if m, err := ParsePresentMode("uncapped"); err != nil || m != renderer.PresentModeUncapped {
		t.Errorf("ParsePresentMode(uncapped) = %v, %v", m, err)
	}
	if s, err := ParseMSAA(0); err != nil || s != renderer.MSAAOff {
		t.Errorf("ParseMSAA(0) = %v, %v", s, err)
	}
	if l, err := ParseLogLevel("warn"); err != nil || l != slog.LevelWarn {
		t.Errorf("ParseLogLevel(warn) = %v, %v", l, err)
	}
}
