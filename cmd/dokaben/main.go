// Command dokaben animates a field of flipping Dokaben plates with a GPU compute pass
// and draws them with a single indirect instanced draw.
//
// Usage:
//
//	dokaben [-config configs/dokaben.yaml] [-backend wgpu|software] [-frames N] [-log-level info] [-profile]
//
// Scroll zooms and dragging orbits the camera. Arrow keys orbit, R reframes the bounds,
// P toggles the profiler and ESC quits. SIGHUP reloads the config file and restarts
// the animation with the new values.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Carmen-Shannon/oxy-dokaben/common"
	"github.com/Carmen-Shannon/oxy-dokaben/config"
	"github.com/Carmen-Shannon/oxy-dokaben/engine"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/camera"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/dokaben"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-dokaben/engine/window"
	"github.com/go-gl/mathgl/mgl32"
)

const componentName = "dokaben"

// flags holds the command line. Zero values leave the config file value in place.
type flags struct {
	configPath string
	backend    string
	frames     uint64
	logLevel   string
	profile    bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	f, err := parseFlags(args, stderr)
	if err != nil {
		return 2
	}

	cfg, err := loadConfig(f)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if err := installLogger(cfg.Log, stderr); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	if err := runDokaben(f, cfg); err != nil {
		common.Logger().Error("dokaben stopped", "error", err)
		return 1
	}
	return 0
}

func parseFlags(args []string, stderr io.Writer) (flags, error) {
	var f flags
	fs := flag.NewFlagSet("dokaben", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.configPath, "config", "", "path to a YAML config file")
	fs.StringVar(&f.backend, "backend", "", "renderer backend: wgpu or software")
	fs.Uint64Var(&f.frames, "frames", 0, "stop after this many frames (0 = run until closed)")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn or error")
	fs.BoolVar(&f.profile, "profile", false, "log frame rate and memory statistics")
	err := fs.Parse(args)
	return f, err
}

// loadConfig reads the config file, or the defaults without one, and applies flag overrides.
func loadConfig(f flags) (config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return config.Config{}, err
		}
	}

	if f.backend != "" {
		cfg.Renderer.Backend = f.backend
	}
	if f.frames > 0 {
		cfg.Engine.MaxFrames = f.frames
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if f.profile {
		cfg.Engine.Profiling = true
	}
	return cfg, config.Validate(cfg)
}

func installLogger(cfg config.LogConfig, w io.Writer) error {
	level, err := config.ParseLogLevel(cfg.Level)
	if err != nil {
		return err
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler = slog.NewTextHandler(w, opts)
	if cfg.Format == "json" {
		h = slog.NewJSONHandler(w, opts)
	}
	l := slog.New(h)
	common.SetLogger(l)
	slog.SetDefault(l)
	return nil
}

func runDokaben(f flags, cfg config.Config) error {
	backendType, _ := renderer.ParseBackendType(cfg.Renderer.Backend)

	var win window.Window
	if backendType == renderer.BackendTypeWGPU {
		var err error
		win, err = window.NewWindow(
			window.WithTitle(cfg.Window.Title),
			window.WithSize(cfg.Window.Width, cfg.Window.Height),
		)
		if err != nil {
			return err
		}
		defer win.Close()
	}

	r, err := renderer.NewRenderer(backendType, rendererOptions(cfg, win)...)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	defer r.Release()

	cam := camera.NewCamera(camera.WithAspect(aspect(cfg.Window)))

	engineOpts := []engine.EngineBuilderOption{
		engine.WithCamera(cam),
		engine.WithProfiling(cfg.Engine.Profiling),
		engine.WithRenderFrameLimit(cfg.Engine.RenderFrameLimit),
		engine.WithMaxFrames(cfg.Engine.MaxFrames),
	}
	if win != nil {
		engineOpts = append(engineOpts, engine.WithWindow(win))
	}
	eng := engine.NewEngine(r, engineOpts...)
	defer eng.Release()

	if err := eng.AddComponent(componentName, newDokaben(cfg.Dokaben, cfg.Renderer, cam)); err != nil {
		return err
	}
	if win != nil {
		bindInput(win, eng, cam, cfg.Dokaben)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go reloadOnHangup(ctx, f, eng, cam)

	common.Logger().Info("running", "backend", backendType.String(), "max_frames", cfg.Engine.MaxFrames)
	return eng.Run(ctx)
}

func rendererOptions(cfg config.Config, win window.Window) []renderer.RendererBuilderOption {
	presentMode, _ := config.ParsePresentMode(cfg.Renderer.PresentMode)
	msaa, _ := config.ParseMSAA(cfg.Renderer.MSAA)

	opts := []renderer.RendererBuilderOption{
		renderer.WithPresentMode(presentMode),
		renderer.WithMSAA(msaa),
		renderer.WithForceFallbackAdapter(cfg.Renderer.ForceFallbackAdapter),
		renderer.WithSoftwareWorkers(cfg.Renderer.SoftwareWorkers),
		renderer.WithSoftwareMemoryLimit(cfg.Renderer.SoftwareMemoryLimit),
		dokaben.SoftwareKernel(),
	}
	if win != nil {
		opts = append(opts, renderer.WithSurface(win))
	}
	return opts
}

// newDokaben builds the component from config values. The camera is reframed on every
// build so a reload with new bounds stays in view.
func newDokaben(cfg config.DokabenConfig, rc config.RendererConfig, cam camera.Camera) dokaben.Dokaben {
	bounds := common.NewBounds(mgl32.Vec3(cfg.BoundCenter), mgl32.Vec3(cfg.BoundSize))
	cam.FrameBounds(bounds)

	return dokaben.NewDokaben(
		dokaben.WithCapacity(cfg.MaxObjectNum),
		dokaben.WithAnimationSpeed(cfg.AnimationSpeed),
		dokaben.WithMeshScale(mgl32.Vec3(cfg.MeshScale)),
		dokaben.WithBounds(bounds),
		dokaben.WithSeed(cfg.Seed),
		dokaben.WithCamera(cam),
		dokaben.WithShaderValidation(rc.ValidateShaders),
		dokaben.WithMaterial(material.NewMaterial(
			material.WithName("dokaben"),
			material.WithBaseColor(cfg.BaseColor),
			material.WithPipelineKey(dokaben.DefaultRenderPipelineKey),
		)),
	)
}

func bindInput(win window.Window, eng engine.Engine, cam camera.Camera, cfg config.DokabenConfig) {
	profiling := false
	win.SetScrollCallback(func(delta float32) {
		if ctrl := cam.Controller(); ctrl != nil {
			ctrl.Zoom(delta)
		}
	})
	win.SetDragCallback(func(dx, dy float32) {
		if ctrl := cam.Controller(); ctrl != nil {
			ctrl.Drag(dx, dy)
		}
	})
	win.SetKeyDownCallback(func(key uint32) {
		ctrl := cam.Controller()
		if ctrl == nil {
			return
		}
		switch key {
		case common.KeyLeft:
			ctrl.OrbitLeft()
		case common.KeyRight:
			ctrl.OrbitRight()
		case common.KeyUp:
			ctrl.OrbitUp()
		case common.KeyDown:
			ctrl.OrbitDown()
		case common.KeyR:
			cam.FrameBounds(common.NewBounds(mgl32.Vec3(cfg.BoundCenter), mgl32.Vec3(cfg.BoundSize)))
		case common.KeyP:
			profiling = !profiling
			if profiling {
				eng.EnableProfiler()
			} else {
				eng.DisableProfiler()
			}
		}
	})
}

// reloadOnHangup reloads the config file on SIGHUP and replaces the running component.
// Window and renderer settings need a restart and are ignored.
func reloadOnHangup(ctx context.Context, f flags, eng engine.Engine, cam camera.Camera) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
		}
		if f.configPath == "" {
			common.Logger().Warn("reload ignored: no config file")
			continue
		}
		cfg, err := loadConfig(f)
		if err != nil {
			common.Logger().Error("reload failed", "path", f.configPath, "error", err)
			continue
		}
		err = eng.ReplaceComponent(componentName, newDokaben(cfg.Dokaben, cfg.Renderer, cam))
		if err != nil {
			var allocErr *dokaben.AllocationError
			if errors.As(err, &allocErr) {
				common.Logger().Error("reload could not allocate", "label", allocErr.Label, "size", allocErr.Size)
			}
			common.Logger().Error("reload failed", "path", f.configPath, "error", err)
			eng.Quit()
			return
		}
		common.Logger().Info("config reloaded", "path", f.configPath, "capacity", cfg.Dokaben.MaxObjectNum)
	}
}

func aspect(w config.WindowConfig) float32 {
	if w.Height <= 0 {
		return 16.0 / 9.0
	}
	return float32(w.Width) / float32(w.Height)
}
