// Command skinview loads a skinned model, evaluates its skeleton every frame and uploads the
// bone matrices, either to a GPU buffer behind an interactive window or, headless, to memory.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-skin/common"
	"github.com/Carmen-Shannon/oxy-skin/engine/config"
	"github.com/Carmen-Shannon/oxy-skin/engine/sink"
	"github.com/Carmen-Shannon/oxy-skin/engine/viewer"
	"github.com/Carmen-Shannon/oxy-skin/engine/window"
)

// headlessStep is the simulated frame time of a headless run.
const headlessStep = 1.0 / 60.0

type options struct {
	configPath  string
	modelPath   string
	headless    bool
	frames      int
	dump        bool
	spin        bool
	printConfig bool
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("skinview", flag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", "", "TOML config file")
	fs.StringVar(&o.modelPath, "model", "", "glTF or GLB model to load, overrides model.path")
	fs.BoolVar(&o.headless, "headless", false, "evaluate without a window or GPU")
	fs.IntVar(&o.frames, "frames", 1, "frames to run in headless mode")
	fs.BoolVar(&o.dump, "dump", false, "print the final bone matrices")
	fs.BoolVar(&o.spin, "spin", false, "rotate every bone about Y over time")
	fs.BoolVar(&o.printConfig, "print-config", false, "print the effective config and exit")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.frames < 0 {
		return o, fmt.Errorf("-frames must not be negative, got %d", o.frames)
	}
	return o, nil
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		common.LogError("skinview failed", "err", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	o, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	cfg = cfg.WithOverrides(o.modelPath, o.headless)
	common.SetLogLevel(cfg.Log.Level)
	common.LogDebug("config resolved", "config", o.configPath, "model", cfg.Model.Path, "headless", cfg.Render.Headless,
		"instances", cfg.Render.Instances)

	if o.printConfig {
		return cfg.Encode(stdout)
	}
	if cfg.Model.Path == "" {
		return fmt.Errorf("no model given: pass -model or set model.path")
	}

	var viewerOpts []viewer.ViewerBuilderOption
	if o.spin {
		viewerOpts = append(viewerOpts, viewer.WithAnimation(spin))
	}

	if cfg.Render.Headless {
		return runHeadless(cfg, o, stdout, viewerOpts)
	}
	return runWindowed(cfg, o, stdout, viewerOpts)
}

// spin turns every bone about its local Y axis, offset per instance.
func spin(elapsed float64, instance int, localAnim []common.Mat4) {
	rot := common.RotateY(float32(elapsed) + float32(instance)*0.25)
	for i := range localAnim {
		localAnim[i] = rot
	}
}

func runHeadless(cfg config.Config, o options, stdout io.Writer, viewerOpts []viewer.ViewerBuilderOption) error {
	mem := sink.NewMemorySink(cfg.Limits.MaxBones)
	v, err := viewer.New(cfg, append(viewerOpts, viewer.WithSink(mem))...)
	if err != nil {
		return err
	}
	if err := v.Load(cfg.Model.Path); err != nil {
		return err
	}

	for i := 0; i < o.frames; i++ {
		if err := v.Frame(headlessStep); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}
	common.LogInfo("headless run finished", "frames", o.frames, "bones", v.Registry().Len())

	if o.dump {
		return dump(stdout, v)
	}
	return nil
}

func runWindowed(cfg config.Config, o options, stdout io.Writer, viewerOpts []viewer.ViewerBuilderOption) error {
	win, err := window.NewWindow(
		window.WithTitle(cfg.Render.Title),
		window.WithWidth(cfg.Render.Width),
		window.WithHeight(cfg.Render.Height),
	)
	if err != nil {
		return err
	}
	defer func() {
		if win.IsRunning() {
			win.Close()
		}
	}()

	dev, err := sink.NewHeadlessDevice(cfg.Render.ForceFallbackAdapter)
	if err != nil {
		return err
	}
	defer dev.Release()

	gpu, err := sink.NewGPUSink(dev.Device, "bone matrices", cfg.Limits.MaxBones)
	if err != nil {
		return err
	}
	defer gpu.Release()

	v, err := viewer.New(cfg, append(viewerOpts, viewer.WithSink(gpu), viewer.WithKeyboard(win))...)
	if err != nil {
		return err
	}
	if err := v.Load(cfg.Model.Path); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if cfg.Watch.Enabled {
		w, err := v.Watch(cfg.Model.Path)
		if err != nil {
			return err
		}
		defer w.Close()
		go w.Run(ctx)
	}
	// GLFW calls must stay on the main thread, so quit requests are applied from the update callback.
	var quit atomic.Bool
	win.SetKeyDownCallback(func(key common.KeyCode) {
		if key == common.KeyEsc {
			quit.Store(true)
		}
	})
	win.SetUpdateCallback(func(dt float64) {
		if quit.Load() || ctx.Err() != nil {
			win.Close()
			return
		}
		if err := v.Frame(dt); err != nil {
			common.LogWarn("frame failed", "err", err)
		}
	})
	win.ProcessMessages()

	if o.dump {
		return dump(stdout, v)
	}
	return nil
}

func dump(w io.Writer, v *viewer.Viewer) error {
	reg := v.Registry()
	for i, m := range v.BoneMatrices() {
		if _, err := fmt.Fprintf(w, "%d %s %v\n", i, reg.Name(i), m); err != nil {
			return err
		}
	}
	return nil
}
