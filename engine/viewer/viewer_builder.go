package viewer

import (
	"github.com/Carmen-Shannon/oxy-skin/engine/input"
	"github.com/Carmen-Shannon/oxy-skin/engine/loader"
	"github.com/Carmen-Shannon/oxy-skin/engine/sink"
	"github.com/charmbracelet/log"
)

// ViewerBuilderOption is a functional option for configuring a Viewer via New.
type ViewerBuilderOption func(*Viewer)

// WithSink sets where the first instance's bone matrices are uploaded. Defaults to a
// MemorySink holding the configured bone limit.
func WithSink(s sink.Sink) ViewerBuilderOption {
	return func(v *Viewer) {
		v.sink = s
	}
}

// WithKeyboard enables keyboard posing of the first instance.
func WithKeyboard(k input.Keyboard) ViewerBuilderOption {
	return func(v *Viewer) {
		v.keyboard = k
	}
}

// WithAnimation sets a function that writes local transforms each frame.
func WithAnimation(fn AnimationFunc) ViewerBuilderOption {
	return func(v *Viewer) {
		v.animate = fn
	}
}

// WithLoader replaces the default glTF loader.
func WithLoader(l loader.Loader) ViewerBuilderOption {
	return func(v *Viewer) {
		v.loader = l
	}
}

// WithLogger sets the logger the viewer and its components write to.
func WithLogger(l *log.Logger) ViewerBuilderOption {
	return func(v *Viewer) {
		if l != nil {
			v.logger = l
		}
	}
}

// WithProfiler replaces the profiler built from the config.
func WithProfiler(p *Profiler) ViewerBuilderOption {
	return func(v *Viewer) {
		v.profiler = p
	}
}
