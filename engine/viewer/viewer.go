package viewer

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-skin/common"
	"github.com/Carmen-Shannon/oxy-skin/engine/config"
	"github.com/Carmen-Shannon/oxy-skin/engine/input"
	"github.com/Carmen-Shannon/oxy-skin/engine/loader"
	"github.com/Carmen-Shannon/oxy-skin/engine/model"
	"github.com/Carmen-Shannon/oxy-skin/engine/pose"
	"github.com/Carmen-Shannon/oxy-skin/engine/sink"
	"github.com/Carmen-Shannon/oxy-skin/engine/skeleton"
	"github.com/charmbracelet/log"
)

// ErrNoModel is returned by Frame before a model has been loaded.
var ErrNoModel = errors.New("no model loaded")

// AnimationFunc writes the local animation transforms of one instance for the current
// instant. elapsed is the time since the model was loaded.
type AnimationFunc func(elapsed float64, instance int, localAnim []common.Mat4)

// rig is one loaded model with everything derived from it. A rig is replaced as a whole on
// reload and never mutated in place.
type rig struct {
	path        string
	model       *model.ImportedModel
	registry    *skeleton.Registry
	skeleton    *skeleton.Skeleton
	evaluator   pose.Evaluator
	batch       *pose.Batch
	instances   []*pose.Instance
	diagnostics []skeleton.Diagnostic
}

// Viewer ties model import, skeleton construction, per-frame pose evaluation and bone
// matrix upload together. The first instance is driven by the keyboard and uploaded to the
// sink; further instances are evaluated alongside it.
type Viewer struct {
	mu sync.Mutex

	cfg        config.Config
	logger     *log.Logger
	loader     loader.Loader
	sink       sink.Sink
	keyboard   input.Keyboard
	controller input.PoseController
	animate    AnimationFunc
	profiler   *Profiler

	rig     *rig
	elapsed float64
	frames  uint64
}

// New creates a Viewer from cfg. No model is loaded until Load is called.
//
// Parameters:
//   - cfg: the validated configuration
//   - options: functional options such as WithSink or WithKeyboard
//
// Returns:
//   - *Viewer: the created viewer
//   - error: error if cfg is invalid
func New(cfg config.Config, options ...ViewerBuilderOption) (*Viewer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	v := &Viewer{
		cfg:    cfg,
		logger: common.Logger(),
	}
	for _, opt := range options {
		opt(v)
	}

	if v.loader == nil {
		loaderOpts := []loader.LoaderBuilderOption{loader.WithLogger(v.logger)}
		if cfg.Model.TranslationOnlyOffsets {
			loaderOpts = append(loaderOpts, loader.WithTranslationOnlyOffsets())
		}
		v.loader = loader.NewLoader(loader.BackendTypeGLTF, loaderOpts...)
	}
	if v.sink == nil {
		v.sink = sink.NewMemorySink(cfg.Limits.MaxBones)
	}
	if v.keyboard != nil {
		v.controller = input.NewPoseController(v.keyboard, 0,
			input.WithRotationSpeed(cfg.Input.RotationSpeed),
			input.WithLogger(v.logger),
		)
	}
	if v.profiler == nil && cfg.Render.ProfileInterval > 0 {
		v.profiler = NewProfiler(v.logger, time.Duration(cfg.Render.ProfileInterval*float64(time.Second)))
	}
	return v, nil
}

// Load imports the model at path and swaps it in. Reloading the same path re-reads the
// file. On failure the previously loaded model stays active.
func (v *Viewer) Load(path string) error {
	v.loader.Evict(path)
	m, err := v.loader.Load(path)
	if err != nil {
		return err
	}
	return v.load(path, m)
}

// LoadModel swaps in an already imported model.
func (v *Viewer) LoadModel(m *model.ImportedModel) error {
	return v.load(m.Name, m)
}

func (v *Viewer) load(path string, m *model.ImportedModel) error {
	r, err := v.buildRig(path, m)
	if err != nil {
		v.logger.Error("model rejected, keeping previous model", "path", path, "err", err)
		return err
	}

	v.mu.Lock()
	v.rig = r
	v.elapsed = 0
	if v.controller != nil {
		v.controller.SetBoneCount(r.registry.Len(), r.registry.Names())
	}
	v.mu.Unlock()

	v.logger.Info("model loaded", "path", path, "nodes", r.skeleton.Len(), "bones", r.registry.Len(),
		"instances", len(r.instances), "diagnostics", len(r.diagnostics))
	return nil
}

func (v *Viewer) buildRig(path string, m *model.ImportedModel) (*rig, error) {
	limits := v.cfg.SkeletonLimits()

	mesh, _ := m.SkinnedMesh()
	reg, err := skeleton.RegistryFromMesh(mesh, skeleton.WithRegistryLimits(limits))
	if err != nil {
		return nil, err
	}
	if reg.Len() > v.sink.Capacity() {
		return nil, fmt.Errorf("%w: %d bones, sink holds %d", sink.ErrCapacityExceeded, reg.Len(), v.sink.Capacity())
	}

	var diags []skeleton.Diagnostic
	skel, err := skeleton.Build(m.Root, reg,
		skeleton.WithLimits(limits),
		skeleton.WithLogger(v.logger),
		skeleton.WithDiagnostics(&diags),
	)
	if err != nil {
		return nil, err
	}

	ev, err := pose.NewEvaluator(skel, reg, pose.WithLogger(v.logger))
	if err != nil {
		return nil, err
	}
	batch, err := pose.NewBatch(ev, v.cfg.Render.Workers)
	if err != nil {
		return nil, err
	}

	r := &rig{
		path:        path,
		model:       m,
		registry:    reg,
		skeleton:    skel,
		evaluator:   ev,
		batch:       batch,
		diagnostics: diags,
	}
	for i := 0; i < v.cfg.Render.Instances; i++ {
		r.instances = append(r.instances, batch.Add())
	}
	return r, nil
}

// Frame advances the viewer by dt seconds: it applies keyboard input and the animation
// function, evaluates every instance and uploads the first instance's matrices. When the
// first instance fails to evaluate its previous matrices are uploaded again and the
// evaluation error is returned.
func (v *Viewer) Frame(dt float64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	r := v.rig
	if r == nil {
		return ErrNoModel
	}
	v.elapsed += dt
	v.frames++

	primary := r.instances[0]
	if v.controller != nil {
		v.controller.Update(dt, primary.LocalAnim)
	}
	if v.animate != nil {
		for i, inst := range r.instances {
			v.animate(v.elapsed, i, inst.LocalAnim)
		}
	}

	start := time.Now()
	errs := r.batch.EvaluateAll()
	evalTime := time.Since(start)
	for _, err := range errs {
		v.logger.Warn("pose evaluation failed, keeping previous pose", "err", err)
	}

	if err := v.sink.Write(primary.BoneMats); err != nil {
		return fmt.Errorf("bone upload: %w", err)
	}
	if v.profiler != nil {
		v.profiler.Tick(evalTime)
	}
	return primary.Err
}

// BoneMatrices returns a copy of the first instance's current bone matrices.
func (v *Viewer) BoneMatrices() []common.Mat4 {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.rig == nil {
		return nil
	}
	return append([]common.Mat4(nil), v.rig.instances[0].BoneMats...)
}

// Instances returns the instances evaluated each frame. The first one is driven by input.
func (v *Viewer) Instances() []*pose.Instance {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.rig == nil {
		return nil
	}
	return append([]*pose.Instance(nil), v.rig.instances...)
}

// Skeleton returns the active skeleton, or nil.
func (v *Viewer) Skeleton() *skeleton.Skeleton {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.rig == nil {
		return nil
	}
	return v.rig.skeleton
}

// Registry returns the active bone registry, or nil.
func (v *Viewer) Registry() *skeleton.Registry {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.rig == nil {
		return nil
	}
	return v.rig.registry
}

// Diagnostics returns the import findings of the active model.
func (v *Viewer) Diagnostics() []skeleton.Diagnostic {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.rig == nil {
		return nil
	}
	return append([]skeleton.Diagnostic(nil), v.rig.diagnostics...)
}

// Frames returns the number of frames run.
func (v *Viewer) Frames() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.frames
}

// Watch reloads the active model whenever path changes on disk. Reload failures are logged
// and the previous model stays active.
func (v *Viewer) Watch(path string) (*Watcher, error) {
	debounce := time.Duration(v.cfg.Watch.DebounceMS) * time.Millisecond
	return NewWatcher(path, debounce, func(p string) {
		if err := v.Load(p); err != nil {
			v.logger.Warn("hot reload failed", "path", p, "err", err)
		}
	}, v.logger)
}
