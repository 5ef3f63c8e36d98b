package pose

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-skin/common"
	"github.com/google/uuid"
)

// Instance is one animated copy of a skeleton. LocalAnim is written by the caller between
// frames; BoneMats and Err are written by Batch.EvaluateAll. An Instance must not be read
// or written while an evaluation is in flight.
type Instance struct {
	ID        uuid.UUID
	LocalAnim []common.Mat4
	BoneMats  []common.Mat4
	Err       error

	state state
}

// Batch evaluates many instances of the same skeleton in parallel. The skeleton and the
// precomputed offsets are shared read-only; every instance owns its own buffers.
type Batch struct {
	mu sync.Mutex

	ev        *evaluator
	instances []*Instance
	byID      map[uuid.UUID]int
	pool      worker.DynamicWorkerPool
}

// NewBatch creates a Batch for instances of the evaluator's skeleton.
//
// Parameters:
//   - ev: the evaluator whose skeleton, offsets and root transform every instance shares
//   - workers: the maximum number of concurrent evaluations, or zero for GOMAXPROCS
//
// Returns:
//   - *Batch: the created batch
//   - error: an error if ev was not created by NewEvaluator
func NewBatch(ev Evaluator, workers int) (*Batch, error) {
	impl, ok := ev.(*evaluator)
	if !ok || impl == nil {
		return nil, fmt.Errorf("batch requires an evaluator created by NewEvaluator, got %T", ev)
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Batch{
		ev:   impl,
		byID: make(map[uuid.UUID]int),
		pool: worker.NewDynamicWorkerPool(workers, 256, 1*time.Second),
	}, nil
}

// Add registers a new instance posed at bind pose.
func (b *Batch) Add() *Instance {
	b.mu.Lock()
	defer b.mu.Unlock()

	inst := &Instance{
		ID:        uuid.New(),
		LocalAnim: b.ev.NewLocalPose(),
		BoneMats:  b.ev.NewBoneMatrices(),
	}
	b.byID[inst.ID] = len(b.instances)
	b.instances = append(b.instances, inst)
	return inst
}

// Remove drops the instance with the given ID using a swap-remove.
func (b *Batch) Remove(id uuid.UUID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	i, ok := b.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownInstance, id)
	}
	last := len(b.instances) - 1
	if i != last {
		b.instances[i] = b.instances[last]
		b.byID[b.instances[i].ID] = i
	}
	b.instances[last] = nil
	b.instances = b.instances[:last]
	delete(b.byID, id)
	return nil
}

// Instance returns the instance with the given ID, or nil.
func (b *Batch) Instance(id uuid.UUID) *Instance {
	b.mu.Lock()
	defer b.mu.Unlock()

	if i, ok := b.byID[id]; ok {
		return b.instances[i]
	}
	return nil
}

// Len returns the number of registered instances.
func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.instances)
}

// EvaluateAll evaluates every instance and blocks until all of them finish. A failing
// instance keeps its previous matrices and records the failure in Err; the others are
// unaffected.
//
// Returns:
//   - []error: the errors of failed instances, in registration order, or nil
func (b *Batch) EvaluateAll() []error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// The pool's own Wait blocks until workers idle out, so a WaitGroup is the per-frame barrier.
	var wg sync.WaitGroup
	for id, inst := range b.instances {
		wg.Add(1)
		inst := inst
		b.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				inst.Err = b.ev.rig.evaluate(&inst.state, b.ev.root, inst.LocalAnim, inst.BoneMats)
				return nil, inst.Err
			},
		})
	}
	wg.Wait()

	var errs []error
	for _, inst := range b.instances {
		if inst.Err != nil {
			errs = append(errs, fmt.Errorf("instance %s: %w", inst.ID, inst.Err))
		}
	}
	return errs
}
