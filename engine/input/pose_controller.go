package input

import (
	"github.com/Carmen-Shannon/oxy-skin/common"
	"github.com/charmbracelet/log"
)

// DefaultRotationSpeed is the default rotation rate in degrees per second.
const DefaultRotationSpeed = 90

// axisBinding maps a pair of keys to a signed rotation around one axis.
type axisBinding struct {
	positive, negative common.KeyCode
	rotate             func(rad float32) common.Mat4
}

// poseControllerImpl is the implementation of the PoseController interface.
type poseControllerImpl struct {
	keyboard  Keyboard
	boneCount int
	boneNames []string
	speed     float32
	logger    *log.Logger

	selected int
	prevNext bool
	prevPrev bool
	prevAll  bool

	axes []axisBinding
}

// PoseController drives per-bone local animation transforms from keyboard state.
//
// One bone is selected at a time. N and B select the next and previous bone on key press.
// Q/E rotate the selected bone around Z, W/S around X and A/D around Y at a fixed
// angular speed. Space resets the selected bone to identity and R resets every bone.
type PoseController interface {
	// Update applies the held keys to localAnim for a frame lasting dt seconds.
	//
	// Parameters:
	//   - dt: frame duration in seconds
	//   - localAnim: local animation transforms in bone-index order, modified in place
	//
	// Returns:
	//   - bool: true if localAnim changed
	Update(dt float64, localAnim []common.Mat4) bool

	// Selected returns the index of the bone being driven.
	//
	// Returns:
	//   - int: the selected bone index, or -1 if there are no bones
	Selected() int

	// Select sets the bone being driven. Out-of-range indices are ignored.
	//
	// Parameters:
	//   - bone: the bone index
	Select(bone int)

	// SetBoneCount resizes the selectable range, for use after a model reload.
	// The selection is clamped to the new range.
	//
	// Parameters:
	//   - n: the number of bones
	//   - names: optional bone names used in log output
	SetBoneCount(n int, names []string)
}

var _ PoseController = &poseControllerImpl{}

// NewPoseController creates a PoseController reading from keyboard.
//
// Parameters:
//   - keyboard: the key state source
//   - boneCount: the number of bones in the local pose
//   - options: functional options such as WithRotationSpeed
//
// Returns:
//   - PoseController: the created controller
func NewPoseController(keyboard Keyboard, boneCount int, options ...PoseControllerOption) PoseController {
	pc := &poseControllerImpl{
		keyboard: keyboard,
		speed:    DefaultRotationSpeed,
		logger:   common.Logger(),
		axes: []axisBinding{
			{positive: common.KeyQ, negative: common.KeyE, rotate: common.RotateZ},
			{positive: common.KeyW, negative: common.KeyS, rotate: common.RotateX},
			{positive: common.KeyA, negative: common.KeyD, rotate: common.RotateY},
		},
	}
	for _, opt := range options {
		opt(pc)
	}
	pc.SetBoneCount(boneCount, nil)
	return pc
}

func (pc *poseControllerImpl) Selected() int {
	if pc.boneCount == 0 {
		return -1
	}
	return pc.selected
}

func (pc *poseControllerImpl) Select(bone int) {
	if bone >= 0 && bone < pc.boneCount {
		pc.selected = bone
	}
}

func (pc *poseControllerImpl) SetBoneCount(n int, names []string) {
	pc.boneCount = max(n, 0)
	pc.boneNames = names
	if pc.selected >= pc.boneCount {
		pc.selected = 0
	}
}

func (pc *poseControllerImpl) Update(dt float64, localAnim []common.Mat4) bool {
	if pc.keyboard == nil {
		return false
	}
	n := min(pc.boneCount, len(localAnim))

	next := pc.keyboard.IsKeyDown(common.KeyN)
	prev := pc.keyboard.IsKeyDown(common.KeyB)
	all := pc.keyboard.IsKeyDown(common.KeyR)
	pressedNext, pressedPrev, pressedAll := next && !pc.prevNext, prev && !pc.prevPrev, all && !pc.prevAll
	pc.prevNext, pc.prevPrev, pc.prevAll = next, prev, all

	if n == 0 {
		return false
	}

	if pressedNext || pressedPrev {
		if pressedNext {
			pc.selected = (pc.selected + 1) % n
		}
		if pressedPrev {
			pc.selected = (pc.selected + n - 1) % n
		}
		pc.logger.Info("bone selected", "bone", pc.selected, "name", pc.nameOf(pc.selected))
	}
	if pc.selected >= n {
		pc.selected = 0
	}

	changed := false
	if pressedAll {
		common.FillIdentity(localAnim[:n])
		changed = true
	}
	if pc.keyboard.IsKeyDown(common.KeySpace) {
		localAnim[pc.selected] = common.Identity4()
		changed = true
	}

	step := common.DegToRad(pc.speed * float32(dt))
	for _, ax := range pc.axes {
		dir := float32(0)
		if pc.keyboard.IsKeyDown(ax.positive) {
			dir++
		}
		if pc.keyboard.IsKeyDown(ax.negative) {
			dir--
		}
		if dir == 0 || step == 0 {
			continue
		}
		localAnim[pc.selected] = localAnim[pc.selected].Mul(ax.rotate(dir * step))
		changed = true
	}
	return changed
}

func (pc *poseControllerImpl) nameOf(bone int) string {
	if bone < len(pc.boneNames) {
		return pc.boneNames[bone]
	}
	return ""
}
