package input

import "github.com/charmbracelet/log"

// PoseControllerOption is a functional option for configuring a PoseController.
type PoseControllerOption func(*poseControllerImpl)

// WithRotationSpeed sets the rotation rate in degrees per second.
//
// Parameters:
//   - degreesPerSecond: the angular speed applied while a rotation key is held
//
// Returns:
//   - PoseControllerOption: option function to apply
func WithRotationSpeed(degreesPerSecond float32) PoseControllerOption {
	return func(pc *poseControllerImpl) {
		pc.speed = degreesPerSecond
	}
}

// WithLogger sets the logger used to report bone selection.
//
// Parameters:
//   - l: the logger
//
// Returns:
//   - PoseControllerOption: option function to apply
func WithLogger(l *log.Logger) PoseControllerOption {
	return func(pc *poseControllerImpl) {
		if l != nil {
			pc.logger = l
		}
	}
}
