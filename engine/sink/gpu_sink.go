package sink

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-skin/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// GPUSink uploads bone matrices into a uniform buffer sized for a fixed number of bones.
// Unused trailing slots keep whatever was last written to them.
type GPUSink struct {
	mu       *sync.Mutex
	buffer   *wgpu.Buffer
	queue    *wgpu.Queue
	capacity int
}

var _ Sink = &GPUSink{}

// NewGPUSink creates the bone matrix buffer on the given device.
//
// Parameters:
//   - device: the device that owns the buffer
//   - label: the debug label of the buffer
//   - maxBones: the number of matrices the buffer holds
//
// Returns:
//   - *GPUSink: the created sink
//   - error: an error if maxBones is not positive or buffer creation fails
func NewGPUSink(device *wgpu.Device, label string, maxBones int) (*GPUSink, error) {
	if device == nil {
		return nil, fmt.Errorf("gpu sink %q: device is nil", label)
	}
	if maxBones <= 0 {
		return nil, fmt.Errorf("gpu sink %q: max bones must be positive, got %d", label, maxBones)
	}

	buf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label,
		Size:             uint64(maxBones * MatrixSize),
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu sink %q: create buffer: %w", label, err)
	}
	return &GPUSink{
		mu:       &sync.Mutex{},
		buffer:   buf,
		queue:    device.GetQueue(),
		capacity: maxBones,
	}, nil
}

func (s *GPUSink) Write(boneMats []common.Mat4) error {
	if err := checkCapacity(len(boneMats), s.capacity); err != nil {
		return err
	}
	if len(boneMats) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buffer == nil {
		return fmt.Errorf("gpu sink: buffer released")
	}
	// WriteBuffer copies the data before returning, so the view into boneMats is safe.
	s.queue.WriteBuffer(s.buffer, 0, common.SliceToBytes(boneMats))
	return nil
}

func (s *GPUSink) Capacity() int {
	return s.capacity
}

// Buffer returns the underlying uniform buffer for bind group creation.
func (s *GPUSink) Buffer() *wgpu.Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffer
}

// Release frees the GPU buffer. Further writes fail.
func (s *GPUSink) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buffer != nil {
		s.buffer.Release()
		s.buffer = nil
	}
}

// Device bundles a surfaceless adapter and device for headless uploads.
type Device struct {
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
}

// NewHeadlessDevice acquires a device without a presentation surface.
//
// Parameters:
//   - forceFallbackAdapter: request the software fallback adapter
//
// Returns:
//   - *Device: the acquired instance, adapter and device
//   - error: an error if no adapter or device is available
func NewHeadlessDevice(forceFallbackAdapter bool) (*Device, error) {
	runtime.LockOSThread()
	instance := wgpu.CreateInstance(nil)

	a, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("request adapter: %w", err)
	}

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Skin Device",
	})
	if err != nil {
		a.Release()
		instance.Release()
		return nil, fmt.Errorf("request device: %w", err)
	}
	return &Device{Instance: instance, Adapter: a, Device: d}, nil
}

// Release frees the device, adapter and instance.
func (d *Device) Release() {
	if d.Device != nil {
		d.Device.Release()
	}
	if d.Adapter != nil {
		d.Adapter.Release()
	}
	if d.Instance != nil {
		d.Instance.Release()
	}
}
