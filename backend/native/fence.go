package native

import (
	"fmt"
	"time"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/streamtex"
)

// fenceValue is the value a HAL fence is signaled to. Each streamtex
// fence is single-shot, so one value suffices.
const fenceValue = 1

// Fence is a streamtex.Fence driven by a HAL fence. Signal submits the
// signal through the device queue, so it orders after all GPU work
// submitted before it; Wait blocks on the device.
type Fence struct {
	device hal.Device
	queue  hal.Queue
	fence  hal.Fence
}

// NewFence creates a HAL-backed fence.
func NewFence(device hal.Device, queue hal.Queue) (*Fence, error) {
	f, err := device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("native: create fence: %w", err)
	}
	return &Fence{device: device, queue: queue, fence: f}, nil
}

// Signal queues a signal operation behind all previously submitted GPU
// work. Errors during submission are logged; a fence that fails to
// signal surfaces as a timeout at the waiter.
func (f *Fence) Signal() {
	if err := f.queue.Submit(nil, f.fence, fenceValue); err != nil {
		streamtex.Logger().Error("fence signal submit failed", "err", err)
	}
}

// Wait blocks until the fence signals or the timeout expires. A
// timeout of zero or less waits with the device's maximum wait.
func (f *Fence) Wait(timeout time.Duration) error {
	if timeout <= 0 {
		timeout = time.Duration(1<<63 - 1)
	}
	ok, err := f.device.Wait(f.fence, fenceValue, timeout)
	if err != nil {
		return fmt.Errorf("native: fence wait: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w after %v", streamtex.ErrFenceTimeout, timeout)
	}
	return nil
}

// Signaled reports whether the fence has signaled, without blocking.
func (f *Fence) Signaled() bool {
	ok, err := f.device.Wait(f.fence, fenceValue, 0)
	return err == nil && ok
}

// Destroy releases the HAL fence. The queue calls this through the
// optional destroyer interface when it drops its last reference to the
// fence.
func (f *Fence) Destroy() {
	f.device.DestroyFence(f.fence)
}

var _ streamtex.Fence = (*Fence)(nil)

// FenceFactory returns a streamtex.FenceFactory creating HAL-backed
// fences on the given device and queue. Creation failures fall back to
// an in-process fence so the stream stays operational; the GPU ordering
// guarantee is lost for that frame only.
func FenceFactory(device hal.Device, queue hal.Queue) streamtex.FenceFactory {
	return func() streamtex.Fence {
		f, err := NewFence(device, queue)
		if err != nil {
			streamtex.Logger().Warn("HAL fence creation failed, using in-process fence", "err", err)
			return streamtex.NewSyncFence()
		}
		return f
	}
}
