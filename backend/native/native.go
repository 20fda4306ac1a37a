package native

import (
	"sync"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/streamtex"
	"github.com/gogpu/streamtex/backend"
)

// Backend backs streams with GPU textures on a HAL device.
type Backend struct {
	device      hal.Device
	queue       hal.Queue
	allocator   *Allocator
	binder      *Binder
	initialized bool
}

// Process-wide default device, used by the registry factory.
var (
	defaultMu     sync.Mutex
	defaultDevice hal.Device
	defaultQueue  hal.Queue
)

// init registers the native backend on package import. The factory
// yields nil until SetDefaultDevice has been called, so the registry
// falls through to the software backend on GPU-less hosts.
func init() {
	backend.Register(backend.BackendNative, func() backend.BufferBackend {
		defaultMu.Lock()
		dev, q := defaultDevice, defaultQueue
		defaultMu.Unlock()
		if dev == nil {
			return nil
		}
		return New(dev, q)
	})
}

// SetDefaultDevice supplies the HAL device and queue the registry
// factory builds backends from. Call it once during GPU bring-up,
// before the first backend.Default().
func SetDefaultDevice(device hal.Device, queue hal.Queue) {
	defaultMu.Lock()
	defaultDevice, defaultQueue = device, queue
	defaultMu.Unlock()
}

// New creates a native backend on an explicit device and queue.
func New(device hal.Device, queue hal.Queue) *Backend {
	return &Backend{device: device, queue: queue}
}

// Name returns the backend identifier.
func (b *Backend) Name() string {
	return backend.BackendNative
}

// Init initializes the backend.
func (b *Backend) Init() error {
	if b.device == nil {
		return ErrNilHALDevice
	}
	b.allocator = NewAllocator(b.device)
	b.binder = NewBinder(b.device)
	b.initialized = true
	return nil
}

// Close releases all backend resources. Buffers already handed out
// stay valid until their own references drop.
func (b *Backend) Close() {
	b.allocator = nil
	b.binder = nil
	b.initialized = false
}

// Allocator returns the texture allocator.
func (b *Backend) Allocator() streamtex.Allocator {
	if b.allocator == nil {
		b.allocator = NewAllocator(b.device)
	}
	return b.allocator
}

// ImageBinder returns the texture view binder.
func (b *Backend) ImageBinder() streamtex.ImageBinder {
	if b.binder == nil {
		b.binder = NewBinder(b.device)
	}
	return b.binder
}

// FenceFactory returns the HAL fence factory.
func (b *Backend) FenceFactory() streamtex.FenceFactory {
	return FenceFactory(b.device, b.queue)
}

var _ backend.BufferBackend = (*Backend)(nil)
