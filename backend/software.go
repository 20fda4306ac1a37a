package backend

import (
	"github.com/gogpu/streamtex"
)

// SoftwareBackend backs streams with ordinary process memory. Buffers
// are directly readable, so no image binder is needed, and release
// fences are plain in-process fences.
type SoftwareBackend struct {
	initialized bool
	allocator   *streamtex.SoftwareAllocator
}

// init registers the software backend on package import.
func init() {
	Register(BackendSoftware, func() BufferBackend {
		return &SoftwareBackend{}
	})
}

// NewSoftwareBackend creates a new software buffer backend.
func NewSoftwareBackend() *SoftwareBackend {
	return &SoftwareBackend{}
}

// Name returns the backend identifier.
func (b *SoftwareBackend) Name() string {
	return BackendSoftware
}

// Init initializes the backend.
func (b *SoftwareBackend) Init() error {
	b.allocator = streamtex.NewSoftwareAllocator()
	b.initialized = true
	return nil
}

// Close releases all backend resources.
func (b *SoftwareBackend) Close() {
	b.allocator = nil
	b.initialized = false
}

// Allocator returns the software buffer allocator.
func (b *SoftwareBackend) Allocator() streamtex.Allocator {
	if b.allocator == nil {
		b.allocator = streamtex.NewSoftwareAllocator()
	}
	return b.allocator
}

// ImageBinder returns nil: software buffers are read directly.
func (b *SoftwareBackend) ImageBinder() streamtex.ImageBinder {
	return nil
}

// FenceFactory returns the in-process fence factory.
func (b *SoftwareBackend) FenceFactory() streamtex.FenceFactory {
	return func() streamtex.Fence { return streamtex.NewSyncFence() }
}
