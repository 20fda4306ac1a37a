package backend

import (
	"errors"

	"github.com/gogpu/streamtex"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotInitialized is returned when operations are called before Init.
	ErrNotInitialized = errors.New("backend: not initialized")
)

// Backend name constants.
const (
	// BackendSoftware is the name of the process-memory backend.
	BackendSoftware = "software"
	// BackendNative is the name of the GPU backend (gogpu/wgpu).
	BackendNative = "native"
)

// BufferBackend supplies the storage-specific pieces of a stream: where
// buffers live, how they become sampleable images, and how release
// fences are implemented.
//
// Backends must be registered via Register() and are selected via
// Get() or Default().
type BufferBackend interface {
	// Name returns the backend identifier (e.g., "software", "native").
	Name() string

	// Init initializes the backend.
	// This should be called before any allocation.
	Init() error

	// Close releases all backend resources.
	// The backend should not be used after Close is called.
	Close()

	// Allocator returns the buffer allocator.
	Allocator() streamtex.Allocator

	// ImageBinder returns the binder that derives sampleable images
	// from buffers, or nil when buffers are directly readable.
	ImageBinder() streamtex.ImageBinder

	// FenceFactory returns the factory for release fences.
	FenceFactory() streamtex.FenceFactory
}

// NewStream creates a stream wired to the default backend. Extra
// options are applied after the backend's own, so callers can still
// override buffer geometry, names, and timeouts.
func NewStream(opts ...streamtex.Option) (*streamtex.Stream, error) {
	b, err := InitDefault()
	if err != nil {
		return nil, err
	}
	base := []streamtex.Option{
		streamtex.WithAllocator(b.Allocator()),
		streamtex.WithFenceFactory(b.FenceFactory()),
	}
	if binder := b.ImageBinder(); binder != nil {
		base = append(base, streamtex.WithImageBinder(binder))
	}
	return streamtex.New(append(base, opts...)...)
}
