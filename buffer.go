package streamtex

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// BufferDescriptor describes a buffer to allocate for a slot.
type BufferDescriptor struct {
	// Label is an optional debug name, typically "<stream name>:<slot>".
	Label string

	// Width is the buffer width in pixels.
	Width uint32

	// Height is the buffer height in pixels.
	Height uint32

	// Format is the buffer pixel format.
	Format gputypes.TextureFormat

	// Usage specifies how the buffer will be used. The queue always
	// adds its consumer usage to the producer's request.
	Usage gputypes.TextureUsage
}

// Buffer is one reference-counted frame buffer shared between the
// producer and consumer sides of a queue.
//
// The slot table holds one reference from allocation until the slot is
// freed. The consumer binding holds an extra reference while the buffer
// backs the current frame, which is why the current frame can outlive
// its slot: the buffer stays alive until the last holder releases it.
//
// Buffer contents are opaque to streamtex; the queue never inspects
// pixels.
type Buffer interface {
	// Width returns the buffer width in pixels.
	Width() uint32

	// Height returns the buffer height in pixels.
	Height() uint32

	// Format returns the buffer pixel format.
	Format() gputypes.TextureFormat

	// Usage returns the usage flags the buffer was allocated with.
	Usage() gputypes.TextureUsage

	// Retain adds a reference.
	Retain()

	// Release drops a reference. The implementation frees the backing
	// storage when the last reference is dropped.
	Release()
}

// Allocator creates buffers for queue slots. Implementations live in
// backend/ (software) and backend/native/ (gogpu/wgpu HAL textures) and
// register themselves with the backend registry.
//
// Allocate is called with the queue lock released and may block on the
// underlying device.
type Allocator interface {
	Allocate(desc BufferDescriptor) (Buffer, error)
}

// Image is a consumer-side sampling object derived from a Buffer and
// bound to a specific rendering context -- the HAL texture view for GPU
// buffers, a no-op for software buffers. Images are destroyed on detach
// and whenever their slot is freed; the underlying Buffer survives.
type Image interface {
	Destroy()
}

// ImageBinder creates Images for acquired buffers. The device argument
// is the context the stream is currently attached to; binders must
// create the image against exactly that context so a later detach can
// tear it down without touching other contexts.
type ImageBinder interface {
	CreateImage(dev gpucontext.Device, buf Buffer) (Image, error)
}
