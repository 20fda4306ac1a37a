// Package backend provides a pluggable buffer backend abstraction.
//
// The backend package decouples stream creation from the storage that
// backs its buffers. A backend bundles the three pieces a stream needs
// to operate against a particular kind of memory: an allocator for the
// buffers themselves, an image binder turning buffers into sampleable
// images, and a fence factory for release synchronization.
//
// # Backend Registration
//
// Backends are registered via init() functions and selected at runtime.
// The software backend is automatically registered on import:
//
//	import _ "github.com/gogpu/streamtex/backend"
//
// The GPU backend registers itself when its package is imported and a
// HAL device has been supplied:
//
//	import _ "github.com/gogpu/streamtex/backend/native"
//
// # Backend Selection
//
// Use Default() to get the best available backend, or Get() to request
// a specific backend by name:
//
//	b := backend.Default()
//
//	b := backend.Get("software")
//
// # Usage
//
// NewStream creates a stream wired to the default backend:
//
//	st, err := backend.NewStream(
//		streamtex.WithDefaultBufferSize(1920, 1080),
//	)
//
// # Available Backends
//
// - "software": process-memory buffers (always available)
// - "native": GPU textures via gogpu/wgpu
package backend
