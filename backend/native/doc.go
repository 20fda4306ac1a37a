// Package native backs streams with GPU textures via gogpu/wgpu.
//
// The package provides HAL-based implementations of the three backend
// pieces: an allocator creating textures on a hal.Device, an image
// binder deriving sampleable texture views, and fences driven by HAL
// fence submission.
//
// A device must be supplied before the backend is usable, either
// explicitly:
//
//	b := native.New(device, queue)
//
// or process-wide, which also makes backend.Default() prefer it:
//
//	native.SetDefaultDevice(device, queue)
package native
