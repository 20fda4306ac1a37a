package streamtex

import (
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Option configures a Stream during creation.
//
// Example:
//
//	// Default software-allocated triple buffering
//	st, err := streamtex.New()
//
//	// GPU-backed stream (dependency injection)
//	st, err := streamtex.New(
//	    streamtex.WithAllocator(native.NewAllocator(device)),
//	    streamtex.WithImageBinder(native.NewImageBinder()),
//	    streamtex.WithFenceFactory(native.NewFenceFactory(device, queue)),
//	    streamtex.WithDeviceProvider(provider),
//	)
type Option func(*streamOptions)

// streamOptions holds optional configuration for Stream creation.
type streamOptions struct {
	name          string
	bufferCount   int
	allocator     Allocator
	binder        ImageBinder
	provider      gpucontext.DeviceProvider
	fenceFactory  FenceFactory
	fenceTimeout  time.Duration
	defaultWidth  uint32
	defaultHeight uint32
	defaultFormat gputypes.TextureFormat
	consumerUsage gputypes.TextureUsage
	filtering     bool
}

func defaultStreamOptions() streamOptions {
	return streamOptions{
		name:        "streamtex",
		bufferCount: DefaultBufferCount,
		// 1x1 placeholder geometry until SetDefaultBufferSize or an
		// explicit Dequeue size overrides it.
		defaultWidth:  1,
		defaultHeight: 1,
		defaultFormat: gputypes.TextureFormatRGBA8Unorm,
		// The consumer always samples buffers as textures.
		consumerUsage: gputypes.TextureUsageTextureBinding,
		fenceTimeout:  5 * time.Second,
		filtering:     true,
	}
}

// WithName sets the identifier used in log messages.
func WithName(name string) Option {
	return func(o *streamOptions) { o.name = name }
}

// WithBufferCount sets the slot capacity, between 2 and MaxBufferSlots.
func WithBufferCount(n int) Option {
	return func(o *streamOptions) { o.bufferCount = n }
}

// WithAllocator sets the buffer allocator. Defaults to the in-process
// software allocator.
func WithAllocator(a Allocator) Option {
	return func(o *streamOptions) { o.allocator = a }
}

// WithImageBinder sets the binder that derives per-context sampling
// images from buffers. Without a binder the stream skips image creation
// entirely, which is correct for software consumers that read buffer
// pixels directly.
func WithImageBinder(b ImageBinder) Option {
	return func(o *streamOptions) { o.binder = b }
}

// WithDeviceProvider sets the provider used to identify the current
// rendering context. With a provider set, the stream latches the device
// seen by the first UpdateImage and rejects context-affine calls from
// any other device. Without one, context checking is disabled.
func WithDeviceProvider(p gpucontext.DeviceProvider) Option {
	return func(o *streamOptions) { o.provider = p }
}

// WithFenceFactory sets the factory for release fences. Defaults to
// in-process SyncFences; GPU streams install device-level fences from
// backend/native.
func WithFenceFactory(f FenceFactory) Option {
	return func(o *streamOptions) { o.fenceFactory = f }
}

// WithFenceTimeout bounds how long UpdateImage waits on a release fence
// before declaring the slot leaked. Non-positive means wait forever.
// Defaults to 5 seconds.
func WithFenceTimeout(d time.Duration) Option {
	return func(o *streamOptions) { o.fenceTimeout = d }
}

// WithDefaultBufferSize sets the geometry used when Dequeue passes a
// zero width or height.
func WithDefaultBufferSize(width, height uint32) Option {
	return func(o *streamOptions) {
		o.defaultWidth, o.defaultHeight = width, height
	}
}

// WithDefaultBufferFormat sets the format used when Dequeue passes
// TextureFormatUndefined. Defaults to RGBA8.
func WithDefaultBufferFormat(format gputypes.TextureFormat) Option {
	return func(o *streamOptions) { o.defaultFormat = format }
}

// WithConsumerUsage sets usage flags OR'd into every producer request.
// TextureUsageTextureBinding is always included.
func WithConsumerUsage(usage gputypes.TextureUsage) Option {
	return func(o *streamOptions) {
		o.consumerUsage = usage | gputypes.TextureUsageTextureBinding
	}
}

// WithFiltering sets whether transform matrices are computed for use
// with bilinear filtering. Defaults to true. See SetFilteringEnabled.
func WithFiltering(enabled bool) Option {
	return func(o *streamOptions) { o.filtering = enabled }
}
