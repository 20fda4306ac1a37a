package streamtex

import (
	"fmt"
	"image"
	"sync/atomic"

	"github.com/gogpu/gputypes"
)

// SoftwareBuffer is a Buffer backed by ordinary process memory. It is
// the storage the default allocator hands out, and what the software
// compositor in backend/ reads.
type SoftwareBuffer struct {
	refs   atomic.Int32
	label  string
	pix    []uint8
	stride int
	width  uint32
	height uint32
	format gputypes.TextureFormat
	usage  gputypes.TextureUsage
}

// Width returns the buffer width in pixels.
func (b *SoftwareBuffer) Width() uint32 { return b.width }

// Height returns the buffer height in pixels.
func (b *SoftwareBuffer) Height() uint32 { return b.height }

// Format returns the buffer pixel format.
func (b *SoftwareBuffer) Format() gputypes.TextureFormat { return b.format }

// Usage returns the usage flags the buffer was allocated with.
func (b *SoftwareBuffer) Usage() gputypes.TextureUsage { return b.usage }

// Pix returns the raw pixel storage. Rows are Stride bytes apart.
// Producers write frames here between Dequeue and Enqueue; consumers
// read between UpdateImage and signaling the release fence.
func (b *SoftwareBuffer) Pix() []uint8 { return b.pix }

// Stride returns the distance in bytes between vertically adjacent
// pixels.
func (b *SoftwareBuffer) Stride() int { return b.stride }

// RGBA wraps the pixel storage in an *image.RGBA sharing the same
// memory. Only valid for RGBA8; other formats return nil.
func (b *SoftwareBuffer) RGBA() *image.RGBA {
	if b.format != gputypes.TextureFormatRGBA8Unorm {
		return nil
	}
	return &image.RGBA{
		Pix:    b.pix,
		Stride: b.stride,
		Rect:   image.Rect(0, 0, int(b.width), int(b.height)),
	}
}

// Retain adds a reference.
func (b *SoftwareBuffer) Retain() { b.refs.Add(1) }

// Release drops a reference and frees the pixel storage when the last
// one goes.
func (b *SoftwareBuffer) Release() {
	n := b.refs.Add(-1)
	if n == 0 {
		b.pix = nil
		return
	}
	if n < 0 {
		Logger().Warn("buffer over-released", "buffer", b.label)
	}
}

var _ Buffer = (*SoftwareBuffer)(nil)

// softwareFormatBytes returns the bytes per pixel for formats the
// software allocator can back, or 0 for unsupported ones.
func softwareFormatBytes(format gputypes.TextureFormat) int {
	switch format {
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatBGRA8Unorm:
		return 4
	case gputypes.TextureFormatR8Unorm:
		return 1
	default:
		return 0
	}
}

// SoftwareAllocator allocates SoftwareBuffers. It is the default
// allocator for streams created without WithAllocator and the fallback
// registered with the backend registry.
type SoftwareAllocator struct{}

// NewSoftwareAllocator returns a software allocator.
func NewSoftwareAllocator() *SoftwareAllocator { return &SoftwareAllocator{} }

// Allocate creates a zero-filled buffer with one reference, owned by the
// calling slot.
func (*SoftwareAllocator) Allocate(desc BufferDescriptor) (Buffer, error) {
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("invalid buffer size %dx%d", desc.Width, desc.Height)
	}
	bpp := softwareFormatBytes(desc.Format)
	if bpp == 0 {
		return nil, fmt.Errorf("unsupported software buffer format %v", desc.Format)
	}
	stride := int(desc.Width) * bpp
	b := &SoftwareBuffer{
		label:  desc.Label,
		pix:    make([]uint8, stride*int(desc.Height)),
		stride: stride,
		width:  desc.Width,
		height: desc.Height,
		format: desc.Format,
		usage:  desc.Usage,
	}
	b.refs.Store(1)
	return b, nil
}

var _ Allocator = (*SoftwareAllocator)(nil)
