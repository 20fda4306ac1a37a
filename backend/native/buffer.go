// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	types "github.com/gogpu/gputypes"

	"github.com/gogpu/streamtex"
)

// TextureBuffer is a streamtex.Buffer backed by a GPU texture. The last
// Release destroys the texture on its device.
type TextureBuffer struct {
	refs    atomic.Int32
	device  hal.Device
	texture hal.Texture
	label   string
	width   uint32
	height  uint32
	format  gputypes.TextureFormat
	usage   gputypes.TextureUsage
}

// Width returns the texture width in pixels.
func (b *TextureBuffer) Width() uint32 { return b.width }

// Height returns the texture height in pixels.
func (b *TextureBuffer) Height() uint32 { return b.height }

// Format returns the buffer pixel format.
func (b *TextureBuffer) Format() gputypes.TextureFormat { return b.format }

// Usage returns the usage flags the buffer was allocated with.
func (b *TextureBuffer) Usage() gputypes.TextureUsage { return b.usage }

// Raw returns the underlying HAL texture for command encoding. The
// handle is only valid while the caller holds a reference; once the
// last reference is gone, Raw returns ErrBufferDestroyed.
func (b *TextureBuffer) Raw() (hal.Texture, error) {
	if b.texture == nil {
		return nil, fmt.Errorf("%w: %q", ErrBufferDestroyed, b.label)
	}
	return b.texture, nil
}

// Retain adds a reference.
func (b *TextureBuffer) Retain() { b.refs.Add(1) }

// Release drops a reference and destroys the texture when the last one
// goes.
func (b *TextureBuffer) Release() {
	n := b.refs.Add(-1)
	if n == 0 {
		tex := b.texture
		b.texture = nil
		if tex != nil {
			b.device.DestroyTexture(tex)
		}
		return
	}
	if n < 0 {
		streamtex.Logger().Warn("texture buffer over-released", "buffer", b.label)
	}
}

var _ streamtex.Buffer = (*TextureBuffer)(nil)

// Allocator creates TextureBuffers on a HAL device.
type Allocator struct {
	device hal.Device
}

// NewAllocator returns an allocator creating textures on device.
func NewAllocator(device hal.Device) *Allocator {
	return &Allocator{device: device}
}

// Allocate creates a GPU texture with one reference, owned by the
// calling slot.
func (a *Allocator) Allocate(desc streamtex.BufferDescriptor) (streamtex.Buffer, error) {
	if a.device == nil {
		return nil, ErrNilHALDevice
	}
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidTextureSize, desc.Width, desc.Height)
	}

	halDesc := &hal.TextureDescriptor{
		Label: desc.Label,
		Size: hal.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     types.TextureDimension2D,
		Format:        convertTextureFormat(desc.Format),
		Usage:         convertTextureUsage(desc.Usage),
	}
	texture, err := a.device.CreateTexture(halDesc)
	if err != nil {
		return nil, fmt.Errorf("native: create texture: %w", err)
	}

	b := &TextureBuffer{
		device:  a.device,
		texture: texture,
		label:   desc.Label,
		width:   desc.Width,
		height:  desc.Height,
		format:  desc.Format,
		usage:   desc.Usage,
	}
	b.refs.Store(1)
	return b, nil
}

var _ streamtex.Allocator = (*Allocator)(nil)
