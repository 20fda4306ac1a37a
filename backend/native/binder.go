package native

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"
	types "github.com/gogpu/gputypes"

	"github.com/gogpu/streamtex"
)

// textureImage is a sampleable view over a TextureBuffer.
type textureImage struct {
	device hal.Device
	view   hal.TextureView
}

func (i *textureImage) Destroy() {
	i.device.DestroyTextureView(i.view)
}

// Binder derives texture views from TextureBuffers. The stream caches
// one image per slot and destroys them on detach, so view creation
// happens once per slot per attachment.
type Binder struct {
	device hal.Device
}

// NewBinder returns a binder creating views on device.
func NewBinder(device hal.Device) *Binder {
	return &Binder{device: device}
}

// CreateImage creates the default sampling view for buf.
func (b *Binder) CreateImage(dev gpucontext.Device, buf streamtex.Buffer) (streamtex.Image, error) {
	if b.device == nil {
		return nil, ErrNilHALDevice
	}
	tb, ok := buf.(*TextureBuffer)
	if !ok {
		return nil, fmt.Errorf("native: buffer is %T, want texture", buf)
	}

	// Zero values inherit format and dimension from the texture.
	halDesc := &hal.TextureViewDescriptor{
		Label:           tb.label + " (stream view)",
		Format:          types.TextureFormatUndefined,
		Dimension:       types.TextureViewDimensionUndefined,
		Aspect:          types.TextureAspectAll,
		BaseMipLevel:    0,
		MipLevelCount:   0,
		BaseArrayLayer:  0,
		ArrayLayerCount: 0,
	}
	tex, err := tb.Raw()
	if err != nil {
		return nil, err
	}
	view, err := b.device.CreateTextureView(tex, halDesc)
	if err != nil {
		return nil, fmt.Errorf("native: create texture view: %w", err)
	}
	return &textureImage{device: b.device, view: view}, nil
}

var _ streamtex.ImageBinder = (*Binder)(nil)
