package native

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/streamtex"
)

// mockHALDevice is a test double for hal.Device.
type mockHALDevice struct {
	createTextureFunc     func(*hal.TextureDescriptor) (hal.Texture, error)
	createTextureViewFunc func(hal.Texture, *hal.TextureViewDescriptor) (hal.TextureView, error)

	texturesCreated   int32
	texturesDestroyed int32
	viewsCreated      int32
	viewsDestroyed    int32
}

//nolint:nilnil // Mock: intentionally returns nil for unused interface methods.
func (d *mockHALDevice) CreateBuffer(_ *hal.BufferDescriptor) (hal.Buffer, error) {
	return nil, nil
}

func (d *mockHALDevice) DestroyBuffer(_ hal.Buffer) {}

func (d *mockHALDevice) CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error) {
	atomic.AddInt32(&d.texturesCreated, 1)
	if d.createTextureFunc != nil {
		return d.createTextureFunc(desc)
	}
	return &mockHALTexture{
		width:  desc.Size.Width,
		height: desc.Size.Height,
	}, nil
}

func (d *mockHALDevice) DestroyTexture(_ hal.Texture) {
	atomic.AddInt32(&d.texturesDestroyed, 1)
}

func (d *mockHALDevice) CreateTextureView(texture hal.Texture, desc *hal.TextureViewDescriptor) (hal.TextureView, error) {
	atomic.AddInt32(&d.viewsCreated, 1)
	if d.createTextureViewFunc != nil {
		return d.createTextureViewFunc(texture, desc)
	}
	return &mockHALTextureView{texture: texture, label: desc.Label}, nil
}

func (d *mockHALDevice) DestroyTextureView(_ hal.TextureView) {
	atomic.AddInt32(&d.viewsDestroyed, 1)
}

// Remaining hal.Device methods are no-ops; buffer tests never reach them.

//nolint:nilnil // Mock: unused interface methods.
func (d *mockHALDevice) CreateSampler(_ *hal.SamplerDescriptor) (hal.Sampler, error) {
	return nil, nil
}
func (d *mockHALDevice) DestroySampler(_ hal.Sampler) {}

//nolint:nilnil // Mock: unused interface methods.
func (d *mockHALDevice) CreateBindGroupLayout(_ *hal.BindGroupLayoutDescriptor) (hal.BindGroupLayout, error) {
	return nil, nil
}
func (d *mockHALDevice) DestroyBindGroupLayout(_ hal.BindGroupLayout) {}

//nolint:nilnil // Mock: unused interface methods.
func (d *mockHALDevice) CreateBindGroup(_ *hal.BindGroupDescriptor) (hal.BindGroup, error) {
	return nil, nil
}
func (d *mockHALDevice) DestroyBindGroup(_ hal.BindGroup) {}

//nolint:nilnil // Mock: unused interface methods.
func (d *mockHALDevice) CreatePipelineLayout(_ *hal.PipelineLayoutDescriptor) (hal.PipelineLayout, error) {
	return nil, nil
}
func (d *mockHALDevice) DestroyPipelineLayout(_ hal.PipelineLayout) {}

//nolint:nilnil // Mock: unused interface methods.
func (d *mockHALDevice) CreateShaderModule(_ *hal.ShaderModuleDescriptor) (hal.ShaderModule, error) {
	return nil, nil
}
func (d *mockHALDevice) DestroyShaderModule(_ hal.ShaderModule) {}

//nolint:nilnil // Mock: unused interface methods.
func (d *mockHALDevice) CreateRenderPipeline(_ *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	return nil, nil
}
func (d *mockHALDevice) DestroyRenderPipeline(_ hal.RenderPipeline) {}

//nolint:nilnil // Mock: unused interface methods.
func (d *mockHALDevice) CreateComputePipeline(_ *hal.ComputePipelineDescriptor) (hal.ComputePipeline, error) {
	return nil, nil
}
func (d *mockHALDevice) DestroyComputePipeline(_ hal.ComputePipeline) {}

//nolint:nilnil // Mock: unused interface methods.
func (d *mockHALDevice) CreateCommandEncoder(_ *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	return nil, nil
}

//nolint:nilnil // Mock: unused interface methods.
func (d *mockHALDevice) CreateQuerySet(_ *hal.QuerySetDescriptor) (hal.QuerySet, error) {
	return nil, nil
}
func (d *mockHALDevice) DestroyQuerySet(_ hal.QuerySet) {}

//nolint:nilnil // Mock: unused interface methods.
func (d *mockHALDevice) CreateRenderBundleEncoder(_ *hal.RenderBundleEncoderDescriptor) (hal.RenderBundleEncoder, error) {
	return nil, nil
}
func (d *mockHALDevice) DestroyRenderBundle(_ hal.RenderBundle) {}

func (d *mockHALDevice) FreeCommandBuffer(_ hal.CommandBuffer) {}

//nolint:nilnil // Mock: unused interface methods.
func (d *mockHALDevice) CreateFence() (hal.Fence, error) { return nil, nil }
func (d *mockHALDevice) DestroyFence(_ hal.Fence)        {}
func (d *mockHALDevice) Wait(_ hal.Fence, _ uint64, _ time.Duration) (bool, error) {
	return true, nil
}
func (d *mockHALDevice) ResetFence(_ hal.Fence) error { return nil }
func (d *mockHALDevice) GetFenceStatus(_ hal.Fence) (bool, error) {
	return true, nil
}
func (d *mockHALDevice) WaitIdle() error { return nil }
func (d *mockHALDevice) Destroy()        {}

var _ hal.Device = (*mockHALDevice)(nil)

// mockHALTexture is a test double for hal.Texture.
type mockHALTexture struct {
	width  uint32
	height uint32
}

func (t *mockHALTexture) Destroy()              {}
func (t *mockHALTexture) NativeHandle() uintptr { return 0 }

// mockHALTextureView is a test double for hal.TextureView.
type mockHALTextureView struct {
	texture hal.Texture
	label   string
}

func (v *mockHALTextureView) Destroy()              {}
func (v *mockHALTextureView) NativeHandle() uintptr { return 0 }

func allocTestBuffer(t *testing.T, device *mockHALDevice) streamtex.Buffer {
	t.Helper()
	a := NewAllocator(device)
	buf, err := a.Allocate(streamtex.BufferDescriptor{
		Label:  "test-buffer",
		Width:  64,
		Height: 64,
		Format: gputypes.TextureFormatRGBA8Unorm,
		Usage:  gputypes.TextureUsageTextureBinding,
	})
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	return buf
}

func TestTextureBufferLifecycle(t *testing.T) {
	device := &mockHALDevice{}
	buf := allocTestBuffer(t, device)

	tb := buf.(*TextureBuffer)
	if _, err := tb.Raw(); err != nil {
		t.Fatalf("Raw on live buffer: %v", err)
	}
	if buf.Width() != 64 || buf.Height() != 64 {
		t.Errorf("buffer size = %dx%d, want 64x64", buf.Width(), buf.Height())
	}

	// A second holder keeps the texture alive past the first release.
	buf.Retain()
	buf.Release()
	if got := atomic.LoadInt32(&device.texturesDestroyed); got != 0 {
		t.Fatalf("texture destroyed with a reference outstanding (%d destroys)", got)
	}

	buf.Release()
	if got := atomic.LoadInt32(&device.texturesDestroyed); got != 1 {
		t.Fatalf("texturesDestroyed = %d after final release, want 1", got)
	}
	if _, err := tb.Raw(); !errors.Is(err, ErrBufferDestroyed) {
		t.Fatalf("Raw after final release = %v, want ErrBufferDestroyed", err)
	}
}

func TestBinderReleasedBuffer(t *testing.T) {
	device := &mockHALDevice{}
	buf := allocTestBuffer(t, device)
	buf.Release()

	b := NewBinder(device)
	if _, err := b.CreateImage(nil, buf); !errors.Is(err, ErrBufferDestroyed) {
		t.Fatalf("CreateImage on released buffer = %v, want ErrBufferDestroyed", err)
	}
	if got := atomic.LoadInt32(&device.viewsCreated); got != 0 {
		t.Errorf("viewsCreated = %d for a released buffer, want 0", got)
	}
}

func TestBinderCreatesAndDestroysView(t *testing.T) {
	device := &mockHALDevice{}
	buf := allocTestBuffer(t, device)

	b := NewBinder(device)
	img, err := b.CreateImage(nil, buf)
	if err != nil {
		t.Fatalf("CreateImage: %v", err)
	}
	if got := atomic.LoadInt32(&device.viewsCreated); got != 1 {
		t.Fatalf("viewsCreated = %d, want 1", got)
	}
	img.Destroy()
	if got := atomic.LoadInt32(&device.viewsDestroyed); got != 1 {
		t.Fatalf("viewsDestroyed = %d, want 1", got)
	}
}
