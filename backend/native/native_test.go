package native

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/streamtex"
	"github.com/gogpu/streamtex/backend"
)

func TestBackendName(t *testing.T) {
	b := New(nil, nil)
	if b.Name() != backend.BackendNative {
		t.Errorf("Name() = %q, want %q", b.Name(), backend.BackendNative)
	}
}

func TestBackendInitNilDevice(t *testing.T) {
	b := New(nil, nil)
	if err := b.Init(); !errors.Is(err, ErrNilHALDevice) {
		t.Fatalf("Init() = %v, want ErrNilHALDevice", err)
	}
}

func TestRegistryFallsThroughWithoutDevice(t *testing.T) {
	// Without SetDefaultDevice the native factory yields nil, so the
	// registry must fall through to software.
	if !backend.IsRegistered(backend.BackendNative) {
		t.Fatal("native backend not registered")
	}
	if b := backend.Get(backend.BackendNative); b != nil {
		t.Fatalf("Get(native) = %v, want nil without a device", b.Name())
	}
	d := backend.Default()
	if d == nil {
		t.Fatal("Default() returned nil")
	}
	if d.Name() != backend.BackendSoftware {
		t.Errorf("Default().Name() = %q, want %q", d.Name(), backend.BackendSoftware)
	}
}

func TestAllocatorNilDevice(t *testing.T) {
	a := NewAllocator(nil)
	desc := streamtex.BufferDescriptor{
		Width:  16,
		Height: 16,
		Format: gputypes.TextureFormatRGBA8Unorm,
		Usage:  gputypes.TextureUsageTextureBinding,
	}
	if _, err := a.Allocate(desc); !errors.Is(err, ErrNilHALDevice) {
		t.Fatalf("Allocate = %v, want ErrNilHALDevice", err)
	}
}
