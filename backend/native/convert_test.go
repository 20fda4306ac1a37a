package native

import (
	"testing"

	"github.com/gogpu/gputypes"
	types "github.com/gogpu/gputypes"
)

func TestConvertTextureFormat(t *testing.T) {
	tests := []struct {
		in   gputypes.TextureFormat
		want types.TextureFormat
	}{
		{gputypes.TextureFormatRGBA8Unorm, types.TextureFormatRGBA8Unorm},
		{gputypes.TextureFormatBGRA8Unorm, types.TextureFormatBGRA8Unorm},
		{gputypes.TextureFormatR8Unorm, types.TextureFormatR8Unorm},
		// Unknown formats fall back to RGBA8.
		{gputypes.TextureFormatUndefined, types.TextureFormatRGBA8Unorm},
	}
	for _, tt := range tests {
		if got := convertTextureFormat(tt.in); got != tt.want {
			t.Errorf("convertTextureFormat(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestConvertTextureUsage(t *testing.T) {
	tests := []struct {
		in   gputypes.TextureUsage
		want types.TextureUsage
	}{
		{0, 0},
		{gputypes.TextureUsageCopySrc, types.TextureUsageCopySrc},
		{gputypes.TextureUsageCopyDst, types.TextureUsageCopyDst},
		{gputypes.TextureUsageTextureBinding, types.TextureUsageTextureBinding},
		{gputypes.TextureUsageRenderAttachment, types.TextureUsageRenderAttachment},
		{
			gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
			types.TextureUsageTextureBinding | types.TextureUsageCopyDst,
		},
	}
	for _, tt := range tests {
		if got := convertTextureUsage(tt.in); got != tt.want {
			t.Errorf("convertTextureUsage(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
