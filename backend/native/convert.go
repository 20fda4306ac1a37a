package native

import (
	"github.com/gogpu/gputypes"
	types "github.com/gogpu/gputypes"
)

// convertTextureFormat converts gputypes.TextureFormat to types.TextureFormat.
func convertTextureFormat(format gputypes.TextureFormat) types.TextureFormat {
	switch format {
	case gputypes.TextureFormatRGBA8Unorm:
		return types.TextureFormatRGBA8Unorm
	case gputypes.TextureFormatBGRA8Unorm:
		return types.TextureFormatBGRA8Unorm
	case gputypes.TextureFormatR8Unorm:
		return types.TextureFormatR8Unorm
	default:
		return types.TextureFormatRGBA8Unorm
	}
}

// convertTextureUsage converts gputypes usage flags to types usage flags.
func convertTextureUsage(usage gputypes.TextureUsage) types.TextureUsage {
	var result types.TextureUsage

	if usage&gputypes.TextureUsageCopySrc != 0 {
		result |= types.TextureUsageCopySrc
	}
	if usage&gputypes.TextureUsageCopyDst != 0 {
		result |= types.TextureUsageCopyDst
	}
	if usage&gputypes.TextureUsageTextureBinding != 0 {
		result |= types.TextureUsageTextureBinding
	}
	if usage&gputypes.TextureUsageRenderAttachment != 0 {
		result |= types.TextureUsageRenderAttachment
	}

	return result
}
