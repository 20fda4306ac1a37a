// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package streamtex

import "github.com/gogpu/gputypes"

// Texture coordinate transforms are 4x4 matrices stored column-major so
// they can be handed directly to a GPU uniform. They map homogeneous
// texture coordinates (s, t, 0, 1), with s and t in [0, 1], to the
// coordinate that should be used to sample the current buffer. Sampling
// outside the transformed unit square is undefined.

var (
	mtxIdentity = [16]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
	mtxFlipH = [16]float32{
		-1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		1, 0, 0, 1,
	}
	mtxFlipV = [16]float32{
		1, 0, 0, 0,
		0, -1, 0, 0,
		0, 0, 1, 0,
		0, 1, 0, 1,
	}
	mtxRot90 = [16]float32{
		0, 1, 0, 0,
		-1, 0, 0, 0,
		0, 0, 1, 0,
		1, 0, 0, 1,
	}
)

// mtxMul computes the column-major product a*b.
func mtxMul(a, b [16]float32) [16]float32 {
	var out [16]float32
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += a[k*4+row] * b[col*4+k]
			}
			out[col*4+row] = sum
		}
	}
	return out
}

// filterShrink returns how far, in texels, the crop rectangle must be
// shrunk on each edge to keep bilinear sampling from reading past the
// crop. Formats with full-resolution channels need half a texel; formats
// with subsampled channels need a whole one.
func filterShrink(format gputypes.TextureFormat) float32 {
	switch format {
	case gputypes.TextureFormatRGBA8Unorm,
		gputypes.TextureFormatBGRA8Unorm,
		gputypes.TextureFormatR8Unorm:
		return 0.5
	default:
		return 1.0
	}
}

// computeTransformMatrix derives the texture coordinate transform for a
// frame from its transform flags, crop rectangle, and buffer geometry.
//
// This is a pure function: identical inputs always yield bit-identical
// matrices. Downstream samplers rely on that reproducibility, so any
// change here is a breaking change even when the difference is below
// visual tolerance.
//
// The construction composes three stages:
//  1. the producer's flip/rotation flags,
//  2. a scale/translate confining sampling to the crop rectangle
//     (shrunk per filterShrink when filtering is enabled),
//  3. a final vertical flip, because buffers store rows top-down while
//     texture t-coordinates grow bottom-up.
func computeTransformMatrix(t Transform, bufW, bufH uint32, crop Rect, filtering bool, format gputypes.TextureFormat) [16]float32 {
	xform := mtxIdentity
	if t&TransformFlipH != 0 {
		xform = mtxMul(xform, mtxFlipH)
	}
	if t&TransformFlipV != 0 {
		xform = mtxMul(xform, mtxFlipV)
	}
	if t&TransformRot90 != 0 {
		xform = mtxMul(xform, mtxRot90)
	}

	var tx, ty float32 = 0, 0
	var sx, sy float32 = 1, 1
	if !crop.IsEmpty() && bufW > 0 && bufH > 0 {
		var shrink float32
		if filtering {
			shrink = filterShrink(format)
		}
		w := float32(bufW)
		h := float32(bufH)
		if crop.Width() < int32(bufW) {
			tx = (float32(crop.Left) + shrink) / w
			sx = (float32(crop.Width()) - 2*shrink) / w
		}
		if crop.Height() < int32(bufH) {
			ty = (float32(int32(bufH)-crop.Bottom) + shrink) / h
			sy = (float32(crop.Height()) - 2*shrink) / h
		}
	}
	cropMtx := [16]float32{
		sx, 0, 0, 0,
		0, sy, 0, 0,
		0, 0, 1, 0,
		tx, ty, 0, 1,
	}

	m := mtxMul(cropMtx, xform)
	return mtxMul(mtxFlipV, m)
}
