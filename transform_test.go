package streamtex

import (
	"testing"

	"github.com/gogpu/gputypes"
)

// applyMtx maps a texture coordinate (s, t) through a column-major
// transform matrix.
func applyMtx(m [16]float32, s, t float32) (float32, float32) {
	return m[0]*s + m[4]*t + m[12], m[1]*s + m[5]*t + m[13]
}

func TestTransformMatrixMappings(t *testing.T) {
	fullCrop := Rect{}
	tests := []struct {
		name      string
		transform Transform
		// input coordinate and where it must land
		s, t   float32
		wantS  float32
		wantT  float32
	}{
		// With no transform the matrix only flips t: buffer rows are
		// stored top-down, texture t grows bottom-up.
		{"none origin", TransformNone, 0, 0, 0, 1},
		{"none far corner", TransformNone, 1, 1, 1, 0},
		{"flipH origin", TransformFlipH, 0, 0, 1, 1},
		{"flipH s-axis", TransformFlipH, 1, 0, 0, 1},
		{"flipV origin", TransformFlipV, 0, 0, 0, 0},
		{"flipV far corner", TransformFlipV, 1, 1, 1, 1},
		{"rot90 origin", TransformRot90, 0, 0, 1, 1},
		{"rot90 s-axis", TransformRot90, 1, 0, 1, 0},
		{"rot180 origin", TransformRot180, 0, 0, 1, 0},
		{"rot270 origin", TransformRot270, 0, 0, 0, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := computeTransformMatrix(tc.transform, 64, 64, fullCrop, false,
				gputypes.TextureFormatRGBA8Unorm)
			gotS, gotT := applyMtx(m, tc.s, tc.t)
			if gotS != tc.wantS || gotT != tc.wantT {
				t.Errorf("transform %s maps (%v,%v) to (%v,%v), want (%v,%v)",
					tc.transform, tc.s, tc.t, gotS, gotT, tc.wantS, tc.wantT)
			}
		})
	}
}

func TestTransformMatrixCrop(t *testing.T) {
	// 32x32 crop centered in a 64x64 buffer, no filtering: sampling is
	// confined to [0.25, 0.75] on both axes, with t still flipped.
	crop := Rect{Left: 16, Top: 16, Right: 48, Bottom: 48}
	m := computeTransformMatrix(TransformNone, 64, 64, crop, false,
		gputypes.TextureFormatRGBA8Unorm)

	if m[0] != 0.5 || m[5] != -0.5 || m[12] != 0.25 || m[13] != 0.75 {
		t.Errorf("crop matrix = scale(%v,%v) translate(%v,%v), want scale(0.5,-0.5) translate(0.25,0.75)",
			m[0], m[5], m[12], m[13])
	}

	gotS, gotT := applyMtx(m, 0, 0)
	if gotS != 0.25 || gotT != 0.75 {
		t.Errorf("crop maps (0,0) to (%v,%v), want (0.25,0.75)", gotS, gotT)
	}
}

func TestTransformMatrixFilteringShrink(t *testing.T) {
	crop := Rect{Left: 16, Top: 16, Right: 48, Bottom: 48}

	// RGBA shrinks the crop by half a texel per edge.
	m := computeTransformMatrix(TransformNone, 64, 64, crop, true,
		gputypes.TextureFormatRGBA8Unorm)
	wantSx := float32(32-1) / 64
	wantTx := float32(16+0.5) / 64
	if m[0] != wantSx || m[12] != wantTx {
		t.Errorf("filtered RGBA crop: sx=%v tx=%v, want sx=%v tx=%v", m[0], m[12], wantSx, wantTx)
	}

	// Unknown formats are treated as subsampled: a whole texel per edge.
	m = computeTransformMatrix(TransformNone, 64, 64, crop, true,
		gputypes.TextureFormatUndefined)
	wantSx = float32(32-2) / 64
	wantTx = float32(16+1) / 64
	if m[0] != wantSx || m[12] != wantTx {
		t.Errorf("filtered subsampled crop: sx=%v tx=%v, want sx=%v tx=%v", m[0], m[12], wantSx, wantTx)
	}
}

func TestTransformMatrixFullCropNoScale(t *testing.T) {
	// A crop covering the whole buffer introduces no scaling even with
	// filtering enabled; shrink only applies when the crop is smaller
	// than the buffer on that axis.
	crop := Rect{Left: 0, Top: 0, Right: 100, Bottom: 100}
	m := computeTransformMatrix(TransformNone, 100, 100, crop, true,
		gputypes.TextureFormatRGBA8Unorm)
	if m != mtxFlipV {
		t.Errorf("full-buffer crop matrix = %v, want plain vertical flip", m)
	}
}

func TestTransformMatrixDeterministic(t *testing.T) {
	crop := Rect{Left: 3, Top: 7, Right: 61, Bottom: 59}
	for _, tr := range []Transform{TransformNone, TransformFlipH, TransformFlipV,
		TransformRot90, TransformRot180, TransformRot270} {
		a := computeTransformMatrix(tr, 64, 64, crop, true, gputypes.TextureFormatRGBA8Unorm)
		b := computeTransformMatrix(tr, 64, 64, crop, true, gputypes.TextureFormatRGBA8Unorm)
		if a != b {
			t.Errorf("transform %s: matrices differ across identical calls", tr)
		}
	}
}

func TestMtxMulIdentity(t *testing.T) {
	for _, m := range [][16]float32{mtxFlipH, mtxFlipV, mtxRot90} {
		if got := mtxMul(mtxIdentity, m); got != m {
			t.Errorf("I*m = %v, want %v", got, m)
		}
		if got := mtxMul(m, mtxIdentity); got != m {
			t.Errorf("m*I = %v, want %v", got, m)
		}
	}
}
