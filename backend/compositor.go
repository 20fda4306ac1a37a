package backend

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/gogpu/streamtex"
)

// Compositor renders a software-backed stream's frames into an RGBA
// destination. It is the CPU analogue of a display engine: each Compose
// latches the next queued frame, draws it honoring the frame's crop,
// transform flags, and scaling mode, and signals the release fence once
// the read is done so the slot can return to the producer.
//
// A Compositor is not safe for concurrent use; drive it from the
// consumer's goroutine.
type Compositor struct {
	stream *streamtex.Stream
	scaler draw.Interpolator
}

// NewCompositor creates a compositor for the given stream. The stream's
// buffers must come from the software allocator.
func NewCompositor(st *streamtex.Stream) *Compositor {
	return &Compositor{
		stream: st,
		scaler: draw.ApproxBiLinear,
	}
}

// SetInterpolator replaces the scaling filter. The default is
// draw.ApproxBiLinear; draw.NearestNeighbor gives exact pixel mappings
// for integer scales.
func (c *Compositor) SetInterpolator(ip draw.Interpolator) {
	c.scaler = ip
}

// Compose latches the next queued frame, if any, and draws the current
// frame into dst. It reports whether a new frame was latched; when the
// stream has no current frame at all, dst is left untouched and Compose
// returns (false, nil).
func (c *Compositor) Compose(dst *image.RGBA) (bool, error) {
	fresh, err := c.stream.UpdateImage()
	if err != nil {
		return false, err
	}
	frame, ok := c.stream.CurrentFrame()
	if !ok {
		return false, nil
	}

	sb, ok := frame.Buffer.(*streamtex.SoftwareBuffer)
	if !ok {
		return fresh, fmt.Errorf("compositor: buffer is %T, want software", frame.Buffer)
	}
	src := sb.RGBA()
	if src == nil {
		return fresh, fmt.Errorf("compositor: unsupported buffer format %v", sb.Format())
	}

	sr := src.Bounds()
	if !frame.Crop.IsEmpty() {
		sr = image.Rect(int(frame.Crop.Left), int(frame.Crop.Top),
			int(frame.Crop.Right), int(frame.Crop.Bottom))
	}
	m := frameAffine(frame.Transform, frame.ScalingMode, sr, dst.Bounds())
	c.scaler.Transform(dst, m, src, sr, draw.Src, nil)

	// The blit is the consumer read: fence the slot and complete it
	// immediately.
	if fresh {
		fence, err := c.stream.ArmReleaseFence()
		if err != nil {
			return fresh, err
		}
		fence.Signal()
	}
	return fresh, nil
}

// frameAffine builds the source-to-destination pixel transform for a
// frame: crop origin removal, the producer's flip and rotation flags,
// then the scaling mode's fit into dst.
func frameAffine(t streamtex.Transform, scaling streamtex.ScalingMode, sr, dr image.Rectangle) f64.Aff3 {
	sw := float64(sr.Dx())
	sh := float64(sr.Dy())

	m := f64.Aff3{1, 0, -float64(sr.Min.X), 0, 1, -float64(sr.Min.Y)}
	if t&streamtex.TransformFlipH != 0 {
		m = aff3Mul(f64.Aff3{-1, 0, sw, 0, 1, 0}, m)
	}
	if t&streamtex.TransformFlipV != 0 {
		m = aff3Mul(f64.Aff3{1, 0, 0, 0, -1, sh}, m)
	}
	ew, eh := sw, sh
	if t&streamtex.TransformRot90 != 0 {
		// (x, y) -> (y, w-x), matching the screen-space effect of the
		// rot90 texture coordinate transform.
		m = aff3Mul(f64.Aff3{0, 1, 0, -1, 0, sw}, m)
		ew, eh = sh, sw
	}

	dw := float64(dr.Dx())
	dh := float64(dr.Dy())
	switch scaling {
	case streamtex.ScalingModeScaleToWindow:
		m = aff3Mul(f64.Aff3{dw / ew, 0, 0, 0, dh / eh, 0}, m)
	case streamtex.ScalingModeScaleCrop:
		s := dw / ew
		if dh/eh > s {
			s = dh / eh
		}
		m = aff3Mul(f64.Aff3{s, 0, (dw - s*ew) / 2, 0, s, (dh - s*eh) / 2}, m)
	}
	if dr.Min.X != 0 || dr.Min.Y != 0 {
		m = aff3Mul(f64.Aff3{1, 0, float64(dr.Min.X), 0, 1, float64(dr.Min.Y)}, m)
	}
	return m
}

// aff3Mul composes two affine transforms: the result applies b first,
// then a.
func aff3Mul(a, b f64.Aff3) f64.Aff3 {
	return f64.Aff3{
		a[0]*b[0] + a[1]*b[3],
		a[0]*b[1] + a[1]*b[4],
		a[0]*b[2] + a[1]*b[5] + a[2],
		a[3]*b[0] + a[4]*b[3],
		a[3]*b[1] + a[4]*b[4],
		a[3]*b[2] + a[4]*b[5] + a[5],
	}
}
