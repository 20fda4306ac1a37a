package streamtex

import "fmt"

// Rect is an axis-aligned rectangle in buffer pixel coordinates, with
// the origin at the top-left corner. Right and Bottom are exclusive.
type Rect struct {
	Left, Top, Right, Bottom int32
}

// Width returns the rectangle width. Negative for inverted rectangles.
func (r Rect) Width() int32 { return r.Right - r.Left }

// Height returns the rectangle height. Negative for inverted rectangles.
func (r Rect) Height() int32 { return r.Bottom - r.Top }

// IsEmpty reports whether the rectangle encloses no pixels.
func (r Rect) IsEmpty() bool { return r.Width() <= 0 || r.Height() <= 0 }

// In reports whether r lies entirely within a w x h buffer.
func (r Rect) In(w, h uint32) bool {
	return r.Left >= 0 && r.Top >= 0 &&
		r.Right <= int32(w) && r.Bottom <= int32(h)
}

func (r Rect) String() string {
	return fmt.Sprintf("[%d,%d,%d,%d]", r.Left, r.Top, r.Right, r.Bottom)
}

// Transform describes a 2D transform pre-applied by the producer to the
// buffer contents. Flags compose: flips apply first, then the rotation.
type Transform uint32

const (
	// TransformFlipH mirrors the buffer horizontally.
	TransformFlipH Transform = 1 << iota

	// TransformFlipV mirrors the buffer vertically.
	TransformFlipV

	// TransformRot90 rotates the buffer 90 degrees clockwise.
	TransformRot90
)

const (
	// TransformNone leaves the buffer untransformed.
	TransformNone Transform = 0

	// TransformRot180 rotates the buffer 180 degrees.
	TransformRot180 = TransformFlipH | TransformFlipV

	// TransformRot270 rotates the buffer 270 degrees clockwise.
	TransformRot270 = TransformFlipH | TransformFlipV | TransformRot90
)

func (t Transform) String() string {
	switch t {
	case TransformNone:
		return "none"
	case TransformFlipH:
		return "flipH"
	case TransformFlipV:
		return "flipV"
	case TransformRot90:
		return "rot90"
	case TransformRot180:
		return "rot180"
	case TransformRot270:
		return "rot270"
	}
	return fmt.Sprintf("transform(%#x)", uint32(t))
}

// ScalingMode describes how the consumer should map the buffer (or its
// crop rectangle) onto the output region.
type ScalingMode uint32

const (
	// ScalingModeFreeze pins the frame to the buffer's own size; the
	// output shows the buffer unscaled.
	ScalingModeFreeze ScalingMode = iota

	// ScalingModeScaleToWindow stretches the buffer to fill the output,
	// ignoring aspect ratio.
	ScalingModeScaleToWindow

	// ScalingModeScaleCrop scales the buffer uniformly to cover the
	// output and crops the overflow.
	ScalingModeScaleCrop
)

func (m ScalingMode) String() string {
	switch m {
	case ScalingModeFreeze:
		return "freeze"
	case ScalingModeScaleToWindow:
		return "scaleToWindow"
	case ScalingModeScaleCrop:
		return "scaleCrop"
	}
	return fmt.Sprintf("scalingMode(%d)", uint32(m))
}
