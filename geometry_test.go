package streamtex

import "testing"

func TestRect(t *testing.T) {
	tests := []struct {
		name   string
		r      Rect
		w, h   int32
		empty  bool
		inside bool // within a 64x64 buffer
	}{
		{"full", Rect{0, 0, 64, 64}, 64, 64, false, true},
		{"interior", Rect{16, 16, 48, 48}, 32, 32, false, true},
		{"zero", Rect{}, 0, 0, true, true},
		{"inverted", Rect{48, 48, 16, 16}, -32, -32, true, true},
		{"negative origin", Rect{-1, 0, 32, 32}, 33, 32, false, false},
		{"overflow", Rect{32, 32, 96, 96}, 64, 64, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Width(); got != tt.w {
				t.Errorf("Width = %d, want %d", got, tt.w)
			}
			if got := tt.r.Height(); got != tt.h {
				t.Errorf("Height = %d, want %d", got, tt.h)
			}
			if got := tt.r.IsEmpty(); got != tt.empty {
				t.Errorf("IsEmpty = %v, want %v", got, tt.empty)
			}
			if got := tt.r.In(64, 64); got != tt.inside {
				t.Errorf("In(64, 64) = %v, want %v", got, tt.inside)
			}
		})
	}
}

func TestTransformString(t *testing.T) {
	tests := []struct {
		t    Transform
		want string
	}{
		{TransformNone, "none"},
		{TransformFlipH, "flipH"},
		{TransformFlipV, "flipV"},
		{TransformRot90, "rot90"},
		{TransformRot180, "rot180"},
		{TransformRot270, "rot270"},
		{TransformFlipH | TransformRot90, "transform(0x5)"},
	}
	for _, tt := range tests {
		if got := tt.t.String(); got != tt.want {
			t.Errorf("%#x String() = %q, want %q", uint32(tt.t), got, tt.want)
		}
	}
}
