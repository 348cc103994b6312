package model

// MirrorX flips x across the vertical centre line of f.
func MirrorX(f Field, x float64) float64 {
	return f.Width - x
}

// ToField converts an offset inside a rendered field of viewW x viewH pixels
// into field-local coordinates, clamped into the field. The two fields are
// drawn facing each other and the shooter aims on their own field, so aim
// offsets are converted with mirrored set.
func ToField(f Field, px, py, viewW, viewH float64, mirrored bool) (float64, float64) {
	x := clamp(f.Width*(px/viewW), 0, f.Width)
	y := clamp(f.Height*(py/viewH), 0, f.Height)
	if mirrored {
		x = MirrorX(f, x)
	}
	return x, y
}

// ToView is the inverse of ToField.
func ToView(f Field, x, y, viewW, viewH float64, mirrored bool) (float64, float64) {
	if mirrored {
		x = MirrorX(f, x)
	}
	return viewW * (x / f.Width), viewH * (y / f.Height)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
