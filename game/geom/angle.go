package geom

import "math"

// NormalizeAngle wraps deg into [0, 360)
func NormalizeAngle(deg float64) float64 {
	a := math.Mod(deg, 360)
	if a < 0 {
		a += 360
	}
	return a
}

// DeltaAngle returns the shortest signed difference from a to b in degrees,
// in the range [-180, 180].
func DeltaAngle(a, b float64) float64 {
	d := math.Mod(b-a, 360)
	if d > 180 {
		d -= 360
	} else if d < -180 {
		d += 360
	}
	return d
}
