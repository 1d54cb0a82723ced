// ABOUTME: Orientation math for spatial challenges.
// ABOUTME: Provides Euler-angle orientations, angular distance, and random target generation.

package spatial

import (
	"math"
	"math/rand/v2"
)

// Orientation is a 3D orientation expressed as intrinsic Z-Y-X Euler angles
// in radians: Z is yaw, Y is pitch, X is roll.
type Orientation struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// quaternion is a unit quaternion (w, x, y, z).
type quaternion struct {
	w, x, y, z float64
}

// toQuaternion converts the Euler-angle orientation into a unit quaternion.
func (o Orientation) toQuaternion() quaternion {
	cy := math.Cos(o.Z * 0.5)
	sy := math.Sin(o.Z * 0.5)
	cp := math.Cos(o.Y * 0.5)
	sp := math.Sin(o.Y * 0.5)
	cr := math.Cos(o.X * 0.5)
	sr := math.Sin(o.X * 0.5)

	return quaternion{
		w: cr*cp*cy + sr*sp*sy,
		x: sr*cp*cy - cr*sp*sy,
		y: cr*sp*cy + sr*cp*sy,
		z: cr*cp*sy - sr*sp*cy,
	}
}

// AngularDistance returns the shortest-arc rotation angle between two
// orientations, in degrees. The result is always in [0, 180].
func AngularDistance(a, b Orientation) float64 {
	qa := a.toQuaternion()
	qb := b.toQuaternion()

	// q and -q represent the same rotation, so the absolute dot product
	// yields the shortest arc.
	dot := math.Abs(qa.w*qb.w + qa.x*qb.x + qa.y*qb.y + qa.z*qb.z)
	if dot > 1 {
		dot = 1
	}
	return 2 * math.Acos(dot) * 180 / math.Pi
}

// Angular ranges for generated targets, in degrees.
const (
	maxYawDeg   = 90
	maxPitchDeg = 90
	maxRollDeg  = 45
)

// RandomTarget generates a target orientation with yaw and pitch drawn
// uniformly from ±90° and roll from ±45°, converted to radians.
// The generator is process-seeded and never derived from request data.
func RandomTarget() Orientation {
	return Orientation{
		X: uniformDeg(maxRollDeg),
		Y: uniformDeg(maxPitchDeg),
		Z: uniformDeg(maxYawDeg),
	}
}

// uniformDeg returns a uniform sample from ±limit degrees, in radians.
func uniformDeg(limit float64) float64 {
	deg := (rand.Float64()*2 - 1) * limit
	return deg * math.Pi / 180
}
