// ABOUTME: Tests for orientation angular distance and target generation.
// ABOUTME: Validates identity, opposition, symmetry, range bounds, and radian conversion.

package spatial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAngularDistance_Identical(t *testing.T) {
	o := Orientation{X: 0.2, Y: -0.1, Z: 0.05}
	assert.InDelta(t, 0, AngularDistance(o, o), 1e-9)
}

func TestAngularDistance_SmallPerturbation(t *testing.T) {
	a := Orientation{X: 0.2, Y: -0.1, Z: 0.05}
	b := Orientation{X: 0.21, Y: -0.09, Z: 0.06}

	dist := AngularDistance(a, b)
	assert.Greater(t, dist, 0.0)
	assert.Less(t, dist, 2.0)
}

func TestAngularDistance_Opposite(t *testing.T) {
	a := Orientation{}
	b := Orientation{X: math.Pi}

	assert.InDelta(t, 180, AngularDistance(a, b), 1e-6)
}

func TestAngularDistance_OppositeYaw(t *testing.T) {
	a := Orientation{}
	b := Orientation{Z: math.Pi}

	assert.InDelta(t, 180, AngularDistance(a, b), 1e-6)
}

func TestAngularDistance_Symmetric(t *testing.T) {
	a := Orientation{X: 0.4, Y: 0.7, Z: -0.3}
	b := Orientation{X: -0.2, Y: 0.1, Z: 1.1}

	assert.InDelta(t, AngularDistance(a, b), AngularDistance(b, a), 1e-9)
}

func TestAngularDistance_Range(t *testing.T) {
	for range 200 {
		a := RandomTarget()
		b := RandomTarget()
		dist := AngularDistance(a, b)
		assert.GreaterOrEqual(t, dist, 0.0)
		assert.LessOrEqual(t, dist, 180.0)
	}
}

func TestRandomTarget_Bounds(t *testing.T) {
	halfPi := math.Pi / 2
	quarterPi := math.Pi / 4

	for range 200 {
		o := RandomTarget()
		assert.LessOrEqual(t, math.Abs(o.X), quarterPi)
		assert.LessOrEqual(t, math.Abs(o.Y), halfPi)
		assert.LessOrEqual(t, math.Abs(o.Z), halfPi)
	}
}

func TestRandomTarget_Varies(t *testing.T) {
	seen := make(map[Orientation]bool)
	for range 20 {
		seen[RandomTarget()] = true
	}
	// 20 draws from a continuous distribution should never collide.
	assert.Greater(t, len(seen), 1)
}
