package goportal

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// worldUp is the global up axis used for the vertical/non-vertical portal
// classification in the exit velocity correction.
var worldUp = mgl64.Vec3{0, 1, 0}

// flipUp is the 180 degree turn about a portal's local up axis. Composed
// between the two portal frames it converts "entering" motion on one side
// into "exiting" motion on the other; it is the rotation form of the
// diag(-1, 1, -1) mirror.
var flipUp = mgl64.QuatRotate(math.Pi, mgl64.Vec3{0, 1, 0})

// PairRotation is the rotation that carries directions expressed near the
// source portal into directions near the destination portal:
//
//	rel = to.rotation * flipUp * from.rotation^-1
//
// It is the rotation component of the full step transform and is what linear
// and angular velocity are pushed through on teleport.
func PairRotation(from, to *Portal) mgl64.Quat {
	return to.rotation.Mul(flipUp).Mul(from.rotation.Inverse()).Normalize()
}

// MapPose maps a world position and rotation from the source portal's
// neighborhood to the destination's. The offset from the source origin is
// scaled by scaleRatio, rotated through the mirror composition and rebased
// onto the destination origin. Stateless and drift-free under repeated
// application with reciprocal scale ratios.
func MapPose(from, to *Portal, pos mgl64.Vec3, rot mgl64.Quat, scaleRatio float64) (mgl64.Vec3, mgl64.Quat) {
	rel := PairRotation(from, to)
	offset := pos.Sub(from.position).Mul(scaleRatio)
	newPos := to.position.Add(rel.Rotate(offset))
	newRot := rel.Mul(rot).Normalize()
	return newPos, newRot
}

// MapVector maps a free vector (no translation term, no origin subtraction)
// through the pair, scaling its magnitude by scaleRatio. Used for linear
// velocity.
func MapVector(from, to *Portal, v mgl64.Vec3, scaleRatio float64) mgl64.Vec3 {
	return PairRotation(from, to).Rotate(v.Mul(scaleRatio))
}

// MapAngular maps an angular velocity through the pair. Angular rates are
// scale invariant, so only the rotation applies.
func MapAngular(from, to *Portal, w mgl64.Vec3) mgl64.Vec3 {
	return PairRotation(from, to).Rotate(w)
}

// StepMatrix is the affine world-to-world map "as seen through" the pair:
//
//	M = T(to.position) * R(rel) * S(scaleRatio) * T(-from.position)
//
// Left-multiplying a camera's world transform by M yields the virtual camera
// one hop deeper. Agrees with MapPose on points.
func StepMatrix(from, to *Portal, scaleRatio float64) mgl64.Mat4 {
	rel := PairRotation(from, to)
	m := mgl64.Translate3D(to.position.X(), to.position.Y(), to.position.Z())
	m = m.Mul4(rel.Mat4())
	m = m.Mul4(mgl64.Scale3D(scaleRatio, scaleRatio, scaleRatio))
	m = m.Mul4(mgl64.Translate3D(-from.position.X(), -from.position.Y(), -from.position.Z()))
	return m
}

func finiteVec3(v mgl64.Vec3) bool {
	for i := 0; i < 3; i++ {
		if math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
			return false
		}
	}
	return true
}

// finiteMat4 reports whether every element of m is a finite number. Extreme
// scale ratios or coincident portals can poison a step transform; callers
// skip anything that fails this check rather than hand it to the renderer.
func finiteMat4(m mgl64.Mat4) bool {
	for i := 0; i < 16; i++ {
		if math.IsNaN(m[i]) || math.IsInf(m[i], 0) {
			return false
		}
	}
	return true
}
