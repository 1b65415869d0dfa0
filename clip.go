package goportal

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ExitClipPlane is the world-space plane at the exit portal's surface,
// offset slightly along its forward vector so the portal quad itself is not
// clipped by precision noise. Returned as (nx, ny, nz, d) with
// n.x + d == 0 on the plane.
func ExitClipPlane(exit *Portal, offset float64) mgl64.Vec4 {
	n := exit.forward
	pt := exit.position.Add(n.Mul(offset))
	return n.Vec4(-n.Dot(pt))
}

// PlaneToCamera re-expresses a world-space plane in the local space of a
// camera whose camera-to-world transform is camWorld. Planes transform by
// the transpose of the point transform going the other way.
func PlaneToCamera(camWorld mgl64.Mat4, plane mgl64.Vec4) mgl64.Vec4 {
	return camWorld.Transpose().Mul4x1(plane)
}

// ObliqueProjection rewrites the near plane of a projection matrix to the
// given camera-space clip plane (Lengyel's method). The camera must lie on
// the negative side of the plane, which holds for a virtual portal camera
// sitting behind the exit surface. The input matrix is not modified; the
// caller renders the level with the returned matrix and goes back to the
// camera's own projection afterwards.
func ObliqueProjection(proj mgl64.Mat4, clip mgl64.Vec4) mgl64.Mat4 {
	q := mgl64.Vec4{sgn(clip.X()), sgn(clip.Y()), 1, 1}
	q = proj.Inv().Mul4x1(q)

	c := clip.Mul(2.0 / clip.Dot(q))
	row := c.Sub(proj.Row(3))

	out := proj
	// Third row holds the depth mapping; Mat4 is column major.
	out[0*4+2] = row.X()
	out[1*4+2] = row.Y()
	out[2*4+2] = row.Z()
	out[3*4+2] = row.W()
	return out
}

func sgn(v float64) float64 {
	if v == 0 {
		return 0
	}
	return math.Copysign(1, v)
}
