package goportal

import "github.com/go-gl/mathgl/mgl64"

// placementMargin is the extra separation added on top of the summed half
// extents when pushing portals apart.
const placementMargin = 0.01

// Bounds2 is an axis-aligned rectangle in a surface's 2-D local basis.
type Bounds2 struct {
	Min, Max mgl64.Vec2
}

// Contains reports whether p lies inside the bounds.
func (b Bounds2) Contains(p mgl64.Vec2) bool {
	return p.X() >= b.Min.X() && p.X() <= b.Max.X() &&
		p.Y() >= b.Min.Y() && p.Y() <= b.Max.Y()
}

func (b Bounds2) clamp(p mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{
		clampF(p.X(), b.Min.X(), b.Max.X()),
		clampF(p.Y(), b.Min.Y(), b.Max.Y()),
	}
}

// ResolvePlacement settles a portal placement candidate against the other
// portal on the same surface, in the surface's 2-D local basis. Too-close
// candidates are pushed outward along the separating vector to exactly the
// minimum separation and clamped into bounds; if the minimum separation
// still cannot be met after clamping, or the two positions coincide, the
// placement is rejected.
func ResolvePlacement(candidate, other mgl64.Vec2, halfSelf, halfOther mgl64.Vec2, bounds Bounds2) (mgl64.Vec2, bool) {
	sep := candidate.Sub(other)
	dist := sep.Len()

	required := func(dir mgl64.Vec2) float64 {
		return abs(dir.X())*(halfSelf.X()+halfOther.X()) +
			abs(dir.Y())*(halfSelf.Y()+halfOther.Y()) +
			placementMargin
	}

	if dist < 1e-9 {
		// Exact coincidence; there is no separating direction to push
		// along.
		return candidate, false
	}

	dir := sep.Mul(1 / dist)
	need := required(dir)
	resolved := candidate
	if dist < need {
		resolved = other.Add(dir.Mul(need))
	}
	resolved = bounds.clamp(resolved)

	// Clamping may have collapsed the separation again.
	sep = resolved.Sub(other)
	dist = sep.Len()
	if dist < 1e-9 {
		return candidate, false
	}
	dir = sep.Mul(1 / dist)
	if dist+1e-9 < required(dir) {
		return candidate, false
	}
	return resolved, true
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
