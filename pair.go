package goportal

import "github.com/go-gl/mathgl/mgl64"

// Pair is the fixed A/B linkage. It owns both Portal records for the
// lifetime of the level and caches the two directed step transforms. The
// cache is invalidated synchronously on any placement write, before any
// reader runs in the same frame.
type Pair struct {
	portals [2]*Portal

	stepValid bool
	stepAB    mgl64.Mat4 // world as seen entering A, exiting B
	stepBA    mgl64.Mat4
	rotAB     mgl64.Quat
	rotBA     mgl64.Quat
}

func NewPair(cfg Config) *Pair {
	return &Pair{
		portals: [2]*Portal{newPortal(RoleA, cfg), newPortal(RoleB, cfg)},
	}
}

func (pr *Pair) Portal(r Role) *Portal { return pr.portals[r] }

func (pr *Pair) Other(r Role) *Portal { return pr.portals[r.Other()] }

// BothPlaced reports whether the pair can act as a unit at all.
func (pr *Pair) BothPlaced() bool {
	return pr.portals[RoleA].placed && pr.portals[RoleB].placed
}

// Place routes a placement intent to its slot and drops the step cache.
func (pr *Pair) Place(in PlacementIntent) error {
	if err := pr.portals[in.Role].Place(in); err != nil {
		return err
	}
	pr.Invalidate()
	return nil
}

// Remove clears one slot and drops the step cache.
func (pr *Pair) Remove(r Role) {
	pr.portals[r].Remove()
	pr.Invalidate()
}

// Invalidate drops the cached step transforms. Must be called whenever
// either portal's transform or scale changes outside Place/Remove.
func (pr *Pair) Invalidate() { pr.stepValid = false }

// ScaleRatio returns other.scale / self.scale for the portal in the given
// role, clamping the divisor defensively even though scale is positive by
// invariant.
func (pr *Pair) ScaleRatio(from Role) float64 {
	s := pr.portals[from].scale
	if s < minScale {
		s = minScale
	}
	return pr.Other(from).scale / s
}

// Step returns the cached world-to-world map for entering the portal in
// role from, and false when either portal is unplaced.
func (pr *Pair) Step(from Role) (mgl64.Mat4, bool) {
	if !pr.BothPlaced() {
		return mgl64.Ident4(), false
	}
	pr.refresh()
	if from == RoleA {
		return pr.stepAB, true
	}
	return pr.stepBA, true
}

// Rotation returns the cached pair rotation for the given direction.
func (pr *Pair) Rotation(from Role) (mgl64.Quat, bool) {
	if !pr.BothPlaced() {
		return mgl64.QuatIdent(), false
	}
	pr.refresh()
	if from == RoleA {
		return pr.rotAB, true
	}
	return pr.rotBA, true
}

func (pr *Pair) refresh() {
	if pr.stepValid {
		return
	}
	a, b := pr.portals[RoleA], pr.portals[RoleB]
	pr.stepAB = StepMatrix(a, b, pr.ScaleRatio(RoleA))
	pr.stepBA = StepMatrix(b, a, pr.ScaleRatio(RoleB))
	pr.rotAB = PairRotation(a, b)
	pr.rotBA = PairRotation(b, a)
	pr.stepValid = true
}

// FacingDot is the dot product of the two portal forward vectors, used for
// the recursion collapse shortcut.
func (pr *Pair) FacingDot() float64 {
	return pr.portals[RoleA].forward.Dot(pr.portals[RoleB].forward)
}
