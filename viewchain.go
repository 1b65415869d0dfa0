package goportal

import "github.com/go-gl/mathgl/mgl64"

// BuildViewChain fills buf with camera world transforms for 1..N portal
// hops, starting from the observer camera and left-multiplying the pair's
// step transform at every hop, alternating which portal is the current one
// so scale correction always uses the current direction. Returns the number
// of levels produced, at most min(maxLevels, len(buf)) and at least 1 when
// the pair is placed and buf is non-empty.
//
// Two portals facing the same way (forward dot above sameFacing) contribute
// no usable recursion detail, so the chain collapses to a single level.
//
// Levels are consumed back to front: the deepest level renders first, each
// shallower level on top, because every level's correct background is the
// one just rendered.
func BuildViewChain(camWorld mgl64.Mat4, pair *Pair, view Role, maxLevels int, sameFacing float64, buf []mgl64.Mat4) int {
	if len(buf) == 0 || !pair.BothPlaced() {
		return 0
	}
	if maxLevels < 1 {
		maxLevels = 1
	}
	if maxLevels > len(buf) {
		maxLevels = len(buf)
	}
	if pair.FacingDot() > sameFacing {
		maxLevels = 1
	}

	cur := view
	m := camWorld
	n := 0
	for i := 0; i < maxLevels; i++ {
		step, ok := pair.Step(cur)
		if !ok {
			break
		}
		m = step.Mul4(m)
		buf[n] = m
		n++
		cur = cur.Other()
	}
	return n
}
