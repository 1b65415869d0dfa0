package goportal

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
)

// Portal quads are twice as tall as they are wide at scale 1.
const (
	portalHalfWidth  = 0.5
	portalHalfHeight = 1.0
)

// SceneRenderer is the host rendering collaborator. It draws the world from
// the given camera-to-world transform with the given projection into dst.
// The portal core never draws scene geometry itself.
type SceneRenderer interface {
	RenderView(dst RenderDest, camWorld, proj mgl64.Mat4)
}

// RenderDest is the drawing surface handed to the host renderer. Concretely
// an *ebiten.Image from the portal's RenderTarget; typed minimally so tests
// can count passes without touching the GPU.
type RenderDest interface {
	Bounds() (w, h int)
}

// CameraRig is the host camera abstraction: a world transform, a projection
// and a viewport ray for aiming queries. The scheduler installs a per-level
// oblique projection derived from Projection and never mutates the rig.
type CameraRig interface {
	WorldTransform() mgl64.Mat4
	Projection() mgl64.Mat4
	ViewportToRay(u, v float64) (origin, dir mgl64.Vec3)
}

// targetDest adapts a RenderTarget's texture to RenderDest lazily, so a
// texture is only allocated when a pass actually runs.
type targetDest struct{ rt *RenderTarget }

func (d targetDest) Bounds() (int, int) { return d.rt.Size(), d.rt.Size() }

// Image exposes the underlying texture to hosts that type-assert their way
// back from RenderDest.
func (d targetDest) Image() *ebiten.Image { return d.rt.Image() }

// RenderScheduler decides per frame whether the pair renders, sizes the two
// render targets and issues the nested passes back to front.
type RenderScheduler struct {
	cfg      Config
	pair     *Pair
	renderer SceneRenderer
	log      *zap.Logger

	buf []mgl64.Mat4

	// suppressedClean tracks whether the sentinel clear already ran for the
	// current suppression streak, per portal.
	suppressedClean [2]bool
}

func NewRenderScheduler(cfg Config, pair *Pair, renderer SceneRenderer, log *zap.Logger) *RenderScheduler {
	return &RenderScheduler{
		cfg:      cfg,
		pair:     pair,
		renderer: renderer,
		log:      log,
		buf:      make([]mgl64.Mat4, cfg.RecursionLimit),
	}
}

// Eligible reports whether the pair renders this frame: both portals
// placed, visible and done opening. Any one flag false suppresses the whole
// chain.
func (rs *RenderScheduler) Eligible() bool {
	a, b := rs.pair.Portal(RoleA), rs.pair.Portal(RoleB)
	return a.placed && b.placed &&
		a.visible && b.visible &&
		a.opening.Ready() && b.opening.Ready()
}

// RefreshVisibility recomputes each portal's on-screen coverage and flags
// it visible when any part of its quad lands in the viewport.
func (rs *RenderScheduler) RefreshVisibility(cam CameraRig) {
	for _, role := range []Role{RoleA, RoleB} {
		p := rs.pair.Portal(role)
		if !p.placed {
			p.visible = false
			continue
		}
		p.visible = rs.Coverage(cam, p) > 0
	}
}

// Frame runs one frame of render scheduling: target sizing always, nested
// passes only when eligible. Placement and readiness phases must have run
// already (see World.Step ordering).
func (rs *RenderScheduler) Frame(cam CameraRig) {
	// Resize hysteresis ticks every frame, render or not.
	depth := rs.effectiveDepth()
	for _, role := range []Role{RoleA, RoleB} {
		p := rs.pair.Portal(role)
		cov := 0.0
		if p.placed {
			cov = rs.Coverage(cam, p)
		}
		if p.target.Tick(cov, depth) {
			rs.log.Info("render target resized",
				zap.String("portal", role.String()),
				zap.Int("size", p.target.Size()))
		}
	}

	if !rs.Eligible() {
		for _, role := range []Role{RoleA, RoleB} {
			if !rs.suppressedClean[role] {
				rs.pair.Portal(role).target.ClearSentinel()
				rs.suppressedClean[role] = true
			}
		}
		return
	}
	rs.suppressedClean[0], rs.suppressedClean[1] = false, false

	for _, role := range []Role{RoleA, RoleB} {
		rs.renderPortal(cam, role)
	}
}

// effectiveDepth is the recursion depth the view chains will actually use
// this frame, mirroring the same-facing collapse in BuildViewChain, so
// target sizing never biases toward resolution that collapsed levels cannot
// spend.
func (rs *RenderScheduler) effectiveDepth() int {
	if rs.pair.BothPlaced() && rs.pair.FacingDot() > rs.cfg.SameFacingThreshold {
		return 1
	}
	return rs.cfg.RecursionLimit
}

// renderPortal issues the nested passes for one portal's target, deepest
// level first so every level composites over its correct background.
func (rs *RenderScheduler) renderPortal(cam CameraRig, view Role) {
	if rs.renderer == nil {
		return
	}
	n := BuildViewChain(cam.WorldTransform(), rs.pair, view, rs.cfg.RecursionLimit, rs.cfg.SameFacingThreshold, rs.buf)
	if n == 0 {
		return
	}
	p := rs.pair.Portal(view)
	dest := targetDest{rt: p.target}
	baseProj := cam.Projection()

	for i := n - 1; i >= 0; i-- {
		camWorld := rs.buf[i]
		if !finiteMat4(camWorld) {
			rs.log.Warn("recursion level skipped",
				zap.String("portal", view.String()),
				zap.Int("level", i))
			continue
		}
		// Hop i exits at the view portal's partner on even levels and back
		// at the view portal on odd ones.
		exit := rs.pair.Other(view)
		if i%2 == 1 {
			exit = rs.pair.Portal(view)
		}
		clip := PlaneToCamera(camWorld, ExitClipPlane(exit, rs.cfg.ClipPlaneOffset))
		proj := ObliqueProjection(baseProj, clip)
		if !finiteMat4(proj) {
			rs.log.Warn("recursion level skipped",
				zap.String("portal", view.String()),
				zap.Int("level", i))
			continue
		}
		rs.renderer.RenderView(dest, camWorld, proj)
	}
}

// Coverage estimates the fraction of the viewport the portal quad covers by
// projecting its four corners and measuring their bounding box. Rough on
// purpose; it only feeds visibility and target sizing.
func (rs *RenderScheduler) Coverage(cam CameraRig, p *Portal) float64 {
	view := cam.WorldTransform().Inv()
	proj := cam.Projection()

	hw := portalHalfWidth * p.scale
	hh := portalHalfHeight * p.scale
	corners := [4]mgl64.Vec3{
		p.position.Add(p.right.Mul(hw)).Add(p.up.Mul(hh)),
		p.position.Add(p.right.Mul(hw)).Sub(p.up.Mul(hh)),
		p.position.Sub(p.right.Mul(hw)).Add(p.up.Mul(hh)),
		p.position.Sub(p.right.Mul(hw)).Sub(p.up.Mul(hh)),
	}

	minX, minY := 1.0, 1.0
	maxX, maxY := -1.0, -1.0
	anyInFront := false
	for _, c := range corners {
		eye := view.Mul4x1(c.Vec4(1))
		clip := proj.Mul4x1(eye)
		if clip.W() <= 0 {
			continue
		}
		anyInFront = true
		ndcX := clip.X() / clip.W()
		ndcY := clip.Y() / clip.W()
		minX = math.Min(minX, ndcX)
		maxX = math.Max(maxX, ndcX)
		minY = math.Min(minY, ndcY)
		maxY = math.Max(maxY, ndcY)
	}
	if !anyInFront {
		return 0
	}

	minX = clampF(minX, -1, 1)
	maxX = clampF(maxX, -1, 1)
	minY = clampF(minY, -1, 1)
	maxY = clampF(maxY, -1, 1)
	if maxX <= minX || maxY <= minY {
		return 0
	}
	return (maxX - minX) * (maxY - minY) / 4.0
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
