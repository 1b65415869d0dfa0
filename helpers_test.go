package goportal

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const floatTolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-6
}

func vecAlmostEqual(a, b mgl64.Vec3) bool {
	return almostEqual(a.X(), b.X()) &&
		almostEqual(a.Y(), b.Y()) &&
		almostEqual(a.Z(), b.Z())
}

// testConfig keeps animation short so tests do not loop much.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.OpenDuration = 2
	cfg.ResizeStableFrames = 3
	return cfg
}

// placedPair builds a pair with both portals placed. Right vectors are
// derived from world up unless the forward is vertical.
func placedPair(cfg Config, aPos, aFwd, bPos, bFwd mgl64.Vec3, aScale, bScale float64) *Pair {
	pair := NewPair(cfg)
	mustPlace(pair, RoleA, aPos, aFwd, aScale)
	mustPlace(pair, RoleB, bPos, bFwd, bScale)
	return pair
}

func mustPlace(pair *Pair, role Role, pos, fwd mgl64.Vec3, scale float64) {
	right := mgl64.Vec3{0, 1, 0}.Cross(fwd)
	if right.Len() < 1e-9 {
		right = mgl64.Vec3{1, 0, 0}
	}
	err := pair.Place(PlacementIntent{
		Role:     role,
		Position: pos,
		Normal:   fwd,
		Right:    right,
		Up:       fwd.Cross(right),
		Surface:  1,
		Wall:     ColliderID(10 + role),
		Scale:    scale,
	})
	if err != nil {
		panic(err)
	}
}

// identityBasisPlace places a portal with the exact right/up/forward triple
// (+X, +Y, +Z) rotated nowhere, regardless of position.
func identityBasisPlace(pair *Pair, role Role, pos mgl64.Vec3, scale float64) {
	err := pair.Place(PlacementIntent{
		Role:     role,
		Position: pos,
		Normal:   mgl64.Vec3{0, 0, 1},
		Right:    mgl64.Vec3{1, 0, 0},
		Up:       mgl64.Vec3{0, 1, 0},
		Surface:  1,
		Wall:     ColliderID(10 + role),
		Scale:    scale,
	})
	if err != nil {
		panic(err)
	}
}

// fakeBody is an in-memory RigidBody.
type fakeBody struct {
	pos    mgl64.Vec3
	rot    mgl64.Quat
	scale  float64
	vel    mgl64.Vec3
	angVel mgl64.Vec3
}

func newFakeBody(pos mgl64.Vec3) *fakeBody {
	return &fakeBody{pos: pos, rot: mgl64.QuatIdent(), scale: 1}
}

func (b *fakeBody) Position() mgl64.Vec3 { return b.pos }

func (b *fakeBody) SetPosition(p mgl64.Vec3) { b.pos = p }

func (b *fakeBody) Rotation() mgl64.Quat { return b.rot }

func (b *fakeBody) SetRotation(q mgl64.Quat) { b.rot = q }

func (b *fakeBody) Scale() float64 { return b.scale }

func (b *fakeBody) SetScale(s float64) { b.scale = s }

func (b *fakeBody) Velocity() mgl64.Vec3 { return b.vel }

func (b *fakeBody) SetVelocity(v mgl64.Vec3) { b.vel = v }

func (b *fakeBody) AngularVelocity() mgl64.Vec3 { return b.angVel }

func (b *fakeBody) SetAngularVelocity(v mgl64.Vec3) { b.angVel = v }

// fakeFilter records collision-ignore calls keyed by collider pair.
type fakeFilter struct {
	ignored map[[2]ColliderID]bool
}

func newFakeFilter() *fakeFilter {
	return &fakeFilter{ignored: make(map[[2]ColliderID]bool)}
}

func (f *fakeFilter) SetIgnore(traveler, wall ColliderID, ignore bool) {
	f.ignored[[2]ColliderID{traveler, wall}] = ignore
}

// fakeHeld is a HeldQuery with a switchable answer per entity.
type fakeHeld struct {
	held map[uuid.UUID]bool
}

func newFakeHeld() *fakeHeld { return &fakeHeld{held: make(map[uuid.UUID]bool)} }

func (f *fakeHeld) IsHeld(e uuid.UUID) bool { return f.held[e] }

// fakeRenderer counts render passes.
type fakeRenderer struct {
	passes int
	views  []mgl64.Mat4
}

func (f *fakeRenderer) RenderView(_ RenderDest, camWorld, _ mgl64.Mat4) {
	f.passes++
	f.views = append(f.views, camWorld)
}

// fakeCam is a CameraRig at a fixed transform.
type fakeCam struct {
	world mgl64.Mat4
	proj  mgl64.Mat4
}

func newFakeCam() *fakeCam {
	return &fakeCam{
		world: mgl64.Ident4(),
		proj:  mgl64.Perspective(mgl64.DegToRad(70), 1, 0.1, 500),
	}
}

func (c *fakeCam) WorldTransform() mgl64.Mat4 { return c.world }

func (c *fakeCam) Projection() mgl64.Mat4 { return c.proj }

func (c *fakeCam) ViewportToRay(_, _ float64) (mgl64.Vec3, mgl64.Vec3) {
	return mgl64.Vec3{}, mgl64.Vec3{0, 0, -1}
}

// fakeVisual records the poses pushed to a clone proxy.
type fakeVisual struct {
	poses    []Pose
	disposed bool
}

func (v *fakeVisual) SetPose(pos mgl64.Vec3, rot mgl64.Quat, scale float64) {
	v.poses = append(v.poses, Pose{Position: pos, Rotation: rot, Scale: scale})
}

func (v *fakeVisual) Dispose() { v.disposed = true }

type fakeCloner struct {
	visuals []*fakeVisual
}

func (c *fakeCloner) CloneVisual(_ *Traveler) VisualProxy {
	v := &fakeVisual{}
	c.visuals = append(c.visuals, v)
	return v
}

func nopLogger() *zap.Logger { return zap.NewNop() }
