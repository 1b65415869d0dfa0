package goportal

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
)

// Role identifies one of the two fixed portal slots in a pair.
type Role int

const (
	RoleA Role = iota
	RoleB
)

func (r Role) String() string {
	if r == RoleA {
		return "A"
	}
	return "B"
}

// Other returns the opposite role.
func (r Role) Other() Role {
	if r == RoleA {
		return RoleB
	}
	return RoleA
}

// SurfaceID is an opaque handle to a host surface a portal is mounted on.
type SurfaceID uint64

// PlacementIntent is the request produced by the (out of scope) targeting
// logic. Vectors need not be exactly orthonormal; Place rebuilds the basis.
type PlacementIntent struct {
	Role     Role
	Position mgl64.Vec3
	Normal   mgl64.Vec3
	Right    mgl64.Vec3
	Up       mgl64.Vec3
	Surface  SurfaceID
	// Wall is the collider of the surface behind the portal, used for the
	// collision-ignore bookkeeping around teleports.
	Wall  ColliderID
	Scale float64
}

var (
	// ErrDegenerateBasis is returned when a placement's normal or right
	// vector is near zero or the two are near parallel.
	ErrDegenerateBasis = errors.New("goportal: degenerate placement basis")
	// ErrNotPlaced is returned by operations that need a placed portal.
	ErrNotPlaced = errors.New("goportal: portal not placed")
)

const (
	minBasisLength = 1e-8
	minScale       = 1e-6
)

// Portal holds the placement record for one half of a pair. Zero value is an
// unplaced portal; Place and Remove toggle it. The pair linkage lives in Pair
// and is immutable for the session.
type Portal struct {
	role    Role
	placed  bool
	surface SurfaceID
	wall    ColliderID

	position mgl64.Vec3
	right    mgl64.Vec3
	up       mgl64.Vec3
	forward  mgl64.Vec3
	scale    float64

	// rotation maps the portal's local frame (x=right, y=up, z=forward)
	// into world space. Derived from the basis on Place.
	rotation mgl64.Quat

	visible bool
	opening *Opening
	target  *RenderTarget
}

func newPortal(role Role, cfg Config) *Portal {
	return &Portal{
		role:    role,
		scale:   1,
		opening: NewOpening(cfg.OpenDuration),
		target:  NewRenderTarget(cfg),
	}
}

// Place sets the placement record from the intent, rebuilding an exactly
// orthonormal basis: the normal is normalized, the right vector is
// re-orthogonalized against it and the up vector is recomputed as
// forward x right. Degenerate input is rejected before any field changes, so
// a failed Place never corrupts an existing placement.
func (p *Portal) Place(in PlacementIntent) error {
	n := in.Normal
	if n.Len() < minBasisLength {
		return ErrDegenerateBasis
	}
	n = n.Normalize()

	r := in.Right.Sub(n.Mul(in.Right.Dot(n)))
	if r.Len() < minBasisLength {
		// Fall back to deriving right from the supplied up.
		r = in.Up.Cross(n)
	}
	if r.Len() < minBasisLength {
		return ErrDegenerateBasis
	}
	r = r.Normalize()
	u := n.Cross(r)

	scale := in.Scale
	if scale < minScale {
		scale = minScale
	}

	p.position = in.Position
	p.forward = n
	p.right = r
	p.up = u
	p.scale = scale
	p.surface = in.Surface
	p.wall = in.Wall
	p.rotation = basisQuat(r, u, n)
	p.placed = true
	p.opening.Restart()
	return nil
}

// Remove clears the placement without destroying the portal or its render
// target; the slot can be reused by the next Place.
func (p *Portal) Remove() {
	p.placed = false
	p.surface = 0
	p.wall = 0
	p.opening.Reset()
}

// Wall is the collider handle of the surface behind the portal.
func (p *Portal) Wall() ColliderID { return p.wall }

func (p *Portal) Placed() bool { return p.placed }

func (p *Portal) Role() Role { return p.role }

func (p *Portal) Surface() SurfaceID { return p.surface }

func (p *Portal) Position() mgl64.Vec3 { return p.position }

func (p *Portal) Forward() mgl64.Vec3 { return p.forward }

func (p *Portal) Right() mgl64.Vec3 { return p.right }

func (p *Portal) Up() mgl64.Vec3 { return p.up }

func (p *Portal) Scale() float64 { return p.scale }

func (p *Portal) Rotation() mgl64.Quat { return p.rotation }

func (p *Portal) Visible() bool { return p.visible }

func (p *Portal) SetVisible(v bool) { p.visible = v }

func (p *Portal) Opening() *Opening { return p.opening }

func (p *Portal) Target() *RenderTarget { return p.target }

func (p *Portal) LocalToWorld() mgl64.Mat4 {
	m := mgl64.Translate3D(p.position.X(), p.position.Y(), p.position.Z())
	return m.Mul4(p.rotation.Mat4())
}

// SignedOffset projects a world position onto the portal's forward axis
// relative to the portal's own position.
func (p *Portal) SignedOffset(pos mgl64.Vec3) float64 {
	return pos.Sub(p.position).Dot(p.forward)
}

// State is the read-only placement snapshot handed to collaborators.
type State struct {
	Placed   bool
	Surface  SurfaceID
	Position mgl64.Vec3
	Forward  mgl64.Vec3
	Right    mgl64.Vec3
	Up       mgl64.Vec3
	Scale    float64
	Ready    bool
}

func (p *Portal) snapshot() State {
	return State{
		Placed:   p.placed,
		Surface:  p.surface,
		Position: p.position,
		Forward:  p.forward,
		Right:    p.right,
		Up:       p.up,
		Scale:    p.scale,
		Ready:    p.opening.Ready(),
	}
}

// basisQuat converts an orthonormal right/up/forward triple into the rotation
// quaternion mapping local axes to those world vectors.
func basisQuat(r, u, f mgl64.Vec3) mgl64.Quat {
	m := mgl64.Mat4FromCols(r.Vec4(0), u.Vec4(0), f.Vec4(0), mgl64.Vec4{0, 0, 0, 1})
	return mgl64.Mat4ToQuat(m).Normalize()
}
