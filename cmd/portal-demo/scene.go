package main

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/smasonuk/goportal"
)

type Face struct {
	A, B, C int
	Color   color.RGBA
}

type Mesh struct {
	Verts []mgl64.Vec3
	Faces []Face
}

// Wall is a flat placement surface the demo can pin a portal to.
type Wall struct {
	ID     goportal.SurfaceID
	Center mgl64.Vec3
	Normal mgl64.Vec3
	Right  mgl64.Vec3
	Up     mgl64.Vec3
	// Half extents in the Right/Up basis.
	HalfW, HalfH float64
}

// LocalPos expresses a world point on the wall in its 2-D basis.
func (w *Wall) LocalPos(p mgl64.Vec3) mgl64.Vec2 {
	d := p.Sub(w.Center)
	return mgl64.Vec2{d.Dot(w.Right), d.Dot(w.Up)}
}

// WorldPos lifts a 2-D wall position back into the world.
func (w *Wall) WorldPos(p mgl64.Vec2) mgl64.Vec3 {
	return w.Center.Add(w.Right.Mul(p.X())).Add(w.Up.Mul(p.Y()))
}

type Scene struct {
	Meshes []*Mesh
	Walls  []*Wall
}

// NewScene builds the demo room: floor, two facing walls, a couple of
// pillars for parallax.
func NewScene() *Scene {
	s := &Scene{}

	floorC := color.RGBA{70, 80, 90, 255}
	wallC := color.RGBA{110, 100, 92, 255}
	pillarC := color.RGBA{150, 60, 54, 255}

	// Floor 30x30 centered at origin, y=0.
	s.addQuad(
		mgl64.Vec3{-15, 0, -15}, mgl64.Vec3{15, 0, -15},
		mgl64.Vec3{15, 0, 15}, mgl64.Vec3{-15, 0, 15}, floorC)

	// North wall at z=-10, faces +Z.
	s.addQuad(
		mgl64.Vec3{-15, 0, -10}, mgl64.Vec3{15, 0, -10},
		mgl64.Vec3{15, 6, -10}, mgl64.Vec3{-15, 6, -10}, wallC)
	s.Walls = append(s.Walls, &Wall{
		ID:     1,
		Center: mgl64.Vec3{0, 3, -10},
		Normal: mgl64.Vec3{0, 0, 1},
		Right:  mgl64.Vec3{1, 0, 0},
		Up:     mgl64.Vec3{0, 1, 0},
		HalfW:  14, HalfH: 2.5,
	})

	// South wall at z=10, faces -Z.
	s.addQuad(
		mgl64.Vec3{15, 0, 10}, mgl64.Vec3{-15, 0, 10},
		mgl64.Vec3{-15, 6, 10}, mgl64.Vec3{15, 6, 10}, wallC)
	s.Walls = append(s.Walls, &Wall{
		ID:     2,
		Center: mgl64.Vec3{0, 3, 10},
		Normal: mgl64.Vec3{0, 0, -1},
		Right:  mgl64.Vec3{-1, 0, 0},
		Up:     mgl64.Vec3{0, 1, 0},
		HalfW:  14, HalfH: 2.5,
	})

	s.addBox(mgl64.Vec3{-6, 1.5, -2}, mgl64.Vec3{1, 3, 1}, pillarC)
	s.addBox(mgl64.Vec3{6, 1.5, 3}, mgl64.Vec3{1, 3, 1}, pillarC)

	return s
}

// AddBall appends a colored octahedron for the traveler and returns its
// mesh so the game loop can move its vertices each frame.
func (s *Scene) AddBall(radius float64, clr color.RGBA) *Mesh {
	m := &Mesh{}
	top := mgl64.Vec3{0, radius, 0}
	bot := mgl64.Vec3{0, -radius, 0}
	ring := []mgl64.Vec3{
		{radius, 0, 0}, {0, 0, radius}, {-radius, 0, 0}, {0, 0, -radius},
	}
	m.Verts = append(m.Verts, top, bot)
	m.Verts = append(m.Verts, ring...)
	for i := 0; i < 4; i++ {
		j := (i+1)%4 + 2
		m.Faces = append(m.Faces,
			Face{A: 0, B: i + 2, C: j, Color: clr},
			Face{A: 1, B: j, C: i + 2, Color: clr})
	}
	s.Meshes = append(s.Meshes, m)
	return m
}

func (s *Scene) addQuad(a, b, c, d mgl64.Vec3, clr color.RGBA) {
	m := &Mesh{
		Verts: []mgl64.Vec3{a, b, c, d},
		Faces: []Face{
			{A: 0, B: 1, C: 2, Color: clr},
			{A: 0, B: 2, C: 3, Color: clr},
		},
	}
	s.Meshes = append(s.Meshes, m)
}

func (s *Scene) addBox(center, half mgl64.Vec3, clr color.RGBA) {
	hx, hy, hz := half.X(), half.Y(), half.Z()
	v := make([]mgl64.Vec3, 0, 8)
	for _, dy := range []float64{-hy, hy} {
		for _, dz := range []float64{-hz, hz} {
			for _, dx := range []float64{-hx, hx} {
				v = append(v, center.Add(mgl64.Vec3{dx, dy, dz}))
			}
		}
	}
	quads := [][4]int{
		{0, 1, 3, 2}, {4, 6, 7, 5}, // bottom, top
		{0, 2, 6, 4}, {1, 5, 7, 3}, // left, right
		{0, 4, 5, 1}, {2, 3, 7, 6}, // front, back
	}
	m := &Mesh{Verts: v}
	for _, q := range quads {
		m.Faces = append(m.Faces,
			Face{A: q[0], B: q[1], C: q[2], Color: clr},
			Face{A: q[0], B: q[2], C: q[3], Color: clr})
	}
	s.Meshes = append(s.Meshes, m)
}
