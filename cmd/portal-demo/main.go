package main

import (
	"fmt"
	"image/color"
	"log"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"

	"github.com/smasonuk/goportal"
)

const (
	screenWidth  = 960
	screenHeight = 540
	ballRadius   = 0.4
)

// flyCamera implements goportal.CameraRig.
type flyCamera struct {
	pos        mgl64.Vec3
	yaw, pitch float64
	fovY       float64
	aspect     float64
}

func (c *flyCamera) WorldTransform() mgl64.Mat4 {
	m := mgl64.Translate3D(c.pos.X(), c.pos.Y(), c.pos.Z())
	m = m.Mul4(mgl64.HomogRotate3DY(c.yaw))
	m = m.Mul4(mgl64.HomogRotate3DX(c.pitch))
	return m
}

func (c *flyCamera) Projection() mgl64.Mat4 {
	return mgl64.Perspective(c.fovY, c.aspect, 0.1, 500)
}

func (c *flyCamera) ViewportToRay(u, v float64) (mgl64.Vec3, mgl64.Vec3) {
	tan := math.Tan(c.fovY / 2)
	eye := mgl64.Vec3{(2*u - 1) * tan * c.aspect, (1 - 2*v) * tan, -1}.Normalize()
	world := c.WorldTransform()
	dir := world.Mul4x1(eye.Vec4(0)).Vec3().Normalize()
	return c.pos, dir
}

// forward is the camera view direction (camera looks down local -Z).
func (c *flyCamera) forward() mgl64.Vec3 {
	_, dir := c.ViewportToRay(0.5, 0.5)
	return dir
}

// demoBody implements goportal.RigidBody for the bouncing ball.
type demoBody struct {
	pos    mgl64.Vec3
	rot    mgl64.Quat
	scale  float64
	vel    mgl64.Vec3
	angVel mgl64.Vec3
}

func (b *demoBody) Position() mgl64.Vec3 { return b.pos }

func (b *demoBody) SetPosition(p mgl64.Vec3) { b.pos = p }

func (b *demoBody) Rotation() mgl64.Quat { return b.rot }

func (b *demoBody) SetRotation(q mgl64.Quat) { b.rot = q }

func (b *demoBody) Scale() float64 { return b.scale }

func (b *demoBody) SetScale(s float64) { b.scale = s }

func (b *demoBody) Velocity() mgl64.Vec3 { return b.vel }

func (b *demoBody) SetVelocity(v mgl64.Vec3) { b.vel = v }

func (b *demoBody) AngularVelocity() mgl64.Vec3 { return b.angVel }

func (b *demoBody) SetAngularVelocity(v mgl64.Vec3) { b.angVel = v }

type Game struct {
	world    *goportal.World
	renderer *Renderer
	scene    *Scene
	cam      *flyCamera

	ball     *demoBody
	ballID   uuid.UUID
	ballMesh *Mesh
	inVolume [2]bool
}

func NewGame() *Game {
	scene := NewScene()
	renderer := NewRenderer(scene)

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	world := goportal.NewWorld(goportal.DefaultConfig(), goportal.Deps{
		Log:      logger,
		Renderer: renderer,
	})
	renderer.AttachWorld(world)

	g := &Game{
		world:    world,
		renderer: renderer,
		scene:    scene,
		cam: &flyCamera{
			pos:    mgl64.Vec3{0, 1.7, 6},
			fovY:   mgl64.DegToRad(70),
			aspect: float64(screenWidth) / float64(screenHeight),
		},
		ball: &demoBody{
			pos:   mgl64.Vec3{0, 3, 0},
			rot:   mgl64.QuatIdent(),
			scale: 1,
			vel:   mgl64.Vec3{1.5, 0, -2},
		},
		ballID: uuid.New(),
	}
	g.ballMesh = scene.AddBall(ballRadius, color.RGBA{240, 190, 40, 255})
	g.world.AddTraveler(&goportal.Traveler{
		Entity:   g.ballID,
		Body:     g.ball,
		Rigid:    g.ball,
		Collider: 100,
	})

	// Start with both portals placed on the facing walls.
	g.placeOnWall(goportal.RoleA, scene.Walls[0], mgl64.Vec2{-3, 0})
	g.placeOnWall(goportal.RoleB, scene.Walls[1], mgl64.Vec2{3, -0.5})
	return g
}

func (g *Game) placeOnWall(role goportal.Role, wall *Wall, local mgl64.Vec2) {
	otherLocal := mgl64.Vec2{1e6, 1e6}
	if st, ok := g.world.TryGetState(role.Other()); ok && st.Surface == wall.ID {
		otherLocal = wall.LocalPos(st.Position)
	}
	half := mgl64.Vec2{0.5, 1.0}
	bounds := goportal.Bounds2{
		Min: mgl64.Vec2{-wall.HalfW + half.X(), -wall.HalfH + half.Y()},
		Max: mgl64.Vec2{wall.HalfW - half.X(), wall.HalfH - half.Y()},
	}
	resolved, ok := goportal.ResolvePlacement(local, otherLocal, half, half, bounds)
	if !ok {
		return
	}
	// Crossings fire when a traveler moves from the negative to the
	// positive side of the forward axis, so a wall portal mounts with
	// forward pointing into the wall: the room is the entering side.
	g.world.PlacePortal(goportal.PlacementIntent{
		Role:     role,
		Position: wall.WorldPos(resolved).Add(wall.Normal.Mul(0.01)),
		Normal:   wall.Normal.Mul(-1),
		Right:    wall.Right.Mul(-1),
		Up:       wall.Up,
		Surface:  wall.ID,
		Wall:     goportal.ColliderID(wall.ID),
		Scale:    1,
	})
}

// shootPortal casts the crosshair ray against the walls and requests a
// placement at the hit point.
func (g *Game) shootPortal(role goportal.Role) {
	origin, dir := g.cam.ViewportToRay(0.5, 0.5)
	var best *Wall
	bestT := math.MaxFloat64
	var bestLocal mgl64.Vec2
	for _, wall := range g.scene.Walls {
		denom := dir.Dot(wall.Normal)
		if denom >= -1e-9 {
			continue
		}
		t := wall.Center.Sub(origin).Dot(wall.Normal) / denom
		if t <= 0 || t >= bestT {
			continue
		}
		local := wall.LocalPos(origin.Add(dir.Mul(t)))
		if math.Abs(local.X()) > wall.HalfW || math.Abs(local.Y()) > wall.HalfH {
			continue
		}
		best, bestT, bestLocal = wall, t, local
	}
	if best != nil {
		g.placeOnWall(role, best, bestLocal)
	}
}

func (g *Game) Update() error {
	g.handleInput()
	g.stepBall(1.0 / 60.0)
	g.updateTriggers()
	g.world.Step(g.cam)
	g.syncBallMesh()
	return nil
}

func (g *Game) handleInput() {
	const moveSpeed = 0.12
	const turnSpeed = 0.03

	fwd := g.cam.forward()
	flat := mgl64.Vec3{fwd.X(), 0, fwd.Z()}
	if flat.Len() > 1e-9 {
		flat = flat.Normalize()
	}
	right := flat.Cross(mgl64.Vec3{0, 1, 0})

	if ebiten.IsKeyPressed(ebiten.KeyW) {
		g.cam.pos = g.cam.pos.Add(flat.Mul(moveSpeed))
	}
	if ebiten.IsKeyPressed(ebiten.KeyS) {
		g.cam.pos = g.cam.pos.Sub(flat.Mul(moveSpeed))
	}
	if ebiten.IsKeyPressed(ebiten.KeyA) {
		g.cam.pos = g.cam.pos.Sub(right.Mul(moveSpeed))
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) {
		g.cam.pos = g.cam.pos.Add(right.Mul(moveSpeed))
	}
	if ebiten.IsKeyPressed(ebiten.KeyLeft) {
		g.cam.yaw += turnSpeed
	}
	if ebiten.IsKeyPressed(ebiten.KeyRight) {
		g.cam.yaw -= turnSpeed
	}
	if ebiten.IsKeyPressed(ebiten.KeyUp) {
		g.cam.pitch = math.Min(g.cam.pitch+turnSpeed, 1.4)
	}
	if ebiten.IsKeyPressed(ebiten.KeyDown) {
		g.cam.pitch = math.Max(g.cam.pitch-turnSpeed, -1.4)
	}
	if inpututil.IsKeyJustPressed(ebiten.Key1) {
		g.shootPortal(goportal.RoleA)
	}
	if inpututil.IsKeyJustPressed(ebiten.Key2) {
		g.shootPortal(goportal.RoleB)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.ball.pos = mgl64.Vec3{0, 3, 0}
		g.ball.vel = mgl64.Vec3{1.5, 0, -2}
		g.ball.scale = 1
	}
}

func (g *Game) stepBall(dt float64) {
	b := g.ball
	b.vel = b.vel.Add(mgl64.Vec3{0, -9.8 * dt, 0})
	b.pos = b.pos.Add(b.vel.Mul(dt))

	r := ballRadius * b.scale
	if b.pos.Y() < r {
		b.pos = mgl64.Vec3{b.pos.X(), r, b.pos.Z()}
		b.vel = mgl64.Vec3{b.vel.X(), math.Abs(b.vel.Y()) * 0.85, b.vel.Z()}
	}
	// Soft room bounds so the ball stays in play unless a portal takes it.
	for i, lim := range []float64{14.5, 0, 14.5} {
		if i == 1 {
			continue
		}
		if math.Abs(b.pos[i]) > lim {
			b.pos[i] = math.Copysign(lim, b.pos[i])
			b.vel[i] = -b.vel[i]
		}
	}
}

// updateTriggers emulates the physics trigger volumes: a portal tracks the
// ball while it is inside a small detection box in front of the plane.
func (g *Game) updateTriggers() {
	for _, role := range []goportal.Role{goportal.RoleA, goportal.RoleB} {
		st, ok := g.world.TryGetState(role)
		inside := false
		if ok {
			d := g.ball.pos.Sub(st.Position)
			depth := d.Dot(st.Forward)
			lat := d.Sub(st.Forward.Mul(depth))
			inside = math.Abs(depth) < 1.2*st.Scale && lat.Len() < 1.4*st.Scale
		}
		idx := int(role)
		if inside && !g.inVolume[idx] {
			g.world.TriggerEnter(role, g.ballID, false)
		}
		if !inside && g.inVolume[idx] {
			g.world.TriggerExit(role, g.ballID)
		}
		g.inVolume[idx] = inside
	}
}

func (g *Game) syncBallMesh() {
	base := []mgl64.Vec3{
		{0, ballRadius, 0}, {0, -ballRadius, 0},
		{ballRadius, 0, 0}, {0, 0, ballRadius}, {-ballRadius, 0, 0}, {0, 0, -ballRadius},
	}
	for i, v := range base {
		g.ballMesh.Verts[i] = g.ball.pos.Add(g.ball.rot.Rotate(v.Mul(g.ball.scale)))
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.renderer.DrawScreen(screen, g.cam.WorldTransform(), g.cam.Projection())
	ebitenutil.DebugPrint(screen, fmt.Sprintf(
		"FPS %0.0f  WASD move, arrows look, 1/2 shoot portals, R reset ball",
		ebiten.ActualFPS()))
}

func (g *Game) Layout(_, _ int) (int, int) {
	return screenWidth, screenHeight
}

func main() {
	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("goportal demo")
	if err := ebiten.RunGame(NewGame()); err != nil {
		log.Fatal(err)
	}
}
