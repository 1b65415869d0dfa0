package main

import (
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/smasonuk/goportal"
)

var (
	whiteImage = ebiten.NewImage(3, 3)
	whiteSub   *ebiten.Image
)

func init() {
	whiteImage.Fill(color.White)
	whiteSub = whiteImage.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
}

var lightDir = mgl64.Vec3{0.3, -1, 0.45}.Normalize()

// Renderer is the demo's SceneRenderer: painter's-algorithm projection of
// the scene triangles onto an ebiten image, plus the textured portal quads.
type Renderer struct {
	scene *Scene
	world *goportal.World

	// portalDepth guards the recursive portal-quad draw: recursive passes
	// draw the quads as flat sentinel fills instead of sampling the target
	// mid-update.
	portalDepth int
}

func NewRenderer(scene *Scene) *Renderer {
	return &Renderer{scene: scene}
}

// AttachWorld lets the renderer draw portal quads textured with the pair's
// render targets. Called once after the world exists.
func (r *Renderer) AttachWorld(w *goportal.World) { r.world = w }

type imageDest interface {
	Image() *ebiten.Image
}

// RenderView implements goportal.SceneRenderer.
func (r *Renderer) RenderView(dst goportal.RenderDest, camWorld, proj mgl64.Mat4) {
	img, ok := dst.(imageDest)
	if !ok {
		return
	}
	r.portalDepth++
	r.drawScene(img.Image(), camWorld, proj)
	r.portalDepth--
}

// DrawScreen renders the player's view, portal quads included.
func (r *Renderer) DrawScreen(screen *ebiten.Image, camWorld, proj mgl64.Mat4) {
	r.drawScene(screen, camWorld, proj)
}

type drawTri struct {
	depth float64
	sx    [3]float32
	sy    [3]float32
	clr   color.RGBA
}

func (r *Renderer) drawScene(dst *ebiten.Image, camWorld, proj mgl64.Mat4) {
	dst.Fill(color.RGBA{24, 26, 34, 255})

	bounds := dst.Bounds()
	w := float64(bounds.Dx())
	h := float64(bounds.Dy())
	view := camWorld.Inv()

	var tris []drawTri
	for _, m := range r.scene.Meshes {
		for _, f := range m.Faces {
			var sx, sy [3]float32
			var eyeZ float64
			behind := false
			va := m.Verts[f.A]
			vb := m.Verts[f.B]
			vc := m.Verts[f.C]
			for i, v := range [3]mgl64.Vec3{va, vb, vc} {
				eye := view.Mul4x1(v.Vec4(1))
				clip := proj.Mul4x1(eye)
				if clip.W() <= 0.001 {
					behind = true
					break
				}
				sx[i] = float32((clip.X()/clip.W() + 1) * 0.5 * w)
				sy[i] = float32((1 - clip.Y()/clip.W()) * 0.5 * h)
				eyeZ += eye.Z()
			}
			if behind {
				continue
			}

			n := vb.Sub(va).Cross(vc.Sub(va))
			if n.Len() < 1e-12 {
				continue
			}
			n = n.Normalize()
			shade := 0.55 + 0.45*math.Max(0, n.Dot(lightDir.Mul(-1)))
			tris = append(tris, drawTri{
				depth: eyeZ / 3,
				sx:    sx,
				sy:    sy,
				clr: color.RGBA{
					R: uint8(float64(f.Color.R) * shade),
					G: uint8(float64(f.Color.G) * shade),
					B: uint8(float64(f.Color.B) * shade),
					A: f.Color.A,
				},
			})
		}
	}

	// Painter's algorithm: farthest (most negative eye z) first.
	sort.Slice(tris, func(i, j int) bool { return tris[i].depth < tris[j].depth })
	for _, t := range tris {
		fillConvexPolygon(dst, t.sx[:], t.sy[:], t.clr)
	}

	r.drawPortalQuads(dst, view, proj, w, h)
}

// drawPortalQuads draws each placed portal as two textured triangles
// sampling its render target. During recursive passes the quad falls back
// to a flat fill; the deeper levels of the chain supply the recursion
// instead.
func (r *Renderer) drawPortalQuads(dst *ebiten.Image, view, proj mgl64.Mat4, w, h float64) {
	if r.world == nil {
		return
	}
	for _, role := range []goportal.Role{goportal.RoleA, goportal.RoleB} {
		st, ok := r.world.TryGetState(role)
		if !ok || !st.Ready {
			continue
		}
		hw := 0.5 * st.Scale
		hh := 1.0 * st.Scale
		corners := [4]mgl64.Vec3{
			st.Position.Sub(st.Right.Mul(hw)).Add(st.Up.Mul(hh)),
			st.Position.Add(st.Right.Mul(hw)).Add(st.Up.Mul(hh)),
			st.Position.Add(st.Right.Mul(hw)).Sub(st.Up.Mul(hh)),
			st.Position.Sub(st.Right.Mul(hw)).Sub(st.Up.Mul(hh)),
		}
		var sx, sy [4]float32
		ok = true
		for i, c := range corners {
			eye := view.Mul4x1(c.Vec4(1))
			clip := proj.Mul4x1(eye)
			if clip.W() <= 0.001 {
				ok = false
				break
			}
			sx[i] = float32((clip.X()/clip.W() + 1) * 0.5 * w)
			sy[i] = float32((1 - clip.Y()/clip.W()) * 0.5 * h)
		}
		if !ok {
			continue
		}

		if r.portalDepth > 0 {
			fillConvexPolygon(dst, sx[:], sy[:], color.RGBA{12, 10, 18, 255})
			continue
		}

		tex := r.world.TargetTexture(role)
		tw := float32(tex.Bounds().Dx())
		th := float32(tex.Bounds().Dy())
		srcX := [4]float32{0, tw, tw, 0}
		srcY := [4]float32{0, 0, th, th}
		verts := make([]ebiten.Vertex, 4)
		for i := range verts {
			verts[i] = ebiten.Vertex{
				DstX: sx[i], DstY: sy[i],
				SrcX: srcX[i], SrcY: srcY[i],
				ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1,
			}
		}
		indices := []uint16{0, 1, 2, 0, 2, 3}
		op := &ebiten.DrawTrianglesOptions{}
		dst.DrawTriangles(verts, indices, tex, op)
	}
}

// fillConvexPolygon rasterizes a convex polygon as a triangle fan through
// the shared white sub-image.
func fillConvexPolygon(screen *ebiten.Image, xp, yp []float32, clr color.RGBA) {
	if len(xp) < 3 {
		return
	}

	indices := make([]uint16, 0, (len(xp)-2)*3)
	for i := 2; i < len(xp); i++ {
		indices = append(indices, 0, uint16(i-1), uint16(i))
	}

	vertices := make([]ebiten.Vertex, len(xp))
	cr := float32(clr.R) / 255.0
	cg := float32(clr.G) / 255.0
	cb := float32(clr.B) / 255.0
	ca := float32(clr.A) / 255.0
	for i := range xp {
		vertices[i] = ebiten.Vertex{
			DstX: xp[i], DstY: yp[i],
			SrcX: 1, SrcY: 1,
			ColorR: cr, ColorG: cg, ColorB: cb, ColorA: ca,
		}
	}

	op := &ebiten.DrawTrianglesOptions{}
	op.AntiAlias = true
	screen.DrawTriangles(vertices, indices, whiteSub, op)
}
