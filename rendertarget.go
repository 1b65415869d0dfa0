package goportal

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// sentinelColor is what a suppressed portal's target is cleared to, so a
// stale view is never sampled as if it were current.
var sentinelColor = color.RGBA{R: 12, G: 10, B: 18, A: 255}

// sizeTiers are the allowed square render target edge lengths.
var sizeTiers = []int{256, 512, 1024, 2048, 4096}

// RenderTarget owns one portal's offscreen texture. Sizing decisions go
// through a hysteresis filter: a desired size must hold for a fixed number
// of consecutive frames and differ from the current size by more than a
// relative threshold before the texture is reallocated, so coverage jitter
// never causes per-frame reallocation.
type RenderTarget struct {
	maxSize      int
	stableFrames int
	relThreshold float64

	size int
	img  *ebiten.Image

	pendingSize   int
	pendingFrames int
}

func NewRenderTarget(cfg Config) *RenderTarget {
	return &RenderTarget{
		maxSize:      cfg.TextureSize,
		stableFrames: cfg.ResizeStableFrames,
		relThreshold: cfg.ResizeRelativeThreshold,
		size:         tierFor(0.25, 1, cfg.TextureSize),
	}
}

// Tick feeds one frame of sizing input (screen coverage fraction and the
// recursion depth in use) and reports whether a resize was committed. Runs
// once per frame whether or not the portal renders.
func (rt *RenderTarget) Tick(coverage float64, depth int) bool {
	desired := tierFor(coverage, depth, rt.maxSize)

	if desired != rt.pendingSize {
		rt.pendingSize = desired
		rt.pendingFrames = 1
		return false
	}
	rt.pendingFrames++
	if rt.pendingFrames < rt.stableFrames {
		return false
	}
	if desired == rt.size {
		return false
	}
	rel := math.Abs(float64(desired)-float64(rt.size)) / float64(rt.size)
	if rel <= rt.relThreshold {
		return false
	}
	rt.size = desired
	if rt.img != nil {
		rt.img.Deallocate()
		rt.img = nil
	}
	return true
}

// Size is the committed square edge length.
func (rt *RenderTarget) Size() int { return rt.size }

// Image returns the texture, allocating it lazily at the committed size.
// This is the handle the material system samples.
func (rt *RenderTarget) Image() *ebiten.Image {
	if rt.img == nil {
		rt.img = ebiten.NewImage(rt.size, rt.size)
		rt.img.Fill(sentinelColor)
	}
	return rt.img
}

// Allocated reports whether a texture currently exists.
func (rt *RenderTarget) Allocated() bool { return rt.img != nil }

// ClearSentinel wipes the texture so suppressed frames do not show stale
// content. No-op when nothing has been allocated yet.
func (rt *RenderTarget) ClearSentinel() {
	if rt.img != nil {
		rt.img.Fill(sentinelColor)
	}
}

// Release frees the texture. Called when the owning portal is destroyed.
func (rt *RenderTarget) Release() {
	if rt.img != nil {
		rt.img.Deallocate()
		rt.img = nil
	}
}

// tierFor picks the smallest tier that covers the desired resolution for
// the given coverage and recursion depth. Higher coverage and deeper
// recursion both bias toward higher resolution.
func tierFor(coverage float64, depth int, maxSize int) int {
	if coverage < 0 {
		coverage = 0
	}
	if coverage > 1 {
		coverage = 1
	}
	if depth < 1 {
		depth = 1
	}
	bias := 1 + 0.15*float64(depth-1)
	want := coverage * bias * float64(maxSize)

	chosen := sizeTiers[0]
	for _, t := range sizeTiers {
		if t > maxSize {
			break
		}
		chosen = t
		if float64(t) >= want {
			break
		}
	}
	return chosen
}
