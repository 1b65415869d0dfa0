package goportal

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readyPair places both portals in front of an identity camera and runs the
// opening animations to completion.
func readyPair(t *testing.T, cfg Config, bFwd mgl64.Vec3) *Pair {
	t.Helper()
	pair := placedPair(cfg,
		mgl64.Vec3{-2, 0, -5}, mgl64.Vec3{0, 0, 1},
		mgl64.Vec3{2, 0, -5}, bFwd, 1, 1)
	for i := 0; i < cfg.OpenDuration; i++ {
		pair.Portal(RoleA).Opening().Advance()
		pair.Portal(RoleB).Opening().Advance()
	}
	return pair
}

func TestCoverage(t *testing.T) {
	cfg := testConfig()
	pair := readyPair(t, cfg, mgl64.Vec3{0, 0, 1})
	sched := NewRenderScheduler(cfg, pair, nil, nopLogger())
	cam := newFakeCam()

	// In front of the camera: some coverage, well under full screen.
	cov := sched.Coverage(cam, pair.Portal(RoleA))
	assert.Greater(t, cov, 0.0)
	assert.Less(t, cov, 0.5)

	// Behind the camera: nothing.
	mustPlace(pair, RoleA, mgl64.Vec3{0, 0, 5}, mgl64.Vec3{0, 0, 1}, 1)
	assert.InDelta(t, 0, sched.Coverage(cam, pair.Portal(RoleA)), 1e-12)
}

func TestRefreshVisibility(t *testing.T) {
	cfg := testConfig()
	pair := readyPair(t, cfg, mgl64.Vec3{0, 0, 1})
	sched := NewRenderScheduler(cfg, pair, nil, nopLogger())

	sched.RefreshVisibility(newFakeCam())
	assert.True(t, pair.Portal(RoleA).Visible())
	assert.True(t, pair.Portal(RoleB).Visible())

	// An unplaced portal is never visible.
	pair.Remove(RoleB)
	sched.RefreshVisibility(newFakeCam())
	assert.False(t, pair.Portal(RoleB).Visible())
}

func TestEligibleRequiresAllFlags(t *testing.T) {
	cfg := testConfig()
	pair := readyPair(t, cfg, mgl64.Vec3{0, 0, 1})
	sched := NewRenderScheduler(cfg, pair, nil, nopLogger())

	pair.Portal(RoleA).SetVisible(true)
	pair.Portal(RoleB).SetVisible(true)
	assert.True(t, sched.Eligible())

	pair.Portal(RoleB).SetVisible(false)
	assert.False(t, sched.Eligible())
	pair.Portal(RoleB).SetVisible(true)

	// A fresh placement restarts the opening animation and suppresses the
	// pair until it finishes.
	mustPlace(pair, RoleA, mgl64.Vec3{-2, 0, -5}, mgl64.Vec3{0, 0, 1}, 1)
	pair.Portal(RoleA).SetVisible(true)
	assert.False(t, sched.Eligible())
}

func TestFrameRendersCollapsedChain(t *testing.T) {
	cfg := testConfig()
	// Same-facing portals collapse to one level per portal.
	pair := readyPair(t, cfg, mgl64.Vec3{0, 0, 1})
	fr := &fakeRenderer{}
	sched := NewRenderScheduler(cfg, pair, fr, nopLogger())
	cam := newFakeCam()

	sched.RefreshVisibility(cam)
	require.True(t, sched.Eligible())
	sched.Frame(cam)
	assert.Equal(t, 2, fr.passes)
}

func TestFrameRendersFullRecursion(t *testing.T) {
	cfg := testConfig()
	pair := readyPair(t, cfg, mgl64.Vec3{0, 0, -1})
	fr := &fakeRenderer{}
	sched := NewRenderScheduler(cfg, pair, fr, nopLogger())
	cam := newFakeCam()

	sched.RefreshVisibility(cam)
	require.True(t, sched.Eligible())
	sched.Frame(cam)
	assert.Equal(t, 2*cfg.RecursionLimit, fr.passes)
}

func TestEffectiveDepthFollowsCollapse(t *testing.T) {
	cfg := testConfig()
	pair := readyPair(t, cfg, mgl64.Vec3{0, 0, 1})
	sched := NewRenderScheduler(cfg, pair, nil, nopLogger())

	// Same-facing pairs collapse to one level, so sizing must not carry
	// the full-depth resolution bias.
	assert.Equal(t, 1, sched.effectiveDepth())

	mustPlace(pair, RoleB, mgl64.Vec3{2, 0, -5}, mgl64.Vec3{0, 0, -1}, 1)
	assert.Equal(t, cfg.RecursionLimit, sched.effectiveDepth())

	pair.Remove(RoleB)
	assert.Equal(t, cfg.RecursionLimit, sched.effectiveDepth())
}

func TestFrameSuppressedWhenNotEligible(t *testing.T) {
	cfg := testConfig()
	pair := NewPair(cfg)
	mustPlace(pair, RoleA, mgl64.Vec3{-2, 0, -5}, mgl64.Vec3{0, 0, 1}, 1)
	fr := &fakeRenderer{}
	sched := NewRenderScheduler(cfg, pair, fr, nopLogger())

	sched.Frame(newFakeCam())
	assert.Zero(t, fr.passes)
}
