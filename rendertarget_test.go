package goportal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierFor(t *testing.T) {
	tests := []struct {
		name     string
		coverage float64
		depth    int
		maxSize  int
		want     int
	}{
		{"tiny coverage", 0.01, 1, 4096, 256},
		{"quarter of 1k budget", 0.25, 1, 1024, 256},
		{"full coverage 1k budget", 1.0, 1, 1024, 1024},
		{"half coverage deep recursion biases up", 0.5, 5, 1024, 1024},
		{"half coverage shallow", 0.5, 1, 1024, 512},
		{"capped by budget", 1.0, 5, 512, 512},
		{"clamped coverage", 3.0, 1, 4096, 4096},
		{"negative coverage", -1, 1, 1024, 256},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tierFor(tt.coverage, tt.depth, tt.maxSize))
		})
	}
}

func TestRenderTargetCommitsAfterStableFrames(t *testing.T) {
	cfg := testConfig() // three stable frames
	rt := NewRenderTarget(cfg)
	require.Equal(t, 256, rt.Size())

	assert.False(t, rt.Tick(0.9, 1))
	assert.False(t, rt.Tick(0.9, 1))
	assert.True(t, rt.Tick(0.9, 1))
	assert.Equal(t, 1024, rt.Size())

	// Holding the same coverage afterwards changes nothing.
	assert.False(t, rt.Tick(0.9, 1))
	assert.Equal(t, 1024, rt.Size())
}

func TestRenderTargetIgnoresJitter(t *testing.T) {
	rt := NewRenderTarget(testConfig())
	start := rt.Size()

	// Coverage flapping between tiers resets the stability counter every
	// frame, so no resize ever commits.
	for i := 0; i < 20; i++ {
		cov := 0.9
		if i%2 == 0 {
			cov = 0.3
		}
		assert.False(t, rt.Tick(cov, 1))
	}
	assert.Equal(t, start, rt.Size())
}

func TestRenderTargetRelativeThreshold(t *testing.T) {
	cfg := testConfig()
	cfg.ResizeRelativeThreshold = 3.5
	rt := NewRenderTarget(cfg)
	require.Equal(t, 256, rt.Size())

	// 256 -> 1024 is a 3x relative change, below the (artificially high)
	// threshold, so the resize is suppressed even once stable.
	for i := 0; i < 10; i++ {
		assert.False(t, rt.Tick(0.9, 1))
	}
	assert.Equal(t, 256, rt.Size())
}

func TestRenderTargetNoAllocationWithoutImage(t *testing.T) {
	rt := NewRenderTarget(testConfig())
	for i := 0; i < 5; i++ {
		rt.Tick(0.9, 1)
	}
	assert.False(t, rt.Allocated())

	// Sentinel clear and release are no-ops before the first Image call.
	rt.ClearSentinel()
	rt.Release()
	assert.False(t, rt.Allocated())
}
