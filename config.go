package goportal

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Config is the in-memory configuration record for the portal core. Hosts
// usually build one from DefaultConfig and tweak a few fields; all values are
// clamped into a sane range by Normalized before use.
type Config struct {
	// TextureSize is the maximum edge length of a portal render target.
	TextureSize int `yaml:"textureSize"`
	// RecursionLimit bounds how many nested portal hops are rendered.
	RecursionLimit int `yaml:"recursionLimit"`

	MinScale float64 `yaml:"minScale"`
	MaxScale float64 `yaml:"maxScale"`

	// MinExitSpeed is the minimum horizontal speed applied to a traveler
	// leaving a wall-mounted portal after falling into a floor portal.
	MinExitSpeed float64 `yaml:"minExitSpeed"`

	// ClipPlaneOffset nudges the oblique near plane along the exit portal's
	// forward vector so the portal surface itself is never clipped.
	ClipPlaneOffset float64 `yaml:"clipPlaneOffset"`

	// ProximityRadius is the distance within which a ghost clone is kept
	// alive for a traveler near a portal.
	ProximityRadius float64 `yaml:"proximityRadius"`

	// SeedMargin is how far onto the entering side a freshly registered
	// traveler's signed offset is seeded.
	SeedMargin float64 `yaml:"seedMargin"`

	// SameFacingThreshold is the forward-dot above which recursion collapses
	// to a single level.
	SameFacingThreshold float64 `yaml:"sameFacingThreshold"`

	// VerticalThreshold classifies a portal as floor/ceiling-like when
	// |forward . worldUp| exceeds it.
	VerticalThreshold float64 `yaml:"verticalThreshold"`

	// ResizeStableFrames is how many consecutive frames a desired render
	// target size must hold before a resize is committed.
	ResizeStableFrames int `yaml:"resizeStableFrames"`
	// ResizeRelativeThreshold is the minimum relative size difference that
	// justifies a reallocation.
	ResizeRelativeThreshold float64 `yaml:"resizeRelativeThreshold"`

	// OpenDuration is the length, in frames, of the opening animation that
	// gates readyToRender.
	OpenDuration int `yaml:"openDuration"`
}

func DefaultConfig() Config {
	return Config{
		TextureSize:             1024,
		RecursionLimit:          5,
		MinScale:                0.25,
		MaxScale:                4.0,
		MinExitSpeed:            3.0,
		ClipPlaneOffset:         0.05,
		ProximityRadius:         1.5,
		SeedMargin:              0.01,
		SameFacingThreshold:     0.995,
		VerticalThreshold:       0.5,
		ResizeStableFrames:      10,
		ResizeRelativeThreshold: 0.2,
		OpenDuration:            18,
	}
}

// Normalized returns a copy with every field clamped into its legal range.
func (c Config) Normalized() Config {
	d := DefaultConfig()

	if c.TextureSize == 0 {
		c.TextureSize = d.TextureSize
	}
	c.TextureSize = clampInt(c.TextureSize, 256, 4096)

	if c.RecursionLimit < 1 {
		c.RecursionLimit = 1
	}

	if c.MinScale <= 0 {
		c.MinScale = d.MinScale
	}
	if c.MaxScale <= 0 {
		c.MaxScale = d.MaxScale
	}
	if c.MaxScale < c.MinScale {
		c.MinScale, c.MaxScale = c.MaxScale, c.MinScale
	}

	if c.MinExitSpeed < 0 {
		c.MinExitSpeed = 0
	}
	if c.ClipPlaneOffset <= 0 {
		c.ClipPlaneOffset = d.ClipPlaneOffset
	}
	if c.ProximityRadius <= 0 {
		c.ProximityRadius = d.ProximityRadius
	}
	if c.SeedMargin <= 0 {
		c.SeedMargin = d.SeedMargin
	}
	if c.SameFacingThreshold <= 0 || c.SameFacingThreshold > 1 {
		c.SameFacingThreshold = d.SameFacingThreshold
	}
	if c.VerticalThreshold <= 0 || c.VerticalThreshold >= 1 {
		c.VerticalThreshold = d.VerticalThreshold
	}
	if c.ResizeStableFrames < 1 {
		c.ResizeStableFrames = d.ResizeStableFrames
	}
	if c.ResizeRelativeThreshold <= 0 {
		c.ResizeRelativeThreshold = d.ResizeRelativeThreshold
	}
	if c.OpenDuration < 1 {
		c.OpenDuration = d.OpenDuration
	}
	return c
}

// ConfigFromYAML parses a YAML document into a Config. Missing fields fall
// back to defaults through Normalized.
func ConfigFromYAML(data []byte) (Config, error) {
	c := DefaultConfig()
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("parse portal config: %w", err)
	}
	return c.Normalized(), nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
