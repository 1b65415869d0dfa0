package goportal

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

const scaleEpsilon = 1e-9

// Pose is a complete spatial state, used when a clone proxy hands its
// transform over as the authoritative post-teleport pose.
type Pose struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
	Scale    float64
}

// TeleportExecutor moves a traveler through the pair: pose via MapPose,
// velocities through the pair rotation with the mirror flip and scale
// ratio, plus the minimum-exit-velocity correction and the collision
// bookkeeping with the two wall colliders.
type TeleportExecutor struct {
	cfg    Config
	pair   *Pair
	filter CollisionFilter
	log    *zap.Logger
}

func NewTeleportExecutor(cfg Config, pair *Pair, filter CollisionFilter, log *zap.Logger) *TeleportExecutor {
	return &TeleportExecutor{cfg: cfg, pair: pair, filter: filter, log: log}
}

// Teleport carries the traveler from the portal in role from to its
// partner. A non-nil override (the ghost's last shown transform) replaces
// the recomputed pose so the visible ghost and the final pose can never
// disagree. No-op when either portal is unplaced. Returns whether the
// teleport happened.
func (te *TeleportExecutor) Teleport(t *Traveler, from Role, override *Pose) bool {
	if t == nil || !te.pair.BothPlaced() {
		return false
	}
	src := te.pair.Portal(from)
	dst := te.pair.Other(from)
	ratio := te.pair.ScaleRatio(from)

	// Dynamic state is captured before the body moves.
	var vel, angVel mgl64.Vec3
	if t.Rigid != nil {
		vel = t.Rigid.Velocity()
		angVel = t.Rigid.AngularVelocity()
	}

	var newPos mgl64.Vec3
	var newRot mgl64.Quat
	newScale := t.Body.Scale()
	if override != nil {
		newPos, newRot, newScale = override.Position, override.Rotation, override.Scale
	} else {
		newPos, newRot = MapPose(src, dst, t.Body.Position(), t.Body.Rotation(), ratio)
		if math.Abs(ratio-1) > scaleEpsilon {
			newScale = t.Body.Scale() * ratio
		}
	}
	if !finiteVec3(newPos) {
		return false
	}

	t.Body.SetPosition(newPos)
	t.Body.SetRotation(newRot)
	if math.Abs(newScale-t.Body.Scale()) > scaleEpsilon {
		t.Body.SetScale(newScale)
	}

	if t.Rigid != nil {
		rel, _ := te.pair.Rotation(from)
		newVel := rel.Rotate(vel.Mul(ratio))
		newVel = te.correctExitVelocity(src, dst, newVel)
		t.Rigid.SetVelocity(newVel)
		t.Rigid.SetAngularVelocity(rel.Rotate(angVel))
	}

	// The source wall becomes solid again; the destination wall stays
	// passable until the arrival naturally leaves its trigger volume.
	if te.filter != nil && t.Collider != 0 {
		if src.wall != 0 {
			te.filter.SetIgnore(t.Collider, src.wall, false)
		}
		if dst.wall != 0 {
			te.filter.SetIgnore(t.Collider, dst.wall, true)
		}
	}

	te.log.Info("teleport",
		zap.String("from", from.String()),
		zap.String("entity", t.Entity.String()),
		zap.Float64("scaleRatio", ratio))
	return true
}

// correctExitVelocity keeps objects that fell straight into a floor or
// ceiling portal from stalling inside a wall-mounted exit. Applies only on
// the non-vertical to vertical transition.
func (te *TeleportExecutor) correctExitVelocity(src, dst *Portal, v mgl64.Vec3) mgl64.Vec3 {
	srcFlat := math.Abs(src.forward.Dot(worldUp)) > te.cfg.VerticalThreshold
	dstWall := math.Abs(dst.forward.Dot(worldUp)) <= te.cfg.VerticalThreshold
	if !srcFlat || !dstWall {
		return v
	}

	exit := horizontal(dst.forward)
	if exit.Len() < minBasisLength {
		return v
	}
	exit = exit.Normalize()

	h := horizontal(v)
	speed := h.Len()
	switch {
	case speed < te.cfg.MinExitSpeed:
		// Replace the horizontal component outright.
		h = exit.Mul(te.cfg.MinExitSpeed)
		return mgl64.Vec3{h.X(), v.Y(), h.Z()}
	case h.Normalize().Dot(exit) < 0.5:
		// Fast but pointed the wrong way; boost along the exit direction
		// instead of overriding.
		return v.Add(exit.Mul(te.cfg.MinExitSpeed))
	default:
		return v
	}
}

func horizontal(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v.X(), 0, v.Z()}
}
