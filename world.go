package goportal

import (
	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
)

// Deps are the injected collaborators the portal core layers on top of.
// Only Renderer is required to render; the rest may be nil and the
// corresponding behavior degrades to a no-op.
type Deps struct {
	Log      *zap.Logger
	Renderer SceneRenderer
	Filter   CollisionFilter
	Held     HeldQuery
	Cloner   VisualCloner
}

// World owns the portal pair and every portal-side component, and drives
// them in the fixed per-frame order: placements, readiness, render,
// crossings. Nothing here blocks; every phase is a synchronous per-frame
// computation.
type World struct {
	cfg  Config
	log  *zap.Logger
	held HeldQuery

	pair      *Pair
	reg       *Registry
	detectors [2]*CrossingDetector
	exec      *TeleportExecutor
	sched     *RenderScheduler
	clones    *CloneManager

	pendingPlace  []PlacementIntent
	pendingRemove []Role
}

func NewWorld(cfg Config, deps Deps) *World {
	cfg = cfg.Normalized()
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	held := deps.Held
	if held == nil {
		held = neverHeld{}
	}

	pair := NewPair(cfg)
	reg := NewRegistry()
	w := &World{
		cfg:    cfg,
		log:    log,
		held:   held,
		pair:   pair,
		reg:    reg,
		exec:   NewTeleportExecutor(cfg, pair, deps.Filter, log),
		sched:  NewRenderScheduler(cfg, pair, deps.Renderer, log),
		clones: NewCloneManager(cfg, pair, reg, deps.Cloner, log),
	}
	for _, role := range []Role{RoleA, RoleB} {
		w.detectors[role] = NewCrossingDetector(cfg, pair.Portal(role), reg, held, deps.Filter, log)
	}
	return w
}

func (w *World) Config() Config { return w.cfg }

func (w *World) Pair() *Pair { return w.pair }

// PlacePortal queues a placement intent; it is validated and applied at the
// start of the next Step so no component ever sees a half-applied frame.
func (w *World) PlacePortal(in PlacementIntent) {
	w.pendingPlace = append(w.pendingPlace, in)
}

// RemovePortal queues a removal.
func (w *World) RemovePortal(role Role) {
	w.pendingRemove = append(w.pendingRemove, role)
}

// TryGetState returns the placement snapshot for UI and gameplay scripts.
func (w *World) TryGetState(role Role) (State, bool) {
	p := w.pair.Portal(role)
	if !p.placed {
		return State{}, false
	}
	return p.snapshot(), true
}

// TargetTexture is the render target texture the material system samples
// for the given portal.
func (w *World) TargetTexture(role Role) *ebiten.Image {
	return w.pair.Portal(role).target.Image()
}

// AddTraveler registers a rigid entity as teleport eligible and returns its
// handle.
func (w *World) AddTraveler(t *Traveler) TravelerID {
	return w.reg.Add(t)
}

// RemoveTraveler forgets a traveler everywhere.
func (w *World) RemoveTraveler(id TravelerID) {
	for _, d := range w.detectors {
		d.TriggerExit(id)
	}
	w.clones.Discard(id)
	w.reg.Remove(id)
}

// TriggerEnter feeds a physics trigger-volume enter event for a portal.
func (w *World) TriggerEnter(role Role, entity uuid.UUID, isHeld bool) {
	if id, ok := w.reg.Resolve(entity); ok {
		w.detectors[role].TriggerEnter(id, isHeld)
	}
}

// TriggerExit feeds a physics trigger-volume exit event.
func (w *World) TriggerExit(role Role, entity uuid.UUID) {
	if id, ok := w.reg.Resolve(entity); ok {
		w.detectors[role].TriggerExit(id)
	}
}

// Dropped tells the core a held entity was released.
func (w *World) Dropped(entity uuid.UUID) {
	if id, ok := w.reg.Resolve(entity); ok {
		for _, d := range w.detectors {
			d.Dropped(id)
		}
	}
}

// Teleport forces a traveler through the pair outside the normal crossing
// flow, e.g. a held object being relocated. The ghost pose, when one
// exists, wins over recomputation. Returns false when the pair is not fully
// placed or the entity is unknown.
func (w *World) Teleport(entity uuid.UUID, from Role) bool {
	id, ok := w.reg.Resolve(entity)
	if !ok {
		return false
	}
	return w.teleportByID(id, from)
}

func (w *World) teleportByID(id TravelerID, from Role) bool {
	t := w.reg.Get(id)
	if t == nil {
		return false
	}
	var override *Pose
	if pose, ok := w.clones.TakeOver(id, from); ok {
		override = &pose
	}
	if !w.exec.Teleport(t, from, override) {
		return false
	}
	w.detectors[from.Other()].SeedArrival(id)
	return true
}

// Step runs one frame in the order placement, readiness, render, crossing.
// Crossing detection runs after rendering so travelers are tested against
// portal geometry that has settled for the frame.
func (w *World) Step(cam CameraRig) {
	w.ApplyPlacements()
	w.UpdateReadiness()
	w.Render(cam)
	w.UpdateCrossings()
}

// ApplyPlacements applies queued placement and removal requests, clamping
// scale into the configured range and invalidating the pair's cached step
// transform before any reader runs this frame.
func (w *World) ApplyPlacements() {
	for _, role := range w.pendingRemove {
		w.pair.Remove(role)
		w.log.Info("portal removed", zap.String("portal", role.String()))
	}
	w.pendingRemove = w.pendingRemove[:0]

	for _, in := range w.pendingPlace {
		in.Scale = clampF(in.Scale, w.cfg.MinScale, w.cfg.MaxScale)
		if err := w.pair.Place(in); err != nil {
			w.log.Warn("placement rejected",
				zap.String("portal", in.Role.String()),
				zap.Error(err))
			continue
		}
		w.log.Info("portal placed",
			zap.String("portal", in.Role.String()),
			zap.Float64("scale", in.Scale))
	}
	w.pendingPlace = w.pendingPlace[:0]
}

// UpdateReadiness advances the opening animations that gate rendering.
func (w *World) UpdateReadiness() {
	w.pair.Portal(RoleA).opening.Advance()
	w.pair.Portal(RoleB).opening.Advance()
}

// Render refreshes visibility and runs the render scheduler. The only phase
// that touches the render targets.
func (w *World) Render(cam CameraRig) {
	if cam == nil {
		return
	}
	w.sched.RefreshVisibility(cam)
	w.sched.Frame(cam)
}

// UpdateCrossings refreshes ghosts from the frame's final traveler poses,
// then samples every detector and executes the teleports that fired.
func (w *World) UpdateCrossings() {
	w.clones.Update()
	for _, role := range []Role{RoleA, RoleB} {
		for _, id := range w.detectors[role].Update() {
			w.teleportByID(id, role)
		}
	}
}

// Close releases the render targets. The pair records stay usable but
// nothing renders until textures are recreated on demand.
func (w *World) Close() {
	w.pair.Portal(RoleA).target.Release()
	w.pair.Portal(RoleB).target.Release()
}

// neverHeld is the default held-object query when the host has no pickup
// system.
type neverHeld struct{}

func (neverHeld) IsHeld(uuid.UUID) bool { return false }
