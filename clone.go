package goportal

import (
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

// VisualProxy is a render-only duplicate of a traveler's geometry, owned by
// the host's rendering side. No collider, no rigid body.
type VisualProxy interface {
	SetPose(pos mgl64.Vec3, rot mgl64.Quat, scale float64)
	Dispose()
}

// VisualCloner duplicates a host entity's visual geometry.
type VisualCloner interface {
	CloneVisual(t *Traveler) VisualProxy
}

type cloneEntry struct {
	visual VisualProxy
	from   Role
	pose   Pose
}

// CloneManager keeps a ghost copy on the far side for every traveler close
// enough to a fully placed portal, updating it from the traveler's live
// pose every frame. At the crossing or drop-swap moment the ghost's current
// transform becomes the traveler's authoritative pose, which guarantees
// zero visible discontinuity between what the ghost showed and where the
// object ends up.
type CloneManager struct {
	cfg    Config
	pair   *Pair
	reg    *Registry
	cloner VisualCloner
	log    *zap.Logger

	proxies map[TravelerID]*cloneEntry
}

func NewCloneManager(cfg Config, pair *Pair, reg *Registry, cloner VisualCloner, log *zap.Logger) *CloneManager {
	return &CloneManager{
		cfg:     cfg,
		pair:    pair,
		reg:     reg,
		cloner:  cloner,
		log:     log,
		proxies: make(map[TravelerID]*cloneEntry),
	}
}

// Update runs once per frame after travelers have moved: spawn proxies for
// travelers entering proximity, refresh poses for live ones, destroy those
// that wandered off.
func (cm *CloneManager) Update() {
	if !cm.pair.BothPlaced() {
		cm.clear()
		return
	}
	seen := make(map[TravelerID]bool, len(cm.proxies))

	cm.reg.Each(func(id TravelerID, t *Traveler) {
		from, ok := cm.nearestPortal(t)
		if !ok {
			return
		}
		seen[id] = true
		entry := cm.proxies[id]
		if entry == nil {
			entry = &cloneEntry{from: from}
			if cm.cloner != nil {
				entry.visual = cm.cloner.CloneVisual(t)
			}
			cm.proxies[id] = entry
		}
		entry.from = from

		src := cm.pair.Portal(from)
		dst := cm.pair.Other(from)
		ratio := cm.pair.ScaleRatio(from)
		pos, rot := MapPose(src, dst, t.Body.Position(), t.Body.Rotation(), ratio)
		entry.pose = Pose{Position: pos, Rotation: rot, Scale: t.Body.Scale() * ratio}
		if entry.visual != nil {
			entry.visual.SetPose(pos, rot, entry.pose.Scale)
		}
	})

	for id, entry := range cm.proxies {
		if !seen[id] {
			cm.destroy(id, entry)
		}
	}
}

// TakeOver returns the ghost's current pose as the authoritative
// post-teleport transform and destroys the proxy. ok is false when no ghost
// exists for the traveler or the ghost mirrors the opposite portal (its
// pose is mapped in the wrong direction); the caller then recomputes the
// pose.
func (cm *CloneManager) TakeOver(id TravelerID, from Role) (Pose, bool) {
	entry, ok := cm.proxies[id]
	if !ok || entry.from != from {
		return Pose{}, false
	}
	pose := entry.pose
	cm.destroy(id, entry)
	return pose, true
}

// Discard destroys a traveler's proxy without any pose transfer.
func (cm *CloneManager) Discard(id TravelerID) {
	if entry, ok := cm.proxies[id]; ok {
		cm.destroy(id, entry)
	}
}

// Has reports whether a ghost currently exists for the traveler.
func (cm *CloneManager) Has(id TravelerID) bool {
	_, ok := cm.proxies[id]
	return ok
}

// nearestPortal picks the placed portal within proximity radius, closest
// first. Radius scales with the portal so large portals keep ghosts alive
// proportionally further out.
func (cm *CloneManager) nearestPortal(t *Traveler) (Role, bool) {
	pos := t.Body.Position()
	best := RoleA
	bestDist := -1.0
	for _, role := range []Role{RoleA, RoleB} {
		p := cm.pair.Portal(role)
		d := pos.Sub(p.position).Len()
		if d <= cm.cfg.ProximityRadius*p.scale && (bestDist < 0 || d < bestDist) {
			best, bestDist = role, d
		}
	}
	return best, bestDist >= 0
}

func (cm *CloneManager) destroy(id TravelerID, entry *cloneEntry) {
	if entry.visual != nil {
		entry.visual.Dispose()
	}
	delete(cm.proxies, id)
}

func (cm *CloneManager) clear() {
	for id, entry := range cm.proxies {
		cm.destroy(id, entry)
	}
}
