package goportal

import (
	"math"

	"go.uber.org/zap"
)

// Portals need a wall collider handle for the collision-ignore bookkeeping;
// it rides on the placement intent surface. See PlacementIntent.Wall.

// CrossingDetector watches the travelers inside one portal's trigger volume
// and fires a crossing when a traveler's signed offset along the portal
// forward axis changes sign from negative (entering side) to positive
// (exiting side).
type CrossingDetector struct {
	portal *Portal
	reg    *Registry
	held   HeldQuery
	filter CollisionFilter
	log    *zap.Logger

	seedMargin float64

	tracked map[TravelerID]float64 // last signed offset
	// heldIgnore remembers travelers whose wall collision is ignored for as
	// long as they are held.
	heldIgnore map[TravelerID]bool
}

func NewCrossingDetector(cfg Config, portal *Portal, reg *Registry, held HeldQuery, filter CollisionFilter, log *zap.Logger) *CrossingDetector {
	return &CrossingDetector{
		portal:     portal,
		reg:        reg,
		held:       held,
		filter:     filter,
		log:        log,
		seedMargin: cfg.SeedMargin,
		tracked:    make(map[TravelerID]float64),
		heldIgnore: make(map[TravelerID]bool),
	}
}

// TriggerEnter registers a traveler that entered the detection volume. Held
// objects are not tracked; their wall collision is ignored until dropped.
// Everyone else starts from their actual signed offset so an approach from
// either side reads as a genuine sign change later; an entrant sitting
// right on the plane is nudged onto the entering side.
func (cd *CrossingDetector) TriggerEnter(id TravelerID, isHeld bool) {
	t := cd.reg.Get(id)
	if t == nil || !cd.portal.placed {
		return
	}
	if isHeld || cd.held.IsHeld(t.Entity) {
		cd.ignoreWall(t, true)
		cd.heldIgnore[id] = true
		return
	}
	off := cd.portal.SignedOffset(t.Body.Position())
	if math.Abs(off) < cd.seedMargin {
		off = -cd.seedMargin
	}
	cd.tracked[id] = off
}

// TriggerExit drops a traveler from tracking when it leaves the volume.
func (cd *CrossingDetector) TriggerExit(id TravelerID) {
	delete(cd.tracked, id)
	if cd.heldIgnore[id] {
		// Still held; ignore state persists until Dropped.
		return
	}
	if t := cd.reg.Get(id); t != nil {
		cd.ignoreWall(t, false)
	}
}

// Dropped restores wall collision for a previously held traveler. If it is
// inside the volume it re-enters tracking from its current side.
func (cd *CrossingDetector) Dropped(id TravelerID) {
	if !cd.heldIgnore[id] {
		return
	}
	delete(cd.heldIgnore, id)
	t := cd.reg.Get(id)
	if t == nil {
		return
	}
	cd.ignoreWall(t, false)
}

// SeedArrival marks a freshly teleported traveler as being on the entering
// side so the destination detector cannot immediately bounce it back.
func (cd *CrossingDetector) SeedArrival(id TravelerID) {
	cd.tracked[id] = -cd.seedMargin
}

// Tracking reports whether the traveler is currently tracked.
func (cd *CrossingDetector) Tracking(id TravelerID) bool {
	_, ok := cd.tracked[id]
	return ok
}

// Update samples every tracked traveler once and returns the ids that
// crossed this frame. A crossing deregisters the traveler immediately so it
// cannot fire twice. A traveler that became held since registration moves
// to the held-ignore set instead of being sampled.
func (cd *CrossingDetector) Update() []TravelerID {
	if !cd.portal.placed {
		return nil
	}
	var crossed []TravelerID
	for id, last := range cd.tracked {
		t := cd.reg.Get(id)
		if t == nil {
			delete(cd.tracked, id)
			continue
		}
		if cd.held.IsHeld(t.Entity) {
			delete(cd.tracked, id)
			cd.ignoreWall(t, true)
			cd.heldIgnore[id] = true
			continue
		}
		off := cd.portal.SignedOffset(t.Body.Position())
		if off > 0 && last < 0 {
			delete(cd.tracked, id)
			crossed = append(crossed, id)
			cd.log.Debug("portal crossing",
				zap.String("portal", cd.portal.role.String()),
				zap.Uint32("traveler", uint32(id)))
			continue
		}
		cd.tracked[id] = off
	}
	return crossed
}

func (cd *CrossingDetector) ignoreWall(t *Traveler, ignore bool) {
	if cd.filter == nil || t.Collider == 0 || cd.portal.wall == 0 {
		return
	}
	cd.filter.SetIgnore(t.Collider, cd.portal.wall, ignore)
}
