package goportal

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// TravelerID is the dense handle the portal core uses internally. Host
// entities are identified by uuid and resolved through the registry, so no
// component holds an object reference into another system.
type TravelerID uint32

// ColliderID is an opaque handle to a host physics collider.
type ColliderID uint64

// Body is the spatial state of a traveler, backed by the host.
type Body interface {
	Position() mgl64.Vec3
	SetPosition(mgl64.Vec3)
	Rotation() mgl64.Quat
	SetRotation(mgl64.Quat)
	Scale() float64
	SetScale(float64)
}

// RigidBody extends Body with the dynamic state captured and rewritten
// during a teleport. Kinematic travelers provide only Body; the controller
// that drives them is responsible for transforming its own internal
// velocity through MapVector after a teleport.
type RigidBody interface {
	Body
	Velocity() mgl64.Vec3
	SetVelocity(mgl64.Vec3)
	AngularVelocity() mgl64.Vec3
	SetAngularVelocity(mgl64.Vec3)
}

// CollisionFilter is the host hook for pairwise collision ignoring between
// a traveler's collider and a portal's wall collider.
type CollisionFilter interface {
	SetIgnore(traveler, wall ColliderID, ignore bool)
}

// HeldQuery answers whether an entity is currently held or carried. Held
// objects are never crossing-tracked; the clone/swap path moves them.
type HeldQuery interface {
	IsHeld(entity uuid.UUID) bool
}

// Traveler is the per-entity record for anything eligible to cross.
type Traveler struct {
	Entity   uuid.UUID
	Body     Body
	Rigid    RigidBody // nil for kinematic travelers
	Collider ColliderID
}

// Registry owns Traveler records and maps host entity ids to dense handles.
type Registry struct {
	byEntity map[uuid.UUID]TravelerID
	items    []*Traveler
	free     []TravelerID
}

func NewRegistry() *Registry {
	return &Registry{byEntity: make(map[uuid.UUID]TravelerID)}
}

// Add registers a traveler and returns its handle. Re-adding the same
// entity returns the existing handle.
func (r *Registry) Add(t *Traveler) TravelerID {
	if id, ok := r.byEntity[t.Entity]; ok {
		r.items[id] = t
		return id
	}
	var id TravelerID
	if n := len(r.free); n > 0 {
		id = r.free[n-1]
		r.free = r.free[:n-1]
		r.items[id] = t
	} else {
		id = TravelerID(len(r.items))
		r.items = append(r.items, t)
	}
	r.byEntity[t.Entity] = id
	return id
}

// Get resolves a handle; nil for stale handles.
func (r *Registry) Get(id TravelerID) *Traveler {
	if int(id) >= len(r.items) {
		return nil
	}
	return r.items[id]
}

// Resolve maps a host entity id to its handle.
func (r *Registry) Resolve(entity uuid.UUID) (TravelerID, bool) {
	id, ok := r.byEntity[entity]
	return id, ok
}

// Remove forgets a traveler and recycles its handle.
func (r *Registry) Remove(id TravelerID) {
	t := r.Get(id)
	if t == nil {
		return
	}
	delete(r.byEntity, t.Entity)
	r.items[id] = nil
	r.free = append(r.free, id)
}

// Each visits every live traveler.
func (r *Registry) Each(fn func(TravelerID, *Traveler)) {
	for i, t := range r.items {
		if t != nil {
			fn(TravelerID(i), t)
		}
	}
}
