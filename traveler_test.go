package goportal

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryAddResolveRemove(t *testing.T) {
	r := NewRegistry()
	e1 := uuid.New()
	e2 := uuid.New()

	id1 := r.Add(&Traveler{Entity: e1, Body: newFakeBody(mgl64.Vec3{})})
	id2 := r.Add(&Traveler{Entity: e2, Body: newFakeBody(mgl64.Vec3{})})
	assert.NotEqual(t, id1, id2)

	got, ok := r.Resolve(e1)
	require.True(t, ok)
	assert.Equal(t, id1, got)
	assert.Equal(t, e1, r.Get(id1).Entity)

	r.Remove(id1)
	assert.Nil(t, r.Get(id1))
	_, ok = r.Resolve(e1)
	assert.False(t, ok)

	// Removed handles are recycled.
	e3 := uuid.New()
	id3 := r.Add(&Traveler{Entity: e3, Body: newFakeBody(mgl64.Vec3{})})
	assert.Equal(t, id1, id3)
}

func TestRegistryReAddSameEntity(t *testing.T) {
	r := NewRegistry()
	e := uuid.New()
	first := r.Add(&Traveler{Entity: e, Body: newFakeBody(mgl64.Vec3{})})
	replacement := &Traveler{Entity: e, Body: newFakeBody(mgl64.Vec3{1, 2, 3})}
	second := r.Add(replacement)

	assert.Equal(t, first, second)
	assert.Same(t, replacement, r.Get(first))
}

func TestRegistryEachSkipsRemoved(t *testing.T) {
	r := NewRegistry()
	keep := r.Add(&Traveler{Entity: uuid.New(), Body: newFakeBody(mgl64.Vec3{})})
	drop := r.Add(&Traveler{Entity: uuid.New(), Body: newFakeBody(mgl64.Vec3{})})
	r.Remove(drop)

	var visited []TravelerID
	r.Each(func(id TravelerID, _ *Traveler) {
		visited = append(visited, id)
	})
	assert.Equal(t, []TravelerID{keep}, visited)
}

func TestRegistryStaleHandle(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.Get(99))
	r.Remove(99) // out of range, must not panic
}
