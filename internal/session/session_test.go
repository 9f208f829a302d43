package session

import (
	"testing"
	"time"

	"github.com/leedalei/lol-random-hero-selector/internal/identity"
	"github.com/leedalei/lol-random-hero-selector/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubConn struct{ id string }

func (c stubConn) ID() string                  { return c.id }
func (stubConn) Send(types.ServerMessage) bool { return true }
func (stubConn) Close(string)                  {}

const alice identity.Identity = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

func TestRegistry_RegisterReplacesStaleConnection(t *testing.T) {
	r := NewRegistry()
	now := time.Now()

	assert.Nil(t, r.Register(alice, stubConn{"c1"}, now))
	require.True(t, r.Attach(alice, "room-1"))

	replaced := r.Register(alice, stubConn{"c2"}, now)
	require.NotNil(t, replaced)
	assert.Equal(t, "c1", replaced.Conn.ID())
	assert.Equal(t, "room-1", replaced.RoomID)

	assert.Equal(t, 1, r.Count(), "exactly one session per identity")
	s, ok := r.Lookup(alice)
	require.True(t, ok)
	assert.Equal(t, "c2", s.Conn.ID())
	assert.False(t, s.InRoom(), "new session starts outside any room")
}

func TestRegistry_RegisterSameConnectionIsNoop(t *testing.T) {
	r := NewRegistry()
	c := stubConn{"c1"}
	r.Register(alice, c, time.Now())
	r.Attach(alice, "room-1")

	assert.Nil(t, r.Register(alice, c, time.Now()))
	assert.Equal(t, 1, r.Count())
}

func TestRegistry_UnregisterIgnoresStaleConnection(t *testing.T) {
	r := NewRegistry()
	r.Register(alice, stubConn{"c1"}, time.Now())
	r.Register(alice, stubConn{"c2"}, time.Now())

	assert.False(t, r.Unregister(alice, "c1"))
	assert.True(t, r.Active(alice, stubConn{"c2"}))

	assert.True(t, r.Unregister(alice, "c2"))
	assert.Zero(t, r.Count())
}

func TestRegistry_AttachDetach(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.Attach(alice, "room-1"), "unknown identity")

	r.Register(alice, stubConn{"c1"}, time.Now())
	_, ok := r.RoomOf(alice)
	assert.False(t, ok)

	r.Attach(alice, "room-1")
	room, ok := r.RoomOf(alice)
	require.True(t, ok)
	assert.Equal(t, "room-1", room)

	r.Detach(alice)
	_, ok = r.RoomOf(alice)
	assert.False(t, ok)
}

func TestProfiles(t *testing.T) {
	p := NewProfiles()
	_, ok := p.Name(alice)
	assert.False(t, ok)

	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	p.Set(alice, "小明", now)

	name, ok := p.Name(alice)
	require.True(t, ok)
	assert.Equal(t, "小明", name)

	pr, _ := p.Get(alice)
	assert.Equal(t, now, pr.LastUpdated)
	assert.Equal(t, 1, p.Len())
}
