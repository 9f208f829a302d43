// Package session tracks who is connected and what they are called.
package session

import (
	"time"

	"github.com/leedalei/lol-random-hero-selector/internal/identity"
	"github.com/leedalei/lol-random-hero-selector/pkg/types"
)

// Conn is the transport end of a session. Send must not block; it reports
// false when the message could not be queued.
type Conn interface {
	ID() string
	Send(msg types.ServerMessage) bool
	Close(reason string)
}

type Session struct {
	Identity    identity.Identity
	Conn        Conn
	RoomID      string
	ConnectedAt time.Time
}

func (s *Session) InRoom() bool { return s.RoomID != "" }

// Registry holds at most one session per identity. Not safe for concurrent use.
type Registry struct {
	sessions map[identity.Identity]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[identity.Identity]*Session)}
}

// Register records conn as the active connection for id, not seated in any
// room. It returns the session it replaced, if that one used another connection.
func (r *Registry) Register(id identity.Identity, conn Conn, now time.Time) (replaced *Session) {
	if prev, ok := r.sessions[id]; ok {
		if prev.Conn.ID() == conn.ID() {
			return nil
		}
		replaced = prev
	}
	r.sessions[id] = &Session{Identity: id, Conn: conn, ConnectedAt: now}
	return replaced
}

func (r *Registry) Lookup(id identity.Identity) (*Session, bool) {
	s, ok := r.sessions[id]
	return s, ok
}

// Active reports whether conn is the live connection for id.
func (r *Registry) Active(id identity.Identity, conn Conn) bool {
	s, ok := r.sessions[id]
	return ok && s.Conn.ID() == conn.ID()
}

func (r *Registry) RoomOf(id identity.Identity) (string, bool) {
	s, ok := r.sessions[id]
	if !ok || !s.InRoom() {
		return "", false
	}
	return s.RoomID, true
}

func (r *Registry) Attach(id identity.Identity, roomID string) bool {
	s, ok := r.sessions[id]
	if !ok {
		return false
	}
	s.RoomID = roomID
	return true
}

func (r *Registry) Detach(id identity.Identity) bool {
	s, ok := r.sessions[id]
	if !ok {
		return false
	}
	s.RoomID = ""
	return true
}

// Unregister drops the session of id only while connID is still its
// connection, so a late disconnect from a replaced connection is harmless.
func (r *Registry) Unregister(id identity.Identity, connID string) bool {
	s, ok := r.sessions[id]
	if !ok || s.Conn.ID() != connID {
		return false
	}
	delete(r.sessions, id)
	return true
}

func (r *Registry) Count() int { return len(r.sessions) }

func (r *Registry) Each(fn func(*Session)) {
	for _, s := range r.sessions {
		fn(s)
	}
}
