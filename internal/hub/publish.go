package hub

import (
	"github.com/leedalei/lol-random-hero-selector/internal/identity"
	"github.com/leedalei/lol-random-hero-selector/internal/lobby"
	"github.com/leedalei/lol-random-hero-selector/internal/session"
	"github.com/leedalei/lol-random-hero-selector/internal/types"
	wire "github.com/leedalei/lol-random-hero-selector/pkg/types"
	"go.uber.org/zap"
)

// publisher resolves recipients through the session registry. A room's
// audience is every player whose live session is mapped to that room.
type publisher struct {
	sessions *session.Registry
	log      *zap.Logger
}

func (p *publisher) ToConn(conn session.Conn, msg wire.ServerMessage) {
	if !conn.Send(msg) {
		p.log.Debug("dropped frame", zap.String("conn", conn.ID()), zap.String("type", msg.Type))
	}
}

func (p *publisher) ToIdentity(id identity.Identity, msg wire.ServerMessage) bool {
	s, ok := p.sessions.Lookup(id)
	if !ok {
		return false
	}
	p.ToConn(s.Conn, msg)
	return true
}

// ToRoom renders one frame per recipient and returns how many were sent.
// exclude may be empty.
func (p *publisher) ToRoom(room *lobby.Room, exclude identity.Identity, render func(lobby.Player) wire.ServerMessage) int {
	n := 0
	for _, pl := range room.Players {
		if pl.ID == exclude {
			continue
		}
		s, ok := p.sessions.Lookup(pl.ID)
		if !ok || s.RoomID != room.ID {
			continue
		}
		p.ToConn(s.Conn, render(pl))
		n++
	}
	return n
}

func (p *publisher) RoomUpdated(room *lobby.Room, exclude identity.Identity) int {
	return p.ToRoom(room, exclude, func(pl lobby.Player) wire.ServerMessage {
		return types.RoomUpdatedMsg(room, pl.Team)
	})
}

func (p *publisher) Same(room *lobby.Room, exclude identity.Identity, msg wire.ServerMessage) int {
	return p.ToRoom(room, exclude, func(lobby.Player) wire.ServerMessage { return msg })
}
