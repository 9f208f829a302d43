package hub

import (
	"time"

	"github.com/leedalei/lol-random-hero-selector/internal/engine"
	"github.com/leedalei/lol-random-hero-selector/internal/identity"
	"github.com/leedalei/lol-random-hero-selector/internal/lobby"
	"github.com/leedalei/lol-random-hero-selector/internal/session"
	"github.com/leedalei/lol-random-hero-selector/internal/types"
	wire "github.com/leedalei/lol-random-hero-selector/pkg/types"
	"go.uber.org/zap"
)

const (
	reasonEmpty = "empty"
	reasonIdle  = "idle"
)

// connect makes conn the only session of id. A previous session on another
// connection is evicted first, so there is never a moment where two
// connections hold the same seat.
func (h *Hub) connect(id identity.Identity, conn session.Conn) {
	if prev, ok := h.sessions.Lookup(id); ok && prev.Conn.ID() != conn.ID() {
		h.evict(prev)
	}
	h.sessions.Register(id, conn, h.opts.Now())
	h.syncGauges()
	h.log.Info("connected", zap.String("identity", string(id)), zap.String("conn", conn.ID()))
}

func (h *Hub) evict(prev *session.Session) {
	h.log.Warn("evicting session",
		zap.Error(ErrIdentityCollision),
		zap.String("identity", string(prev.Identity)),
		zap.String("conn", prev.Conn.ID()),
		zap.String("room", prev.RoomID),
	)
	h.m.Evictions.Inc()

	if prev.InRoom() {
		h.leaveRoom(prev.Identity, prev.RoomID)
	}
	h.sessions.Unregister(prev.Identity, prev.Conn.ID())
	prev.Conn.Close("session replaced")
}

// disconnect ignores connections that are no longer the live one for id.
func (h *Hub) disconnect(id identity.Identity, conn session.Conn) {
	if !h.sessions.Active(id, conn) {
		return
	}
	if roomID, ok := h.sessions.RoomOf(id); ok {
		h.leaveRoom(id, roomID)
	}
	h.sessions.Unregister(id, conn.ID())
	h.syncGauges()
	h.log.Info("disconnected", zap.String("identity", string(id)), zap.String("conn", conn.ID()))
}

// leaveRoom takes id out of roomID, detaches its session and tells whoever
// remains. An emptied room is gone immediately.
func (h *Hub) leaveRoom(id identity.Identity, roomID string) {
	h.sessions.Detach(id)

	room, destroyed, err := h.rooms.Leave(roomID, id)
	if err != nil {
		h.log.Debug("leave ignored", zap.String("room", roomID), zap.Error(err))
		return
	}
	h.log.Info("left room", zap.String("room", roomID), zap.String("identity", string(id)))

	if destroyed {
		h.destroyed(room, reasonEmpty)
		return
	}
	h.pub.Same(room, "", types.PlayerLeftMsg(id))
	h.pub.RoomUpdated(room, "")
}

// destroyed records a room that has already been removed from the store.
func (h *Hub) destroyed(room *lobby.Room, reason string) {
	h.stopRoll(room.ID)
	h.m.RoomsDestroyed.WithLabelValues(reason).Inc()
	h.syncGauges()
	h.log.Info("room destroyed", zap.String("room", room.ID), zap.String("reason", reason))
}

// sweep destroys every empty or idle room. Occupants still mapped to the
// room get exactly one room-destroyed.
func (h *Hub) sweep() {
	now := h.opts.Now()
	for _, room := range h.rooms.Expired(now, h.opts.IdleTimeout) {
		reason := reasonIdle
		if len(room.Players) == 0 {
			reason = reasonEmpty
		}

		h.pub.Same(room, "", types.RoomDestroyedMsg())
		for _, p := range room.Players {
			if rid, ok := h.sessions.RoomOf(p.ID); ok && rid == room.ID {
				h.sessions.Detach(p.ID)
			}
		}
		h.rooms.Delete(room.ID)
		h.destroyed(room, reason)
	}
}

func (h *Hub) scheduleRoll(roomID string, settings lobby.Settings) {
	h.stopRoll(roomID)
	t := time.AfterFunc(h.opts.RollDelay, func() {
		select {
		case h.inbox <- rollDue{RoomID: roomID}:
		case <-h.ctx.Done():
		}
	})
	h.rolls[roomID] = pendingRoll{timer: t, settings: settings}
}

func (h *Hub) stopRoll(roomID string) {
	if pr, ok := h.rolls[roomID]; ok {
		pr.timer.Stop()
		delete(h.rolls, roomID)
	}
}

// completeRoll draws heroes with the settings captured at start. The room may
// have lost players, or vanished, in the meantime.
func (h *Hub) completeRoll(roomID string) {
	pr, ok := h.rolls[roomID]
	if !ok {
		return
	}
	delete(h.rolls, roomID)

	room, ok := h.rooms.Get(roomID)
	if !ok || !room.IsRolling {
		return
	}

	s := pr.settings
	alloc, err := engine.Allocate(h.opts.Rand, h.opts.Pool, s.BlueCount, s.RedCount, s.BalanceByRole)
	if err != nil {
		h.log.Error("roll failed", zap.String("room", roomID), zap.Error(err))
		if room, ok := h.rooms.AbortRoll(roomID); ok {
			h.pub.RoomUpdated(room, "")
		}
		return
	}

	room, _ = h.rooms.FinishRoll(roomID, alloc)
	h.m.Rolls.Inc()
	h.log.Info("roll finished",
		zap.String("room", roomID),
		zap.Int("game", room.GameCount),
		zap.Int("blue", len(alloc.Blue)),
		zap.Int("red", len(alloc.Red)),
	)

	h.pub.ToRoom(room, "", func(p lobby.Player) wire.ServerMessage {
		return types.GameStartedMsg(room, p.Team)
	})
	h.pub.RoomUpdated(room, "")
}

func (h *Hub) syncGauges() {
	h.m.RoomsActive.Set(float64(h.rooms.Len()))
	h.m.SessionsActive.Set(float64(h.sessions.Count()))
}
