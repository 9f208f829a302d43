package hub

import (
	"errors"
	"fmt"

	"github.com/leedalei/lol-random-hero-selector/internal/identity"
	"github.com/leedalei/lol-random-hero-selector/internal/lobby"
	"github.com/leedalei/lol-random-hero-selector/internal/session"
	"github.com/leedalei/lol-random-hero-selector/internal/types"
	wire "github.com/leedalei/lol-random-hero-selector/pkg/types"
	"go.uber.org/zap"
)

// Client facing messages.
const (
	msgRoomNotFound   = "房间不存在"
	msgRoomFull       = "房间已满"
	msgAlreadyInRoom  = "您已在此房间中"
	msgStartNotOwner  = "只有房主可以开始游戏"
	msgSettingsOwner  = "只有房主可以修改设置"
	msgPoolTooSmall   = "英雄数量不足"
	msgCreateFailed   = "创建房间失败"
	msgUnknownCommand = "unknown command"
)

// route handles one client command. Frames from a connection that has been
// replaced are dropped.
func (h *Hub) route(msg FromClient) {
	id, conn, cmd := msg.Identity, msg.Conn, msg.Cmd
	if !h.sessions.Active(id, conn) {
		h.log.Debug("command from stale connection", zap.String("conn", conn.ID()), zap.String("type", cmd.Type))
		return
	}

	switch cmd.Type {
	case wire.CmdCreateRoom:
		h.createRoom(id, conn)
	case wire.CmdJoinRoom:
		h.joinRoom(id, conn, cmd.RoomID)
	case wire.CmdLeaveRoom:
		if roomID, ok := h.sessions.RoomOf(id); ok {
			h.leaveRoom(id, roomID)
		}
	case wire.CmdStartGame:
		h.startGame(id, conn)
	case wire.CmdUpdateSettings:
		h.updateSettings(id, conn, cmd.Settings)
	case wire.CmdToggleSettings:
		h.toggleSettings(id, conn, cmd.Show)
	case wire.CmdSetPlayerName:
		h.setPlayerName(id, cmd.Name)
	case wire.CmdRefreshRoom:
		h.refreshRoom(id)
	case wire.CmdPing:
		h.pub.ToConn(conn, types.PongMsg())
	default:
		h.m.Commands.WithLabelValues("unknown").Inc()
		h.pub.ToConn(conn, types.ErrorMsg(msgUnknownCommand))
		return
	}
	h.m.Commands.WithLabelValues(cmd.Type).Inc()
}

// displayName falls back to a throwaway name that is not remembered.
func (h *Hub) displayName(id identity.Identity) string {
	if name, ok := h.profiles.Name(id); ok && name != "" {
		return name
	}
	return fmt.Sprintf("玩家%d", h.opts.Rand.IntN(1000))
}

func (h *Hub) createRoom(id identity.Identity, conn session.Conn) {
	if old, ok := h.sessions.RoomOf(id); ok {
		h.leaveRoom(id, old)
	}

	room, err := h.rooms.Create(id, h.displayName(id), conn.ID())
	if err != nil {
		h.log.Error("create room", zap.String("identity", string(id)), zap.Error(err))
		h.pub.ToConn(conn, types.ErrorMsg(msgCreateFailed))
		return
	}
	h.sessions.Attach(id, room.ID)
	h.m.RoomsCreated.Inc()
	h.syncGauges()

	p, _ := room.Player(id)
	h.log.Info("room created", zap.String("room", room.ID), zap.String("owner", string(id)))
	h.pub.ToConn(conn, types.RoomCreatedMsg(room, p))
	h.pub.ToConn(conn, types.RoomUpdatedMsg(room, p.Team))
}

func (h *Hub) joinRoom(id identity.Identity, conn session.Conn, roomID string) {
	if err := h.rooms.CanJoin(roomID, id); err != nil {
		h.joinFailed(conn, roomID, err)
		return
	}
	if old, ok := h.sessions.RoomOf(id); ok {
		h.leaveRoom(id, old)
	}

	room, p, err := h.rooms.Join(roomID, id, h.displayName(id), conn.ID())
	if err != nil {
		h.joinFailed(conn, roomID, err)
		return
	}
	h.sessions.Attach(id, room.ID)
	h.log.Info("joined room", zap.String("room", room.ID), zap.String("identity", string(id)), zap.String("team", string(p.Team)))

	h.pub.ToConn(conn, types.RoomJoinedMsg(room, p))
	h.pub.Same(room, id, types.PlayerJoinedMsg(p))
	h.pub.RoomUpdated(room, id)
}

func (h *Hub) joinFailed(conn session.Conn, roomID string, err error) {
	var reason, label string
	switch {
	case errors.Is(err, lobby.ErrRoomNotFound):
		reason, label = msgRoomNotFound, "not_found"
	case errors.Is(err, lobby.ErrRoomFull):
		reason, label = msgRoomFull, "full"
	case errors.Is(err, lobby.ErrAlreadyInRoom):
		reason, label = msgAlreadyInRoom, "already_in_room"
	default:
		reason, label = err.Error(), "other"
	}
	h.m.JoinFailures.WithLabelValues(label).Inc()
	h.log.Debug("join failed", zap.String("room", roomID), zap.Error(err))
	h.pub.ToConn(conn, types.RoomJoinFailedMsg(reason))
}

func (h *Hub) startGame(id identity.Identity, conn session.Conn) {
	roomID, ok := h.sessions.RoomOf(id)
	if !ok {
		return
	}
	room, ok := h.rooms.Get(roomID)
	if !ok {
		return
	}
	if room.IsOwnerPresent(id) && room.Settings.Total() > len(h.opts.Pool) {
		h.pub.ToConn(conn, types.ErrorMsg(msgPoolTooSmall))
		return
	}

	room, err := h.rooms.BeginRoll(roomID, id)
	switch {
	case errors.Is(err, lobby.ErrNotOwner):
		h.pub.ToConn(conn, types.ErrorMsg(msgStartNotOwner))
		return
	case errors.Is(err, lobby.ErrInvalidState):
		return
	case err != nil:
		h.log.Warn("start game", zap.String("room", roomID), zap.Error(err))
		return
	}

	h.log.Info("roll started", zap.String("room", roomID), zap.Int("game", room.GameCount))
	h.scheduleRoll(roomID, room.Settings)
	h.pub.RoomUpdated(room, "")
}

func (h *Hub) updateSettings(id identity.Identity, conn session.Conn, patch lobby.SettingsPatch) {
	roomID, ok := h.sessions.RoomOf(id)
	if !ok {
		return
	}
	room, ok := h.rooms.Get(roomID)
	if !ok {
		return
	}
	if room.IsOwnerPresent(id) && room.Settings.Apply(patch).Total() > len(h.opts.Pool) {
		h.pub.ToConn(conn, types.ErrorMsg(msgPoolTooSmall))
		return
	}

	room, err := h.rooms.UpdateSettings(roomID, id, patch)
	if err != nil {
		h.pub.ToConn(conn, types.ErrorMsg(msgSettingsOwner))
		return
	}
	h.log.Debug("settings updated", zap.String("room", roomID), zap.Any("settings", room.Settings))
	h.pub.RoomUpdated(room, "")
}

func (h *Hub) toggleSettings(id identity.Identity, conn session.Conn, show bool) {
	roomID, ok := h.sessions.RoomOf(id)
	if !ok {
		return
	}
	room, err := h.rooms.SetShowSettings(roomID, id, show)
	if err != nil {
		h.pub.ToConn(conn, types.ErrorMsg(msgSettingsOwner))
		return
	}
	h.pub.RoomUpdated(room, "")
}

func (h *Hub) setPlayerName(id identity.Identity, name string) {
	h.profiles.Set(id, name, h.opts.Now())

	roomID, ok := h.sessions.RoomOf(id)
	if !ok {
		return
	}
	if room, ok := h.rooms.Rename(roomID, id, name); ok {
		h.pub.RoomUpdated(room, "")
	}
}

func (h *Hub) refreshRoom(id identity.Identity) {
	roomID, ok := h.sessions.RoomOf(id)
	if !ok {
		return
	}
	room, ok := h.rooms.Touch(roomID)
	if !ok {
		return
	}
	p, _ := room.Player(id)
	h.pub.ToIdentity(id, types.RoomUpdatedMsg(room, p.Team))
}
