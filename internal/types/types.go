// Package types builds the outbound frames of the room protocol.
package types

import (
	"github.com/leedalei/lol-random-hero-selector/internal/engine"
	"github.com/leedalei/lol-random-hero-selector/internal/identity"
	"github.com/leedalei/lol-random-hero-selector/internal/lobby"
	wire "github.com/leedalei/lol-random-hero-selector/pkg/types"
)

type RoomCreated struct {
	RoomID string       `json:"roomId"`
	Player lobby.Player `json:"player"`
}

type RoomJoined struct {
	Room   lobby.Room   `json:"room"`
	Player lobby.Player `json:"player"`
}

type GameStarted struct {
	RedTeamHeroes  []engine.Hero `json:"redTeamHeroes"`
	BlueTeamHeroes []engine.Hero `json:"blueTeamHeroes"`
	GameCount      int           `json:"gameCount"`
}

func RoomCreatedMsg(room *lobby.Room, p lobby.Player) wire.ServerMessage {
	return wire.ServerMessage{Type: wire.EvtRoomCreated, Data: RoomCreated{RoomID: room.ID, Player: p}}
}

func RoomJoinedMsg(room *lobby.Room, p lobby.Player) wire.ServerMessage {
	return wire.ServerMessage{Type: wire.EvtRoomJoined, Data: RoomJoined{Room: room.ViewFor(p.Team), Player: p}}
}

func RoomJoinFailedMsg(reason string) wire.ServerMessage {
	return wire.ServerMessage{Type: wire.EvtRoomJoinFailed, Data: reason}
}

func PlayerJoinedMsg(p lobby.Player) wire.ServerMessage {
	return wire.ServerMessage{Type: wire.EvtPlayerJoined, Data: p}
}

func PlayerLeftMsg(id identity.Identity) wire.ServerMessage {
	return wire.ServerMessage{Type: wire.EvtPlayerLeft, Data: string(id)}
}

func RoomUpdatedMsg(room *lobby.Room, team engine.Team) wire.ServerMessage {
	return wire.ServerMessage{Type: wire.EvtRoomUpdated, Data: room.ViewFor(team)}
}

// GameStartedMsg carries only the heroes of team; the other list is empty.
func GameStartedMsg(room *lobby.Room, team engine.Team) wire.ServerMessage {
	v := room.ViewFor(team)
	return wire.ServerMessage{Type: wire.EvtGameStarted, Data: GameStarted{
		RedTeamHeroes:  v.RedTeamHeroes,
		BlueTeamHeroes: v.BlueTeamHeroes,
		GameCount:      room.GameCount,
	}}
}

func RoomDestroyedMsg() wire.ServerMessage {
	return wire.ServerMessage{Type: wire.EvtRoomDestroyed}
}

func ErrorMsg(message string) wire.ServerMessage {
	return wire.ServerMessage{Type: wire.EvtError, Data: message}
}

func PongMsg() wire.ServerMessage {
	return wire.ServerMessage{Type: wire.EvtPong}
}
