package types

import "encoding/json"

// Client -> Server. Every frame is {"type": <event>, "data": <payload>}.
//
//   create-room      no data
//   join-room        data: room id string
//   leave-room       no data
//   start-game       no data (host only)
//   update-settings  data: {blueCount?, redCount?, balanceByRole?} (host only)
//   toggle-settings  data: bool (host only)
//   set-player-name  data: string
//   refresh-room     no data
//   ping             no data
const (
	CmdCreateRoom     = "create-room"
	CmdJoinRoom       = "join-room"
	CmdLeaveRoom      = "leave-room"
	CmdStartGame      = "start-game"
	CmdUpdateSettings = "update-settings"
	CmdToggleSettings = "toggle-settings"
	CmdSetPlayerName  = "set-player-name"
	CmdRefreshRoom    = "refresh-room"
	CmdPing           = "ping"
)

// Server -> Client.
//
//   room-created      {roomId, player}
//   room-joined       {room, player}
//   room-join-failed  reason string
//   player-joined     player
//   player-left       player id string
//   room-updated      room, with only the recipient's team heroes filled in
//   game-started      {redTeamHeroes, blueTeamHeroes, gameCount}, same rule
//   room-destroyed    no data
//   error             message string
//   pong              no data
const (
	EvtRoomCreated    = "room-created"
	EvtRoomJoined     = "room-joined"
	EvtRoomJoinFailed = "room-join-failed"
	EvtPlayerJoined   = "player-joined"
	EvtPlayerLeft     = "player-left"
	EvtRoomUpdated    = "room-updated"
	EvtGameStarted    = "game-started"
	EvtRoomDestroyed  = "room-destroyed"
	EvtError          = "error"
	EvtPong           = "pong"
)

type ClientMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type ServerMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}
