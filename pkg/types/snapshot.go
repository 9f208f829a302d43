package types

import "time"

// RoomSummary is the read-only room view served to health and listing endpoints.
// Times are Unix milliseconds.
type RoomSummary struct {
	ID             string `json:"id"`
	PlayerCount    int    `json:"playerCount"`
	MaxPlayers     int    `json:"maxPlayers"`
	IsRolling      bool   `json:"isRolling"`
	CreatedAt      int64  `json:"createdAt"`
	LastActivityAt int64  `json:"lastActivityAt"`
}

type ServiceStats struct {
	RoomCount          int       `json:"roomCount"`
	ActiveSessionCount int       `json:"activeSessionCount"`
	Timestamp          time.Time `json:"timestamp"`
}
