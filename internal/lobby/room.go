package lobby

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/leedalei/lol-random-hero-selector/internal/engine"
	"github.com/leedalei/lol-random-hero-selector/internal/identity"
	"github.com/leedalei/lol-random-hero-selector/pkg/types"
)

var ErrRoomNotFound = errors.New("room not found")
var ErrRoomFull = errors.New("room full")
var ErrAlreadyInRoom = errors.New("already in room")
var ErrNotInRoom = errors.New("not in room")
var ErrNotOwner = errors.New("not room owner")
var ErrInvalidState = errors.New("invalid room state")
var ErrIDExhausted = errors.New("room id space exhausted")

const MaxPlayers = 2

type Player struct {
	ID     identity.Identity `json:"id"`
	Name   string            `json:"name"`
	Team   engine.Team       `json:"team"`
	ConnID string            `json:"socketId"`
}

type Settings struct {
	BlueCount     int  `json:"blueCount"`
	RedCount      int  `json:"redCount"`
	BalanceByRole bool `json:"balanceByRole"`
}

func DefaultSettings() Settings {
	return Settings{BlueCount: 20, RedCount: 20, BalanceByRole: false}
}

func (s Settings) Total() int { return s.BlueCount + s.RedCount }

// SettingsPatch is a partial update; nil fields are left as they are.
type SettingsPatch struct {
	BlueCount     *int  `json:"blueCount,omitempty"`
	RedCount      *int  `json:"redCount,omitempty"`
	BalanceByRole *bool `json:"balanceByRole,omitempty"`
}

func (p SettingsPatch) Empty() bool {
	return p.BlueCount == nil && p.RedCount == nil && p.BalanceByRole == nil
}

func (s Settings) Apply(p SettingsPatch) Settings {
	if p.BlueCount != nil {
		s.BlueCount = *p.BlueCount
	}
	if p.RedCount != nil {
		s.RedCount = *p.RedCount
	}
	if p.BalanceByRole != nil {
		s.BalanceByRole = *p.BalanceByRole
	}
	return s
}

type Room struct {
	ID             string            `json:"id"`
	OwnerID        identity.Identity `json:"ownerId"`
	Players        []Player          `json:"players"`
	Settings       Settings          `json:"settings"`
	RedTeamHeroes  []engine.Hero     `json:"redTeamHeroes"`
	BlueTeamHeroes []engine.Hero     `json:"blueTeamHeroes"`
	CreatedAt      time.Time         `json:"createdAt"`
	LastActivityAt time.Time         `json:"lastActivityAt"`
	IsRolling      bool              `json:"isRolling"`
	GameCount      int               `json:"gameCount"`
	ShowSettings   bool              `json:"showSettings"`
}

func (r *Room) Player(id identity.Identity) (Player, bool) {
	for _, p := range r.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

func (r *Room) Has(id identity.Identity) bool {
	_, ok := r.Player(id)
	return ok
}

func (r *Room) Full() bool { return len(r.Players) >= MaxPlayers }

// IsOwnerPresent reports whether id owns the room and still sits in it.
func (r *Room) IsOwnerPresent(id identity.Identity) bool {
	return id == r.OwnerID && r.Has(id)
}

// ViewFor renders the room as seen from team: the other side's heroes are left out.
func (r *Room) ViewFor(team engine.Team) Room {
	v := *r
	v.Players = append([]Player{}, r.Players...)
	v.RedTeamHeroes = []engine.Hero{}
	v.BlueTeamHeroes = []engine.Hero{}
	switch team {
	case engine.TeamRed:
		v.RedTeamHeroes = append(v.RedTeamHeroes, r.RedTeamHeroes...)
	case engine.TeamBlue:
		v.BlueTeamHeroes = append(v.BlueTeamHeroes, r.BlueTeamHeroes...)
	}
	return v
}

func (r *Room) Summary() types.RoomSummary {
	return types.RoomSummary{
		ID:             r.ID,
		PlayerCount:    len(r.Players),
		MaxPlayers:     MaxPlayers,
		IsRolling:      r.IsRolling,
		CreatedAt:      r.CreatedAt.UnixMilli(),
		LastActivityAt: r.LastActivityAt.UnixMilli(),
	}
}

// MarshalJSON writes the timestamps as Unix milliseconds.
func (r Room) MarshalJSON() ([]byte, error) {
	type plain Room
	return json.Marshal(struct {
		plain
		CreatedAt      int64 `json:"createdAt"`
		LastActivityAt int64 `json:"lastActivityAt"`
	}{plain(r), r.CreatedAt.UnixMilli(), r.LastActivityAt.UnixMilli()})
}

func (r *Room) touch(now time.Time) { r.LastActivityAt = now }
