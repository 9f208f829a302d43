package lobby

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/leedalei/lol-random-hero-selector/internal/engine"
	"github.com/leedalei/lol-random-hero-selector/internal/identity"
)

const idAttempts = 8

// Store owns every live room. It is not safe for concurrent use; the hub
// goroutine is its only caller.
type Store struct {
	rooms map[string]*Room
	newID func() string
	now   func() time.Time
}

type StoreOption func(*Store)

func WithIDGenerator(fn func() string) StoreOption { return func(s *Store) { s.newID = fn } }
func WithClock(fn func() time.Time) StoreOption    { return func(s *Store) { s.now = fn } }

func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		rooms: make(map[string]*Room),
		newID: NewRoomID,
		now:   time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewRoomID returns a uuid v4 without dashes: 32 hex characters.
func NewRoomID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (s *Store) freshID() (string, error) {
	for i := 0; i < idAttempts; i++ {
		id := s.newID()
		if _, taken := s.rooms[id]; !taken && id != "" {
			return id, nil
		}
	}
	return "", ErrIDExhausted
}

func (s *Store) Create(owner identity.Identity, name, connID string) (*Room, error) {
	id, err := s.freshID()
	if err != nil {
		return nil, err
	}

	now := s.now()
	room := &Room{
		ID:             id,
		OwnerID:        owner,
		Players:        []Player{{ID: owner, Name: name, Team: engine.TeamRed, ConnID: connID}},
		Settings:       DefaultSettings(),
		RedTeamHeroes:  []engine.Hero{},
		BlueTeamHeroes: []engine.Hero{},
		CreatedAt:      now,
		LastActivityAt: now,
	}
	s.rooms[id] = room
	return room, nil
}

// CanJoin runs Join's checks without mutating anything.
func (s *Store) CanJoin(roomID string, id identity.Identity) error {
	room, ok := s.rooms[roomID]
	if !ok {
		return ErrRoomNotFound
	}
	if room.Full() {
		return ErrRoomFull
	}
	if room.Has(id) {
		return ErrAlreadyInRoom
	}
	return nil
}

func (s *Store) Join(roomID string, id identity.Identity, name, connID string) (*Room, Player, error) {
	if err := s.CanJoin(roomID, id); err != nil {
		return nil, Player{}, err
	}
	room := s.rooms[roomID]

	team := engine.TeamRed
	if len(room.Players) > 0 {
		team = room.Players[0].Team.Opposite()
	}

	p := Player{ID: id, Name: name, Team: team, ConnID: connID}
	room.Players = append(room.Players, p)
	room.touch(s.now())
	return room, p, nil
}

// Leave removes id from the room. An emptied room is deleted right away and
// reported through destroyed.
func (s *Store) Leave(roomID string, id identity.Identity) (room *Room, destroyed bool, err error) {
	room, ok := s.rooms[roomID]
	if !ok {
		return nil, false, ErrRoomNotFound
	}
	idx := slices.IndexFunc(room.Players, func(p Player) bool { return p.ID == id })
	if idx < 0 {
		return room, false, ErrNotInRoom
	}

	room.Players = slices.Delete(room.Players, idx, idx+1)
	room.touch(s.now())
	if len(room.Players) == 0 {
		delete(s.rooms, roomID)
		return room, true, nil
	}
	return room, false, nil
}

func (s *Store) ownedRoom(roomID string, id identity.Identity) (*Room, error) {
	room, ok := s.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	if !room.IsOwnerPresent(id) {
		return nil, ErrNotOwner
	}
	return room, nil
}

// UpdateSettings merges patch shallowly. Range checks belong to the caller.
func (s *Store) UpdateSettings(roomID string, id identity.Identity, patch SettingsPatch) (*Room, error) {
	room, err := s.ownedRoom(roomID, id)
	if err != nil {
		return nil, err
	}
	room.Settings = room.Settings.Apply(patch)
	room.touch(s.now())
	return room, nil
}

func (s *Store) SetShowSettings(roomID string, id identity.Identity, show bool) (*Room, error) {
	room, err := s.ownedRoom(roomID, id)
	if err != nil {
		return nil, err
	}
	room.ShowSettings = show
	room.touch(s.now())
	return room, nil
}

// BeginRoll enters the rolling phase. ErrInvalidState means the request raced
// the room (already rolling, or nobody to play against) and is not an error
// worth reporting.
func (s *Store) BeginRoll(roomID string, id identity.Identity) (*Room, error) {
	room, err := s.ownedRoom(roomID, id)
	if err != nil {
		return nil, err
	}
	if room.IsRolling || len(room.Players) < MaxPlayers {
		return room, ErrInvalidState
	}
	room.IsRolling = true
	room.GameCount++
	room.touch(s.now())
	return room, nil
}

func (s *Store) FinishRoll(roomID string, a engine.Allocation) (*Room, bool) {
	room, ok := s.rooms[roomID]
	if !ok || !room.IsRolling {
		return room, false
	}
	room.RedTeamHeroes = a.Red
	room.BlueTeamHeroes = a.Blue
	room.IsRolling = false
	room.touch(s.now())
	return room, true
}

// AbortRoll leaves the rolling phase without a result.
func (s *Store) AbortRoll(roomID string) (*Room, bool) {
	room, ok := s.rooms[roomID]
	if !ok || !room.IsRolling {
		return room, false
	}
	room.IsRolling = false
	room.touch(s.now())
	return room, true
}

func (s *Store) Rename(roomID string, id identity.Identity, name string) (*Room, bool) {
	room, ok := s.rooms[roomID]
	if !ok {
		return nil, false
	}
	for i := range room.Players {
		if room.Players[i].ID == id {
			room.Players[i].Name = name
			room.touch(s.now())
			return room, true
		}
	}
	return room, false
}

func (s *Store) Touch(roomID string) (*Room, bool) {
	room, ok := s.rooms[roomID]
	if !ok {
		return nil, false
	}
	room.touch(s.now())
	return room, true
}

func (s *Store) Get(roomID string) (*Room, bool) {
	room, ok := s.rooms[roomID]
	return room, ok
}

func (s *Store) Delete(roomID string) (*Room, bool) {
	room, ok := s.rooms[roomID]
	if ok {
		delete(s.rooms, roomID)
	}
	return room, ok
}

func (s *Store) Len() int { return len(s.rooms) }

// All returns rooms oldest first.
func (s *Store) All() []*Room {
	out := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b *Room) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// Expired lists rooms that are empty or untouched for longer than idle.
func (s *Store) Expired(now time.Time, idle time.Duration) []*Room {
	var out []*Room
	for _, r := range s.All() {
		if len(r.Players) == 0 || now.Sub(r.LastActivityAt) > idle {
			out = append(out, r)
		}
	}
	return out
}
