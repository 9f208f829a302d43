package lobby

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/leedalei/lol-random-hero-selector/internal/engine"
	"github.com/leedalei/lol-random-hero-selector/internal/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	u1 identity.Identity = "00000000000000000000000000000001"
	u2 identity.Identity = "00000000000000000000000000000002"
	u3 identity.Identity = "00000000000000000000000000000003"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore() (*Store, *fakeClock) {
	clk := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	n := 0
	s := NewStore(
		WithClock(clk.Now),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("%032x", n)
		}),
	)
	return s, clk
}

func intp(v int) *int    { return &v }
func boolp(v bool) *bool { return &v }

// checkInvariants asserts at most two players on distinct teams.
func checkInvariants(t *testing.T, s *Store) {
	t.Helper()
	for _, r := range s.All() {
		require.LessOrEqual(t, len(r.Players), MaxPlayers)
		if len(r.Players) == 2 {
			require.NotEqual(t, r.Players[0].Team, r.Players[1].Team)
		}
	}
}

func TestNewRoomID_Format(t *testing.T) {
	id := NewRoomID()
	assert.Len(t, id, 32)
	assert.NotContains(t, id, "-")
	assert.NotEqual(t, id, NewRoomID())
}

func TestCreate_Defaults(t *testing.T) {
	s, clk := newTestStore()

	room, err := s.Create(u1, "alice", "c1")
	require.NoError(t, err)

	assert.Len(t, room.ID, 32)
	assert.Equal(t, u1, room.OwnerID)
	require.Len(t, room.Players, 1)
	assert.Equal(t, engine.TeamRed, room.Players[0].Team)
	assert.Equal(t, Settings{BlueCount: 20, RedCount: 20}, room.Settings)
	assert.Zero(t, room.GameCount)
	assert.False(t, room.IsRolling)
	assert.Equal(t, clk.Now(), room.CreatedAt)
	assert.Equal(t, 1, s.Len())
}

func TestCreate_IDExhausted(t *testing.T) {
	s := NewStore(WithIDGenerator(func() string { return "same" }))
	_, err := s.Create(u1, "a", "c1")
	require.NoError(t, err)

	_, err = s.Create(u2, "b", "c2")
	assert.ErrorIs(t, err, ErrIDExhausted)
}

// The second joiner takes the team the first does not hold.
func TestJoin_AssignsOppositeTeam(t *testing.T) {
	s, clk := newTestStore()
	room, err := s.Create(u1, "alice", "c1")
	require.NoError(t, err)

	clk.Advance(time.Second)
	room, p, err := s.Join(room.ID, u2, "bob", "c2")
	require.NoError(t, err)

	assert.Equal(t, engine.TeamBlue, p.Team)
	assert.Len(t, room.Players, 2)
	assert.Equal(t, clk.Now(), room.LastActivityAt)
	checkInvariants(t, s)
}

func TestJoin_AfterRedLeavesGivesRed(t *testing.T) {
	s, _ := newTestStore()
	room, _ := s.Create(u1, "alice", "c1")
	_, _, err := s.Join(room.ID, u2, "bob", "c2")
	require.NoError(t, err)

	_, destroyed, err := s.Leave(room.ID, u1)
	require.NoError(t, err)
	require.False(t, destroyed)

	room, p, err := s.Join(room.ID, u3, "carol", "c3")
	require.NoError(t, err)
	assert.Equal(t, engine.TeamRed, p.Team)
	checkInvariants(t, s)
}

func TestJoin_Failures(t *testing.T) {
	s, _ := newTestStore()
	room, _ := s.Create(u1, "alice", "c1")

	cases := []struct {
		name   string
		roomID string
		who    identity.Identity
		setup  func()
		want   error
	}{
		{name: "missing room", roomID: "does-not-exist", who: u2, want: ErrRoomNotFound},
		{name: "already inside", roomID: room.ID, who: u1, want: ErrAlreadyInRoom},
		{
			name:   "full",
			roomID: room.ID,
			who:    u3,
			setup: func() {
				_, _, err := s.Join(room.ID, u2, "bob", "c2")
				require.NoError(t, err)
			},
			want: ErrRoomFull,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setup != nil {
				tc.setup()
			}
			_, _, err := s.Join(tc.roomID, tc.who, "x", "cx")
			assert.ErrorIs(t, err, tc.want)
			checkInvariants(t, s)
		})
	}
}

func TestJoin_RoomIDIsCaseSensitive(t *testing.T) {
	s := NewStore(WithIDGenerator(func() string { return "abcdef0123456789abcdef0123456789" }))
	room, err := s.Create(u1, "alice", "c1")
	require.NoError(t, err)

	_, _, err = s.Join(strings.ToUpper(room.ID), u2, "bob", "c2")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	_, _, err = s.Join(room.ID, u2, "bob", "c2")
	assert.NoError(t, err)
}

func TestJoin_FullNeverReplaces(t *testing.T) {
	s, _ := newTestStore()
	room, _ := s.Create(u1, "alice", "c1")
	_, _, _ = s.Join(room.ID, u2, "bob", "c2")

	for i := 0; i < 5; i++ {
		_, _, err := s.Join(room.ID, identity.Identity(fmt.Sprintf("intruder-%d", i)), "x", "cx")
		require.ErrorIs(t, err, ErrRoomFull)
	}
	assert.True(t, room.Has(u1))
	assert.True(t, room.Has(u2))
}

func TestLeave(t *testing.T) {
	s, _ := newTestStore()
	room, _ := s.Create(u1, "alice", "c1")
	_, _, _ = s.Join(room.ID, u2, "bob", "c2")

	_, destroyed, err := s.Leave(room.ID, u3)
	assert.ErrorIs(t, err, ErrNotInRoom)
	assert.False(t, destroyed)

	got, destroyed, err := s.Leave(room.ID, u1)
	require.NoError(t, err)
	assert.False(t, destroyed)
	assert.Len(t, got.Players, 1)

	_, destroyed, err = s.Leave(room.ID, u2)
	require.NoError(t, err)
	assert.True(t, destroyed, "an emptied room is removed immediately")
	_, ok := s.Get(room.ID)
	assert.False(t, ok)

	_, _, err = s.Leave(room.ID, u2)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestUpdateSettings_MergesShallowly(t *testing.T) {
	s, _ := newTestStore()
	room, _ := s.Create(u1, "alice", "c1")

	room, err := s.UpdateSettings(room.ID, u1, SettingsPatch{BlueCount: intp(3)})
	require.NoError(t, err)
	assert.Equal(t, Settings{BlueCount: 3, RedCount: 20}, room.Settings)

	room, err = s.UpdateSettings(room.ID, u1, SettingsPatch{RedCount: intp(4), BalanceByRole: boolp(true)})
	require.NoError(t, err)
	assert.Equal(t, Settings{BlueCount: 3, RedCount: 4, BalanceByRole: true}, room.Settings)
}

// The stored owner id alone is not enough, the owner must be seated.
func TestUpdateSettings_NotOwner(t *testing.T) {
	s, _ := newTestStore()
	room, _ := s.Create(u1, "alice", "c1")
	_, _, _ = s.Join(room.ID, u2, "bob", "c2")

	_, err := s.UpdateSettings(room.ID, u2, SettingsPatch{BlueCount: intp(1)})
	assert.ErrorIs(t, err, ErrNotOwner)

	_, _, err = s.Leave(room.ID, u1)
	require.NoError(t, err)

	_, err = s.UpdateSettings(room.ID, u1, SettingsPatch{BlueCount: intp(1)})
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.Equal(t, DefaultSettings(), room.Settings)

	_, err = s.UpdateSettings("missing", u1, SettingsPatch{})
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestBeginRoll(t *testing.T) {
	s, _ := newTestStore()
	room, _ := s.Create(u1, "alice", "c1")

	_, err := s.BeginRoll(room.ID, u1)
	assert.ErrorIs(t, err, ErrInvalidState, "needs two players")
	assert.Zero(t, room.GameCount)

	_, _, _ = s.Join(room.ID, u2, "bob", "c2")

	_, err = s.BeginRoll(room.ID, u2)
	assert.ErrorIs(t, err, ErrNotOwner)

	room, err = s.BeginRoll(room.ID, u1)
	require.NoError(t, err)
	assert.True(t, room.IsRolling)
	assert.Equal(t, 1, room.GameCount)

	_, err = s.BeginRoll(room.ID, u1)
	assert.ErrorIs(t, err, ErrInvalidState, "already rolling")
	assert.Equal(t, 1, room.GameCount)
}

func TestFinishRoll(t *testing.T) {
	s, _ := newTestStore()
	room, _ := s.Create(u1, "alice", "c1")
	_, _, _ = s.Join(room.ID, u2, "bob", "c2")

	a := engine.Allocation{
		Blue: []engine.Hero{{ID: "1"}},
		Red:  []engine.Hero{{ID: "2"}},
	}

	_, ok := s.FinishRoll(room.ID, a)
	assert.False(t, ok, "not rolling")

	_, err := s.BeginRoll(room.ID, u1)
	require.NoError(t, err)

	room, ok = s.FinishRoll(room.ID, a)
	require.True(t, ok)
	assert.False(t, room.IsRolling)
	assert.Equal(t, a.Blue, room.BlueTeamHeroes)
	assert.Equal(t, a.Red, room.RedTeamHeroes)

	_, ok = s.FinishRoll("gone", a)
	assert.False(t, ok)
}

func TestAbortRoll(t *testing.T) {
	s, _ := newTestStore()
	room, _ := s.Create(u1, "alice", "c1")
	_, _, _ = s.Join(room.ID, u2, "bob", "c2")
	_, _ = s.BeginRoll(room.ID, u1)

	room, ok := s.AbortRoll(room.ID)
	require.True(t, ok)
	assert.False(t, room.IsRolling)
	assert.Equal(t, 1, room.GameCount)
}

func TestRenameAndShowSettings(t *testing.T) {
	s, _ := newTestStore()
	room, _ := s.Create(u1, "alice", "c1")
	_, _, _ = s.Join(room.ID, u2, "bob", "c2")

	_, ok := s.Rename(room.ID, u2, "robert")
	require.True(t, ok)
	p, _ := room.Player(u2)
	assert.Equal(t, "robert", p.Name)

	_, ok = s.Rename(room.ID, u3, "nobody")
	assert.False(t, ok)

	_, err := s.SetShowSettings(room.ID, u2, true)
	assert.ErrorIs(t, err, ErrNotOwner)

	room, err = s.SetShowSettings(room.ID, u1, true)
	require.NoError(t, err)
	assert.True(t, room.ShowSettings)
}

func TestExpired(t *testing.T) {
	s, clk := newTestStore()
	idle := 180 * time.Second

	old, _ := s.Create(u1, "alice", "c1")
	clk.Advance(100 * time.Second)
	fresh, _ := s.Create(u2, "bob", "c2")

	clk.Advance(81 * time.Second)
	expired := s.Expired(clk.Now(), idle)
	require.Len(t, expired, 1)
	assert.Equal(t, old.ID, expired[0].ID)

	_, ok := s.Touch(old.ID)
	require.True(t, ok)
	assert.Empty(t, s.Expired(clk.Now(), idle))

	// Exactly at the threshold is not yet idle.
	clk.Advance(idle)
	expired = s.Expired(clk.Now(), idle)
	require.Len(t, expired, 1)
	assert.Equal(t, fresh.ID, expired[0].ID)
}

func TestExpired_EmptyRoom(t *testing.T) {
	s, clk := newTestStore()
	room, _ := s.Create(u1, "alice", "c1")
	room.Players = nil

	expired := s.Expired(clk.Now(), time.Hour)
	require.Len(t, expired, 1)
}

func TestViewFor_HidesOtherSide(t *testing.T) {
	s, _ := newTestStore()
	room, _ := s.Create(u1, "alice", "c1")
	room.RedTeamHeroes = []engine.Hero{{ID: "r"}}
	room.BlueTeamHeroes = []engine.Hero{{ID: "b"}}

	red := room.ViewFor(engine.TeamRed)
	assert.Equal(t, []engine.Hero{{ID: "r"}}, red.RedTeamHeroes)
	assert.Empty(t, red.BlueTeamHeroes)

	blue := room.ViewFor(engine.TeamBlue)
	assert.Empty(t, blue.RedTeamHeroes)
	assert.Equal(t, []engine.Hero{{ID: "b"}}, blue.BlueTeamHeroes)

	// Views are copies.
	red.Players[0].Name = "mallory"
	assert.Equal(t, "alice", room.Players[0].Name)
}

func TestSummary(t *testing.T) {
	s, clk := newTestStore()
	room, _ := s.Create(u1, "alice", "c1")

	sum := room.Summary()
	assert.Equal(t, room.ID, sum.ID)
	assert.Equal(t, 1, sum.PlayerCount)
	assert.Equal(t, MaxPlayers, sum.MaxPlayers)
	assert.False(t, sum.IsRolling)
	assert.Equal(t, clk.Now().UnixMilli(), sum.CreatedAt)
	assert.Equal(t, clk.Now().UnixMilli(), sum.LastActivityAt)
}

func TestRoomJSON_EpochMillis(t *testing.T) {
	s, clk := newTestStore()
	room, _ := s.Create(u1, "alice", "c1")
	clk.Advance(1500 * time.Millisecond)
	room, _ = s.Touch(room.ID)

	data, err := json.Marshal(room.ViewFor(engine.TeamRed))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, room.ID, got["id"])
	assert.EqualValues(t, clk.Now().Add(-1500*time.Millisecond).UnixMilli(), got["createdAt"])
	assert.EqualValues(t, clk.Now().UnixMilli(), got["lastActivityAt"])
	assert.Contains(t, got, "players")
}
