package ws

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/leedalei/lol-random-hero-selector/internal/hub"
	"github.com/leedalei/lol-random-hero-selector/internal/lobby"
	wire "github.com/leedalei/lol-random-hero-selector/pkg/types"
	"golang.org/x/text/unicode/norm"
)

var (
	ErrUnknownType = errors.New("unknown type")
	ErrBadPayload  = errors.New("bad payload")
	ErrBadName     = errors.New("bad name")
)

const (
	MinHeroCount = 1
	MaxHeroCount = 50
	MaxNameRunes = 36
)

// ToCommand validates a client frame. Nothing that fails here reaches the hub.
func ToCommand(m wire.ClientMessage) (hub.Command, error) {
	cmd := hub.Command{Type: m.Type}

	switch m.Type {
	case wire.CmdCreateRoom, wire.CmdLeaveRoom, wire.CmdStartGame, wire.CmdRefreshRoom, wire.CmdPing:
		return cmd, nil

	case wire.CmdJoinRoom:
		var roomID string
		if err := decode(m.Data, &roomID); err != nil || roomID == "" {
			return hub.Command{}, ErrBadPayload
		}
		cmd.RoomID = roomID

	case wire.CmdUpdateSettings:
		var patch lobby.SettingsPatch
		if err := decode(m.Data, &patch); err != nil {
			return hub.Command{}, ErrBadPayload
		}
		for _, n := range []*int{patch.BlueCount, patch.RedCount} {
			if n != nil && (*n < MinHeroCount || *n > MaxHeroCount) {
				return hub.Command{}, ErrBadPayload
			}
		}
		cmd.Settings = patch

	case wire.CmdToggleSettings:
		if err := decode(m.Data, &cmd.Show); err != nil {
			return hub.Command{}, ErrBadPayload
		}

	case wire.CmdSetPlayerName:
		var raw string
		if err := decode(m.Data, &raw); err != nil {
			return hub.Command{}, ErrBadPayload
		}
		name, err := NormalizeName(raw)
		if err != nil {
			return hub.Command{}, err
		}
		cmd.Name = name

	default:
		return hub.Command{}, ErrUnknownType
	}
	return cmd, nil
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return ErrBadPayload
	}
	return json.Unmarshal(data, v)
}

// NormalizeName trims and NFC-normalizes a display name and enforces its length.
func NormalizeName(s string) (string, error) {
	name := strings.TrimSpace(norm.NFC.String(s))
	n := utf8.RuneCountInString(name)
	if n == 0 || n > MaxNameRunes {
		return "", ErrBadName
	}
	if strings.IndexFunc(name, unicode.IsControl) >= 0 {
		return "", ErrBadName
	}
	return name, nil
}
