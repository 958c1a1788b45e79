// Package domain contains entity without transport, just meta-data and membership sets
package domain

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	MaxPeerIDLen = 64
	MaxNickLen   = 24
	DefaultNick  = "Anonymous"
)

type PeerID string

// PeerSession is the identity bound to one live connection.
// memberRooms mirrors Room.members and is kept in sync by the router.
type PeerSession struct {
	ID   PeerID
	Nick string

	memberRooms map[RoomID]struct{}
}

func NewPeerSession(id PeerID, nick string) *PeerSession {
	return &PeerSession{
		ID:          id,
		Nick:        nick,
		memberRooms: make(map[RoomID]struct{}),
	}
}

func NewPeerID() PeerID { return PeerID(uuid.NewString()) }

// NormalizePeerID returns the caller supplied id, or a fresh one when blank.
func NormalizePeerID(raw string) (PeerID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return NewPeerID(), nil
	}
	if len(raw) > MaxPeerIDLen {
		return "", ErrPeerIDTooLong
	}
	return PeerID(raw), nil
}

// NormalizeNick strips control characters and cuts the nick to MaxNickLen runes.
func NormalizeNick(raw string) string {
	nick := strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, raw))
	if nick == "" {
		return DefaultNick
	}
	return TruncateRunes(nick, MaxNickLen)
}

func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

func (s *PeerSession) AddRoom(id RoomID)    { s.memberRooms[id] = struct{}{} }
func (s *PeerSession) RemoveRoom(id RoomID) { delete(s.memberRooms, id) }

func (s *PeerSession) InRoom(id RoomID) bool {
	_, ok := s.memberRooms[id]
	return ok
}

// Rooms returns the member rooms sorted by id.
func (s *PeerSession) Rooms() []RoomID {
	out := make([]RoomID, 0, len(s.memberRooms))
	for id := range s.memberRooms {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
