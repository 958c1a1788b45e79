package domain

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

const (
	MaxRoomNameLen = 50
	roomIDPrefix   = "room-"
)

type (
	RoomName string
	RoomID   string
)

// Creator is cleared when the creating session ends, so a later session
// reusing the same peer id gains no rights over the room.
type Room struct {
	ID      RoomID
	Name    RoomName
	Creator PeerID

	members map[PeerID]struct{}
}

// NewRoom creates a room whose only member is the creator.
func NewRoom(id RoomID, name RoomName, creator PeerID) *Room {
	return &Room{
		ID:      id,
		Name:    name,
		Creator: creator,
		members: map[PeerID]struct{}{creator: {}},
	}
}

// NewRoomID returns an opaque id with 122 random bits.
func NewRoomID() RoomID {
	return RoomID(roomIDPrefix + strings.ReplaceAll(uuid.NewString(), "-", ""))
}

func NormalizeRoomName(raw string) (RoomName, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", ErrRoomNameEmpty
	}
	return RoomName(TruncateRunes(name, MaxRoomNameLen)), nil
}

func (r *Room) AddMember(id PeerID) { r.members[id] = struct{}{} }

func (r *Room) CreatedBy(id PeerID) bool { return r.Creator != "" && r.Creator == id }

// RemoveMember reports whether id was a member.
func (r *Room) RemoveMember(id PeerID) bool {
	if _, ok := r.members[id]; !ok {
		return false
	}
	delete(r.members, id)
	return true
}

func (r *Room) HasMember(id PeerID) bool {
	_, ok := r.members[id]
	return ok
}

func (r *Room) MemberCount() int { return len(r.members) }
func (r *Room) Empty() bool      { return len(r.members) == 0 }

func (r *Room) Members() []PeerID {
	out := make([]PeerID, 0, len(r.members))
	for id := range r.members {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
