package core

import "github.com/dkeye/Relay/internal/domain"

// PeerInfo is a read-only view of a session for outbound events.
type PeerInfo struct {
	PeerID domain.PeerID `json:"peer_id"`
	Nick   string        `json:"nick"`
}

// RoomInfo is the public room summary. Members is a count, never the id set.
type RoomInfo struct {
	RoomID  domain.RoomID   `json:"room_id"`
	Name    domain.RoomName `json:"name"`
	Members int             `json:"members"`
}

func RoomInfoOf(r *domain.Room) RoomInfo {
	return RoomInfo{RoomID: r.ID, Name: r.Name, Members: r.MemberCount()}
}
