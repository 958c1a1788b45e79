package protocol

import (
	"errors"

	"github.com/goccy/go-json"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
)

// Event is an outbound message. Every event carries its type on the wire.
type Event interface {
	EventType() string
}

// Envelope carries the event type on the wire.
type Envelope struct {
	Type string `json:"type"`
}

func (h Envelope) EventType() string { return h.Type }

type Welcome struct {
	Envelope
	PeerID domain.PeerID   `json:"peer_id"`
	Nick   string          `json:"nick"`
	Peers  []core.PeerInfo `json:"peers"`
	Rooms  []core.RoomInfo `json:"rooms"`
}

type PeerJoined struct {
	Envelope
	core.PeerInfo
}

type PeerLeft struct {
	Envelope
	core.PeerInfo
}

type ChatMessage struct {
	Envelope
	From domain.PeerID   `json:"from"`
	Nick string          `json:"nick"`
	Data json.RawMessage `json:"data"`
}

type RoomCreated struct {
	Envelope
	RoomID domain.RoomID   `json:"room_id"`
	Name   domain.RoomName `json:"name"`
}

type RoomJoined struct {
	Envelope
	RoomID domain.RoomID   `json:"room_id"`
	Name   domain.RoomName `json:"name"`
}

type RoomPeerJoined struct {
	Envelope
	RoomID domain.RoomID `json:"room_id"`
	PeerID domain.PeerID `json:"peer_id"`
	Nick   string        `json:"nick"`
}

type RoomPeerLeft struct {
	Envelope
	RoomID domain.RoomID `json:"room_id"`
	PeerID domain.PeerID `json:"peer_id"`
	Nick   string        `json:"nick"`
}

type RoomInviteEvent struct {
	Envelope
	RoomID   domain.RoomID   `json:"room_id"`
	RoomName domain.RoomName `json:"room_name"`
	From     domain.PeerID   `json:"from"`
	FromNick string          `json:"from_nick"`
}

type RoomMessageEvent struct {
	Envelope
	RoomID domain.RoomID   `json:"room_id"`
	From   domain.PeerID   `json:"from"`
	Nick   string          `json:"nick"`
	Data   json.RawMessage `json:"data"`
}

type RoomListEvent struct {
	Envelope
	Rooms []core.RoomInfo `json:"rooms"`
}

type PeersEvent struct {
	Envelope
	Peers []core.PeerInfo `json:"peers"`
	Rooms []core.RoomInfo `json:"rooms"`
}

type ErrorEvent struct {
	Envelope
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewWelcome(self core.PeerInfo, peers []core.PeerInfo, rooms []core.RoomInfo) *Welcome {
	return &Welcome{Envelope: Envelope{Type: "welcome"}, PeerID: self.PeerID, Nick: self.Nick, Peers: nonNil(peers), Rooms: nonNil(rooms)}
}

func NewPeerJoined(p core.PeerInfo) *PeerJoined {
	return &PeerJoined{Envelope: Envelope{Type: "peer_joined"}, PeerInfo: p}
}

func NewPeerLeft(p core.PeerInfo) *PeerLeft {
	return &PeerLeft{Envelope: Envelope{Type: "peer_left"}, PeerInfo: p}
}

func NewChatMessage(from core.PeerInfo, data json.RawMessage) *ChatMessage {
	return &ChatMessage{Envelope: Envelope{Type: "message"}, From: from.PeerID, Nick: from.Nick, Data: data}
}

func NewRoomCreated(r *domain.Room) *RoomCreated {
	return &RoomCreated{Envelope: Envelope{Type: "room_created"}, RoomID: r.ID, Name: r.Name}
}

func NewRoomJoined(r *domain.Room) *RoomJoined {
	return &RoomJoined{Envelope: Envelope{Type: "room_joined"}, RoomID: r.ID, Name: r.Name}
}

func NewRoomPeerJoined(rid domain.RoomID, p core.PeerInfo) *RoomPeerJoined {
	return &RoomPeerJoined{Envelope: Envelope{Type: "room_peer_joined"}, RoomID: rid, PeerID: p.PeerID, Nick: p.Nick}
}

func NewRoomPeerLeft(rid domain.RoomID, p core.PeerInfo) *RoomPeerLeft {
	return &RoomPeerLeft{Envelope: Envelope{Type: "room_peer_left"}, RoomID: rid, PeerID: p.PeerID, Nick: p.Nick}
}

func NewRoomInvite(r *domain.Room, from core.PeerInfo) *RoomInviteEvent {
	return &RoomInviteEvent{Envelope: Envelope{Type: "room_invite"}, RoomID: r.ID, RoomName: r.Name, From: from.PeerID, FromNick: from.Nick}
}

func NewRoomMessage(rid domain.RoomID, from core.PeerInfo, data json.RawMessage) *RoomMessageEvent {
	return &RoomMessageEvent{Envelope: Envelope{Type: "room_message"}, RoomID: rid, From: from.PeerID, Nick: from.Nick, Data: data}
}

func NewRoomList(rooms []core.RoomInfo) *RoomListEvent {
	return &RoomListEvent{Envelope: Envelope{Type: "room_list"}, Rooms: nonNil(rooms)}
}

func NewPeers(peers []core.PeerInfo, rooms []core.RoomInfo) *PeersEvent {
	return &PeersEvent{Envelope: Envelope{Type: "peers"}, Peers: nonNil(peers), Rooms: nonNil(rooms)}
}

// Error codes surfaced to the requester.
const (
	CodeRoomNotFound        = "room_not_found"
	CodeInviteRequired      = "invite_required"
	CodeInviteNotAuthorized = "invite_not_authorized"
	CodePeerNotFound        = "peer_not_found"
	CodeAlreadyMember       = "already_member"
	CodeNotMember           = "not_member"
	CodePeerIDInUse         = "peer_id_in_use"
	CodeRateLimited         = "rate_limited"
)

var errorCodes = []struct {
	err  error
	code string
}{
	{domain.ErrRoomNotFound, CodeRoomNotFound},
	{domain.ErrInviteRequired, CodeInviteRequired},
	{domain.ErrInviteAuthorization, CodeInviteNotAuthorized},
	{domain.ErrPeerNotFound, CodePeerNotFound},
	{domain.ErrAlreadyMember, CodeAlreadyMember},
	{domain.ErrNotMember, CodeNotMember},
	{domain.ErrPeerIDInUse, CodePeerIDInUse},
	{domain.ErrRateLimited, CodeRateLimited},
}

// NewError maps a domain error to an error event. ok is false for errors
// that are not meant for the client.
func NewError(err error) (ev *ErrorEvent, ok bool) {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return &ErrorEvent{Envelope: Envelope{Type: "error"}, Code: ec.code, Message: ec.err.Error()}, true
		}
	}
	return nil, false
}

func Encode(ev Event) (core.Frame, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return core.Frame(b), nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
