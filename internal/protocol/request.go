// Package protocol defines the wire format of the signal channel: flat JSON
// objects with a "type" discriminator, parsed into a closed set of requests.
package protocol

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/dkeye/Relay/internal/domain"
)

type Kind string

const (
	KindJoin        Kind = "join"
	KindMessage     Kind = "message"
	KindRoomCreate  Kind = "room_create"
	KindRoomJoin    Kind = "room_join"
	KindRoomInvite  Kind = "room_invite"
	KindRoomMessage Kind = "room_message"
	KindRoomLeave   Kind = "room_leave"
	KindRoomList    Kind = "room_list"
)

// ErrMalformed wraps every parse failure: bad JSON, unknown kind, missing fields.
var ErrMalformed = errors.New("malformed request")

// Request is one of the concrete request types below.
type Request interface {
	Kind() Kind
}

type Join struct {
	PeerID string `json:"peer_id" validate:"max=64"`
	Nick   string `json:"nick"`
}

type Message struct {
	Data json.RawMessage `json:"data" validate:"required"`
}

type RoomCreate struct {
	Name string `json:"name" validate:"required"`
}

type RoomJoin struct {
	RoomID domain.RoomID `json:"room_id" validate:"required"`
}

type RoomInvite struct {
	RoomID domain.RoomID `json:"room_id" validate:"required"`
	PeerID domain.PeerID `json:"peer_id" validate:"required"`
}

type RoomMessage struct {
	RoomID domain.RoomID   `json:"room_id" validate:"required"`
	Data   json.RawMessage `json:"data" validate:"required"`
}

type RoomLeave struct {
	RoomID domain.RoomID `json:"room_id" validate:"required"`
}

type RoomList struct{}

func (*Join) Kind() Kind        { return KindJoin }
func (*Message) Kind() Kind     { return KindMessage }
func (*RoomCreate) Kind() Kind  { return KindRoomCreate }
func (*RoomJoin) Kind() Kind    { return KindRoomJoin }
func (*RoomInvite) Kind() Kind  { return KindRoomInvite }
func (*RoomMessage) Kind() Kind { return KindRoomMessage }
func (*RoomLeave) Kind() Kind   { return KindRoomLeave }
func (*RoomList) Kind() Kind    { return KindRoomList }

var validate = validator.New(validator.WithRequiredStructEnabled())

// Parse decodes one inbound frame. It returns either a fully populated
// request or an error wrapping ErrMalformed, never a partial value.
func Parse(data []byte) (Request, error) {
	var env struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var req Request
	switch env.Type {
	case KindJoin:
		req = &Join{}
	case KindMessage:
		req = &Message{}
	case KindRoomCreate:
		req = &RoomCreate{}
	case KindRoomJoin:
		req = &RoomJoin{}
	case KindRoomInvite:
		req = &RoomInvite{}
	case KindRoomMessage:
		req = &RoomMessage{}
	case KindRoomLeave:
		req = &RoomLeave{}
	case KindRoomList:
		return &RoomList{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrMalformed, env.Type)
	}

	if err := json.Unmarshal(data, req); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, env.Type, err)
	}
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, env.Type, err)
	}
	return req, nil
}
