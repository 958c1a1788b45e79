package domain

import "errors"

var (
	ErrPeerIDTooLong = errors.New("peer id too long")
	ErrPeerIDInUse   = errors.New("peer id already in use")
	ErrAlreadyJoined = errors.New("connection already joined")
	ErrRoomNameEmpty = errors.New("room name empty")
	ErrUnknownConn   = errors.New("unknown connection")

	ErrRoomNotFound        = errors.New("room not found")
	ErrPeerNotFound        = errors.New("peer not found")
	ErrAlreadyMember       = errors.New("peer already in room")
	ErrNotMember           = errors.New("not a member of this room")
	ErrInviteRequired      = errors.New("invite required to join this room")
	ErrInviteAuthorization = errors.New("only room members can invite")
	ErrRateLimited         = errors.New("rate limit exceeded")
)
