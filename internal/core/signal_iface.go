package core

import (
	"errors"

	"github.com/google/uuid"
)

// Frame is one encoded outbound event.
type Frame []byte

// ConnID identifies a transport connection for its whole lifetime.
type ConnID string

func NewConnID() ConnID { return ConnID(uuid.NewString()) }

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
// TrySend must never block: a full buffer returns ErrBackpressure.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
