package app

import (
	"fmt"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
)

type BackpressureAction int

const (
	DropEvent BackpressureAction = iota
	CloseConnection
)

type Policy interface {
	OnBackPressure(cid core.ConnID, sess *domain.PeerSession) BackpressureAction
}

// SimplePolicy skips the event for a slow peer.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(core.ConnID, *domain.PeerSession) BackpressureAction {
	return DropEvent
}

// StrictPolicy closes a connection that cannot keep up.
type StrictPolicy struct{}

func (StrictPolicy) OnBackPressure(core.ConnID, *domain.PeerSession) BackpressureAction {
	return CloseConnection
}

func PolicyByName(name string) (Policy, error) {
	switch name {
	case "", "drop":
		return SimplePolicy{}, nil
	case "close":
		return StrictPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown slow peer policy %q", name)
	}
}
