package app

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/dkeye/Relay/internal/metrics"
	"github.com/dkeye/Relay/internal/protocol"
)

// Broadcaster fans events out to registry connections. Delivery is best
// effort: a send that would block is handled by the policy and never retried.
type Broadcaster struct {
	registry *Registry
	policy   Policy
	metrics  *metrics.Metrics
}

func NewBroadcaster(reg *Registry, policy Policy, m *metrics.Metrics) *Broadcaster {
	if policy == nil {
		policy = SimplePolicy{}
	}
	return &Broadcaster{registry: reg, policy: policy, metrics: m}
}

// SendTo unicasts ev to one connection, joined or not.
func (b *Broadcaster) SendTo(cid core.ConnID, ev protocol.Event) bool {
	conn, ok := b.registry.Conn(cid)
	if !ok {
		return false
	}
	frame, ok := b.encode(ev)
	if !ok {
		return false
	}
	sess, _ := b.registry.Session(cid)
	return b.deliver(cid, conn, sess, frame)
}

// BroadcastAll sends ev to every joined connection except exclude.
func (b *Broadcaster) BroadcastAll(ev protocol.Event, exclude core.ConnID) int {
	frame, ok := b.encode(ev)
	if !ok {
		return 0
	}
	sent := 0
	b.registry.EachSession(func(cid core.ConnID, conn core.SignalConnection, s *domain.PeerSession) {
		if cid != exclude && b.deliver(cid, conn, s, frame) {
			sent++
		}
	})
	return sent
}

// BroadcastRoom sends ev to the room's members except exclude.
func (b *Broadcaster) BroadcastRoom(room *domain.Room, ev protocol.Event, exclude core.ConnID) int {
	frame, ok := b.encode(ev)
	if !ok {
		return 0
	}
	sent := 0
	b.registry.EachSession(func(cid core.ConnID, conn core.SignalConnection, s *domain.PeerSession) {
		if cid != exclude && room.HasMember(s.ID) && b.deliver(cid, conn, s, frame) {
			sent++
		}
	})
	return sent
}

func (b *Broadcaster) encode(ev protocol.Event) (core.Frame, bool) {
	frame, err := protocol.Encode(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "app.broadcast").Str("type", ev.EventType()).Msg("encode event")
		return nil, false
	}
	return frame, true
}

func (b *Broadcaster) deliver(cid core.ConnID, conn core.SignalConnection, sess *domain.PeerSession, frame core.Frame) bool {
	err := conn.TrySend(frame)
	if err == nil {
		b.metrics.EventSent()
		return true
	}
	if !errors.Is(err, core.ErrBackpressure) {
		b.metrics.EventSkipped("closed")
		return false
	}

	b.metrics.EventSkipped("backpressure")
	switch b.policy.OnBackPressure(cid, sess) {
	case CloseConnection:
		log.Warn().Str("module", "app.broadcast").Str("cid", string(cid)).Msg("closing slow connection")
		conn.Close()
	case DropEvent:
		log.Debug().Str("module", "app.broadcast").Str("cid", string(cid)).Msg("dropped event for slow connection")
	}
	return false
}
