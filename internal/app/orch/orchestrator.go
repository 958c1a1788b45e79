// Package orch is the message router. The Orchestrator turns parsed requests
// into registry and room mutations plus outbound events; Loop serialises
// every call into it on one goroutine.
package orch

import (
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Relay/internal/app"
	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/dkeye/Relay/internal/metrics"
	"github.com/dkeye/Relay/internal/protocol"
)

type Orchestrator struct {
	Registry  *app.Registry
	Rooms     *app.RoomManager
	Guard     *app.Guard
	Broadcast *app.Broadcaster
	Limiter   *app.RoomRateLimiter
	Metrics   *metrics.Metrics
}

type Options struct {
	InviteTTL        time.Duration
	Policy           app.Policy
	RoomCreateLimit  int
	RoomCreateWindow time.Duration
	Metrics          *metrics.Metrics
}

func New(opts Options) *Orchestrator {
	reg := app.NewRegistry()
	guard := app.NewGuard(opts.InviteTTL)
	return &Orchestrator{
		Registry:  reg,
		Rooms:     app.NewRoomManager(guard),
		Guard:     guard,
		Broadcast: app.NewBroadcaster(reg, opts.Policy, opts.Metrics),
		Limiter:   app.NewRoomRateLimiter(opts.RoomCreateLimit, opts.RoomCreateWindow),
		Metrics:   opts.Metrics,
	}
}

// Connect registers a new anonymous connection.
func (o *Orchestrator) Connect(cid core.ConnID, conn core.SignalConnection) {
	o.Registry.Attach(cid, conn)
	o.syncGauges()
}

// Handle processes one inbound frame to completion, including every send it
// triggers. Bad input is dropped without a reply.
func (o *Orchestrator) Handle(cid core.ConnID, data []byte) {
	req, err := protocol.Parse(data)
	if err != nil {
		log.Debug().Err(err).Str("module", "orch").Str("cid", string(cid)).Msg("dropped malformed frame")
		o.Metrics.Dropped("malformed")
		return
	}
	o.Metrics.Request(string(req.Kind()))

	if join, ok := req.(*protocol.Join); ok {
		o.reply(cid, o.handleJoin(cid, join))
		return
	}

	sess, ok := o.Registry.Session(cid)
	if !ok {
		log.Debug().Str("module", "orch").Str("cid", string(cid)).Str("kind", string(req.Kind())).Msg("dropped request before join")
		o.Metrics.Dropped("unauthenticated")
		return
	}

	switch r := req.(type) {
	case *protocol.Message:
		o.Broadcast.BroadcastAll(protocol.NewChatMessage(app.PeerInfoOf(sess), r.Data), cid)
	case *protocol.RoomCreate:
		err = o.handleRoomCreate(cid, sess, r)
	case *protocol.RoomJoin:
		err = o.handleRoomJoin(cid, sess, r)
	case *protocol.RoomInvite:
		err = o.handleRoomInvite(sess, r)
	case *protocol.RoomMessage:
		err = o.handleRoomMessage(cid, sess, r)
	case *protocol.RoomLeave:
		o.leaveRoom(cid, sess, r.RoomID, false)
	case *protocol.RoomList:
		o.Broadcast.SendTo(cid, protocol.NewRoomList(o.Rooms.List()))
	}
	o.reply(cid, err)
	o.syncGauges()
}

func (o *Orchestrator) handleJoin(cid core.ConnID, r *protocol.Join) error {
	sess, err := o.Registry.Join(cid, r.PeerID, r.Nick)
	switch {
	case errors.Is(err, domain.ErrPeerIDInUse):
		return err
	case err != nil:
		log.Debug().Err(err).Str("module", "orch").Str("cid", string(cid)).Msg("dropped join")
		o.Metrics.Dropped("join")
		return nil
	}

	self := app.PeerInfoOf(sess)
	o.Broadcast.SendTo(cid, protocol.NewWelcome(self, o.Registry.Peers(cid), o.Rooms.List()))
	o.Broadcast.BroadcastAll(protocol.NewPeerJoined(self), cid)
	o.syncGauges()
	return nil
}

// Disconnect runs the cascade: silent leave of every room, drop creator
// rights and invites held by the peer, remove the session, then one
// peer_left to everyone else.
func (o *Orchestrator) Disconnect(cid core.ConnID) {
	sess, joined := o.Registry.Session(cid)
	if joined {
		for _, rid := range sess.Rooms() {
			o.leaveRoom(cid, sess, rid, true)
		}
		o.Rooms.ForgetCreator(sess.ID)
		o.Guard.ForgetPeer(sess.ID)
		o.Limiter.Forget(sess.ID)
	}
	o.Registry.Remove(cid)
	if joined {
		o.Broadcast.BroadcastAll(protocol.NewPeerLeft(app.PeerInfoOf(sess)), cid)
		log.Info().Str("module", "orch").Str("cid", string(cid)).Str("peer", string(sess.ID)).Msg("peer left")
	}
	o.syncGauges()
}

// reply surfaces a domain error to the requester. Errors without a client
// code are only logged.
func (o *Orchestrator) reply(cid core.ConnID, err error) {
	if err == nil {
		return
	}
	ev, ok := protocol.NewError(err)
	if !ok {
		log.Error().Err(err).Str("module", "orch").Str("cid", string(cid)).Msg("request failed")
		return
	}
	o.Broadcast.SendTo(cid, ev)
}

func (o *Orchestrator) syncGauges() {
	o.Metrics.SetConnections(o.Registry.ConnCount())
	o.Metrics.SetSessions(o.Registry.SessionCount())
	o.Metrics.SetRooms(o.Rooms.Count())
}
