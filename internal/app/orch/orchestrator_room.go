package orch

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Relay/internal/app"
	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/dkeye/Relay/internal/protocol"
)

func (o *Orchestrator) handleRoomCreate(cid core.ConnID, sess *domain.PeerSession, r *protocol.RoomCreate) error {
	name, err := domain.NormalizeRoomName(r.Name)
	if err != nil {
		o.Metrics.Dropped("malformed")
		return nil
	}
	if !o.Limiter.Allow(sess.ID) {
		return domain.ErrRateLimited
	}

	room := o.Rooms.Create(sess.ID, name)
	sess.AddRoom(room.ID)
	o.Broadcast.SendTo(cid, protocol.NewRoomCreated(room))
	o.Broadcast.BroadcastAll(protocol.NewPeers(o.Registry.Peers(""), o.Rooms.List()), "")
	return nil
}

func (o *Orchestrator) handleRoomJoin(cid core.ConnID, sess *domain.PeerSession, r *protocol.RoomJoin) error {
	room, err := o.Rooms.Join(sess.ID, r.RoomID)
	if errors.Is(err, domain.ErrAlreadyMember) {
		o.Broadcast.SendTo(cid, protocol.NewRoomJoined(room))
		return nil
	}
	if err != nil {
		return err
	}

	sess.AddRoom(room.ID)
	log.Info().Str("module", "orch").Str("room", string(room.ID)).Str("peer", string(sess.ID)).Msg("joined room")
	o.Broadcast.SendTo(cid, protocol.NewRoomJoined(room))
	o.Broadcast.BroadcastRoom(room, protocol.NewRoomPeerJoined(room.ID, app.PeerInfoOf(sess)), cid)
	return nil
}

// handleRoomInvite delivers the invite to the target connection only.
func (o *Orchestrator) handleRoomInvite(sess *domain.PeerSession, r *protocol.RoomInvite) error {
	room, err := o.Rooms.Get(r.RoomID)
	if err != nil {
		return err
	}
	if err := o.Guard.AuthorizeInvite(room, sess.ID, r.PeerID); err != nil {
		return err
	}
	target, _, ok := o.Registry.Lookup(r.PeerID)
	if !ok {
		return domain.ErrPeerNotFound
	}

	o.Guard.Issue(room, sess.ID, r.PeerID)
	o.Broadcast.SendTo(target, protocol.NewRoomInvite(room, app.PeerInfoOf(sess)))
	return nil
}

func (o *Orchestrator) handleRoomMessage(cid core.ConnID, sess *domain.PeerSession, r *protocol.RoomMessage) error {
	room, err := o.Rooms.Get(r.RoomID)
	if err != nil {
		return err
	}
	if !room.HasMember(sess.ID) {
		return domain.ErrNotMember
	}
	o.Broadcast.BroadcastRoom(room, protocol.NewRoomMessage(room.ID, app.PeerInfoOf(sess), r.Data), cid)
	return nil
}

// leaveRoom is a no-op for non-members. Remaining members hear about the
// departure unless silent is set or the room was deleted.
func (o *Orchestrator) leaveRoom(cid core.ConnID, sess *domain.PeerSession, rid domain.RoomID, silent bool) {
	res := o.Rooms.Leave(sess.ID, rid)
	if !res.Removed {
		return
	}
	sess.RemoveRoom(rid)
	if res.Deleted || silent {
		return
	}
	o.Broadcast.BroadcastRoom(res.Room, protocol.NewRoomPeerLeft(rid, app.PeerInfoOf(sess)), cid)
}
