package app

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Relay/internal/domain"
)

// Invite is a directed, single use grant to join one room.
type Invite struct {
	RoomID   domain.RoomID
	To       domain.PeerID
	From     domain.PeerID
	IssuedAt time.Time
}

// Guard decides who may invite and who may join a private room.
// A zero ttl means invites never expire.
type Guard struct {
	ttl     time.Duration
	now     func() time.Time
	invites map[domain.RoomID]map[domain.PeerID]Invite
}

func NewGuard(ttl time.Duration) *Guard {
	return &Guard{
		ttl:     ttl,
		now:     time.Now,
		invites: make(map[domain.RoomID]map[domain.PeerID]Invite),
	}
}

// AuthorizeInvite checks that from may invite to into room.
func (g *Guard) AuthorizeInvite(room *domain.Room, from, to domain.PeerID) error {
	if !room.HasMember(from) {
		return domain.ErrInviteAuthorization
	}
	if room.HasMember(to) {
		return domain.ErrAlreadyMember
	}
	return nil
}

// Issue records an invite, replacing an older one for the same target.
func (g *Guard) Issue(room *domain.Room, from, to domain.PeerID) Invite {
	inv := Invite{RoomID: room.ID, To: to, From: from, IssuedAt: g.now()}
	byPeer, ok := g.invites[room.ID]
	if !ok {
		byPeer = make(map[domain.PeerID]Invite)
		g.invites[room.ID] = byPeer
	}
	byPeer[to] = inv
	log.Debug().Str("module", "app.guard").Str("room", string(room.ID)).
		Str("from", string(from)).Str("to", string(to)).Msg("invite issued")
	return inv
}

// AdmitJoin lets the creator in, or consumes a live invite addressed to peer.
func (g *Guard) AdmitJoin(room *domain.Room, peer domain.PeerID) error {
	if room.CreatedBy(peer) {
		return nil
	}
	byPeer := g.invites[room.ID]
	inv, ok := byPeer[peer]
	if !ok {
		return domain.ErrInviteRequired
	}
	g.drop(room.ID, peer)
	if g.expired(inv) {
		return domain.ErrInviteRequired
	}
	return nil
}

func (g *Guard) expired(inv Invite) bool {
	return g.ttl > 0 && g.now().Sub(inv.IssuedAt) > g.ttl
}

func (g *Guard) drop(rid domain.RoomID, peer domain.PeerID) {
	byPeer := g.invites[rid]
	delete(byPeer, peer)
	if len(byPeer) == 0 {
		delete(g.invites, rid)
	}
}

// ForgetRoom discards every pending invite for a deleted room.
func (g *Guard) ForgetRoom(rid domain.RoomID) { delete(g.invites, rid) }

// ForgetPeer discards invites addressed to a departing peer.
func (g *Guard) ForgetPeer(peer domain.PeerID) {
	for rid := range g.invites {
		g.drop(rid, peer)
	}
}

// Pending counts live invites for a room.
func (g *Guard) Pending(rid domain.RoomID) int {
	n := 0
	for _, inv := range g.invites[rid] {
		if !g.expired(inv) {
			n++
		}
	}
	return n
}
