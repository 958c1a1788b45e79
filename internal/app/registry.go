package app

import (
	"sort"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
)

type connEntry struct {
	conn    core.SignalConnection
	session *domain.PeerSession
	seq     uint64
}

// Registry maps live connections to peer sessions. It has a single owner,
// the coordinator loop, and is not safe for concurrent use.
type Registry struct {
	conns map[core.ConnID]*connEntry
	seq   uint64
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[core.ConnID]*connEntry)}
}

// Attach registers an anonymous connection.
func (r *Registry) Attach(cid core.ConnID, conn core.SignalConnection) {
	r.conns[cid] = &connEntry{conn: conn}
	log.Debug().Str("module", "app.registry").Str("cid", string(cid)).Msg("attached connection")
}

// Join binds a session to an anonymous connection. The nick is suffixed with
// 2, 3, ... until it differs from every connected nick.
func (r *Registry) Join(cid core.ConnID, candidateID, candidateNick string) (*domain.PeerSession, error) {
	e, ok := r.conns[cid]
	if !ok {
		return nil, domain.ErrUnknownConn
	}
	if e.session != nil {
		return nil, domain.ErrAlreadyJoined
	}
	pid, err := domain.NormalizePeerID(candidateID)
	if err != nil {
		return nil, err
	}
	if _, _, taken := r.Lookup(pid); taken {
		return nil, domain.ErrPeerIDInUse
	}

	r.seq++
	e.session = domain.NewPeerSession(pid, r.uniqueNick(domain.NormalizeNick(candidateNick)))
	e.seq = r.seq
	log.Info().Str("module", "app.registry").Str("cid", string(cid)).
		Str("peer", string(pid)).Str("nick", e.session.Nick).Msg("peer joined")
	return e.session, nil
}

func (r *Registry) uniqueNick(base string) string {
	taken := make(map[string]struct{}, len(r.conns))
	for _, e := range r.conns {
		if e.session != nil {
			taken[e.session.Nick] = struct{}{}
		}
	}
	if _, ok := taken[base]; !ok {
		return base
	}
	for n := 2; ; n++ {
		suffix := strconv.Itoa(n)
		nick := domain.TruncateRunes(base, domain.MaxNickLen-len(suffix)) + suffix
		if _, ok := taken[nick]; !ok {
			return nick
		}
	}
}

// Remove forgets the connection and returns its session, if any, together
// with the rooms it still belonged to.
func (r *Registry) Remove(cid core.ConnID) (*domain.PeerSession, []domain.RoomID) {
	e, ok := r.conns[cid]
	if !ok {
		return nil, nil
	}
	delete(r.conns, cid)
	log.Debug().Str("module", "app.registry").Str("cid", string(cid)).Msg("removed connection")
	if e.session == nil {
		return nil, nil
	}
	return e.session, e.session.Rooms()
}

func (r *Registry) Session(cid core.ConnID) (*domain.PeerSession, bool) {
	e, ok := r.conns[cid]
	if !ok || e.session == nil {
		return nil, false
	}
	return e.session, true
}

func (r *Registry) Conn(cid core.ConnID) (core.SignalConnection, bool) {
	e, ok := r.conns[cid]
	if !ok {
		return nil, false
	}
	return e.conn, true
}

// Lookup finds a session by peer id with a linear scan.
func (r *Registry) Lookup(pid domain.PeerID) (core.ConnID, *domain.PeerSession, bool) {
	for cid, e := range r.conns {
		if e.session != nil && e.session.ID == pid {
			return cid, e.session, true
		}
	}
	return "", nil, false
}

// Peers lists sessions in join order, leaving out exclude.
func (r *Registry) Peers(exclude core.ConnID) []core.PeerInfo {
	out := make([]core.PeerInfo, 0, len(r.conns))
	r.EachSession(func(cid core.ConnID, _ core.SignalConnection, s *domain.PeerSession) {
		if cid != exclude {
			out = append(out, core.PeerInfo{PeerID: s.ID, Nick: s.Nick})
		}
	})
	return out
}

// EachSession visits connections that completed join, in join order.
func (r *Registry) EachSession(fn func(core.ConnID, core.SignalConnection, *domain.PeerSession)) {
	type snap struct {
		cid core.ConnID
		e   *connEntry
	}
	snaps := make([]snap, 0, len(r.conns))
	for cid, e := range r.conns {
		if e.session != nil {
			snaps = append(snaps, snap{cid, e})
		}
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].e.seq < snaps[j].e.seq })
	for _, s := range snaps {
		fn(s.cid, s.e.conn, s.e.session)
	}
}

func (r *Registry) ConnCount() int { return len(r.conns) }

func (r *Registry) SessionCount() int {
	n := 0
	for _, e := range r.conns {
		if e.session != nil {
			n++
		}
	}
	return n
}

func PeerInfoOf(s *domain.PeerSession) core.PeerInfo {
	return core.PeerInfo{PeerID: s.ID, Nick: s.Nick}
}
