package app

import (
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
)

// RoomManager is the room directory. Like Registry it is owned by the
// coordinator loop.
type RoomManager struct {
	rooms map[domain.RoomID]*domain.Room
	guard *Guard
	newID func() domain.RoomID
}

func NewRoomManager(guard *Guard) *RoomManager {
	return &RoomManager{
		rooms: make(map[domain.RoomID]*domain.Room),
		guard: guard,
		newID: domain.NewRoomID,
	}
}

func (m *RoomManager) Create(owner domain.PeerID, name domain.RoomName) *domain.Room {
	id := m.newID()
	for {
		if _, taken := m.rooms[id]; !taken {
			break
		}
		id = m.newID()
	}
	room := domain.NewRoom(id, name, owner)
	m.rooms[id] = room
	log.Info().Str("module", "app.rooms").Str("room", string(id)).
		Str("name", string(name)).Str("owner", string(owner)).Msg("room created")
	return room
}

func (m *RoomManager) Get(rid domain.RoomID) (*domain.Room, error) {
	room, ok := m.rooms[rid]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return room, nil
}

// Join adds peer to the room once the guard admits it. An existing member
// gets the room back together with ErrAlreadyMember.
func (m *RoomManager) Join(peer domain.PeerID, rid domain.RoomID) (*domain.Room, error) {
	room, err := m.Get(rid)
	if err != nil {
		return nil, err
	}
	if room.HasMember(peer) {
		return room, domain.ErrAlreadyMember
	}
	if err := m.guard.AdmitJoin(room, peer); err != nil {
		return nil, err
	}
	room.AddMember(peer)
	return room, nil
}

type LeaveResult struct {
	Room    *domain.Room
	Removed bool
	Deleted bool
}

// Leave removes peer from the room and deletes the room in the same step
// when it becomes empty.
func (m *RoomManager) Leave(peer domain.PeerID, rid domain.RoomID) LeaveResult {
	room, ok := m.rooms[rid]
	if !ok {
		return LeaveResult{}
	}
	res := LeaveResult{Room: room, Removed: room.RemoveMember(peer)}
	if res.Removed && room.Empty() {
		delete(m.rooms, rid)
		m.guard.ForgetRoom(rid)
		res.Deleted = true
		log.Info().Str("module", "app.rooms").Str("room", string(rid)).Msg("room deleted")
	}
	return res
}

// List returns room summaries sorted by name, then id.
func (m *RoomManager) List() []core.RoomInfo {
	out := make([]core.RoomInfo, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, core.RoomInfoOf(r))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].RoomID < out[j].RoomID
	})
	return out
}

// ForgetCreator drops creator rights held by a departing peer.
func (m *RoomManager) ForgetCreator(peer domain.PeerID) {
	for _, r := range m.rooms {
		if r.CreatedBy(peer) {
			r.Creator = ""
		}
	}
}

func (m *RoomManager) Count() int { return len(m.rooms) }
