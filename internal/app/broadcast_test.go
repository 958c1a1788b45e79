package app

import (
	"testing"

	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/dkeye/Relay/internal/protocol"
)

func TestBroadcastAllExcludesSenderAndAnonymous(t *testing.T) {
	reg := NewRegistry()
	a := attachJoined(t, reg, "c1", "a1", "Ann")
	b := attachJoined(t, reg, "c2", "b1", "Bob")
	anon := &fakeConn{}
	reg.Attach("c3", anon)

	bc := NewBroadcaster(reg, nil, nil)
	n := bc.BroadcastAll(protocol.NewPeerJoined(core.PeerInfo{PeerID: "a1", Nick: "Ann"}), "c1")
	if n != 1 {
		t.Fatalf("sent = %d, want 1", n)
	}
	if len(a.frames) != 0 || len(b.frames) != 1 || len(anon.frames) != 0 {
		t.Fatalf("frames a=%d b=%d anon=%d", len(a.frames), len(b.frames), len(anon.frames))
	}
}

func TestBroadcastRoomScope(t *testing.T) {
	reg := NewRegistry()
	a := attachJoined(t, reg, "c1", "a1", "Ann")
	b := attachJoined(t, reg, "c2", "b1", "Bob")
	c := attachJoined(t, reg, "c3", "c1", "Cid")

	room := domain.NewRoom("room-1", "Club", "a1")
	room.AddMember("b1")

	bc := NewBroadcaster(reg, nil, nil)
	bc.BroadcastRoom(room, protocol.NewRoomMessage(room.ID, core.PeerInfo{PeerID: "a1", Nick: "Ann"}, []byte(`"hi"`)), "c1")

	if len(a.frames) != 0 || len(c.frames) != 0 {
		t.Fatal("event leaked outside room or back to sender")
	}
	if got := b.types(t); len(got) != 1 || got[0] != "room_message" {
		t.Fatalf("member frames = %v", got)
	}
}

func TestBroadcastBackpressureDrop(t *testing.T) {
	reg := NewRegistry()
	slow := attachJoined(t, reg, "c1", "a1", "Ann")
	fast := attachJoined(t, reg, "c2", "b1", "Bob")
	slow.full = true

	bc := NewBroadcaster(reg, SimplePolicy{}, nil)
	if n := bc.BroadcastAll(protocol.NewRoomList(nil), ""); n != 1 {
		t.Fatalf("sent = %d, want 1", n)
	}
	if slow.closed {
		t.Fatal("drop policy must not close the connection")
	}
	if len(fast.frames) != 1 {
		t.Fatal("slow peer must not block others")
	}
}

func TestBroadcastBackpressureClose(t *testing.T) {
	reg := NewRegistry()
	slow := attachJoined(t, reg, "c1", "a1", "Ann")
	slow.full = true

	bc := NewBroadcaster(reg, StrictPolicy{}, nil)
	if bc.SendTo("c1", protocol.NewRoomList(nil)) {
		t.Fatal("send to full buffer reported success")
	}
	if !slow.closed {
		t.Fatal("close policy must close the slow connection")
	}
}

func TestSendToAnonymousConnection(t *testing.T) {
	reg := NewRegistry()
	conn := &fakeConn{}
	reg.Attach("c1", conn)

	ev, _ := protocol.NewError(domain.ErrPeerIDInUse)
	if !NewBroadcaster(reg, nil, nil).SendTo("c1", ev) {
		t.Fatal("unicast to attached connection failed")
	}
	if got := conn.types(t); len(got) != 1 || got[0] != "error" {
		t.Fatalf("frames = %v", got)
	}
}

func TestPolicyByName(t *testing.T) {
	if p, err := PolicyByName("close"); err != nil || p.OnBackPressure("", nil) != CloseConnection {
		t.Fatalf("close policy = %v, %v", p, err)
	}
	if p, err := PolicyByName("drop"); err != nil || p.OnBackPressure("", nil) != DropEvent {
		t.Fatalf("drop policy = %v, %v", p, err)
	}
	if _, err := PolicyByName("retry"); err == nil {
		t.Fatal("unknown policy accepted")
	}
}
