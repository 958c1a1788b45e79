package app

import (
	"errors"
	"testing"
	"time"

	"github.com/dkeye/Relay/internal/domain"
)

func TestGuardAuthorizeInvite(t *testing.T) {
	g := NewGuard(time.Minute)
	room := domain.NewRoom("room-1", "Club", "a1")
	room.AddMember("b1")

	if err := g.AuthorizeInvite(room, "c1", "d1"); !errors.Is(err, domain.ErrInviteAuthorization) {
		t.Fatalf("non-member invite error = %v", err)
	}
	if err := g.AuthorizeInvite(room, "a1", "b1"); !errors.Is(err, domain.ErrAlreadyMember) {
		t.Fatalf("member target error = %v", err)
	}
	if err := g.AuthorizeInvite(room, "b1", "d1"); err != nil {
		t.Fatalf("member invite error = %v", err)
	}
}

func TestGuardInviteIsSingleUse(t *testing.T) {
	g := NewGuard(time.Minute)
	room := domain.NewRoom("room-1", "Club", "a1")

	if err := g.AdmitJoin(room, "b1"); !errors.Is(err, domain.ErrInviteRequired) {
		t.Fatalf("uninvited join error = %v", err)
	}
	g.Issue(room, "a1", "b1")
	if g.Pending("room-1") != 1 {
		t.Fatalf("pending = %d, want 1", g.Pending("room-1"))
	}
	if err := g.AdmitJoin(room, "c1"); !errors.Is(err, domain.ErrInviteRequired) {
		t.Fatalf("invite must be directed, got %v", err)
	}
	if err := g.AdmitJoin(room, "b1"); err != nil {
		t.Fatalf("invited join error = %v", err)
	}
	if err := g.AdmitJoin(room, "b1"); !errors.Is(err, domain.ErrInviteRequired) {
		t.Fatalf("reused invite error = %v", err)
	}
}

func TestGuardCreatorAdmitted(t *testing.T) {
	g := NewGuard(time.Minute)
	room := domain.NewRoom("room-1", "Club", "a1")
	if err := g.AdmitJoin(room, "a1"); err != nil {
		t.Fatalf("creator join error = %v", err)
	}
	room.Creator = ""
	if err := g.AdmitJoin(room, ""); err == nil {
		t.Fatal("cleared creator must not admit anyone")
	}
}

func TestGuardInviteExpires(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	g := NewGuard(10 * time.Minute)
	g.now = func() time.Time { return now }
	room := domain.NewRoom("room-1", "Club", "a1")

	g.Issue(room, "a1", "b1")
	now = now.Add(11 * time.Minute)
	if g.Pending("room-1") != 0 {
		t.Fatal("expired invite counted as pending")
	}
	if err := g.AdmitJoin(room, "b1"); !errors.Is(err, domain.ErrInviteRequired) {
		t.Fatalf("expired invite error = %v", err)
	}
}

func TestGuardForget(t *testing.T) {
	g := NewGuard(0)
	r1 := domain.NewRoom("room-1", "One", "a1")
	r2 := domain.NewRoom("room-2", "Two", "a1")
	g.Issue(r1, "a1", "b1")
	g.Issue(r1, "a1", "c1")
	g.Issue(r2, "a1", "b1")

	g.ForgetPeer("b1")
	if g.Pending("room-1") != 1 || g.Pending("room-2") != 0 {
		t.Fatalf("pending after ForgetPeer = %d/%d", g.Pending("room-1"), g.Pending("room-2"))
	}
	g.ForgetRoom("room-1")
	if err := g.AdmitJoin(r1, "c1"); !errors.Is(err, domain.ErrInviteRequired) {
		t.Fatalf("invite survived ForgetRoom: %v", err)
	}
}
