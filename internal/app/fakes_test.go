package app

import (
	"testing"

	"github.com/goccy/go-json"

	"github.com/dkeye/Relay/internal/core"
)

type fakeConn struct {
	frames []core.Frame
	full   bool
	closed bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	if c.closed {
		return core.ErrConnClosed
	}
	if c.full {
		return core.ErrBackpressure
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() { c.closed = true }

func (c *fakeConn) types(t *testing.T) []string {
	t.Helper()
	out := make([]string, 0, len(c.frames))
	for _, f := range c.frames {
		var env struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(f, &env); err != nil {
			t.Fatalf("decode frame %s: %v", f, err)
		}
		out = append(out, env.Type)
	}
	return out
}

func attachJoined(t *testing.T, reg *Registry, cid core.ConnID, peerID, nick string) *fakeConn {
	t.Helper()
	conn := &fakeConn{}
	reg.Attach(cid, conn)
	if _, err := reg.Join(cid, peerID, nick); err != nil {
		t.Fatalf("join %s: %v", cid, err)
	}
	return conn
}
