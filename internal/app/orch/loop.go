package orch

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Relay/internal/core"
)

var ErrLoopStopped = errors.New("coordinator loop stopped")

type cmdKind int

const (
	cmdConnect cmdKind = iota
	cmdFrame
	cmdDisconnect
)

type command struct {
	kind cmdKind
	cid  core.ConnID
	conn core.SignalConnection
	data []byte
}

// Loop owns the Orchestrator. Commands from every connection pass through one
// inbox, so a request and the broadcasts it causes finish before the next
// request starts.
type Loop struct {
	orch  *Orchestrator
	inbox chan command
	conns atomic.Int64
	done  chan struct{}
}

func NewLoop(o *Orchestrator, inboxSize int) *Loop {
	return &Loop{
		orch:  o,
		inbox: make(chan command, inboxSize),
		done:  make(chan struct{}),
	}
}

// Run processes commands until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	log.Info().Str("module", "orch.loop").Msg("coordinator started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "orch.loop").Msg("coordinator stopped")
			return ctx.Err()
		case cmd := <-l.inbox:
			l.apply(cmd)
		}
	}
}

func (l *Loop) apply(cmd command) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("module", "orch.loop").Str("cid", string(cmd.cid)).Interface("panic", r).Msg("command panicked")
		}
		l.conns.Store(int64(l.orch.Registry.ConnCount()))
	}()
	switch cmd.kind {
	case cmdConnect:
		l.orch.Connect(cmd.cid, cmd.conn)
	case cmdFrame:
		l.orch.Handle(cmd.cid, cmd.data)
	case cmdDisconnect:
		l.orch.Disconnect(cmd.cid)
	}
}

func (l *Loop) Connect(ctx context.Context, cid core.ConnID, conn core.SignalConnection) error {
	return l.submit(ctx, command{kind: cmdConnect, cid: cid, conn: conn})
}

func (l *Loop) Dispatch(ctx context.Context, cid core.ConnID, data []byte) error {
	return l.submit(ctx, command{kind: cmdFrame, cid: cid, data: data})
}

func (l *Loop) Disconnect(ctx context.Context, cid core.ConnID) error {
	return l.submit(ctx, command{kind: cmdDisconnect, cid: cid})
}

func (l *Loop) submit(ctx context.Context, cmd command) error {
	select {
	case <-l.done:
		return ErrLoopStopped
	default:
	}
	select {
	case l.inbox <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrLoopStopped
	}
}

// ConnectionCount is safe to call from any goroutine.
func (l *Loop) ConnectionCount() int { return int(l.conns.Load()) }

// Done is closed once Run returns.
func (l *Loop) Done() <-chan struct{} { return l.done }
