// Copyright 2026 The ProcQQ Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"context"
	"fmt"

	"github.com/seulG/rust-proc-qq/engine"
	"github.com/seulG/rust-proc-qq/event"
)

// ErrNoSource means the event being handled has no originating chat
// context to reply into (recalls, membership changes).
var ErrNoSource = fmt.Errorf("dispatch: event has no reply source")

// Facade is the per-invocation view handlers use to act on the world.
// It binds the connection the event arrived on, so replies land on the
// same connection even while the supervisor is already replacing it.
type Facade struct {
	conn engine.Conn
	e    event.Event
}

// NewFacade binds a connection and the event being dispatched.
func NewFacade(conn engine.Conn, e event.Event) *Facade {
	return &Facade{conn: conn, e: e}
}

// Event returns the event being dispatched.
func (f *Facade) Event() event.Event { return f.e }

// Conn exposes the underlying connection for operations the facade
// does not wrap.
func (f *Facade) Conn() engine.Conn { return f.conn }

// Content returns the normalized text of the event when it carries a
// message, or the empty string.
func (f *Facade) Content() string {
	if m, ok := event.AsMessage(f.e); ok {
		return m.Content()
	}
	return ""
}

// ReplyToSource sends chain back to the chat context the event
// originated from: the group for group messages, the sender for
// private messages, the temp session for temp messages.
func (f *Facade) ReplyToSource(ctx context.Context, chain event.MessageChain) (*engine.Receipt, error) {
	target, ok := event.SourceTarget(f.e)
	if !ok {
		return nil, ErrNoSource
	}
	return f.SendTo(ctx, target, chain)
}

// ReplyText is ReplyToSource with a single text element.
func (f *Facade) ReplyText(ctx context.Context, text string) (*engine.Receipt, error) {
	return f.ReplyToSource(ctx, event.Plain(text))
}

// SendTo delivers chain to an explicit target.
func (f *Facade) SendTo(ctx context.Context, target event.Target, chain event.MessageChain) (*engine.Receipt, error) {
	switch target.Kind {
	case event.TargetGroup:
		return f.conn.SendGroupMessage(ctx, target.GroupCode, chain)
	case event.TargetPrivate:
		return f.conn.SendPrivateMessage(ctx, target.UserID, chain)
	case event.TargetTemp:
		return f.conn.SendTempMessage(ctx, target.GroupCode, target.UserID, chain)
	}
	return nil, fmt.Errorf("dispatch: unknown target kind %d", target.Kind)
}

// SendGroupMessage sends to an explicit group.
func (f *Facade) SendGroupMessage(ctx context.Context, groupCode int64, chain event.MessageChain) (*engine.Receipt, error) {
	return f.conn.SendGroupMessage(ctx, groupCode, chain)
}

// SendPrivateMessage sends to an explicit friend.
func (f *Facade) SendPrivateMessage(ctx context.Context, userID int64, chain event.MessageChain) (*engine.Receipt, error) {
	return f.conn.SendPrivateMessage(ctx, userID, chain)
}

// SendTempMessage sends to a non-friend through a relay group.
func (f *Facade) SendTempMessage(ctx context.Context, groupCode, userID int64, chain event.MessageChain) (*engine.Receipt, error) {
	return f.conn.SendTempMessage(ctx, groupCode, userID, chain)
}
