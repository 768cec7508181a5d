// Copyright 2026 The ProcQQ Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"context"

	"github.com/seulG/rust-proc-qq/event"
)

// Action is a handler's verdict on the event it just processed.
type Action int

const (
	// PassThrough lets the event continue to the next matching handler.
	PassThrough Action = iota
	// Intercept consumes the event; no further handler sees it.
	Intercept
)

func (a Action) String() string {
	if a == Intercept {
		return "intercept"
	}
	return "pass_through"
}

// HandlerFunc is the untyped handler shape every typed constructor
// reduces to. The facade carries the connection the event arrived on.
type HandlerFunc func(ctx context.Context, f *Facade, e event.Event) (Action, error)

// Handler is one registered event callback with the event types it
// accepts. Construct handlers with the On* helpers; a zero Handler
// matches nothing.
type Handler struct {
	// Name identifies the handler in logs. Optional.
	Name string

	types []event.Type
	fn    HandlerFunc
}

func (h Handler) matches(t event.Type) bool {
	if h.fn == nil {
		return false
	}
	if len(h.types) == 0 {
		return true
	}
	for _, want := range h.types {
		if want == t {
			return true
		}
	}
	return false
}

// Module is a named, ordered bundle of handlers. ID must be unique
// across the registry; Name is for humans and logs.
type Module struct {
	ID       string
	Name     string
	Handlers []Handler
}

// NewModule bundles handlers under an identity.
func NewModule(id, name string, handlers ...Handler) Module {
	return Module{ID: id, Name: name, Handlers: handlers}
}

// OnAny registers for every event type.
func OnAny(name string, fn HandlerFunc) Handler {
	return Handler{Name: name, fn: fn}
}

// OnMessage registers for all three message variants, presented
// through the umbrella message view.
func OnMessage(name string, fn func(ctx context.Context, f *Facade, m *event.Message) (Action, error)) Handler {
	return Handler{
		Name:  name,
		types: []event.Type{event.TypeGroupMessage, event.TypePrivateMessage, event.TypeTempMessage},
		fn: func(ctx context.Context, f *Facade, e event.Event) (Action, error) {
			m, ok := event.AsMessage(e)
			if !ok {
				return PassThrough, nil
			}
			return fn(ctx, f, m)
		},
	}
}

func typed[E event.Event](name string, t event.Type, fn func(ctx context.Context, f *Facade, e E) (Action, error)) Handler {
	return Handler{
		Name:  name,
		types: []event.Type{t},
		fn: func(ctx context.Context, f *Facade, e event.Event) (Action, error) {
			concrete, ok := e.(E)
			if !ok {
				return PassThrough, nil
			}
			return fn(ctx, f, concrete)
		},
	}
}

// OnGroupMessage registers for group messages.
func OnGroupMessage(name string, fn func(ctx context.Context, f *Facade, e *event.GroupMessage) (Action, error)) Handler {
	return typed(name, event.TypeGroupMessage, fn)
}

// OnPrivateMessage registers for direct messages from friends.
func OnPrivateMessage(name string, fn func(ctx context.Context, f *Facade, e *event.PrivateMessage) (Action, error)) Handler {
	return typed(name, event.TypePrivateMessage, fn)
}

// OnTempMessage registers for temp session messages.
func OnTempMessage(name string, fn func(ctx context.Context, f *Facade, e *event.TempMessage) (Action, error)) Handler {
	return typed(name, event.TypeTempMessage, fn)
}

// OnGroupRequest registers for group join requests and invitations.
func OnGroupRequest(name string, fn func(ctx context.Context, f *Facade, e *event.GroupRequest) (Action, error)) Handler {
	return typed(name, event.TypeGroupRequest, fn)
}

// OnFriendRequest registers for incoming friend requests.
func OnFriendRequest(name string, fn func(ctx context.Context, f *Facade, e *event.FriendRequest) (Action, error)) Handler {
	return typed(name, event.TypeFriendRequest, fn)
}

// OnNewFriend registers for accepted friend relationships.
func OnNewFriend(name string, fn func(ctx context.Context, f *Facade, e *event.NewFriend) (Action, error)) Handler {
	return typed(name, event.TypeNewFriend, fn)
}

// OnFriendPoke registers for friend nudges.
func OnFriendPoke(name string, fn func(ctx context.Context, f *Facade, e *event.FriendPoke) (Action, error)) Handler {
	return typed(name, event.TypeFriendPoke, fn)
}

// OnDeleteFriend registers for removed friend relationships.
func OnDeleteFriend(name string, fn func(ctx context.Context, f *Facade, e *event.DeleteFriend) (Action, error)) Handler {
	return typed(name, event.TypeDeleteFriend, fn)
}

// OnGroupMute registers for mute and unmute notices.
func OnGroupMute(name string, fn func(ctx context.Context, f *Facade, e *event.GroupMute) (Action, error)) Handler {
	return typed(name, event.TypeGroupMute, fn)
}

// OnGroupLeave registers for members leaving or being removed.
func OnGroupLeave(name string, fn func(ctx context.Context, f *Facade, e *event.GroupLeave) (Action, error)) Handler {
	return typed(name, event.TypeGroupLeave, fn)
}

// OnGroupNameUpdate registers for group renames.
func OnGroupNameUpdate(name string, fn func(ctx context.Context, f *Facade, e *event.GroupNameUpdate) (Action, error)) Handler {
	return typed(name, event.TypeGroupNameUpdate, fn)
}

// OnGroupMessageRecall registers for recalled group messages.
func OnGroupMessageRecall(name string, fn func(ctx context.Context, f *Facade, e *event.GroupMessageRecall) (Action, error)) Handler {
	return typed(name, event.TypeGroupMessageRecall, fn)
}

// OnFriendMessageRecall registers for recalled private messages.
func OnFriendMessageRecall(name string, fn func(ctx context.Context, f *Facade, e *event.FriendMessageRecall) (Action, error)) Handler {
	return typed(name, event.TypeFriendMessageRecall, fn)
}
