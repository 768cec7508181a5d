// Copyright 2026 The ProcQQ Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/seulG/rust-proc-qq/engine/enginetest"
	"github.com/seulG/rust-proc-qq/event"
	"github.com/seulG/rust-proc-qq/session"
)

func dialFake(t *testing.T, fake *enginetest.Fake) *enginetest.Conn {
	t.Helper()
	conn, err := fake.Dial(context.Background(), session.GenerateDevice())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn.(*enginetest.Conn)
}

func groupHello() *event.GroupMessage {
	return &event.GroupMessage{
		GroupCode: 12345,
		FromUin:   10001,
		Chain:     event.Plain("你好"),
	}
}

func TestInterceptStopsChain(t *testing.T) {
	conn := dialFake(t, &enginetest.Fake{})

	var afterIntercept []string
	greeter := NewModule("greeter", "Greeter",
		OnMessage("hello", func(ctx context.Context, f *Facade, m *event.Message) (Action, error) {
			if m.Content() != "你好" {
				return PassThrough, nil
			}
			if _, err := f.ReplyText(ctx, "你好！"); err != nil {
				return PassThrough, err
			}
			return Intercept, nil
		}),
	)
	logger := NewModule("logger", "Logger",
		OnAny("record", func(_ context.Context, _ *Facade, e event.Event) (Action, error) {
			afterIntercept = append(afterIntercept, e.EventType().String())
			return PassThrough, nil
		}),
	)

	registry, err := NewRegistry(greeter, logger)
	if err != nil {
		t.Fatal(err)
	}
	dispatcher := NewDispatcher(registry, nil)

	result := dispatcher.Dispatch(context.Background(), conn, groupHello())
	if !result.Handled || result.ModuleID != "greeter" || result.HandlerName != "hello" {
		t.Fatalf("result = %+v, want interception by greeter/hello", result)
	}
	if len(afterIntercept) != 0 {
		t.Errorf("downstream handler ran after interception: %v", afterIntercept)
	}

	sent := conn.Messages()
	if len(sent) != 1 || sent[0].Kind != event.TargetGroup || sent[0].GroupCode != 12345 {
		t.Fatalf("reply = %+v, want one group message to 12345", sent)
	}
	if sent[0].Chain.String() != "你好！" {
		t.Errorf("reply text = %q", sent[0].Chain.String())
	}

	// A non-greeting passes the first handler and reaches the logger.
	other := &event.GroupMessage{GroupCode: 12345, FromUin: 10001, Chain: event.Plain("other")}
	result = dispatcher.Dispatch(context.Background(), conn, other)
	if result.Handled {
		t.Errorf("result = %+v, want pass-through", result)
	}
	if len(afterIntercept) != 1 {
		t.Errorf("logger invocations = %d, want 1", len(afterIntercept))
	}
}

func TestRegistrationOrder(t *testing.T) {
	conn := dialFake(t, &enginetest.Fake{})

	var order []string
	record := func(name string) Handler {
		return OnAny(name, func(context.Context, *Facade, event.Event) (Action, error) {
			order = append(order, name)
			return PassThrough, nil
		})
	}

	registry, err := NewRegistry(
		NewModule("a", "A", record("a1"), record("a2")),
		NewModule("b", "B", record("b1")),
	)
	if err != nil {
		t.Fatal(err)
	}

	result := NewDispatcher(registry, nil).Dispatch(context.Background(), conn, groupHello())
	if result.Invoked != 3 {
		t.Errorf("invoked = %d, want 3", result.Invoked)
	}
	want := []string{"a1", "a2", "b1"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestHandlerErrorContinuesChain(t *testing.T) {
	conn := dialFake(t, &enginetest.Fake{})

	var reached bool
	registry, err := NewRegistry(
		NewModule("broken", "Broken",
			OnAny("explode", func(context.Context, *Facade, event.Event) (Action, error) {
				return PassThrough, errors.New("handler blew up")
			}),
		),
		NewModule("sound", "Sound",
			OnAny("observe", func(context.Context, *Facade, event.Event) (Action, error) {
				reached = true
				return Intercept, nil
			}),
		),
	)
	if err != nil {
		t.Fatal(err)
	}

	result := NewDispatcher(registry, nil).Dispatch(context.Background(), conn, groupHello())
	if !reached {
		t.Error("chain stopped at the failing handler")
	}
	if !result.Handled || result.ModuleID != "sound" {
		t.Errorf("result = %+v, want interception by sound", result)
	}
}

func TestTypeFiltering(t *testing.T) {
	conn := dialFake(t, &enginetest.Fake{})

	var friendRequests, anything int
	registry, err := NewRegistry(
		NewModule("m", "M",
			OnFriendRequest("fr", func(context.Context, *Facade, *event.FriendRequest) (Action, error) {
				friendRequests++
				return PassThrough, nil
			}),
			OnAny("any", func(context.Context, *Facade, event.Event) (Action, error) {
				anything++
				return PassThrough, nil
			}),
		),
	)
	if err != nil {
		t.Fatal(err)
	}
	dispatcher := NewDispatcher(registry, nil)

	dispatcher.Dispatch(context.Background(), conn, groupHello())
	dispatcher.Dispatch(context.Background(), conn, &event.FriendRequest{ReqUin: 777})

	if friendRequests != 1 {
		t.Errorf("friend request handler invocations = %d, want 1", friendRequests)
	}
	if anything != 2 {
		t.Errorf("catch-all invocations = %d, want 2", anything)
	}
}

func TestOnMessageCoversAllVariants(t *testing.T) {
	conn := dialFake(t, &enginetest.Fake{})

	var senders []int64
	registry, err := NewRegistry(
		NewModule("m", "M",
			OnMessage("collect", func(_ context.Context, _ *Facade, m *event.Message) (Action, error) {
				senders = append(senders, m.FromUin())
				return PassThrough, nil
			}),
		),
	)
	if err != nil {
		t.Fatal(err)
	}
	dispatcher := NewDispatcher(registry, nil)

	dispatcher.Dispatch(context.Background(), conn, &event.GroupMessage{GroupCode: 1, FromUin: 11, Chain: event.Plain("g")})
	dispatcher.Dispatch(context.Background(), conn, &event.PrivateMessage{FromUin: 22, Chain: event.Plain("p")})
	dispatcher.Dispatch(context.Background(), conn, &event.TempMessage{GroupCode: 1, FromUin: 33, Chain: event.Plain("t")})
	dispatcher.Dispatch(context.Background(), conn, &event.FriendPoke{Sender: 44})

	if len(senders) != 3 || senders[0] != 11 || senders[1] != 22 || senders[2] != 33 {
		t.Errorf("senders = %v, want [11 22 33]", senders)
	}
}

func TestRegistryRejectsDuplicateIDs(t *testing.T) {
	_, err := NewRegistry(
		NewModule("dup", "First"),
		NewModule("dup", "Second"),
	)
	if err == nil {
		t.Error("duplicate module ID accepted")
	}
}

func TestRegistryRejectsEmptyID(t *testing.T) {
	if _, err := NewRegistry(NewModule("", "Anonymous")); err == nil {
		t.Error("empty module ID accepted")
	}
}

func TestFacadeReplyTargets(t *testing.T) {
	tests := []struct {
		name string
		e    event.Event
		want enginetest.Sent
	}{
		{
			name: "group",
			e:    &event.GroupMessage{GroupCode: 100, FromUin: 1},
			want: enginetest.Sent{Kind: event.TargetGroup, GroupCode: 100},
		},
		{
			name: "private",
			e:    &event.PrivateMessage{FromUin: 2},
			want: enginetest.Sent{Kind: event.TargetPrivate, UserID: 2},
		},
		{
			name: "temp",
			e:    &event.TempMessage{GroupCode: 100, FromUin: 3},
			want: enginetest.Sent{Kind: event.TargetTemp, GroupCode: 100, UserID: 3},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			conn := dialFake(t, &enginetest.Fake{})
			facade := NewFacade(conn, tc.e)
			if _, err := facade.ReplyText(context.Background(), "ok"); err != nil {
				t.Fatalf("reply failed: %v", err)
			}
			sent := conn.Messages()
			if len(sent) != 1 {
				t.Fatalf("sent %d messages, want 1", len(sent))
			}
			got := sent[0]
			if got.Kind != tc.want.Kind || got.GroupCode != tc.want.GroupCode || got.UserID != tc.want.UserID {
				t.Errorf("sent = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestFacadeReplyWithoutSource(t *testing.T) {
	conn := dialFake(t, &enginetest.Fake{})
	facade := NewFacade(conn, &event.GroupMessageRecall{GroupCode: 1, Seq: 7})
	if _, err := facade.ReplyText(context.Background(), "ok"); !errors.Is(err, ErrNoSource) {
		t.Errorf("error = %v, want ErrNoSource", err)
	}
}
