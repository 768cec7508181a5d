// Copyright 2026 The ProcQQ Authors
// SPDX-License-Identifier: Apache-2.0

package event

// TargetKind identifies where an outbound message is delivered.
type TargetKind int

const (
	TargetGroup TargetKind = iota
	TargetPrivate
	TargetTemp
)

// Target is the resolved destination of an outbound message: the chat
// context an inbound message originated from, or an explicit
// destination chosen by the caller.
type Target struct {
	Kind TargetKind

	// GroupCode is set for TargetGroup and TargetTemp.
	GroupCode int64

	// UserID is set for TargetPrivate and TargetTemp.
	UserID int64
}

// Message is the umbrella view over the three message-carrying event
// variants. Handlers registered for "any message" receive this view
// instead of switching on concrete types themselves.
type Message struct {
	inner Event
}

// AsMessage wraps a message-carrying event in the umbrella view.
// Returns false when e is not a message variant.
func AsMessage(e Event) (*Message, bool) {
	switch e.(type) {
	case *GroupMessage, *PrivateMessage, *TempMessage:
		return &Message{inner: e}, true
	}
	return nil, false
}

// Event returns the wrapped concrete event.
func (m *Message) Event() Event {
	return m.inner
}

// Chain returns the message payload.
func (m *Message) Chain() MessageChain {
	switch e := m.inner.(type) {
	case *GroupMessage:
		return e.Chain
	case *PrivateMessage:
		return e.Chain
	case *TempMessage:
		return e.Chain
	}
	return nil
}

// Content returns the normalized textual view of the payload.
func (m *Message) Content() string {
	return m.Chain().String()
}

// FromUin returns the sender.
func (m *Message) FromUin() int64 {
	switch e := m.inner.(type) {
	case *GroupMessage:
		return e.FromUin
	case *PrivateMessage:
		return e.FromUin
	case *TempMessage:
		return e.FromUin
	}
	return 0
}

// Source resolves the chat context this message originated from, which
// is the reply destination for the facade's reply-to-source operation.
func (m *Message) Source() Target {
	switch e := m.inner.(type) {
	case *GroupMessage:
		return Target{Kind: TargetGroup, GroupCode: e.GroupCode, UserID: e.FromUin}
	case *PrivateMessage:
		return Target{Kind: TargetPrivate, UserID: e.FromUin}
	case *TempMessage:
		return Target{Kind: TargetTemp, GroupCode: e.GroupCode, UserID: e.FromUin}
	}
	return Target{}
}

// SourceTarget resolves the reply destination for any event that
// carries one. Returns false for events with no originating chat
// context (recalls, membership changes).
func SourceTarget(e Event) (Target, bool) {
	if m, ok := AsMessage(e); ok {
		return m.Source(), true
	}
	switch ev := e.(type) {
	case *FriendRequest:
		return Target{Kind: TargetPrivate, UserID: ev.ReqUin}, true
	case *GroupRequest:
		return Target{Kind: TargetGroup, GroupCode: ev.GroupCode, UserID: ev.ReqUin}, true
	}
	return Target{}, false
}
