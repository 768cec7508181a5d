// Copyright 2026 The ProcQQ Authors
// SPDX-License-Identifier: Apache-2.0

package event

// Type identifies the concrete variant of an Event. Handlers declare
// the types they accept; the dispatcher only invokes a handler when
// the event's type is in that set.
type Type int

const (
	TypeGroupMessage Type = iota
	TypePrivateMessage
	TypeTempMessage
	TypeGroupRequest
	TypeFriendRequest
	TypeNewFriend
	TypeFriendPoke
	TypeDeleteFriend
	TypeGroupMute
	TypeGroupLeave
	TypeGroupNameUpdate
	TypeGroupMessageRecall
	TypeFriendMessageRecall
)

var typeNames = map[Type]string{
	TypeGroupMessage:        "group_message",
	TypePrivateMessage:      "private_message",
	TypeTempMessage:         "temp_message",
	TypeGroupRequest:        "group_request",
	TypeFriendRequest:       "friend_request",
	TypeNewFriend:           "new_friend",
	TypeFriendPoke:          "friend_poke",
	TypeDeleteFriend:        "delete_friend",
	TypeGroupMute:           "group_mute",
	TypeGroupLeave:          "group_leave",
	TypeGroupNameUpdate:     "group_name_update",
	TypeGroupMessageRecall:  "group_message_recall",
	TypeFriendMessageRecall: "friend_message_recall",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "unknown"
}

// Event is a decoded protocol occurrence. Implementations are plain
// immutable structs; EventType returns the concrete variant tag used
// for dispatch matching.
type Event interface {
	EventType() Type
}

// GroupMessage is a message posted in a group the account is a member of.
type GroupMessage struct {
	GroupCode int64        `json:"group_code"`
	GroupName string       `json:"group_name,omitempty"`
	FromUin   int64        `json:"from_uin"`
	FromNick  string       `json:"from_nick,omitempty"`
	Seq       int32        `json:"seq"`
	Time      int64        `json:"time"`
	Chain     MessageChain `json:"chain"`
}

func (*GroupMessage) EventType() Type { return TypeGroupMessage }

// PrivateMessage is a direct message from a friend.
type PrivateMessage struct {
	FromUin  int64        `json:"from_uin"`
	FromNick string       `json:"from_nick,omitempty"`
	Seq      int32        `json:"seq"`
	Time     int64        `json:"time"`
	Chain    MessageChain `json:"chain"`
}

func (*PrivateMessage) EventType() Type { return TypePrivateMessage }

// TempMessage is a session message from a non-friend, routed through a
// shared group. GroupCode is zero when the relay group is unknown.
type TempMessage struct {
	GroupCode int64        `json:"group_code,omitempty"`
	FromUin   int64        `json:"from_uin"`
	FromNick  string       `json:"from_nick,omitempty"`
	Chain     MessageChain `json:"chain"`
}

func (*TempMessage) EventType() Type { return TypeTempMessage }

// GroupRequest is a request to join a group the account administers,
// or an invitation for the account to join a group.
type GroupRequest struct {
	GroupCode int64  `json:"group_code"`
	GroupName string `json:"group_name,omitempty"`
	ReqUin    int64  `json:"req_uin"`
	Message   string `json:"message,omitempty"`
}

func (*GroupRequest) EventType() Type { return TypeGroupRequest }

// FriendRequest is an incoming friend request.
type FriendRequest struct {
	ReqUin  int64  `json:"req_uin"`
	ReqNick string `json:"req_nick,omitempty"`
	Message string `json:"message,omitempty"`
}

func (*FriendRequest) EventType() Type { return TypeFriendRequest }

// NewFriend fires after a friend request is accepted on either side.
type NewFriend struct {
	Uin  int64  `json:"uin"`
	Nick string `json:"nick,omitempty"`
}

func (*NewFriend) EventType() Type { return TypeNewFriend }

// FriendPoke is a nudge from a friend.
type FriendPoke struct {
	Sender   int64 `json:"sender"`
	Receiver int64 `json:"receiver"`
}

func (*FriendPoke) EventType() Type { return TypeFriendPoke }

// DeleteFriend fires when a friend relationship is removed.
type DeleteFriend struct {
	Uin int64 `json:"uin"`
}

func (*DeleteFriend) EventType() Type { return TypeDeleteFriend }

// GroupMute reports a member being muted or unmuted. A zero Duration
// means the mute was lifted.
type GroupMute struct {
	GroupCode   int64 `json:"group_code"`
	OperatorUin int64 `json:"operator_uin"`
	TargetUin   int64 `json:"target_uin"`
	Seconds     int32 `json:"seconds"`
}

func (*GroupMute) EventType() Type { return TypeGroupMute }

// GroupLeave reports a member leaving a group. OperatorUin is non-zero
// when the member was removed rather than leaving voluntarily.
type GroupLeave struct {
	GroupCode   int64 `json:"group_code"`
	MemberUin   int64 `json:"member_uin"`
	OperatorUin int64 `json:"operator_uin,omitempty"`
}

func (*GroupLeave) EventType() Type { return TypeGroupLeave }

// GroupNameUpdate reports a group name change.
type GroupNameUpdate struct {
	GroupCode   int64  `json:"group_code"`
	OperatorUin int64  `json:"operator_uin"`
	Name        string `json:"name"`
}

func (*GroupNameUpdate) EventType() Type { return TypeGroupNameUpdate }

// GroupMessageRecall reports a recalled group message.
type GroupMessageRecall struct {
	GroupCode   int64 `json:"group_code"`
	AuthorUin   int64 `json:"author_uin"`
	OperatorUin int64 `json:"operator_uin"`
	Seq         int32 `json:"seq"`
}

func (*GroupMessageRecall) EventType() Type { return TypeGroupMessageRecall }

// FriendMessageRecall reports a recalled private message.
type FriendMessageRecall struct {
	FriendUin int64 `json:"friend_uin"`
	Seq       int32 `json:"seq"`
}

func (*FriendMessageRecall) EventType() Type { return TypeFriendMessageRecall }
