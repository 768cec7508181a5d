// Copyright 2026 The ProcQQ Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"encoding/json"
	"fmt"

	"github.com/seulG/rust-proc-qq/engine"
	"github.com/seulG/rust-proc-qq/event"
)

// Frame ops. Requests carry id; responses echo it in reply_to. Event
// frames have no correlation and carry kind + data instead.
const (
	opHello           = "hello"
	opTokenLogin      = "token_login"
	opPasswordLogin   = "password_login"
	opSubmitChallenge = "submit_challenge"
	opFetchQR         = "fetch_qr"
	opPollQR          = "poll_qr"
	opSendGroup       = "send_group"
	opSendPrivate     = "send_private"
	opSendTemp        = "send_temp"
	opExportSession   = "export_session"
	opResult          = "result"
	opEvent           = "event"
)

type frame struct {
	Op      string          `json:"op"`
	ID      uint64          `json:"id,omitempty"`
	ReplyTo uint64          `json:"reply_to,omitempty"`
	Kind    string          `json:"kind,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *wireError      `json:"error,omitempty"`
}

// wireError is the engine's structured failure. Code values match the
// engine.Code* constants.
type wireError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (w *wireError) toError() error {
	code := w.Code
	if code == "" {
		code = engine.CodeUnknown
	}
	return &engine.Error{Code: code, Message: w.Message}
}

type tokenLoginRequest struct {
	Token []byte `json:"token"`
}

type passwordLoginRequest struct {
	Account  int64  `json:"account"`
	Password string `json:"password"`
}

// loginResult is the engine's answer to any login-path request: either
// a pending challenge or completion.
type loginResult struct {
	Challenge *engine.Challenge `json:"challenge,omitempty"`
}

type pollQRRequest struct {
	Signature []byte `json:"signature"`
}

type pollQRResult struct {
	State engine.QRState `json:"state"`
}

type sendRequest struct {
	GroupCode int64              `json:"group_code,omitempty"`
	UserID    int64              `json:"user_id,omitempty"`
	Chain     event.MessageChain `json:"chain"`
}

type exportSessionResult struct {
	Session []byte `json:"session"`
}

// decodeEvent maps an event frame's kind tag to the concrete variant.
// Kind tags are the event type names.
func decodeEvent(kind string, data json.RawMessage) (event.Event, error) {
	var e event.Event
	switch kind {
	case event.TypeGroupMessage.String():
		e = &event.GroupMessage{}
	case event.TypePrivateMessage.String():
		e = &event.PrivateMessage{}
	case event.TypeTempMessage.String():
		e = &event.TempMessage{}
	case event.TypeGroupRequest.String():
		e = &event.GroupRequest{}
	case event.TypeFriendRequest.String():
		e = &event.FriendRequest{}
	case event.TypeNewFriend.String():
		e = &event.NewFriend{}
	case event.TypeFriendPoke.String():
		e = &event.FriendPoke{}
	case event.TypeDeleteFriend.String():
		e = &event.DeleteFriend{}
	case event.TypeGroupMute.String():
		e = &event.GroupMute{}
	case event.TypeGroupLeave.String():
		e = &event.GroupLeave{}
	case event.TypeGroupNameUpdate.String():
		e = &event.GroupNameUpdate{}
	case event.TypeGroupMessageRecall.String():
		e = &event.GroupMessageRecall{}
	case event.TypeFriendMessageRecall.String():
		e = &event.FriendMessageRecall{}
	default:
		return nil, fmt.Errorf("remote: unknown event kind %q", kind)
	}
	if err := json.Unmarshal(data, e); err != nil {
		return nil, fmt.Errorf("remote: decoding %s event: %w", kind, err)
	}
	return e, nil
}
