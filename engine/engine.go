// Copyright 2026 The ProcQQ Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"

	"github.com/seulG/rust-proc-qq/event"
	"github.com/seulG/rust-proc-qq/session"
)

// Engine establishes connections to the protocol engine. Dial performs
// the transport handshake only; the returned Conn is connected but not
// authenticated until one of its login operations succeeds.
type Engine interface {
	Dial(ctx context.Context, device *session.DeviceProfile) (Conn, error)
}

// Conn is one live connection to the protocol engine. The connection
// supervisor owns its lifecycle (create, replace, close); handler
// invocations only use it. Operations on a closed or replaced Conn
// return errors, never silently no-op.
//
// Implementations must be safe for concurrent use: the receive loop
// blocks in ReadEvent while handlers issue sends.
type Conn interface {
	// TokenLogin resumes a previous session from an exported
	// credential blob. A rejected (expired, invalidated) credential
	// returns an *Error with CodeTokenExpired.
	TokenLogin(ctx context.Context, token []byte) error

	// PasswordLogin authenticates with account credentials. A nil
	// Challenge with nil error means the login completed. A non-nil
	// Challenge suspends the login pending verification; resume with
	// SubmitChallenge.
	PasswordLogin(ctx context.Context, account int64, password string) (*Challenge, error)

	// SubmitChallenge answers the pending verification step. The
	// engine may respond with a further challenge (nil, nil means
	// authenticated). A rejected response returns an *Error with
	// CodeChallengeRejected.
	SubmitChallenge(ctx context.Context, response ChallengeResponse) (*Challenge, error)

	// FetchQRCode requests a login QR code artifact from the engine.
	FetchQRCode(ctx context.Context) (*QRCode, error)

	// PollQRCode reports the scan/confirmation state of a previously
	// fetched code. On QRConfirmed the connection is authenticated.
	PollQRCode(ctx context.Context, signature []byte) (QRState, error)

	// ReadEvent blocks until the next decoded protocol event arrives,
	// the context is cancelled, or the connection is lost.
	ReadEvent(ctx context.Context) (event.Event, error)

	// SendGroupMessage sends a message chain to a group.
	SendGroupMessage(ctx context.Context, groupCode int64, chain event.MessageChain) (*Receipt, error)

	// SendPrivateMessage sends a message chain to a friend.
	SendPrivateMessage(ctx context.Context, userID int64, chain event.MessageChain) (*Receipt, error)

	// SendTempMessage sends a message chain to a non-friend through a
	// shared relay group.
	SendTempMessage(ctx context.Context, groupCode, userID int64, chain event.MessageChain) (*Receipt, error)

	// ExportSession returns the opaque reusable session credential for
	// the authenticated connection. The runtime persists it verbatim.
	ExportSession(ctx context.Context) ([]byte, error)

	// Close terminates the connection. Idempotent. Blocked ReadEvent
	// and in-flight calls fail with ErrClosed.
	Close() error
}

// ChallengeKind identifies the verification step the engine requires
// during a password login.
type ChallengeKind string

const (
	// ChallengeCaptcha is an image code the user must transcribe.
	ChallengeCaptcha ChallengeKind = "captcha"
	// ChallengeSlider is an interactive slider served at a URL; the
	// response carries the resulting ticket.
	ChallengeSlider ChallengeKind = "slider"
	// ChallengeSMS is a device verification code sent to the bound
	// phone number.
	ChallengeSMS ChallengeKind = "sms"
)

// Challenge is an out-of-band verification step requested by the
// engine during login. Exactly the fields for its Kind are populated.
type Challenge struct {
	Kind ChallengeKind `json:"kind"`

	// ImagePNG is the captcha image for ChallengeCaptcha.
	ImagePNG []byte `json:"image_png,omitempty"`

	// SliderURL is the verification page for ChallengeSlider.
	SliderURL string `json:"slider_url,omitempty"`

	// Phone is the masked phone number for ChallengeSMS.
	Phone string `json:"phone,omitempty"`
}

// ChallengeResponse is the caller-supplied answer to a Challenge.
type ChallengeResponse struct {
	Kind ChallengeKind `json:"kind"`

	// Code answers ChallengeCaptcha and ChallengeSMS.
	Code string `json:"code,omitempty"`

	// Ticket answers ChallengeSlider.
	Ticket string `json:"ticket,omitempty"`
}

// QRCode is a login code artifact. The image is shown to the user; the
// signature identifies the code in PollQRCode calls.
type QRCode struct {
	ImagePNG  []byte `json:"image_png"`
	Signature []byte `json:"signature"`
}

// QRState is the engine-reported scan state of a QR code.
type QRState string

const (
	// QRWaiting means the code has not been scanned yet.
	QRWaiting QRState = "waiting"
	// QRScanned means the code was scanned but not yet confirmed on
	// the device.
	QRScanned QRState = "scanned"
	// QRConfirmed means login completed; the connection is
	// authenticated.
	QRConfirmed QRState = "confirmed"
	// QRCanceled means the user explicitly rejected the login.
	QRCanceled QRState = "canceled"
	// QRTimeout means the code expired before confirmation.
	QRTimeout QRState = "timeout"
)

// Receipt acknowledges an accepted outbound message.
type Receipt struct {
	MessageID int64 `json:"message_id"`
	Time      int64 `json:"time"`
}
