// Copyright 2026 The ProcQQ Authors
// SPDX-License-Identifier: Apache-2.0

package enginetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/seulG/rust-proc-qq/engine"
	"github.com/seulG/rust-proc-qq/event"
	"github.com/seulG/rust-proc-qq/session"
)

// Fake is a scripted engine.Engine. The zero value dials successfully
// and accepts every login. Hooks override individual operations; a nil
// hook keeps the permissive default.
type Fake struct {
	// DialHook is consulted per dial attempt (1-based). A non-nil
	// error fails the dial.
	DialHook func(attempt int) error

	// TokenHook validates a token login. Nil accepts any token.
	TokenHook func(token []byte) error

	// PasswordHook handles a password login. Nil succeeds immediately.
	PasswordHook func(account int64, password string) (*engine.Challenge, error)

	// ChallengeHook handles a challenge response. Nil accepts it.
	ChallengeHook func(response engine.ChallengeResponse) (*engine.Challenge, error)

	// QRPollHook reports QR scan state per poll attempt (1-based).
	// Nil confirms on the first poll.
	QRPollHook func(attempt int) (engine.QRState, error)

	// Session is the blob returned by ExportSession. Empty defaults
	// to a fixed marker value.
	Session []byte

	mu    sync.Mutex
	dials int
	conns []*Conn
}

// Dial implements engine.Engine.
func (f *Fake) Dial(ctx context.Context, device *session.DeviceProfile) (engine.Conn, error) {
	f.mu.Lock()
	f.dials++
	attempt := f.dials
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.DialHook != nil {
		if err := f.DialHook(attempt); err != nil {
			return nil, err
		}
	}

	conn := &Conn{
		fake:   f,
		device: device,
		events: make(chan event.Event, 64),
		closed: make(chan struct{}),
		lost:   make(chan error, 1),
	}
	f.mu.Lock()
	f.conns = append(f.conns, conn)
	f.mu.Unlock()
	return conn, nil
}

// Dials returns the number of dial attempts so far.
func (f *Fake) Dials() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dials
}

// Conns returns every connection created so far, oldest first.
func (f *Fake) Conns() []*Conn {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Conn(nil), f.conns...)
}

// LastConn returns the most recently dialed connection, or nil.
func (f *Fake) LastConn() *Conn {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.conns) == 0 {
		return nil
	}
	return f.conns[len(f.conns)-1]
}

func (f *Fake) sessionBlob() []byte {
	if len(f.Session) > 0 {
		return append([]byte(nil), f.Session...)
	}
	return []byte("enginetest-session")
}

// Sent records one outbound message accepted by a Conn.
type Sent struct {
	Kind      event.TargetKind
	GroupCode int64
	UserID    int64
	Chain     event.MessageChain
}

// Conn is a scripted engine.Conn.
type Conn struct {
	fake   *Fake
	device *session.DeviceProfile

	events chan event.Event
	closed chan struct{}
	lost   chan error

	closeOnce sync.Once

	mu             sync.Mutex
	authenticated  bool
	tokenLogins    [][]byte
	passwordLogins int
	qrPolls        int
	challenges     []engine.ChallengeResponse
	sent           []Sent
	receipts       int64
}

// Deliver queues an inbound event for ReadEvent. Panics when the
// buffer (64 events) overflows — tests should consume what they inject.
func (c *Conn) Deliver(e event.Event) {
	select {
	case c.events <- e:
	default:
		panic("enginetest: event buffer full")
	}
}

// Drop simulates connection loss: the next ReadEvent returns err.
func (c *Conn) Drop(err error) {
	select {
	case c.lost <- err:
	default:
	}
}

// Authenticated reports whether any login operation has succeeded.
func (c *Conn) Authenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authenticated
}

// TokenLogins returns the tokens presented to TokenLogin, in order.
func (c *Conn) TokenLogins() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.tokenLogins...)
}

// PasswordLogins returns the number of PasswordLogin calls.
func (c *Conn) PasswordLogins() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.passwordLogins
}

// ChallengeResponses returns the responses presented to SubmitChallenge.
func (c *Conn) ChallengeResponses() []engine.ChallengeResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]engine.ChallengeResponse(nil), c.challenges...)
}

// Messages returns every message accepted by the connection, in order.
func (c *Conn) Messages() []Sent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Sent(nil), c.sent...)
}

// Closed reports whether Close has been called.
func (c *Conn) Closed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *Conn) checkOpen() error {
	select {
	case <-c.closed:
		return engine.ErrClosed
	default:
		return nil
	}
}

// TokenLogin implements engine.Conn.
func (c *Conn) TokenLogin(ctx context.Context, token []byte) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	c.mu.Lock()
	c.tokenLogins = append(c.tokenLogins, append([]byte(nil), token...))
	c.mu.Unlock()

	if c.fake.TokenHook != nil {
		if err := c.fake.TokenHook(token); err != nil {
			return err
		}
	}
	c.setAuthenticated()
	return nil
}

// PasswordLogin implements engine.Conn.
func (c *Conn) PasswordLogin(ctx context.Context, account int64, password string) (*engine.Challenge, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.passwordLogins++
	c.mu.Unlock()

	if c.fake.PasswordHook != nil {
		challenge, err := c.fake.PasswordHook(account, password)
		if err != nil || challenge != nil {
			return challenge, err
		}
	}
	c.setAuthenticated()
	return nil, nil
}

// SubmitChallenge implements engine.Conn.
func (c *Conn) SubmitChallenge(ctx context.Context, response engine.ChallengeResponse) (*engine.Challenge, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.challenges = append(c.challenges, response)
	c.mu.Unlock()

	if c.fake.ChallengeHook != nil {
		challenge, err := c.fake.ChallengeHook(response)
		if err != nil || challenge != nil {
			return challenge, err
		}
	}
	c.setAuthenticated()
	return nil, nil
}

// FetchQRCode implements engine.Conn.
func (c *Conn) FetchQRCode(ctx context.Context) (*engine.QRCode, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	return &engine.QRCode{
		ImagePNG:  []byte("fake-qr-image"),
		Signature: []byte("fake-qr-signature"),
	}, nil
}

// PollQRCode implements engine.Conn.
func (c *Conn) PollQRCode(ctx context.Context, signature []byte) (engine.QRState, error) {
	if err := c.checkOpen(); err != nil {
		return "", err
	}
	c.mu.Lock()
	c.qrPolls++
	attempt := c.qrPolls
	c.mu.Unlock()

	state := engine.QRConfirmed
	if c.fake.QRPollHook != nil {
		var err error
		state, err = c.fake.QRPollHook(attempt)
		if err != nil {
			return "", err
		}
	}
	if state == engine.QRConfirmed {
		c.setAuthenticated()
	}
	return state, nil
}

// ReadEvent implements engine.Conn.
func (c *Conn) ReadEvent(ctx context.Context) (event.Event, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.closed:
		return nil, engine.ErrClosed
	case err := <-c.lost:
		return nil, err
	case e := <-c.events:
		return e, nil
	}
}

// SendGroupMessage implements engine.Conn.
func (c *Conn) SendGroupMessage(ctx context.Context, groupCode int64, chain event.MessageChain) (*engine.Receipt, error) {
	return c.record(Sent{Kind: event.TargetGroup, GroupCode: groupCode, Chain: chain})
}

// SendPrivateMessage implements engine.Conn.
func (c *Conn) SendPrivateMessage(ctx context.Context, userID int64, chain event.MessageChain) (*engine.Receipt, error) {
	return c.record(Sent{Kind: event.TargetPrivate, UserID: userID, Chain: chain})
}

// SendTempMessage implements engine.Conn.
func (c *Conn) SendTempMessage(ctx context.Context, groupCode, userID int64, chain event.MessageChain) (*engine.Receipt, error) {
	return c.record(Sent{Kind: event.TargetTemp, GroupCode: groupCode, UserID: userID, Chain: chain})
}

func (c *Conn) record(s Sent) (*engine.Receipt, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, s)
	c.receipts++
	return &engine.Receipt{MessageID: c.receipts}, nil
}

// ExportSession implements engine.Conn.
func (c *Conn) ExportSession(ctx context.Context) ([]byte, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	authenticated := c.authenticated
	c.mu.Unlock()
	if !authenticated {
		return nil, &engine.Error{Code: engine.CodeNotAuthenticated, Message: "export before login"}
	}
	return c.fake.sessionBlob(), nil
}

// Close implements engine.Conn.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *Conn) setAuthenticated() {
	c.mu.Lock()
	c.authenticated = true
	c.mu.Unlock()
}

var _ engine.Engine = (*Fake)(nil)
var _ engine.Conn = (*Conn)(nil)

// RejectTokens returns a TokenHook that rejects every token with
// CodeTokenExpired — the engine's response to an expired credential.
func RejectTokens() func([]byte) error {
	return func([]byte) error {
		return &engine.Error{Code: engine.CodeTokenExpired, Message: "token expired"}
	}
}

// FailDials returns a DialHook that fails the first n dial attempts.
func FailDials(n int) func(int) error {
	return func(attempt int) error {
		if attempt <= n {
			return fmt.Errorf("enginetest: dial attempt %d refused", attempt)
		}
		return nil
	}
}
