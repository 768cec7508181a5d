// Copyright 2026 The ProcQQ Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/seulG/rust-proc-qq/engine"
	"github.com/seulG/rust-proc-qq/event"
	"github.com/seulG/rust-proc-qq/session"
)

// Dialer connects to a remote protocol engine. The zero value is not
// usable; URL is required.
type Dialer struct {
	// URL is the engine's websocket endpoint (ws:// or wss://).
	URL string

	// HTTPClient overrides the client used for the handshake.
	HTTPClient *http.Client

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Dial implements engine.Engine. The device profile is announced in a
// hello frame before any login operation; the engine derives the
// persistent device identity from it.
func (d *Dialer) Dial(ctx context.Context, device *session.DeviceProfile) (engine.Conn, error) {
	if d.URL == "" {
		return nil, fmt.Errorf("remote: dialer URL is empty")
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ws, _, err := websocket.Dial(ctx, d.URL, &websocket.DialOptions{
		HTTPClient: d.HTTPClient,
	})
	if err != nil {
		return nil, fmt.Errorf("remote: dialing %s: %w", d.URL, err)
	}

	conn := &conn{
		ws:      ws,
		logger:  logger,
		events:  make(chan event.Event, 64),
		done:    make(chan struct{}),
		pending: make(map[uint64]chan frame),
	}

	hello, err := json.Marshal(device)
	if err != nil {
		ws.Close(websocket.StatusInternalError, "encode failure")
		return nil, fmt.Errorf("remote: encoding device profile: %w", err)
	}
	if err := wsjson.Write(ctx, ws, frame{Op: opHello, Data: hello}); err != nil {
		ws.Close(websocket.StatusInternalError, "hello failure")
		return nil, fmt.Errorf("remote: sending hello: %w", err)
	}

	go conn.readLoop()
	return conn, nil
}

var _ engine.Engine = (*Dialer)(nil)

type conn struct {
	ws     *websocket.Conn
	logger *slog.Logger

	events chan event.Event

	closeOnce sync.Once
	done      chan struct{}

	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]chan frame
	closed  bool
	readErr error
}

// readLoop is the single reader: it routes response frames to the
// blocked caller that owns the correlation ID and queues event frames
// for ReadEvent. It exits on the first read failure, failing every
// in-flight call.
func (c *conn) readLoop() {
	for {
		var f frame
		if err := wsjson.Read(context.Background(), c.ws, &f); err != nil {
			c.fail(err)
			return
		}

		switch f.Op {
		case opResult:
			c.mu.Lock()
			ch, ok := c.pending[f.ReplyTo]
			delete(c.pending, f.ReplyTo)
			c.mu.Unlock()
			if !ok {
				c.logger.Warn("response with no pending call", "reply_to", f.ReplyTo)
				continue
			}
			ch <- f
		case opEvent:
			e, err := decodeEvent(f.Kind, f.Data)
			if err != nil {
				c.logger.Warn("dropping undecodable event", "kind", f.Kind, "error", err)
				continue
			}
			select {
			case c.events <- e:
			case <-c.done:
				return
			}
		default:
			c.logger.Warn("ignoring unexpected frame", "op", f.Op)
		}
	}
}

// fail terminates the connection and releases every blocked caller.
// A nil err records a deliberate close; the first real error wins.
func (c *conn) fail(err error) {
	c.mu.Lock()
	if err != nil && c.readErr == nil && !c.closed {
		c.readErr = err
	}
	pending := c.pending
	c.pending = make(map[uint64]chan frame)
	c.mu.Unlock()

	c.closeOnce.Do(func() { close(c.done) })
	for _, ch := range pending {
		close(ch)
	}
}

func (c *conn) closedErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readErr != nil {
		return fmt.Errorf("%w: %w", engine.ErrClosed, c.readErr)
	}
	return engine.ErrClosed
}

// call sends one request frame and blocks for its response.
func (c *conn) call(ctx context.Context, op string, payload any) (json.RawMessage, error) {
	select {
	case <-c.done:
		return nil, c.closedErr()
	default:
	}

	var data json.RawMessage
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("remote: encoding %s request: %w", op, err)
		}
		data = encoded
	}

	ch := make(chan frame, 1)
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.pending[id] = ch
	c.mu.Unlock()

	if err := wsjson.Write(ctx, c.ws, frame{Op: op, ID: id, Data: data}); err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, fmt.Errorf("remote: sending %s: %w", op, err)
	}

	select {
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, ctx.Err()
	case <-c.done:
		return nil, c.closedErr()
	case response, ok := <-ch:
		if !ok {
			return nil, c.closedErr()
		}
		if response.Error != nil {
			return nil, response.Error.toError()
		}
		return response.Data, nil
	}
}

func (c *conn) TokenLogin(ctx context.Context, token []byte) error {
	_, err := c.call(ctx, opTokenLogin, tokenLoginRequest{Token: token})
	return err
}

func (c *conn) PasswordLogin(ctx context.Context, account int64, password string) (*engine.Challenge, error) {
	data, err := c.call(ctx, opPasswordLogin, passwordLoginRequest{Account: account, Password: password})
	if err != nil {
		return nil, err
	}
	return decodeLoginResult(data)
}

func (c *conn) SubmitChallenge(ctx context.Context, response engine.ChallengeResponse) (*engine.Challenge, error) {
	data, err := c.call(ctx, opSubmitChallenge, response)
	if err != nil {
		return nil, err
	}
	return decodeLoginResult(data)
}

func decodeLoginResult(data json.RawMessage) (*engine.Challenge, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var result loginResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("remote: decoding login result: %w", err)
	}
	return result.Challenge, nil
}

func (c *conn) FetchQRCode(ctx context.Context) (*engine.QRCode, error) {
	data, err := c.call(ctx, opFetchQR, nil)
	if err != nil {
		return nil, err
	}
	var code engine.QRCode
	if err := json.Unmarshal(data, &code); err != nil {
		return nil, fmt.Errorf("remote: decoding qr code: %w", err)
	}
	return &code, nil
}

func (c *conn) PollQRCode(ctx context.Context, signature []byte) (engine.QRState, error) {
	data, err := c.call(ctx, opPollQR, pollQRRequest{Signature: signature})
	if err != nil {
		return "", err
	}
	var result pollQRResult
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("remote: decoding qr state: %w", err)
	}
	return result.State, nil
}

func (c *conn) ReadEvent(ctx context.Context) (event.Event, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, c.closedErr()
	case e := <-c.events:
		return e, nil
	}
}

func (c *conn) send(ctx context.Context, op string, request sendRequest) (*engine.Receipt, error) {
	data, err := c.call(ctx, op, request)
	if err != nil {
		return nil, err
	}
	var receipt engine.Receipt
	if err := json.Unmarshal(data, &receipt); err != nil {
		return nil, fmt.Errorf("remote: decoding receipt: %w", err)
	}
	return &receipt, nil
}

func (c *conn) SendGroupMessage(ctx context.Context, groupCode int64, chain event.MessageChain) (*engine.Receipt, error) {
	return c.send(ctx, opSendGroup, sendRequest{GroupCode: groupCode, Chain: chain})
}

func (c *conn) SendPrivateMessage(ctx context.Context, userID int64, chain event.MessageChain) (*engine.Receipt, error) {
	return c.send(ctx, opSendPrivate, sendRequest{UserID: userID, Chain: chain})
}

func (c *conn) SendTempMessage(ctx context.Context, groupCode, userID int64, chain event.MessageChain) (*engine.Receipt, error) {
	return c.send(ctx, opSendTemp, sendRequest{GroupCode: groupCode, UserID: userID, Chain: chain})
}

func (c *conn) ExportSession(ctx context.Context) ([]byte, error) {
	data, err := c.call(ctx, opExportSession, nil)
	if err != nil {
		return nil, err
	}
	var result exportSessionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("remote: decoding session: %w", err)
	}
	return result.Session, nil
}

func (c *conn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.fail(nil)
	return c.ws.Close(websocket.StatusNormalClosure, "client shutdown")
}

var _ engine.Conn = (*conn)(nil)
