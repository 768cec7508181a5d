// Copyright 2026 The ProcQQ Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/seulG/rust-proc-qq/auth"
	"github.com/seulG/rust-proc-qq/dispatch"
	"github.com/seulG/rust-proc-qq/engine"
	"github.com/seulG/rust-proc-qq/event"
	"github.com/seulG/rust-proc-qq/lib/clock"
	"github.com/seulG/rust-proc-qq/session"
)

// ErrNotConnected means no live authenticated connection is available.
var ErrNotConnected = errors.New("client: not connected")

// ErrReconnectExhausted means the supervisor gave up reconnecting after
// the policy's attempt ceiling.
var ErrReconnectExhausted = errors.New("client: reconnect attempts exhausted")

// ReconnectPolicy bounds the reconnection loop. The delay doubles after
// each failed attempt up to MaxInterval.
type ReconnectPolicy struct {
	// BaseInterval is the delay after the first failed attempt.
	// Defaults to 1s.
	BaseInterval time.Duration

	// MaxInterval caps the backoff. Defaults to 60s.
	MaxInterval time.Duration

	// MaxAttempts ends the loop with ErrReconnectExhausted once this
	// many consecutive attempts have failed. Zero means never give up.
	MaxAttempts int
}

func (p *ReconnectPolicy) applyDefaults() {
	if p.BaseInterval <= 0 {
		p.BaseInterval = time.Second
	}
	if p.MaxInterval <= 0 {
		p.MaxInterval = 60 * time.Second
	}
}

// connBox wraps the interface so the current connection can live in an
// atomic pointer.
type connBox struct {
	conn engine.Conn
}

// Client supervises one account's connection and drives event dispatch.
// Build it with Builder; drive it with Start.
type Client struct {
	engine        engine.Engine
	device        *session.DeviceProfile
	store         *session.Store
	authenticator *auth.Authenticator
	dispatcher    *dispatch.Dispatcher
	policy        ReconnectPolicy
	logger        *slog.Logger
	clk           clock.Clock

	current atomic.Pointer[connBox]

	mu          sync.Mutex
	lastSession []byte
}

// Conn returns the current live connection, or ErrNotConnected. The
// returned connection may be replaced at any moment; callers must
// tolerate ErrClosed from operations on it.
func (c *Client) Conn() (engine.Conn, error) {
	box := c.current.Load()
	if box == nil {
		return nil, ErrNotConnected
	}
	return box.conn, nil
}

// SendGroupMessage sends through the current connection.
func (c *Client) SendGroupMessage(ctx context.Context, groupCode int64, chain event.MessageChain) (*engine.Receipt, error) {
	conn, err := c.Conn()
	if err != nil {
		return nil, err
	}
	return conn.SendGroupMessage(ctx, groupCode, chain)
}

// SendPrivateMessage sends through the current connection.
func (c *Client) SendPrivateMessage(ctx context.Context, userID int64, chain event.MessageChain) (*engine.Receipt, error) {
	conn, err := c.Conn()
	if err != nil {
		return nil, err
	}
	return conn.SendPrivateMessage(ctx, userID, chain)
}

// SendTempMessage sends through the current connection.
func (c *Client) SendTempMessage(ctx context.Context, groupCode, userID int64, chain event.MessageChain) (*engine.Receipt, error) {
	conn, err := c.Conn()
	if err != nil {
		return nil, err
	}
	return conn.SendTempMessage(ctx, groupCode, userID, chain)
}

// Device returns the device profile presented to the engine.
func (c *Client) Device() *session.DeviceProfile {
	return c.device
}

// Start connects, then blocks reading and dispatching events until ctx
// is cancelled (clean shutdown, nil), the first connection cannot be
// authenticated (fatal, the auth error), or reconnection is exhausted
// (ErrReconnectExhausted).
//
// Events are dispatched one at a time: a handler chain finishes before
// the next event is read.
func (c *Client) Start(ctx context.Context) error {
	conn, err := c.connect(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("initial connect: %w", err)
	}
	c.current.Store(&connBox{conn: conn})
	defer func() {
		c.current.Store(nil)
		conn.Close()
	}()

	for {
		e, err := conn.ReadEvent(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Warn("connection lost", "error", err)
			conn.Close()

			replacement, rerr := c.reconnect(ctx)
			if rerr != nil {
				if ctx.Err() != nil {
					return nil
				}
				return rerr
			}
			conn = replacement
			c.current.Store(&connBox{conn: conn})
			continue
		}

		c.dispatcher.Dispatch(ctx, conn, e)
	}
}

// connect dials and runs the full strategy chain. Used for the first
// connection and as the reconnect fallback when the cheap resume path
// fails.
func (c *Client) connect(ctx context.Context) (engine.Conn, error) {
	conn, err := c.engine.Dial(ctx, c.device)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	if err := c.authenticator.Authenticate(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}
	c.cacheSession(ctx, conn)
	return conn, nil
}

// reattach is one reconnect attempt: dial, then try to resume with the
// last in-memory credential before falling back to the strategy chain.
func (c *Client) reattach(ctx context.Context) (engine.Conn, error) {
	c.mu.Lock()
	token := c.lastSession
	c.mu.Unlock()
	if len(token) == 0 {
		return c.connect(ctx)
	}

	conn, err := c.engine.Dial(ctx, c.device)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	if err := conn.TokenLogin(ctx, token); err != nil {
		c.logger.Info("session resume rejected, running full authentication", "error", err)
		conn.Close()
		return c.connect(ctx)
	}
	c.cacheSession(ctx, conn)
	return conn, nil
}

// reconnect retries reattach with exponential backoff until success,
// cancellation, or the policy's attempt ceiling.
func (c *Client) reconnect(ctx context.Context) (engine.Conn, error) {
	backoff := c.policy.BaseInterval

	for attempt := 1; ; attempt++ {
		conn, err := c.reattach(ctx)
		if err == nil {
			c.logger.Info("reconnected", "attempt", attempt)
			return conn, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Warn("reconnect attempt failed",
			"attempt", attempt,
			"backoff", backoff,
			"error", err)

		if c.policy.MaxAttempts > 0 && attempt >= c.policy.MaxAttempts {
			return nil, fmt.Errorf("%w: %d attempts, last error: %w", ErrReconnectExhausted, attempt, err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-c.clk.After(backoff):
		}
		backoff *= 2
		if backoff > c.policy.MaxInterval {
			backoff = c.policy.MaxInterval
		}
	}
}

// cacheSession keeps the freshest credential in memory for the cheap
// resume path and mirrors it to the store. Never fatal.
func (c *Client) cacheSession(ctx context.Context, conn engine.Conn) {
	blob, err := conn.ExportSession(ctx)
	if err != nil {
		c.logger.Warn("session export failed", "error", err)
		return
	}
	c.mu.Lock()
	c.lastSession = blob
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Save(blob); err != nil {
			c.logger.Warn("session persist failed", "path", c.store.Path(), "error", err)
		}
	}
}
