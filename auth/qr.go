// Copyright 2026 The ProcQQ Authors
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/seulG/rust-proc-qq/engine"
	"github.com/seulG/rust-proc-qq/lib/clock"
)

const (
	defaultQRPollInterval = 3 * time.Second
	defaultQRTimeout      = 2 * time.Minute
)

// ErrQRRejected means the user explicitly rejected the login on the
// scanning device.
var ErrQRRejected = errors.New("auth: qr login rejected on device")

// QRStrategy authenticates by QR code: fetch the code artifact, hand
// it to the display sink, then poll the scan state at a bounded
// interval until confirmation, explicit rejection, expiry, or timeout.
type QRStrategy struct {
	// Display receives the fetched code artifact (to render in a
	// terminal, write to a file, ...). Required: a QR login nobody can
	// see cannot be completed.
	Display func(ctx context.Context, code *engine.QRCode) error

	// PollInterval bounds how often the scan state is polled.
	// Defaults to 3s.
	PollInterval time.Duration

	// Timeout bounds the whole wait. Defaults to 2m.
	Timeout time.Duration

	// Clock defaults to clock.Real(). Injected in tests.
	Clock clock.Clock
}

func (s *QRStrategy) Name() string { return "qr-code" }

// Authenticate implements Strategy.
func (s *QRStrategy) Authenticate(ctx context.Context, conn engine.Conn) error {
	if s.Display == nil {
		return fmt.Errorf("qr strategy requires a display sink")
	}

	interval := s.PollInterval
	if interval <= 0 {
		interval = defaultQRPollInterval
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultQRTimeout
	}
	clk := s.Clock
	if clk == nil {
		clk = clock.Real()
	}

	code, err := conn.FetchQRCode(ctx)
	if err != nil {
		return fmt.Errorf("fetching qr code: %w", err)
	}
	if err := s.Display(ctx, code); err != nil {
		return fmt.Errorf("displaying qr code: %w", err)
	}

	deadline := clk.Now().Add(timeout)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-clk.After(interval):
		}
		if clk.Now().After(deadline) {
			return fmt.Errorf("qr login timed out after %s", timeout)
		}

		state, err := conn.PollQRCode(ctx, code.Signature)
		if err != nil {
			return fmt.Errorf("polling qr state: %w", err)
		}
		switch state {
		case engine.QRConfirmed:
			return nil
		case engine.QRCanceled:
			return ErrQRRejected
		case engine.QRTimeout:
			return fmt.Errorf("qr code expired before confirmation")
		default:
			// waiting or scanned: keep polling.
		}
	}
}
