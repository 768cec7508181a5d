// Copyright 2026 The ProcQQ Authors
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/seulG/rust-proc-qq/engine"
	"github.com/seulG/rust-proc-qq/engine/enginetest"
	"github.com/seulG/rust-proc-qq/lib/clock"
)

func displayNothing(context.Context, *engine.QRCode) error { return nil }

func TestQRConfirmedAfterPolls(t *testing.T) {
	fake := &enginetest.Fake{
		QRPollHook: func(attempt int) (engine.QRState, error) {
			switch attempt {
			case 1:
				return engine.QRWaiting, nil
			case 2:
				return engine.QRScanned, nil
			default:
				return engine.QRConfirmed, nil
			}
		},
	}
	conn := dialFake(t, fake)

	clk := clock.Fake(time.Unix(1_700_000_000, 0))
	var shown *engine.QRCode
	strategy := &QRStrategy{
		Display: func(_ context.Context, code *engine.QRCode) error {
			shown = code
			return nil
		},
		PollInterval: 3 * time.Second,
		Timeout:      2 * time.Minute,
		Clock:        clk,
	}

	done := make(chan error, 1)
	go func() { done <- strategy.Authenticate(context.Background(), conn) }()

	for i := 0; i < 3; i++ {
		clk.WaitForTimers(1)
		clk.Advance(3 * time.Second)
	}

	if err := <-done; err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if shown == nil || len(shown.ImagePNG) == 0 {
		t.Error("display sink never received the code artifact")
	}
	if !conn.Authenticated() {
		t.Error("connection not authenticated after confirmation")
	}
}

func TestQRRejectedOnDevice(t *testing.T) {
	fake := &enginetest.Fake{
		QRPollHook: func(int) (engine.QRState, error) {
			return engine.QRCanceled, nil
		},
	}
	conn := dialFake(t, fake)

	clk := clock.Fake(time.Unix(1_700_000_000, 0))
	strategy := &QRStrategy{Display: displayNothing, Clock: clk}

	done := make(chan error, 1)
	go func() { done <- strategy.Authenticate(context.Background(), conn) }()

	clk.WaitForTimers(1)
	clk.Advance(defaultQRPollInterval)

	if err := <-done; !errors.Is(err, ErrQRRejected) {
		t.Errorf("error = %v, want ErrQRRejected", err)
	}
}

func TestQRCodeExpired(t *testing.T) {
	fake := &enginetest.Fake{
		QRPollHook: func(int) (engine.QRState, error) {
			return engine.QRTimeout, nil
		},
	}
	conn := dialFake(t, fake)

	clk := clock.Fake(time.Unix(1_700_000_000, 0))
	strategy := &QRStrategy{Display: displayNothing, Clock: clk}

	done := make(chan error, 1)
	go func() { done <- strategy.Authenticate(context.Background(), conn) }()

	clk.WaitForTimers(1)
	clk.Advance(defaultQRPollInterval)

	err := <-done
	if err == nil || !strings.Contains(err.Error(), "expired") {
		t.Errorf("error = %v, want expiry failure", err)
	}
}

func TestQRWaitTimesOut(t *testing.T) {
	polls := 0
	fake := &enginetest.Fake{
		QRPollHook: func(int) (engine.QRState, error) {
			polls++
			return engine.QRWaiting, nil
		},
	}
	conn := dialFake(t, fake)

	clk := clock.Fake(time.Unix(1_700_000_000, 0))
	strategy := &QRStrategy{
		Display:      displayNothing,
		PollInterval: 3 * time.Second,
		Timeout:      10 * time.Second,
		Clock:        clk,
	}

	done := make(chan error, 1)
	go func() { done <- strategy.Authenticate(context.Background(), conn) }()

	// Polls land at 3s, 6s, 9s; the wakeup at 12s is past the 10s
	// deadline and terminates the wait without another poll.
	for i := 0; i < 4; i++ {
		clk.WaitForTimers(1)
		clk.Advance(3 * time.Second)
	}

	err := <-done
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("error = %v, want timeout", err)
	}
	if polls != 3 {
		t.Errorf("polls = %d, want 3", polls)
	}
}

func TestQRRequiresDisplay(t *testing.T) {
	fake := &enginetest.Fake{}
	conn := dialFake(t, fake)

	strategy := &QRStrategy{}
	if err := strategy.Authenticate(context.Background(), conn); err == nil {
		t.Error("expected failure without a display sink")
	}
}

func TestQRCancellation(t *testing.T) {
	fake := &enginetest.Fake{
		QRPollHook: func(int) (engine.QRState, error) {
			return engine.QRWaiting, nil
		},
	}
	conn := dialFake(t, fake)

	clk := clock.Fake(time.Unix(1_700_000_000, 0))
	strategy := &QRStrategy{Display: displayNothing, Clock: clk}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- strategy.Authenticate(ctx, conn) }()

	clk.WaitForTimers(1)
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
