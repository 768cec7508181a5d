// Copyright 2026 The ProcQQ Authors
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/seulG/rust-proc-qq/engine"
	"github.com/seulG/rust-proc-qq/session"
)

// ErrNotApplicable marks a strategy that cannot run at all (a stored
// session that does not exist). The authenticator skips it without
// counting an attempt — distinct from a strategy that ran and failed.
var ErrNotApplicable = errors.New("auth: strategy not applicable")

// ErrChallengeRejected marks a challenge response the engine refused.
// The owning strategy fails; the authenticator falls through to the
// next one.
var ErrChallengeRejected = errors.New("auth: challenge response rejected")

// ErrExhausted means every configured strategy failed in one
// connection-establishment pass. Fatal for that attempt; surfaced to
// the connection supervisor, never retried here.
var ErrExhausted = errors.New("auth: all strategies failed")

// Strategy is one way to authenticate a freshly dialed connection.
// Authenticate returns nil once the connection is authenticated,
// ErrNotApplicable when the strategy cannot run, or the failure that
// makes the authenticator fall through to the next strategy.
type Strategy interface {
	Name() string
	Authenticate(ctx context.Context, conn engine.Conn) error
}

// Config configures an Authenticator.
type Config struct {
	// Strategies are attempted in declared order. At least one is
	// required.
	Strategies []Strategy

	// Store receives the fresh session credential after a successful
	// pass. Optional; persistence failures are logged, never fatal.
	Store *session.Store

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Authenticator walks the configured strategies for one
// connection-establishment pass.
type Authenticator struct {
	strategies []Strategy
	store      *session.Store
	logger     *slog.Logger
}

// New validates the configuration and returns an Authenticator.
func New(config Config) (*Authenticator, error) {
	if len(config.Strategies) == 0 {
		return nil, fmt.Errorf("auth: at least one strategy is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{
		strategies: config.Strategies,
		store:      config.Store,
		logger:     logger,
	}, nil
}

// Authenticate runs one pass over the strategies in declared order,
// stopping at the first success. Inapplicable strategies are skipped,
// not attempted. On success the fresh credential is exported and
// persisted before returning.
func (a *Authenticator) Authenticate(ctx context.Context, conn engine.Conn) error {
	var lastErr error
	attempted := 0

	for _, strategy := range a.strategies {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := strategy.Authenticate(ctx, conn)
		if err == nil {
			a.logger.Info("authenticated", "strategy", strategy.Name())
			a.persist(ctx, conn)
			return nil
		}
		if errors.Is(err, ErrNotApplicable) {
			a.logger.Debug("strategy not applicable, skipping", "strategy", strategy.Name())
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		attempted++
		lastErr = err
		a.logger.Warn("login strategy failed", "strategy", strategy.Name(), "error", err)
	}

	if lastErr == nil {
		return fmt.Errorf("%w: no applicable strategy", ErrExhausted)
	}
	return fmt.Errorf("%w: %d attempted, last error: %w", ErrExhausted, attempted, lastErr)
}

// persist exports the session credential and saves it. Failures here
// must not undo a successful login — they are logged and swallowed.
func (a *Authenticator) persist(ctx context.Context, conn engine.Conn) {
	if a.store == nil {
		return
	}
	blob, err := conn.ExportSession(ctx)
	if err != nil {
		a.logger.Warn("session export failed, credential not persisted", "error", err)
		return
	}
	if err := a.store.Save(blob); err != nil {
		a.logger.Warn("session persist failed", "path", a.store.Path(), "error", err)
	}
}
