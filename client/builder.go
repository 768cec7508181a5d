// Copyright 2026 The ProcQQ Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"fmt"
	"log/slog"

	"github.com/seulG/rust-proc-qq/auth"
	"github.com/seulG/rust-proc-qq/dispatch"
	"github.com/seulG/rust-proc-qq/engine"
	"github.com/seulG/rust-proc-qq/lib/clock"
	"github.com/seulG/rust-proc-qq/session"
)

// Builder assembles a Client. Engine and at least one authentication
// strategy (or a session store, which implies the stored-session
// strategy) are required; everything else has defaults.
type Builder struct {
	engine     engine.Engine
	store      *session.Store
	device     *session.DeviceProfile
	deviceFile string
	strategies []auth.Strategy
	modules    []dispatch.Module
	policy     ReconnectPolicy
	logger     *slog.Logger
	clk        clock.Clock
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Engine sets the protocol engine. Required.
func (b *Builder) Engine(e engine.Engine) *Builder {
	b.engine = e
	return b
}

// SessionFile persists the session credential at path, with the
// default store settings. Shorthand for SessionStore(session.NewStore(path)).
func (b *Builder) SessionFile(path string) *Builder {
	return b.SessionStore(session.NewStore(path))
}

// SessionStore sets the credential store. The stored-session strategy
// is placed ahead of the configured strategies unless one is already
// present.
func (b *Builder) SessionStore(s *session.Store) *Builder {
	b.store = s
	return b
}

// Device sets an explicit device profile.
func (b *Builder) Device(p *session.DeviceProfile) *Builder {
	b.device = p
	return b
}

// DeviceFile loads the device profile from path, generating and
// persisting a fresh one when the file does not exist.
func (b *Builder) DeviceFile(path string) *Builder {
	b.deviceFile = path
	return b
}

// Authentication sets the login strategies, attempted in the given
// order on every connection-establishment pass.
func (b *Builder) Authentication(strategies ...auth.Strategy) *Builder {
	b.strategies = strategies
	return b
}

// Modules sets the event modules, in dispatch order.
func (b *Builder) Modules(modules ...dispatch.Module) *Builder {
	b.modules = modules
	return b
}

// Reconnect sets the reconnection policy. Zero fields keep defaults.
func (b *Builder) Reconnect(policy ReconnectPolicy) *Builder {
	b.policy = policy
	return b
}

// Logger sets the logger. Defaults to slog.Default().
func (b *Builder) Logger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// Clock injects a clock for tests. Defaults to clock.Real().
func (b *Builder) Clock(clk clock.Clock) *Builder {
	b.clk = clk
	return b
}

// Build validates the configuration and assembles the Client.
func (b *Builder) Build() (*Client, error) {
	if b.engine == nil {
		return nil, fmt.Errorf("client: an engine is required")
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := b.clk
	if clk == nil {
		clk = clock.Real()
	}

	device := b.device
	if device == nil && b.deviceFile != "" {
		loaded, err := session.LoadOrCreateDevice(b.deviceFile)
		if err != nil {
			return nil, fmt.Errorf("client: device profile: %w", err)
		}
		device = loaded
	}
	if device == nil {
		device = session.GenerateDevice()
	}

	strategies := append([]auth.Strategy(nil), b.strategies...)
	if b.store != nil && !hasSessionStrategy(strategies) {
		strategies = append([]auth.Strategy{&auth.SessionStrategy{Store: b.store}}, strategies...)
	}

	// Credential persistence happens in the client's session cache
	// after every successful login, so the authenticator does not get
	// the store a second time.
	authenticator, err := auth.New(auth.Config{
		Strategies: strategies,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	registry, err := dispatch.NewRegistry(b.modules...)
	if err != nil {
		return nil, err
	}

	policy := b.policy
	policy.applyDefaults()

	return &Client{
		engine:        b.engine,
		device:        device,
		store:         b.store,
		authenticator: authenticator,
		dispatcher:    dispatch.NewDispatcher(registry, logger),
		policy:        policy,
		logger:        logger,
		clk:           clk,
	}, nil
}

func hasSessionStrategy(strategies []auth.Strategy) bool {
	for _, s := range strategies {
		if _, ok := s.(*auth.SessionStrategy); ok {
			return true
		}
	}
	return false
}
