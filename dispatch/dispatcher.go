// Copyright 2026 The ProcQQ Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"context"
	"log/slog"

	"github.com/seulG/rust-proc-qq/engine"
	"github.com/seulG/rust-proc-qq/event"
)

// Result reports how one event moved through the handler chain.
type Result struct {
	// Handled is true when a handler intercepted the event.
	Handled bool

	// ModuleID and HandlerName identify the intercepting handler.
	// Empty when the event passed through the whole chain.
	ModuleID    string
	HandlerName string

	// Invoked counts the handlers that ran (matched and were called).
	Invoked int
}

// Dispatcher walks the flattened handler chain for each event.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
}

// NewDispatcher builds a Dispatcher over a registry. A nil logger
// defaults to slog.Default().
func NewDispatcher(registry *Registry, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{registry: registry, logger: logger}
}

// Dispatch runs e through the chain in registration order on the
// connection it arrived on. Non-matching handlers are skipped without
// invocation. A handler returning Intercept stops the chain; a handler
// error is logged and the chain continues. Dispatch returns once the
// chain is resolved; events are processed one at a time by the caller.
func (d *Dispatcher) Dispatch(ctx context.Context, conn engine.Conn, e event.Event) Result {
	facade := NewFacade(conn, e)
	eventType := e.EventType()

	var result Result
	for _, entry := range d.registry.entries {
		if err := ctx.Err(); err != nil {
			return result
		}
		if !entry.handler.matches(eventType) {
			continue
		}

		result.Invoked++
		action, err := entry.handler.fn(ctx, facade, e)
		if err != nil {
			d.logger.Error("handler failed, continuing chain",
				"module", entry.moduleID,
				"handler", entry.handler.Name,
				"event", eventType.String(),
				"error", err)
			continue
		}
		if action == Intercept {
			result.Handled = true
			result.ModuleID = entry.moduleID
			result.HandlerName = entry.handler.Name
			d.logger.Debug("event intercepted",
				"module", entry.moduleID,
				"handler", entry.handler.Name,
				"event", eventType.String())
			return result
		}
	}
	return result
}
