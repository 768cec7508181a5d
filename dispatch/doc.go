// Copyright 2026 The ProcQQ Authors
// SPDX-License-Identifier: Apache-2.0

// Package dispatch routes decoded protocol events through registered
// module handlers.
//
// Modules are ordered bundles of handlers registered once at client
// construction. At registration the modules are flattened into a single
// handler sequence preserving registration order; dispatch walks that
// sequence for each event, invoking every handler whose declared type
// set matches, until a handler intercepts the event or the sequence is
// exhausted.
//
// A handler error never stops the chain: it is logged with the module
// and handler identity and dispatch continues with the next handler, so
// one faulty module cannot starve the others.
package dispatch
