// Copyright 2026 The ProcQQ Authors
// SPDX-License-Identifier: Apache-2.0

// Package client is the supervisory runtime above the protocol engine:
// it owns the connection lifecycle (dial, authenticate, read, replace)
// and feeds decoded events through the dispatch chain.
//
// A Client is assembled once through the Builder and then driven by
// Start, which blocks until the context is cancelled or the runtime
// gives up. Authentication exhaustion on the first connection is fatal;
// after a connection loss the supervisor reconnects with exponential
// backoff, trying the cheap resume path (the last exported session
// credential) before falling back to the full strategy chain. Handlers
// keep the connection their event arrived on; new events flow through
// the replacement connection as soon as the swap lands.
package client
