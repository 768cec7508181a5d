// Copyright 2026 The ProcQQ Authors
// SPDX-License-Identifier: Apache-2.0

// Package enginetest provides a scripted in-memory protocol engine for
// tests. Behavior is customized through hook functions on Fake; the
// zero value accepts every login immediately. Conn records login
// attempts and sent messages, and exposes Deliver and Drop to inject
// inbound events and simulated connection loss.
package enginetest
