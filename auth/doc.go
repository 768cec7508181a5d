// Copyright 2026 The ProcQQ Authors
// SPDX-License-Identifier: Apache-2.0

// Package auth implements the login state machine: an ordered list of
// strategies (stored session, account credentials, QR code) evaluated
// once per connection-establishment pass, stopping at the first
// success.
//
// A strategy failure is recoverable — the authenticator falls through
// to the next strategy and never retries the same strategy within one
// pass. When every strategy has failed the pass terminates with
// ErrExhausted wrapping the last strategy error, which the connection
// supervisor treats as fatal for that attempt.
//
// The password strategy's challenge wait is the only user-interaction
// point in the runtime: the state machine suspends on the configured
// ChallengeResponder until a response arrives or the context is
// cancelled.
package auth
