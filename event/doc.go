// Copyright 2026 The ProcQQ Authors
// SPDX-License-Identifier: Apache-2.0

// Package event defines the decoded protocol occurrences delivered by
// the engine: messages, requests, and group membership changes. Events
// are immutable after creation — the dispatcher shares one event
// read-only with every handler invoked on it.
//
// Message payloads are modeled as a MessageChain, an ordered sequence
// of composable elements (text, mentions, image references). The chain
// is opaque to the runtime beyond construction and a normalized text
// rendering; wire encoding belongs to the engine.
package event
