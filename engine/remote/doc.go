// Copyright 2026 The ProcQQ Authors
// SPDX-License-Identifier: Apache-2.0

// Package remote connects to a protocol engine running out of process,
// speaking JSON frames over a websocket. Each request frame carries a
// correlation ID; the bridge matches response frames back to blocked
// callers while unsolicited event frames flow to ReadEvent.
//
// The frame format is deliberately small: op, id, reply_to, kind, data,
// error. Engine-side failures arrive as structured {code, message}
// errors and surface as *engine.Error so callers can match on codes.
package remote
