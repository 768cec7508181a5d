// Copyright 2026 The ProcQQ Authors
// SPDX-License-Identifier: Apache-2.0

// Package engine declares the capability set the runtime consumes from
// the external protocol engine: connect, login (token, password with
// challenge verification, QR code), receive decoded events, send
// messages, and export the reusable session credential.
//
// The engine owns packet framing, encryption, and server negotiation —
// none of that surfaces here. The runtime only drives the control flow
// around these operations. The production implementation lives in
// engine/remote (a bridge to an out-of-process engine daemon); tests
// use enginetest.Fake.
package engine
