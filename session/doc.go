// Copyright 2026 The ProcQQ Authors
// SPDX-License-Identifier: Apache-2.0

// Package session persists the two durable records the runtime owns:
// the opaque session credential exported by the engine after a
// successful login, and the device profile that identifies this client
// instance to the engine.
//
// The credential file is a CBOR envelope holding a zstd-compressed
// payload with a BLAKE3 checksum, optionally age-encrypted at rest.
// Writes are atomic (write-temp-then-rename), so a crash mid-write
// never corrupts the previous valid credential. Reads degrade to
// "absent" on any failure — a missing, truncated, or corrupt file is
// indistinguishable from never having logged in, and the caller falls
// through to the next authentication strategy.
package session
