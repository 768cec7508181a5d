// Copyright 2026 The ProcQQ Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR encoding used for durable binary
// state (the session credential envelope). Encoding uses Core
// Deterministic Encoding (RFC 8949 §4.2) so the same logical data
// always produces identical bytes; decoding ignores unknown fields for
// forward compatibility.
package codec
