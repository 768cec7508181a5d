// Copyright 2026 The ProcQQ Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for testability.
//
// Production code accepts a Clock instead of calling time.Now, time.After,
// or time.Sleep directly. Real() provides standard library behavior. Fake()
// provides a deterministic clock that advances only when Advance is called,
// which makes reconnect backoff and QR poll loops testable without real
// sleeps.
//
// When a goroutine calls After or Sleep on a fake clock it registers a
// pending timer. Tests use WaitForTimers to block until the goroutine under
// test has parked on a timer, then call Advance to fire it. This removes
// the race between timer registration and time advancement.
package clock
