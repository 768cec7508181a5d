// Copyright 2026 The ProcQQ Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by operations on a connection that has been
// closed or replaced by the supervisor. In-flight handler invocations
// holding a stale Conn observe this error rather than a silent no-op.
var ErrClosed = errors.New("engine: connection closed")

// Error is a structured failure reported by the protocol engine.
// Callers use errors.As to extract the code:
//
//	var engineErr *engine.Error
//	if errors.As(err, &engineErr) {
//	    if engineErr.Code == engine.CodeTokenExpired { ... }
//	}
type Error struct {
	// Code is the engine error code (e.g. "TOKEN_EXPIRED").
	Code string `json:"code"`
	// Message is the human-readable description from the engine.
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("engine: %s: %s", e.Code, e.Message)
}

// Engine error codes.
const (
	CodeTokenExpired      = "TOKEN_EXPIRED"
	CodeWrongPassword     = "WRONG_PASSWORD"
	CodeAccountFrozen     = "ACCOUNT_FROZEN"
	CodeDeviceLocked      = "DEVICE_LOCKED"
	CodeChallengeRejected = "CHALLENGE_REJECTED"
	CodeTooManyRequests   = "TOO_MANY_REQUESTS"
	CodeNotAuthenticated  = "NOT_AUTHENTICATED"
	CodeUnknown           = "UNKNOWN"
)

// IsCode checks whether err is an *Error with the given code.
func IsCode(err error, code string) bool {
	var engineErr *Error
	if errors.As(err, &engineErr) {
		return engineErr.Code == code
	}
	return false
}
