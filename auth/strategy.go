// Copyright 2026 The ProcQQ Authors
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"fmt"

	"github.com/seulG/rust-proc-qq/engine"
	"github.com/seulG/rust-proc-qq/session"
)

// SessionStrategy resumes a previously exported session credential.
// An absent (missing or corrupt) credential makes the strategy
// inapplicable — it is skipped, not attempted. A rejected credential
// is an ordinary strategy failure and falls through to the next
// strategy; the stale file is overwritten on the next successful login.
type SessionStrategy struct {
	Store *session.Store
}

func (s *SessionStrategy) Name() string { return "stored-session" }

// Authenticate implements Strategy.
func (s *SessionStrategy) Authenticate(ctx context.Context, conn engine.Conn) error {
	blob, ok := s.Store.Load()
	if !ok {
		return ErrNotApplicable
	}
	if err := conn.TokenLogin(ctx, blob); err != nil {
		return fmt.Errorf("stored session rejected: %w", err)
	}
	return nil
}

// ChallengeResponder supplies the answer to an out-of-band verification
// step (captcha image, slider ticket, SMS code). Respond blocks until
// the user answers or ctx is cancelled; the suspended login resumes
// with the returned response.
type ChallengeResponder interface {
	Respond(ctx context.Context, challenge *engine.Challenge) (engine.ChallengeResponse, error)
}

// ChallengeResponderFunc adapts a function to ChallengeResponder.
type ChallengeResponderFunc func(ctx context.Context, challenge *engine.Challenge) (engine.ChallengeResponse, error)

// Respond implements ChallengeResponder.
func (f ChallengeResponderFunc) Respond(ctx context.Context, challenge *engine.Challenge) (engine.ChallengeResponse, error) {
	return f(ctx, challenge)
}

// PasswordStrategy authenticates with account credentials. When the
// engine demands verification the strategy suspends on the Responder;
// the engine may chain several challenges before accepting the login.
type PasswordStrategy struct {
	Account  int64
	Password string

	// Responder handles verification challenges. A login that hits a
	// challenge with no responder configured fails the strategy.
	Responder ChallengeResponder
}

func (s *PasswordStrategy) Name() string { return "password" }

// Authenticate implements Strategy.
func (s *PasswordStrategy) Authenticate(ctx context.Context, conn engine.Conn) error {
	challenge, err := conn.PasswordLogin(ctx, s.Account, s.Password)
	if err != nil {
		return fmt.Errorf("password login: %w", err)
	}

	for challenge != nil {
		if s.Responder == nil {
			return fmt.Errorf("engine requires %s verification but no challenge responder is configured", challenge.Kind)
		}
		response, err := s.Responder.Respond(ctx, challenge)
		if err != nil {
			return fmt.Errorf("challenge responder: %w", err)
		}
		challenge, err = conn.SubmitChallenge(ctx, response)
		if err != nil {
			if engine.IsCode(err, engine.CodeChallengeRejected) {
				return fmt.Errorf("%w: %w", ErrChallengeRejected, err)
			}
			return fmt.Errorf("submitting challenge: %w", err)
		}
	}
	return nil
}
