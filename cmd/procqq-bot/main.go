// Copyright 2026 The ProcQQ Authors
// SPDX-License-Identifier: Apache-2.0

// procqq-bot is a reference bot: it connects to a protocol engine,
// logs in (stored session, then password, then QR code), keeps the
// connection alive, and answers "ping" in any chat.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/seulG/rust-proc-qq/auth"
	"github.com/seulG/rust-proc-qq/client"
	"github.com/seulG/rust-proc-qq/dispatch"
	"github.com/seulG/rust-proc-qq/engine"
	"github.com/seulG/rust-proc-qq/engine/remote"
	"github.com/seulG/rust-proc-qq/event"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "procqq-bot: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := pflag.String("config", "", "path to the YAML config file")
	useQR := pflag.Bool("qr", false, "force QR code login even when credentials are set")
	pflag.Parse()

	cfg := Default()
	if *configPath != "" {
		loaded, err := LoadFile(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := buildLogger(cfg.Log)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	creds, err := loadCredentials()
	if err != nil {
		return err
	}

	strategies := buildStrategies(cfg, creds, *useQR, logger)

	policy, err := cfg.ReconnectPolicy()
	if err != nil {
		return err
	}

	c, err := client.NewBuilder().
		Engine(&remote.Dialer{URL: cfg.EngineURL, Logger: logger}).
		SessionFile(cfg.SessionFile).
		DeviceFile(cfg.DeviceFile).
		Authentication(strategies...).
		Reconnect(policy).
		Logger(logger).
		Modules(pingModule(), noticeModule(logger)).
		Build()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting", "engine", cfg.EngineURL)
	return c.Start(ctx)
}

func buildLogger(cfg LogConfig) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}
	options := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, options)
	default:
		handler = slog.NewTextHandler(os.Stderr, options)
	}
	return slog.New(handler), nil
}

// buildStrategies orders the login paths: password when credentials are
// present, QR otherwise or when forced. The stored-session strategy is
// added by the builder ahead of these.
func buildStrategies(cfg *Config, creds Credentials, forceQR bool, logger *slog.Logger) []auth.Strategy {
	var strategies []auth.Strategy

	if creds.Present() && !forceQR {
		strategies = append(strategies, &auth.PasswordStrategy{
			Account:   creds.Account,
			Password:  creds.Password,
			Responder: auth.ChallengeResponderFunc(promptChallenge),
		})
	}
	strategies = append(strategies, &auth.QRStrategy{
		Display: func(_ context.Context, code *engine.QRCode) error {
			if err := os.MkdirAll(filepath.Dir(cfg.QRImageFile), 0o700); err != nil {
				return err
			}
			if err := os.WriteFile(cfg.QRImageFile, code.ImagePNG, 0o600); err != nil {
				return err
			}
			logger.Info("scan the QR code to log in", "image", cfg.QRImageFile)
			return nil
		},
	})
	return strategies
}

// promptChallenge resolves login verification interactively on the
// terminal.
func promptChallenge(ctx context.Context, challenge *engine.Challenge) (engine.ChallengeResponse, error) {
	switch challenge.Kind {
	case engine.ChallengeCaptcha:
		path := filepath.Join(os.TempDir(), "procqq-captcha.png")
		if err := os.WriteFile(path, challenge.ImagePNG, 0o600); err != nil {
			return engine.ChallengeResponse{}, err
		}
		fmt.Printf("captcha image written to %s\nenter code: ", path)
		code, err := readLine(ctx)
		if err != nil {
			return engine.ChallengeResponse{}, err
		}
		return engine.ChallengeResponse{Kind: challenge.Kind, Code: code}, nil

	case engine.ChallengeSlider:
		fmt.Printf("complete the slider at %s\nenter ticket: ", challenge.SliderURL)
		ticket, err := readLine(ctx)
		if err != nil {
			return engine.ChallengeResponse{}, err
		}
		return engine.ChallengeResponse{Kind: challenge.Kind, Ticket: ticket}, nil

	case engine.ChallengeSMS:
		fmt.Printf("verification code sent to %s\nenter code: ", challenge.Phone)
		code, err := readLine(ctx)
		if err != nil {
			return engine.ChallengeResponse{}, err
		}
		return engine.ChallengeResponse{Kind: challenge.Kind, Code: code}, nil
	}
	return engine.ChallengeResponse{}, fmt.Errorf("unsupported challenge kind %q", challenge.Kind)
}

func readLine(ctx context.Context) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		ch <- result{line: strings.TrimSpace(line), err: err}
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		return r.line, r.err
	}
}

// pingModule answers "ping" in any chat and consumes the event.
func pingModule() dispatch.Module {
	return dispatch.NewModule("ping", "Ping",
		dispatch.OnMessage("pong", func(ctx context.Context, f *dispatch.Facade, m *event.Message) (dispatch.Action, error) {
			if m.Content() != "ping" {
				return dispatch.PassThrough, nil
			}
			if _, err := f.ReplyText(ctx, "pong"); err != nil {
				return dispatch.PassThrough, err
			}
			return dispatch.Intercept, nil
		}),
	)
}

// noticeModule logs everything that passed through unhandled.
func noticeModule(logger *slog.Logger) dispatch.Module {
	return dispatch.NewModule("notice", "Notice",
		dispatch.OnAny("log", func(_ context.Context, f *dispatch.Facade, e event.Event) (dispatch.Action, error) {
			logger.Debug("event", "type", e.EventType().String(), "content", f.Content())
			return dispatch.PassThrough, nil
		}),
	)
}
