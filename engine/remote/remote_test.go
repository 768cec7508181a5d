// Copyright 2026 The ProcQQ Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/seulG/rust-proc-qq/engine"
	"github.com/seulG/rust-proc-qq/event"
	"github.com/seulG/rust-proc-qq/session"
)

// bridgeFunc scripts the engine side of one connection. It runs after
// the hello frame; returning ends the connection.
type bridgeFunc func(ctx context.Context, t *testing.T, ws *websocket.Conn, hello frame)

// serveBridge starts a websocket test server and returns a Dialer
// pointing at it.
func serveBridge(t *testing.T, bridge bridgeFunc) *Dialer {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Errorf("accept failed: %v", err)
			return
		}
		defer ws.CloseNow()

		ctx := r.Context()
		var hello frame
		if err := wsjson.Read(ctx, ws, &hello); err != nil {
			t.Errorf("reading hello: %v", err)
			return
		}
		if hello.Op != opHello {
			t.Errorf("first frame op = %q, want hello", hello.Op)
			return
		}
		bridge(ctx, t, ws, hello)
	}))
	t.Cleanup(server.Close)

	return &Dialer{URL: "ws" + strings.TrimPrefix(server.URL, "http")}
}

// respondAll answers every request with the scripted result.
func respondAll(results map[string]func(f frame) frame) bridgeFunc {
	return func(ctx context.Context, t *testing.T, ws *websocket.Conn, _ frame) {
		for {
			var f frame
			if err := wsjson.Read(ctx, ws, &f); err != nil {
				return
			}
			build, ok := results[f.Op]
			if !ok {
				t.Errorf("unexpected op %q", f.Op)
				return
			}
			response := build(f)
			response.Op = opResult
			response.ReplyTo = f.ID
			if err := wsjson.Write(ctx, ws, response); err != nil {
				return
			}
		}
	}
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func dialBridge(t *testing.T, d *Dialer) engine.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := d.Dial(ctx, session.GenerateDevice())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHelloCarriesDevice(t *testing.T) {
	sawDevice := make(chan session.DeviceProfile, 1)
	dialer := serveBridge(t, func(ctx context.Context, t *testing.T, ws *websocket.Conn, hello frame) {
		var device session.DeviceProfile
		if err := json.Unmarshal(hello.Data, &device); err != nil {
			t.Errorf("decoding hello device: %v", err)
			return
		}
		sawDevice <- device
		// Hold the connection open until the client hangs up.
		var f frame
		wsjson.Read(ctx, ws, &f)
	})

	device := session.GenerateDevice()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := dialer.Dial(ctx, device)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	select {
	case got := <-sawDevice:
		if got.GUID != device.GUID {
			t.Errorf("engine saw GUID %q, want %q", got.GUID, device.GUID)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("engine never received the device profile")
	}
}

func TestPasswordLoginRoundTrip(t *testing.T) {
	dialer := serveBridge(t, respondAll(map[string]func(frame) frame{
		opPasswordLogin: func(f frame) frame {
			var req passwordLoginRequest
			if err := json.Unmarshal(f.Data, &req); err != nil || req.Account != 10001 {
				return frame{Error: &wireError{Code: engine.CodeWrongPassword, Message: "bad request"}}
			}
			return frame{} // empty data: authenticated
		},
	}))
	conn := dialBridge(t, dialer)

	challenge, err := conn.PasswordLogin(context.Background(), 10001, "hunter2")
	if err != nil {
		t.Fatalf("PasswordLogin failed: %v", err)
	}
	if challenge != nil {
		t.Errorf("challenge = %+v, want nil", challenge)
	}
}

func TestChallengeRoundTrip(t *testing.T) {
	dialer := serveBridge(t, respondAll(map[string]func(frame) frame{
		opPasswordLogin: func(f frame) frame {
			return frame{Data: mustJSON(t, loginResult{Challenge: &engine.Challenge{
				Kind:     engine.ChallengeCaptcha,
				ImagePNG: []byte("png"),
			}})}
		},
		opSubmitChallenge: func(f frame) frame {
			var response engine.ChallengeResponse
			if err := json.Unmarshal(f.Data, &response); err != nil || response.Code != "abcd" {
				return frame{Error: &wireError{Code: engine.CodeChallengeRejected, Message: "wrong code"}}
			}
			return frame{}
		},
	}))
	conn := dialBridge(t, dialer)

	challenge, err := conn.PasswordLogin(context.Background(), 10001, "hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if challenge == nil || challenge.Kind != engine.ChallengeCaptcha {
		t.Fatalf("challenge = %+v, want captcha", challenge)
	}

	next, err := conn.SubmitChallenge(context.Background(), engine.ChallengeResponse{
		Kind: engine.ChallengeCaptcha,
		Code: "abcd",
	})
	if err != nil {
		t.Fatalf("SubmitChallenge failed: %v", err)
	}
	if next != nil {
		t.Errorf("next challenge = %+v, want nil", next)
	}
}

func TestErrorCodesSurface(t *testing.T) {
	dialer := serveBridge(t, respondAll(map[string]func(frame) frame{
		opTokenLogin: func(frame) frame {
			return frame{Error: &wireError{Code: engine.CodeTokenExpired, Message: "token expired"}}
		},
	}))
	conn := dialBridge(t, dialer)

	err := conn.TokenLogin(context.Background(), []byte("stale"))
	if !engine.IsCode(err, engine.CodeTokenExpired) {
		t.Errorf("error = %v, want code TOKEN_EXPIRED", err)
	}
}

func TestEventDelivery(t *testing.T) {
	dialer := serveBridge(t, func(ctx context.Context, t *testing.T, ws *websocket.Conn, _ frame) {
		err := wsjson.Write(ctx, ws, frame{
			Op:   opEvent,
			Kind: event.TypeGroupMessage.String(),
			Data: mustJSON(t, &event.GroupMessage{
				GroupCode: 100,
				FromUin:   1,
				Chain:     event.Plain("hello from the wire"),
			}),
		})
		if err != nil {
			return
		}
		var f frame
		wsjson.Read(ctx, ws, &f)
	})
	conn := dialBridge(t, dialer)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	e, err := conn.ReadEvent(ctx)
	if err != nil {
		t.Fatalf("ReadEvent failed: %v", err)
	}
	message, ok := e.(*event.GroupMessage)
	if !ok {
		t.Fatalf("event type = %T, want *event.GroupMessage", e)
	}
	if message.GroupCode != 100 || message.Chain.String() != "hello from the wire" {
		t.Errorf("event = %+v", message)
	}
}

func TestSendReceipt(t *testing.T) {
	dialer := serveBridge(t, respondAll(map[string]func(frame) frame{
		opSendGroup: func(f frame) frame {
			var req sendRequest
			if err := json.Unmarshal(f.Data, &req); err != nil || req.GroupCode != 100 {
				return frame{Error: &wireError{Code: engine.CodeUnknown, Message: "bad send"}}
			}
			return frame{Data: mustJSON(t, engine.Receipt{MessageID: 42, Time: 1700000000})}
		},
	}))
	conn := dialBridge(t, dialer)

	receipt, err := conn.SendGroupMessage(context.Background(), 100, event.Plain("hi"))
	if err != nil {
		t.Fatalf("SendGroupMessage failed: %v", err)
	}
	if receipt.MessageID != 42 {
		t.Errorf("receipt = %+v", receipt)
	}
}

func TestExportSession(t *testing.T) {
	dialer := serveBridge(t, respondAll(map[string]func(frame) frame{
		opExportSession: func(frame) frame {
			return frame{Data: mustJSON(t, exportSessionResult{Session: []byte("credential")})}
		},
	}))
	conn := dialBridge(t, dialer)

	blob, err := conn.ExportSession(context.Background())
	if err != nil {
		t.Fatalf("ExportSession failed: %v", err)
	}
	if string(blob) != "credential" {
		t.Errorf("session = %q", blob)
	}
}

func TestServerDisconnectFailsCalls(t *testing.T) {
	dialer := serveBridge(t, func(ctx context.Context, t *testing.T, ws *websocket.Conn, _ frame) {
		ws.Close(websocket.StatusGoingAway, "engine restarting")
	})
	conn := dialBridge(t, dialer)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := conn.ReadEvent(ctx); !errors.Is(err, engine.ErrClosed) {
		t.Errorf("ReadEvent error = %v, want ErrClosed", err)
	}
}

func TestCloseUnblocksReadEvent(t *testing.T) {
	dialer := serveBridge(t, func(ctx context.Context, t *testing.T, ws *websocket.Conn, _ frame) {
		var f frame
		wsjson.Read(ctx, ws, &f)
	})
	conn := dialBridge(t, dialer)

	done := make(chan error, 1)
	go func() {
		_, err := conn.ReadEvent(context.Background())
		done <- err
	}()

	conn.Close()
	select {
	case err := <-done:
		if !errors.Is(err, engine.ErrClosed) {
			t.Errorf("ReadEvent error = %v, want ErrClosed", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ReadEvent did not unblock on Close")
	}
}
