// Copyright 2026 The ProcQQ Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"bytes"
	"crypto/subtle"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"filippo.io/age"
	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"

	"github.com/seulG/rust-proc-qq/lib/codec"
)

// envelopeVersion is bumped when the on-disk layout changes. Older
// files with a different version load as absent, forcing a fresh login.
const envelopeVersion = 1

// envelope is the on-disk layout of the credential file. Payload is
// the zstd-compressed credential blob, age-encrypted when the store
// has an identity. Checksum is BLAKE3-256 over Payload as stored, so
// corruption is detected before any decryption attempt.
type envelope struct {
	Version   int    `cbor:"version"`
	Encrypted bool   `cbor:"encrypted,omitempty"`
	Checksum  []byte `cbor:"checksum"`
	Payload   []byte `cbor:"payload"`
}

// Shared zstd coders. EncodeAll and DecodeAll are safe for concurrent
// use on a single instance.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil)
	if err != nil {
		panic("session: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("session: zstd decoder initialization failed: " + err.Error())
	}
}

// Store reads and writes the opaque session credential blob at a fixed
// filesystem path. The blob's internal structure belongs to the engine;
// the store never interprets it.
type Store struct {
	path     string
	logger   *slog.Logger
	identity *age.X25519Identity
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithIdentity enables at-rest encryption of the credential file. The
// payload is encrypted to the identity's recipient on save and
// decrypted with the identity on load. A file saved with encryption
// loads as absent when the store has no identity.
func WithIdentity(identity *age.X25519Identity) Option {
	return func(s *Store) { s.identity = identity }
}

// NewStore creates a Store for the credential file at path.
func NewStore(path string, opts ...Option) *Store {
	s := &Store{
		path:   path,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the configured credential file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the stored credential. Every failure mode — missing file,
// unreadable file, bad envelope, checksum mismatch, failed decryption,
// failed decompression — degrades to "absent" (ok=false): an invalid
// stored session is indistinguishable from none until a login attempt
// fails, so there is nothing useful to surface here.
func (s *Store) Load() ([]byte, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("session file unreadable, treating as absent", "path", s.path, "error", err)
		}
		return nil, false
	}

	var env envelope
	if err := codec.Unmarshal(data, &env); err != nil {
		s.logger.Warn("session file corrupt, treating as absent", "path", s.path, "error", err)
		return nil, false
	}
	if env.Version != envelopeVersion {
		s.logger.Warn("session file has unsupported version, treating as absent",
			"path", s.path, "version", env.Version)
		return nil, false
	}

	sum := blake3.Sum256(env.Payload)
	if subtle.ConstantTimeCompare(sum[:], env.Checksum) != 1 {
		s.logger.Warn("session file checksum mismatch, treating as absent", "path", s.path)
		return nil, false
	}

	payload := env.Payload
	if env.Encrypted {
		if s.identity == nil {
			s.logger.Warn("session file is encrypted and no identity is configured, treating as absent",
				"path", s.path)
			return nil, false
		}
		reader, err := age.Decrypt(bytes.NewReader(payload), s.identity)
		if err != nil {
			s.logger.Warn("session file decryption failed, treating as absent", "path", s.path, "error", err)
			return nil, false
		}
		payload, err = io.ReadAll(reader)
		if err != nil {
			s.logger.Warn("session file decryption failed, treating as absent", "path", s.path, "error", err)
			return nil, false
		}
	}

	blob, err := zstdDecoder.DecodeAll(payload, nil)
	if err != nil {
		s.logger.Warn("session file decompression failed, treating as absent", "path", s.path, "error", err)
		return nil, false
	}
	return blob, true
}

// Save writes the credential blob atomically: the envelope is written
// to a temporary file in the same directory and renamed over the
// destination, so a crash mid-write leaves the previous valid file
// intact. Called only after a successful fresh login.
func (s *Store) Save(blob []byte) error {
	payload := zstdEncoder.EncodeAll(blob, nil)

	encrypted := false
	if s.identity != nil {
		var ciphertext bytes.Buffer
		writer, err := age.Encrypt(&ciphertext, s.identity.Recipient())
		if err != nil {
			return fmt.Errorf("session: creating encryptor: %w", err)
		}
		if _, err := writer.Write(payload); err != nil {
			return fmt.Errorf("session: encrypting credential: %w", err)
		}
		if err := writer.Close(); err != nil {
			return fmt.Errorf("session: finalizing encryption: %w", err)
		}
		payload = ciphertext.Bytes()
		encrypted = true
	}

	sum := blake3.Sum256(payload)
	data, err := codec.Marshal(envelope{
		Version:   envelopeVersion,
		Encrypted: encrypted,
		Checksum:  sum[:],
		Payload:   payload,
	})
	if err != nil {
		return fmt.Errorf("session: encoding envelope: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("session: creating credential directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("session: writing credential: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("session: replacing credential: %w", err)
	}
	return nil
}
