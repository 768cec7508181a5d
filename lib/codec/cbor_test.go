// Copyright 2026 The ProcQQ Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
)

func TestDeterministicEncoding(t *testing.T) {
	value := map[string]any{
		"zeta":  1,
		"alpha": "b",
		"mid":   []int{3, 2, 1},
	}

	first, err := Marshal(value)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	second, err := Marshal(value)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("same value produced different encodings")
	}
}

func TestUnknownFieldsIgnored(t *testing.T) {
	type wide struct {
		A string `cbor:"a"`
		B int    `cbor:"b"`
	}
	type narrow struct {
		A string `cbor:"a"`
	}

	data, err := Marshal(wide{A: "keep", B: 42})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var got narrow
	if err := Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if got.A != "keep" {
		t.Errorf("A = %q, want %q", got.A, "keep")
	}
}
