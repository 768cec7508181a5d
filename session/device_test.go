// Copyright 2026 The ProcQQ Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGenerateDevice(t *testing.T) {
	first := GenerateDevice()
	second := GenerateDevice()

	if first.GUID == "" {
		t.Error("generated profile has empty GUID")
	}
	if first.GUID == second.GUID {
		t.Error("two generated profiles share a GUID")
	}
	if len(first.IMEI) != 15 {
		t.Errorf("IMEI length = %d, want 15", len(first.IMEI))
	}
	if first.Protocol.Name == "" {
		t.Error("generated profile has empty protocol name")
	}
}

func TestDeviceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.json")
	profile := GenerateDevice()

	if err := SaveDevice(path, profile); err != nil {
		t.Fatalf("SaveDevice failed: %v", err)
	}

	loaded, err := LoadDevice(path)
	if err != nil {
		t.Fatalf("LoadDevice failed: %v", err)
	}
	if *loaded != *profile {
		t.Errorf("loaded profile differs:\n got %+v\nwant %+v", loaded, profile)
	}
}

func TestLoadDeviceJSONC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.json")
	content := `{
		// hand-edited profile
		"model": "custom-model",
		"guid": "b5c7f6a0-0000-0000-0000-000000000001",
		"imei": "123456789012345",
		"protocol": {"name": "android_phone", "version": "8.9.38", "build": 3001},
	}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	profile, err := LoadDevice(path)
	if err != nil {
		t.Fatalf("LoadDevice failed on JSONC input: %v", err)
	}
	if profile.Model != "custom-model" {
		t.Errorf("Model = %q, want %q", profile.Model, "custom-model")
	}
	if profile.Protocol.Name != "android_phone" {
		t.Errorf("Protocol.Name = %q", profile.Protocol.Name)
	}
}

func TestLoadDeviceMissingGUID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.json")
	if err := os.WriteFile(path, []byte(`{"model": "x"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDevice(path); err == nil {
		t.Error("expected error for profile without GUID")
	}
}

func TestLoadOrCreateDevice(t *testing.T) {
	t.Run("creates when absent", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "device.json")
		profile, err := LoadOrCreateDevice(path)
		if err != nil {
			t.Fatalf("LoadOrCreateDevice failed: %v", err)
		}
		if profile.GUID == "" {
			t.Error("created profile has empty GUID")
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("profile not persisted: %v", err)
		}
	})

	t.Run("reuses existing", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "device.json")
		first, err := LoadOrCreateDevice(path)
		if err != nil {
			t.Fatal(err)
		}
		second, err := LoadOrCreateDevice(path)
		if err != nil {
			t.Fatal(err)
		}
		if first.GUID != second.GUID {
			t.Error("existing profile was regenerated")
		}
	})

	t.Run("corrupt existing file is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "device.json")
		if err := os.WriteFile(path, []byte("{{{"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadOrCreateDevice(path); err == nil {
			t.Error("expected error for corrupt device profile")
		}
	})
}
