// Copyright 2026 The ProcQQ Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/tidwall/jsonc"
)

// DeviceProfile identifies the connecting client instance to the
// protocol engine. It is supplied once at construction and immutable
// thereafter — the engine ties session credentials to it, so changing
// the profile invalidates any stored session.
type DeviceProfile struct {
	Product    string   `json:"product"`
	Board      string   `json:"board"`
	Brand      string   `json:"brand"`
	Model      string   `json:"model"`
	IMEI       string   `json:"imei"`
	GUID       string   `json:"guid"`
	MacAddress string   `json:"mac_address"`
	WifiSSID   string   `json:"wifi_ssid"`
	APN        string   `json:"apn"`
	Protocol   Protocol `json:"protocol"`
}

// Protocol holds the protocol version fields reported to the engine
// during the handshake.
type Protocol struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Build   int    `json:"build"`
}

// GenerateDevice produces a randomized device profile with a fresh
// GUID. The same profile should be reused across restarts (persist it
// with SaveDevice) so the engine recognizes the instance.
func GenerateDevice() *DeviceProfile {
	id := uuid.New()
	return &DeviceProfile{
		Product:    "procqq",
		Board:      "procqq",
		Brand:      "procqq",
		Model:      "procqq-go",
		IMEI:       imeiFrom(id),
		GUID:       id.String(),
		MacAddress: macFrom(id),
		WifiSSID:   "<unknown ssid>",
		APN:        "wifi",
		Protocol: Protocol{
			Name:    "android_pad",
			Version: "8.9.38",
			Build:   3001,
		},
	}
}

// imeiFrom derives a 15-digit identifier from the uuid bytes. The
// value only needs to be stable and well-formed, not globally unique.
func imeiFrom(id uuid.UUID) string {
	digits := make([]byte, 15)
	for i := range digits {
		digits[i] = '0' + id[i%len(id)]%10
	}
	return string(digits)
}

func macFrom(id uuid.UUID) string {
	return fmt.Sprintf("02:00:%02x:%02x:%02x:%02x", id[0], id[1], id[2], id[3])
}

// LoadDevice reads a device profile file. Files may contain comments
// and trailing commas (JSONC) since profiles are sometimes hand-edited.
func LoadDevice(path string) (*DeviceProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("session: reading device profile: %w", err)
	}

	var profile DeviceProfile
	if err := json.Unmarshal(jsonc.ToJSON(data), &profile); err != nil {
		return nil, fmt.Errorf("session: parsing device profile %s: %w", path, err)
	}
	if profile.GUID == "" {
		return nil, fmt.Errorf("session: device profile %s missing guid", path)
	}
	return &profile, nil
}

// SaveDevice writes the profile atomically (write-temp-then-rename).
func SaveDevice(path string, profile *DeviceProfile) error {
	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return fmt.Errorf("session: encoding device profile: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("session: creating device profile directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("session: writing device profile: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("session: replacing device profile: %w", err)
	}
	return nil
}

// LoadOrCreateDevice loads the profile at path, generating and
// persisting a fresh one when the file does not exist. A corrupt
// existing file is an error, not silently regenerated — regeneration
// would orphan the engine-side device binding.
func LoadOrCreateDevice(path string) (*DeviceProfile, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		profile := GenerateDevice()
		if err := SaveDevice(path, profile); err != nil {
			return nil, err
		}
		return profile, nil
	}
	return LoadDevice(path)
}
