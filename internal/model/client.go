package model

import (
	"fmt"
	"strings"
)

// Variant names the controller API a wireless record was read from. The two
// variants expose the same registration table under different paths and
// encode the signal field differently.
type Variant string

const (
	// VariantCAPsMAN is the legacy /caps-man controller API.
	VariantCAPsMAN Variant = "capsman"
	// VariantWiFi is the current /interface/wifi controller API.
	VariantWiFi Variant = "wifi"
)

// ParseVariant maps a user supplied API name onto a known Variant.
func ParseVariant(raw string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "capsman", "caps-man", "legacy":
		return VariantCAPsMAN, nil
	case "wifi", "wifiwave2", "current":
		return VariantWiFi, nil
	default:
		return "", fmt.Errorf("unknown controller api %q", raw)
	}
}

// RegistrationPath returns the print command for the variant registration table.
func (v Variant) RegistrationPath() string {
	switch v {
	case VariantWiFi:
		return "/interface/wifi/registration-table/print"
	default:
		return "/caps-man/registration-table/print"
	}
}

// SignalField returns the row key carrying the receive signal.
func (v Variant) SignalField() string {
	switch v {
	case VariantWiFi:
		return "signal"
	default:
		return "rx-signal"
	}
}

// SupportsSSID reports whether registration rows carry a reliable ssid field.
func (v Variant) SupportsSSID() bool {
	return v == VariantCAPsMAN
}

// WirelessClient is one station from the controller registration table.
// Counter fields keep the raw "tx,rx" encoding sent by the device.
type WirelessClient struct {
	MAC       string
	Interface string
	SSID      string
	Bytes     string
	Packets   string
	Signal    string
	Variant   Variant
}

// DHCPLease keeps only the lease fields needed to name and address a client.
type DHCPLease struct {
	MAC           string
	ActiveAddress string
	Comment       string
	HostName      string
}

// CanonicalMAC normalizes a hardware address for use as a join key.
func CanonicalMAC(value string) string {
	clean := strings.TrimSpace(strings.ToUpper(value))
	return strings.ReplaceAll(clean, "-", ":")
}
