package report

import (
	"fmt"
	"strings"

	"github.com/micro-ha/zabbix-adapters/internal/model"
)

// Kind is one of the closed set of output modes. Exactly one is selected per run.
type Kind string

const (
	KindDiscovery Kind = "discovery"
	KindStats     Kind = "stats"
	KindSummary   Kind = "summary"
	KindSSIDCount Kind = "ssid"
)

// Mode is a selected Kind together with its argument.
type Mode struct {
	Kind Kind
	MAC  string
	SSID string
}

func Discovery() Mode { return Mode{Kind: KindDiscovery} }

func StatsFor(mac string) Mode { return Mode{Kind: KindStats, MAC: mac} }

func Summary() Mode { return Mode{Kind: KindSummary} }

func SSIDCount(ssid string) Mode { return Mode{Kind: KindSSIDCount, SSID: ssid} }

// NeedsLeases reports whether the mode joins against the DHCP lease table.
// Population counts are taken over raw registrations and skip that query.
func (m Mode) NeedsLeases() bool {
	return m.Kind == KindDiscovery || m.Kind == KindStats
}

// Validate checks mode arguments against the controller API in use.
func (m Mode) Validate(variant model.Variant) error {
	switch m.Kind {
	case KindDiscovery, KindSummary:
		return nil
	case KindStats:
		if strings.TrimSpace(m.MAC) == "" {
			return fmt.Errorf("stats requires a mac address")
		}
		return nil
	case KindSSIDCount:
		if m.SSID == "" {
			return fmt.Errorf("ssid requires a name")
		}
		if !variant.SupportsSSID() {
			return fmt.Errorf("ssid counting is not available for the %s api", variant)
		}
		return nil
	default:
		return fmt.Errorf("unknown mode %q", m.Kind)
	}
}
