package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/micro-ha/zabbix-adapters/internal/correlator"
	"github.com/micro-ha/zabbix-adapters/internal/model"
)

// DiscoveryItem is one low-level discovery row.
type DiscoveryItem struct {
	MAC  string `json:"{#WIFIMAC}"`
	Name string `json:"{#WIFINAME}"`
}

// DiscoveryDocument is the discovery envelope. Data is never null.
type DiscoveryDocument struct {
	Data []DiscoveryItem `json:"data"`
}

// StatsDocument is the item payload for one client.
type StatsDocument struct {
	TxBytes   uint64 `json:"tx-bytes"`
	RxBytes   uint64 `json:"rx-bytes"`
	TxPackets uint64 `json:"tx-packets"`
	RxPackets uint64 `json:"rx-packets"`
	RxSignal  int    `json:"rx-signal"`
	Cap       string `json:"cap"`
	IPAddress string `json:"ip-address"`
}

// BuildDiscovery lists every correlated client with its display name.
func BuildDiscovery(clients []correlator.CorrelatedClient) DiscoveryDocument {
	items := make([]DiscoveryItem, 0, len(clients))
	for _, client := range clients {
		items = append(items, DiscoveryItem{MAC: client.Client.MAC, Name: client.DisplayName()})
	}
	return DiscoveryDocument{Data: items}
}

// FindStats returns statistics for the first correlated client with the
// given MAC. found is false when no client matches; that is not an error.
func FindStats(clients []correlator.CorrelatedClient, mac string) (doc StatsDocument, found bool, err error) {
	key := model.CanonicalMAC(mac)
	for _, client := range clients {
		if model.CanonicalMAC(client.Client.MAC) != key {
			continue
		}
		stats, err := client.Stats()
		if err != nil {
			return StatsDocument{}, true, fmt.Errorf("stats for %s: %w", client.Client.MAC, err)
		}
		return newStatsDocument(stats), true, nil
	}
	return StatsDocument{}, false, nil
}

func newStatsDocument(stats correlator.Stats) StatsDocument {
	return StatsDocument{
		TxBytes:   stats.TxBytes,
		RxBytes:   stats.RxBytes,
		TxPackets: stats.TxPackets,
		RxPackets: stats.RxPackets,
		RxSignal:  stats.RxSignal,
		Cap:       stats.Interface,
		IPAddress: stats.IPAddress,
	}
}

// CountPopulation counts raw registrations, matched to a lease or not.
func CountPopulation(clients []model.WirelessClient) int {
	return len(clients)
}

// CountSSID counts raw registrations on one SSID.
func CountSSID(clients []model.WirelessClient, ssid string) int {
	count := 0
	for _, client := range clients {
		if client.SSID == ssid {
			count++
		}
	}
	return count
}

// Snapshot is what one run fetched from the controller.
type Snapshot struct {
	Clients []model.WirelessClient
	Leases  []model.DHCPLease
}

// Render writes the output of mode for snapshot to w. A stats query without
// a matching client writes nothing and returns nil.
func Render(w io.Writer, mode Mode, snapshot Snapshot) error {
	switch mode.Kind {
	case KindDiscovery:
		index := correlator.BuildLeaseIndex(snapshot.Leases)
		clients := correlator.Correlate(snapshot.Clients, index, correlator.Filter{})
		return writeJSON(w, BuildDiscovery(clients))
	case KindStats:
		index := correlator.BuildLeaseIndex(snapshot.Leases)
		clients := correlator.Correlate(snapshot.Clients, index, correlator.Filter{MAC: mode.MAC})
		doc, found, err := FindStats(clients, mode.MAC)
		if err != nil {
			return err
		}
		if !found {
			return nil
		}
		return writeJSON(w, doc)
	case KindSummary:
		_, err := fmt.Fprintln(w, CountPopulation(snapshot.Clients))
		return err
	case KindSSIDCount:
		_, err := fmt.Fprintln(w, CountSSID(snapshot.Clients, mode.SSID))
		return err
	default:
		return fmt.Errorf("unknown mode %q", mode.Kind)
	}
}

func writeJSON(w io.Writer, payload any) error {
	return json.NewEncoder(w).Encode(payload)
}
