package correlator

import (
	"strings"

	"github.com/micro-ha/zabbix-adapters/internal/model"
)

// Filter narrows the wireless stream before the join. Zero fields match all.
type Filter struct {
	MAC  string
	SSID string
}

func (f Filter) matches(client model.WirelessClient) bool {
	if f.MAC != "" && model.CanonicalMAC(client.MAC) != model.CanonicalMAC(f.MAC) {
		return false
	}
	if f.SSID != "" && client.SSID != f.SSID {
		return false
	}
	return true
}

// CorrelatedClient is a wireless client joined to its DHCP lease.
type CorrelatedClient struct {
	Client model.WirelessClient
	Lease  LeaseEntry
}

// DisplayName resolves the client label: lease comment, then the host name
// the client reported, then the MAC itself.
func (c CorrelatedClient) DisplayName() string {
	if strings.TrimSpace(c.Lease.Comment) != "" {
		return c.Lease.Comment
	}
	if strings.TrimSpace(c.Lease.HostName) != "" {
		return c.Lease.HostName
	}
	return c.Client.MAC
}

// Stats extracts the client counters and attaches the leased address.
func (c CorrelatedClient) Stats() (Stats, error) {
	stats, err := ExtractStats(c.Client)
	if err != nil {
		return Stats{}, err
	}
	stats.IPAddress = c.Lease.ActiveAddress
	return stats, nil
}

// Correlate joins wireless clients to leases by hardware address. Clients
// without a lease are dropped; the rest keep the order of the wireless stream.
func Correlate(clients []model.WirelessClient, index LeaseIndex, filter Filter) []CorrelatedClient {
	result := make([]CorrelatedClient, 0, len(clients))
	for _, client := range clients {
		if !filter.matches(client) {
			continue
		}
		if model.CanonicalMAC(client.MAC) == "" {
			continue
		}
		lease, ok := index.Lookup(client.MAC)
		if !ok {
			continue
		}
		result = append(result, CorrelatedClient{Client: client, Lease: lease})
	}
	return result
}
