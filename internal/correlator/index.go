package correlator

import "github.com/micro-ha/zabbix-adapters/internal/model"

// LeaseEntry is the part of a DHCP lease the correlator keeps.
type LeaseEntry struct {
	ActiveAddress string
	Comment       string
	HostName      string
}

// LeaseIndex maps a canonical hardware address to its lease entry.
type LeaseIndex struct {
	entries map[string]LeaseEntry
}

// BuildLeaseIndex indexes leases by canonical MAC. The input is not assumed
// to be sorted or unique: when a MAC repeats, the last lease seen wins.
func BuildLeaseIndex(leases []model.DHCPLease) LeaseIndex {
	entries := make(map[string]LeaseEntry, len(leases))
	for _, lease := range leases {
		key := model.CanonicalMAC(lease.MAC)
		if key == "" {
			continue
		}
		entries[key] = LeaseEntry{
			ActiveAddress: lease.ActiveAddress,
			Comment:       lease.Comment,
			HostName:      lease.HostName,
		}
	}
	return LeaseIndex{entries: entries}
}

// Lookup returns the lease for mac, which may be in any supported notation.
func (i LeaseIndex) Lookup(mac string) (LeaseEntry, bool) {
	entry, ok := i.entries[model.CanonicalMAC(mac)]
	return entry, ok
}

func (i LeaseIndex) Len() int {
	return len(i.entries)
}
