package routeros

import (
	"context"
	"fmt"
	"strings"

	"github.com/micro-ha/zabbix-adapters/internal/model"
)

const leasePath = "/ip/dhcp-server/lease/print"

// Querier is the single capability the correlator needs from a session.
type Querier interface {
	Query(ctx context.Context, path string, withStats bool) ([]map[string]string, error)
}

// FetchRegistrations reads the registration table of the given controller
// API with traffic statistics. Every returned row is kept, including rows
// without a hardware address, so population counts match the device.
func FetchRegistrations(ctx context.Context, q Querier, variant model.Variant) ([]model.WirelessClient, error) {
	rows, err := q.Query(ctx, variant.RegistrationPath(), true)
	if err != nil {
		return nil, fmt.Errorf("fetch %s registrations: %w", variant, err)
	}
	return mapRegistrationRows(rows, variant), nil
}

// FetchLeases reads the DHCP server lease table.
func FetchLeases(ctx context.Context, q Querier) ([]model.DHCPLease, error) {
	rows, err := q.Query(ctx, leasePath, false)
	if err != nil {
		return nil, fmt.Errorf("fetch dhcp leases: %w", err)
	}
	return mapLeaseRows(rows), nil
}

func mapRegistrationRows(rows []map[string]string, variant model.Variant) []model.WirelessClient {
	items := make([]model.WirelessClient, 0, len(rows))
	for _, row := range rows {
		items = append(items, model.WirelessClient{
			MAC:       strings.TrimSpace(row["mac-address"]),
			Interface: strings.TrimSpace(row["interface"]),
			SSID:      strings.TrimSpace(row["ssid"]),
			Bytes:     strings.TrimSpace(row["bytes"]),
			Packets:   strings.TrimSpace(row["packets"]),
			Signal:    strings.TrimSpace(row[variant.SignalField()]),
			Variant:   variant,
		})
	}
	return items
}

func mapLeaseRows(rows []map[string]string) []model.DHCPLease {
	items := make([]model.DHCPLease, 0, len(rows))
	for _, row := range rows {
		items = append(items, model.DHCPLease{
			MAC:           strings.TrimSpace(row["mac-address"]),
			ActiveAddress: strings.TrimSpace(row["active-address"]),
			Comment:       strings.TrimSpace(row["comment"]),
			HostName:      strings.TrimSpace(row["host-name"]),
		})
	}
	return items
}
