package correlator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/micro-ha/zabbix-adapters/internal/model"
)

// Stats is the validated per-client statistics report.
type Stats struct {
	TxBytes   uint64
	RxBytes   uint64
	TxPackets uint64
	RxPackets uint64
	RxSignal  int
	Interface string
	IPAddress string
}

// MalformedCounterError reports a device field that does not hold the
// expected encoding. It is permanent for the record it was raised on.
type MalformedCounterError struct {
	Field string
	Value string
	Err   error
}

func (e *MalformedCounterError) Error() string {
	if e == nil {
		return "malformed counter"
	}
	if e.Err != nil {
		return fmt.Sprintf("malformed %s %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("malformed %s %q", e.Field, e.Value)
}

func (e *MalformedCounterError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ExtractStats parses the counters of one registration record. Parsing of the
// signal field depends on the controller API that produced the record.
func ExtractStats(client model.WirelessClient) (Stats, error) {
	txBytes, rxBytes, err := parseCounterPair("bytes", client.Bytes)
	if err != nil {
		return Stats{}, err
	}
	txPackets, rxPackets, err := parseCounterPair("packets", client.Packets)
	if err != nil {
		return Stats{}, err
	}
	signal, err := parseSignal(client.Variant, client.Signal)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		TxBytes:   txBytes,
		RxBytes:   rxBytes,
		TxPackets: txPackets,
		RxPackets: rxPackets,
		RxSignal:  signal,
		Interface: client.Interface,
	}, nil
}

// parseCounterPair splits a "tx,rx" counter.
func parseCounterPair(field, value string) (uint64, uint64, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return 0, 0, &MalformedCounterError{Field: field, Value: value}
	}
	tx, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return 0, 0, &MalformedCounterError{Field: "tx-" + field, Value: value, Err: err}
	}
	rx, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return 0, 0, &MalformedCounterError{Field: "rx-" + field, Value: value, Err: err}
	}
	return tx, rx, nil
}

func parseSignal(variant model.Variant, value string) (int, error) {
	var separator string
	switch variant {
	case model.VariantWiFi:
		// "<dBm>@<channel>"
		separator = "@"
	case model.VariantCAPsMAN:
		// bare "<dBm>" or "<chain0>,<chain1>"
		separator = ","
	default:
		return 0, fmt.Errorf("unknown controller api %q for signal %q", variant, value)
	}

	head := strings.TrimSpace(strings.Split(value, separator)[0])
	signal, err := strconv.Atoi(head)
	if err != nil {
		return 0, &MalformedCounterError{Field: "rx-signal", Value: value, Err: err}
	}
	return signal, nil
}
