package metrics

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/micro-ha/zabbix-adapters/internal/correlator"
	"github.com/micro-ha/zabbix-adapters/internal/report"
)

const defaultScrapeTimeout = 15 * time.Second

// SnapshotSource returns one fresh read of the controller.
type SnapshotSource interface {
	Snapshot(ctx context.Context, withLeases bool) (report.Snapshot, error)
}

// Collector implements prometheus.Collector, taking a new snapshot on each scrape.
type Collector struct {
	source  SnapshotSource
	logger  *slog.Logger
	timeout time.Duration

	up             *prometheus.Desc
	scrapeDuration *prometheus.Desc
	registrations  *prometheus.Desc
	correlated     *prometheus.Desc
	leases         *prometheus.Desc

	clientBytes   *prometheus.Desc
	clientPackets *prometheus.Desc
	clientSignal  *prometheus.Desc
	clientInfo    *prometheus.Desc
}

func NewCollector(source SnapshotSource, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	clientLabels := []string{"mac", "name"}
	return &Collector{
		source:  source,
		logger:  logger,
		timeout: defaultScrapeTimeout,

		up: prometheus.NewDesc(
			"apclient_up",
			"Whether the last controller read succeeded.",
			nil, nil,
		),
		scrapeDuration: prometheus.NewDesc(
			"apclient_scrape_duration_seconds",
			"Time spent reading the controller.",
			nil, nil,
		),
		registrations: prometheus.NewDesc(
			"apclient_registrations",
			"Wireless registrations, matched to a lease or not.",
			nil, nil,
		),
		correlated: prometheus.NewDesc(
			"apclient_correlated_clients",
			"Wireless registrations with a DHCP lease.",
			nil, nil,
		),
		leases: prometheus.NewDesc(
			"apclient_dhcp_leases",
			"Distinct hardware addresses in the DHCP lease table.",
			nil, nil,
		),
		clientBytes: prometheus.NewDesc(
			"apclient_client_bytes_total",
			"Bytes per client as reported by the controller.",
			append(clientLabels, "direction"), nil,
		),
		clientPackets: prometheus.NewDesc(
			"apclient_client_packets_total",
			"Packets per client as reported by the controller.",
			append(clientLabels, "direction"), nil,
		),
		clientSignal: prometheus.NewDesc(
			"apclient_client_signal_dbm",
			"Received signal strength per client.",
			clientLabels, nil,
		),
		clientInfo: prometheus.NewDesc(
			"apclient_client_info",
			"Client placement, always 1.",
			append(clientLabels, "interface", "ssid", "ip_address"), nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.up
	ch <- c.scrapeDuration
	ch <- c.registrations
	ch <- c.correlated
	ch <- c.leases
	ch <- c.clientBytes
	ch <- c.clientPackets
	ch <- c.clientSignal
	ch <- c.clientInfo
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	startedAt := time.Now()
	snapshot, err := c.source.Snapshot(ctx, true)
	ch <- prometheus.MustNewConstMetric(c.scrapeDuration, prometheus.GaugeValue, time.Since(startedAt).Seconds())
	if err != nil {
		c.logger.Warn("controller scrape failed", "err", err)
		ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 0)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 1)

	index := correlator.BuildLeaseIndex(snapshot.Leases)
	clients := correlator.Correlate(snapshot.Clients, index, correlator.Filter{})

	ch <- prometheus.MustNewConstMetric(c.registrations, prometheus.GaugeValue, float64(report.CountPopulation(snapshot.Clients)))
	ch <- prometheus.MustNewConstMetric(c.correlated, prometheus.GaugeValue, float64(len(clients)))
	ch <- prometheus.MustNewConstMetric(c.leases, prometheus.GaugeValue, float64(index.Len()))

	seen := make(map[string]struct{}, len(clients))
	for _, client := range clients {
		c.collectClient(ch, client, seen)
	}
}

func (c *Collector) collectClient(ch chan<- prometheus.Metric, client correlator.CorrelatedClient, seen map[string]struct{}) {
	// The registry rejects duplicate label sets; the first record wins.
	if _, dup := seen[client.Client.MAC]; dup {
		return
	}
	stats, err := client.Stats()
	if err != nil {
		var malformed *correlator.MalformedCounterError
		if errors.As(err, &malformed) {
			c.logger.Warn("skipping client with malformed counters", "mac", client.Client.MAC, "field", malformed.Field, "value", malformed.Value)
		} else {
			c.logger.Warn("skipping client", "mac", client.Client.MAC, "err", err)
		}
		return
	}
	seen[client.Client.MAC] = struct{}{}

	mac := client.Client.MAC
	name := client.DisplayName()
	ch <- prometheus.MustNewConstMetric(c.clientBytes, prometheus.CounterValue, float64(stats.TxBytes), mac, name, "tx")
	ch <- prometheus.MustNewConstMetric(c.clientBytes, prometheus.CounterValue, float64(stats.RxBytes), mac, name, "rx")
	ch <- prometheus.MustNewConstMetric(c.clientPackets, prometheus.CounterValue, float64(stats.TxPackets), mac, name, "tx")
	ch <- prometheus.MustNewConstMetric(c.clientPackets, prometheus.CounterValue, float64(stats.RxPackets), mac, name, "rx")
	ch <- prometheus.MustNewConstMetric(c.clientSignal, prometheus.GaugeValue, float64(stats.RxSignal), mac, name)
	ch <- prometheus.MustNewConstMetric(c.clientInfo, prometheus.GaugeValue, 1, mac, name, stats.Interface, client.Client.SSID, stats.IPAddress)
}
