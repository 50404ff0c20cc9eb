// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quic

import "github.com/prometheus/client_golang/prometheus"

// dropReason labels the Metrics.dropped counter vector with why a
// datagram never reached a connection.
type dropReason string

const (
	dropHeaderDecode    dropReason = "header_decode"
	dropShortUnknown    dropReason = "short_header_unknown_dcid"
	dropShortInitial    dropReason = "initial_too_short"
	dropTokenInvalid    dropReason = "token_invalid"
	dropTokenMint       dropReason = "token_mint_failed"
	dropRetryCIDExhaust dropReason = "retry_cid_exhausted"
	dropRetryEncode     dropReason = "retry_encode_failed"
	dropZeroRTTUnknown  dropReason = "zero_rtt_unknown_attempt"
	dropEngineConstruct dropReason = "engine_construct_failed"
	dropOtherType       dropReason = "other_packet_type"
)

// Metrics is a prometheus.Collector-friendly bundle of server
// counters.
type Metrics struct {
	ActiveConnections prometheus.Gauge
	TableSize         prometheus.Gauge
	Dropped           *prometheus.CounterVec
	RetriesSent       prometheus.Counter
	VNSent            prometheus.Counter
	DuplicateInitials prometheus.Counter
}

// NewMetrics constructs a fresh, unregistered Metrics bundle.
func NewMetrics() *Metrics {
	return &Metrics{
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quicmux",
			Name:      "active_connections",
			Help:      "Connections with at least one routable CID.",
		}),
		TableSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quicmux",
			Name:      "connection_table_entries",
			Help:      "Number of CID entries currently routable.",
		}),
		Dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quicmux",
			Name:      "packets_dropped_total",
			Help:      "Datagrams dropped during triage, by reason.",
		}, []string{"reason"}),
		RetriesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quicmux",
			Name:      "retry_packets_sent_total",
			Help:      "Retry packets sent in response to unvalidated Initials.",
		}),
		VNSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quicmux",
			Name:      "version_negotiation_sent_total",
			Help:      "Version Negotiation packets sent.",
		}),
		DuplicateInitials: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quicmux",
			Name:      "duplicate_initials_total",
			Help:      "Initials matched to an already in-flight attempt.",
		}),
	}
}

// RegisterWith registers every collector in m with reg.
func (m *Metrics) RegisterWith(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.ActiveConnections, m.TableSize, m.Dropped,
		m.RetriesSent, m.VNSent, m.DuplicateInitials,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) drop(reason dropReason) {
	if m == nil {
		return
	}
	m.Dropped.WithLabelValues(string(reason)).Inc()
}
