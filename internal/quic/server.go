// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package quic implements a single-actor QUIC server demultiplexer:
// it owns no sockets and spawns no goroutines, routing inbound
// datagrams to per-connection engines and folding their outputs back
// to a caller that owns the actual I/O and drives Process from its
// own event loop.
package quic

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"time"

	"github.com/sirupsen/logrus"
)

// ConnectionFactory constructs a per-connection engine. This package
// treats Connection as a black box with no single concrete
// implementation, so construction is injected here rather than called
// directly.
//
// A factory that cannot build an engine because it does not support
// the requested version should return an error wrapping
// ErrVersionNegotiationFailed, so the caller can tell that failure
// class apart from an unrelated construction error (out-of-memory,
// certificate load failure, and so on) for qlog reporting.
type ConnectionFactory func(certs, alpn []string, ciphers []string, params ConnParameters, version uint32, cids CIDProvider) (Connection, error)

// ErrVersionNegotiationFailed is the sentinel a ConnectionFactory
// wraps in its returned error to report that construction failed
// specifically because it does not support the requested version.
var ErrVersionNegotiationFailed = errors.New("quic: connection engine does not support requested version")

type echConfig struct {
	configID   uint8
	publicName string
	sk, pk     []byte
}

// Server demultiplexes inbound QUIC datagrams across many connections
// without owning any I/O itself. Every exported method is safe only
// when called from a single logical thread of control.
type Server struct {
	config     *Config
	factory    ConnectionFactory
	antiReplay AntiReplayContext
	zeroRTT    ZeroRttChecker
	cidGen     CIDProvider
	table      *ConnectionTable
	addrValid  AddressValidator
	qlogDir    string
	ech        *echConfig
	metrics    *Metrics
	log        logrus.FieldLogger
	started    time.Time
}

// NewServer builds a Server. now seeds the server's start time for
// Stats(); it carries no other meaning since this package keeps no
// internal timers of its own.
func NewServer(
	now time.Time,
	config *Config,
	antiReplay AntiReplayContext,
	zeroRTT ZeroRttChecker,
	cidGen CIDProvider,
	factory ConnectionFactory,
) (*Server, error) {
	if config == nil {
		config = NewConfig()
	}
	if cidGen == nil {
		cidGen = newRandomCIDGenerator()
	}
	if factory == nil {
		return nil, fmt.Errorf("quic: NewServer: factory must not be nil")
	}
	validator, err := NewAddressValidator()
	if err != nil {
		return nil, fmt.Errorf("quic: NewServer: %w", err)
	}
	return &Server{
		config:     config,
		factory:    factory,
		antiReplay: antiReplay,
		zeroRTT:    zeroRTT,
		cidGen:     cidGen,
		table:      newConnectionTable(),
		addrValid:  validator,
		metrics:    NewMetrics(),
		log:        logrus.StandardLogger(),
		started:    now,
	}, nil
}

// SetQlogDir turns on qlog tracing for connections accepted from this
// point forward; existing connections are unaffected.
func (s *Server) SetQlogDir(dir string) { s.qlogDir = dir }

// SetValidation changes the server's address-validation policy.
func (s *Server) SetValidation(v ValidateAddress) { s.addrValid.SetPolicy(v) }

// SetCiphers changes the cipher-suite preference list handed to
// engines constructed from this point forward.
func (s *Server) SetCiphers(ciphers []string) { s.config.Ciphers = ciphers }

// EnableECH turns on Encrypted Client Hello for connections accepted
// from this point forward.
func (s *Server) EnableECH(configID uint8, publicName string, sk, pk []byte) {
	s.ech = &echConfig{configID: configID, publicName: publicName, sk: sk, pk: pk}
}

// ECHConfig returns the public half of the server's ECH configuration
// (for publication, e.g. in a DNS HTTPS record), and whether ECH is
// enabled at all.
func (s *Server) ECHConfig() (configID uint8, publicName string, pk []byte, ok bool) {
	if s.ech == nil {
		return 0, "", nil, false
	}
	return s.ech.configID, s.ech.publicName, s.ech.pk, true
}

// Metrics returns the server's prometheus collector bundle, for the
// caller to register with its own registry via Metrics().RegisterWith.
func (s *Server) Metrics() *Metrics { return s.metrics }

// Process is the server's only driver entry point. A nil dgram asks
// the server to drive every connection in the table instead of
// delivering a datagram; ctx is handed through to each engine's
// Process call and is not used for cancellation, since Process always
// runs to completion synchronously.
func (s *Server) Process(ctx context.Context, dgram []byte, addr netip.AddrPort, now time.Time) Output {
	defer s.refreshTableMetrics()

	if dgram != nil {
		return s.triage(ctx, dgram, addr, now)
	}

	var earliest time.Time
	for _, state := range s.table.snapshotStates() {
		out := state.Process(ctx, nil, now)
		if dg, a, ok := out.Datagram(); ok {
			return OutputDatagram(dg, a)
		}
		if dl, ok := out.Callback(); ok {
			if earliest.IsZero() || dl.Before(earliest) {
				earliest = dl
			}
		}
	}
	if !earliest.IsZero() {
		return OutputCallback(earliest)
	}
	return OutputNone()
}

func (s *Server) refreshTableMetrics() {
	s.table.evictClosed()
	if s.metrics == nil {
		return
	}
	s.metrics.TableSize.Set(float64(s.table.Len()))
	s.metrics.ActiveConnections.Set(float64(len(s.table.snapshotStates())))
}

// ActiveConnections returns every connection with at least one
// pending application-visible event, deduplicated.
func (s *Server) ActiveConnections() []*ConnectionState {
	var active []*ConnectionState
	for _, state := range s.table.snapshotStates() {
		if state.Engine.HasEvents() {
			active = append(active, state)
		}
	}
	return active
}

// HasActiveConnections reports whether any connection currently has a
// pending application-visible event.
func (s *Server) HasActiveConnections() bool {
	for _, state := range s.table.snapshotStates() {
		if state.Engine.HasEvents() {
			return true
		}
	}
	return false
}

// Stats is a point-in-time snapshot of server-wide counters for
// diagnostics.
type Stats struct {
	ActiveConnections int
	TableEntries      int
	Uptime            time.Duration
}

// Stats reports a snapshot as of now.
func (s *Server) Stats(now time.Time) Stats {
	return Stats{
		ActiveConnections: len(s.table.snapshotStates()),
		TableEntries:      s.table.Len(),
		Uptime:            now.Sub(s.started),
	}
}

// String implements fmt.Stringer for diagnostic logging.
func (s *Server) String() string {
	return fmt.Sprintf("quic.Server{connections=%d entries=%d}",
		len(s.table.snapshotStates()), s.table.Len())
}
