// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quic

import (
	"context"
	"net/netip"
	"time"

	"github.com/sirupsen/logrus"
)

// triage is the entry point for every inbound datagram: decode the
// header, try the fast path of an existing route, then fall back to
// per-type handling for packets with no known destination.
func (s *Server) triage(ctx context.Context, dgram []byte, addr netip.AddrPort, now time.Time) Output {
	hdr, ok := DecodeHeader(dgram, s.cidGen, s.config.Versions)
	if !ok {
		s.metrics.drop(dropHeaderDecode)
		return OutputNone()
	}

	// Fast path: a packet naming a CID this server has already
	// minted always routes directly, regardless of packet type. A
	// Handshake or even a stray Initial retransmit for an
	// already-accepted connection lands here, not in the per-type
	// switch below.
	if state, found := s.table.Lookup(hdr.DCID); found {
		return state.Process(ctx, dgram, now)
	}

	switch hdr.Type {
	case PacketTypeShort:
		s.metrics.drop(dropShortUnknown)
		return OutputNone()

	case PacketTypeOtherVersion:
		return s.sendVersionNegotiation(dgram, hdr, addr)

	case PacketTypeInitial:
		if len(dgram) < MinInitialPacketSize {
			s.metrics.drop(dropShortInitial)
			return OutputNone()
		}
		return s.handleInitial(ctx, dgram, hdr, addr, now)

	case PacketType0RTT:
		return s.handleZeroRTT(ctx, dgram, hdr, addr, now)

	default:
		// Handshake or Retry with no matching connection: the peer
		// is talking to a connection this server no longer has (or
		// never had) state for.
		s.metrics.drop(dropOtherType)
		return OutputNone()
	}
}

// sendVersionNegotiation replies to a long-header packet in a version
// this server doesn't speak. The 1200-byte floor on the triggering
// datagram guards against using the server as a reflection amplifier.
func (s *Server) sendVersionNegotiation(dgram []byte, hdr Header, addr netip.AddrPort) Output {
	if len(dgram) < MinInitialPacketSize {
		s.metrics.drop(dropShortInitial)
		return OutputNone()
	}
	b := appendVersionNegotiation(nil, hdr.DCID, hdr.SCID, s.config.Versions.All())
	s.metrics.VNSent.Inc()
	s.log.WithFields(logrus.Fields{
		"remote":  addr.String(),
		"version": hdr.Version,
	}).Debug("quic: sent version negotiation")
	reportVersionNegotiationFailed(s.qlogDir, hdr.DCID, s.log, s.config.Versions.All(), hdr.Version)
	return OutputDatagram(b, addr)
}

// handleZeroRTT matches a 0-RTT packet to the connection attempt it
// belongs to. 0-RTT data can only ever arrive for an attempt already
// opened by a preceding Initial; there is no path that accepts a
// connection from a bare 0-RTT packet.
func (s *Server) handleZeroRTT(ctx context.Context, dgram []byte, hdr Header, addr netip.AddrPort, now time.Time) Output {
	key := NewAttemptKey(addr, hdr.DCID)
	state, found := s.table.FindActiveAttempt(key)
	if !found {
		s.metrics.drop(dropZeroRTTUnknown)
		return OutputNone()
	}
	return state.Process(ctx, dgram, now)
}
