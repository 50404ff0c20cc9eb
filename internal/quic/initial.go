// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quic

import (
	"context"
	"errors"
	"net/netip"
	"time"

	"github.com/sirupsen/logrus"
)

// handleInitial processes an Initial packet with no existing route:
// validate its token, fold it into an in-flight attempt if one already
// exists, send a Retry if address validation demands one, or accept a
// brand-new connection.
func (s *Server) handleInitial(ctx context.Context, dgram []byte, hdr Header, addr netip.AddrPort, now time.Time) Output {
	result := s.addrValid.Validate(hdr.Token, addr, now)
	if result.IsInvalid() {
		s.metrics.drop(dropTokenInvalid)
		return OutputNone()
	}

	// odcid identifies the attempt: the client's original choice of
	// destination CID, whether or not a Retry round trip happened.
	odcid := hdr.DCID
	retried := false
	if original, ok := result.ValidRetry(); ok {
		odcid = original
		retried = true
	}

	key := NewAttemptKey(addr, odcid)
	if state, found := s.table.FindActiveAttempt(key); found {
		// A retransmitted or duplicate Initial for an attempt already
		// under way folds into the same connection instead of
		// spawning a second one.
		s.metrics.DuplicateInitials.Inc()
		return state.Process(ctx, dgram, now)
	}

	if result.IsValidate() {
		return s.sendRetry(hdr, addr, now)
	}

	return s.acceptConnection(ctx, dgram, hdr, addr, now, odcid, retried)
}

// sendRetry mints a fresh connection ID and a bound token, then builds
// a Retry packet demanding the client prove ownership of its claimed
// source address before this server commits any connection state.
func (s *Server) sendRetry(hdr Header, addr netip.AddrPort, now time.Time) Output {
	newCID, ok := s.cidGen.GenerateCID()
	if !ok {
		s.metrics.drop(dropRetryCIDExhaust)
		return OutputNone()
	}
	token, err := s.addrValid.GenerateRetryToken(hdr.DCID, addr, now)
	if err != nil {
		s.log.WithError(err).Warn("quic: mint retry token")
		s.metrics.drop(dropTokenMint)
		return OutputNone()
	}
	b, err := appendRetry(nil, hdr.Version, newCID, hdr.SCID, token, hdr.DCID)
	if err != nil {
		s.log.WithError(err).Warn("quic: encode retry packet")
		s.metrics.drop(dropRetryEncode)
		return OutputNone()
	}
	s.metrics.RetriesSent.Inc()
	return OutputDatagram(b, addr)
}

// acceptConnection constructs a new Connection engine and wires it
// into the server's routing table: build the engine, attach optional
// features best-effort, link the CID allocator last so no CID can
// route to a state the allocator doesn't yet know about, then hand
// the engine its triggering datagram.
func (s *Server) acceptConnection(
	ctx context.Context,
	dgram []byte,
	hdr Header,
	addr netip.AddrPort,
	now time.Time,
	odcid ConnID,
	retried bool,
) Output {
	allocator := newConnCIDAllocator(s.cidGen, s.table)

	engine, err := s.factory(s.config.Certificates, s.config.ALPNProtocols, s.config.Ciphers, s.config.Params, hdr.Version, allocator)
	if err != nil {
		s.log.WithError(err).Warn("quic: construct connection engine")
		s.metrics.drop(dropEngineConstruct)
		if errors.Is(err, ErrVersionNegotiationFailed) {
			reportVersionNegotiationFailed(s.qlogDir, odcid, s.log, s.config.Versions.All(), hdr.Version)
		}
		return OutputNone()
	}

	if err := engine.ServerEnable0RTT(s.antiReplay, s.zeroRTT); err != nil {
		s.log.WithError(err).Debug("quic: 0-RTT not enabled for this connection")
	}
	if retried {
		engine.SetRetryCIDs(odcid, hdr.SCID, hdr.DCID)
	}
	engine.SetValidation(s.addrValid)
	engine.SetQlog(newFileQlog(s.qlogDir, odcid, s.log))
	if s.ech != nil {
		if err := engine.ServerEnableECH(s.ech.configID, s.ech.publicName, s.ech.sk, s.ech.pk); err != nil {
			s.log.WithError(err).Warn("quic: ECH not enabled for this connection")
		}
	}

	key := NewAttemptKey(addr, odcid)
	state := newConnectionState(engine, key)
	allocator.setConnection(state)
	s.table.Insert(hdr.DCID, state)

	s.log.WithFields(logrus.Fields{
		"remote": addr.String(),
		"odcid":  odcid.String(),
		"retry":  retried,
	}).Debug("quic: accepted connection attempt")

	return state.Process(ctx, dgram, now)
}
