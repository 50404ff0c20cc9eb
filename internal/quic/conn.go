// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quic

import (
	"context"
	"net/netip"
	"time"
)

// ConnState is the per-connection engine state this package projects
// onto. The server only branches on Closed (for garbage collection)
// and on "> Handshaking" (to clear an in-progress attempt's identity).
type ConnState int

const (
	StateInit ConnState = iota
	StateHandshaking
	StateConfirmed
	StateClosing
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateHandshaking:
		return "handshaking"
	case StateConfirmed:
		return "confirmed"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// outputKind tags the three shapes Output can take.
type outputKind int

const (
	outputKindNone outputKind = iota
	outputKindDatagram
	outputKindCallback
)

// Output is the result of a driver step. A datagram carries the
// address it must be sent to, since the reply address is
// not always the engine's own remote address (a VN or Retry response
// is addressed by triage, before any ConnectionState exists).
type Output struct {
	kind     outputKind
	datagram []byte
	addr     netip.AddrPort
	deadline time.Time
}

// OutputNone reports that there is nothing to send and nothing to
// wait for.
func OutputNone() Output { return Output{kind: outputKindNone} }

// OutputDatagram wraps an outbound datagram addressed to addr.
func OutputDatagram(b []byte, addr netip.AddrPort) Output {
	return Output{kind: outputKindDatagram, datagram: b, addr: addr}
}

// OutputCallback requests that the caller invoke Process(ctx, nil, ...)
// again no later than deadline.
func OutputCallback(deadline time.Time) Output {
	return Output{kind: outputKindCallback, deadline: deadline}
}

// IsNone reports whether o carries neither a datagram nor a deadline.
func (o Output) IsNone() bool { return o.kind == outputKindNone }

// Datagram returns the outbound datagram, its destination address, and
// whether a datagram is present at all.
func (o Output) Datagram() ([]byte, netip.AddrPort, bool) {
	return o.datagram, o.addr, o.kind == outputKindDatagram
}

// Callback returns the requested deadline and whether one is present.
func (o Output) Callback() (time.Time, bool) { return o.deadline, o.kind == outputKindCallback }

// ZeroRttResult is the decision a ZeroRttChecker makes about a 0-RTT
// resumption token.
type ZeroRttResult int

const (
	ZeroRttAccept ZeroRttResult = iota
	ZeroRttReject
	ZeroRttHandshakeOnly
)

// A ZeroRttChecker decides whether to accept 0-RTT data carried by a
// resumption token. Implementations must tolerate being invoked
// concurrently from multiple connections sharing one checker; this
// package's single-actor model makes that trivial, but the contract
// still applies since a Connection engine implementation might run
// its own goroutines internally.
type ZeroRttChecker interface {
	Check(token []byte) ZeroRttResult
}

// AntiReplayContext is opaque 0-RTT anti-replay state, handed to the
// engine verbatim.
type AntiReplayContext interface{}

// Connection is the per-connection QUIC engine this package treats as
// a black box. It owns TLS, loss recovery, congestion control, and
// stream multiplexing; none of that is this package's concern.
type Connection interface {
	// Process runs one step of the connection, optionally consuming
	// dgram, and returns its next action.
	Process(ctx context.Context, dgram []byte, now time.Time) Output
	// State reports the connection's current projected state.
	State() ConnState
	// HasEvents reports whether the connection has pending
	// application-visible events since the last check.
	HasEvents() bool
	// ServerEnable0RTT turns on 0-RTT processing for this connection.
	// Failure is logged and degraded, not fatal.
	ServerEnable0RTT(anti AntiReplayContext, checker ZeroRttChecker) error
	// ServerEnableECH turns on Encrypted Client Hello support.
	ServerEnableECH(configID uint8, publicName string, sk, pk []byte) error
	// SetRetryCIDs informs the engine of the three connection IDs it
	// must echo in its original_destination_connection_id,
	// initial_source_connection_id, and retry_source_connection_id
	// transport parameters after a Retry round-trip.
	SetRetryCIDs(odcid, initialSrcCID, initialDstCID ConnID)
	// SetValidation attaches address-validation state the engine
	// consults for subsequent path validation.
	SetValidation(v AddressValidator)
	// SetQlog attaches a qlog sink. A nil sink disables qlog.
	SetQlog(w QlogWriter)
}

// ConnectionState wraps an engine with attempt-identity bookkeeping:
// the active attempt key is set iff the connection is still
// Handshaking or earlier, and is cleared the first time the engine
// reports a state strictly past Handshaking.
type ConnectionState struct {
	Engine        Connection
	activeAttempt *AttemptKey
}

// newConnectionState wraps engine, with its active attempt identity
// set to key.
func newConnectionState(engine Connection, key AttemptKey) *ConnectionState {
	k := key
	return &ConnectionState{Engine: engine, activeAttempt: &k}
}

// ActiveAttempt returns the connection's in-flight attempt key, if any.
func (s *ConnectionState) ActiveAttempt() (AttemptKey, bool) {
	if s.activeAttempt == nil {
		return AttemptKey{}, false
	}
	return *s.activeAttempt, true
}

// Process drives the wrapped engine and clears the attempt identity
// the first time the engine moves past Handshaking.
func (s *ConnectionState) Process(ctx context.Context, dgram []byte, now time.Time) Output {
	out := s.Engine.Process(ctx, dgram, now)
	if s.activeAttempt != nil && s.Engine.State() > StateHandshaking {
		s.activeAttempt = nil
	}
	return out
}
