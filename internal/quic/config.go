// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quic

import "time"

// ConnParameters mirrors the handful of transport parameters a
// newly-accepted connection is configured with. It is kept to the
// fields this package actually threads through to engine
// construction; the rest of a real transport parameter set belongs to
// the Connection engine, out of scope here.
type ConnParameters struct {
	MaxIdleTimeout time.Duration
}

// DefaultConnParameters returns sane defaults for a freshly accepted
// connection.
func DefaultConnParameters() ConnParameters {
	return ConnParameters{MaxIdleTimeout: 30 * time.Second}
}

// Config is a Server's static configuration.
type Config struct {
	// Certificates is opaque certificate material handed to the
	// Connection engine verbatim; certificate loading itself is out
	// of scope for this package.
	Certificates []string
	// ALPNProtocols is the preference-ordered ALPN list.
	ALPNProtocols []string
	// Versions is the set of QUIC versions this server accepts and
	// advertises in Version Negotiation.
	Versions VersionSet
	// Params are the connection parameters new connections start
	// with.
	Params ConnParameters
	// Ciphers is an opaque cipher-suite preference list handed to the
	// Connection engine verbatim, settable after construction via
	// Server.SetCiphers.
	Ciphers []string
}

// NewConfig returns a Config with usable default versions and
// connection parameters.
func NewConfig() *Config {
	return &Config{
		Versions: NewVersionSet(Version1),
		Params:   DefaultConnParameters(),
	}
}
