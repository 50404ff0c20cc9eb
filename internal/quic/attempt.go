// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quic

import "net/netip"

// AttemptKey identifies an in-flight handshake attempt. Two datagrams
// sharing an AttemptKey must be delivered to the same ConnectionState.
// It is a plain comparable struct so it can be used directly as a Go
// value (== and as a map key).
type AttemptKey struct {
	RemoteAddr netip.AddrPort
	odcid      string // string(ConnID); ConnID itself isn't comparable
}

// NewAttemptKey builds the identity for a handshake attempt from a
// peer address and an original destination connection ID.
func NewAttemptKey(remote netip.AddrPort, odcid ConnID) AttemptKey {
	return AttemptKey{RemoteAddr: remote, odcid: string(odcid)}
}

// ODCID returns the connection ID half of the key.
func (k AttemptKey) ODCID() ConnID { return ConnID(k.odcid) }
