// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quic

// Version1 is the QUIC version defined by RFC 9000.
const Version1 uint32 = 0x00000001

// VersionSet is the set of QUIC versions a Server will accept.
// Version Negotiation packets list exactly this set, in configured
// order.
type VersionSet struct {
	versions []uint32
}

// NewVersionSet builds a VersionSet from the given versions. An empty
// call defaults to {Version1}.
func NewVersionSet(versions ...uint32) VersionSet {
	if len(versions) == 0 {
		versions = []uint32{Version1}
	}
	out := make([]uint32, len(versions))
	copy(out, versions)
	return VersionSet{versions: out}
}

// Supported reports whether v is in the set.
func (s VersionSet) Supported(v uint32) bool {
	for _, sv := range s.versions {
		if sv == v {
			return true
		}
	}
	return false
}

// All returns the configured versions in order.
func (s VersionSet) All() []uint32 {
	return s.versions
}
