// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quic

import (
	"crypto/rand"
	"encoding/hex"
)

// MaxCIDLen is the largest connection ID this package will route on.
const MaxCIDLen = 20

// defaultCIDLen is the length used by the default connection ID
// generator. It is a plain, fixed-length ID; a production deployment
// that wants to embed routing information (for a load balancer,
// for example) supplies its own CIDGenerator.
const defaultCIDLen = 8

// ConnID is an opaque connection identifier. Equality and hashing are
// byte-wise.
type ConnID []byte

// Equal reports whether cid and other name the same connection ID.
func (cid ConnID) Equal(other ConnID) bool {
	if len(cid) != len(other) {
		return false
	}
	for i := range cid {
		if cid[i] != other[i] {
			return false
		}
	}
	return true
}

// String returns the hex encoding of cid, used for log lines and for
// qlog file names ("<odcid-hex>.qlog").
func (cid ConnID) String() string {
	return hex.EncodeToString(cid)
}

func cloneCID(cid ConnID) ConnID {
	out := make(ConnID, len(cid))
	copy(out, cid)
	return out
}

// A CIDGenerator mints connection IDs for the server to advertise to
// peers. GenerateCID returns false when the generator is exhausted;
// the caller must treat that as a drop, not a fatal error.
type CIDGenerator interface {
	GenerateCID() (ConnID, bool)
}

// A CIDDecoder extracts a destination connection ID from the start of
// a short-header packet, whose length is not self-describing on the
// wire and must be known by the generator that minted it.
type CIDDecoder interface {
	// DecodeCID consumes the destination connection ID from the start
	// of b (a short-header packet with the first byte already
	// stripped) and returns it along with whether decoding succeeded.
	DecodeCID(b []byte) (cid ConnID, ok bool)
}

// CIDProvider is what a Connection engine is handed as its CID source:
// it both mints new IDs and decodes IDs off the wire.
// *connCIDAllocator and *randomCIDGenerator implement it in this
// package; it exists as a named interface so engine constructors and
// tests can depend on the capability pair without depending on either
// unexported type.
type CIDProvider interface {
	CIDGenerator
	CIDDecoder
}

// randomCIDGenerator is the default CIDGenerator/CIDDecoder: fixed
// length, cryptographically random bytes. It doesn't need to be
// cryptographically secure (the CID is not a secret), but using
// crypto/rand costs nothing.
type randomCIDGenerator struct {
	length int
}

func newRandomCIDGenerator() *randomCIDGenerator {
	return &randomCIDGenerator{length: defaultCIDLen}
}

func (g *randomCIDGenerator) GenerateCID() (ConnID, bool) {
	cid := make(ConnID, g.length)
	if _, err := rand.Read(cid); err != nil {
		return nil, false
	}
	return cid, true
}

func (g *randomCIDGenerator) DecodeCID(b []byte) (ConnID, bool) {
	if len(b) < g.length {
		return nil, false
	}
	return cloneCID(b[:g.length]), true
}
