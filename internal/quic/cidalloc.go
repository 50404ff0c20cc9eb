// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quic

import "sync"

// connCIDAllocator is the per-connection CID allocator. A connection
// engine mints at least one CID during its own construction, before
// its owning ConnectionState exists, so any CID minted before
// setConnection is called is buffered in saved and drained into the
// shared table the moment the link is made. The registration happens
// immediately rather than on a deferred update queue, since there is
// no separate listen-loop thread to hand the update to.
type connCIDAllocator struct {
	mu     sync.Mutex
	state  *ConnectionState // nil until setConnection is called
	shared CIDGenerator
	table  *ConnectionTable
	saved  []ConnID
}

func newConnCIDAllocator(shared CIDGenerator, table *ConnectionTable) *connCIDAllocator {
	return &connCIDAllocator{shared: shared, table: table}
}

// GenerateCID implements CIDGenerator for the connection engine: ask
// the shared generator; if the connection already exists, register
// the CID immediately; otherwise buffer it. No peer datagram can
// arrive addressed to a CID that hasn't yet been handed back to the
// engine, so buffering cannot cause a routing miss.
func (a *connCIDAllocator) GenerateCID() (ConnID, bool) {
	cid, ok := a.shared.GenerateCID()
	if !ok {
		return nil, false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != nil {
		a.table.Insert(cid, a.state)
	} else {
		a.saved = append(a.saved, cid)
	}
	return cid, true
}

// DecodeCID delegates to the shared generator, which alone knows the
// CID length/format it mints.
func (a *connCIDAllocator) DecodeCID(b []byte) (ConnID, bool) {
	dec, ok := a.shared.(CIDDecoder)
	if !ok {
		return nil, false
	}
	return dec.DecodeCID(b)
}

// setConnection links state to the allocator and drains every CID
// minted so far into the shared table, each mapping to state.
func (a *connCIDAllocator) setConnection(state *ConnectionState) {
	a.mu.Lock()
	saved := a.saved
	a.saved = nil
	a.state = state
	a.mu.Unlock()
	for _, cid := range saved {
		a.table.Insert(cid, state)
	}
}
