// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quic

import "sync"

// ConnectionTable maps connection IDs to the ConnectionState that
// routes them. A ConnectionState may be reachable under several CIDs
// at once. Access is guarded by a mutex to express "many references,
// one mutator at a time" — the single-actor Server is this table's
// only caller in practice, but per-connection CID allocators
// (cidalloc.go) also hold a reference to it.
type ConnectionTable struct {
	mu   sync.Mutex
	byID map[string]*ConnectionState
}

// newConnectionTable returns an empty table.
func newConnectionTable() *ConnectionTable {
	return &ConnectionTable{byID: make(map[string]*ConnectionState)}
}

// Insert routes cid to state. Inserting the same CID twice overwrites
// the previous mapping; callers are expected not to do this (CID
// minting never reuses a live ID).
func (t *ConnectionTable) Insert(cid ConnID, state *ConnectionState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byID[string(cid)] = state
}

// Lookup returns the connection routed to cid, if any.
func (t *ConnectionTable) Lookup(cid ConnID) (*ConnectionState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.byID[string(cid)]
	return s, ok
}

// Len reports the number of CID entries currently routable. A single
// connection with multiple CIDs is counted once per CID.
func (t *ConnectionTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byID)
}

// forEach calls f for every (cid, state) entry. f must not call back
// into the table.
func (t *ConnectionTable) forEach(f func(cid string, state *ConnectionState)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for cid, state := range t.byID {
		f(cid, state)
	}
}

// FindActiveAttempt scans for a connection whose active attempt
// matches key, covering the case where a retried Initial arrives
// under a CID not yet in byID. The scan only runs on Initials/0-RTT
// surviving earlier validation, so its cost is bounded by
// mid-handshake concurrency, not steady-state traffic.
func (t *ConnectionTable) FindActiveAttempt(key AttemptKey) (*ConnectionState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	seen := make(map[*ConnectionState]struct{}, len(t.byID))
	for _, state := range t.byID {
		if _, dup := seen[state]; dup {
			continue
		}
		seen[state] = struct{}{}
		if k, ok := state.ActiveAttempt(); ok && k == key {
			return state, true
		}
	}
	return nil, false
}

// evictClosed removes every entry whose connection state is Closed.
// It is the only place entries are removed; the per-connection CID
// allocator (cidalloc.go) never deletes.
func (t *ConnectionTable) evictClosed() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for cid, state := range t.byID {
		if state.Engine.State() == StateClosed {
			delete(t.byID, cid)
		}
	}
}

// snapshotStates returns each distinct connection currently routable,
// deduplicated by pointer identity (a connection with N live CIDs
// would otherwise appear N times and be driven N times per Process
// call).
func (t *ConnectionTable) snapshotStates() []*ConnectionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	seen := make(map[*ConnectionState]struct{}, len(t.byID))
	out := make([]*ConnectionState, 0, len(t.byID))
	for _, state := range t.byID {
		if _, dup := seen[state]; dup {
			continue
		}
		seen[state] = struct{}{}
		out = append(out, state)
	}
	return out
}
