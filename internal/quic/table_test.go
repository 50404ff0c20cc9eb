// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionTableInsertLookup(t *testing.T) {
	table := newConnectionTable()
	state := newConnectionState(&fakeConn{state: StateHandshaking}, NewAttemptKey(testAddr(1), ConnID{1}))
	table.Insert(ConnID{1, 2, 3}, state)

	got, ok := table.Lookup(ConnID{1, 2, 3})
	require.True(t, ok)
	assert.Same(t, state, got)

	_, ok = table.Lookup(ConnID{9, 9, 9})
	assert.False(t, ok)
	assert.Equal(t, 1, table.Len())
}

func TestConnectionTableSnapshotDedupesSharedState(t *testing.T) {
	table := newConnectionTable()
	state := newConnectionState(&fakeConn{state: StateHandshaking}, NewAttemptKey(testAddr(1), ConnID{1}))
	table.Insert(ConnID{1}, state)
	table.Insert(ConnID{2}, state)
	table.Insert(ConnID{3}, state)

	snap := table.snapshotStates()
	assert.Len(t, snap, 1)
	assert.Equal(t, 3, table.Len())
}

func TestConnectionTableEvictClosed(t *testing.T) {
	table := newConnectionTable()
	live := newConnectionState(&fakeConn{state: StateConfirmed}, NewAttemptKey(testAddr(1), ConnID{1}))
	dead := newConnectionState(&fakeConn{state: StateClosed}, NewAttemptKey(testAddr(2), ConnID{2}))
	table.Insert(ConnID{1}, live)
	table.Insert(ConnID{2}, dead)

	table.evictClosed()

	_, liveOK := table.Lookup(ConnID{1})
	_, deadOK := table.Lookup(ConnID{2})
	assert.True(t, liveOK)
	assert.False(t, deadOK)
	assert.Equal(t, 1, table.Len())
}

func TestConnectionTableFindActiveAttempt(t *testing.T) {
	table := newConnectionTable()
	key := NewAttemptKey(testAddr(1), ConnID{0xaa})
	state := newConnectionState(&fakeConn{state: StateHandshaking}, key)
	table.Insert(ConnID{1}, state)

	got, ok := table.FindActiveAttempt(key)
	require.True(t, ok)
	assert.Same(t, state, got)

	_, ok = table.FindActiveAttempt(NewAttemptKey(testAddr(2), ConnID{0xbb}))
	assert.False(t, ok)
}

func TestConnectionTableFindActiveAttemptClearedPastHandshake(t *testing.T) {
	table := newConnectionTable()
	key := NewAttemptKey(testAddr(1), ConnID{0xaa})
	engine := &fakeConn{state: StateHandshaking}
	state := newConnectionState(engine, key)
	table.Insert(ConnID{1}, state)

	// Driving the connection past Handshaking clears its attempt
	// identity, so a duplicate Initial for the same attempt no longer
	// matches once the handshake has progressed.
	engine.state = StateConfirmed
	state.Process(testCtx(), nil, testNow())

	_, ok := table.FindActiveAttempt(key)
	assert.False(t, ok)
}
