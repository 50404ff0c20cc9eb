// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCIDAllocatorBuffersBeforeSetConnection(t *testing.T) {
	table := newConnectionTable()
	alloc := newConnCIDAllocator(newRandomCIDGenerator(), table)

	cid1, ok := alloc.GenerateCID()
	require.True(t, ok)
	cid2, ok := alloc.GenerateCID()
	require.True(t, ok)

	// Minted before the connection exists: not yet routable.
	assert.Equal(t, 0, table.Len())

	state := newConnectionState(&fakeConn{state: StateHandshaking}, NewAttemptKey(testAddr(1), ConnID{1}))
	alloc.setConnection(state)

	got1, ok := table.Lookup(cid1)
	require.True(t, ok)
	assert.Same(t, state, got1)
	got2, ok := table.Lookup(cid2)
	require.True(t, ok)
	assert.Same(t, state, got2)
}

func TestCIDAllocatorRoutesImmediatelyAfterLink(t *testing.T) {
	table := newConnectionTable()
	alloc := newConnCIDAllocator(newRandomCIDGenerator(), table)
	state := newConnectionState(&fakeConn{state: StateHandshaking}, NewAttemptKey(testAddr(1), ConnID{1}))
	alloc.setConnection(state)

	cid, ok := alloc.GenerateCID()
	require.True(t, ok)

	got, ok := table.Lookup(cid)
	require.True(t, ok)
	assert.Same(t, state, got)
}

func TestCIDAllocatorDecodeDelegatesToShared(t *testing.T) {
	shared := newRandomCIDGenerator()
	alloc := newConnCIDAllocator(shared, newConnectionTable())
	cid, _ := shared.GenerateCID()

	decoded, ok := alloc.DecodeCID(append([]byte(cid), 0x01))
	require.True(t, ok)
	assert.True(t, cid.Equal(decoded))
}
