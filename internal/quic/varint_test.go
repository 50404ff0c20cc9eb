// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarintRoundTrip(t *testing.T) {
	values := []uint64{
		0, 1, 63, 64, 16383, 16384, 1073741823, 1073741824,
		4611686018427387903,
	}
	for _, v := range values {
		b := appendVarint(nil, v)
		assert.Len(t, b, varintLen(v))
		got, n, ok := consumeVarint(b)
		require.True(t, ok)
		assert.Equal(t, len(b), n)
		assert.Equal(t, v, got)
	}
}

func TestConsumeVarintShortBuffer(t *testing.T) {
	_, _, ok := consumeVarint(nil)
	assert.False(t, ok)

	b := appendVarint(nil, 16384) // 4-byte encoding
	_, _, ok = consumeVarint(b[:2])
	assert.False(t, ok)
}

func TestAppendVarintPanicsOutOfRange(t *testing.T) {
	assert.Panics(t, func() {
		appendVarint(nil, 1<<62)
	})
}
