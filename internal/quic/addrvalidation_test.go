// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressValidatorPassWhenPolicyNeverAndTokenless(t *testing.T) {
	v, err := NewAddressValidator()
	require.NoError(t, err)
	v.SetPolicy(ValidateNever)

	result := v.Validate(nil, testAddr(1), testNow())
	assert.True(t, result.IsPass())
}

func TestAddressValidatorRequiresValidateWhenPolicyAlways(t *testing.T) {
	v, err := NewAddressValidator()
	require.NoError(t, err)
	v.SetPolicy(ValidateAlways)

	result := v.Validate(nil, testAddr(1), testNow())
	assert.True(t, result.IsValidate())
}

func TestAddressValidatorRetryTokenRoundTrip(t *testing.T) {
	v, err := NewAddressValidator()
	require.NoError(t, err)
	v.SetPolicy(ValidateAlways)

	odcid := ConnID{1, 2, 3, 4, 5}
	addr := testAddr(1)
	now := testNow()

	token, err := v.GenerateRetryToken(odcid, addr, now)
	require.NoError(t, err)

	result := v.Validate(token, addr, now.Add(time.Second))
	require.False(t, result.IsInvalid())
	got, ok := result.ValidRetry()
	require.True(t, ok)
	assert.True(t, odcid.Equal(got))
}

func TestAddressValidatorRejectsTokenForDifferentAddress(t *testing.T) {
	v, err := NewAddressValidator()
	require.NoError(t, err)

	odcid := ConnID{1, 2, 3}
	now := testNow()
	token, err := v.GenerateRetryToken(odcid, testAddr(1), now)
	require.NoError(t, err)

	result := v.Validate(token, testAddr(2), now)
	assert.True(t, result.IsInvalid())
}

func TestAddressValidatorRejectsExpiredToken(t *testing.T) {
	v, err := NewAddressValidator()
	require.NoError(t, err)

	odcid := ConnID{1, 2, 3}
	addr := testAddr(1)
	now := testNow()
	token, err := v.GenerateRetryToken(odcid, addr, now)
	require.NoError(t, err)

	result := v.Validate(token, addr, now.Add(retryTokenValidity+time.Second))
	assert.True(t, result.IsInvalid())
}

func TestAddressValidatorRejectsGarbageToken(t *testing.T) {
	v, err := NewAddressValidator()
	require.NoError(t, err)

	result := v.Validate([]byte("not-a-real-token"), testAddr(1), testNow())
	assert.True(t, result.IsInvalid())
}
