// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quic

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"net/netip"
	"time"
)

// ValidateAddress selects when a Server requires a Retry round trip
// before creating connection state.
type ValidateAddress int

const (
	// ValidateNever never sends a Retry; every Initial is accepted
	// (or matched to an in-flight attempt) directly.
	ValidateNever ValidateAddress = iota
	// ValidateNewConnection requires a Retry for Initials that don't
	// already carry a token. Attempt deduplication already prevents a
	// retried Initial from spawning a second connection, so this
	// component has no additional state to distinguish "new" from
	// "already validated" beyond token presence, and behaves like
	// ValidateAlways; the distinct constant stays for API symmetry and
	// so a future admission-control layer has a named hook to change.
	ValidateNewConnection
	// ValidateAlways requires a Retry for every Initial that carries
	// no token. An Initial whose token fails validation is dropped.
	ValidateAlways
)

// AddressValidationResult is the outcome of validating an Initial's
// token.
type AddressValidationResult struct {
	kind  addrValidationKind
	odcid ConnID
}

type addrValidationKind int

const (
	addrInvalid addrValidationKind = iota
	addrPass
	addrValidRetry
	addrValidate
)

func (r AddressValidationResult) IsInvalid() bool  { return r.kind == addrInvalid }
func (r AddressValidationResult) IsPass() bool     { return r.kind == addrPass }
func (r AddressValidationResult) IsValidate() bool { return r.kind == addrValidate }

// ValidRetry returns the original destination connection ID carried
// by the token, and whether the result is ValidRetry at all.
func (r AddressValidationResult) ValidRetry() (ConnID, bool) {
	if r.kind != addrValidRetry {
		return nil, false
	}
	return r.odcid, true
}

// AddressValidator generates and validates Retry tokens: AES-128-GCM,
// time-bounded, bound to the peer address as associated data. See
// DESIGN.md for why this stays on crypto/aes rather than reaching for
// golang.org/x/crypto.
type AddressValidator interface {
	// Validate inspects a token from an Initial packet's Token field.
	Validate(token []byte, addr netip.AddrPort, now time.Time) AddressValidationResult
	// GenerateRetryToken mints a token binding dcid and addr at now,
	// for use in a Retry packet.
	GenerateRetryToken(dcid ConnID, addr netip.AddrPort, now time.Time) ([]byte, error)
	// SetPolicy changes when Validate returns Validate vs. Pass for
	// tokenless Initials.
	SetPolicy(v ValidateAddress)
}

const retryTokenValidity = 10 * time.Second

type aeadAddressValidator struct {
	aead   cipher.AEAD
	nonce  []byte
	policy ValidateAddress
}

// NewAddressValidator returns the default AddressValidator.
func NewAddressValidator() (AddressValidator, error) {
	var key [16]byte
	if _, err := rand.Read(key[:]); err != nil {
		return nil, fmt.Errorf("quic: generate address validator key: %w", err)
	}
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("quic: init address validator cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("quic: init address validator AEAD: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("quic: generate address validator nonce: %w", err)
	}
	return &aeadAddressValidator{aead: aead, nonce: nonce, policy: ValidateNever}, nil
}

func (v *aeadAddressValidator) SetPolicy(p ValidateAddress) { v.policy = p }

func (v *aeadAddressValidator) Validate(token []byte, addr netip.AddrPort, now time.Time) AddressValidationResult {
	if len(token) == 0 {
		if v.policy == ValidateNever {
			return AddressValidationResult{kind: addrPass}
		}
		return AddressValidationResult{kind: addrValidate}
	}
	odcid, ok := v.open(token, addr, now)
	if !ok {
		return AddressValidationResult{kind: addrInvalid}
	}
	return AddressValidationResult{kind: addrValidRetry, odcid: odcid}
}

func (v *aeadAddressValidator) GenerateRetryToken(dcid ConnID, addr netip.AddrPort, now time.Time) ([]byte, error) {
	return v.seal(dcid, addr, now), nil
}

func (v *aeadAddressValidator) seal(odcid ConnID, addr netip.AddrPort, now time.Time) []byte {
	nonce := make([]byte, len(v.nonce))
	binary.BigEndian.PutUint32(nonce, uint32(now.Unix()))
	copy(nonce[4:], v.nonce[4:])

	token := make([]byte, 4, 4+len(odcid)+v.aead.Overhead())
	binary.BigEndian.PutUint32(token, uint32(now.Unix()))
	return v.aead.Seal(token, nonce, odcid, []byte(addr.String()))
}

func (v *aeadAddressValidator) open(token []byte, addr netip.AddrPort, now time.Time) (ConnID, bool) {
	if len(token) < 4 {
		return nil, false
	}
	issued := int64(binary.BigEndian.Uint32(token))
	nowUnix := now.Unix()
	if issued < nowUnix-int64(retryTokenValidity/time.Second) || issued > nowUnix {
		return nil, false
	}
	nonce := make([]byte, len(v.nonce))
	copy(nonce, token[:4])
	copy(nonce[4:], v.nonce[4:])
	odcid, err := v.aead.Open(nil, nonce, token[4:], []byte(addr.String()))
	if err != nil {
		return nil, false
	}
	return ConnID(odcid), true
}
