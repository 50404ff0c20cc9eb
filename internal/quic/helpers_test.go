// Copyright 2023 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quic

import (
	"context"
	"fmt"
	"net/netip"
	"time"
)

// testNow and testCtx give the test suite a stable clock and context
// without depending on time.Now/context.Background at every call site.
func testNow() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
func testCtx() context.Context { return context.Background() }

func testAddr(n int) netip.AddrPort {
	return netip.AddrPortFrom(netip.AddrFrom4([4]byte{127, 0, 0, byte(n)}), uint16(40000+n))
}

// fakeConn is a test double for Connection. Each call to Process pops
// the next queued Output (defaulting to OutputNone once exhausted) and
// records the datagram it was handed.
type fakeConn struct {
	state     ConnState
	hasEvents bool
	queue     []Output

	processed  int
	gotDgrams  [][]byte
	zeroRTTErr error
	echErr     error
	retryCIDs  *[3]ConnID
	validation AddressValidator
	qlog       QlogWriter
}

func (f *fakeConn) Process(ctx context.Context, dgram []byte, now time.Time) Output {
	f.processed++
	if dgram != nil {
		f.gotDgrams = append(f.gotDgrams, dgram)
	}
	if len(f.queue) == 0 {
		return OutputNone()
	}
	out := f.queue[0]
	f.queue = f.queue[1:]
	return out
}

func (f *fakeConn) State() ConnState { return f.state }
func (f *fakeConn) HasEvents() bool  { return f.hasEvents }

func (f *fakeConn) ServerEnable0RTT(AntiReplayContext, ZeroRttChecker) error { return f.zeroRTTErr }
func (f *fakeConn) ServerEnableECH(uint8, string, []byte, []byte) error     { return f.echErr }

func (f *fakeConn) SetRetryCIDs(odcid, initialSrcCID, initialDstCID ConnID) {
	f.retryCIDs = &[3]ConnID{odcid, initialSrcCID, initialDstCID}
}

func (f *fakeConn) SetValidation(v AddressValidator) { f.validation = v }
func (f *fakeConn) SetQlog(w QlogWriter)             { f.qlog = w }

// newFakeFactory returns a ConnectionFactory that hands out fakeConn
// instances from conns in order, for tests that need to observe the
// specific engine a given acceptConnection call constructed.
func newFakeFactory(conns ...*fakeConn) ConnectionFactory {
	i := 0
	return func(certs, alpn, ciphers []string, params ConnParameters, version uint32, cids CIDProvider) (Connection, error) {
		if i >= len(conns) {
			return nil, fmt.Errorf("fake factory exhausted after %d calls", i)
		}
		c := conns[i]
		i++
		return c, nil
	}
}
