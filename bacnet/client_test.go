// Copyright 2025 Edgeo SCADA
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bacnet

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDevice answers confirmed requests on a loopback socket
type fakeDevice struct {
	conn    *net.UDPConn
	handler func(req *APDU) []byte
	wg      sync.WaitGroup
}

func newFakeDevice(t *testing.T, handler func(req *APDU) []byte) *fakeDevice {
	t.Helper()

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)

	d := &fakeDevice{conn: conn, handler: handler}
	d.wg.Add(1)
	go d.serve()
	t.Cleanup(func() {
		conn.Close()
		d.wg.Wait()
	})
	return d
}

func (d *fakeDevice) addr() *net.UDPAddr {
	return d.conn.LocalAddr().(*net.UDPAddr)
}

func (d *fakeDevice) serve() {
	defer d.wg.Done()

	buf := make([]byte, 1536)
	for {
		n, from, err := d.conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		_, apduData, err := DecodeFrame(append([]byte(nil), buf[:n]...))
		if err != nil || apduData == nil {
			continue
		}
		req, err := DecodeAPDU(apduData)
		if err != nil || req.Type != PDUTypeConfirmedRequest {
			continue
		}
		if reply := d.handler(req); reply != nil {
			d.conn.WriteToUDP(EncodeFrame(reply, false), from)
		}
	}
}

func newTestClient(t *testing.T) *Client {
	t.Helper()

	c := NewClient(WithLocalAddress("127.0.0.1:0"), WithTimeout(2*time.Second))
	require.NoError(t, c.Connect(context.Background()))
	t.Cleanup(func() { c.Close() })
	return c
}

func readPropertyAck(req *APDU, value []byte) []byte {
	var data []byte
	data = append(data, req.Data...)
	data = append(data, EncodeOpeningTag(3)...)
	data = append(data, value...)
	data = append(data, EncodeClosingTag(3)...)
	return EncodeComplexAck(req.InvokeID, ServiceReadProperty, data)
}

func TestSendConfirmedComplexAck(t *testing.T) {
	dev := newFakeDevice(t, func(req *APDU) []byte {
		return readPropertyAck(req, EncodeRealTag(21.5))
	})
	c := newTestClient(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	payload := append(EncodeContextObjectIdentifier(0, NewObjectIdentifier(ObjectTypeAnalogValue, 1)),
		EncodeContextEnumerated(1, uint32(PropertyPresentValue))...)
	resp, err := c.SendConfirmed(ctx, dev.addr(), ServiceReadProperty, payload)
	require.NoError(t, err)
	assert.Equal(t, PDUTypeComplexAck, resp.Type)
	assert.Equal(t, uint8(ServiceReadProperty), resp.Service)
	assert.Equal(t, append(append(append(payload, EncodeOpeningTag(3)...), EncodeRealTag(21.5)...), EncodeClosingTag(3)...), resp.Data)

	snap := c.Metrics().Snapshot()
	assert.Equal(t, int64(1), snap.RequestsSent)
	assert.Equal(t, int64(1), snap.RequestsSucceeded)
	assert.Equal(t, int64(0), snap.ActiveRequests)
}

func TestSendConfirmedProtocolErrors(t *testing.T) {
	tests := []struct {
		name  string
		reply func(req *APDU) []byte
		check func(t *testing.T, err error)
	}{
		{
			name: "error",
			reply: func(req *APDU) []byte {
				return EncodeErrorPDU(req.InvokeID, ServiceReadProperty, ErrorClassObject, ErrorCodeUnknownObject)
			},
			check: func(t *testing.T, err error) {
				var bacnetErr *BACnetError
				require.ErrorAs(t, err, &bacnetErr)
				assert.Equal(t, ErrorCodeUnknownObject, bacnetErr.Code)
				assert.ErrorIs(t, err, NewBACnetError(ErrorClassObject, ErrorCodeUnknownObject))
			},
		},
		{
			name: "reject",
			reply: func(req *APDU) []byte {
				return EncodeRejectPDU(req.InvokeID, RejectReasonUnrecognizedService)
			},
			check: func(t *testing.T, err error) {
				var rejectErr *RejectError
				require.ErrorAs(t, err, &rejectErr)
				assert.Equal(t, RejectReasonUnrecognizedService, rejectErr.Reason)
			},
		},
		{
			name: "abort",
			reply: func(req *APDU) []byte {
				return EncodeAbortPDU(req.InvokeID, AbortReasonSegmentationNotSupported)
			},
			check: func(t *testing.T, err error) {
				var abortErr *AbortError
				require.ErrorAs(t, err, &abortErr)
				assert.True(t, abortErr.Server)
				assert.Equal(t, AbortReasonSegmentationNotSupported, abortErr.Reason)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newFakeDevice(t, tt.reply)
			c := newTestClient(t)

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			_, err := c.SendConfirmed(ctx, dev.addr(), ServiceReadProperty, nil)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestSendConfirmedRejectsSegmentedAck(t *testing.T) {
	var got *APDU
	var mu sync.Mutex
	dev := newFakeDevice(t, func(req *APDU) []byte {
		mu.Lock()
		got = req
		mu.Unlock()
		// segmented ComplexAck header
		reply := []byte{byte(PDUTypeComplexAck) | 0x08, req.InvokeID, 0, 1, byte(ServiceReadProperty)}
		return append(reply, req.Data...)
	})
	c := newTestClient(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := c.SendConfirmed(ctx, dev.addr(), ServiceReadProperty, nil)
	assert.ErrorIs(t, err, ErrSegmentationNotSupported)

	mu.Lock()
	defer mu.Unlock()
	require.NotNil(t, got)
	assert.False(t, got.Segmented)
	assert.Equal(t, uint8(0), got.MaxSegments)
	assert.Equal(t, uint8(5), got.MaxAPDU)
	assert.Equal(t, int64(1), c.Metrics().RequestsFailed.Value())
}

func TestSendConfirmedTimeoutDropsLateReply(t *testing.T) {
	release := make(chan struct{})
	sent := make(chan struct{}, 1)
	dev := newFakeDevice(t, func(req *APDU) []byte {
		<-release
		sent <- struct{}{}
		return readPropertyAck(req, EncodeRealTag(1))
	})
	c := newTestClient(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.SendConfirmed(ctx, dev.addr(), ServiceReadProperty, nil)
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.Equal(t, int64(1), c.Metrics().RequestsTimedOut.Value())

	close(release)
	<-sent
	require.Eventually(t, func() bool {
		return c.Metrics().LateResponses.Value() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestSendConfirmedIgnoresOtherSource(t *testing.T) {
	dev := newFakeDevice(t, func(req *APDU) []byte { return nil })
	c := newTestClient(t)

	// a stranger answering with an invoke ID in flight
	stranger, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer stranger.Close()

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		_, err := c.SendConfirmed(ctx, dev.addr(), ServiceReadProperty, nil)
		done <- err
	}()

	require.Eventually(t, func() bool { return c.Metrics().ActiveRequests.Value() == 1 }, time.Second, time.Millisecond)
	_, err = stranger.WriteToUDP(EncodeFrame(EncodeComplexAck(0, ServiceReadProperty, nil), false), c.LocalAddr())
	require.NoError(t, err)

	assert.True(t, IsTimeout(<-done))
}

func TestSendConfirmedConcurrentInvokeIDs(t *testing.T) {
	var mu sync.Mutex
	seen := map[uint8]bool{}
	dev := newFakeDevice(t, func(req *APDU) []byte {
		mu.Lock()
		seen[req.InvokeID] = true
		mu.Unlock()
		return readPropertyAck(req, EncodeUnsignedTag(uint32(req.InvokeID)))
	})
	c := newTestClient(t)

	const n = 32
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			resp, err := c.SendConfirmed(ctx, dev.addr(), ServiceReadProperty, nil)
			if err != nil {
				errs <- err
				return
			}
			r := NewTagReader(resp.Data)
			if _, err := r.ReadEnclosed(3); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	assert.Len(t, seen, n)
}

func TestRegisterExhaustsInvokeIDs(t *testing.T) {
	c := NewClient()
	addr := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: DefaultPort}

	for i := 0; i < 256; i++ {
		_, _, err := c.register(addr)
		require.NoError(t, err)
	}
	_, _, err := c.register(addr)
	assert.ErrorIs(t, err, ErrNoInvokeID)
}

func TestSendConfirmedNotConnected(t *testing.T) {
	c := NewClient()
	_, err := c.SendConfirmed(context.Background(), &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: DefaultPort}, ServiceReadProperty, nil)
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestCloseFailsPendingRequests(t *testing.T) {
	dev := newFakeDevice(t, func(req *APDU) []byte { return nil })
	c := NewClient(WithLocalAddress("127.0.0.1:0"))
	require.NoError(t, c.Connect(context.Background()))

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, err := c.SendConfirmed(ctx, dev.addr(), ServiceReadProperty, nil)
		done <- err
	}()

	require.Eventually(t, func() bool { return c.Metrics().ActiveRequests.Value() == 1 }, time.Second, time.Millisecond)
	require.NoError(t, c.Close())

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, ErrConnectionClosed))
	case <-time.After(time.Second):
		t.Fatal("pending request not released on close")
	}
	assert.Equal(t, StateDisconnected, c.State())
}
