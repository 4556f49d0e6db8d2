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

package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgeo-scada/bacnet-gateway/bacnet"
)

// captureNetwork hands every completion callback to the test
type captureNetwork struct {
	completions chan func(*bacnet.APDU, error)
}

func (n *captureNetwork) Send(ctx context.Context, req *ReadRequest, complete func(*bacnet.APDU, error)) error {
	n.completions <- complete
	return nil
}

func testReadRequest(t *testing.T) *ReadRequest {
	t.Helper()
	req, err := newTestBuilder().BuildSingleRead("10.0.0.5", "analogValue:1", "presentValue", nil)
	require.NoError(t, err)
	return req
}

func TestDispatchSuccess(t *testing.T) {
	ack := readPropertyAck(av(1), bacnet.PropertyPresentValue, nil, bacnet.EncodeRealTag(72.5))
	network := &fakeNetwork{reply: func(*ReadRequest) (*bacnet.APDU, error) { return ack, nil }}
	tracker := NewTracker(network, time.Second, nil)

	apdu, err := tracker.Dispatch(context.Background(), testReadRequest(t), 0)
	require.NoError(t, err)
	assert.Same(t, ack, apdu)

	snap := tracker.Metrics().Snapshot()
	assert.Equal(t, int64(1), snap.Dispatched)
	assert.Equal(t, int64(1), snap.Succeeded)
	assert.Equal(t, int64(0), snap.InFlight)
	assert.Equal(t, int64(1), snap.Latency.Count)
}

func TestDispatchTimeout(t *testing.T) {
	network := &fakeNetwork{}
	tracker := NewTracker(network, time.Second, nil)

	start := time.Now()
	_, err := tracker.Dispatch(context.Background(), testReadRequest(t), 20*time.Millisecond)
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, "no response within 20ms", err.Error())
	assert.Equal(t, int64(1), tracker.Metrics().TimedOut.Value())
	assert.Len(t, network.requests(), 1)
}

func TestDispatchLateReplyDiscarded(t *testing.T) {
	network := &captureNetwork{completions: make(chan func(*bacnet.APDU, error), 1)}
	tracker := NewTracker(network, time.Second, nil)

	_, err := tracker.Dispatch(context.Background(), testReadRequest(t), 10*time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)

	complete := <-network.completions
	complete(readPropertyAck(av(1), bacnet.PropertyPresentValue, nil, bacnet.EncodeRealTag(1)), nil)
	complete(nil, errors.New("late failure"))

	snap := tracker.Metrics().Snapshot()
	assert.Equal(t, int64(2), snap.Discarded)
	assert.Equal(t, int64(1), snap.TimedOut)
	assert.Equal(t, int64(0), snap.Succeeded)
	assert.Equal(t, int64(0), snap.Failed)
}

func TestDispatchNetworkTimeout(t *testing.T) {
	network := &fakeNetwork{reply: func(*ReadRequest) (*bacnet.APDU, error) { return nil, bacnet.ErrTimeout }}
	tracker := NewTracker(network, time.Second, nil)

	_, err := tracker.Dispatch(context.Background(), testReadRequest(t), 0)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, "no response within 1s", err.Error())
}

func TestDispatchRemoteErrors(t *testing.T) {
	tests := []struct {
		name   string
		reply  func(*ReadRequest) (*bacnet.APDU, error)
		kind   RemoteKind
		target error
	}{
		{
			name: "error response",
			reply: func(*ReadRequest) (*bacnet.APDU, error) {
				return nil, bacnet.NewBACnetError(bacnet.ErrorClassObject, bacnet.ErrorCodeUnknownObject)
			},
			kind:   RemoteErrorResponse,
			target: bacnet.NewBACnetError(bacnet.ErrorClassObject, bacnet.ErrorCodeUnknownObject),
		},
		{
			name: "abort",
			reply: func(*ReadRequest) (*bacnet.APDU, error) {
				return nil, &bacnet.AbortError{Server: true, Reason: bacnet.AbortReasonSegmentationNotSupported}
			},
			kind:   RemoteAbort,
			target: ErrRemote,
		},
		{
			name: "reject",
			reply: func(*ReadRequest) (*bacnet.APDU, error) {
				return nil, &bacnet.RejectError{InvokeID: 4}
			},
			kind:   RemoteReject,
			target: ErrRemote,
		},
		{
			name: "wrong service",
			reply: func(*ReadRequest) (*bacnet.APDU, error) {
				return complexAck(bacnet.ServiceReadPropertyMultiple, nil), nil
			},
			kind:   MalformedAcknowledgement,
			target: ErrRemote,
		},
		{
			name: "simple ack",
			reply: func(*ReadRequest) (*bacnet.APDU, error) {
				return &bacnet.APDU{Type: bacnet.PDUTypeSimpleAck, Service: uint8(bacnet.ServiceReadProperty)}, nil
			},
			kind:   MalformedAcknowledgement,
			target: ErrRemote,
		},
		{
			name: "transport failure",
			reply: func(*ReadRequest) (*bacnet.APDU, error) {
				return nil, bacnet.ErrConnectionClosed
			},
			kind:   RemoteFailure,
			target: bacnet.ErrConnectionClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := NewTracker(&fakeNetwork{reply: tt.reply}, time.Second, nil)

			_, err := tracker.Dispatch(context.Background(), testReadRequest(t), 0)
			var remoteErr *RemoteError
			require.ErrorAs(t, err, &remoteErr)
			assert.Equal(t, tt.kind, remoteErr.Kind)
			assert.ErrorIs(t, err, tt.target)
			assert.Equal(t, int64(1), tracker.Metrics().Failed.Value())
		})
	}
}

func TestDispatchSendError(t *testing.T) {
	network := &fakeNetwork{sendErr: bacnet.ErrNotConnected}
	tracker := NewTracker(network, time.Second, nil)

	_, err := tracker.Dispatch(context.Background(), testReadRequest(t), 0)
	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, RemoteFailure, remoteErr.Kind)
	assert.ErrorIs(t, err, bacnet.ErrNotConnected)
}

func TestDispatchCanceled(t *testing.T) {
	tracker := NewTracker(&fakeNetwork{}, time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	_, err := tracker.Dispatch(ctx, testReadRequest(t), 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(0), tracker.Metrics().InFlight.Value())
}

func TestPendingOperationSingleWrite(t *testing.T) {
	req := testReadRequest(t)
	ack := readPropertyAck(av(1), bacnet.PropertyPresentValue, nil, bacnet.EncodeRealTag(2))

	op := newPendingOperation(req, time.Now().Add(time.Second))
	assert.Equal(t, OperationCreated, op.State())
	assert.False(t, op.complete(ack, nil), "completion before send")

	require.True(t, op.markSent())
	assert.False(t, op.markSent())

	assert.True(t, op.complete(ack, nil))
	assert.False(t, op.expire())
	assert.False(t, op.complete(nil, errors.New("second")))

	<-op.Done()
	apdu, err := op.Result()
	assert.Same(t, ack, apdu)
	assert.NoError(t, err)
	assert.Equal(t, OperationCompletedOK, op.State())
	assert.True(t, op.State().Terminal())
}

func TestPendingOperationExpireFirst(t *testing.T) {
	op := newPendingOperation(testReadRequest(t), time.Now())
	require.True(t, op.markSent())

	assert.True(t, op.expire())
	assert.False(t, op.complete(readPropertyAck(av(1), bacnet.PropertyPresentValue, nil, bacnet.EncodeRealTag(2)), nil))

	_, err := op.Result()
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, OperationTimedOut, op.State())
	assert.Equal(t, "timed-out", op.State().String())
}
