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
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/edgeo-scada/bacnet-gateway/bacnet"
)

// DefaultTimeout bounds a dispatch when the caller gives no timeout
const DefaultTimeout = 5 * time.Second

// OperationState is the lifecycle state of a PendingOperation
type OperationState int32

const (
	OperationCreated OperationState = iota
	OperationSent
	OperationCompletedOK
	OperationCompletedError
	OperationTimedOut
)

func (s OperationState) String() string {
	switch s {
	case OperationCreated:
		return "created"
	case OperationSent:
		return "sent"
	case OperationCompletedOK:
		return "completed"
	case OperationCompletedError:
		return "failed"
	case OperationTimedOut:
		return "timed-out"
	}
	return "unknown"
}

// Terminal reports whether s is a final state
func (s OperationState) Terminal() bool {
	return s >= OperationCompletedOK
}

// PendingOperation tracks one in-flight ReadRequest. Its result slot is
// written at most once; every signal after the first terminal transition is
// ignored
type PendingOperation struct {
	Request  *ReadRequest
	Deadline time.Time

	state    atomic.Int32
	response *bacnet.APDU
	err      error
	done     chan struct{}
}

func newPendingOperation(req *ReadRequest, deadline time.Time) *PendingOperation {
	return &PendingOperation{
		Request:  req,
		Deadline: deadline,
		done:     make(chan struct{}),
	}
}

// State returns the current state
func (op *PendingOperation) State() OperationState {
	return OperationState(op.state.Load())
}

// Done is closed once the operation is terminal
func (op *PendingOperation) Done() <-chan struct{} {
	return op.done
}

// Result returns the reply or error. Valid once Done is closed
func (op *PendingOperation) Result() (*bacnet.APDU, error) {
	return op.response, op.err
}

func (op *PendingOperation) markSent() bool {
	return op.state.CompareAndSwap(int32(OperationCreated), int32(OperationSent))
}

// finish moves a sent operation to state. It returns false when the
// operation was already terminal
func (op *PendingOperation) finish(state OperationState, apdu *bacnet.APDU, err error) bool {
	if !op.state.CompareAndSwap(int32(OperationSent), int32(state)) {
		return false
	}
	op.response = apdu
	op.err = err
	close(op.done)
	return true
}

// complete records a network completion signal
func (op *PendingOperation) complete(apdu *bacnet.APDU, err error) bool {
	switch {
	case err == nil:
		if merr := checkAcknowledgement(op.Request, apdu); merr != nil {
			return op.finish(OperationCompletedError, nil, merr)
		}
		return op.finish(OperationCompletedOK, apdu, nil)
	case errors.Is(err, bacnet.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return op.expire()
	}
	return op.finish(OperationCompletedError, nil, err)
}

func (op *PendingOperation) expire() bool {
	return op.finish(OperationTimedOut, nil, ErrTimeout)
}

func checkAcknowledgement(req *ReadRequest, apdu *bacnet.APDU) error {
	if apdu == nil || apdu.Type != bacnet.PDUTypeComplexAck || apdu.Service != uint8(req.Service) {
		got := "nothing"
		if apdu != nil {
			got = fmt.Sprintf("%s for service %d", apdu.Type, apdu.Service)
		}
		return &RemoteError{
			Kind: MalformedAcknowledgement,
			Err:  fmt.Errorf("expected an acknowledgement for %s, got %s", req.Service, got),
		}
	}
	return nil
}

// TrackerMetrics counts dispatch outcomes
type TrackerMetrics struct {
	Dispatched bacnet.Counter
	Succeeded  bacnet.Counter
	Failed     bacnet.Counter
	TimedOut   bacnet.Counter
	// completion signals that arrived after the operation was terminal
	Discarded bacnet.Counter
	InFlight  bacnet.Gauge
	Latency   *bacnet.LatencyHistogram
}

// TrackerSnapshot is a point-in-time copy of TrackerMetrics
type TrackerSnapshot struct {
	Dispatched int64               `json:"dispatched"`
	Succeeded  int64               `json:"succeeded"`
	Failed     int64               `json:"failed"`
	TimedOut   int64               `json:"timed_out"`
	Discarded  int64               `json:"discarded"`
	InFlight   int64               `json:"in_flight"`
	Latency    bacnet.LatencyStats `json:"latency"`
}

// Snapshot returns the current values
func (m *TrackerMetrics) Snapshot() TrackerSnapshot {
	return TrackerSnapshot{
		Dispatched: m.Dispatched.Value(),
		Succeeded:  m.Succeeded.Value(),
		Failed:     m.Failed.Value(),
		TimedOut:   m.TimedOut.Value(),
		Discarded:  m.Discarded.Value(),
		InFlight:   m.InFlight.Value(),
		Latency:    m.Latency.Stats(),
	}
}

// Tracker dispatches requests onto a shared Network and waits for exactly
// one outcome per request
type Tracker struct {
	network        Network
	defaultTimeout time.Duration
	metrics        *TrackerMetrics
	logger         *slog.Logger
}

// NewTracker creates a tracker sending through network
func NewTracker(network Network, defaultTimeout time.Duration, logger *slog.Logger) *Tracker {
	if defaultTimeout <= 0 {
		defaultTimeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		network:        network,
		defaultTimeout: defaultTimeout,
		metrics:        &TrackerMetrics{Latency: bacnet.NewLatencyHistogram()},
		logger:         logger,
	}
}

// Metrics returns the tracker metrics
func (t *Tracker) Metrics() *TrackerMetrics {
	return t.metrics
}

// Dispatch sends req and blocks until the reply, a remote error or the
// deadline, whichever comes first. A timeout of zero uses the tracker
// default. Remote failures are returned as *RemoteError and timeouts as
// *TimeoutError; neither is retried
func (t *Tracker) Dispatch(ctx context.Context, req *ReadRequest, timeout time.Duration) (*bacnet.APDU, error) {
	if timeout <= 0 {
		timeout = t.defaultTimeout
	}
	start := time.Now()
	op := newPendingOperation(req, start.Add(timeout))

	sendCtx, cancel := context.WithDeadline(ctx, op.Deadline)
	defer cancel()

	op.markSent()
	timer := time.AfterFunc(timeout, func() {
		if op.expire() {
			t.logger.Debug("read timed out",
				slog.String("address", req.Address.String()),
				slog.Duration("timeout", timeout),
			)
		}
	})
	defer timer.Stop()

	t.metrics.Dispatched.Inc()
	t.metrics.InFlight.Inc()
	defer t.metrics.InFlight.Dec()

	t.logger.Debug("dispatching read",
		slog.String("address", req.Address.String()),
		slog.String("service", req.Service.String()),
		slog.Int("properties", req.Count()),
	)

	if err := t.network.Send(sendCtx, req, func(apdu *bacnet.APDU, err error) {
		if !op.complete(apdu, err) {
			t.metrics.Discarded.Inc()
		}
	}); err != nil {
		op.complete(nil, err)
	}

	select {
	case <-op.Done():
	case <-ctx.Done():
		op.complete(nil, ctx.Err())
		<-op.Done()
	}

	apdu, err := op.Result()
	switch op.State() {
	case OperationCompletedOK:
		t.metrics.Succeeded.Inc()
		t.metrics.Latency.Record(time.Since(start))
		return apdu, nil
	case OperationTimedOut:
		t.metrics.TimedOut.Inc()
		return nil, &TimeoutError{Timeout: timeout.String()}
	}

	t.metrics.Failed.Inc()
	t.logger.Debug("read failed",
		slog.String("address", req.Address.String()),
		slog.String("error", err.Error()),
	)
	var remoteErr *RemoteError
	switch {
	case errors.As(err, &remoteErr):
		return nil, remoteErr
	case errors.Is(err, context.Canceled):
		return nil, err
	}
	return nil, newRemoteError(err)
}
