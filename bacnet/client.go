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
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/edgeo-scada/bacnet-gateway/bacnet/internal/transport"
)

// ConnectionState represents the client connection state
type ConnectionState int32

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// Client is a BACnet/IP client. A single UDP socket is shared by all
// requests; replies are matched to callers by invoke ID and source address
type Client struct {
	opts      *clientOptions
	transport *transport.UDPTransport

	state atomic.Int32

	// Pending requests, keyed by invoke ID
	pendingMu sync.Mutex
	pending   map[uint8]*pendingRequest
	nextID    uint8

	metrics *Metrics
	logger  *slog.Logger

	done         chan struct{}
	receiverDone chan struct{}
	wg           sync.WaitGroup
}

type pendingRequest struct {
	addr *net.UDPAddr
	ch   chan *APDU
}

// NewClient creates a new BACnet client
func NewClient(opts ...Option) *Client {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	return &Client{
		opts:      options,
		transport: transport.NewUDPTransport(options.localAddress, options.timeout),
		pending:   make(map[uint8]*pendingRequest),
		metrics:   NewMetrics(),
		logger:    options.logger,
	}
}

// Connect opens the BACnet client connection
func (c *Client) Connect(ctx context.Context) error {
	if !c.state.CompareAndSwap(int32(StateDisconnected), int32(StateConnecting)) {
		return ErrAlreadyConnected
	}

	if err := c.transport.Open(); err != nil {
		c.state.Store(int32(StateDisconnected))
		return fmt.Errorf("open transport: %w", err)
	}

	c.done = make(chan struct{})
	c.receiverDone = make(chan struct{})
	go c.receiver()

	c.state.Store(int32(StateConnected))

	c.logger.Info("connected",
		slog.String("local_addr", c.transport.LocalAddr().String()),
	)

	if c.opts.bbmdAddress != "" {
		if err := c.registerForeignDevice(ctx); err != nil {
			c.logger.Warn("failed to register as foreign device",
				slog.String("error", err.Error()),
			)
		}
		c.wg.Add(1)
		go c.reregister()
	}

	return nil
}

// Close closes the BACnet client connection. Requests still waiting for a
// reply fail with ErrConnectionClosed
func (c *Client) Close() error {
	if !c.state.CompareAndSwap(int32(StateConnected), int32(StateDisconnected)) {
		return nil
	}

	close(c.done)
	err := c.transport.Close()
	<-c.receiverDone
	c.wg.Wait()

	c.pendingMu.Lock()
	for id, p := range c.pending {
		close(p.ch)
		delete(c.pending, id)
	}
	c.pendingMu.Unlock()

	if err != nil {
		return fmt.Errorf("close transport: %w", err)
	}

	c.logger.Info("disconnected")
	return nil
}

// State returns the current connection state
func (c *Client) State() ConnectionState {
	return ConnectionState(c.state.Load())
}

// Metrics returns the client metrics
func (c *Client) Metrics() *Metrics {
	return c.metrics
}

// LocalAddr returns the address of the client socket, or nil before Connect
func (c *Client) LocalAddr() *net.UDPAddr {
	return c.transport.LocalAddr()
}

// register allocates an invoke ID that is not in flight
func (c *Client) register(addr *net.UDPAddr) (uint8, *pendingRequest, error) {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()

	for i := 0; i < 256; i++ {
		id := c.nextID
		c.nextID++
		if _, busy := c.pending[id]; busy {
			continue
		}
		p := &pendingRequest{addr: addr, ch: make(chan *APDU, 1)}
		c.pending[id] = p
		return id, p, nil
	}
	return 0, nil, ErrNoInvokeID
}

func (c *Client) release(id uint8, p *pendingRequest) {
	c.pendingMu.Lock()
	if c.pending[id] == p {
		delete(c.pending, id)
	}
	c.pendingMu.Unlock()
}

// receiver reads datagrams until the transport is closed
func (c *Client) receiver() {
	defer close(c.receiverDone)

	for {
		data, addr, err := c.transport.Receive()
		if err != nil {
			if errors.Is(err, transport.ErrClosed) {
				return
			}
			select {
			case <-c.done:
				return
			default:
			}
			c.logger.Debug("receive error", slog.String("error", err.Error()))
			continue
		}

		c.metrics.BytesReceived.Add(int64(len(data)))
		c.metrics.RecordActivity()

		c.handlePacket(data, addr)
	}
}

// handlePacket processes an incoming packet
func (c *Client) handlePacket(data []byte, addr *net.UDPAddr) {
	bvlc, err := DecodeBVLC(data)
	if err != nil {
		c.logger.Debug("invalid BVLC", slog.String("error", err.Error()))
		return
	}
	if bvlc.Function == BVLCResult {
		c.handleBVLCResult(data, addr)
		return
	}

	_, apduData, err := DecodeFrame(data)
	if err != nil {
		c.logger.Debug("invalid frame", slog.String("from", addr.String()), slog.String("error", err.Error()))
		return
	}
	if apduData == nil {
		return
	}

	apdu, err := DecodeAPDU(apduData)
	if err != nil {
		c.logger.Debug("invalid APDU", slog.String("from", addr.String()), slog.String("error", err.Error()))
		return
	}

	switch apdu.Type {
	case PDUTypeSimpleAck, PDUTypeComplexAck:
		c.metrics.ResponsesReceived.Inc()
		c.handleResponse(apdu, addr)

	case PDUTypeError:
		c.metrics.ResponsesReceived.Inc()
		c.metrics.ErrorsReceived.Inc()
		c.handleResponse(apdu, addr)

	case PDUTypeReject:
		c.metrics.ResponsesReceived.Inc()
		c.metrics.RejectsReceived.Inc()
		c.handleResponse(apdu, addr)

	case PDUTypeAbort:
		c.metrics.ResponsesReceived.Inc()
		c.metrics.AbortsReceived.Inc()
		c.handleResponse(apdu, addr)

	default:
		// I-Am, COV notifications and requests addressed to us are not served
		c.logger.Debug("ignored APDU",
			slog.String("type", apdu.Type.String()),
			slog.String("from", addr.String()),
		)
	}
}

// handleResponse hands a reply to the request waiting on its invoke ID
func (c *Client) handleResponse(apdu *APDU, addr *net.UDPAddr) {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()

	p, ok := c.pending[apdu.InvokeID]
	if !ok || !sameAddr(p.addr, addr) {
		c.metrics.LateResponses.Inc()
		c.logger.Debug("dropped unmatched reply",
			slog.Int("invoke_id", int(apdu.InvokeID)),
			slog.String("from", addr.String()),
		)
		return
	}

	select {
	case p.ch <- apdu:
	default:
	}
}

func (c *Client) handleBVLCResult(data []byte, addr *net.UDPAddr) {
	if len(data) < 6 {
		return
	}
	if code := binary.BigEndian.Uint16(data[4:6]); code != 0 {
		c.logger.Warn("BVLC request refused",
			slog.String("from", addr.String()),
			slog.Int("result", int(code)),
		)
	}
}

func sameAddr(a, b *net.UDPAddr) bool {
	return a.Port == b.Port && a.IP.Equal(b.IP)
}

// SendConfirmed sends a confirmed service request to addr and waits for the
// matching reply. The wait ends with the context: a deadline yields
// ErrTimeout and a reply arriving afterwards is dropped. Error, Reject and
// Abort replies are returned as *BACnetError, *RejectError and *AbortError
func (c *Client) SendConfirmed(ctx context.Context, addr *net.UDPAddr, service ConfirmedServiceChoice, data []byte) (*APDU, error) {
	if c.State() != StateConnected {
		return nil, ErrNotConnected
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.timeout)
		defer cancel()
	}

	invokeID, p, err := c.register(addr)
	if err != nil {
		return nil, err
	}
	defer c.release(invokeID, p)

	packet := EncodeFrame(EncodeConfirmedRequest(invokeID, service, data, 0, c.opts.maxAPDUCode()), true)

	start := time.Now()
	c.metrics.RequestsSent.Inc()
	c.metrics.ActiveRequests.Inc()
	defer c.metrics.ActiveRequests.Dec()

	if err := c.transport.Send(ctx, addr, packet); err != nil {
		c.metrics.RequestsFailed.Inc()
		return nil, fmt.Errorf("send request: %w", err)
	}
	c.metrics.BytesSent.Add(int64(len(packet)))

	c.logger.Debug("request sent",
		slog.String("service", service.String()),
		slog.Int("invoke_id", int(invokeID)),
		slog.String("to", addr.String()),
	)

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			c.metrics.RequestsTimedOut.Inc()
			return nil, fmt.Errorf("%w: %s invoke-id=%d to %s", ErrTimeout, service, invokeID, addr)
		}
		c.metrics.RequestsFailed.Inc()
		return nil, ctx.Err()

	case resp, ok := <-p.ch:
		c.metrics.RequestLatency.Record(time.Since(start))

		if !ok {
			c.metrics.RequestsFailed.Inc()
			return nil, ErrConnectionClosed
		}

		switch resp.Type {
		case PDUTypeSimpleAck, PDUTypeComplexAck:
			if resp.Segmented {
				c.metrics.RequestsFailed.Inc()
				return nil, ErrSegmentationNotSupported
			}
			c.metrics.RequestsSucceeded.Inc()
			return resp, nil

		case PDUTypeError:
			c.metrics.RequestsFailed.Inc()
			bacnetErr, _, err := DecodeErrorPayload(resp.Data)
			if err != nil {
				return nil, err
			}
			return nil, bacnetErr

		case PDUTypeReject:
			c.metrics.RequestsFailed.Inc()
			return nil, &RejectError{
				InvokeID: resp.InvokeID,
				Reason:   RejectReason(resp.Service),
			}

		case PDUTypeAbort:
			c.metrics.RequestsFailed.Inc()
			return nil, &AbortError{
				InvokeID: resp.InvokeID,
				Server:   resp.Server,
				Reason:   AbortReason(resp.Service),
			}

		default:
			c.metrics.RequestsFailed.Inc()
			return nil, fmt.Errorf("%w: unexpected PDU type %s", ErrInvalidResponse, resp.Type)
		}
	}
}

// registerForeignDevice registers as a foreign device with the BBMD
func (c *Client) registerForeignDevice(ctx context.Context) error {
	addr, err := ParseAddress(fmt.Sprintf("%s:%d", c.opts.bbmdAddress, c.opts.bbmdPort))
	if err != nil {
		return fmt.Errorf("resolve BBMD address: %w", err)
	}

	ttl := uint16(c.opts.foreignDeviceTTL.Seconds())

	data := make([]byte, 6)
	data[0] = byte(BVLCTypeBACnetIP)
	data[1] = byte(BVLCRegisterForeignDevice)
	binary.BigEndian.PutUint16(data[2:], 6)
	binary.BigEndian.PutUint16(data[4:], ttl)

	if err := c.transport.Send(ctx, addr, data); err != nil {
		return fmt.Errorf("send registration: %w", err)
	}

	c.logger.Info("registered as foreign device",
		slog.String("bbmd", addr.String()),
		slog.Duration("ttl", c.opts.foreignDeviceTTL),
	)

	return nil
}

// reregister renews the foreign device registration at half its TTL
func (c *Client) reregister() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.opts.foreignDeviceTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), c.opts.timeout)
			if err := c.registerForeignDevice(ctx); err != nil {
				c.logger.Warn("foreign device renewal failed", slog.String("error", err.Error()))
			}
			cancel()
		}
	}
}
