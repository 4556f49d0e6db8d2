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

// Package transport provides the UDP socket shared by all BACnet/IP requests
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"
)

// ErrClosed is returned once the transport has been closed
var ErrClosed = errors.New("transport: closed")

// maxDatagram covers a full 1476 byte APDU plus BVLC and NPDU headers
const maxDatagram = 1536

// UDPTransport implements BACnet/IP transport over UDP
type UDPTransport struct {
	localAddr    string
	writeTimeout time.Duration

	mu     sync.RWMutex
	conn   *net.UDPConn
	closed bool
}

// NewUDPTransport creates a new UDP transport bound to localAddr on Open
func NewUDPTransport(localAddr string, writeTimeout time.Duration) *UDPTransport {
	return &UDPTransport{
		localAddr:    localAddr,
		writeTimeout: writeTimeout,
	}
}

// Open binds the UDP socket
func (t *UDPTransport) Open() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		return nil
	}

	addr, err := net.ResolveUDPAddr("udp4", t.localAddr)
	if err != nil {
		return fmt.Errorf("resolve local address: %w", err)
	}

	conn, err := net.ListenUDP("udp4", addr)
	if err != nil {
		return fmt.Errorf("listen UDP: %w", err)
	}

	t.conn = conn
	t.closed = false
	return nil
}

// Close closes the socket. A blocked Receive returns ErrClosed
func (t *UDPTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil || t.closed {
		return nil
	}

	t.closed = true
	return t.conn.Close()
}

// LocalAddr returns the bound address, or nil before Open
func (t *UDPTransport) LocalAddr() *net.UDPAddr {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.conn == nil {
		return nil
	}
	return t.conn.LocalAddr().(*net.UDPAddr)
}

func (t *UDPTransport) socket() (*net.UDPConn, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.conn == nil || t.closed {
		return nil, ErrClosed
	}
	return t.conn, nil
}

// Send writes one datagram to addr
func (t *UDPTransport) Send(ctx context.Context, addr *net.UDPAddr, data []byte) error {
	conn, err := t.socket()
	if err != nil {
		return err
	}

	deadline := time.Now().Add(t.writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}

	n, err := conn.WriteToUDP(data, addr)
	if err != nil {
		return fmt.Errorf("write UDP: %w", err)
	}
	if n != len(data) {
		return fmt.Errorf("partial write: %d of %d bytes", n, len(data))
	}

	return nil
}

// Receive blocks until a datagram arrives or the transport is closed
func (t *UDPTransport) Receive() ([]byte, *net.UDPAddr, error) {
	conn, err := t.socket()
	if err != nil {
		return nil, nil, err
	}

	buf := make([]byte, maxDatagram)
	n, addr, err := conn.ReadFromUDP(buf)
	if err != nil {
		if errors.Is(err, net.ErrClosed) {
			return nil, nil, ErrClosed
		}
		return nil, nil, err
	}

	return buf[:n], addr, nil
}
