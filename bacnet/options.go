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
	"log/slog"
	"time"
)

// Foreign device TTL bounds, in whole seconds of a 16-bit BVLC field
const (
	minForeignDeviceTTL = 2 * time.Second
	maxForeignDeviceTTL = 65535 * time.Second
)

// clientOptions holds configuration for the BACnet client
type clientOptions struct {
	localAddress string

	// Foreign device registration
	bbmdAddress      string
	bbmdPort         int
	foreignDeviceTTL time.Duration

	// Upper bound for a request whose context carries no deadline
	timeout time.Duration

	maxAPDULength uint16

	logger *slog.Logger
}

// defaultOptions returns the default client options
func defaultOptions() *clientOptions {
	return &clientOptions{
		localAddress:     ":0",
		bbmdPort:         DefaultPort,
		foreignDeviceTTL: 15 * time.Minute,
		timeout:          60 * time.Second,
		maxAPDULength:    MaxAPDULength,
		logger:           slog.Default(),
	}
}

// Option is a functional option for configuring the client
type Option func(*clientOptions)

// WithLocalAddress sets the local address to bind to
func WithLocalAddress(addr string) Option {
	return func(o *clientOptions) {
		if addr != "" {
			o.localAddress = addr
		}
	}
}

// WithBBMD sets the BBMD (BACnet Broadcast Management Device) address for foreign device registration
func WithBBMD(addr string, port int, ttl time.Duration) Option {
	return func(o *clientOptions) {
		o.bbmdAddress = addr
		if port > 0 {
			o.bbmdPort = port
		}
		if ttl > 0 {
			o.foreignDeviceTTL = min(max(ttl, minForeignDeviceTTL), maxForeignDeviceTTL)
		}
	}
}

// WithTimeout sets the ceiling applied to requests whose context has no
// deadline
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithMaxAPDULength sets the maximum APDU length
func WithMaxAPDULength(length uint16) Option {
	return func(o *clientOptions) {
		if length > 0 {
			o.maxAPDULength = length
		}
	}
}

// WithLogger sets the logger for the client
func WithLogger(logger *slog.Logger) Option {
	return func(o *clientOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// maxAPDUCode returns the max-APDU-length-accepted field of a confirmed
// request
func (o *clientOptions) maxAPDUCode() uint8 {
	switch {
	case o.maxAPDULength >= 1476:
		return 5
	case o.maxAPDULength >= 1024:
		return 4
	case o.maxAPDULength >= 480:
		return 3
	case o.maxAPDULength >= 206:
		return 2
	case o.maxAPDULength >= 128:
		return 1
	}
	return 0
}
