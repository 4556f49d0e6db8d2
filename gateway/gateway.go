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

// Package gateway translates HTTP-style read requests into BACnet
// ReadProperty and ReadPropertyMultiple exchanges and decodes the replies
// into generic values
package gateway

import (
	"context"
	"log/slog"
	"time"

	"github.com/edgeo-scada/bacnet-gateway/bacnet"
)

// ReadParams describes a single-property read
type ReadParams struct {
	Address    string
	Object     string
	Property   string // defaults to presentValue
	ArrayIndex *uint32
	Timeout    time.Duration
}

// BatchParams describes a batched read against one device
type BatchParams struct {
	Address string
	Objects []ObjectProperty
	Timeout time.Duration
}

// Gateway composes resolution, request building, dispatch and decoding.
// It performs no network I/O of its own
type Gateway struct {
	resolver *Resolver
	builder  *Builder
	tracker  *Tracker
	decoder  *Decoder
	opts     *gatewayOptions
	logger   *slog.Logger
}

// New creates a gateway dispatching through network
func New(network Network, opts ...Option) *Gateway {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	if options.schema == nil {
		options.schema = DefaultSchema()
	}

	resolver := NewResolver(options.schema)
	return &Gateway{
		resolver: resolver,
		builder:  NewBuilder(resolver),
		tracker:  NewTracker(network, options.timeout, options.logger),
		decoder:  NewDecoder(resolver),
		opts:     options,
		logger:   options.logger,
	}
}

// Resolver returns the resolver used to validate requests
func (g *Gateway) Resolver() *Resolver {
	return g.resolver
}

// Metrics returns the dispatch metrics
func (g *Gateway) Metrics() *TrackerMetrics {
	return g.tracker.Metrics()
}

// ClampTimeout bounds a caller supplied timeout. Zero or negative values
// select the default
func (g *Gateway) ClampTimeout(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return g.opts.timeout
	case d > g.opts.maxTimeout:
		return g.opts.maxTimeout
	}
	return d
}

// Read reads one property of one object
func (g *Gateway) Read(ctx context.Context, p ReadParams) (*DecodedResult, error) {
	if p.Property == "" {
		p.Property = bacnet.PropertyPresentValue.String()
	}

	req, err := g.builder.BuildSingleRead(p.Address, p.Object, p.Property, p.ArrayIndex)
	if err != nil {
		return nil, err
	}
	return g.execute(ctx, req, p.Timeout)
}

// ReadMultiple reads a list of object/property pairs from one device in a
// single exchange. Property failures are reported per entry
func (g *Gateway) ReadMultiple(ctx context.Context, p BatchParams) (*DecodedResult, error) {
	req, err := g.builder.BuildBatchRead(p.Address, p.Objects)
	if err != nil {
		return nil, err
	}
	return g.execute(ctx, req, p.Timeout)
}

// WhoIs is not supported; device discovery is left to other tools
func (g *Gateway) WhoIs(ctx context.Context, args ...string) error {
	return ErrNotImplemented
}

func (g *Gateway) execute(ctx context.Context, req *ReadRequest, timeout time.Duration) (*DecodedResult, error) {
	apdu, err := g.tracker.Dispatch(ctx, req, g.ClampTimeout(timeout))
	if err != nil {
		return nil, err
	}

	result, err := g.decoder.Decode(apdu, req)
	if err != nil {
		g.logger.Warn("undecodable reply",
			slog.String("address", req.Address.String()),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	return result, nil
}
