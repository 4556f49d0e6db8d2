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

	"github.com/edgeo-scada/bacnet-gateway/bacnet"
)

// Network delivers read requests to devices. Send must not block on the
// reply: it hands the request off and later calls complete exactly once with
// the reply APDU or the error that ended the exchange. Replies arriving
// after ctx is done must not be delivered
type Network interface {
	Send(ctx context.Context, req *ReadRequest, complete func(*bacnet.APDU, error)) error
}

// ClientNetwork is a Network backed by a shared bacnet.Client
type ClientNetwork struct {
	client *bacnet.Client
}

// NewClientNetwork wraps client. The client must be connected before use
func NewClientNetwork(client *bacnet.Client) *ClientNetwork {
	return &ClientNetwork{client: client}
}

// Send implements Network
func (n *ClientNetwork) Send(ctx context.Context, req *ReadRequest, complete func(*bacnet.APDU, error)) error {
	if n.client.State() != bacnet.StateConnected {
		return bacnet.ErrNotConnected
	}

	data := req.Encode()
	go func() {
		complete(n.client.SendConfirmed(ctx, req.Address, req.Service, data))
	}()
	return nil
}

// Metrics returns the metrics of the underlying client
func (n *ClientNetwork) Metrics() *bacnet.Metrics {
	return n.client.Metrics()
}
